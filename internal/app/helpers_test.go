package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseOutputFormat(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		raw      string
		fallback string
		want     string
		wantErr  bool
	}{
		{name: "explicit table", raw: "table", fallback: outputFormatJSON, want: outputFormatTable},
		{name: "explicit json", raw: "JSON", fallback: outputFormatTable, want: outputFormatJSON},
		{name: "empty uses fallback", raw: "", fallback: outputFormatJSON, want: outputFormatJSON},
		{name: "whitespace uses fallback", raw: "   ", fallback: outputFormatTable, want: outputFormatTable},
		{name: "unknown rejected", raw: "yaml", fallback: outputFormatTable, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseOutputFormat(tc.raw, tc.fallback)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("parseOutputFormat(%q) expected error, got %q", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOutputFormat(%q) unexpected error: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("parseOutputFormat(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTruncateForTable(t *testing.T) {
	t.Parallel()

	if got := truncateForTable("  short  ", 20); got != "short" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := truncateForTable("abcdefghij", 7); got != "abcd..." {
		t.Fatalf("expected ellipsis truncation, got %q", got)
	}
	if got := truncateForTable("abcdefghij", 2); got != "ab" {
		t.Fatalf("expected hard cut for tiny widths, got %q", got)
	}
	if got := truncateForTable("日本語のタイトルです", 8); got != "日本語のタ..." {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
}

func TestCollectJSONFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	mustWrite := func(path string) {
		t.Helper()
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	mustWrite(filepath.Join(root, "b.json"))
	mustWrite(filepath.Join(root, "a.json"))
	mustWrite(filepath.Join(root, "notes.txt"))
	mustWrite(filepath.Join(nested, "c.json"))

	recursive, err := collectJSONFiles(root, true)
	if err != nil {
		t.Fatalf("collectJSONFiles recursive: %v", err)
	}
	if len(recursive) != 3 {
		t.Fatalf("expected 3 json files recursively, got %d: %v", len(recursive), recursive)
	}
	if filepath.Base(recursive[0]) != "a.json" {
		t.Fatalf("expected sorted output starting with a.json, got %v", recursive)
	}

	flat, err := collectJSONFiles(root, false)
	if err != nil {
		t.Fatalf("collectJSONFiles flat: %v", err)
	}
	if len(flat) != 2 {
		t.Fatalf("expected 2 json files without recursion, got %d: %v", len(flat), flat)
	}

	single, err := collectJSONFiles(filepath.Join(root, "a.json"), false)
	if err != nil {
		t.Fatalf("collectJSONFiles single file: %v", err)
	}
	if len(single) != 1 {
		t.Fatalf("expected single file result, got %v", single)
	}

	if _, err := collectJSONFiles(filepath.Join(root, "notes.txt"), false); err == nil {
		t.Fatal("expected error for non-json file path")
	}
	if _, err := collectJSONFiles(filepath.Join(root, "missing"), true); err == nil {
		t.Fatal("expected error for missing path")
	}
}
