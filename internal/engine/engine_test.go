package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestEngine(t *testing.T, trust TrustLookup) *Engine {
	t.Helper()
	eng, err := New(Config{Trust: trust}, zerolog.Nop())
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return eng
}

func TestNew_RejectsInvalidPresets(t *testing.T) {
	t.Parallel()

	_, err := New(Config{
		Presets: map[string]PresetWeights{
			"broken": {Popularity: 1, Relevance: 1, Quality: 1, Credibility: 1},
		},
	}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected preset validation error")
	}
}

func TestRank_ValidatesOptionsBeforeWork(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{})

	cases := []Options{
		{Preset: "quality", SimilarityThreshold: 1.5},
		{Preset: "quality", SimilarityThreshold: -0.1},
		{Preset: "quality", SimilarityThreshold: 0.6, Limit: -1},
		{Preset: "quality", SimilarityThreshold: 0.6, Offset: -1},
		{Preset: "quality", SimilarityThreshold: 0.6, DiversityCap: -1},
	}
	for i, opts := range cases {
		if _, _, err := eng.Rank(context.Background(), nil, opts); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, opts)
		}
	}
}

func TestRank_UnknownPresetFailsEarly(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{})
	opts := DefaultOptions()
	opts.Preset = "bogus"

	_, _, err := eng.Rank(context.Background(), nil, opts)
	if !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestRank_CancelledContext(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := eng.Rank(ctx, []Article{{ID: "a", Title: "t", Body: "b", URL: "https://a.example/1"}}, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRank_EmptyBatch(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{})
	ranked, report, err := eng.Rank(context.Background(), nil, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranked) != 0 || report.InputCount != 0 || report.ReturnedCount != 0 {
		t.Fatalf("expected empty run, got %d results, report %+v", len(ranked), report)
	}
}

func TestRank_EndToEnd(t *testing.T) {
	t.Parallel()

	trust := stubTrust{
		"reuters-like": {Tier: "whitelist"},
		"local-blog":   {Tier: "tier3"},
	}
	eng := newTestEngine(t, trust)

	publishedAt := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	body := "The finance ministry published its revised budget on Monday. " +
		"Spending grows 4% year over year, according to the ministry report. " +
		`"The plan is balanced," a spokesperson said.`

	articles := []Article{
		{
			ID: "wire-1", SourceID: "reuters-like", Title: "Finance ministry publishes revised national budget",
			Body: body, URL: "https://wire.example/budget", PublishedAt: &publishedAt,
			ViewCount: int64Ptr(10000), ShareCount: int64Ptr(500),
		},
		{
			// Same canonical URL as wire-1; collapses in Stage A.
			ID: "wire-1-dup", SourceID: "reuters-like", Title: "Finance ministry publishes revised national budget",
			Body: body, URL: "https://wire.example/budget?utm_source=feed",
		},
		{
			// Title overlap with wire-1 sits between the corroboration
			// threshold and the clustering threshold.
			ID: "blog-1", SourceID: "local-blog", Title: "Finance ministry publishes revised national budget amid analyst scrutiny this week",
			Body: body + " Independent analysts broadly agreed with the figures.",
			URL:  "https://blog.example/budget-take", PublishedAt: &publishedAt,
			ViewCount: int64Ptr(300),
		},
		{
			ID: "spam-1", SourceID: "local-blog", Title: "Huge discount casino event",
			Body: "Click here to buy now. Gambling bonuses and casino chips with free shipping for every visitor.",
			URL:  "https://spam.example/offer",
		},
	}

	opts := DefaultOptions()
	ranked, report, err := eng.Rank(context.Background(), articles, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.InputCount != 4 {
		t.Fatalf("expected input count 4, got %d", report.InputCount)
	}
	if report.AfterURLCount != 3 {
		t.Fatalf("expected URL stage to drop the duplicate, got %d", report.AfterURLCount)
	}
	if report.ExcludedCount < 1 {
		t.Fatalf("expected the spam article to be excluded, got %d exclusions", report.ExcludedCount)
	}
	if len(ranked) == 0 {
		t.Fatalf("expected surviving results")
	}

	for i, r := range ranked {
		if r.Article.ID == "spam-1" {
			t.Fatalf("spam article must not appear in results")
		}
		if r.RankPosition != i+1 {
			t.Fatalf("expected contiguous positions, got %d at index %d", r.RankPosition, i)
		}
		if r.Scores.Integrity < 0.5 {
			t.Fatalf("excluded-range integrity %f leaked into results", r.Scores.Integrity)
		}
	}

	if ranked[0].Article.SourceID != "reuters-like" {
		t.Fatalf("expected whitelisted wire story on top, got %q", ranked[0].Article.SourceID)
	}
}

func TestRank_ScoringIsConcurrencySafe(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{"s-0": {Tier: "tier1"}})

	var articles []Article
	for i := 0; i < 40; i++ {
		articles = append(articles, Article{
			ID:       fmt.Sprintf("a-%d", i),
			SourceID: fmt.Sprintf("s-%d", i%5),
			Title:    fmt.Sprintf("item%d report%d coverage%d update%d analysis%d", i, i, i, i, i),
			Body:     fmt.Sprintf("Body text for article %d with enough ordinary words to pass the detectors cleanly.", i),
			URL:      fmt.Sprintf("https://example-%d.test/item-%d", i%5, i),
		})
	}

	opts := DefaultOptions()
	opts.Limit = 40
	opts.DiversityCap = 0

	first, _, err := eng.Rank(context.Background(), articles, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, _, err := eng.Rank(context.Background(), articles, opts)
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: result count changed: %d vs %d", run, len(again), len(first))
		}
		for i := range again {
			if again[i].Article.ID != first[i].Article.ID || again[i].FinalScore != first[i].FinalScore {
				t.Fatalf("run %d: nondeterministic result at %d", run, i)
			}
		}
	}
}

func TestPresets_ReturnsCopy(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(t, stubTrust{})
	presets := eng.Presets()
	if len(presets) != len(DefaultPresets) {
		t.Fatalf("expected %d presets, got %d", len(DefaultPresets), len(presets))
	}
	presets["quality"] = PresetWeights{}
	if eng.Presets()["quality"] == (PresetWeights{}) {
		t.Fatalf("mutating the returned map must not affect the engine")
	}
}
