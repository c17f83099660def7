package registry

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const testYAML = `
sources:
  - id: wire-service
    name: Wire Service
    tier: whitelist
    active: true
  - id: daily-post
    name: Daily Post
    tier: tier1
    base_trust: 0.8
    categories: [politics, economy]
    active: true
  - id: rumor-mill
    name: Rumor Mill
    tier: blacklist
    active: true
  - id: sleepy-gazette
    name: Sleepy Gazette
    tier: tier2
    active: false
`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Parse([]byte(testYAML), zerolog.Nop())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return r
}

func TestParse_RejectsInvalidTier(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("sources:\n  - id: x\n    tier: tier9\n"), zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for invalid tier")
	}
}

func TestParse_RejectsDuplicateID(t *testing.T) {
	t.Parallel()

	yaml := "sources:\n  - id: x\n    tier: tier1\n  - id: x\n    tier: tier2\n"
	if _, err := Parse([]byte(yaml), zerolog.Nop()); err == nil {
		t.Fatalf("expected error for duplicate id")
	}
}

func TestParse_RejectsOutOfRangeBaseTrust(t *testing.T) {
	t.Parallel()

	yaml := "sources:\n  - id: x\n    tier: tier1\n    base_trust: 1.5\n"
	if _, err := Parse([]byte(yaml), zerolog.Nop()); err == nil {
		t.Fatalf("expected error for out-of-range base_trust")
	}
}

func TestTrust_LookupAndMiss(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)

	trust, ok := r.Trust("daily-post")
	if !ok {
		t.Fatalf("expected daily-post to be known")
	}
	if trust.Tier != "tier1" || trust.BaseTrust != 0.8 {
		t.Fatalf("unexpected trust: %+v", trust)
	}

	if _, ok := r.Trust("unknown"); ok {
		t.Fatalf("expected miss for unknown source")
	}
}

func TestActive_ExcludesBlacklistAndInactive(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)
	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active sources, got %d", len(active))
	}
	for _, src := range active {
		if src.ID == "rumor-mill" || src.ID == "sleepy-gazette" {
			t.Fatalf("unexpected active source %q", src.ID)
		}
	}
}

func TestRecordFailure_DeactivatesAfterLimit(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)
	for i := 0; i < MaxConsecutiveFailures-1; i++ {
		r.RecordFailure("wire-service")
	}
	if src, _ := r.Get("wire-service"); !src.Active {
		t.Fatalf("source deactivated one failure too early")
	}

	r.RecordFailure("wire-service")
	src, _ := r.Get("wire-service")
	if src.Active {
		t.Fatalf("expected source to deactivate after %d failures", MaxConsecutiveFailures)
	}
	if src.FailureCount != MaxConsecutiveFailures {
		t.Fatalf("unexpected failure count %d", src.FailureCount)
	}
}

func TestRecordSuccess_ResetsFailureStreak(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)
	r.RecordFailure("daily-post")
	r.RecordFailure("daily-post")
	r.RecordSuccess("daily-post")

	src, _ := r.Get("daily-post")
	if src.FailureCount != 0 {
		t.Fatalf("expected failure streak reset, got %d", src.FailureCount)
	}
	if src.LastSuccess == nil {
		t.Fatalf("expected last success timestamp")
	}
}

func TestReactivate(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)
	if !r.Reactivate("sleepy-gazette") {
		t.Fatalf("expected reactivation of inactive source")
	}
	if src, _ := r.Get("sleepy-gazette"); !src.Active {
		t.Fatalf("source still inactive after reactivation")
	}

	if r.Reactivate("rumor-mill") {
		t.Fatalf("blacklisted source must not reactivate")
	}
	if r.Reactivate("unknown") {
		t.Fatalf("unknown source must not reactivate")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)
	stats := r.Stats()
	if stats.Total != 4 || stats.Active != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByTier["whitelist"] != 1 || stats.ByTier["blacklist"] != 1 {
		t.Fatalf("unexpected tier counts: %+v", stats.ByTier)
	}
	if len(stats.Inactive) != 2 {
		t.Fatalf("expected 2 inactive sources, got %v", stats.Inactive)
	}
}

func TestRestoreHealth(t *testing.T) {
	t.Parallel()

	r := loadTestRegistry(t)

	when := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	r.RestoreHealth("daily-post", false, 5, nil, &when)

	src, _ := r.Get("daily-post")
	if src.Active {
		t.Fatalf("expected persisted deactivation to stick")
	}
	if src.FailureCount != 5 || src.LastAttempt == nil || !src.LastAttempt.Equal(when) {
		t.Fatalf("unexpected restored state: %+v", src)
	}

	// A persisted active row never force-enables a source the file
	// disabled; only the counters are restored.
	r.RestoreHealth("sleepy-gazette", true, 2, &when, &when)
	if src, _ := r.Get("sleepy-gazette"); src.Active || src.FailureCount != 2 {
		t.Fatalf("unexpected restored state: %+v", src)
	}

	r.RestoreHealth("unknown", false, 9, nil, nil)
	if _, ok := r.Get("unknown"); ok {
		t.Fatalf("restore must not create sources")
	}
}
