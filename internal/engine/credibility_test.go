package engine

import (
	"math"
	"testing"
)

type stubTrust map[string]SourceTrust

func (s stubTrust) Trust(sourceID string) (SourceTrust, bool) {
	trust, ok := s[sourceID]
	return trust, ok
}

func TestSourceTrust_TierMapping(t *testing.T) {
	t.Parallel()

	trust := stubTrust{
		"wl": {Tier: "whitelist"},
		"t1": {Tier: "tier1"},
		"t2": {Tier: "tier2"},
		"t3": {Tier: "tier3"},
		"bl": {Tier: "blacklist"},
	}
	scorer := NewCredibilityScorer(trust, DefaultCorroborationThreshold)

	cases := []struct {
		sourceID string
		want     float64
	}{
		{"wl", 0.95},
		{"t1", 0.85},
		{"t2", 0.65},
		{"t3", 0.40},
		{"bl", 0.0},
	}
	for _, tc := range cases {
		base, flags := scorer.sourceTrust(Article{SourceID: tc.sourceID})
		if base != tc.want {
			t.Fatalf("source %q: got trust %f want %f", tc.sourceID, base, tc.want)
		}
		if len(flags) != 0 {
			t.Fatalf("source %q: unexpected flags %v", tc.sourceID, flags)
		}
	}
}

func TestSourceTrust_UnknownSourceFallsBackWithFlag(t *testing.T) {
	t.Parallel()

	scorer := NewCredibilityScorer(stubTrust{}, DefaultCorroborationThreshold)
	base, flags := scorer.sourceTrust(Article{SourceID: "nobody"})
	if base != unknownSourceTrust {
		t.Fatalf("expected tier3 fallback %f, got %f", unknownSourceTrust, base)
	}
	if !hasFlag(flags, "unknown_source") {
		t.Fatalf("expected unknown_source flag, got %v", flags)
	}
}

func TestSourceTrust_UnknownTierFallsBackWithFlag(t *testing.T) {
	t.Parallel()

	scorer := NewCredibilityScorer(stubTrust{"odd": {Tier: "tier9"}}, DefaultCorroborationThreshold)
	base, flags := scorer.sourceTrust(Article{SourceID: "odd"})
	if base != unknownSourceTrust {
		t.Fatalf("expected tier3 fallback, got %f", base)
	}
	if !hasFlag(flags, "unknown_tier") {
		t.Fatalf("expected unknown_tier flag, got %v", flags)
	}
}

func TestSourceTrust_RegistryOverrideWins(t *testing.T) {
	t.Parallel()

	scorer := NewCredibilityScorer(stubTrust{"s": {Tier: "tier2", BaseTrust: 0.77}}, DefaultCorroborationThreshold)
	base, _ := scorer.sourceTrust(Article{SourceID: "s"})
	if base != 0.77 {
		t.Fatalf("expected per-source override 0.77, got %f", base)
	}
}

func corroborationBatch(titles map[string]string, sources map[string]string) ([]Representative, *SimilarityIndex) {
	ids := []string{"a", "b", "c", "d"}
	articles := make([]Article, 0, len(ids))
	reps := make([]Representative, 0, len(ids))
	for i, id := range ids {
		title, ok := titles[id]
		if !ok {
			continue
		}
		article := Article{ID: id, SourceID: sources[id], Title: title}
		articles = append(articles, article)
		reps = append(reps, Representative{Article: article, ClusterSize: 1, ArrivalIndex: i})
	}
	return reps, BuildSimilarityIndex(articles)
}

func TestCorroboration_CountsOtherSourcesAboveThreshold(t *testing.T) {
	t.Parallel()

	shared := "central bank raises interest rates again"
	reps, index := corroborationBatch(
		map[string]string{
			"a": shared,
			"b": shared,
			"c": shared,
			"d": "completely unrelated festival lineup announcement",
		},
		map[string]string{"a": "s1", "b": "s2", "c": "s3", "d": "s4"},
	)
	scorer := NewCredibilityScorer(stubTrust{"s1": {Tier: "tier1"}}, DefaultCorroborationThreshold)

	assessment := scorer.Score(reps[0].Article, reps, index)
	if assessment.CorroboratingSources != 2 {
		t.Fatalf("expected 2 corroborating sources, got %d", assessment.CorroboratingSources)
	}
	// tier1 base 0.85 plus the 1-2 source bonus.
	if math.Abs(assessment.Credibility-0.90) > 1e-9 {
		t.Fatalf("expected credibility 0.90, got %f", assessment.Credibility)
	}
}

func TestCorroboration_SameSourceNeverCorroborates(t *testing.T) {
	t.Parallel()

	shared := "central bank raises interest rates again"
	reps, index := corroborationBatch(
		map[string]string{"a": shared, "b": shared},
		map[string]string{"a": "s1", "b": "s1"},
	)
	scorer := NewCredibilityScorer(stubTrust{"s1": {Tier: "tier1"}}, DefaultCorroborationThreshold)

	assessment := scorer.Score(reps[0].Article, reps, index)
	if assessment.CorroboratingSources != 0 {
		t.Fatalf("expected same-source articles to be excluded, got %d", assessment.CorroboratingSources)
	}
}

func TestCorroboration_ShortTitleGetsNoBonus(t *testing.T) {
	t.Parallel()

	reps, index := corroborationBatch(
		map[string]string{"a": "rates up", "b": "rates up"},
		map[string]string{"a": "s1", "b": "s2"},
	)
	scorer := NewCredibilityScorer(stubTrust{"s1": {Tier: "tier1"}}, DefaultCorroborationThreshold)

	assessment := scorer.Score(reps[0].Article, reps, index)
	if assessment.CorroboratingSources != 0 {
		t.Fatalf("expected short title to yield no corroboration, got %d", assessment.CorroboratingSources)
	}
}

func TestCorroborationBonus_Steps(t *testing.T) {
	t.Parallel()

	if bonus := corroborationBonus(0); bonus != 0 {
		t.Fatalf("expected 0 bonus for no corroboration, got %f", bonus)
	}
	if bonus := corroborationBonus(1); bonus != 0.05 {
		t.Fatalf("expected 0.05 bonus for one source, got %f", bonus)
	}
	if bonus := corroborationBonus(2); bonus != 0.05 {
		t.Fatalf("expected 0.05 bonus for two sources, got %f", bonus)
	}
	if bonus := corroborationBonus(3); bonus != 0.15 {
		t.Fatalf("expected 0.15 bonus for three sources, got %f", bonus)
	}
}

func TestCredibility_ClampedAtOne(t *testing.T) {
	t.Parallel()

	shared := "central bank raises interest rates again"
	reps, index := corroborationBatch(
		map[string]string{"a": shared, "b": shared, "c": shared, "d": shared},
		map[string]string{"a": "s1", "b": "s2", "c": "s3", "d": "s4"},
	)
	scorer := NewCredibilityScorer(stubTrust{"s1": {Tier: "whitelist"}}, DefaultCorroborationThreshold)

	assessment := scorer.Score(reps[0].Article, reps, index)
	if assessment.CorroboratingSources != 3 {
		t.Fatalf("expected 3 corroborating sources, got %d", assessment.CorroboratingSources)
	}
	// 0.95 + 0.15 clamps to 1.0.
	if assessment.Credibility != 1.0 {
		t.Fatalf("expected clamped credibility 1.0, got %f", assessment.Credibility)
	}
}

func TestEvidenceScore(t *testing.T) {
	t.Parallel()

	if score := evidenceScore(Article{Body: "  "}); score != 0.3 {
		t.Fatalf("expected 0.3 default for empty body, got %f", score)
	}

	rich := Article{Body: `Revenue grew 25% to $3 billion, according to the quarterly report. ` +
		`"We expect continued growth," the CEO said. Details at https://example.com/earnings.`}
	poor := Article{Body: "Something happened somewhere."}

	richScore := evidenceScore(rich)
	poorScore := evidenceScore(poor)
	if richScore <= poorScore {
		t.Fatalf("expected evidence-rich body to outscore bare body: %f vs %f", richScore, poorScore)
	}
}

func TestSensationalismPenalty(t *testing.T) {
	t.Parallel()

	if penalty := sensationalismPenalty(Article{Title: "Parliament passes budget"}); penalty != 0 {
		t.Fatalf("expected no penalty for plain title, got %f", penalty)
	}

	loud := sensationalismPenalty(Article{Title: "SHOCK!! Breaking shock report stuns everyone!!"})
	if loud <= 0 {
		t.Fatalf("expected penalty for sensational title, got %f", loud)
	}

	quality := clamp01(evidenceScore(Article{Body: "plain text"}) - loud)
	if quality < 0 || quality > 1 {
		t.Fatalf("quality must stay in [0,1], got %f", quality)
	}
}
