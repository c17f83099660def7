package engine

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// ErrUnknownPreset is returned when the caller names a preset that is
// not in the table. It is a hard error, never silently defaulted.
var ErrUnknownPreset = errors.New("unknown ranking preset")

const presetWeightSumTolerance = 1e-9

// PresetWeights is a named weight vector combining the four score
// dimensions into the final score. Components must sum to 1.0.
type PresetWeights struct {
	Popularity  float64 `json:"popularity"`
	Relevance   float64 `json:"relevance"`
	Quality     float64 `json:"quality"`
	Credibility float64 `json:"credibility"`
}

func (w PresetWeights) sum() float64 {
	return w.Popularity + w.Relevance + w.Quality + w.Credibility
}

// DefaultPresets is the built-in preset table.
var DefaultPresets = map[string]PresetWeights{
	"quality":  {Popularity: 0.15, Relevance: 0.30, Quality: 0.40, Credibility: 0.15},
	"trending": {Popularity: 0.50, Relevance: 0.10, Quality: 0.20, Credibility: 0.20},
	"credible": {Popularity: 0.10, Relevance: 0.20, Quality: 0.20, Credibility: 0.50},
	"latest":   {Popularity: 0.10, Relevance: 0.20, Quality: 0.30, Credibility: 0.40},
}

// ValidatePresets rejects weight vectors that do not sum to 1.0. Run at
// configuration load, before any ranking.
func ValidatePresets(presets map[string]PresetWeights) error {
	for name, weights := range presets {
		for _, component := range []float64{weights.Popularity, weights.Relevance, weights.Quality, weights.Credibility} {
			if component < 0 || component > 1 {
				return fmt.Errorf("preset %q: weight components must be in [0,1]", name)
			}
		}
		if math.Abs(weights.sum()-1.0) > presetWeightSumTolerance {
			return fmt.Errorf("preset %q: weights sum to %.6f, expected 1.0", name, weights.sum())
		}
	}
	return nil
}

// PolicyThresholds are the exclude/flag cutoffs applied before sorting.
type PolicyThresholds struct {
	MinIntegrity   float64
	MinCredibility float64
	MaxSpam        float64
}

// DefaultPolicy returns the standard policy cutoffs.
func DefaultPolicy() PolicyThresholds {
	return PolicyThresholds{
		MinIntegrity:   0.5,
		MinCredibility: 0.6,
		MaxSpam:        0.7,
	}
}

// Ranker combines the score vectors into a final 0-100 score, applies
// the policy filter, sorts deterministically, enforces the per-source
// diversity cap, and truncates to the requested window.
type Ranker struct {
	presets map[string]PresetWeights
	policy  PolicyThresholds
}

func NewRanker(presets map[string]PresetWeights, policy PolicyThresholds) *Ranker {
	if presets == nil {
		presets = DefaultPresets
	}
	return &Ranker{
		presets: presets,
		policy:  policy,
	}
}

type scoredCandidate struct {
	Representative
	Scores      ScoreVector
	FinalScore  float64
	PolicyFlags []string
}

// RankStats reports how the batch shrank through the ranking stages.
type RankStats struct {
	Scored   int
	Excluded int
	Capped   int
	Returned int
}

// Rank produces the ordered Top-N window. Candidates must carry
// complete score vectors; an unknown preset name fails before any
// filtering.
func (r *Ranker) Rank(candidates []scoredCandidate, preset string, limit, offset, diversityCap int) ([]RankedArticle, RankStats, error) {
	weights, ok := r.presets[preset]
	if !ok {
		return nil, RankStats{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	stats := RankStats{Scored: len(candidates)}

	retained := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		c.FinalScore = finalScore(c, weights)

		if c.Scores.Integrity < r.policy.MinIntegrity {
			stats.Excluded++
			continue
		}
		if c.Scores.Spam > r.policy.MaxSpam {
			stats.Excluded++
			continue
		}
		if c.Scores.Credibility < r.policy.MinCredibility {
			c.PolicyFlags = append(c.PolicyFlags, "suspicious_credibility")
		}
		retained = append(retained, c)
	}

	sortCandidates(retained, preset)

	capped := applyDiversityCap(retained, diversityCap)
	stats.Capped = len(retained) - len(capped)

	window := pageWindow(capped, offset, limit)
	stats.Returned = len(window)

	ranked := make([]RankedArticle, 0, len(window))
	for i, c := range window {
		ranked = append(ranked, RankedArticle{
			Article:      c.Article,
			ClusterSize:  c.ClusterSize,
			Scores:       c.Scores,
			FinalScore:   c.FinalScore,
			RankPosition: offset + i + 1,
			PolicyFlags:  c.PolicyFlags,
		})
	}
	return ranked, stats, nil
}

// finalScore applies the preset weights over popularity, relevance,
// quality, and credibility, scaled to [0,100] and rounded to one
// decimal. Relevance uses the externally supplied score when present,
// otherwise the quality score stands in.
func finalScore(c scoredCandidate, weights PresetWeights) float64 {
	relevance := c.Scores.Quality
	if c.Article.Relevance != nil {
		relevance = clamp01(*c.Article.Relevance)
	}

	raw := c.Scores.Popularity*weights.Popularity +
		relevance*weights.Relevance +
		c.Scores.Quality*weights.Quality +
		c.Scores.Credibility*weights.Credibility

	return math.Round(raw*1000) / 10
}

// sortCandidates orders by final score descending with credibility and
// arrival order as deterministic tie-breaks. The latest preset orders
// by publish time instead, newest first, articles without a timestamp
// last.
func sortCandidates(candidates []scoredCandidate, preset string) {
	if preset == "latest" {
		sort.SliceStable(candidates, func(i, j int) bool {
			left, right := candidates[i], candidates[j]
			leftAt, leftOK := publishInstant(left)
			rightAt, rightOK := publishInstant(right)
			switch {
			case leftOK != rightOK:
				return leftOK
			case leftOK && !leftAt.Equal(rightAt):
				return leftAt.After(rightAt)
			case left.FinalScore != right.FinalScore:
				return left.FinalScore > right.FinalScore
			default:
				return left.ArrivalIndex < right.ArrivalIndex
			}
		})
		return
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		left, right := candidates[i], candidates[j]
		switch {
		case left.FinalScore != right.FinalScore:
			return left.FinalScore > right.FinalScore
		case left.Scores.Credibility != right.Scores.Credibility:
			return left.Scores.Credibility > right.Scores.Credibility
		default:
			return left.ArrivalIndex < right.ArrivalIndex
		}
	})
}

func publishInstant(c scoredCandidate) (time.Time, bool) {
	if c.Article.PublishedAt == nil || c.Article.PublishedAt.IsZero() {
		return time.Time{}, false
	}
	return c.Article.PublishedAt.UTC(), true
}

// applyDiversityCap walks the sorted list once, keeping an article only
// while its source's counter is below the cap. Skipped articles are not
// backfilled; the scan is order-preserving. A cap of 0 disables the
// constraint.
func applyDiversityCap(candidates []scoredCandidate, maxPerSource int) []scoredCandidate {
	if maxPerSource <= 0 {
		return candidates
	}

	// When every article shares one source identifier (an aggregator
	// feed), the cap switches to source names so it still means
	// something.
	useName := false
	if len(candidates) > 1 {
		uniqueIDs := make(map[string]struct{}, len(candidates))
		for _, c := range candidates {
			uniqueIDs[c.Article.SourceID] = struct{}{}
		}
		useName = len(uniqueIDs) == 1
	}

	counts := make(map[string]int)
	kept := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := c.Article.SourceID
		if useName && c.Article.SourceName != "" {
			key = c.Article.SourceName
		}
		if counts[key] >= maxPerSource {
			continue
		}
		counts[key]++
		kept = append(kept, c)
	}
	return kept
}

func pageWindow(candidates []scoredCandidate, offset, limit int) []scoredCandidate {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(candidates) {
		return nil
	}
	window := candidates[offset:]
	if limit > 0 && limit < len(window) {
		window = window[:limit]
	}
	return window
}
