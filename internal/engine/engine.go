package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultSimilarityThreshold is the Jaccard cutoff for clustering
	// near-duplicates.
	DefaultSimilarityThreshold = 0.6

	// DefaultCorroborationThreshold is the looser cutoff for counting an
	// article from another source as covering the same event.
	DefaultCorroborationThreshold = 0.5

	DefaultDiversityCap = 3
	DefaultLimit        = 20
)

// Options parameterize one ranking invocation. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	Preset              string
	Limit               int
	Offset              int
	DiversityCap        int
	SimilarityThreshold float64
}

func DefaultOptions() Options {
	return Options{
		Preset:              "quality",
		Limit:               DefaultLimit,
		Offset:              0,
		DiversityCap:        DefaultDiversityCap,
		SimilarityThreshold: DefaultSimilarityThreshold,
	}
}

func (o Options) validate() error {
	if o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %.3f out of range [0,1]", o.SimilarityThreshold)
	}
	if o.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", o.Limit)
	}
	if o.Offset < 0 {
		return fmt.Errorf("offset must not be negative, got %d", o.Offset)
	}
	if o.DiversityCap < 0 {
		return fmt.Errorf("diversity cap must not be negative, got %d", o.DiversityCap)
	}
	return nil
}

// Report summarizes one full pipeline run.
type Report struct {
	Preset          string        `json:"preset"`
	InputCount      int           `json:"input_count"`
	AfterURLCount   int           `json:"after_url_count"`
	AfterTitleCount int           `json:"after_title_count"`
	ClusterCount    int           `json:"cluster_count"`
	ExcludedCount   int           `json:"excluded_count"`
	CappedCount     int           `json:"capped_count"`
	ReturnedCount   int           `json:"returned_count"`
	Elapsed         time.Duration `json:"elapsed_ns"`
}

// Engine wires the four stages together: deduplicate, score the three
// independent dimensions concurrently, then filter and rank.
type Engine struct {
	dedup       *Deduplicator
	integrity   *IntegrityAssessor
	credibility *CredibilityScorer
	popularity  *PopularityScorer
	ranker      *Ranker
	logger      zerolog.Logger
}

// Config carries the tunables an Engine is built from. Zero fields fall
// back to the documented defaults.
type Config struct {
	Trust                  TrustLookup
	Presets                map[string]PresetWeights
	Policy                 *PolicyThresholds
	CorroborationThreshold float64
	FreshnessHalfLife      time.Duration
}

func New(cfg Config, logger zerolog.Logger) (*Engine, error) {
	presets := cfg.Presets
	if presets == nil {
		presets = DefaultPresets
	}
	if err := ValidatePresets(presets); err != nil {
		return nil, err
	}

	policy := DefaultPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}

	corroboration := cfg.CorroborationThreshold
	if corroboration <= 0 {
		corroboration = DefaultCorroborationThreshold
	}

	return &Engine{
		integrity:   NewIntegrityAssessor(),
		credibility: NewCredibilityScorer(cfg.Trust, corroboration),
		popularity:  NewPopularityScorer(defaultViewWeight, defaultShareWeight, defaultCommentWeight, cfg.FreshnessHalfLife),
		ranker:      NewRanker(presets, policy),
		logger:      logger,
	}, nil
}

// Rank runs the full pipeline over one batch. The input slice is read
// in arrival order and never mutated. Scoring respects ctx between
// stages; an individual article score is never interrupted.
func (e *Engine) Rank(ctx context.Context, articles []Article, opts Options) ([]RankedArticle, Report, error) {
	started := time.Now()

	if err := opts.validate(); err != nil {
		return nil, Report{}, err
	}
	if _, ok := e.ranker.presets[opts.Preset]; !ok {
		return nil, Report{}, fmt.Errorf("%w: %q", ErrUnknownPreset, opts.Preset)
	}

	dedup := NewDeduplicator(opts.SimilarityThreshold, e.logger)
	result := dedup.Deduplicate(articles)

	report := Report{
		Preset:          opts.Preset,
		InputCount:      result.InputCount,
		AfterURLCount:   result.AfterURLCount,
		AfterTitleCount: result.AfterTitleCount,
		ClusterCount:    len(result.Clusters),
	}

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	candidates := e.scoreBatch(result)

	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	ranked, stats, err := e.ranker.Rank(candidates, opts.Preset, opts.Limit, opts.Offset, opts.DiversityCap)
	if err != nil {
		return nil, report, err
	}

	report.ExcludedCount = stats.Excluded
	report.CappedCount = stats.Capped
	report.ReturnedCount = stats.Returned
	report.Elapsed = time.Since(started)

	e.logger.Info().
		Str("preset", opts.Preset).
		Int("input", report.InputCount).
		Int("clusters", report.ClusterCount).
		Int("excluded", report.ExcludedCount).
		Int("returned", report.ReturnedCount).
		Dur("elapsed", report.Elapsed).
		Msg("ranking run completed")

	return ranked, report, nil
}

// scoreBatch runs the three scorers over every representative. The
// dimensions are independent, so each runs in its own goroutine and
// writes only its own ScoreVector fields.
func (e *Engine) scoreBatch(result DedupResult) []scoredCandidate {
	reps := result.Representatives
	candidates := make([]scoredCandidate, len(reps))
	for i, rep := range reps {
		candidates[i].Representative = rep
	}

	maxima := collectMaxima(reps)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := range candidates {
			assessment := e.integrity.Assess(candidates[i].Article)
			candidates[i].Scores.Integrity = assessment.Score
			candidates[i].Scores.TitleBodyConsistency = assessment.TitleBodyConsistency
			candidates[i].Scores.Contamination = assessment.Contamination
			candidates[i].Scores.Spam = assessment.Spam
			candidates[i].Scores.IntegrityFlags = assessment.Flags
		}
	}()

	go func() {
		defer wg.Done()
		for i := range candidates {
			assessment := e.credibility.Score(candidates[i].Article, reps, result.Similarity)
			candidates[i].Scores.Credibility = assessment.Credibility
			candidates[i].Scores.Quality = assessment.Quality
			candidates[i].Scores.Evidence = assessment.Evidence
			candidates[i].Scores.SensationalismPenalty = assessment.SensationalismPenalty
			candidates[i].Scores.CorroboratingSources = assessment.CorroboratingSources
			candidates[i].Scores.CredibilityFlags = assessment.Flags
		}
	}()

	go func() {
		defer wg.Done()
		for i := range candidates {
			assessment := e.popularity.Score(candidates[i].Article, maxima)
			candidates[i].Scores.Popularity = assessment.Popularity
			candidates[i].Scores.TrendingVelocity = assessment.TrendingVelocity
		}
	}()

	wg.Wait()
	return candidates
}

// Presets exposes the engine's preset table for listing surfaces.
func (e *Engine) Presets() map[string]PresetWeights {
	out := make(map[string]PresetWeights, len(e.ranker.presets))
	for name, weights := range e.ranker.presets {
		out[name] = weights
	}
	return out
}
