package engine

import (
	"math"
	"time"

	"horse.fit/newsrank/internal/globaltime"
)

const (
	defaultViewWeight    = 0.40
	defaultShareWeight   = 0.35
	defaultCommentWeight = 0.25

	// DefaultFreshnessHalfLife is the decay half-life used when an
	// article carries no engagement metrics.
	DefaultFreshnessHalfLife = 24 * time.Hour

	// missingPublishTimePopularity is the fixed fallback when neither
	// engagement metrics nor a publish time are available.
	missingPublishTimePopularity = 0.3

	// velocityNormalization maps 10,000 engagement-units/hour to 1.0.
	velocityNormalization = 10000.0
)

// PopularityAssessment is the popularity dimension for one article.
type PopularityAssessment struct {
	Popularity       float64
	TrendingVelocity float64
}

// PopularityScorer derives a popularity score from engagement counters
// normalized against the batch maxima, falling back to publish-time
// freshness when no metrics exist.
type PopularityScorer struct {
	viewWeight    float64
	shareWeight   float64
	commentWeight float64
	halfLife      time.Duration
}

func NewPopularityScorer(viewWeight, shareWeight, commentWeight float64, halfLife time.Duration) *PopularityScorer {
	if halfLife <= 0 {
		halfLife = DefaultFreshnessHalfLife
	}
	return &PopularityScorer{
		viewWeight:    viewWeight,
		shareWeight:   shareWeight,
		commentWeight: commentWeight,
		halfLife:      halfLife,
	}
}

// batchMaxima holds the per-batch engagement maxima used for
// normalization. Computed once per ranking invocation.
type batchMaxima struct {
	views    int64
	shares   int64
	comments int64
}

func collectMaxima(batch []Representative) batchMaxima {
	var m batchMaxima
	for _, rep := range batch {
		if v := counterValue(rep.Article.ViewCount); v > m.views {
			m.views = v
		}
		if v := counterValue(rep.Article.ShareCount); v > m.shares {
			m.shares = v
		}
		if v := counterValue(rep.Article.CommentCount); v > m.comments {
			m.comments = v
		}
	}
	return m
}

// Score computes popularity and trending velocity for one article using
// the given batch maxima.
func (s *PopularityScorer) Score(article Article, maxima batchMaxima) PopularityAssessment {
	popularity := 0.0
	if hasEngagementMetrics(article) {
		popularity = s.viewWeight*ratio(counterValue(article.ViewCount), maxima.views) +
			s.shareWeight*ratio(counterValue(article.ShareCount), maxima.shares) +
			s.commentWeight*ratio(counterValue(article.CommentCount), maxima.comments)
	} else {
		popularity = s.freshness(article.PublishedAt)
	}

	return PopularityAssessment{
		Popularity:       clamp01(popularity),
		TrendingVelocity: s.trendingVelocity(article),
	}
}

func hasEngagementMetrics(article Article) bool {
	return counterValue(article.ViewCount) > 0 ||
		counterValue(article.ShareCount) > 0 ||
		counterValue(article.CommentCount) > 0
}

func counterValue(p *int64) int64 {
	if p == nil || *p < 0 {
		return 0
	}
	return *p
}

// ratio guards the zero-max case: when the batch maximum is 0 the ratio
// is defined as 0, never a division by zero.
func ratio(value, max int64) float64 {
	if max <= 0 {
		return 0
	}
	return float64(value) / float64(max)
}

// freshness applies exponential decay with the configured half-life. An
// unknown publish time resolves to a fixed default.
func (s *PopularityScorer) freshness(publishedAt *time.Time) float64 {
	if publishedAt == nil || publishedAt.IsZero() {
		return missingPublishTimePopularity
	}

	hours := hoursSincePublish(*publishedAt)
	return math.Pow(0.5, hours/s.halfLife.Hours())
}

// trendingVelocity weights shares and comments above raw views and
// normalizes so 10,000 engagement-units/hour maps to 1.0. Articles
// without a publish time have no defined velocity and yield 0.
func (s *PopularityScorer) trendingVelocity(article Article) float64 {
	if article.PublishedAt == nil || article.PublishedAt.IsZero() {
		return 0
	}

	engagement := counterValue(article.ViewCount) +
		3*counterValue(article.ShareCount) +
		2*counterValue(article.CommentCount)
	if engagement == 0 {
		return 0
	}

	hours := hoursSincePublish(*article.PublishedAt)
	if hours < 1 {
		hours = 1
	}
	return clamp01(float64(engagement) / hours / velocityNormalization)
}

func hoursSincePublish(publishedAt time.Time) float64 {
	hours := globaltime.UTC().Sub(publishedAt.UTC()).Hours()
	if hours < 0 {
		return 0
	}
	return hours
}
