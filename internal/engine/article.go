package engine

import "time"

// Article is the normalized input record produced by the external
// normalizer. The engine never mutates it.
type Article struct {
	ID           string     `json:"id"`
	SourceID     string     `json:"source_id"`
	SourceName   string     `json:"source_name,omitempty"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	URL          string     `json:"url"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	Category     string     `json:"category,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	ViewCount    *int64     `json:"view_count,omitempty"`
	ShareCount   *int64     `json:"share_count,omitempty"`
	CommentCount *int64     `json:"comment_count,omitempty"`

	// Relevance is an optional externally supplied query-relevance score
	// in [0,1]. When absent the ranker substitutes the quality score.
	Relevance *float64 `json:"relevance,omitempty"`
}

// Cluster groups the identifiers of articles judged near-duplicates of
// one another. Clusters partition the deduplicated batch; only the
// representative is forwarded downstream.
type Cluster struct {
	RepresentativeID string   `json:"representative_id"`
	MemberIDs        []string `json:"member_ids"`
}

// Size returns the number of articles collapsed into the cluster.
func (c Cluster) Size() int {
	return len(c.MemberIDs)
}

// Representative is a surviving article together with its dedup cluster.
type Representative struct {
	Article      Article
	ClusterSize  int
	ArrivalIndex int
}

// ScoreVector carries the per-dimension scores in [0,1] plus the
// diagnostic sub-scores and flags each stage produced. Stages fill their
// own disjoint fields; nothing is overwritten once written.
type ScoreVector struct {
	Integrity            float64  `json:"integrity"`
	TitleBodyConsistency float64  `json:"title_body_consistency"`
	Contamination        float64  `json:"contamination"`
	Spam                 float64  `json:"spam"`
	IntegrityFlags       []string `json:"integrity_flags,omitempty"`

	Credibility           float64  `json:"credibility"`
	Quality               float64  `json:"quality"`
	Evidence              float64  `json:"evidence"`
	SensationalismPenalty float64  `json:"sensationalism_penalty"`
	CorroboratingSources  int      `json:"corroborating_sources"`
	CredibilityFlags      []string `json:"credibility_flags,omitempty"`

	Popularity       float64 `json:"popularity"`
	TrendingVelocity float64 `json:"trending_velocity"`
}

// RankedArticle is the terminal entity returned to the caller.
type RankedArticle struct {
	Article      Article     `json:"article"`
	ClusterSize  int         `json:"cluster_size"`
	Scores       ScoreVector `json:"scores"`
	FinalScore   float64     `json:"final_score"`
	RankPosition int         `json:"rank_position"`
	PolicyFlags  []string    `json:"policy_flags,omitempty"`
}

// SourceTrust is the answer of the external trust registry for one
// source identifier.
type SourceTrust struct {
	Tier      string
	BaseTrust float64
}

// TrustLookup is the narrow read interface the engine depends on. The
// registry's own lifecycle (failure tracking, persistence) stays behind
// it.
type TrustLookup interface {
	Trust(sourceID string) (SourceTrust, bool)
}
