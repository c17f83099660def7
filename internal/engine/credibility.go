package engine

import (
	"regexp"
	"strings"
)

const (
	corroborationMinTitleTokens = 3
	evidenceLengthBonusCap      = 0.2
	evidenceLengthDivisor       = 5000.0
	sensationalWordPenalty      = 0.15
	sensationalWordPenaltyCap   = 0.5
	emphasisPenalty             = 0.1
	emphasisPenaltyCap          = 0.2
)

// tierTrust maps registry tiers to base trust. Unknown sources fall
// back to the tier3 value with a diagnostic flag.
var tierTrust = map[string]float64{
	"whitelist": 0.95,
	"tier1":     0.85,
	"tier2":     0.65,
	"tier3":     0.40,
	"blacklist": 0.0,
}

const unknownSourceTrust = 0.40

// evidencePatterns is the declarative table of quality signals; each
// matched pattern contributes an equal share of the evidence score.
var evidencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+%`),
	regexp.MustCompile(`\d+(억|만|조)`),
	regexp.MustCompile(`\$\d+|\d+\s?(billion|million)`),
	regexp.MustCompile(`"[^"]{5,}"`),
	regexp.MustCompile(`'[^']{5,}'`),
	regexp.MustCompile(`관계자는?\s|대변인`),
	regexp.MustCompile(`(?i)\b(said|stated|announced)\b|according to`),
	regexp.MustCompile(`보고서|연구\s결과|발표\s자료`),
	regexp.MustCompile(`(?i)\b(report|study|survey)\b`),
	regexp.MustCompile(`https?://\S+`),
}

var sensationalWords = []string{
	"충격", "경악", "발칵", "폭탄", "대박", "역대급", "초대형",
	"긴급", "속보", "단독", "breaking", "shock",
}

var emphasisPatternRe = regexp.MustCompile(`[!?]{2,}|[ㅋㅎ]{2,}`)

// CredibilityAssessment carries the credibility and quality dimensions
// for one representative article.
type CredibilityAssessment struct {
	Credibility           float64
	Quality               float64
	Evidence              float64
	SensationalismPenalty float64
	CorroboratingSources  int
	Flags                 []string
}

// CredibilityScorer combines source-tier trust with a cross-source
// corroboration bonus, plus an evidence-vs-sensationalism quality score.
// It needs the full deduplicated batch to find corroborating articles.
type CredibilityScorer struct {
	trust                  TrustLookup
	corroborationThreshold float64
}

func NewCredibilityScorer(trust TrustLookup, corroborationThreshold float64) *CredibilityScorer {
	return &CredibilityScorer{
		trust:                  trust,
		corroborationThreshold: corroborationThreshold,
	}
}

// Score assesses one article against the whole batch. The similarity
// index is the same one the deduplicator computed; corroboration reuses
// it rather than recomputing pairwise Jaccard.
func (s *CredibilityScorer) Score(article Article, batch []Representative, index *SimilarityIndex) CredibilityAssessment {
	trust, flags := s.sourceTrust(article)
	corroborating := s.corroboratingSources(article, batch, index)
	bonus := corroborationBonus(corroborating)

	evidence := evidenceScore(article)
	penalty := sensationalismPenalty(article)

	return CredibilityAssessment{
		Credibility:           clamp01(trust + bonus),
		Quality:               clamp01(evidence - penalty),
		Evidence:              evidence,
		SensationalismPenalty: penalty,
		CorroboratingSources:  corroborating,
		Flags:                 flags,
	}
}

func (s *CredibilityScorer) sourceTrust(article Article) (float64, []string) {
	if s.trust != nil {
		if trust, ok := s.trust.Trust(article.SourceID); ok {
			if base, known := tierTrust[trust.Tier]; known {
				if trust.BaseTrust > 0 {
					return clamp01(trust.BaseTrust), nil
				}
				return base, nil
			}
			return unknownSourceTrust, []string{"unknown_tier"}
		}
	}
	return unknownSourceTrust, []string{"unknown_source"}
}

// corroboratingSources counts other representatives from different
// sources whose title similarity reaches the corroboration threshold.
// Self-comparison and same-source comparisons are excluded.
func (s *CredibilityScorer) corroboratingSources(article Article, batch []Representative, index *SimilarityIndex) int {
	if len(titleTokenSet(article.Title)) < corroborationMinTitleTokens {
		return 0
	}

	count := 0
	for _, other := range batch {
		if other.Article.ID == article.ID || other.Article.SourceID == article.SourceID {
			continue
		}
		if index.Between(article.ID, other.Article.ID) >= s.corroborationThreshold {
			count++
		}
	}
	return count
}

func corroborationBonus(count int) float64 {
	switch {
	case count >= 3:
		return 0.15
	case count >= 1:
		return 0.05
	default:
		return 0
	}
}

func evidenceScore(article Article) float64 {
	if strings.TrimSpace(article.Body) == "" {
		return 0.3
	}

	matched := 0
	for _, pattern := range evidencePatterns {
		if pattern.MatchString(article.Body) {
			matched++
		}
	}

	lengthBonus := float64(len(article.Body)) / evidenceLengthDivisor
	if lengthBonus > evidenceLengthBonusCap {
		lengthBonus = evidenceLengthBonusCap
	}
	return clamp01(float64(matched)/float64(len(evidencePatterns)) + lengthBonus)
}

func sensationalismPenalty(article Article) float64 {
	titleLower := strings.ToLower(article.Title)

	wordMatches := 0
	for _, word := range sensationalWords {
		if strings.Contains(titleLower, word) {
			wordMatches++
		}
	}
	wordPenalty := float64(wordMatches) * sensationalWordPenalty
	if wordPenalty > sensationalWordPenaltyCap {
		wordPenalty = sensationalWordPenaltyCap
	}

	emphasisMatches := len(emphasisPatternRe.FindAllString(article.Title, -1))
	punctuationPenalty := float64(emphasisMatches) * emphasisPenalty
	if punctuationPenalty > emphasisPenaltyCap {
		punctuationPenalty = emphasisPenaltyCap
	}

	return clamp01(wordPenalty + punctuationPenalty)
}
