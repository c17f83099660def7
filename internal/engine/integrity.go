package engine

import (
	"crypto/sha256"
	"regexp"
	"strings"

	"horse.fit/newsrank/internal/langdetect"
)

const (
	consistencyWeight   = 0.40
	contaminationWeight = 0.30
	spamWeight          = 0.30

	repetitiveSentenceRatio = 0.30
	lexicalDensityFloor     = 0.40
	adjacentLowSimilarity   = 0.20
)

var adKeywords = []string{
	"클릭", "지금구매", "할인", "특가", "무료배송", "광고", "sponsored",
	"click here", "buy now", "limited offer", "free shipping", "promoted",
}

var illegalKeywords = []string{
	"도박", "카지노", "성인", "음란", "gambling", "casino",
}

var sensationalTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\[충격\]`),
	regexp.MustCompile(`\[경악\]`),
	regexp.MustCompile(`놀라운\s(발표|비밀|진실)`),
	regexp.MustCompile(`이\s사실일\s리\s없다`),
	regexp.MustCompile(`(?i)you won'?t believe`),
	regexp.MustCompile(`(?i)\bshocking truth\b`),
}

var latinProperNounRe = regexp.MustCompile(`\b[A-Z][a-zA-Z]+\b`)
var quotedPhraseRe = regexp.MustCompile(`"([^"]{3,})"`)
var cjkEntityRe = regexp.MustCompile(`[\p{Hangul}\p{Han}\p{Hiragana}\p{Katakana}]{2,}`)

var stopwordsByLanguage = map[string]map[string]struct{}{
	"ko": toSet("의", "이", "가", "을", "를", "에", "에서", "로", "과", "그리고",
		"또는", "있다", "하다", "되다", "것", "저", "등", "같은"),
	"en": toSet("the", "and", "is", "are", "was", "were", "for", "with",
		"that", "this", "from", "has", "have", "had", "not", "but"),
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// spamDetector is one row of the detection table: a named predicate and
// the penalty it contributes when triggered. Penalties are summed and
// capped at 1.0.
type spamDetector struct {
	name    string
	penalty float64
	trigger func(article Article, stopwords map[string]struct{}) bool
}

var spamDetectors = []spamDetector{
	{
		name:    "repetitive_content",
		penalty: 0.3,
		trigger: func(a Article, _ map[string]struct{}) bool {
			return repeatedSentenceShare(a.Body) > repetitiveSentenceRatio
		},
	},
	{
		name:    "ad_content",
		penalty: 0.3,
		trigger: func(a Article, _ map[string]struct{}) bool {
			return containsAnyKeyword(a.Title+" "+a.Body, adKeywords)
		},
	},
	{
		name:    "illegal_content",
		penalty: 0.5,
		trigger: func(a Article, _ map[string]struct{}) bool {
			return containsAnyKeyword(a.Title+" "+a.Body, illegalKeywords)
		},
	},
	{
		name:    "low_content_quality",
		penalty: 0.2,
		trigger: func(a Article, stopwords map[string]struct{}) bool {
			density, ok := lexicalDensity(a.Title+" "+a.Body, stopwords)
			return ok && density < lexicalDensityFloor
		},
	},
	{
		name:    "sensational_title",
		penalty: 0.1,
		trigger: func(a Article, _ map[string]struct{}) bool {
			for _, pattern := range sensationalTitlePatterns {
				if pattern.MatchString(a.Title) {
					return true
				}
			}
			return false
		},
	},
}

// IntegrityAssessment is the per-article output of the assessor.
type IntegrityAssessment struct {
	Score                float64
	TitleBodyConsistency float64
	Contamination        float64
	Spam                 float64
	Flags                []string
}

// IntegrityAssessor scores a single article for internal consistency
// and spam signals. It needs no cross-article data and never fails: a
// malformed article yields a worst-case assessment with flags.
type IntegrityAssessor struct {
	detectLanguage func(string) string
}

func NewIntegrityAssessor() *IntegrityAssessor {
	return &IntegrityAssessor{
		detectLanguage: langdetect.DetectISO6391,
	}
}

func (a *IntegrityAssessor) Assess(article Article) IntegrityAssessment {
	var flags []string
	if strings.TrimSpace(article.Title) == "" {
		flags = append(flags, "empty_title")
	}
	if strings.TrimSpace(article.Body) == "" {
		flags = append(flags, "empty_body")
	}
	if len(flags) > 0 {
		return IntegrityAssessment{
			Score:                0,
			TitleBodyConsistency: 0,
			Contamination:        1,
			Spam:                 1,
			Flags:                flags,
		}
	}

	stopwords := stopwordsByLanguage["en"]
	if a.detectLanguage != nil {
		if lang := a.detectLanguage(article.Body); lang != "" {
			if set, ok := stopwordsByLanguage[lang]; ok {
				stopwords = set
			}
		}
	}

	consistency := titleBodyConsistency(article)
	contamination, contaminationFlags := contaminationScore(article, stopwords)
	spam, spamFlags := a.spamScore(article, stopwords)
	flags = append(flags, contaminationFlags...)
	flags = append(flags, spamFlags...)

	score := consistency*consistencyWeight +
		(1-contamination)*contaminationWeight +
		(1-spam)*spamWeight

	return IntegrityAssessment{
		Score:                clamp01(score),
		TitleBodyConsistency: consistency,
		Contamination:        contamination,
		Spam:                 spam,
		Flags:                flags,
	}
}

// titleBodyConsistency measures how many salient title terms appear in
// the body, discounted when the matched keywords bunch up in a single
// paragraph instead of spreading across the text.
func titleBodyConsistency(article Article) float64 {
	salient := salientTitleTerms(article.Title)
	if len(salient) == 0 {
		return 1.0
	}

	bodyLower := strings.ToLower(article.Body)
	covered := 0
	for _, term := range salient {
		if strings.Contains(bodyLower, strings.ToLower(term)) {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(salient))

	titleWords := make(map[string]struct{})
	for _, w := range tokenize(article.Title) {
		if len([]rune(w)) > 2 {
			titleWords[w] = struct{}{}
		}
	}
	paragraphs := splitParagraphs(article.Body, 5)
	if len(paragraphs) == 0 || len(titleWords) == 0 {
		return coverage
	}

	counts := make([]int, 0, len(paragraphs))
	total := 0
	for _, para := range paragraphs {
		paraLower := strings.ToLower(para)
		count := 0
		for w := range titleWords {
			if strings.Contains(paraLower, w) {
				count++
			}
		}
		counts = append(counts, count)
		total += count
	}
	if total == 0 {
		return coverage * 0.5
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	concentration := float64(maxCount) / float64(total)
	return clamp01(coverage * (1 - concentration*0.2))
}

// salientTitleTerms extracts proper-noun-like tokens: capitalized Latin
// words, quoted phrases, and CJK character runs for non-Latin titles.
func salientTitleTerms(title string) []string {
	seen := make(map[string]struct{})
	var terms []string
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, m := range latinProperNounRe.FindAllString(title, -1) {
		add(m)
	}
	for _, m := range quotedPhraseRe.FindAllStringSubmatch(title, -1) {
		add(m[1])
	}
	for _, m := range cjkEntityRe.FindAllString(title, -1) {
		add(m)
	}
	return terms
}

// contaminationScore detects unrelated content stitched together by
// comparing keyword sets of adjacent paragraphs.
func contaminationScore(article Article, stopwords map[string]struct{}) (float64, []string) {
	paragraphs := splitParagraphs(article.Body, 10)
	if len(paragraphs) < 2 {
		return 0, nil
	}

	keywordSets := make([]map[string]struct{}, len(paragraphs))
	for i, para := range paragraphs {
		keywordSets[i] = keywordSet(para, stopwords)
	}

	var similarities []float64
	for i := 0; i < len(keywordSets)-1; i++ {
		if len(keywordSets[i]) == 0 && len(keywordSets[i+1]) == 0 {
			continue
		}
		similarities = append(similarities, jaccard(keywordSets[i], keywordSets[i+1]))
	}
	if len(similarities) == 0 {
		return 0, nil
	}

	sum := 0.0
	lowCount := 0
	for _, s := range similarities {
		sum += s
		if s < adjacentLowSimilarity {
			lowCount++
		}
	}
	average := sum / float64(len(similarities))

	switch {
	case average < 0.3:
		return 0.7, []string{"unrelated_topics"}
	case float64(lowCount) > float64(len(similarities))*0.5:
		return 0.5, []string{"inconsistent_topics"}
	default:
		return 0, nil
	}
}

func (a *IntegrityAssessor) spamScore(article Article, stopwords map[string]struct{}) (float64, []string) {
	score := 0.0
	var flags []string
	for _, detector := range spamDetectors {
		if detector.trigger(article, stopwords) {
			score += detector.penalty
			flags = append(flags, detector.name)
		}
	}
	if score > 1 {
		score = 1
	}
	return score, flags
}

func splitParagraphs(body string, limit int) []string {
	var paragraphs []string
	for _, para := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			continue
		}
		paragraphs = append(paragraphs, trimmed)
		if len(paragraphs) == limit {
			break
		}
	}
	return paragraphs
}

func keywordSet(text string, stopwords map[string]struct{}) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range tokenize(text) {
		if len([]rune(token)) <= 2 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		set[token] = struct{}{}
	}
	return set
}

// repeatedSentenceShare hashes each sentence and reports the share of
// duplicates. Fewer than three sentences never counts as repetitive.
func repeatedSentenceShare(body string) float64 {
	sentences := splitSentences(body)
	if len(sentences) < 3 {
		return 0
	}

	unique := make(map[[32]byte]struct{}, len(sentences))
	for _, sentence := range sentences {
		unique[sha256.Sum256([]byte(sentence))] = struct{}{}
	}
	return 1 - float64(len(unique))/float64(len(sentences))
}

func splitSentences(body string) []string {
	parts := strings.FieldsFunc(body, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		sentences = append(sentences, trimmed)
	}
	return sentences
}

func containsAnyKeyword(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func lexicalDensity(text string, stopwords map[string]struct{}) (float64, bool) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0, false
	}
	meaningful := 0
	for _, w := range words {
		if len([]rune(w)) <= 1 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		meaningful++
	}
	return float64(meaningful) / float64(len(words)), true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
