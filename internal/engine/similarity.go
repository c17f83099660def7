package engine

import (
	"net/url"
	"runtime"
	"sort"
	"strings"
	"sync"
	"unicode"
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
}

func normalizeText(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

// tokenize splits into word tokens, dropping punctuation. Used by the
// integrity keyword paths only; title similarity uses titleTokenSet.
func tokenize(text string) []string {
	normalized := normalizeText(text)
	if normalized == "" {
		return nil
	}

	parts := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// titleTokenSet is the token set the dedup and corroboration Jaccard
// is defined over: case-folded, whitespace-delimited, punctuation
// kept, so "tesla," and "tesla" are distinct tokens.
func titleTokenSet(title string) map[string]struct{} {
	normalized := normalizeText(title)
	if normalized == "" {
		return nil
	}

	tokens := strings.Fields(normalized)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func jaccard(left, right map[string]struct{}) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for token := range left {
		if _, ok := right[token]; ok {
			intersection++
		}
	}
	if intersection == 0 {
		return 0
	}

	union := len(left) + len(right) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func titleTokenJaccard(left, right string) float64 {
	return jaccard(titleTokenSet(left), titleTokenSet(right))
}

// normalizeURL canonicalizes an article URL for Stage-A identity:
// lower-cased scheme and host, default ports and fragments dropped,
// trailing slash trimmed, utm_* and known tracking query keys removed,
// remaining query keys sorted. Returns empty strings for unusable input.
func normalizeURL(raw string) (canonical string, host string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", ""
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Hostname())
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			parsed.Host = parsed.Host + ":" + port
		}
	}

	parsed.Fragment = ""
	path := strings.TrimSpace(parsed.EscapedPath())
	if path == "" {
		path = "/"
	}
	path = strings.ReplaceAll(path, "//", "/")
	if strings.HasSuffix(path, "/") && path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	parsed.Path = path
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, ok := trackingQueryKeys[lower]; ok {
			q.Del(key)
		}
	}
	if len(q) > 0 {
		keys := make([]string, 0, len(q))
		for key := range q {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		reordered := url.Values{}
		for _, key := range keys {
			values := q[key]
			sort.Strings(values)
			for _, value := range values {
				reordered.Add(key, value)
			}
		}
		parsed.RawQuery = reordered.Encode()
	} else {
		parsed.RawQuery = ""
	}

	return parsed.String(), parsed.Hostname()
}

// SimilarityIndex holds the pairwise title-Jaccard values for one batch.
// It is computed once and shared by Stage-C clustering and the
// cross-source corroboration bonus.
type SimilarityIndex struct {
	ids    []string
	byID   map[string]int
	values []float64
}

// BuildSimilarityIndex computes the full pairwise title-Jaccard matrix.
// Pairs are evaluated by a bounded worker pool; each pair writes only
// its own slot, so the result is identical regardless of scheduling.
func BuildSimilarityIndex(articles []Article) *SimilarityIndex {
	n := len(articles)
	idx := &SimilarityIndex{
		ids:    make([]string, n),
		byID:   make(map[string]int, n),
		values: make([]float64, n*(n-1)/2),
	}

	sets := make([]map[string]struct{}, n)
	for i, a := range articles {
		idx.ids[i] = a.ID
		idx.byID[a.ID] = i
		sets[i] = titleTokenSet(a.Title)
	}
	if n < 2 {
		return idx
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	rows := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				for j := i + 1; j < n; j++ {
					idx.values[idx.offset(i, j)] = jaccard(sets[i], sets[j])
				}
			}
		}()
	}
	for i := 0; i < n-1; i++ {
		rows <- i
	}
	close(rows)
	wg.Wait()

	return idx
}

// offset maps an unordered pair (i<j) onto the packed triangular slice.
func (s *SimilarityIndex) offset(i, j int) int {
	n := len(s.ids)
	return i*(2*n-i-1)/2 + (j - i - 1)
}

// Len returns the number of indexed articles.
func (s *SimilarityIndex) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}

// At returns the title similarity of the i-th and j-th indexed articles.
func (s *SimilarityIndex) At(i, j int) float64 {
	if s == nil || i == j || i < 0 || j < 0 || i >= len(s.ids) || j >= len(s.ids) {
		return 0
	}
	if j < i {
		i, j = j, i
	}
	return s.values[s.offset(i, j)]
}

// Between returns the title similarity of two articles by identifier.
func (s *SimilarityIndex) Between(leftID, rightID string) float64 {
	if s == nil {
		return 0
	}
	i, okLeft := s.byID[leftID]
	j, okRight := s.byID[rightID]
	if !okLeft || !okRight {
		return 0
	}
	return s.At(i, j)
}
