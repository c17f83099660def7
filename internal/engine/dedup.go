package engine

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog"
)

// DedupResult is the outcome of one deduplication pass: the surviving
// representatives in arrival order and the clusters that produced them.
type DedupResult struct {
	Representatives []Representative
	Clusters        []Cluster

	InputCount      int
	AfterURLCount   int
	AfterTitleCount int

	// Similarity is the pairwise title-Jaccard index over the Stage-B
	// survivors, reused by the credibility stage for corroboration.
	Similarity *SimilarityIndex
}

// Deduplicator collapses exact and near-duplicate articles into
// clusters and picks one representative per cluster.
type Deduplicator struct {
	threshold float64
	logger    zerolog.Logger
}

func NewDeduplicator(similarityThreshold float64, logger zerolog.Logger) *Deduplicator {
	return &Deduplicator{
		threshold: similarityThreshold,
		logger:    logger,
	}
}

// Deduplicate runs the three stages in order: URL identity, title-hash
// identity, then lexical clustering. Input order is arrival order and is
// the tie-break priority throughout — the first-seen article wins.
func (d *Deduplicator) Deduplicate(articles []Article) DedupResult {
	result := DedupResult{InputCount: len(articles)}
	if len(articles) == 0 {
		result.Similarity = BuildSimilarityIndex(nil)
		return result
	}

	arrival := make(map[string]int, len(articles))
	for i, a := range articles {
		if _, seen := arrival[a.ID]; !seen {
			arrival[a.ID] = i
		}
	}

	byURL := dedupByURL(articles)
	result.AfterURLCount = len(byURL)

	byTitle := dedupByTitleHash(byURL)
	result.AfterTitleCount = len(byTitle)

	result.Similarity = BuildSimilarityIndex(byTitle)
	clusters := d.clusterComponents(byTitle, result.Similarity)

	for _, cluster := range clusters {
		rep := selectRepresentative(byTitle, cluster, arrival)
		result.Clusters = append(result.Clusters, Cluster{
			RepresentativeID: rep.ID,
			MemberIDs:        memberIDs(byTitle, cluster),
		})
		result.Representatives = append(result.Representatives, Representative{
			Article:      rep,
			ClusterSize:  len(cluster),
			ArrivalIndex: arrival[rep.ID],
		})
	}

	d.logger.Debug().
		Int("input", result.InputCount).
		Int("after_url", result.AfterURLCount).
		Int("after_title", result.AfterTitleCount).
		Int("clusters", len(result.Clusters)).
		Msg("dedup pass completed")

	return result
}

// dedupByURL keeps the first-seen article per normalized URL. Articles
// whose URL does not normalize are kept as-is; a missing URL never
// collapses unrelated articles.
func dedupByURL(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	survivors := make([]Article, 0, len(articles))
	for _, a := range articles {
		canonical, _ := normalizeURL(a.URL)
		if canonical == "" {
			survivors = append(survivors, a)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		survivors = append(survivors, a)
	}
	return survivors
}

// dedupByTitleHash keeps the first-seen article per normalized-title
// hash, catching cross-URL republication of byte-identical headlines.
func dedupByTitleHash(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	survivors := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := titleHashHex(a.Title)
		if key == "" {
			survivors = append(survivors, a)
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		survivors = append(survivors, a)
	}
	return survivors
}

func titleHashHex(title string) string {
	normalized := normalizeText(title)
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// clusterComponents builds clusters as connected components of the
// similarity graph: any pair at or above the threshold shares a cluster,
// and membership is transitive. Union order is fixed by the (i, j) edge
// scan, so the outcome does not depend on how the index was computed.
func (d *Deduplicator) clusterComponents(articles []Article, index *SimilarityIndex) [][]int {
	n := len(articles)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for i := 0; i < n-1; i++ {
		for j := i + 1; j < n; j++ {
			if index.At(i, j) >= d.threshold {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int, n)
	roots := make([]int, 0, n)
	for i := 0; i < n; i++ {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	components := make([][]int, 0, len(roots))
	for _, root := range roots {
		components = append(components, byRoot[root])
	}
	return components
}

// selectRepresentative picks the article with the longest body; ties go
// to the earliest arrival.
func selectRepresentative(articles []Article, component []int, arrival map[string]int) Article {
	best := articles[component[0]]
	for _, i := range component[1:] {
		candidate := articles[i]
		switch {
		case len(candidate.Body) > len(best.Body):
			best = candidate
		case len(candidate.Body) == len(best.Body) && arrival[candidate.ID] < arrival[best.ID]:
			best = candidate
		}
	}
	return best
}

func memberIDs(articles []Article, component []int) []string {
	ids := make([]string, 0, len(component))
	for _, i := range component {
		ids = append(ids, articles[i].ID)
	}
	return ids
}
