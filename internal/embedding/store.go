package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/zerorepo/zerorepo/internal/logging"
)

// Source identifies how a FeaturePath entered the store.
type Source string

const (
	SourceExploit  Source = "exploit"
	SourceExplore  Source = "explore"
	SourceMissing  Source = "missing"
	SourceOntology Source = "ontology"
)

// FeaturePath is a forward-slash hierarchy of identifiers, e.g.
// "ml/algorithms/regression/linear", annotated with the score and
// provenance it was added with.
type FeaturePath struct {
	Path   string  `json:"path"`
	Score  float64 `json:"score"`
	Source Source  `json:"source"`
}

// SearchResult pairs a FeaturePath with the cosine score of a query.
type SearchResult struct {
	FeaturePath
	CosineScore float64 `json:"cosine_score"`
}

// domainKeywords expands a top path segment into a natural-language hint,
// improving recall against free-form project goals.
var domainKeywords = map[string]string{
	"ml":      "machine learning",
	"nlp":     "natural language processing",
	"db":      "database",
	"api":     "application programming interface",
	"auth":    "authentication authorization",
	"ui":      "user interface",
	"infra":   "infrastructure",
	"cli":     "command line interface",
	"http":    "hypertext transfer protocol web",
	"crypto":  "cryptography",
	"io":      "input output",
	"net":     "networking",
	"config":  "configuration",
	"test":    "testing",
	"sched":   "scheduling",
	"cache":   "caching",
	"storage": "storage persistence",
}

// naturalLanguage converts a feature path into a phrase suitable for
// embedding: split on '/', replace '_'/'-' with spaces, join with spaces,
// and prepend a domain hint when the top segment matches a known keyword.
func naturalLanguage(path string) string {
	segments := strings.Split(path, "/")
	words := make([]string, 0, len(segments)*2)

	if len(segments) > 0 {
		if hint, ok := domainKeywords[strings.ToLower(segments[0])]; ok {
			words = append(words, hint)
		}
	}

	for _, seg := range segments {
		seg = strings.ReplaceAll(seg, "_", " ")
		seg = strings.ReplaceAll(seg, "-", " ")
		words = append(words, seg)
	}

	return strings.Join(words, " ")
}

// Store holds a list of FeaturePath and a parallel matrix of L2-normalized
// embeddings, per spec §4.2.
type Store struct {
	mu       sync.RWMutex
	engine   EmbeddingEngine
	features []FeaturePath
	vectors  [][]float32
	seen     map[string]bool
	ann      *ANNIndex
}

// NewStore builds an embedding store backed by the given engine.
func NewStore(engine EmbeddingEngine) *Store {
	return &Store{
		engine: engine,
		seen:   make(map[string]bool),
	}
}

// WithANNIndex attaches a sqlite-vec index that Search prefers over the
// brute-force scan once it holds entries. A disabled index (no sqlite-vec
// extension loaded) is accepted but never consulted.
func (s *Store) WithANNIndex(idx *ANNIndex) *Store {
	s.ann = idx
	return s
}

// Add encodes natural-language(path) for each new feature and appends it
// to the matrix and list. Feature paths already present are skipped.
func (s *Store) Add(ctx context.Context, features []FeaturePath) error {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Store.Add")
	defer timer.Stop()

	s.mu.Lock()
	var fresh []FeaturePath
	for _, f := range features {
		if s.seen[f.Path] {
			continue
		}
		s.seen[f.Path] = true
		fresh = append(fresh, f)
	}
	s.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	phrases := make([]string, len(fresh))
	for i, f := range fresh {
		phrases[i] = naturalLanguage(f.Path)
	}

	vecs, err := s.engine.EmbedBatch(ctx, phrases)
	if err != nil {
		return fmt.Errorf("embedding store add: %w", err)
	}

	normalized := make([][]float32, len(fresh))
	for i, v := range vecs {
		normalized[i] = normalize(v)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range fresh {
		s.features = append(s.features, v)
		s.vectors = append(s.vectors, normalized[i])
	}
	if s.ann != nil && s.ann.Enabled() {
		if err := s.ann.Add(fresh, normalized); err != nil {
			logging.Get(logging.CategoryStore).Warn("ann index add failed, brute-force search stays authoritative: %v", err)
		}
	}
	logging.EmbeddingDebug("store: added %d features, total=%d", len(fresh), len(s.features))
	return nil
}

// Search encodes query, runs an inner-product search against the
// L2-normalized matrix, filters by domain prefix if given, and returns the
// top-k results scoring at least minScore.
func (s *Store) Search(ctx context.Context, query string, k int, domainFilter string, minScore float64) ([]SearchResult, error) {
	if k <= 0 {
		k = 10
	}

	qvec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding store search: %w", err)
	}
	qvec = normalize(qvec)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ann != nil && s.ann.Enabled() && len(s.features) > 0 {
		if results, err := s.searchANN(qvec, k, domainFilter, minScore); err == nil {
			return results, nil
		} else {
			logging.Get(logging.CategoryStore).Warn("ann index search failed, falling back to brute-force: %v", err)
		}
	}

	results := make([]SearchResult, 0, len(s.features))
	for i, f := range s.features {
		if domainFilter != "" && !hasDomainPrefix(f.Path, domainFilter) {
			continue
		}
		score := dot(qvec, s.vectors[i])
		if score < minScore {
			continue
		}
		results = append(results, SearchResult{FeaturePath: f, CosineScore: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].CosineScore > results[j].CosineScore })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// SampleDiverse samples without replacement from features minus exclude,
// matching domainFilter, tagged explore with score 0.6. Sampling is
// deterministic given the store's current insertion order: it walks the
// eligible candidates in order with a stride of len(eligible)/k (at least
// 1), taking up to k of them, which keeps callers' test fixtures
// reproducible without requiring real randomness.
func (s *Store) SampleDiverse(exclude map[string]bool, k int, domainFilter string) []FeaturePath {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var eligible []FeaturePath
	for _, f := range s.features {
		if exclude[f.Path] {
			continue
		}
		if domainFilter != "" && !hasDomainPrefix(f.Path, domainFilter) {
			continue
		}
		eligible = append(eligible, f)
	}

	if k <= 0 || k > len(eligible) {
		k = len(eligible)
	}

	stride := 1
	if len(eligible) > k && k > 0 {
		stride = len(eligible) / k
		if stride < 1 {
			stride = 1
		}
	}

	out := make([]FeaturePath, 0, k)
	for i := 0; i < len(eligible) && len(out) < k; i += stride {
		fp := eligible[i]
		fp.Source = SourceExplore
		fp.Score = 0.6
		out = append(out, fp)
	}
	return out
}

// OntologyNode is one level of a nested ontology: either leaf feature
// names or a further nested map.
type OntologyNode map[string]interface{}

// BuildFromOntology flattens a nested ontology (maps of maps of
// leaf-lists) into feature paths, tagged source=ontology, score 0.5.
func BuildFromOntology(tree OntologyNode) []FeaturePath {
	var out []FeaturePath
	flattenOntology(tree, nil, &out)
	return out
}

func flattenOntology(node OntologyNode, prefix []string, out *[]FeaturePath) {
	for key, val := range node {
		path := append(append([]string{}, prefix...), key)
		switch v := val.(type) {
		case OntologyNode:
			flattenOntology(v, path, out)
		case map[string]interface{}:
			flattenOntology(OntologyNode(v), path, out)
		case []interface{}:
			for _, leaf := range v {
				if s, ok := leaf.(string); ok {
					*out = append(*out, FeaturePath{
						Path:   strings.Join(append(path, s), "/"),
						Score:  0.5,
						Source: SourceOntology,
					})
				}
			}
		case []string:
			for _, s := range v {
				*out = append(*out, FeaturePath{
					Path:   strings.Join(append(path, s), "/"),
					Score:  0.5,
					Source: SourceOntology,
				})
			}
		}
	}
}

// searchANN queries the sqlite-vec index for a wider candidate set than k,
// then applies the domain/minScore filters the vec0 query itself can't
// express, mirroring the brute-force path's semantics. Called with s.mu
// already held for reading.
func (s *Store) searchANN(qvec []float32, k int, domainFilter string, minScore float64) ([]SearchResult, error) {
	candidates, err := s.ann.Search(qvec, k*4)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, k)
	for _, r := range candidates {
		if domainFilter != "" && !hasDomainPrefix(r.Path, domainFilter) {
			continue
		}
		if r.CosineScore < minScore {
			continue
		}
		results = append(results, r)
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// Len returns the number of feature paths held in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.features)
}

func hasDomainPrefix(path, domain string) bool {
	domain = strings.TrimSuffix(domain, "/")
	return path == domain || strings.HasPrefix(path, domain+"/")
}

func normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
