package facematch

import (
	"slices"
	"strings"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW parameters for small face galleries.
const (
	// IndexMaxNeighbors (M) is the maximum number of neighbors per node.
	IndexMaxNeighbors = 16

	// IndexEfSearch is the search candidate pool size.
	IndexEfSearch = 64

	// DefaultIndexCandidates is how many neighbours are re-scored exactly.
	DefaultIndexCandidates = 8
)

// Index is an approximate nearest-neighbour index over registered embeddings.
// It only narrows the candidate list; the Matcher still scores candidates
// exactly and applies the threshold.
type Index struct {
	mu       sync.RWMutex
	graph    *hnsw.Graph[string]
	byName   map[string]Vector
	dim      int
	k        int
	revision uint64
	built    bool
}

// NewIndex creates an empty index returning up to k candidates per search.
func NewIndex(k int) *Index {
	if k <= 0 {
		k = DefaultIndexCandidates
	}
	return &Index{k: k, byName: make(map[string]Vector)}
}

// Build replaces the index contents with entries and tags it with revision.
func (ix *Index) Build(entries []Entry, revision uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.revision = revision
	ix.built = true
	ix.byName = make(map[string]Vector, len(entries))
	ix.graph = nil
	ix.dim = 0

	if len(entries) == 0 {
		return
	}

	g := hnsw.NewGraph[string]()
	g.M = IndexMaxNeighbors
	g.Ml = 1.0 / float64(IndexMaxNeighbors) // Standard HNSW formula
	g.EfSearch = IndexEfSearch
	g.Distance = hnsw.CosineDistance

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			continue
		}
		if ix.dim == 0 {
			ix.dim = len(e.Embedding)
		}
		if len(e.Embedding) != ix.dim {
			continue
		}
		g.Add(hnsw.MakeNode(e.Name, []float32(e.Embedding)))
		ix.byName[e.Name] = e.Embedding
	}
	if len(ix.byName) > 0 {
		ix.graph = g
	}
}

// Current reports whether the index was built from the given revision.
func (ix *Index) Current(revision uint64) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built && ix.revision == revision
}

// Search returns the nearest entries to query ordered by name, or nil when the
// index is empty or the query has a different dimension.
func (ix *Index) Search(query Vector) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil || len(query) != ix.dim {
		return nil
	}

	neighbors := ix.graph.Search([]float32(query), ix.k)
	out := make([]Entry, 0, len(neighbors))
	for _, n := range neighbors {
		v, ok := ix.byName[n.Key]
		if !ok {
			continue
		}
		out = append(out, Entry{Name: n.Key, Embedding: v})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Len returns the number of indexed embeddings.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byName)
}
