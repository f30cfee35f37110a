package chat

import (
	"math"
	"sort"
)

// docChunk is one split piece of the paper, tagged with the page it
// came from.
type docChunk struct {
	Text string
	Page int
}

// index is an in-memory vector index over a single paper's chunks. It
// lives for one chat request only.
type index struct {
	chunks  []docChunk
	vectors [][]float32
}

func newIndex(chunks []docChunk, vectors [][]float32) *index {
	return &index{chunks: chunks, vectors: vectors}
}

// search returns the k chunks most similar to the query vector, best
// first.
func (idx *index) search(query []float32, k int) []docChunk {
	type scored struct {
		chunk docChunk
		score float64
	}

	results := make([]scored, 0, len(idx.chunks))
	for i, vec := range idx.vectors {
		results = append(results, scored{chunk: idx.chunks[i], score: cosine(query, vec)})
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].score > results[b].score
	})

	if k > len(results) {
		k = len(results)
	}
	top := make([]docChunk, 0, k)
	for _, r := range results[:k] {
		top = append(top, r.chunk)
	}
	return top
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
