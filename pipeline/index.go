package pipeline

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// vectorIndex is a request-scoped similarity index over embedded chunks.
// It is built once per request, queried once, and discarded; no handle ever
// outlives the request.
type vectorIndex struct {
	chunks  []string
	vectors [][]float64
}

func buildIndex(chunks []string, embeddings [][]float32) *vectorIndex {
	vectors := make([][]float64, len(embeddings))
	for i, embedding := range embeddings {
		vector := make([]float64, len(embedding))
		for j, v := range embedding {
			vector[j] = float64(v)
		}
		vectors[i] = vector
	}
	return &vectorIndex{chunks: chunks, vectors: vectors}
}

// search returns the limit chunks most similar to the query embedding,
// best match first.
func (ix *vectorIndex) search(query []float32, limit int) []string {
	q := make([]float64, len(query))
	for i, v := range query {
		q[i] = float64(v)
	}

	type scored struct {
		idx   int
		score float64
	}

	results := make([]scored, 0, len(ix.vectors))
	for i, vector := range ix.vectors {
		results = append(results, scored{idx: i, score: cosineSimilarity(q, vector)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })

	if limit > len(results) {
		limit = len(results)
	}
	matches := make([]string, 0, limit)
	for _, r := range results[:limit] {
		matches = append(matches, ix.chunks[r.idx])
	}
	return matches
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	norm := math.Sqrt(floats.Dot(a, a)) * math.Sqrt(floats.Dot(b, b))
	if norm == 0 {
		return 0
	}
	return floats.Dot(a, b) / norm
}
