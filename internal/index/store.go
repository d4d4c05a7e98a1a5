package index

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Filename is the index artifact inside a session's index directory.
const Filename = "index.json"

const (
	SearchSimilarity = "similarity"
	SearchMMR        = "mmr"
)

// Chunk is one embedded slice of a source document.
type Chunk struct {
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding"`
}

// Index is the per-session vector index, persisted as a single JSON
// artifact. The session lifecycle layer treats it as opaque.
type Index struct {
	Chunks []Chunk `json:"chunks"`
	// SearchDefaults are the retrieval settings chosen at ingestion
	// time; queries may override them.
	SearchDefaults SearchOptions `json:"search_defaults"`
}

// SearchOptions control retrieval. FetchK and LambdaMult only apply to
// MMR search.
type SearchOptions struct {
	SearchType string  `json:"search_type"`
	K          int     `json:"k"`
	FetchK     int     `json:"fetch_k"`
	LambdaMult float64 `json:"lambda_mult"`
}

// Save writes the index artifact into dir, which must already exist.
func Save(dir string, idx *Index) error {
	raw, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index failed: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, Filename), raw, 0o644); err != nil {
		return fmt.Errorf("write index failed: %w", err)
	}
	return nil
}

// Load reads the index artifact from dir.
func Load(dir string) (*Index, error) {
	raw, err := os.ReadFile(filepath.Join(dir, Filename))
	if err != nil {
		return nil, fmt.Errorf("read index failed: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, fmt.Errorf("parse index failed: %w", err)
	}
	return &idx, nil
}

// Search returns the chunks most relevant to the query embedding. With
// SearchMMR, a pool of FetchK candidates is re-ranked for diversity;
// anything else falls back to plain cosine top-k.
func (idx *Index) Search(query []float32, opts SearchOptions) []Chunk {
	k := opts.K
	if k <= 0 {
		k = 5
	}
	if opts.SearchType == SearchMMR {
		return idx.searchMMR(query, k, opts.FetchK, opts.LambdaMult)
	}
	return idx.searchSimilarity(query, k)
}

type scoredChunk struct {
	chunk Chunk
	score float32
}

func (idx *Index) scoreAll(query []float32) []scoredChunk {
	scored := make([]scoredChunk, len(idx.Chunks))
	for i, c := range idx.Chunks {
		scored[i] = scoredChunk{chunk: c, score: cosineSimilarity(query, c.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

func (idx *Index) searchSimilarity(query []float32, k int) []Chunk {
	scored := idx.scoreAll(query)
	if k > len(scored) {
		k = len(scored)
	}
	out := make([]Chunk, k)
	for i := 0; i < k; i++ {
		out[i] = scored[i].chunk
	}
	return out
}

// searchMMR applies maximal marginal relevance: candidates are drawn
// from the fetchK most similar chunks, then picked one at a time to
// balance query relevance against redundancy with what was already
// picked. lambda 1.0 is pure relevance, 0.0 pure diversity.
func (idx *Index) searchMMR(query []float32, k, fetchK int, lambda float64) []Chunk {
	if fetchK < k {
		fetchK = k
	}
	if lambda <= 0 || lambda > 1 {
		lambda = 0.5
	}

	pool := idx.scoreAll(query)
	if fetchK < len(pool) {
		pool = pool[:fetchK]
	}

	var selected []scoredChunk
	remaining := make([]scoredChunk, len(pool))
	copy(remaining, pool)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)
		for i, cand := range remaining {
			maxSim := float32(0)
			for _, sel := range selected {
				if sim := cosineSimilarity(cand.chunk.Embedding, sel.chunk.Embedding); sim > maxSim {
					maxSim = sim
				}
			}
			mmr := lambda*float64(cand.score) - (1-lambda)*float64(maxSim)
			if mmr > bestScore {
				bestScore = mmr
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]Chunk, len(selected))
	for i, s := range selected {
		out[i] = s.chunk
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
