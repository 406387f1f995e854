package testutil

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// HashEmbedder is a deterministic ai.Embedder for tests. It hashes the
// input's words into a fixed-size vector, so equal texts get equal vectors
// and overlapping texts get nearby ones. No network, no API key.
type HashEmbedder struct {
	Dimension int
}

// NewHashEmbedder creates a deterministic test embedder producing vectors
// of the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	return &HashEmbedder{Dimension: dimension}
}

func (e *HashEmbedder) Name() string {
	return "test/hash-embedder"
}

func (e *HashEmbedder) Register(_ api.Registry) {}

func (e *HashEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text strings.Builder
		for _, part := range doc.Content {
			text.WriteString(part.Text)
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{
			Embedding: e.vector(text.String()),
		})
	}
	return resp, nil
}

func (e *HashEmbedder) vector(text string) []float32 {
	vec := make([]float32, e.Dimension)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[int(h.Sum32())%e.Dimension]++
	}

	// Normalize so cosine distance behaves.
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
