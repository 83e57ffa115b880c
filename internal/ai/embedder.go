// README: Gemini embedding provider for genre similarity.
package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder implements the engine's Embedder capability using Google's
// text embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel

	// Genre vocabularies are tiny and stable, so per-genre vectors are
	// cached for the client's lifetime to bound upstream calls.
	mu    sync.Mutex
	cache map[string][]float64
}

// NewGeminiEmbedder initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiEmbedder(ctx context.Context, apiKey string) (*GeminiEmbedder, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiEmbedder{
		client: client,
		model:  client.EmbeddingModel("text-embedding-004"),
		cache:  make(map[string][]float64),
	}, nil
}

// Close cleans up the Gemini client resources.
func (e *GeminiEmbedder) Close() {
	e.client.Close()
}

// EmbedGenres returns the mean embedding of the given genre names. Genres
// the model cannot embed contribute nothing; when none resolve the result
// is an empty vector, which downstream scoring treats as similarity 0.
func (e *GeminiEmbedder) EmbedGenres(ctx context.Context, genres []string) ([]float64, error) {
	var missing []string
	e.mu.Lock()
	for _, g := range genres {
		if _, ok := e.cache[g]; !ok {
			missing = append(missing, g)
		}
	}
	e.mu.Unlock()

	if len(missing) > 0 {
		batch := e.model.NewBatch()
		for _, g := range missing {
			batch = batch.AddContent(genai.Text(g))
		}
		resp, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embedding error: %w", err)
		}
		e.mu.Lock()
		for i, emb := range resp.Embeddings {
			if i >= len(missing) || emb == nil || len(emb.Values) == 0 {
				continue
			}
			vec := make([]float64, len(emb.Values))
			for j, v := range emb.Values {
				vec[j] = float64(v)
			}
			e.cache[missing[i]] = vec
		}
		e.mu.Unlock()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	var mean []float64
	count := 0
	for _, g := range genres {
		vec, ok := e.cache[g]
		if !ok {
			continue
		}
		if mean == nil {
			mean = make([]float64, len(vec))
		}
		if len(vec) != len(mean) {
			continue
		}
		for j, v := range vec {
			mean[j] += v
		}
		count++
	}
	if count == 0 {
		return nil, nil
	}
	for j := range mean {
		mean[j] /= float64(count)
	}
	return mean, nil
}
