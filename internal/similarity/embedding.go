package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/ignite/outreach-engine/internal/pkg/httpretry"
)

// EmbeddingProvider computes similarity as the cosine distance between
// embeddings from an OpenAI-compatible embeddings endpoint. Requests go
// through the retry client so transient provider errors are absorbed before
// the analyzer ever sees them.
type EmbeddingProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  httpretry.HTTPDoer
}

// NewEmbeddingProvider creates an embedding-backed similarity provider.
// client may be nil, in which case a retrying default client is used.
func NewEmbeddingProvider(apiKey, model, baseURL string, client httpretry.HTTPDoer) (*EmbeddingProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("similarity: embedding API key is required")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if client == nil {
		client = httpretry.NewRetryClient(nil, 3)
	}
	return &EmbeddingProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Name identifies this provider in warnings and cache metadata.
func (p *EmbeddingProvider) Name() string { return "embedding:" + p.model }

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Similarities embeds the query and all candidates in one request and
// returns the cosine similarity of each candidate to the query, rescaled
// from [-1,1] to [0,1].
func (p *EmbeddingProvider) Similarities(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	inputs := append([]string{query}, candidates...)
	vectors, err := p.embed(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("similarity: provider returned %d embeddings for %d inputs", len(vectors), len(inputs))
	}

	queryVec := vectors[0]
	scores := make([]float64, len(candidates))
	for i, vec := range vectors[1:] {
		scores[i] = clamp01((cosine(queryVec, vec) + 1) / 2)
	}
	return scores, nil
}

func (p *EmbeddingProvider) embed(ctx context.Context, inputs []string) ([][]float64, error) {
	body, err := json.Marshal(embeddingRequest{
		Input:          inputs,
		Model:          p.model,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("similarity: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("similarity: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("similarity: embedding request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("similarity: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("similarity: provider returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("similarity: parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("similarity: provider error: %s", parsed.Error.Message)
	}

	// Order by index: the API does not guarantee response order
	vectors := make([][]float64, len(inputs))
	for _, d := range parsed.Data {
		if d.Index >= 0 && d.Index < len(vectors) {
			vectors[d.Index] = d.Embedding
		}
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("similarity: missing embedding for input %d", i)
		}
	}
	return vectors, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
