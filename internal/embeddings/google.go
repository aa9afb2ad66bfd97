package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	googleEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGoogleModel = "text-embedding-004"
)

// GoogleEmbedder generates embeddings with the Gemini batchEmbedContents API.
type GoogleEmbedder struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleEmbedder creates a Google embedder. Empty model and baseURL
// take defaults.
func NewGoogleEmbedder(apiKey, model, baseURL string) *GoogleEmbedder {
	if model == "" {
		model = defaultGoogleModel
	}
	if baseURL == "" {
		baseURL = googleEmbedBaseURL
	}
	return &GoogleEmbedder{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func (e *GoogleEmbedder) Name() string    { return "google/" + e.model }
func (e *GoogleEmbedder) Dimensions() int { return 768 }

type googleBatchRequest struct {
	Requests []googleEmbedRequest `json:"requests"`
}

type googleEmbedRequest struct {
	Model   string        `json:"model"`
	Content googleContent `json:"content"`
}

type googleContent struct {
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleBatchResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch := googleBatchRequest{Requests: make([]googleEmbedRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = googleEmbedRequest{
			Model:   "models/" + e.model,
			Content: googleContent{Parts: []googlePart{{Text: text}}},
		}
	}
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal google embed request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.baseURL, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create google embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("google embed API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result googleBatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode google embed response: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("google returned %d embeddings, expected %d", len(result.Embeddings), len(texts))
	}

	out := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
