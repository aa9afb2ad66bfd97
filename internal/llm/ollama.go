package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// OllamaProvider implements Provider using the Ollama chat API, for bots
// answering from a local model.
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
	retry   RetryConfig
}

// NewOllamaProvider creates a new Ollama provider. baseURL may be empty.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
		retry:   DefaultRetryConfig,
	}
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaMessage `json:"message"`
	Model           string        `json:"model"`
	DoneReason      string        `json:"done_reason"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := ollamaChatRequest{
		Model: model,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, ollamaMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}

	httpResp, err := doWithRetry(ctx, p.retry, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return p.client.Do(httpReq)
	})
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}

	var apiResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ollama returned status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal ollama response: %w", err)
	}
	if apiResp.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", apiResp.Error)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", httpResp.StatusCode)
	}

	return &CompletionResponse{
		Content:      apiResp.Message.Content,
		InputTokens:  apiResp.PromptEvalCount,
		OutputTokens: apiResp.EvalCount,
		Model:        apiResp.Model,
		FinishReason: apiResp.DoneReason,
	}, nil
}
