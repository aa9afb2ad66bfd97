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

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider implements Provider using the Gemini generateContent API.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	retry   RetryConfig
}

// NewGoogleProvider creates a new Gemini provider. baseURL may be empty.
func NewGoogleProvider(apiKey, model, baseURL string) *GoogleProvider {
	if baseURL == "" {
		baseURL = googleAPIBaseURL
	}
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		retry:   DefaultRetryConfig,
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := geminiRequest{
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}

	var systemParts []geminiPart
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case RoleUser:
			apiReq.Contents = append(apiReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		case RoleAssistant:
			apiReq.Contents = append(apiReq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}
	if len(systemParts) > 0 {
		apiReq.SystemInstruction = &geminiContent{Parts: systemParts}
	}
	if len(apiReq.Contents) == 0 {
		apiReq.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: ""}}}}
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, model)
	httpResp, err := doWithRetry(ctx, p.retry, func() (*http.Response, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-goog-api-key", p.apiKey)
		return p.client.Do(httpReq)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini response: %w", err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("gemini returned status %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("unmarshal gemini response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", httpResp.StatusCode)
	}

	out := &CompletionResponse{Model: model}
	if len(apiResp.Candidates) > 0 {
		c := apiResp.Candidates[0]
		if c.Content != nil {
			var b strings.Builder
			for _, part := range c.Content.Parts {
				b.WriteString(part.Text)
			}
			out.Content = b.String()
		}
		out.FinishReason = c.FinishReason
	}
	if apiResp.UsageMetadata != nil {
		out.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		out.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}
