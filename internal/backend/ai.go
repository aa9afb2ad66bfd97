package backend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ziadkadry99/chatbridge/internal/config"
	"github.com/ziadkadry99/chatbridge/internal/llm"
)

// EmptyCompletionText replaces a completion with no text.
const EmptyCompletionText = "（応答を生成できませんでした）"

// AI answers free-form prompts with an LLM provider.
type AI struct {
	provider     llm.Provider
	model        string
	proModel     string
	systemPrompt string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	logger       *slog.Logger
}

// NewAI creates the assistant backend. An empty pro model falls back to
// the default model.
func NewAI(provider llm.Provider, cfg config.AIConfig, logger *slog.Logger) *AI {
	pro := cfg.ProModel
	if pro == "" {
		pro = cfg.Model
	}
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = config.DefaultSystemPrompt
	}
	return &AI{
		provider:     provider,
		model:        cfg.Model,
		proModel:     pro,
		systemPrompt: prompt,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		timeout:      cfg.Timeout,
		logger:       logger.With("component", "backend", "backend", "ai"),
	}
}

func (a *AI) Name() string { return "ai" }

// Query asks the default model.
func (a *AI) Query(ctx context.Context, prompt string) (string, error) {
	return a.Ask(ctx, prompt, false)
}

// Ask sends prompt to the default or pro model.
func (a *AI) Ask(ctx context.Context, prompt string, pro bool) (string, error) {
	model := a.model
	if pro {
		model = a.proModel
	}

	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:       model,
		Messages:    []llm.Message{llm.System(a.systemPrompt), llm.User(prompt)},
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return "", &Error{Backend: "ai", Op: "complete", Err: err}
	}

	a.logger.Debug("completion",
		"model", resp.Model,
		"input_tokens", resp.InputTokens,
		"output_tokens", resp.OutputTokens,
		"finish_reason", resp.FinishReason,
		"duration", time.Since(start),
	)

	if text := strings.TrimSpace(resp.Content); text != "" {
		return text, nil
	}
	return EmptyCompletionText, nil
}
