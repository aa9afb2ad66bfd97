package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and saves the result
// to path. Credentials are never written; the wizard reminds the user
// which environment variables to export instead.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to chatbridge! Let's configure your LINE bot.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. AI provider.
	providerPrompt := promptui.Select{
		Label: "Select AI provider for ai: messages",
		Items: []string{"google", "openai", "ollama", "none"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	if providerStr == "none" {
		cfg.AI.Provider = ""
	} else {
		cfg.AI.Provider = ProviderType(providerStr)
		preset := GetPreset(cfg.AI.Provider)
		cfg.AI.Model = preset.Model
		cfg.AI.ProModel = preset.ProModel
	}

	// 2. Webhook path.
	pathPrompt := promptui.Prompt{
		Label:   "Webhook path",
		Default: cfg.Webhook.Path,
		Validate: func(s string) error {
			if !strings.HasPrefix(s, "/") {
				return fmt.Errorf("path must start with /")
			}
			return nil
		},
	}
	if cfg.Webhook.Path, err = pathPrompt.Run(); err != nil {
		return nil, fmt.Errorf("webhook path: %w", err)
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "Listen port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Dispatch deadline.
	timeoutPrompt := promptui.Prompt{
		Label:   "Webhook dispatch deadline",
		Default: cfg.Webhook.Timeout.String(),
		Validate: func(s string) error {
			d, err := time.ParseDuration(s)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid duration")
			}
			return nil
		},
	}
	timeoutStr, err := timeoutPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("timeout: %w", err)
	}
	cfg.Webhook.Timeout, _ = time.ParseDuration(timeoutStr)

	// 5. Inventory spreadsheet.
	sheetPrompt := promptui.Prompt{
		Label:   "Inventory spreadsheet ID (leave blank to disable)",
		Default: "",
	}
	if cfg.Inventory.SpreadsheetID, err = sheetPrompt.Run(); err != nil {
		return nil, fmt.Errorf("spreadsheet id: %w", err)
	}

	// 6. Knowledge include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Knowledge include patterns (comma-separated globs)",
		Default: strings.Join(cfg.Knowledge.Include, ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	if include := splitAndTrim(includeStr); len(include) > 0 {
		cfg.Knowledge.Include = include
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)

	for _, v := range missingEnv(cfg) {
		fmt.Printf("Note: set %s in your environment before running chatbridge serve.\n", v)
	}
	return cfg, nil
}

// missingEnv lists the credential variables the config needs but the
// environment does not provide.
func missingEnv(cfg *Config) []string {
	need := []string{"LINE_CHANNEL_SECRET", "LINE_ACCESS_TOKEN"}
	if v := APIKeyEnvVar(cfg.AI.Provider); v != "" {
		need = append(need, v)
	}
	if cfg.Embedding.Provider == ProviderOpenAI && cfg.AI.Provider != ProviderOpenAI {
		need = append(need, "OPENAI_API_KEY")
	}
	if cfg.Inventory.SpreadsheetID != "" && cfg.AI.Provider != ProviderGoogle {
		need = append(need, "GOOGLE_API_KEY")
	}

	var missing []string
	for _, v := range need {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
