package config

import (
	"fmt"
	"os"
	"strings"
)

// PromptVars holds variables for context prompt expansion.
type PromptVars struct {
	JourneyTitle   string
	OverallPercent string
	NodeTitle      string
	NodeStatus     string
	NodePercent    string
	Question       string
}

// LoadContextPrompt returns the context prompt template based on configuration
// priority: ContextPromptFile > ContextPrompt > DefaultContextPrompt.
// Returns an error if ContextPromptFile is set but the file cannot be read.
func (c *Config) LoadContextPrompt() (string, error) {
	if c.Chat.ContextPromptFile != "" {
		content, err := os.ReadFile(c.Chat.ContextPromptFile)
		if err != nil {
			return "", fmt.Errorf("load context prompt file %q: %w", c.Chat.ContextPromptFile, err)
		}
		return string(content), nil
	}

	if c.Chat.ContextPrompt != "" {
		return c.Chat.ContextPrompt, nil
	}

	return DefaultContextPrompt, nil
}

// ExpandPrompt performs variable substitution on a prompt template.
// Replacement is single-pass, so values containing placeholders are not
// expanded again.
// Supported variables: {{.JourneyTitle}}, {{.OverallPercent}}, {{.NodeTitle}},
// {{.NodeStatus}}, {{.NodePercent}}, {{.Question}}
func ExpandPrompt(template string, vars PromptVars) string {
	r := strings.NewReplacer(
		"{{.JourneyTitle}}", vars.JourneyTitle,
		"{{.OverallPercent}}", vars.OverallPercent,
		"{{.NodeTitle}}", vars.NodeTitle,
		"{{.NodeStatus}}", vars.NodeStatus,
		"{{.NodePercent}}", vars.NodePercent,
		"{{.Question}}", vars.Question,
	)
	return r.Replace(template)
}
