// Package config provides configuration types and defaults for finroad.
package config

import "time"

// Config holds all configuration for finroad.
type Config struct {
	Journey     JourneyConfig     `yaml:"journey" mapstructure:"journey"`
	Chat        ChatConfig        `yaml:"chat" mapstructure:"chat"`
	Viewport    ViewportConfig    `yaml:"viewport" mapstructure:"viewport"`
	Export      ExportConfig      `yaml:"export" mapstructure:"export"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// JourneyConfig locates the roadmap document.
type JourneyConfig struct {
	Path     string        `yaml:"path" mapstructure:"path"`         // .json, .yaml or .yml
	Watch    bool          `yaml:"watch" mapstructure:"watch"`       // Reload the TUI when the file changes
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"` // Settle time for rapid writes
}

// ChatConfig holds the chat backend settings.
type ChatConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ThreadID          string        `yaml:"thread_id" mapstructure:"thread_id"` // Thread opened at startup
	Model             string        `yaml:"model" mapstructure:"model"`         // general, cumulative or accounting
	ContextPrompt     string        `yaml:"context_prompt" mapstructure:"context_prompt"`
	ContextPromptFile string        `yaml:"context_prompt_file" mapstructure:"context_prompt_file"` // Takes priority over ContextPrompt
}

// ViewportConfig holds zoom limits for the roadmap pane.
type ViewportConfig struct {
	MinScale float64 `yaml:"min_scale" mapstructure:"min_scale"`
	MaxScale float64 `yaml:"max_scale" mapstructure:"max_scale"`
	ZoomStep float64 `yaml:"zoom_step" mapstructure:"zoom_step"`
}

// ExportConfig holds snapshot export settings.
type ExportConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // svg or png, used when the output has no extension
}

// PathsConfig holds file paths.
type PathsConfig struct {
	Log string `yaml:"log" mapstructure:"log"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// DefaultChatBaseURL is the hosted chat backend.
const DefaultChatBaseURL = "https://hacknu-4bou.onrender.com/api/v1"

// DefaultContextPrompt is prepended to chat prompts sent about a roadmap step.
const DefaultContextPrompt = `I am working on my financial roadmap "{{.JourneyTitle}}" (overall {{.OverallPercent}}).
The step in question is "{{.NodeTitle}}", currently {{.NodeStatus}} at {{.NodePercent}}.

{{.Question}}`

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Journey: JourneyConfig{
			Path:     "journey.json",
			Watch:    false,
			Debounce: 100 * time.Millisecond,
		},
		Chat: ChatConfig{
			BaseURL:       DefaultChatBaseURL,
			Timeout:       20 * time.Second,
			ThreadID:      "t1",
			Model:         "general",
			ContextPrompt: DefaultContextPrompt,
		},
		Viewport: ViewportConfig{
			MinScale: 0.6,
			MaxScale: 2.2,
			ZoomStep: 0.1,
		},
		Export: ExportConfig{
			Format: "svg",
		},
		Paths: PathsConfig{
			Log: ".finroad/finroad.log",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
