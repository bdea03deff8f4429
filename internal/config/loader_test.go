package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	v := viper.New()
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Chat.Timeout != 20*time.Second {
		t.Errorf("Chat.Timeout = %v, want %v", cfg.Chat.Timeout, 20*time.Second)
	}
	if cfg.Journey.Debounce != 100*time.Millisecond {
		t.Errorf("Journey.Debounce = %v, want %v", cfg.Journey.Debounce, 100*time.Millisecond)
	}
	if cfg.Viewport.MaxScale != 2.2 {
		t.Errorf("Viewport.MaxScale = %v, want 2.2", cfg.Viewport.MaxScale)
	}
}

func TestLoadConfig_ProjectFile(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(oldWd) }()

	if err := os.MkdirAll(ProjectConfigDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	configContent := `
journey:
  path: plans/home.yaml
  watch: true
chat:
  timeout: 45s
  thread_id: "42"
  model: accounting
viewport:
  min_scale: 0.5
  max_scale: 3
`
	configPath := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Journey.Path != "plans/home.yaml" {
		t.Errorf("Journey.Path = %q, want %q", cfg.Journey.Path, "plans/home.yaml")
	}
	if !cfg.Journey.Watch {
		t.Error("Journey.Watch = false, want true")
	}
	if cfg.Chat.Timeout != 45*time.Second {
		t.Errorf("Chat.Timeout = %v, want %v", cfg.Chat.Timeout, 45*time.Second)
	}
	if cfg.Chat.ThreadID != "42" {
		t.Errorf("Chat.ThreadID = %q, want %q", cfg.Chat.ThreadID, "42")
	}
	if cfg.Chat.Model != "accounting" {
		t.Errorf("Chat.Model = %q, want %q", cfg.Chat.Model, "accounting")
	}
	if cfg.Viewport.MinScale != 0.5 || cfg.Viewport.MaxScale != 3 {
		t.Errorf("Viewport = %+v, want 0.5..3", cfg.Viewport)
	}
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
export:
  format: png
paths:
  log: /tmp/finroad-test.log
`
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	v.Set("config", configPath)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Export.Format != "png" {
		t.Errorf("Export.Format = %q, want %q", cfg.Export.Format, "png")
	}
	if cfg.Paths.Log != "/tmp/finroad-test.log" {
		t.Errorf("Paths.Log = %q, want %q", cfg.Paths.Log, "/tmp/finroad-test.log")
	}
}

func TestLoadConfig_ExplicitFileMissing(t *testing.T) {
	v := viper.New()
	v.Set("config", "/nonexistent/path/config.yaml")

	_, err := LoadConfig(v)
	if err == nil {
		t.Error("LoadConfig should fail for missing explicit config")
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("chat:\n  model: oracle\n"), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	v.Set("config", configPath)

	_, err := LoadConfig(v)
	if err == nil || !strings.Contains(err.Error(), "oracle") {
		t.Errorf("LoadConfig error = %v, want unknown model", err)
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() { _ = os.Chdir(oldWd) }()

	if err := os.MkdirAll(ProjectConfigDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	configContent := `
chat:
  base_url: "http://from-file.test/api"
`
	configPath := filepath.Join(ProjectConfigDir, ProjectConfigFile)
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	t.Setenv("FINROAD_CHAT_BASE_URL", "http://from-env.test/api")

	v := viper.New()
	v.SetEnvPrefix("FINROAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Chat.BaseURL != "http://from-env.test/api" {
		t.Errorf("Chat.BaseURL = %q, want %q", cfg.Chat.BaseURL, "http://from-env.test/api")
	}
}

func TestLoadConfig_DurationParsing(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name    string
		yaml    string
		wantDur time.Duration
		field   string
	}{
		{
			name:    "seconds",
			yaml:    "chat:\n  timeout: 30s",
			wantDur: 30 * time.Second,
			field:   "chat.timeout",
		},
		{
			name:    "minutes",
			yaml:    "chat:\n  timeout: 2m",
			wantDur: 2 * time.Minute,
			field:   "chat.timeout",
		},
		{
			name:    "milliseconds",
			yaml:    "journey:\n  debounce: 250ms",
			wantDur: 250 * time.Millisecond,
			field:   "journey.debounce",
		},
		{
			name:    "combined",
			yaml:    "chat:\n  timeout: 1m30s",
			wantDur: 90 * time.Second,
			field:   "chat.timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tmpDir, tt.name+".yaml")
			if err := os.WriteFile(configPath, []byte(tt.yaml), 0644); err != nil {
				t.Fatalf("write config failed: %v", err)
			}

			v := viper.New()
			v.Set("config", configPath)

			cfg, err := LoadConfig(v)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}

			var got time.Duration
			switch tt.field {
			case "chat.timeout":
				got = cfg.Chat.Timeout
			case "journey.debounce":
				got = cfg.Journey.Debounce
			}

			if got != tt.wantDur {
				t.Errorf("got %v, want %v", got, tt.wantDur)
			}
		})
	}
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
chat:
  timeout: 5s
# Everything else keeps its default
`
	configPath := filepath.Join(tmpDir, "partial.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	v.Set("config", configPath)

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Chat.Timeout != 5*time.Second {
		t.Errorf("Chat.Timeout = %v, want %v", cfg.Chat.Timeout, 5*time.Second)
	}
	if cfg.Chat.BaseURL != DefaultChatBaseURL {
		t.Errorf("Chat.BaseURL = %q, want %q (default)", cfg.Chat.BaseURL, DefaultChatBaseURL)
	}
	if cfg.Paths.Log != ".finroad/finroad.log" {
		t.Errorf("Paths.Log = %q, want %q (default)", cfg.Paths.Log, ".finroad/finroad.log")
	}
}

func TestGlobalConfigPath(t *testing.T) {
	path := globalConfigPath()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("globalConfigPath returned %q but file doesn't exist", path)
		}
	}
}

func TestGlobalConfigPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := globalConfigPath(); got != "" {
		t.Errorf("globalConfigPath = %q, want empty without a file", got)
	}

	want := filepath.Join(dir, GlobalConfigDir, GlobalConfigFile)
	if err := os.MkdirAll(filepath.Dir(want), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(want, []byte("export:\n  format: png\n"), 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	if got := globalConfigPath(); got != want {
		t.Errorf("globalConfigPath = %q, want %q", got, want)
	}
}

func TestProjectConfigPath(t *testing.T) {
	path := projectConfigPath()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("projectConfigPath returned %q but file doesn't exist", path)
		}
	}
}

func TestMarshal_LoadsBack(t *testing.T) {
	cfg := Default()
	cfg.Chat.Timeout = 45 * time.Second
	cfg.Export.Format = "png"

	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "timeout: 45s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}

	v := viper.New()
	v.Set("config", configPath)
	got, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if got.Chat.Timeout != 45*time.Second || got.Export.Format != "png" {
		t.Errorf("loaded %+v / %+v, want the marshalled values", got.Chat, got.Export)
	}
}
