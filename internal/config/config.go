// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ashkett/quill/internal/logger"
)

// Config holds the application's combined configuration. It is an
// explicitly-owned object handed to whichever component needs it; nothing in
// the editing core reads ambient global state.
type Config struct {
	Logger logger.Config `toml:"logger"`
	Editor EditorConfig  `toml:"editor"`
	AI     AIConfig      `toml:"ai"`
}

// EditorConfig holds editor-specific settings.
type EditorConfig struct {
	SystemClipboard bool `toml:"system_clipboard"`
	MaxHistory      int  `toml:"max_history"`
}

// AIConfig configures the code-suggestion client.
type AIConfig struct {
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"` // env var holding the key; OPENAI_API_KEY when empty
	BaseURL   string `toml:"base_url"`
}

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			SystemClipboard: SystemClipboard,
			MaxHistory:      DefaultMaxHistory,
		},
		AI: AIConfig{
			Model: DefaultAIModel,
		},
	}
}

// DefaultConfigPath returns ~/.config/quill/config.toml, or "" when the user
// config dir cannot be determined.
func DefaultConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, AppName, DefaultConfigFileName)
}

// Load merges defaults, the TOML file at path (when it exists), and flag
// overrides, then validates the result.
func Load(path string, flags *Flags) (*Config, error) {
	cfg := NewDefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path != "" {
		if err := mergeFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if flags != nil {
		flags.ApplyOverrides(cfg)
	}

	cfg.validate()
	return cfg, nil
}

// mergeFromFile overlays settings from a TOML file. A missing file is fine.
func mergeFromFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", path, err)
	}

	fileCfg := &Config{}
	metadata, err := toml.DecodeFile(path, fileCfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	if len(metadata.Undecoded()) > 0 {
		logger.Warnf("Config file '%s': unrecognized keys: %v", path, metadata.Undecoded())
	}

	if fileCfg.Logger.LogLevel != "" {
		cfg.Logger.LogLevel = fileCfg.Logger.LogLevel
	}
	if fileCfg.Logger.LogFilePath != "" {
		cfg.Logger.LogFilePath = fileCfg.Logger.LogFilePath
	}
	if fileCfg.Editor.MaxHistory > 0 {
		cfg.Editor.MaxHistory = fileCfg.Editor.MaxHistory
	}
	cfg.Editor.SystemClipboard = fileCfg.Editor.SystemClipboard
	if fileCfg.AI.Model != "" {
		cfg.AI.Model = fileCfg.AI.Model
	}
	if fileCfg.AI.APIKeyEnv != "" {
		cfg.AI.APIKeyEnv = fileCfg.AI.APIKeyEnv
	}
	if fileCfg.AI.BaseURL != "" {
		cfg.AI.BaseURL = fileCfg.AI.BaseURL
	}
	return nil
}

// validate checks config values and resets invalid ones to defaults.
func (c *Config) validate() {
	if c.Editor.MaxHistory <= 0 {
		c.Editor.MaxHistory = DefaultMaxHistory
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = "info"
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultAIModel
	}
}
