// Package config provides centralized configuration management using Viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration values for acai.
type Config struct {
	Provider    string   `mapstructure:"provider" yaml:"provider"`
	Model       string   `mapstructure:"model" yaml:"model"`
	Temperature float64  `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens" yaml:"max_tokens"`
	TopP        float64  `mapstructure:"top_p" yaml:"top_p"`
	StreamJSON  bool     `mapstructure:"stream_json" yaml:"stream_json"`
	Tools       []string `mapstructure:"tools" yaml:"tools"`
	ToolTimeout int      `mapstructure:"tool_timeout" yaml:"tool_timeout"` // seconds
	MaxTurns    int      `mapstructure:"max_turns" yaml:"max_turns"`
	LogLevel    string   `mapstructure:"log_level" yaml:"log_level"`
	LogFile     string   `mapstructure:"log_file" yaml:"log_file"`
	DataDir     string   `mapstructure:"data_dir" yaml:"data_dir"`
}

// Load loads configuration with full precedence:
// CLI flags > ENV vars > project config > XDG global config > defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("acai")

	v.SetDefault("provider", "openai")
	v.SetDefault("model", "")
	v.SetDefault("temperature", 0.2)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("top_p", 0.0)
	v.SetDefault("stream_json", false)
	v.SetDefault("tools", []string{"shell"})
	v.SetDefault("tool_timeout", 60)
	v.SetDefault("max_turns", 50)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("data_dir", "")

	v.SetEnvPrefix("ACAI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Explicit ENV bindings for better bool/int parsing.
	for _, key := range []string{
		"provider", "model", "temperature", "max_tokens", "top_p",
		"stream_json", "tools", "tool_timeout", "max_turns",
		"log_level", "log_file", "data_dir",
	} {
		if err := v.BindEnv(key, "ACAI_"+strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	// Load global config first (if exists).
	globalPath := GlobalPath()
	if fileExists(globalPath) {
		v.SetConfigFile(globalPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading global config: %w", err)
		}
	}

	// Merge project config on top (if exists).
	projectPath := ProjectPath()
	if fileExists(projectPath) {
		v.SetConfigFile(projectPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns the XDG global config path.
// Returns $XDG_CONFIG_HOME/acai/acai.yml or ~/.config/acai/acai.yml.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "acai", "acai.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "acai", "acai.yml")
}

// ProjectPath returns the project-local config path in the current working
// directory.
func ProjectPath() string {
	return "acai.yml"
}

// Save writes the config to the global config path, creating directories as
// needed.
func (c *Config) Save() error {
	path := GlobalPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
