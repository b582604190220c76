package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type SystemConfig struct {
	DataDirectory string `toml:"data_directory"`
}

type ProviderConfig struct {
	Type      string `toml:"type"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

type ThinkingConfig struct {
	Enabled      bool `toml:"enabled"`
	BudgetTokens int  `toml:"budget_tokens"`
}

type AgentConfig struct {
	MaxTurns         int `toml:"max_turns"`
	MaxParallelTools int `toml:"max_parallel_tools"`
	HistoryWindow    int `toml:"history_window"`
}

type MemoryConfig struct {
	TTLDays             int `toml:"ttl_days"`
	DefaultImportance   int `toml:"default_importance"`
	RecallMinImportance int `toml:"recall_min_importance"`
	RecallLimit         int `toml:"recall_limit"`
}

type UserConfig struct {
	Provider ProviderConfig `toml:"provider"`
	Thinking ThinkingConfig `toml:"thinking"`
	Agent    AgentConfig    `toml:"agent"`
	Memory   MemoryConfig   `toml:"memory"`
}

// Config is the resolved runtime configuration: system settings, user
// settings and environment overrides merged together.
type Config struct {
	DataDirectory string
	Provider      ProviderConfig
	Thinking      ThinkingConfig
	Agent         AgentConfig
	Memory        MemoryConfig
}

var supportedProviders = map[string]bool{
	"anthropic": true,
	"openai":    true,
	"ollama":    true,
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyUserConfig(u *UserConfig) {
	c.Provider = u.Provider
	c.Thinking = u.Thinking
	c.Agent = u.Agent
	c.Memory = u.Memory
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("PHARMASCRIBE_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if p := os.Getenv("PHARMASCRIBE_PROVIDER"); p != "" && strings.ToLower(p) != c.Provider.Type {
		// the configured model belongs to the previous backend
		c.Provider.Type = strings.ToLower(p)
		c.Provider.Model = ""
		c.Provider.BaseURL = ""
	}
	if m := os.Getenv("PHARMASCRIBE_MODEL"); m != "" {
		c.Provider.Model = m
	}
	if u := os.Getenv("PHARMASCRIBE_BASE_URL"); u != "" {
		c.Provider.BaseURL = u
	}
	if v := os.Getenv("PHARMASCRIBE_MAX_TURNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Agent.MaxTurns = n
		} else {
			DebugLog.Sugar().Warnf("[Config] ignoring PHARMASCRIBE_MAX_TURNS=%q: %v", v, err)
		}
	}
}

// normalize fills zero values with defaults and turns thinking off when its
// budget cannot fit inside the generation limit.
func (c *Config) normalize() {
	d := DefaultUserConfig()
	if c.Provider.Type == "" {
		c.Provider.Type = d.Provider.Type
	}
	if c.Provider.Model == "" && c.Provider.Type == DefaultProviderType {
		c.Provider.Model = d.Provider.Model
	}
	if c.Provider.MaxTokens <= 0 {
		c.Provider.MaxTokens = d.Provider.MaxTokens
	}
	if c.Thinking.BudgetTokens <= 0 {
		c.Thinking.BudgetTokens = d.Thinking.BudgetTokens
	}
	if c.Agent.HistoryWindow <= 0 {
		c.Agent.HistoryWindow = d.Agent.HistoryWindow
	}
	if c.Memory.TTLDays <= 0 {
		c.Memory.TTLDays = d.Memory.TTLDays
	}
	if c.Memory.DefaultImportance == 0 {
		c.Memory.DefaultImportance = d.Memory.DefaultImportance
	}
	if c.Memory.RecallMinImportance == 0 {
		c.Memory.RecallMinImportance = d.Memory.RecallMinImportance
	}
	if c.Memory.RecallLimit <= 0 {
		c.Memory.RecallLimit = d.Memory.RecallLimit
	}

	if c.Thinking.Enabled && c.Thinking.BudgetTokens >= c.Provider.MaxTokens {
		DebugLog.Sugar().Warnf("[Config] thinking budget %d does not fit max_tokens %d, disabling extended thinking",
			c.Thinking.BudgetTokens, c.Provider.MaxTokens)
		c.Thinking.Enabled = false
	}
}

// Validate reports the first setting that the agent cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if !supportedProviders[c.Provider.Type] {
		errs = append(errs, fmt.Errorf("unsupported provider type: %q", c.Provider.Type))
	}
	if c.Agent.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("agent.max_turns must be at least 1, got %d", c.Agent.MaxTurns))
	}
	if c.Agent.MaxParallelTools < 1 {
		errs = append(errs, fmt.Errorf("agent.max_parallel_tools must be at least 1, got %d", c.Agent.MaxParallelTools))
	}
	if c.Memory.DefaultImportance < 1 || c.Memory.DefaultImportance > 10 {
		errs = append(errs, fmt.Errorf("memory.default_importance must be within 1..10, got %d", c.Memory.DefaultImportance))
	}
	if c.Memory.RecallMinImportance < 1 || c.Memory.RecallMinImportance > 10 {
		errs = append(errs, fmt.Errorf("memory.recall_min_importance must be within 1..10, got %d", c.Memory.RecallMinImportance))
	}
	return errors.Join(errs...)
}

// Load reads settings.toml and the user config.toml (creating both from
// templates on first run), applies PHARMASCRIBE_* environment overrides and
// makes sure the data directory exists with user-only permissions.
func Load() (*Config, error) {
	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := &Config{DataDirectory: systemCfg.DataDirectory}
	if dataDir := os.Getenv("PHARMASCRIBE_DATA_DIR"); dataDir != "" {
		cfg.DataDirectory = dataDir
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = GetDefaultDataDir()
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
