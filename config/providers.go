package config

import (
	"fmt"
	"strconv"
	"strings"
)

// UpdateSetting changes one key of <dataDir>/config.toml, addressed as
// "table.key" (for example "provider.model" or "agent.max_turns"), and saves
// the file. Switching provider.type clears the model and base URL, which
// belong to the previous backend.
func UpdateSetting(dataDir, key, value string) error {
	cfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := applySetting(cfg, key, strings.TrimSpace(value)); err != nil {
		return err
	}

	if err := SaveUserConfig(cfg, dataDir); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	DebugLog.Sugar().Infof("[Config] %s updated", key)
	return nil
}

func applySetting(cfg *UserConfig, key, value string) error {
	switch key {
	case "provider.type":
		id := strings.ToLower(value)
		if !supportedProviders[id] {
			return fmt.Errorf("unsupported provider type: %q", value)
		}
		if id != cfg.Provider.Type {
			cfg.Provider.Type = id
			cfg.Provider.Model = ""
			cfg.Provider.BaseURL = ""
		}
	case "provider.base_url":
		cfg.Provider.BaseURL = value
	case "provider.model":
		cfg.Provider.Model = value
	case "provider.max_tokens":
		return setInt(&cfg.Provider.MaxTokens, key, value, 1, 1<<20)
	case "thinking.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		cfg.Thinking.Enabled = b
	case "thinking.budget_tokens":
		return setInt(&cfg.Thinking.BudgetTokens, key, value, 1024, 1<<20)
	case "agent.max_turns":
		return setInt(&cfg.Agent.MaxTurns, key, value, 1, 100)
	case "agent.max_parallel_tools":
		return setInt(&cfg.Agent.MaxParallelTools, key, value, 1, 32)
	case "agent.history_window":
		return setInt(&cfg.Agent.HistoryWindow, key, value, 1, 100)
	case "memory.ttl_days":
		return setInt(&cfg.Memory.TTLDays, key, value, 1, 3650)
	case "memory.default_importance":
		return setInt(&cfg.Memory.DefaultImportance, key, value, 1, 10)
	case "memory.recall_min_importance":
		return setInt(&cfg.Memory.RecallMinImportance, key, value, 1, 10)
	case "memory.recall_limit":
		return setInt(&cfg.Memory.RecallLimit, key, value, 1, 1000)
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string, lo, hi int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be a number, got %q", key, value)
	}
	if n < lo || n > hi {
		return fmt.Errorf("%s must be within %d..%d, got %d", key, lo, hi, n)
	}
	*dst = n
	return nil
}
