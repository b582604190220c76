package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, v := range []string{
		"PHARMASCRIBE_SETTINGS", "PHARMASCRIBE_DATA_DIR", "PHARMASCRIBE_PROVIDER",
		"PHARMASCRIBE_MODEL", "PHARMASCRIBE_BASE_URL", "PHARMASCRIBE_MAX_TURNS",
	} {
		t.Setenv(v, "")
	}
	return home
}

func TestLoadCreatesDefaults(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".local", "share", "pharmascribe"), cfg.DataDir())
	assert.Equal(t, "anthropic", cfg.Provider.Type)
	assert.Equal(t, DefaultModel, cfg.Provider.Model)
	assert.Equal(t, 20, cfg.Agent.MaxTurns)
	assert.Equal(t, 4, cfg.Agent.MaxParallelTools)
	assert.Equal(t, 10, cfg.Agent.HistoryWindow)
	assert.True(t, cfg.Thinking.Enabled)
	assert.Equal(t, 90, cfg.Memory.TTLDays)

	assert.FileExists(t, filepath.Join(home, ".config", "pharmascribe", "settings.toml"))
	assert.FileExists(t, filepath.Join(cfg.DataDir(), "config.toml"))

	info, err := os.Stat(cfg.DataDir())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestLoadUserConfigOverridesDefaults(t *testing.T) {
	isolateEnv(t)
	dataDir := t.TempDir()
	t.Setenv("PHARMASCRIBE_DATA_DIR", dataDir)

	content := `
[provider]
type = "ollama"
model = "qwen3:8b"
max_tokens = 8000

[agent]
max_turns = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "config.toml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider.Type)
	assert.Equal(t, "qwen3:8b", cfg.Provider.Model)
	assert.Equal(t, 5, cfg.Agent.MaxTurns)
	// keys absent from the file keep defaults
	assert.Equal(t, 4, cfg.Agent.MaxParallelTools)
	assert.Equal(t, 7, cfg.Memory.DefaultImportance)
}

func TestEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("PHARMASCRIBE_DATA_DIR", t.TempDir())
	t.Setenv("PHARMASCRIBE_PROVIDER", "OpenAI")
	t.Setenv("PHARMASCRIBE_MAX_TURNS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Type)
	assert.Empty(t, cfg.Provider.Model, "model of the previous backend must not leak")
	assert.Equal(t, 3, cfg.Agent.MaxTurns)
}

func TestThinkingDisabledWhenBudgetDoesNotFit(t *testing.T) {
	cfg := &Config{
		Provider: ProviderConfig{Type: "anthropic", MaxTokens: 4000},
		Thinking: ThinkingConfig{Enabled: true, BudgetTokens: 10000},
		Agent:    AgentConfig{MaxTurns: 20, MaxParallelTools: 4},
	}
	cfg.normalize()

	assert.False(t, cfg.Thinking.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Provider: ProviderConfig{Type: "anthropic"},
			Agent:    AgentConfig{MaxTurns: 20, MaxParallelTools: 4},
			Memory:   MemoryConfig{DefaultImportance: 7, RecallMinImportance: 5},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider.Type = "bard" }, wantErr: "unsupported provider type"},
		{name: "zero turns", mutate: func(c *Config) { c.Agent.MaxTurns = 0 }, wantErr: "max_turns"},
		{name: "zero parallelism", mutate: func(c *Config) { c.Agent.MaxParallelTools = 0 }, wantErr: "max_parallel_tools"},
		{name: "importance out of range", mutate: func(c *Config) { c.Memory.DefaultImportance = 11 }, wantErr: "default_importance"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestResolveAPIKeyPrefersEnvironment(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "  sk-ant-test  ")

	key, err := ResolveAPIKey("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-test", key)

	key, err = ResolveAPIKey("ollama")
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.False(t, RequiresAPIKey("ollama"))
}

func TestExpandPath(t *testing.T) {
	home := isolateEnv(t)
	assert.Equal(t, filepath.Join(home, "reports"), ExpandPath("~/reports"))
	assert.Equal(t, "", ExpandPath(""))
}

func TestUpdateSetting(t *testing.T) {
	dataDir := t.TempDir()

	require.NoError(t, UpdateSetting(dataDir, "agent.max_turns", "12"))
	require.NoError(t, UpdateSetting(dataDir, "provider.model", "claude-opus-4-1"))
	require.NoError(t, UpdateSetting(dataDir, "thinking.enabled", "false"))

	cfg, err := LoadUserConfig(dataDir)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Agent.MaxTurns)
	assert.Equal(t, "claude-opus-4-1", cfg.Provider.Model)
	assert.False(t, cfg.Thinking.Enabled)

	require.NoError(t, UpdateSetting(dataDir, "provider.type", "Ollama"))
	cfg, err = LoadUserConfig(dataDir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.Provider.Type)
	assert.Empty(t, cfg.Provider.Model, "model of the previous provider is cleared")
}

func TestUpdateSettingRejectsBadValues(t *testing.T) {
	dataDir := t.TempDir()

	tests := []struct {
		key, value, want string
	}{
		{"agent.max_turns", "0", "within 1..100"},
		{"agent.max_turns", "many", "must be a number"},
		{"memory.default_importance", "11", "within 1..10"},
		{"thinking.enabled", "maybe", "true or false"},
		{"provider.type", "gemini", "unsupported provider type"},
		{"agent.colour", "blue", "unknown setting"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := UpdateSetting(dataDir, tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
