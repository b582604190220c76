package config

const (
	DefaultProviderType   = "anthropic"
	DefaultModel          = "claude-sonnet-4-5-20250929"
	DefaultMaxTokens      = 16000
	DefaultThinkingBudget = 10000
	DefaultMaxTurns       = 20
	DefaultParallelTools  = 4
	DefaultHistoryWindow  = 10

	DefaultMemoryTTLDays       = 90
	DefaultMemoryImportance    = 7
	DefaultRecallMinImportance = 5
	DefaultRecallLimit         = 20
)

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/pharmascribe",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Provider: ProviderConfig{
			Type:      DefaultProviderType,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Thinking: ThinkingConfig{
			Enabled:      true,
			BudgetTokens: DefaultThinkingBudget,
		},
		Agent: AgentConfig{
			MaxTurns:         DefaultMaxTurns,
			MaxParallelTools: DefaultParallelTools,
			HistoryWindow:    DefaultHistoryWindow,
		},
		Memory: MemoryConfig{
			TTLDays:             DefaultMemoryTTLDays,
			DefaultImportance:   DefaultMemoryImportance,
			RecallMinImportance: DefaultRecallMinImportance,
			RecallLimit:         DefaultRecallLimit,
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Pharmascribe System Configuration
# Location: ~/.config/pharmascribe/settings.toml
# This file uses TOML format: https://toml.io

# Directory where reports, agent memory and user config are stored
data_directory = "~/.local/share/pharmascribe"
`
}

func GenerateUserConfigTemplate() string {
	return `# Pharmascribe User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

[provider]
# Language model backend: "anthropic", "openai" or "ollama"
type = "anthropic"

# Optional API base URL override (OpenAI-compatible gateways, remote Ollama)
base_url = ""

model = "claude-sonnet-4-5-20250929"

# Upper bound on tokens generated per model call
max_tokens = 16000

[thinking]
# Extended thinking is requested when the backend supports it.
# budget_tokens must stay below provider.max_tokens.
enabled = true
budget_tokens = 10000

[agent]
# Hard cap on model calls per request
max_turns = 20

# Tool invocations from one model turn that may run at the same time
max_parallel_tools = 4

# Conversation turns included in each prompt
history_window = 10

[memory]
ttl_days = 90
default_importance = 7
recall_min_importance = 5
recall_limit = 20
`
}
