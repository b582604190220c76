// Package provider implements model.Provider for the supported language
// model services.
//
// Each implementation converts the provider-agnostic transcript in the model
// package to its SDK's message types and back:
//   - AnthropicProvider: Anthropic Messages API, with extended thinking
//   - OpenAIProvider: OpenAI chat completions and compatible endpoints
//   - OllamaProvider: a local Ollama server
//
// NewProvider creates a provider from a Config; FromConfig resolves the
// configuration and credentials of the application.
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama    ProviderType = "ollama"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
