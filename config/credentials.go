package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const keyringService = "pharmascribe"

// ErrNoAPIKey is returned when neither the environment nor the keyring
// holds a key for a provider that needs one.
var ErrNoAPIKey = errors.New("no API key configured")

var apiKeyEnvVars = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// RequiresAPIKey reports whether the provider authenticates with an API key.
func RequiresAPIKey(providerID string) bool {
	_, ok := apiKeyEnvVars[providerID]
	return ok
}

// ResolveAPIKey returns the API key for providerID. The provider's
// environment variable wins over the OS keyring.
func ResolveAPIKey(providerID string) (string, error) {
	envVar, ok := apiKeyEnvVars[providerID]
	if !ok {
		return "", nil
	}

	if key := strings.TrimSpace(os.Getenv(envVar)); key != "" {
		return key, nil
	}

	key, err := keyring.Get(keyringService, providerID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w for %s: set %s or run `pharmascribe config set-key %s`",
				ErrNoAPIKey, providerID, envVar, providerID)
		}
		return "", fmt.Errorf("read %s key from keyring: %w", providerID, err)
	}
	return key, nil
}

// StoreAPIKey saves the key for providerID in the OS keyring.
func StoreAPIKey(providerID, key string) error {
	if !RequiresAPIKey(providerID) {
		return fmt.Errorf("provider %q does not use an API key", providerID)
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("API key for %s cannot be empty", providerID)
	}
	if err := keyring.Set(keyringService, providerID, trimmed); err != nil {
		return fmt.Errorf("store %s key: %w", providerID, err)
	}
	return nil
}

// DeleteAPIKey removes the stored key for providerID. Missing keys are not an error.
func DeleteAPIKey(providerID string) error {
	if err := keyring.Delete(keyringService, providerID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete %s key: %w", providerID, err)
	}
	return nil
}
