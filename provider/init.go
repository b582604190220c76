package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// FromConfig creates the provider selected in cfg, loading its API key from
// the environment or the OS keyring.
func FromConfig(cfg *config.Config) (model.Provider, error) {
	id := cfg.Provider.Type

	var apiKey string
	if config.RequiresAPIKey(id) {
		key, err := config.ResolveAPIKey(id)
		if err != nil {
			return nil, err
		}
		apiKey = key
	}

	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(id),
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize provider %s: %w", id, err)
	}

	config.DebugLog.Info("[Provider] initialized", zap.String("provider", id), zap.String("model", p.GetModel()))
	return p, nil
}
