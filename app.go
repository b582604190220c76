package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/agent"
	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/prompt"
	"github.com/husain-clintel/Pharmascribe-sub000/provider"
	"github.com/husain-clintel/Pharmascribe-sub000/storage"
	"github.com/husain-clintel/Pharmascribe-sub000/tools"
)

var errProviderUnreachable = errors.New("provider unreachable")

const pingTimeout = 30 * time.Second

// app owns the process-wide collaborators. Commands open it once and close
// it on exit.
type app struct {
	cfg           *config.Config
	memory        *storage.MemoryStorage
	reports       *storage.ReportStorage
	conversations *storage.ConversationStorage
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.InitDebugLog(cfg.DataDir())

	a := &app{cfg: cfg}
	if a.memory, err = storage.NewMemoryStorage(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}
	if a.reports, err = storage.NewReportStorage(cfg.DataDir()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}
	if a.conversations, err = storage.NewConversationStorage(cfg.DataDir()); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open conversation store: %w", err)
	}
	return a, nil
}

func (a *app) Close() {
	var errs []error
	if a.memory != nil {
		errs = append(errs, a.memory.Close())
	}
	if a.reports != nil {
		errs = append(errs, a.reports.Close())
	}
	if err := errors.Join(errs...); err != nil {
		config.DebugLog.Warn("[App] failed to close stores", zap.Error(err))
	}
}

func (a *app) registry() *tools.Registry {
	return tools.NewDefaultRegistry(tools.Deps{
		Memory: a.memory,
		MemoryDefaults: tools.MemoryDefaults{
			TTLDays:             a.cfg.Memory.TTLDays,
			DefaultImportance:   a.cfg.Memory.DefaultImportance,
			RecallMinImportance: a.cfg.Memory.RecallMinImportance,
			RecallLimit:         a.cfg.Memory.RecallLimit,
		},
	})
}

func (a *app) service(p model.Provider) *agent.Service {
	controller := agent.NewController(p, a.registry(), agent.Config{
		MaxTurns:         a.cfg.Agent.MaxTurns,
		MaxParallelTools: a.cfg.Agent.MaxParallelTools,
		ThinkingEnabled:  a.cfg.Thinking.Enabled,
		ThinkingBudget:   a.cfg.Thinking.BudgetTokens,
		MaxTokens:        a.cfg.Provider.MaxTokens,
		SystemPrompt:     prompt.SystemPrompt,
	})
	return agent.NewService(controller, a.cfg.Agent.HistoryWindow)
}

func (a *app) newProvider() (model.Provider, error) {
	return provider.FromConfig(a.cfg)
}

// prepareProvider switches to modelName when one is given and checks that
// the provider answers before any work is sent to it.
func prepareProvider(ctx context.Context, p model.Provider, modelName string) error {
	if modelName != "" {
		p.SetModel(modelName)
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		config.DebugLog.Warn("[App] provider ping failed", zap.String("model", p.GetModel()), zap.Error(err))
		return fmt.Errorf("%w (model %s): %v", errProviderUnreachable, p.GetModel(), err)
	}
	config.DebugLog.Debug("[App] provider reachable", zap.String("model", p.GetModel()))
	return nil
}
