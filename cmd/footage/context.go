package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"footage/internal/config"
	"footage/internal/ledger"
	"footage/internal/logging"
	"footage/internal/metadata"
	"footage/internal/services"
)

// providerFactory builds the metadata provider for one run.
type providerFactory func(cfg *config.Config, logger *slog.Logger) metadata.Provider

func defaultProviderFactory(cfg *config.Config, logger *slog.Logger) metadata.Provider {
	return metadata.NewToolProvider(cfg, logger)
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool
	providers    providerFactory
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool, providers providerFactory) *commandContext {
	if providers == nil {
		providers = defaultProviderFactory
	}
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
		providers:    providers,
	}
}

// configOverride applies a command-line flag on top of the file values.
type configOverride func(cfg *config.Config) error

// loadConfig reads the config file, applies flag overrides, then validates.
// The returned config is treated as immutable for the rest of the command.
func (c *commandContext) loadConfig(overrides ...configOverride) (*config.Config, error) {
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolved, _, err := config.Read(path)
	if err != nil {
		return nil, err
	}
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
	}
	for _, override := range overrides {
		if err := override(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "config", "validate", resolved, err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) JSONMode() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.NewFromConfig(cfg, shouldColorize(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return logger, nil
}

func (c *commandContext) newProvider(cfg *config.Config, logger *slog.Logger) metadata.Provider {
	return c.providers(cfg, logger)
}

func closeProvider(provider metadata.Provider, logger *slog.Logger) {
	closer, ok := provider.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Debug("metadata provider close failed", logging.Error(err))
	}
}

// openLedger opens the run journal. Failure is logged and a nil store is
// returned so the run itself still proceeds.
func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) *ledger.Store {
	store, err := ledger.Open(ctx, cfg.LedgerPath())
	if err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_open_failed",
			logging.Path(cfg.LedgerPath()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.state_dir permissions"),
			logging.String(logging.FieldImpact, "this run will not appear in footage history"))
		return nil
	}
	return store
}
