// Package actions holds what the CLI commands share: building the provider
// from the root flags.
package actions

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/PiotrWarzachowski/go-anonymizer/client"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/config"
	"github.com/PiotrWarzachowski/go-anonymizer/internal/logging"
	"github.com/PiotrWarzachowski/go-anonymizer/providers"
)

// Root flag names, read from any subcommand.
const (
	ConfigFlag = "config"
	DebugFlag  = "debug"
)

// NewProvider loads the config named by --config, builds a logger honouring
// --debug and tagged with the command name, and returns a provider with the stored session restored.
func NewProvider(cmd *cli.Command, opts ...client.Option) (*providers.JobProvider, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	base, err := logging.NewLogger(cmd.Bool(DebugFlag))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger := operationLogger(base, cmd)

	provider, err := providers.NewJobProvider(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return provider, logger, nil
}

// operationLogger scopes base to this invocation of cmd.
func operationLogger(base *zap.Logger, cmd *cli.Command) *zap.Logger {
	return logging.WithOperation(base, cmd.FullName(), uuid.NewString())
}

// loadConfig loads the config named by --config.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.String(ConfigFlag))
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
