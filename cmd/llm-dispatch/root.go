package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/upb/llm-dispatch/config"
	"github.com/upb/llm-dispatch/internal/observability"
	"go.uber.org/zap"
)

// rootOptions holds flags shared by every subcommand
type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "llm-dispatch",
		Short: "Send prompts to OpenAI, Anthropic or Google with retries",
		Long: `llm-dispatch forwards a single user message to the LLM provider named
by a tag (openai, anthropic, google) and returns the reply text. Failed
attempts are retried with a constant delay.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format override (json, console)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSendCmd(opts))
	cmd.AddCommand(newProvidersCmd(opts))

	return cmd
}

// load reads configuration and builds the logger, applying flag overrides
func (o *rootOptions) load(ctx context.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.New(ctx)
	if err != nil {
		return nil, nil, err
	}

	if o.logLevel != "" {
		cfg.Observability.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Observability.LogFormat = o.logFormat
	}

	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, logger, nil
}
