package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/llm-dispatch/app"
	"go.uber.org/zap"
)

type sendOptions struct {
	provider string
	model    string
}

func newSendCmd(root *rootOptions) *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send [message...]",
		Short: "Send one message to a provider and print the reply",
		Long: `Send one user message to the provider named by --provider and print the
reply text. Use "-" as the message to read it from stdin.`,
		Example: `  llm-dispatch send --provider openai --model gpt-4o-mini "Hello"
  echo "Hello" | llm-dispatch send --provider anthropic --model claude-3-5-haiku-latest -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, err := readMessage(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runSend(cmd.Context(), root, opts, message, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.provider, "provider", "p", "", "provider tag: openai, anthropic or google")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model identifier passed to the provider")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("model")

	return cmd
}

func readMessage(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read message from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	return strings.Join(args, " "), nil
}

func runSend(ctx context.Context, root *rootOptions, opts *sendOptions, message string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := root.load(ctx)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Error("failed to close dependencies", zap.Error(err))
		}
	}()

	text, err := deps.Dispatcher.SendLLMRequest(ctx, opts.provider, opts.model, message)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, text)
	return err
}
