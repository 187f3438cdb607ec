package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/upb/llm-dispatch/app"
)

func newProvidersCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List providers with credentials configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProviders(cmd.Context(), root, cmd.OutOrStdout())
		},
	}
}

func runProviders(ctx context.Context, root *rootOptions, out io.Writer) error {
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
	defer deps.Close(context.Background())

	names := deps.Dispatcher.Providers()
	if len(names) == 0 {
		_, err = fmt.Fprintln(out, "no providers configured")
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}
