package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaymesh/relay/internal/app"
	"github.com/relaymesh/relay/internal/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway, workers, scheduler and watchers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runtime, err := app.NewRuntime(ctx, config.FromEnv())
			if err != nil {
				return err
			}
			defer runtime.Close()

			return runtime.Run(ctx)
		},
	}
}
