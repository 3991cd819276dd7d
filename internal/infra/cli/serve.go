package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"peptrack_reminders/internal/infra/config"
	"peptrack_reminders/internal/infra/logger"
	"peptrack_reminders/internal/infra/rpc"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule backend over JSON-RPC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			addr := listen
			if addr == "" {
				addr = cfg.RPCListen
			}
			if addr == "" {
				addr = config.DefaultRPCListen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, closeStore, err := openLocalBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			srv := rpc.NewServer(svc, cfg.RPCSecret, logger.Entry())
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (default RPC_LISTEN or "+config.DefaultRPCListen+")")
	return cmd
}
