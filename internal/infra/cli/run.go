package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"peptrack_reminders/internal/infra/config"
	"peptrack_reminders/internal/infra/logger"
	"peptrack_reminders/internal/infra/rpc"
	"peptrack_reminders/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reminder service until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runService(ctx, cmd, cfg)
		},
	}
}

func runService(ctx context.Context, cmd *cobra.Command, cfg *config.AppConfig) error {
	log := logger.Component("cli")
	log.WithFields(logrus.Fields{
		"environment":    cfg.Environment,
		"gateway":        cfg.Gateway,
		"native_channel": cfg.NativeChannel,
		"check_interval": cfg.CheckInterval.String(),
		"enabled":        cfg.RemindersEnabled,
	}).Info("Reminder service starting")

	if cfg.RPCListen != "" && cfg.Gateway != config.GatewayLocal {
		return fmt.Errorf("RPC_LISTEN requires GATEWAY=%s", config.GatewayLocal)
	}

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeBackend()

	native, bot, closeNative := nativeChannel(cfg)
	defer closeNative()

	sched := newScheduler(cfg, backend, native, cmd.OutOrStdout())
	defer sched.Stop()

	if cfg.RPCListen != "" {
		srv := rpc.NewServer(backend, cfg.RPCSecret, logger.Entry())
		go func() {
			if err := srv.ListenAndServe(cfg.RPCListen); err != nil {
				log.WithError(err).Error("RPC server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("RPC server shutdown")
			}
		}()
	}

	if bot != nil {
		cmds := telegram.NewCommands(sched, backend, cfg.Location)
		telegram.RegisterBotCommands(ctx, bot, cmds, cfg.TelegramChatID, logger.Component("telegram"))
		go bot.Start()
		defer bot.Stop()
	}

	sched.Start(ctx)
	log.Info("Reminder service running")

	<-ctx.Done()
	log.Info("Shutting down reminder service")
	return nil
}
