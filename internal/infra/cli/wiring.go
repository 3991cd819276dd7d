package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"peptrack_reminders/internal/app"
	"peptrack_reminders/internal/domain/notification"
	"peptrack_reminders/internal/infra/clock"
	"peptrack_reminders/internal/infra/config"
	idb "peptrack_reminders/internal/infra/database"
	"peptrack_reminders/internal/infra/desktop"
	"peptrack_reminders/internal/infra/logger"
	"peptrack_reminders/internal/infra/rpc"
	"peptrack_reminders/internal/infra/scheduler"
	"peptrack_reminders/internal/infra/telegram"
	"peptrack_reminders/internal/infra/toast"

	"gopkg.in/telebot.v3"
)

const rpcClientTimeout = 10 * time.Second

// loadConfig reads configuration and initialises the global logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	return cfg, nil
}

// openLocalBackend opens the schedule store and the service on top of it.
func openLocalBackend(ctx context.Context, cfg *config.AppConfig) (*app.ScheduleService, func(), error) {
	db, err := idb.NewConnection(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to database: %w", err)
	}
	repo, err := idb.NewScheduleRepository(ctx, db, cfg.DatabaseDriver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("could not prepare schedule store: %w", err)
	}
	svc := app.NewScheduleService(repo, clock.Real{}, cfg.Location, cfg.DueWindow, logger.Entry())
	return svc, func() { db.Close() }, nil
}

// openBackend returns the reminder source selected by GATEWAY.
func openBackend(ctx context.Context, cfg *config.AppConfig) (rpc.Backend, func(), error) {
	if cfg.Gateway == config.GatewayRPC {
		gw := rpc.NewGateway(cfg.RPCURL, cfg.RPCSecret, rpcClientTimeout)
		return gw, func() { gw.Close() }, nil
	}
	return openLocalBackend(ctx, cfg)
}

// nativeChannel builds the configured native notifier. When it cannot be
// built the service keeps running on toasts alone.
func nativeChannel(cfg *config.AppConfig) (notification.Notifier, *telebot.Bot, func()) {
	log := logger.Component("cli")
	switch cfg.NativeChannel {
	case config.ChannelDesktop:
		n, err := desktop.NewNotifier("", 0, logger.Entry())
		if err != nil {
			log.WithError(err).Warn("Desktop notifications unavailable, using in-app toasts only")
			return nil, nil, func() {}
		}
		return n, nil, func() { n.Close() }
	case config.ChannelTelegram:
		bot, err := telegram.NewBot(cfg.TelegramToken, logger.Component("telebot"))
		if err != nil {
			log.WithError(err).Warn("Telegram notifications unavailable, using in-app toasts only")
			return nil, nil, func() {}
		}
		return telegram.NewNotifier(bot, cfg.TelegramChatID, logger.Entry()), bot, func() {}
	default:
		return nil, nil, func() {}
	}
}

// newScheduler assembles dispatcher, tracker and scheduler.
func newScheduler(cfg *config.AppConfig, gateway rpc.Backend, native notification.Notifier, out io.Writer) *scheduler.ReminderScheduler {
	dispatcher := app.NewNotificationDispatcher(native, toast.NewTerminal(out), cfg.ToastWithNative, logger.Entry())
	tracker := app.NewDedupTracker(clock.Real{}, app.DefaultDedupRetention)
	return scheduler.NewReminderScheduler(gateway, dispatcher, tracker, scheduler.Options{
		CheckInterval: cfg.CheckInterval,
		Enabled:       cfg.RemindersEnabled,
	}, logger.Entry())
}
