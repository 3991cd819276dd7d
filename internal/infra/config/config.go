package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Reminder source kinds.
const (
	GatewayLocal = "local"
	GatewayRPC   = "rpc"
)

// Native channel kinds.
const (
	ChannelDesktop  = "desktop"
	ChannelTelegram = "telegram"
	ChannelNone     = "none"
)

// DefaultRPCListen is used by `serve` when RPC_LISTEN is empty.
const DefaultRPCListen = "127.0.0.1:7420"

// AppConfig holds all configuration for the application
type AppConfig struct {
	LogLevel    string
	Environment string

	DatabaseDriver string
	DatabaseURL    string

	RemindersEnabled bool
	CheckInterval    time.Duration
	DueWindow        time.Duration
	TimezoneName     string
	Location         *time.Location

	Gateway   string
	RPCURL    string
	RPCListen string // empty disables the embedded RPC server in `run`
	RPCSecret string

	NativeChannel   string
	ToastWithNative bool
	TelegramToken   string
	TelegramChatID  int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	if cfg.DatabaseDriver != "sqlite" && cfg.DatabaseDriver != "postgres" {
		return nil, fmt.Errorf("invalid DATABASE_DRIVER %q: must be sqlite or postgres", cfg.DatabaseDriver)
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL", "peptrack-reminders.db")

	if cfg.RemindersEnabled, err = getBool("REMINDERS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.CheckInterval, err = getMinutes("REMINDER_CHECK_INTERVAL_MINUTES", 5); err != nil {
		return nil, err
	}
	if cfg.DueWindow, err = getMinutes("REMINDER_DUE_WINDOW_MINUTES", 15); err != nil {
		return nil, err
	}

	cfg.TimezoneName = getEnv("REMINDER_TIMEZONE", "Local")
	cfg.Location, err = time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", cfg.TimezoneName, err)
	}

	cfg.Gateway = strings.ToLower(getEnv("GATEWAY", GatewayLocal))
	if cfg.Gateway != GatewayLocal && cfg.Gateway != GatewayRPC {
		return nil, fmt.Errorf("invalid GATEWAY %q: must be %s or %s", cfg.Gateway, GatewayLocal, GatewayRPC)
	}
	cfg.RPCURL = getEnv("RPC_URL", "http://127.0.0.1:7420/rpc")
	cfg.RPCListen = os.Getenv("RPC_LISTEN")
	cfg.RPCSecret = os.Getenv("RPC_SECRET")

	cfg.NativeChannel = strings.ToLower(getEnv("NATIVE_CHANNEL", ChannelDesktop))
	switch cfg.NativeChannel {
	case ChannelDesktop, ChannelNone:
	case ChannelTelegram:
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
		chatIDStr := os.Getenv("TELEGRAM_CHAT_ID")
		if chatIDStr == "" {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID is not set")
		}
		cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	default:
		return nil, fmt.Errorf("invalid NATIVE_CHANNEL %q: must be desktop, telegram or none", cfg.NativeChannel)
	}
	if cfg.ToastWithNative, err = getBool("TOAST_WITH_NATIVE", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getMinutes(key string, def int) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return time.Duration(def) * time.Minute, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return time.Duration(n) * time.Minute, nil
}
