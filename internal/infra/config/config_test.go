package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"LOG_LEVEL", "ENVIRONMENT", "DATABASE_DRIVER", "DATABASE_URL", "REMINDERS_ENABLED",
	"REMINDER_CHECK_INTERVAL_MINUTES", "REMINDER_DUE_WINDOW_MINUTES", "REMINDER_TIMEZONE",
	"GATEWAY", "RPC_URL", "RPC_LISTEN", "RPC_SECRET", "NATIVE_CHANNEL", "TOAST_WITH_NATIVE",
	"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "peptrack-reminders.db", cfg.DatabaseURL)
	assert.True(t, cfg.RemindersEnabled)
	assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
	assert.Equal(t, 15*time.Minute, cfg.DueWindow)
	assert.Equal(t, time.Local, cfg.Location)
	assert.Equal(t, GatewayLocal, cfg.Gateway)
	assert.Equal(t, "http://127.0.0.1:7420/rpc", cfg.RPCURL)
	assert.Empty(t, cfg.RPCListen)
	assert.Equal(t, ChannelDesktop, cfg.NativeChannel)
	assert.False(t, cfg.ToastWithNative)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/peptrack")
	t.Setenv("REMINDERS_ENABLED", "false")
	t.Setenv("REMINDER_CHECK_INTERVAL_MINUTES", "1")
	t.Setenv("REMINDER_TIMEZONE", "UTC")
	t.Setenv("GATEWAY", "rpc")
	t.Setenv("NATIVE_CHANNEL", "telegram")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001")
	t.Setenv("TOAST_WITH_NATIVE", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.False(t, cfg.RemindersEnabled)
	assert.Equal(t, time.Minute, cfg.CheckInterval)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, GatewayRPC, cfg.Gateway)
	assert.Equal(t, ChannelTelegram, cfg.NativeChannel)
	assert.Equal(t, int64(-1001), cfg.TelegramChatID)
	assert.True(t, cfg.ToastWithNative)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"enabled", map[string]string{"REMINDERS_ENABLED": "maybe"}},
		{"interval not a number", map[string]string{"REMINDER_CHECK_INTERVAL_MINUTES": "five"}},
		{"interval zero", map[string]string{"REMINDER_CHECK_INTERVAL_MINUTES": "0"}},
		{"window negative", map[string]string{"REMINDER_DUE_WINDOW_MINUTES": "-3"}},
		{"timezone", map[string]string{"REMINDER_TIMEZONE": "Mars/Olympus"}},
		{"gateway", map[string]string{"GATEWAY": "grpc"}},
		{"channel", map[string]string{"NATIVE_CHANNEL": "sms"}},
		{"telegram without token", map[string]string{"NATIVE_CHANNEL": "telegram", "TELEGRAM_CHAT_ID": "1"}},
		{"telegram without chat", map[string]string{"NATIVE_CHANNEL": "telegram", "TELEGRAM_TOKEN": "x"}},
		{"telegram bad chat", map[string]string{"NATIVE_CHANNEL": "telegram", "TELEGRAM_TOKEN": "x", "TELEGRAM_CHAT_ID": "abc"}},
		{"toast flag", map[string]string{"TOAST_WITH_NATIVE": "yes please"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
