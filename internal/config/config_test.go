package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("RELAYBOT_BOT_TOKEN", "123456:test-token")
	t.Setenv("RELAYBOT_BOT_WEBHOOK_SECRET", "hush")
	t.Setenv("RELAYBOT_BOT_OWNER_UID", "10001")
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/endpoint", cfg.Bot.WebhookPath)
	assert.Equal(t, int64(10001), cfg.Bot.OwnerUID)
	assert.Equal(t, 10*time.Second, cfg.Fraud.Timeout)
	assert.Equal(t, 720*time.Hour, cfg.Relay.CorrelationTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadRequiredFields(t *testing.T) {
	tests := []struct {
		name  string
		unset string
	}{
		{"缺少token", "RELAYBOT_BOT_TOKEN"},
		{"缺少webhook密钥", "RELAYBOT_BOT_WEBHOOK_SECRET"},
		{"缺少所有者UID", "RELAYBOT_BOT_OWNER_UID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RELAYBOT_BOT_WEBHOOK_PATH", "hook")
	t.Setenv("RELAYBOT_RELAY_CORRELATION_TTL", "24h")
	t.Setenv("RELAYBOT_REDIS_ADDRESS", "redis:6379")

	cfg, err := Load()
	require.NoError(t, err)

	// 路径自动补前导斜杠
	assert.Equal(t, "/hook", cfg.Bot.WebhookPath)
	assert.Equal(t, 24*time.Hour, cfg.Relay.CorrelationTTL)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("RELAYBOT_RELAY_CORRELATION_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
