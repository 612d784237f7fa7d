package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("TWITCH_CLIENT_ID", "client-id")
	t.Setenv("TWITCH_CLIENT_SECRET", "client-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.TelegramBotToken)
	assert.Equal(t, "./data", cfg.StoragePath)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 60, cfg.PollInterval)
	assert.Equal(t, 900, cfg.OfflineExpiry)
	assert.Equal(t, 15, cfg.ReplyExpiry)
	assert.Equal(t, "America/Chicago", cfg.Timezone)
	assert.Equal(t, AppEnvProduction, cfg.AppEnv)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("TWITCH_CLIENT_ID", "client-id")
	t.Setenv("TWITCH_CLIENT_SECRET", "client-secret")
	t.Setenv("POLL_INTERVAL", "30")
	t.Setenv("MASTER_ID", "99")
	t.Setenv("ALLOWED_USERS", "1, 2,3")
	t.Setenv("APP_ENV", "testing")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.PollInterval)
	assert.Equal(t, int64(99), cfg.MasterID)
	assert.Equal(t, []int64{1, 2, 3}, cfg.AllowedUsers)
	assert.Equal(t, AppEnvTesting, cfg.AppEnv)
}

func TestLoadConfigAllowedUsersFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("TWITCH_CLIENT_ID", "client-id")
	t.Setenv("TWITCH_CLIENT_SECRET", "client-secret")
	t.Setenv("ALLOWED_USERS", "7,notanumber,8")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, cfg.AllowedUsers)
}

func TestLoadConfigMissingBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TWITCH_CLIENT_ID", "client-id")
	t.Setenv("TWITCH_CLIENT_SECRET", "client-secret")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingBotToken)
}

func TestLoadConfigMissingTwitchCreds(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("TWITCH_CLIENT_ID", "")
	t.Setenv("TWITCH_CLIENT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorIs(t, err, ErrMissingTwitchCreds)
}

func TestParseAllowedUsers(t *testing.T) {
	assert.Empty(t, ParseAllowedUsers(""))
	assert.Equal(t, []int64{10}, ParseAllowedUsers("10"))
	assert.Equal(t, []int64{10, 20}, ParseAllowedUsers(" 10 , 20 "))
	assert.Equal(t, []int64{10}, ParseAllowedUsers("10,notanumber,"))
}
