package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

type Config struct {
	TelegramBotToken   string  `koanf:"telegram_bot_token"`
	TwitchClientID     string  `koanf:"twitch_client_id"`
	TwitchClientSecret string  `koanf:"twitch_client_secret"`
	MasterID           int64   `koanf:"master_id"`
	AllowedUsers       []int64 `koanf:"allowed_users"`
	StoragePath        string  `koanf:"storage_path"`
	HTTPPort           string  `koanf:"http_port"`
	PollInterval       int     `koanf:"poll_interval"`
	OfflineExpiry      int     `koanf:"offline_expiry"`
	ReplyExpiry        int     `koanf:"reply_expiry"`
	Timezone           string  `koanf:"timezone"`
	AppEnv             AppEnv  `koanf:"app_env"`
}

func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values:
	// TELEGRAM_BOT_TOKEN -> telegram_bot_token
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	// Defaults
	if !k.Exists("storage_path") {
		k.Set("storage_path", "./data")
	}
	if !k.Exists("http_port") {
		k.Set("http_port", "8080")
	}
	if !k.Exists("poll_interval") {
		k.Set("poll_interval", 60)
	}
	if !k.Exists("offline_expiry") {
		k.Set("offline_expiry", 900)
	}
	if !k.Exists("reply_expiry") {
		k.Set("reply_expiry", 15)
	}
	if !k.Exists("timezone") {
		k.Set("timezone", "America/Chicago")
	}
	if !k.Exists("app_env") {
		k.Set("app_env", "production")
	}

	// AllowedUsers arrives as a comma-separated string from env vars and
	// as a slice from config files; normalize before unmarshaling so the
	// string form does not fail the []int64 decode.
	if raw, ok := k.Get("allowed_users").(string); ok {
		k.Set("allowed_users", ParseAllowedUsers(raw))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	if appEnvStr := k.String("app_env"); appEnvStr != "" {
		if env, err := ParseAppEnv(appEnvStr); err == nil {
			cfg.AppEnv = env
		} else {
			cfg.AppEnv = AppEnvProduction
		}
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if cfg.TelegramBotToken == "" {
		return nil, ErrMissingBotToken
	}
	if cfg.TwitchClientID == "" || cfg.TwitchClientSecret == "" {
		return nil, ErrMissingTwitchCreds
	}

	return &cfg, nil
}

// ParseAllowedUsers parses comma-separated user IDs into []int64.
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}
