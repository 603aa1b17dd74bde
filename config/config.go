// Package config loads environment variables and provides a typed Config used across the bot.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (the Discord token), use ValidateDiscordReady.
package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Streamer.bot WebSocket server
	BackendHost string
	BackendPort int

	// Discord
	DiscordToken string
	ChannelID    string

	// Streamer.bot action ids for the three moderation controls.
	// An empty id leaves that control as a logged no-op.
	DeleteActionID  string
	TimeoutActionID string
	BanActionID     string
}

// Load reads environment variables and applies defaults. It doesn't fail if the
// Discord token is missing; use ValidateDiscordReady() when you require the
// mirror side. Missing action ids disable the matching control.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.BackendHost = os.Getenv("STREAMER_BOT_WS_SERVER_HOST")
	if cfg.BackendHost == "" {
		cfg.BackendHost = "127.0.0.1"
	}
	cfg.BackendPort = 8080
	if v := os.Getenv("STREAMER_BOT_WS_SERVER_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid STREAMER_BOT_WS_SERVER_PORT %q", v)
		}
		cfg.BackendPort = p
	}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if cfg.DiscordToken == "" {
		// legacy name from early deployments
		cfg.DiscordToken = os.Getenv("TOKEN")
	}
	cfg.ChannelID = os.Getenv("CHANNEL_ID")

	cfg.DeleteActionID = os.Getenv("DELETE_ACTION_ID")
	cfg.TimeoutActionID = os.Getenv("TIMEOUT_ACTION_ID")
	cfg.BanActionID = os.Getenv("BAN_ACTION_ID")

	return cfg, nil
}

// ValidateDiscordReady checks required fields for the mirror side. A missing
// token means login is skipped entirely, not that the process dies.
func (c *Config) ValidateDiscordReady() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN (or legacy TOKEN)")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("missing discord env: require CHANNEL_ID")
	}
	return nil
}
