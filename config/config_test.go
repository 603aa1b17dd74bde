package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STREAMER_BOT_WS_SERVER_HOST", "STREAMER_BOT_WS_SERVER_PORT",
		"DISCORD_TOKEN", "TOKEN", "CHANNEL_ID",
		"DELETE_ACTION_ID", "TIMEOUT_ACTION_ID", "BAN_ACTION_ID",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendHost != "127.0.0.1" {
		t.Errorf("BackendHost = %q, want 127.0.0.1", cfg.BackendHost)
	}
	if cfg.BackendPort != 8080 {
		t.Errorf("BackendPort = %d, want 8080", cfg.BackendPort)
	}
	if cfg.DiscordToken != "" || cfg.ChannelID != "" {
		t.Errorf("expected empty discord config, got token=%q channel=%q", cfg.DiscordToken, cfg.ChannelID)
	}
}

func TestLoadReadsEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STREAMER_BOT_WS_SERVER_HOST", "sb.local")
	t.Setenv("STREAMER_BOT_WS_SERVER_PORT", "9090")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("CHANNEL_ID", "123")
	t.Setenv("DELETE_ACTION_ID", "a1")
	t.Setenv("TIMEOUT_ACTION_ID", "a2")
	t.Setenv("BAN_ACTION_ID", "a3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendHost != "sb.local" || cfg.BackendPort != 9090 {
		t.Errorf("backend = %s:%d, want sb.local:9090", cfg.BackendHost, cfg.BackendPort)
	}
	if cfg.DeleteActionID != "a1" || cfg.TimeoutActionID != "a2" || cfg.BanActionID != "a3" {
		t.Errorf("action ids = %q %q %q", cfg.DeleteActionID, cfg.TimeoutActionID, cfg.BanActionID)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	tests := []string{"abc", "0", "-1", "70000"}
	for _, v := range tests {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("STREAMER_BOT_WS_SERVER_PORT", v)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with port %q should fail", v)
			}
		})
	}
}

func TestLegacyTokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEN", "legacy-tok")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DiscordToken != "legacy-tok" {
		t.Errorf("DiscordToken = %q, want legacy-tok", cfg.DiscordToken)
	}

	// DISCORD_TOKEN wins over the legacy name.
	t.Setenv("DISCORD_TOKEN", "new-tok")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DiscordToken != "new-tok" {
		t.Errorf("DiscordToken = %q, want new-tok", cfg.DiscordToken)
	}
}

func TestValidateDiscordReady(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"both set", Config{DiscordToken: "tok", ChannelID: "123"}, false},
		{"missing token", Config{ChannelID: "123"}, true},
		{"missing channel", Config{DiscordToken: "tok"}, true},
		{"missing both", Config{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateDiscordReady()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDiscordReady() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
