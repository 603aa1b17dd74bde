// Command list-actions connects to the Streamer.bot server, prints the
// action catalog as "id: name (Enabled|Disabled)", and exits. Use it to find
// the ids for DELETE_ACTION_ID, TIMEOUT_ACTION_ID, and BAN_ACTION_ID.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/chat-mirror/backend/config"
	"github.com/onnwee/chat-mirror/backend/streamerbot"
)

func main() {
	_ = godotenv.Load(".env")
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client := streamerbot.NewClient(streamerbot.ServerURL(cfg.BackendHost, cfg.BackendPort))
	go func() {
		_ = client.Connect(ctx)
	}()

	for !client.IsConnected() {
		select {
		case <-ctx.Done():
			slog.Error("could not reach streamerbot", slog.String("host", cfg.BackendHost), slog.Int("port", cfg.BackendPort))
			os.Exit(1)
		case <-time.After(100 * time.Millisecond):
		}
	}

	actions, err := client.GetActions(ctx)
	if err != nil {
		slog.Error("get actions failed", slog.Any("err", err))
		os.Exit(1)
	}
	for _, a := range actions {
		state := "Disabled"
		if a.Enabled {
			state = "Enabled"
		}
		fmt.Printf("%s: %s (%s)\n", a.ID, a.Name, state)
	}
}
