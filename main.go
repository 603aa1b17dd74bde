// Command backend is the main entrypoint for the chat-mirror bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Connects to the Streamer.bot WebSocket server and subscribes to chat
//     and moderation events, reconnecting with a fixed delay.
//   - Logs into Discord (when a token is configured) and mirrors chat into
//     the configured channel with moderation buttons.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/chat-mirror/backend/config"
	"github.com/onnwee/chat-mirror/backend/discordbridge"
	"github.com/onnwee/chat-mirror/backend/mirror"
	"github.com/onnwee/chat-mirror/backend/moderation"
	"github.com/onnwee/chat-mirror/backend/server"
	"github.com/onnwee/chat-mirror/backend/streamerbot"
	"github.com/onnwee/chat-mirror/backend/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("chat-mirror", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Streamer.bot client: always created; the action dispatcher and the
	// list-actions tooling work even when the Discord side is disabled.
	sb := streamerbot.NewClient(streamerbot.ServerURL(cfg.BackendHost, cfg.BackendPort))

	dispatcher := moderation.NewDispatcher(sb, moderation.ActionIDs{
		Delete:  cfg.DeleteActionID,
		Timeout: cfg.TimeoutActionID,
		Ban:     cfg.BanActionID,
	})

	registry := mirror.NewRegistry()
	probes := server.Probes{
		BackendConnected: sb.IsConnected,
		RegistrySize:     registry.Len,
	}

	// Discord login is optional: without a token the process still runs the
	// backend connection and the HTTP surface, it just mirrors nothing.
	if err := cfg.ValidateDiscordReady(); err != nil {
		slog.Warn("discord login skipped; set DISCORD_TOKEN and CHANNEL_ID to enable mirroring", slog.Any("err", err))
	} else {
		bridge, err := discordbridge.New(cfg.DiscordToken, cfg.ChannelID, dispatcher)
		if err != nil {
			slog.Error("discord session setup failed", slog.Any("err", err))
			os.Exit(1)
		}
		if err := bridge.Open(); err != nil {
			slog.Error("discord login failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := bridge.Close(); err != nil {
				slog.Error("discord session close failed", slog.Any("err", err))
			}
		}()
		probes.DiscordReady = bridge.IsReady

		rec := mirror.NewReconciler(registry, bridge, moderation.Controls)
		sb.OnChatMessage(func(ctx context.Context, ev streamerbot.ChatMessageEvent) {
			rec.HandleChatMessage(ctx, ev.Message.MsgID, ev.Message.DisplayName, ev.Message.Username, ev.Message.Message)
		})
		sb.OnChatMessageDeleted(func(ctx context.Context, ev streamerbot.ChatMessageDeletedEvent) {
			rec.HandleChatMessageDeleted(ctx, ev.TargetMessageID)
		})
		sb.OnChatCleared(rec.HandleChatCleared)
		sb.OnUserBanned(func(ctx context.Context, ev streamerbot.UserModerationEvent) {
			rec.HandleUserBanned(ctx, ev.UserName, ev.UserLogin)
		})
		sb.OnUserTimedOut(func(ctx context.Context, ev streamerbot.UserModerationEvent) {
			rec.HandleUserTimedOut(ctx, ev.UserName, ev.UserLogin)
		})
	}

	go func() {
		if err := sb.Connect(ctx); err != nil && ctx.Err() == nil {
			slog.Error("streamerbot connection loop exited", slog.Any("err", err))
		}
	}()

	// HTTP server (health/status/metrics)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	go func() {
		if err := server.Start(ctx, server.NewHandlers(probes), addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
