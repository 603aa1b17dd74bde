// Package discordbridge binds the bot to Discord: it implements the mirror
// channel capabilities on top of a discordgo session and routes component
// and modal interactions into the moderation dispatcher.
package discordbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"github.com/onnwee/chat-mirror/backend/mirror"
	"github.com/onnwee/chat-mirror/backend/moderation"
	"github.com/onnwee/chat-mirror/backend/telemetry"
)

// bulkDeleteMax is Discord's per-call cap on bulk message deletion.
const bulkDeleteMax = 100

// Bridge wraps one gateway session and one mirror channel id.
type Bridge struct {
	session    *discordgo.Session
	channelID  string
	dispatcher *moderation.Dispatcher
	ready      atomic.Bool
}

var (
	_ mirror.Channel     = (*Bridge)(nil)
	_ mirror.BulkDeleter = (*Bridge)(nil)
)

// New creates a bridge for the given bot token and mirror channel. The
// session is not opened yet; call Open.
func New(token, channelID string, dispatcher *moderation.Dispatcher) (*Bridge, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages
	b := &Bridge{session: session, channelID: channelID, dispatcher: dispatcher}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Open connects the gateway session.
func (b *Bridge) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (b *Bridge) Close() error {
	b.ready.Store(false)
	return b.session.Close()
}

// IsReady reports whether the gateway session has completed its handshake.
func (b *Bridge) IsReady() bool {
	return b.ready.Load()
}

func (b *Bridge) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready.Store(true)
	slog.Info("discord logged in", slog.String("user", r.User.Username))
}

// Post sends a mirrored message with its moderation buttons and returns the
// handle of the created Discord message.
func (b *Bridge) Post(ctx context.Context, content string, controls []mirror.Control) (mirror.Handle, error) {
	var msg *discordgo.Message
	var err error
	telemetry.TimeFunc(telemetry.PostDuration, func() {
		msg, err = b.session.ChannelMessageSendComplex(b.channelID, &discordgo.MessageSend{
			Content:    content,
			Components: []discordgo.MessageComponent{buttonRow(controls)},
		}, discordgo.WithContext(ctx))
	})
	if err != nil {
		return mirror.Handle{}, fmt.Errorf("send to channel %s: %w", b.channelID, err)
	}
	return mirror.Handle{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

// Delete removes a single mirrored message.
func (b *Bridge) Delete(ctx context.Context, h mirror.Handle) error {
	return b.session.ChannelMessageDelete(h.ChannelID, h.MessageID, discordgo.WithContext(ctx))
}

// BulkDelete removes the given messages from one channel. Discord's bulk
// endpoint takes 2-100 ids per call, so a lone id falls back to a single
// delete and larger sets are chunked.
func (b *Bridge) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	for start := 0; start < len(messageIDs); start += bulkDeleteMax {
		end := min(start+bulkDeleteMax, len(messageIDs))
		chunk := messageIDs[start:end]
		if len(chunk) == 1 {
			if err := b.session.ChannelMessageDelete(channelID, chunk[0], discordgo.WithContext(ctx)); err != nil {
				return err
			}
			continue
		}
		if err := b.session.ChannelMessagesBulkDelete(channelID, chunk, discordgo.WithContext(ctx)); err != nil {
			return err
		}
	}
	return nil
}

func buttonRow(controls []mirror.Control) discordgo.ActionsRow {
	buttons := make([]discordgo.MessageComponent, 0, len(controls))
	for _, c := range controls {
		style := discordgo.SuccessButton
		if c.Danger {
			style = discordgo.DangerButton
		}
		buttons = append(buttons, discordgo.Button{Label: c.Label, Style: style, CustomID: c.Token})
	}
	return discordgo.ActionsRow{Components: buttons}
}
