package mirror

import (
	"context"
	"log/slog"

	"github.com/onnwee/chat-mirror/backend/telemetry"
)

// Reconciler applies Streamer.bot chat and moderation events to the
// registry and the mirrored channel. One handler method per event kind;
// handlers never return errors because a failed platform call must not take
// down the shared event loop. Every platform call gets at most one attempt.
type Reconciler struct {
	registry *Registry
	channel  Channel
	controls func(msgID, login string) []Control
}

// NewReconciler wires a reconciler. controls builds the moderation buttons
// attached to each mirrored post; it receives the source message id and the
// author login, which is all the later click handlers need.
func NewReconciler(registry *Registry, channel Channel, controls func(msgID, login string) []Control) *Reconciler {
	return &Reconciler{registry: registry, channel: channel, controls: controls}
}

// Registry exposes the correlation table, for status reporting.
func (r *Reconciler) Registry() *Registry {
	return r.registry
}

// HandleChatMessage mirrors a new chat message: render, post with controls,
// and register the result. A failed post is logged and dropped without a
// retry so a flaky send can never produce a duplicate mirrored copy.
func (r *Reconciler) HandleChatMessage(ctx context.Context, msgID, displayName, login, text string) {
	content := RenderContent(displayName, login, text)
	handle, err := r.channel.Post(ctx, content, r.controls(msgID, login))
	if err != nil {
		telemetry.CountMirrorPostFailure()
		telemetry.LoggerWithCorr(ctx).Error("failed to mirror chat message",
			slog.String("msg_id", msgID), slog.Any("err", err))
		return
	}
	r.registry.Put(Message{
		SourceID:          msgID,
		Handle:            handle,
		AuthorDisplayName: displayName,
		AuthorLogin:       login,
	})
	telemetry.CountMirrorPost()
	telemetry.SetRegistrySize(r.registry.Len())
}

// HandleChatMessageDeleted removes the mirrored copy of one deleted chat
// message. Unknown ids are already satisfied: the message was never mirrored
// or is gone, so nothing to do. The registry entry is removed before the
// platform delete is attempted; a failed remote delete must never leave a
// stale entry that would trigger a second delete later.
func (r *Reconciler) HandleChatMessageDeleted(ctx context.Context, targetMessageID string) {
	m, ok := r.registry.Get(targetMessageID)
	if !ok {
		return
	}
	r.registry.Remove(targetMessageID)
	telemetry.SetRegistrySize(r.registry.Len())
	if err := r.channel.Delete(ctx, m.Handle); err != nil {
		telemetry.CountMirrorDeleteFailure()
		telemetry.LoggerWithCorr(ctx).Error("failed to delete mirrored message",
			slog.String("msg_id", targetMessageID), slog.Any("err", err))
		return
	}
	telemetry.CountMirrorDelete()
}

// HandleChatCleared drops every mirrored message in one bulk call. An empty
// registry issues no call at all; Discord rejects empty bulk requests.
func (r *Reconciler) HandleChatCleared(ctx context.Context) {
	drained := r.registry.DrainAll()
	telemetry.SetRegistrySize(r.registry.Len())
	r.bulkDelete(ctx, "chat cleared", drained)
}

// HandleUserBanned sweeps away every mirrored message from the banned user.
func (r *Reconciler) HandleUserBanned(ctx context.Context, userName, userLogin string) {
	r.sweepAuthor(ctx, "user banned", userName, userLogin)
}

// HandleUserTimedOut sweeps away every mirrored message from the timed-out
// user. Twitch clears their chat on a timeout, so the mirror follows.
func (r *Reconciler) HandleUserTimedOut(ctx context.Context, userName, userLogin string) {
	r.sweepAuthor(ctx, "user timed out", userName, userLogin)
}

// sweepAuthor drains all entries whose author composes to the same name as
// the moderated user and bulk-deletes them. Ban and timeout events carry
// only user_name/user_login, never message ids, so this is a full scan.
func (r *Reconciler) sweepAuthor(ctx context.Context, cause, userName, userLogin string) {
	name := AuthorName(userName, userLogin)
	drained := r.registry.DrainMatching(func(m Message) bool {
		return AuthorName(m.AuthorDisplayName, m.AuthorLogin) == name
	})
	telemetry.SetRegistrySize(r.registry.Len())
	r.bulkDelete(ctx, cause, drained)
}

// bulkDelete issues a single channel-scoped bulk removal for the drained
// entries. All entries share one mirror channel in this deployment, so the
// scope comes from the first entry. Failures are logged and abandoned; the
// entries are already out of the registry and stay out.
func (r *Reconciler) bulkDelete(ctx context.Context, cause string, drained []Message) {
	if len(drained) == 0 {
		return
	}
	bd, ok := r.channel.(BulkDeleter)
	if !ok {
		telemetry.LoggerWithCorr(ctx).Error("cannot reconcile",
			slog.String("cause", cause), slog.Any("err", ErrBulkDeleteUnsupported))
		return
	}
	ids := make([]string, len(drained))
	for i, m := range drained {
		ids[i] = m.Handle.MessageID
	}
	if err := bd.BulkDelete(ctx, drained[0].Handle.ChannelID, ids); err != nil {
		telemetry.CountMirrorDeleteFailure()
		telemetry.LoggerWithCorr(ctx).Error("failed to bulk delete mirrored messages",
			slog.String("cause", cause), slog.Int("count", len(ids)), slog.Any("err", err))
		return
	}
	telemetry.CountMirrorBulkDelete(len(ids))
}
