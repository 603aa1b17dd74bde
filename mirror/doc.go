// Package mirror keeps a Discord channel consistent with a live Twitch chat.
//
// It provides two pieces:
//   - Registry: the in-memory correlation table from Twitch message ids to
//     the mirrored Discord messages. Volatile by design; state lives for the
//     process lifetime only and is rebuilt naturally as new chat arrives.
//   - Reconciler: named handlers for the Streamer.bot event kinds
//     (ChatMessage, ChatMessageDeleted, ChatCleared, UserBanned,
//     UserTimedOut) that mutate the registry and issue the matching post,
//     delete, or bulk-delete calls against the mirrored channel.
//
// The mirrored channel is abstracted behind small capability interfaces
// (Poster, Deleter, BulkDeleter) so the reconciler can be exercised in tests
// without a Discord session. A channel that cannot bulk delete yields
// ErrBulkDeleteUnsupported rather than being silently skipped.
package mirror
