// Package streamerbot is a client for the Streamer.bot WebSocket server.
//
// It provides two entrypoints:
//   - Client.Connect: dials the server, subscribes to the Twitch chat and
//     moderation events the bot consumes, and dispatches decoded events to
//     the registered handlers. The connection is re-established with a fixed
//     delay whenever it drops, until the context is canceled.
//   - Client.DoAction / Client.GetActions: request/response calls over the
//     same socket, correlated by request id.
//
// Events are dispatched synchronously from the single read loop, so handlers
// for one source always observe events in arrival order. Handlers receive a
// context carrying a fresh correlation id for logging.
package streamerbot
