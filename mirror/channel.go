package mirror

import (
	"context"
	"errors"
)

// ErrBulkDeleteUnsupported is returned when a bulk removal is required but
// the channel implementation does not satisfy BulkDeleter.
var ErrBulkDeleteUnsupported = errors.New("mirror: channel does not support bulk delete")

// Handle identifies one mirrored message on the platform. It carries the
// channel id as well because bulk deletion is a channel-scoped operation.
type Handle struct {
	ChannelID string
	MessageID string
}

// Control is a moderation button attached to a mirrored post. Token must be
// self-describing (action kind plus target) because nothing correlates a
// later click back to this post except the token itself.
type Control struct {
	Token  string
	Label  string
	Danger bool
}

// Poster posts a message with attached controls and returns its handle.
type Poster interface {
	Post(ctx context.Context, content string, controls []Control) (Handle, error)
}

// Deleter removes a single mirrored message.
type Deleter interface {
	Delete(ctx context.Context, h Handle) error
}

// BulkDeleter removes many messages from one channel in a single call.
// Implementations may reject empty or single-element batches; callers are
// expected to not issue empty batches.
type BulkDeleter interface {
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
}

// Channel is the capability surface the reconciler requires. Bulk deletion
// is optional and discovered via type assertion against BulkDeleter.
type Channel interface {
	Poster
	Deleter
}
