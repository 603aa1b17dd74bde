package mirror

import "sync"

// Message is one live correlation between a Twitch chat message and its
// mirrored Discord post. Author fields are kept structured so ban/timeout
// sweeps can match on them directly instead of re-parsing rendered content.
type Message struct {
	SourceID          string
	Handle            Handle
	AuthorDisplayName string
	AuthorLogin       string
}

// Registry is the in-memory correlation table keyed by source message id.
// It is safe for concurrent use: the Streamer.bot read loop and Discord
// interaction callbacks run on different goroutines, and every drain is
// atomic with respect to Put/Remove so interleaved inserts are never lost
// or double-drained.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Message
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Message)}
}

// Put inserts or overwrites the entry for m.SourceID. Last post wins: the
// most recent mirrored message for an id is the live one.
func (r *Registry) Put(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[m.SourceID] = m
}

// Get returns the entry for id, if present.
func (r *Registry) Get(id string) (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[id]
	return m, ok
}

// Remove erases the entry for id if present. Removing an absent id is a
// no-op; deletion is idempotent.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// DrainAll atomically empties the registry and returns every entry it held.
func (r *Registry) DrainAll() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return nil
	}
	drained := make([]Message, 0, len(r.entries))
	for _, m := range r.entries {
		drained = append(drained, m)
	}
	r.entries = make(map[string]Message)
	return drained
}

// DrainMatching atomically removes and returns every entry for which match
// holds. Non-matching entries remain retrievable.
func (r *Registry) DrainMatching(match func(Message) bool) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var drained []Message
	for id, m := range r.entries {
		if match(m) {
			drained = append(drained, m)
			delete(r.entries, id)
		}
	}
	return drained
}

// Len returns the current number of live entries.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
