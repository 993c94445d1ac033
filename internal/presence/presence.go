// ABOUTME: Presence tracker holding the set of online identities by connection ID
// ABOUTME: Snapshots are authoritative replacements; self is excluded from the rendered view

package presence

import (
	"log/slog"
	"sort"
)

// Entry is one online user: a live connection identifier and its identity.
type Entry struct {
	ConnectionID string
	Identity     string
}

// IdentityProvider exposes the local session's identity so the tracker can
// exclude self from the rendered list.
type IdentityProvider interface {
	Identity() string
}

// Tracker owns the online set. Not safe for concurrent use on its own; the
// routing controller serializes all access.
type Tracker struct {
	self   IdentityProvider
	logger *slog.Logger

	// online maps connection ID to identity, self included. Exclusion of
	// self applies to the rendered view only, never to correctness logic.
	online map[string]string
}

// NewTracker creates a presence tracker. Pass nil logger for default.
func NewTracker(self IdentityProvider, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		self:   self,
		logger: logger.With("component", "presence"),
		online: make(map[string]string),
	}
}

// ApplySnapshot replaces the online set with the given entries.
// Entries with an empty identity are discarded.
func (t *Tracker) ApplySnapshot(entries []Entry) {
	online := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Identity == "" {
			t.logger.Warn("discarding presence entry without identity",
				"connection_id", e.ConnectionID)
			continue
		}
		online[e.ConnectionID] = e.Identity
	}
	t.online = online

	t.logger.Debug("presence snapshot applied", "online", len(online))
}

// Online returns the current online set excluding the local identity,
// sorted by identity for stable rendering.
func (t *Tracker) Online() []Entry {
	self := t.self.Identity()

	entries := make([]Entry, 0, len(t.online))
	for connID, identity := range t.online {
		if identity == self {
			continue
		}
		entries = append(entries, Entry{ConnectionID: connID, Identity: identity})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Identity != entries[j].Identity {
			return entries[i].Identity < entries[j].Identity
		}
		return entries[i].ConnectionID < entries[j].ConnectionID
	})
	return entries
}

// Identity looks up the identity for a live connection ID, self included.
func (t *Tracker) Identity(connectionID string) (string, bool) {
	identity, ok := t.online[connectionID]
	return identity, ok
}

// Reset drops the online set, returning the tracker to its initial state.
func (t *Tracker) Reset() {
	t.online = make(map[string]string)
}
