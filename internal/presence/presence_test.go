// ABOUTME: Tests for the presence tracker
// ABOUTME: Covers snapshot replacement, self exclusion, and blank-identity filtering

package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticIdentity string

func (s staticIdentity) Identity() string { return string(s) }

func TestTracker_SnapshotReplacesPreviousSet(t *testing.T) {
	tracker := NewTracker(staticIdentity("alice"), nil)

	tracker.ApplySnapshot([]Entry{
		{ConnectionID: "c1", Identity: "bob"},
		{ConnectionID: "c2", Identity: "carol"},
	})
	tracker.ApplySnapshot([]Entry{
		{ConnectionID: "c3", Identity: "dave"},
	})

	online := tracker.Online()
	require.Len(t, online, 1)
	assert.Equal(t, "dave", online[0].Identity)

	_, ok := tracker.Identity("c1")
	assert.False(t, ok, "entries absent from the latest snapshot must be gone")
}

func TestTracker_SelfExcludedFromRenderedView(t *testing.T) {
	tracker := NewTracker(staticIdentity("alice"), nil)

	tracker.ApplySnapshot([]Entry{
		{ConnectionID: "c0", Identity: "alice"},
		{ConnectionID: "c1", Identity: "bob"},
	})

	online := tracker.Online()
	require.Len(t, online, 1)
	assert.Equal(t, "bob", online[0].Identity)

	// Self remains available for lookups; exclusion is render-only.
	identity, ok := tracker.Identity("c0")
	require.True(t, ok)
	assert.Equal(t, "alice", identity)
}

func TestTracker_DiscardsEntriesWithoutIdentity(t *testing.T) {
	tracker := NewTracker(staticIdentity("alice"), nil)

	tracker.ApplySnapshot([]Entry{
		{ConnectionID: "c1", Identity: ""},
		{ConnectionID: "c2", Identity: "bob"},
	})

	online := tracker.Online()
	require.Len(t, online, 1)
	assert.Equal(t, "bob", online[0].Identity)
}

func TestTracker_OnlineIsSortedForStableRendering(t *testing.T) {
	tracker := NewTracker(staticIdentity("alice"), nil)

	tracker.ApplySnapshot([]Entry{
		{ConnectionID: "c3", Identity: "zoe"},
		{ConnectionID: "c1", Identity: "bob"},
		{ConnectionID: "c2", Identity: "carol"},
	})

	online := tracker.Online()
	require.Len(t, online, 3)
	assert.Equal(t, "bob", online[0].Identity)
	assert.Equal(t, "carol", online[1].Identity)
	assert.Equal(t, "zoe", online[2].Identity)
}

func TestTracker_ResetReturnsToInitialState(t *testing.T) {
	tracker := NewTracker(staticIdentity("alice"), nil)
	tracker.ApplySnapshot([]Entry{{ConnectionID: "c1", Identity: "bob"}})

	tracker.Reset()

	assert.Empty(t, tracker.Online())
}
