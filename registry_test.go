package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomIDFormat(t *testing.T) {
	reg := newRegistry(time.Hour)

	id := reg.NewRoomID()
	require.Len(t, id, 6)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(roomIDAlphabet, r), "unexpected rune %q", r)
	}
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	reg := newRegistry(time.Hour)

	a := reg.GetOrCreate("ABCD12")
	b := reg.GetOrCreate("ABCD12")
	assert.Same(t, a, b)
}

func TestDeleteRemovesRoom(t *testing.T) {
	reg := newRegistry(time.Hour)

	reg.GetOrCreate("ABCD12")
	reg.Delete("ABCD12")

	_, ok := reg.Get("ABCD12")
	assert.False(t, ok)

	// deleting an absent room is a no-op
	reg.Delete("ABCD12")
}

func TestDeleteIfEmptyRemovesEmptyRoom(t *testing.T) {
	reg := newRegistry(time.Hour)
	room := reg.GetOrCreate("ABCD12")
	alice := newTestClient()
	require.NoError(t, room.Join(alice, "Alice"))

	require.True(t, room.RemovePlayer(alice.id))
	assert.True(t, reg.DeleteIfEmpty("ABCD12"))

	_, ok := reg.Get("ABCD12")
	assert.False(t, ok)

	// absent id is a no-op
	assert.False(t, reg.DeleteIfEmpty("ABCD12"))
}

func TestDeleteIfEmptySparesRoomJoinedMidDeparture(t *testing.T) {
	reg := newRegistry(time.Hour)
	room := reg.GetOrCreate("ABCD12")
	alice := newTestClient()
	require.NoError(t, room.Join(alice, "Alice"))

	// the last player leaves and the room reports itself empty
	require.True(t, room.RemovePlayer(alice.id))

	// before the delete lands, a new join resolves the same id to the
	// still-registered room
	bob := newTestClient()
	same := reg.GetOrCreate("ABCD12")
	require.Same(t, room, same)
	require.NoError(t, same.Join(bob, "Bob"))

	// the deferred delete must re-check the roster and spare the room
	assert.False(t, reg.DeleteIfEmpty("ABCD12"))

	got, ok := reg.Get("ABCD12")
	require.True(t, ok)
	assert.Same(t, room, got)
	assert.Len(t, got.players, 1)
}

func TestRoomCodeCharactersAreUniform(t *testing.T) {
	counts := make(map[byte]int)
	for range 10000 {
		for _, b := range []byte(randomRoomCode(6)) {
			counts[b]++
		}
	}

	require.Len(t, counts, len(roomIDAlphabet))

	// 60000 draws over 36 characters averages ~1667 apiece; a heavily
	// biased generator would leave some characters far below that
	for _, b := range []byte(roomIDAlphabet) {
		assert.Greater(t, counts[b], 1200, "character %q under-represented", b)
	}
}

func TestSweepIdleRooms(t *testing.T) {
	reg := newRegistry(3 * time.Hour)
	now := time.Now()

	stale := reg.GetOrCreate("STALE1")
	stale.createdAt = now.Add(-4 * time.Hour)

	occupied := reg.GetOrCreate("BUSY01")
	occupied.createdAt = now.Add(-4 * time.Hour)
	require.NoError(t, occupied.Join(newTestClient(), "Alice"))

	fresh := reg.GetOrCreate("FRESH1")
	fresh.createdAt = now.Add(-time.Hour)

	swept := reg.SweepIdleRooms(now)
	assert.Equal(t, 1, swept)

	_, ok := reg.Get("STALE1")
	assert.False(t, ok)
	_, ok = reg.Get("BUSY01")
	assert.True(t, ok)
	_, ok = reg.Get("FRESH1")
	assert.True(t, ok)
}

func TestSessionDirectory(t *testing.T) {
	reg := newRegistry(time.Hour)

	reg.Bind("conn-1", "ABCD12", "Alice")

	s, ok := reg.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "ABCD12", s.room)
	assert.Equal(t, "Alice", s.name)

	reg.Unbind("conn-1")
	_, ok = reg.Lookup("conn-1")
	assert.False(t, ok)
}
