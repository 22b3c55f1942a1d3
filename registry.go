package main

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// session is the non-owning back-reference held per connection, used to
// locate the affected room when a socket drops without a leaveRoom event.
type session struct {
	room string
	name string
}

// Registry owns the lifetime of every Room and the connection-to-room
// session directory. Injected into the gateway; nothing else holds the maps.
type Registry struct {
	mu        sync.Mutex
	rooms     map[string]*Room
	sessions  map[string]session
	retention time.Duration
}

func newRegistry(retention time.Duration) *Registry {
	return &Registry{
		rooms:     make(map[string]*Room),
		sessions:  make(map[string]session),
		retention: retention,
	}
}

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomRoomCode draws n characters uniformly from the alphabet. Bytes at or
// above the largest multiple of the alphabet size are rejected, so no
// character is over-represented.
func randomRoomCode(n int) string {
	const limit = byte(252) // 7 * len(roomIDAlphabet)

	out := make([]byte, 0, n)
	buf := make([]byte, 16)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, roomIDAlphabet[int(b)%len(roomIDAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}

// NewRoomID generates a 6-character room code, regenerating on collision
// against live rooms. No Room record is created; the room materializes on
// the first join.
func (reg *Registry) NewRoomID() string {
	for {
		id := randomRoomCode(6)

		reg.mu.Lock()
		_, exists := reg.rooms[id]
		reg.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// GetOrCreate returns the room with the given id, materializing an empty
// one atomically if absent.
func (reg *Registry) GetOrCreate(id string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if room, ok := reg.rooms[id]; ok {
		return room
	}

	room := newRoom(id)
	reg.rooms[id] = room
	log.Debug().Str("room", id).Msg("room created")
	return room
}

func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[id]
	return room, ok
}

func (reg *Registry) Delete(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.rooms[id]; ok {
		delete(reg.rooms, id)
		log.Debug().Str("room", id).Msg("room deleted")
	}
}

// DeleteIfEmpty removes the room only if its roster is still empty,
// re-checked under both the registry and room locks. A join that lands
// between the last player's departure and the delete keeps the room
// registered instead of being stranded on an unregistered Room.
func (reg *Registry) DeleteIfEmpty(id string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, ok := reg.rooms[id]
	if !ok {
		return false
	}

	room.mu.Lock()
	empty := len(room.players) == 0
	room.mu.Unlock()

	if !empty {
		return false
	}

	delete(reg.rooms, id)
	log.Debug().Str("room", id).Msg("room deleted")
	return true
}

// Bind records which room and display name a connection belongs to.
func (reg *Registry) Bind(connID, roomID, name string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.sessions[connID] = session{room: roomID, name: name}
}

func (reg *Registry) Lookup(connID string) (session, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, ok := reg.sessions[connID]
	return s, ok
}

func (reg *Registry) Unbind(connID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.sessions, connID)
}

// SweepIdleRooms deletes rooms that have sat empty longer than the
// retention window. A safety net only: rooms are normally deleted the
// moment their last player leaves.
func (reg *Registry) SweepIdleRooms(now time.Time) int {
	cutoff := now.Add(-reg.retention)
	swept := 0

	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, room := range reg.rooms {
		room.mu.Lock()
		stale := len(room.players) == 0 && room.createdAt.Before(cutoff)
		room.mu.Unlock()

		if stale {
			delete(reg.rooms, id)
			swept++
		}
	}

	if swept > 0 {
		log.Info().Int("rooms", swept).Msg("swept idle rooms")
	}
	return swept
}

// sweepLoop runs SweepIdleRooms on a fixed interval for the lifetime of the
// process.
func (reg *Registry) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		reg.SweepIdleRooms(time.Now())
	}
}
