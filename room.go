package main

import (
	"math"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	activeWordCount      = 30
	defaultMatchDuration = 60 * time.Second
	minMatchDuration     = 10 * time.Second

	// Buffer added to the scheduled end-of-match timer so clients never
	// observe the authoritative cutoff before their own countdown ends.
	endOfMatchGrace = time.Second
)

// Player is one roster entry. The connection id doubles as the player id.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsLeader bool   `json:"isLeader"`
}

// PlayerScore is a scoreboard entry, keyed by connection id in Room.scores.
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Room is an isolated match session. Every transition runs to completion
// under mu, so concurrent events against the same room serialize in arrival
// order while different rooms proceed independently.
type Room struct {
	id string

	mu          sync.Mutex
	players     []*Player
	clients     map[string]*Client
	gameStarted bool
	words       []Word
	scores      map[string]*PlayerScore
	scoreOrder  []string // roster order captured at game start; breaks ranking ties
	startTime   time.Time
	duration    time.Duration
	createdAt   time.Time
	endTimer    *time.Timer
}

func newRoom(id string) *Room {
	return &Room{
		id:        id,
		clients:   make(map[string]*Client),
		scores:    make(map[string]*PlayerScore),
		createdAt: time.Now(),
	}
}

// Join appends a new player and registers their connection for broadcasts.
// The first player to join becomes leader. Fails without mutating anything
// when the name is taken or a match is running.
func (r *Room) Join(c *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.players {
		if p.Name == name {
			return ErrNameTaken
		}
	}

	if r.gameStarted {
		return ErrGameInProgress
	}

	player := &Player{
		ID:       c.id,
		Name:     name,
		IsLeader: len(r.players) == 0,
	}
	r.players = append(r.players, player)
	r.clients[c.id] = c

	log.Debug().Str("room", r.id).Str("name", name).Int("players", len(r.players)).Msg("player joined")

	r.broadcastLocked(updatePlayersMessage{
		Type:    "updatePlayers",
		Players: r.playersSnapshotLocked(),
	})

	c.enqueue(roomJoinedMessage{
		Type:     "roomJoined",
		Room:     r.id,
		Players:  r.playersSnapshotLocked(),
		IsLeader: player.IsLeader,
	})

	return nil
}

// Start transitions the room from lobby to running. Only the current leader
// may start, and at least two players must be present. The requested
// duration is clamped to [minMatchDuration, maxDuration]; zero means the
// default match length.
func (r *Room) Start(connID string, duration, maxDuration time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gameStarted {
		return ErrGameInProgress
	}

	var leader *Player
	for _, p := range r.players {
		if p.ID == connID {
			leader = p
			break
		}
	}
	if leader == nil || !leader.IsLeader {
		return ErrNotLeader
	}

	if len(r.players) < 2 {
		return ErrNotEnoughPlayers
	}

	if duration == 0 {
		duration = defaultMatchDuration
	}
	duration = min(max(duration, minMatchDuration), maxDuration)

	r.gameStarted = true
	r.words = randomWords(activeWordCount)
	r.startTime = time.Now()
	r.duration = duration

	r.scores = make(map[string]*PlayerScore, len(r.players))
	r.scoreOrder = r.scoreOrder[:0]
	for _, p := range r.players {
		p.Score = 0
		r.scores[p.ID] = &PlayerScore{Name: p.Name}
		r.scoreOrder = append(r.scoreOrder, p.ID)
	}

	r.endTimer = time.AfterFunc(duration+endOfMatchGrace, r.End)

	log.Info().Str("room", r.id).Dur("duration", duration).Int("players", len(r.players)).Msg("match started")

	r.broadcastLocked(startGameMessage{
		Type:  "startGame",
		Words: slices.Clone(r.words),
		Timer: int(duration.Seconds()),
	})

	return nil
}

// WordTyped scores an exact match against the active word set. Submissions
// that match nothing are silently ignored, as are submissions outside a
// running match. A hit removes the matched entry and appends one fresh
// random word, keeping the set size constant.
func (r *Room) WordTyped(connID, word string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.gameStarted {
		return
	}

	idx := slices.IndexFunc(r.words, func(w Word) bool {
		return w.Word == word
	})
	if idx == -1 {
		return
	}

	points := scoreForDifficulty(r.words[idx].Difficulty)

	if entry, ok := r.scores[connID]; ok {
		entry.Score += points
		log.Debug().Str("room", r.id).Str("word", word).Int("score", entry.Score).Msg("word scored")
	}
	for _, p := range r.players {
		if p.ID == connID {
			p.Score += points
			break
		}
	}

	r.words = slices.Delete(r.words, idx, idx+1)
	r.words = append(r.words, randomWord())

	r.broadcastLocked(updateWordsMessage{
		Type:     "updateWords",
		NewWords: slices.Clone(r.words),
		Scores:   r.scoresSnapshotLocked(),
	})
}

// End finishes a running match: ranks the top three scorers, derives each
// player's points-per-minute speed, and returns the room to the lobby with
// the roster and leadership intact. Safe to call twice; the scheduled
// timeout and an explicit endGame event converge here.
func (r *Room) End() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.gameStarted {
		return
	}
	r.gameStarted = false

	if r.endTimer != nil {
		r.endTimer.Stop()
		r.endTimer = nil
	}

	seconds := r.duration.Seconds()
	if seconds == 0 {
		seconds = defaultMatchDuration.Seconds()
	}

	speeds := make(map[string]int, len(r.scores))
	for id, entry := range r.scores {
		speeds[id] = int(math.Round(float64(entry.Score) * 60 / seconds))
	}

	ranked := slices.Clone(r.scoreOrder)
	sort.SliceStable(ranked, func(i, j int) bool {
		return r.scores[ranked[i]].Score > r.scores[ranked[j]].Score
	})
	winners := ranked[:min(3, len(ranked))]

	log.Info().Str("room", r.id).Strs("winners", winners).Msg("match ended")

	r.broadcastLocked(gameOverMessage{
		Type:    "gameOver",
		Winners: winners,
		Scores:  r.scoresSnapshotLocked(),
		Speeds:  speeds,
	})

	r.words = nil
	r.startTime = time.Time{}
}

// RemovePlayer handles both an explicit leave and a transport disconnect.
// When the departing player led a non-empty room, leadership passes to the
// earliest-joined remaining player. Reports whether the room is now empty
// so the registry can delete it.
func (r *Room) RemovePlayer(connID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := slices.IndexFunc(r.players, func(p *Player) bool {
		return p.ID == connID
	})
	if idx == -1 {
		delete(r.clients, connID)
		return len(r.players) == 0
	}

	wasLeader := r.players[idx].IsLeader
	r.players = slices.Delete(r.players, idx, idx+1)
	delete(r.clients, connID)

	if len(r.players) == 0 {
		if r.endTimer != nil {
			r.endTimer.Stop()
			r.endTimer = nil
		}
		return true
	}

	if wasLeader {
		r.players[0].IsLeader = true
		log.Debug().Str("room", r.id).Str("leader", r.players[0].Name).Msg("leadership transferred")
	}

	r.broadcastLocked(updatePlayersMessage{
		Type:    "updatePlayers",
		Players: r.playersSnapshotLocked(),
	})

	return false
}

// playersSnapshotLocked copies the roster so messages marshal safely outside
// the room lock.
func (r *Room) playersSnapshotLocked() []Player {
	players := make([]Player, len(r.players))
	for i, p := range r.players {
		players[i] = *p
	}
	return players
}

func (r *Room) scoresSnapshotLocked() map[string]PlayerScore {
	scores := make(map[string]PlayerScore, len(r.scores))
	for id, entry := range r.scores {
		scores[id] = *entry
	}
	return scores
}

// broadcastLocked fans a message out to every connection in the room.
// Clients too slow to drain their send buffer are dropped; their read pump
// then observes the closed connection and runs the normal disconnect path.
func (r *Room) broadcastLocked(msg any) {
	for id, client := range r.clients {
		select {
		case client.send <- msg:
		default:
			delete(r.clients, id)
			client.close()
		}
	}
}
