package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

// clientMessage is the envelope for every inbound event.
type clientMessage struct {
	Type     string `json:"type"`               // "createRoom", "joinRoom", "startGame", "wordTyped", "endGame", "leaveRoom"
	Name     string `json:"name,omitempty"`     // createRoom / joinRoom
	Room     string `json:"room,omitempty"`     // joinRoom / startGame / wordTyped / endGame
	Word     string `json:"word,omitempty"`     // wordTyped
	Duration int    `json:"duration,omitempty"` // startGame, seconds
}

// Unicast replies to the initiating connection.
type roomCreatedMessage struct {
	Type string `json:"type"` // "roomCreated"
	Room string `json:"room"`
}

type roomJoinedMessage struct {
	Type     string   `json:"type"` // "roomJoined"
	Room     string   `json:"room"`
	Players  []Player `json:"players"`
	IsLeader bool     `json:"isLeader"`
}

type roomErrorMessage struct {
	Type    string `json:"type"` // "roomError"
	Message string `json:"message"`
}

// Room-wide broadcasts.
type updatePlayersMessage struct {
	Type    string   `json:"type"` // "updatePlayers"
	Players []Player `json:"players"`
}

type startGameMessage struct {
	Type  string `json:"type"` // "startGame"
	Words []Word `json:"words"`
	Timer int    `json:"timer"` // seconds
}

type updateWordsMessage struct {
	Type     string                 `json:"type"` // "updateWords"
	NewWords []Word                 `json:"newWords"`
	Scores   map[string]PlayerScore `json:"scores"`
}

type gameOverMessage struct {
	Type    string                 `json:"type"` // "gameOver"
	Winners []string               `json:"winners"`
	Scores  map[string]PlayerScore `json:"scores"`
	Speeds  map[string]int         `json:"speeds"`
}

// Client is one logical bidirectional channel to a connected player.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, 16),
		done: make(chan struct{}),
	}
}

// enqueue offers a unicast message; a client that cannot keep up is closed
// rather than blocking a room transition.
func (c *Client) enqueue(msg any) {
	select {
	case c.send <- msg:
	default:
		c.close()
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) writePump() {
	defer c.close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readPump(gw *Gateway) {
	defer func() {
		gw.leave(c)
		c.close()
	}()

	c.conn.SetReadLimit(4096)

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		gw.dispatch(c, msg)
	}
}

// Gateway routes inbound events to registry and room operations, with the
// connection id implicitly bound as the acting player.
type Gateway struct {
	cfg      *Config
	registry *Registry
}

func newGateway(cfg *Config, registry *Registry) *Gateway {
	return &Gateway{cfg: cfg, registry: registry}
}

// dispatch handles one inbound event to completion. A panic in any
// transition is contained here: it is logged, the initiating client gets a
// generic room error, and every other room stays untouched.
func (gw *Gateway) dispatch(c *Client, msg clientMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Str("conn", c.id).Str("event", msg.Type).Any("panic", rec).Msg("fault handling event")
			c.enqueue(roomErrorMessage{Type: "roomError", Message: "Something went wrong"})
		}
	}()

	switch msg.Type {
	case "createRoom":
		id := gw.registry.NewRoomID()
		log.Debug().Str("conn", c.id).Str("name", msg.Name).Str("room", id).Msg("room id issued")
		c.enqueue(roomCreatedMessage{Type: "roomCreated", Room: id})

	case "joinRoom":
		name := strings.TrimSpace(msg.Name)
		if name == "" || len(name) > maxNameLength {
			c.enqueue(roomErrorMessage{Type: "roomError", Message: ErrNameRequired.Error()})
			return
		}
		if msg.Room == "" {
			c.enqueue(roomErrorMessage{Type: "roomError", Message: ErrRoomNotFound.Error()})
			return
		}
		room := gw.registry.GetOrCreate(msg.Room)
		if err := room.Join(c, name); err != nil {
			c.enqueue(roomErrorMessage{Type: "roomError", Message: err.Error()})
			return
		}
		gw.registry.Bind(c.id, msg.Room, name)

	case "startGame":
		room, ok := gw.registry.Get(msg.Room)
		if !ok {
			c.enqueue(roomErrorMessage{Type: "roomError", Message: ErrRoomNotFound.Error()})
			return
		}
		duration := time.Duration(msg.Duration) * time.Second
		if err := room.Start(c.id, duration, gw.cfg.maxDuration); err != nil {
			c.enqueue(roomErrorMessage{Type: "roomError", Message: err.Error()})
		}

	case "wordTyped":
		if room, ok := gw.registry.Get(msg.Room); ok {
			room.WordTyped(c.id, msg.Word)
		}

	case "endGame":
		if room, ok := gw.registry.Get(msg.Room); ok {
			room.End()
		}

	case "leaveRoom":
		gw.leave(c)

	default:
		// ignore unknown types
	}
}

// leave is the single convergence point for explicit leaveRoom events and
// transport-level disconnects.
func (gw *Gateway) leave(c *Client) {
	s, ok := gw.registry.Lookup(c.id)
	if !ok {
		return
	}

	if room, found := gw.registry.Get(s.room); found {
		if room.RemovePlayer(c.id) {
			gw.registry.DeleteIfEmpty(s.room)
		}
	}
	gw.registry.Unbind(c.id)

	log.Debug().Str("conn", c.id).Str("room", s.room).Str("name", s.name).Msg("player left")
}

const maxNameLength = 32

func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == cfg.origin
		},
	}
}

func serveWS(cfg *Config, gw *Gateway) httprouter.Handle {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("remote", realIP(r)).Msg("upgrade failed")
			return
		}

		client := newClient(conn)
		log.Debug().Str("conn", client.id).Str("remote", realIP(r)).Msg("connected")

		go client.writePump()
		client.readPump(gw)

		log.Debug().Str("conn", client.id).Msg("disconnected")
	}
}

// qrHandler returns a PNG QR code pointing a phone at the client join page
// for the given room.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")
		if roomID == "" {
			http.Error(w, "missing room id", http.StatusBadRequest)
			return
		}

		url := strings.TrimSuffix(cfg.origin, "/") + "/room/" + roomID

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)

		log.Debug().Str("room", roomID).Str("size", humanReadableSize(int64(len(png)))).Msg("served qr code")
	}
}

// registerMultiplayer wires the realtime surface:
//   - $prefix/ws              → the event websocket
//   - $prefix/room/:roomid/qr → PNG QR code for sharing a room
func registerMultiplayer(cfg *Config, gw *Gateway, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/ws", serveWS(cfg, gw))
	mux.GET(cfg.prefix+"/room/:roomid/qr", qrHandler(cfg))
}
