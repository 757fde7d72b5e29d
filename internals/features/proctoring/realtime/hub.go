package realtime

import (
	"context"
	"log"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Message is the socket envelope in both directions.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Bridge fans room traffic out to other instances.
type Bridge interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver func(Envelope)) error
	Close() error
}

// Envelope is one broadcast as it travels between instances.
type Envelope struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Except  string `json:"except,omitempty"`
	Payload []byte `json:"payload"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Role   string
	send   chan []byte
	closed sync.Once
}

func NewClient(userID uuid.UUID, role string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 32
	}
	return &Client{ID: uuid.NewString(), UserID: userID, Role: role, send: make(chan []byte, buffer)}
}

// Outbox is drained by the connection's writer.
func (c *Client) Outbox() <-chan []byte { return c.send }

type Hub struct {
	id     string
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	member map[*Client]map[string]struct{}
	bridge Bridge
}

func NewHub() *Hub {
	return &Hub{
		id:     uuid.NewString(),
		rooms:  map[string]map[*Client]struct{}{},
		member: map[*Client]map[string]struct{}{},
	}
}

// AttachBridge starts relaying remote broadcasts into local rooms.
func (h *Hub) AttachBridge(ctx context.Context, b Bridge) error {
	if err := b.Subscribe(ctx, func(env Envelope) {
		if env.Origin == h.id {
			return
		}
		h.deliver(env.Room, env.Payload, env.Except)
	}); err != nil {
		return err
	}
	h.mu.Lock()
	h.bridge = b
	h.mu.Unlock()
	return nil
}

func RoomForAttempt(attemptID uuid.UUID) string { return "exam-" + attemptID.String() }

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = map[*Client]struct{}{}
	}
	h.rooms[room][c] = struct{}{}
	if h.member[c] == nil {
		h.member[c] = map[string]struct{}{}
	}
	h.member[c][room] = struct{}{}
}

func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.member[c][room]
	return ok
}

// Leave drops the client from every room and closes its outbox. Safe to call twice.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.member[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.member, c)
	c.closed.Do(func() { close(c.send) })
}

// Broadcast sends event to everyone in room except the client with id except.
func (h *Hub) Broadcast(room, event string, data any, except string) {
	payload, err := sonic.Marshal(Message{Event: event, Data: data})
	if err != nil {
		log.Printf("[REALTIME] marshal %s: %v", event, err)
		return
	}
	h.deliver(room, payload, except)

	h.mu.RLock()
	b := h.bridge
	h.mu.RUnlock()
	if b != nil {
		env := Envelope{Origin: h.id, Room: room, Except: except, Payload: payload}
		if err := b.Publish(context.Background(), env); err != nil {
			log.Printf("[REALTIME] bridge publish %s: %v", room, err)
		}
	}
}

// Emit broadcasts to the whole room; it satisfies the proctoring service's broadcaster.
func (h *Hub) Emit(room, event string, data any) { h.Broadcast(room, event, data, "") }

func (h *Hub) deliver(room string, payload []byte, except string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		if c.ID == except {
			continue
		}
		select {
		case c.send <- payload:
		default:
			log.Printf("[REALTIME] dropping %s message for slow client %s", room, c.ID)
		}
	}
}

func (h *Hub) Close() error {
	h.mu.Lock()
	b := h.bridge
	h.bridge = nil
	h.mu.Unlock()
	if b != nil {
		return b.Close()
	}
	return nil
}
