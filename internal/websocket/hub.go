// Package statews streams session state snapshots to browser tabs over
// websockets. All tabs of one browser client share a single subscription.
package statews

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vitaup/VitaUpBack/internal/metrics"
	"github.com/vitaup/VitaUpBack/internal/session"
	"go.uber.org/zap"
)

const (
	TypeState = "state"
	TypeError = "error"
	TypePong  = "pong"

	sendBuffer    = 16
	refreshBudget = 10 * time.Second
)

// StateSource is the session manager of one browser client.
type StateSource interface {
	Subscribe() *session.Subscription
	State() session.State
	RefreshProfile(ctx context.Context) error
}

// Conn is the part of a websocket connection the pumps use.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Message struct {
	Type      string         `json:"type"`
	State     *session.State `json:"state,omitempty"`
	Content   string         `json:"content,omitempty"`
	Timestamp string         `json:"timestamp"`
}

type group struct {
	conns map[*Client]struct{}
	sub   *session.Subscription
}

type envelope struct {
	clientID string
	group    *group
	payload  []byte
}

type direct struct {
	client  *Client
	payload []byte
}

// Hub owns every send queue: only its goroutine sends on or closes them.
type Hub struct {
	clients    map[string]*group
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	drop       chan envelope
	replies    chan direct
	done       chan struct{}
	logger     *zap.Logger
	now        func() time.Time
}

type Client struct {
	hub      *Hub
	conn     Conn
	clientID string
	source   StateSource
	send     chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*group),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 64),
		drop:       make(chan envelope),
		replies:    make(chan direct, 16),
		done:       make(chan struct{}),
		logger:     logger.Named("statews"),
		now:        time.Now,
	}
}

func NewClient(hub *Hub, conn Conn, clientID string, source StateSource) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		clientID: clientID,
		source:   source,
		send:     make(chan []byte, sendBuffer),
	}
}

// Run owns the connection registry until ctx is done, then closes every
// connection's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for id, g := range h.clients {
				h.closeGroup(id, g)
			}
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			g, ok := h.clients[client.clientID]
			if !ok {
				continue
			}
			if _, exists := g.conns[client]; exists {
				h.remove(g, client)
			}
			if len(g.conns) == 0 {
				g.sub.Close()
				delete(h.clients, client.clientID)
			}
		case env := <-h.broadcast:
			h.deliver(env)
		case out := <-h.replies:
			h.reply(out)
		case env := <-h.drop:
			if g, ok := h.clients[env.clientID]; ok && g == env.group {
				h.closeGroup(env.clientID, g)
			}
		}
	}
}

func (h *Hub) add(client *Client) {
	g, ok := h.clients[client.clientID]
	if !ok {
		g = &group{conns: make(map[*Client]struct{}), sub: client.source.Subscribe()}
		h.clients[client.clientID] = g
		go h.forward(client.clientID, g, g.sub)
	} else if payload, err := h.encodeState(client.source.State()); err == nil {
		// The shared subscription already delivered the current state.
		client.send <- payload
	}
	g.conns[client] = struct{}{}
	metrics.StateStreams.Inc()
}

func (h *Hub) remove(g *group, client *Client) {
	delete(g.conns, client)
	close(client.send)
	metrics.StateStreams.Dec()
}

func (h *Hub) closeGroup(clientID string, g *group) {
	for client := range g.conns {
		h.remove(g, client)
	}
	g.sub.Close()
	delete(h.clients, clientID)
}

// forward turns snapshots of one subscription into broadcasts. A closed
// subscription means the manager is gone, so its connections are dropped.
func (h *Hub) forward(clientID string, g *group, sub *session.Subscription) {
	for state := range sub.C {
		payload, err := h.encodeState(state)
		if err != nil {
			h.logger.Error("state_encode_failed", zap.String("client_id", clientID), zap.Error(err))
			continue
		}
		select {
		case h.broadcast <- envelope{clientID: clientID, group: g, payload: payload}:
		case <-h.done:
			return
		}
	}
	select {
	case h.drop <- envelope{clientID: clientID, group: g}:
	case <-h.done:
	}
}

func (h *Hub) deliver(env envelope) {
	g, ok := h.clients[env.clientID]
	if !ok || g != env.group {
		return
	}
	for client := range g.conns {
		select {
		case client.send <- env.payload:
		default:
			h.remove(g, client)
		}
	}
}

// reply queues a direct answer for one connection that is still
// registered. A full queue drops the connection.
func (h *Hub) reply(out direct) {
	g, ok := h.clients[out.client.clientID]
	if !ok {
		return
	}
	if _, live := g.conns[out.client]; !live {
		return
	}
	select {
	case out.client.send <- out.payload:
	default:
		h.remove(g, out.client)
	}
}

func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) encodeState(state session.State) ([]byte, error) {
	return json.Marshal(Message{Type: TypeState, State: &state, Timestamp: h.timestamp()})
}

func (h *Hub) timestamp() string {
	return h.now().UTC().Format(time.RFC3339)
}
