package session

import (
	"context"
	"sync"
	"time"

	"github.com/vitaup/VitaUpBack/internal/metrics"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

// Client pairs a browser client's manager with the store client it owns.
// Screens use Store directly for feature logs.
type Client struct {
	ID      string
	Manager *Manager
	Store   store.Client

	lastSeen time.Time
}

// Registry hosts one manager per browser client and evicts idle ones.
type Registry struct {
	factory store.Factory
	opts    Options
	idleTTL time.Duration
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
	closed  bool
}

func NewRegistry(factory store.Factory, opts Options, idleTTL time.Duration) *Registry {
	opts = opts.withDefaults()
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry{
		factory: factory,
		opts:    opts,
		idleTTL: idleTTL,
		logger:  opts.Logger.Named("registry"),
		now:     opts.Now,
		clients: make(map[string]*Client),
	}
}

// Get returns the client for id, creating and starting it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Client, error) {
	if client, ok := r.touch(id); ok {
		return client, nil
	}

	storeClient, err := r.factory()
	if err != nil {
		return nil, err
	}
	manager := NewManager(storeClient, r.opts)
	if err := manager.Start(ctx); err != nil {
		manager.Close()
		_ = storeClient.Close()
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		manager.Close()
		_ = storeClient.Close()
		return nil, ErrClosed
	}
	if existing, ok := r.clients[id]; ok {
		existing.lastSeen = r.now()
		r.mu.Unlock()
		manager.Close()
		_ = storeClient.Close()
		return existing, nil
	}
	client := &Client{ID: id, Manager: manager, Store: storeClient, lastSeen: r.now()}
	r.clients[id] = client
	metrics.ActiveClients.Set(float64(len(r.clients)))
	r.mu.Unlock()

	r.logger.Debug("client_created", zap.String("client_id", id))
	return client, nil
}

func (r *Registry) touch(id string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, ok := r.clients[id]
	if ok {
		client.lastSeen = r.now()
	}
	return client, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep evicts clients idle for longer than the idle TTL. A client with an
// open state subscription is in use and counts as seen now.
func (r *Registry) Sweep() int {
	now := r.now()
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var idle []*Client
	for id, client := range r.clients {
		if client.Manager.Subscribers() > 0 {
			client.lastSeen = now
			continue
		}
		if client.lastSeen.Before(cutoff) {
			idle = append(idle, client)
			delete(r.clients, id)
		}
	}
	metrics.ActiveClients.Set(float64(len(r.clients)))
	r.mu.Unlock()

	for _, client := range idle {
		r.shutdown(client)
	}
	if len(idle) > 0 {
		r.logger.Info("idle_clients_evicted", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	clients := r.clients
	r.clients = make(map[string]*Client)
	metrics.ActiveClients.Set(0)
	r.mu.Unlock()

	for _, client := range clients {
		r.shutdown(client)
	}
}

func (r *Registry) shutdown(client *Client) {
	client.Manager.Close()
	if err := client.Store.Close(); err != nil {
		r.logger.Warn("store_client_close_failed", zap.String("client_id", client.ID), zap.Error(err))
	}
}
