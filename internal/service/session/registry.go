package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/clinic-portal/internal/service/notification"
)

// Client is everything the portal keeps for one browser context.
type Client struct {
	ID            string
	Session       *Store
	Notifications *notification.Recorder
	// Notifier feeds Notifications and the relay; user actions outside the
	// session store report through it.
	Notifier notification.Notifier
}

// Registry maps client-context ids to their state and forgets idle clients.
type Registry struct {
	mu      sync.Mutex
	clients *cache.Cache
	deps    Deps
	// relay receives every notification in addition to the client's recorder.
	relay notification.Notifier
}

func NewRegistry(deps Deps, relay notification.Notifier, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	r := &Registry{
		clients: cache.New(idleTTL, idleTTL/2),
		deps:    deps,
		relay:   relay,
	}
	r.clients.OnEvicted(func(string, interface{}) {
		r.deps.Metrics.SetActiveClients(r.clients.ItemCount())
	})
	return r
}

// Get returns the client for id, creating it (and restoring any persisted
// session) on first use. Each call extends the idle deadline.
func (r *Registry) Get(ctx context.Context, id string) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, found := r.clients.Get(id); found {
		c := v.(*Client)
		r.clients.SetDefault(id, c)
		return c
	}

	recorder := notification.NewRecorder(0)
	var notifier notification.Notifier = recorder
	if r.relay != nil {
		notifier = notification.Fanout{recorder, notification.WithClient(id, r.relay)}
	}

	c := &Client{
		ID:            id,
		Session:       NewStore(id, r.deps, notifier),
		Notifications: recorder,
		Notifier:      notifier,
	}
	if _, err := c.Session.Restore(ctx); err != nil {
		r.deps.Logger.Warn().Err(err).Str("client_id", id).Msg("failed to restore session")
	}

	r.clients.SetDefault(id, c)
	r.deps.Metrics.SetActiveClients(r.clients.ItemCount())
	return c
}

// Len is the number of live client contexts.
func (r *Registry) Len() int {
	return r.clients.ItemCount()
}
