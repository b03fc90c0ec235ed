// Package hub fans collection change events out to the websocket
// subscribers of each user.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
)

// subscriberBuffer bounds the events queued per subscriber. An event tells
// the client to reload, so when the buffer is full the new event is
// redundant and dropped.
const subscriberBuffer = 4

type subscriber struct {
	collection string
	ch         chan api.ChangeEvent
}

type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[uint64]*subscriber
	next   uint64
	now    func() time.Time
	logger logging.Logger
}

func New(logger logging.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[uint64]*subscriber),
		now:    time.Now,
		logger: logger,
	}
}

// Subscribe registers for changes of the user's collection; an empty
// collection matches all of them. The returned function unsubscribes and
// closes the channel; calling it again is harmless.
func (h *Hub) Subscribe(userID, collection string) (<-chan api.ChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	id := h.next
	s := &subscriber{collection: collection, ch: make(chan api.ChangeEvent, subscriberBuffer)}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]*subscriber)
	}
	h.subs[userID][id] = s

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(s.ch)
		})
	}
}

// Publish notifies the user's subscribers of collection. It never blocks.
func (h *Hub) Publish(userID, collection string) {
	ev := api.ChangeEvent{Collection: collection, At: h.now().UnixMilli()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs[userID] {
		if s.collection != "" && s.collection != collection {
			continue
		}
		select {
		case s.ch <- ev:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions of the user.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

// Source delivers database change notifications; pgstore.Listener is one.
type Source interface {
	Run(ctx context.Context, fn func(pgstore.Change)) error
}

// Feed publishes every change from src until ctx is done.
func (h *Hub) Feed(ctx context.Context, src Source) error {
	h.logger.Info(ctx, "feeding push hub from database notifications")
	return src.Run(ctx, func(c pgstore.Change) {
		h.Publish(c.UserID, c.Collection)
	})
}
