// Package notify fans collection-change events out to registered callbacks.
package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

type Callback func(c models.Collection)

type subscription struct {
	id uint64
	cb Callback
}

// Notifier invokes callbacks in registration order. A panicking callback is
// logged and does not stop the others.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	logger logging.Logger
}

func New(logger logging.Logger) *Notifier {
	return &Notifier{logger: logger.With("component", "notify")}
}

// Subscribe registers cb and returns a function that removes it. Calling
// the returned function more than once is harmless.
func (n *Notifier) Subscribe(cb Callback) (unsubscribe func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, cb: cb})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { n.remove(id) })
	}
}

func (n *Notifier) remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
			return
		}
	}
}

// Notify calls every registered callback with c, synchronously. Callbacks
// registered or removed while Notify runs take effect on the next call.
func (n *Notifier) Notify(c models.Collection) {
	n.mu.RLock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.RUnlock()

	for _, s := range subs {
		n.invoke(c, s.cb)
	}
}

func (n *Notifier) invoke(c models.Collection, cb Callback) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error(context.Background(), "change listener panicked",
				"collection", c, "panic", fmt.Sprint(r))
		}
	}()
	cb(c)
}

// Len reports the number of registered callbacks.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
