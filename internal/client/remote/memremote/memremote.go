// Package memremote is an in-process transport. It backs the "memory"
// transport setting (a single-device demo mode with no server) and doubles
// as a controllable backend in tests: hooks can fail or block calls, and Put
// simulates a write from another device.
package memremote

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
)

// Hook is called before an operation; a non-nil error fails the operation.
type Hook func(userID string, c models.Collection) error

type subKey struct {
	userID string
	c      models.Collection
}

type Store struct {
	mu       sync.Mutex
	data     map[string]map[models.Collection][]remote.Record
	profiles map[string]models.UserProfile
	subs     map[subKey]map[int]func()
	nextSub  int

	loadHook      Hook
	overwriteHook Hook
	overwrites    int
	deletes       int
}

func New() *Store {
	return &Store{
		data:     make(map[string]map[models.Collection][]remote.Record),
		profiles: make(map[string]models.UserProfile),
		subs:     make(map[subKey]map[int]func()),
	}
}

func (s *Store) SetLoadHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadHook = h
}

func (s *Store) SetOverwriteHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overwriteHook = h
}

func (s *Store) LoadCollection(ctx context.Context, id remote.Identity, c models.Collection) ([]remote.Record, error) {
	s.mu.Lock()
	hook := s.loadHook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(id.UserID, c); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Records(id.UserID, c), nil
}

func (s *Store) OverwriteCollection(ctx context.Context, id remote.Identity, c models.Collection, recs []remote.Record) error {
	s.mu.Lock()
	hook := s.overwriteHook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(id.UserID, c); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.overwrites++
	s.mu.Unlock()

	s.Put(id.UserID, c, recs)
	return nil
}

func (s *Store) LoadProfile(ctx context.Context, id remote.Identity) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id.UserID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) SaveProfile(ctx context.Context, id remote.Identity, p models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UserID = ""
	s.profiles[id.UserID] = p
	return nil
}

// Subscribe registers onChange for writes to (id, c). Callbacks run
// synchronously on the writer's goroutine.
func (s *Store) Subscribe(ctx context.Context, id remote.Identity, c models.Collection, onChange func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := subKey{userID: id.UserID, c: c}
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func())
	}
	s.nextSub++
	n := s.nextSub
	s.subs[key][n] = onChange

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[key], n)
		})
	}, nil
}

func (s *Store) ListAllProfiles(ctx context.Context, id remote.Identity) ([]models.UserProfile, error) {
	if !id.Admin {
		return []models.UserProfile{}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.UserProfile, 0, len(s.profiles))
	for uid, p := range s.profiles {
		p.UserID = uid
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *Store) LoadCollectionForUser(ctx context.Context, id remote.Identity, userID string, c models.Collection) ([]remote.Record, error) {
	if !id.Admin {
		return []remote.Record{}, nil
	}
	return s.Records(userID, c), nil
}

// Put replaces (userID, c) with recs and fires subscriptions, as a write
// from another device would.
func (s *Store) Put(userID string, c models.Collection, recs []remote.Record) {
	cp := make([]remote.Record, len(recs))
	for i, r := range recs {
		cp[i] = remote.Record{ID: r.ID, Data: append(json.RawMessage(nil), r.Data...)}
	}

	s.mu.Lock()
	if s.data[userID] == nil {
		s.data[userID] = make(map[models.Collection][]remote.Record)
	}
	s.data[userID][c] = cp
	var callbacks []func()
	for _, cb := range s.subs[subKey{userID: userID, c: c}] {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}
}

// Records returns a copy of (userID, c).
func (s *Store) Records(userID string, c models.Collection) []remote.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.data[userID][c]
	out := make([]remote.Record, len(src))
	copy(out, src)
	return out
}

// DeleteCollection empties (id, c) and fires subscriptions.
func (s *Store) DeleteCollection(ctx context.Context, id remote.Identity, c models.Collection) error {
	s.mu.Lock()
	hook := s.overwriteHook
	s.mu.Unlock()
	if hook != nil {
		if err := hook(id.UserID, c); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.deletes++
	s.mu.Unlock()

	s.Put(id.UserID, c, nil)
	return nil
}

// Deletes counts successful DeleteCollection calls.
func (s *Store) Deletes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletes
}

// Overwrites counts successful OverwriteCollection calls.
func (s *Store) Overwrites() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overwrites
}

// Subscriptions counts live subscriptions.
func (s *Store) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.subs {
		n += len(m)
	}
	return n
}
