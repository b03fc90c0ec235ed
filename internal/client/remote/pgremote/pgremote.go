// Package pgremote is the direct database transport: it reads and writes
// the server's Postgres schema and turns NOTIFY events into push
// subscriptions.
package pgremote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
)

// Store is the part of pgstore.Store the transport uses.
type Store interface {
	Records(ctx context.Context, userID, collection string) ([]json.RawMessage, error)
	Replace(ctx context.Context, userID, collection string, items []json.RawMessage) error
	DeleteCollection(ctx context.Context, userID, collection string) error
	Profile(ctx context.Context, userID string) (pgstore.Profile, error)
	PutProfile(ctx context.Context, p pgstore.Profile) error
	Profiles(ctx context.Context) ([]pgstore.Profile, error)
}

type changeSource interface {
	Run(ctx context.Context, fn func(pgstore.Change)) error
}

type Transport struct {
	store  Store
	dsn    string
	logger logging.Logger

	// listen is a seam for tests.
	listen func(ctx context.Context, dsn string) (changeSource, error)
}

func New(store Store, dsn string, logger logging.Logger) *Transport {
	return &Transport{
		store:  store,
		dsn:    dsn,
		logger: logger.With("component", "pgremote"),
		listen: func(ctx context.Context, dsn string) (changeSource, error) {
			return pgstore.Listen(ctx, dsn)
		},
	}
}

func scope(id remote.Identity) (string, error) {
	if id.UserID == "" {
		return "", fmt.Errorf("%w: no user id", common.ErrUnauthorized)
	}
	return id.UserID, nil
}

func (t *Transport) LoadCollection(ctx context.Context, id remote.Identity, c models.Collection) ([]remote.Record, error) {
	uid, err := scope(id)
	if err != nil {
		return nil, err
	}
	items, err := t.store.Records(ctx, uid, string(c))
	if err != nil {
		return nil, err
	}
	return remote.RecordsFromItems(items)
}

func (t *Transport) OverwriteCollection(ctx context.Context, id remote.Identity, c models.Collection, recs []remote.Record) error {
	uid, err := scope(id)
	if err != nil {
		return err
	}
	return t.store.Replace(ctx, uid, string(c), remote.Items(recs))
}

func (t *Transport) DeleteCollection(ctx context.Context, id remote.Identity, c models.Collection) error {
	uid, err := scope(id)
	if err != nil {
		return err
	}
	return t.store.DeleteCollection(ctx, uid, string(c))
}

func (t *Transport) LoadProfile(ctx context.Context, id remote.Identity) (*models.UserProfile, error) {
	uid, err := scope(id)
	if err != nil {
		return nil, err
	}
	p, err := t.store.Profile(ctx, uid)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.UserProfile{Name: p.Name, Email: p.Email}, nil
}

func (t *Transport) SaveProfile(ctx context.Context, id remote.Identity, p models.UserProfile) error {
	uid, err := scope(id)
	if err != nil {
		return err
	}
	return t.store.PutProfile(ctx, pgstore.Profile{UserID: uid, Name: p.Name, Email: p.Email})
}

// Subscribe opens a LISTEN connection and forwards notifications for the
// identity's collection c.
func (t *Transport) Subscribe(ctx context.Context, id remote.Identity, c models.Collection, onChange func()) (func(), error) {
	uid, err := scope(id)
	if err != nil {
		return nil, err
	}
	src, err := t.listen(ctx, t.dsn)
	if err != nil {
		return nil, err
	}

	subCtx, stop := context.WithCancel(ctx)
	go func() {
		err := src.Run(subCtx, func(ch pgstore.Change) {
			if ch.UserID == uid && ch.Collection == string(c) {
				onChange()
			}
		})
		if err != nil {
			t.logger.Warn(subCtx, "change listener stopped", "collection", c, "error", err)
		}
	}()

	var once sync.Once
	return func() { once.Do(stop) }, nil
}

func (t *Transport) ListAllProfiles(ctx context.Context, id remote.Identity) ([]models.UserProfile, error) {
	if !id.Admin {
		return []models.UserProfile{}, nil
	}
	ps, err := t.store.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserProfile, 0, len(ps))
	for _, p := range ps {
		out = append(out, models.UserProfile{UserID: p.UserID, Name: p.Name, Email: p.Email})
	}
	return out, nil
}

func (t *Transport) LoadCollectionForUser(ctx context.Context, id remote.Identity, userID string, c models.Collection) ([]remote.Record, error) {
	if !id.Admin {
		return []remote.Record{}, nil
	}
	items, err := t.store.Records(ctx, userID, string(c))
	if err != nil {
		return nil, err
	}
	return remote.RecordsFromItems(items)
}
