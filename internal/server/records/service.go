// Package records serves the per-user collections and profiles stored in
// Postgres, and announces every change to the push hub.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
	"github.com/google/uuid"
)

// Store is the record storage. pgstore.Store implements it.
type Store interface {
	Records(ctx context.Context, userID, collection string) ([]json.RawMessage, error)
	Replace(ctx context.Context, userID, collection string, items []json.RawMessage) error
	DeleteCollection(ctx context.Context, userID, collection string) error
	Profile(ctx context.Context, userID string) (pgstore.Profile, error)
	PutProfile(ctx context.Context, p pgstore.Profile) error
	Profiles(ctx context.Context) ([]pgstore.Profile, error)
}

// Publisher receives a notification per changed collection.
type Publisher interface {
	Publish(userID, collection string)
}

type Service struct {
	store     Store
	publisher Publisher
	logger    logging.Logger
}

// NewService builds the service. A nil publisher disables announcements,
// for setups where the database itself feeds the hub.
func NewService(store Store, publisher Publisher, logger logging.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Collection maps a route segment ("med-logs") or a collection name
// ("med_logs") to the stored collection name.
func Collection(segment string) (string, error) {
	c, err := models.ParseCollection(segment)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrNotFound, err)
	}
	return string(c), nil
}

func (s *Service) publish(userID, collection string) {
	if s.publisher != nil {
		s.publisher.Publish(userID, collection)
	}
}

func (s *Service) List(ctx context.Context, userID, segment string) ([]json.RawMessage, error) {
	collection, err := Collection(segment)
	if err != nil {
		return nil, err
	}
	return s.store.Records(ctx, userID, collection)
}

// Replace makes the collection equal to body, a JSON array of objects.
// Objects without an id get a fresh one. The stored array is returned.
func (s *Service) Replace(ctx context.Context, userID, segment string, body []byte) ([]json.RawMessage, error) {
	collection, err := Collection(segment)
	if err != nil {
		return nil, err
	}
	items, err := decodeItems(body)
	if err != nil {
		return nil, err
	}
	if err := s.store.Replace(ctx, userID, collection, items); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "collection replaced", "user_id", userID, "collection", collection, "count", len(items))
	s.publish(userID, collection)
	return items, nil
}

func decodeItems(body []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil || items == nil {
		return nil, fmt.Errorf("%w: body must be a JSON array", common.ErrValidation)
	}
	for i, raw := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: record %d is not an object", common.ErrValidation, i)
		}
		idRaw, ok := obj["id"]
		if ok && string(idRaw) != `""` && string(idRaw) != "null" {
			var id string
			if err := json.Unmarshal(idRaw, &id); err != nil || strings.TrimSpace(id) == "" {
				return nil, fmt.Errorf("%w: record %d has an invalid id", common.ErrValidation, i)
			}
			continue
		}
		obj["id"], _ = json.Marshal(uuid.NewString())
		b, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		items[i] = b
	}
	return items, nil
}

func (s *Service) DeleteAll(ctx context.Context, userID, segment string) error {
	collection, err := Collection(segment)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCollection(ctx, userID, collection); err != nil {
		return err
	}
	s.logger.Info(ctx, "collection deleted", "user_id", userID, "collection", collection)
	s.publish(userID, collection)
	return nil
}

func (s *Service) Profile(ctx context.Context, userID string) (api.Profile, error) {
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return api.Profile{}, err
	}
	return api.Profile{Name: p.Name, Email: p.Email}, nil
}

func (s *Service) PutProfile(ctx context.Context, userID string, p api.Profile) (api.Profile, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.UserID = ""
	if p.Name == "" {
		return api.Profile{}, fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if err := s.store.PutProfile(ctx, pgstore.Profile{UserID: userID, Name: p.Name, Email: p.Email}); err != nil {
		return api.Profile{}, err
	}
	return p, nil
}

func (s *Service) AdminProfiles(ctx context.Context) ([]api.Profile, error) {
	ps, err := s.store.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.Profile, 0, len(ps))
	for _, p := range ps {
		out = append(out, api.Profile{UserID: p.UserID, Name: p.Name, Email: p.Email})
	}
	return out, nil
}

// AdminRecords reads another user's collection. Authorization is the
// caller's concern.
func (s *Service) AdminRecords(ctx context.Context, targetUserID, segment string) ([]json.RawMessage, error) {
	return s.List(ctx, targetUserID, segment)
}
