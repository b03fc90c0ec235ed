// Package remote defines the contract every backend transport satisfies.
// Exactly one implementation is selected at startup; optional capabilities
// (push subscriptions, administrative reads) are discovered with type
// assertions.
package remote

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
)

// Identity is the authenticated user a call is scoped to. It is passed on
// every call; transports keep no session of their own.
type Identity struct {
	UserID string
	Email  string
	Token  string
	Admin  bool
}

// Record is one element of a collection: its id plus the full JSON object.
type Record struct {
	ID   string
	Data json.RawMessage
}

type Transport interface {
	// LoadCollection returns every record of c owned by id.
	LoadCollection(ctx context.Context, id Identity, c models.Collection) ([]Record, error)

	// OverwriteCollection makes the remote collection equal to recs:
	// records missing from recs are removed, the rest are upserted.
	// Calling it twice with the same recs must be harmless.
	OverwriteCollection(ctx context.Context, id Identity, c models.Collection, recs []Record) error

	// LoadProfile returns nil, nil when no profile is stored.
	LoadProfile(ctx context.Context, id Identity) (*models.UserProfile, error)

	SaveProfile(ctx context.Context, id Identity, p models.UserProfile) error
}

// Subscriber is implemented by transports that can push change events.
type Subscriber interface {
	// Subscribe calls onChange whenever c changes remotely for id, from any
	// client. onChange may run on any goroutine.
	Subscribe(ctx context.Context, id Identity, c models.Collection, onChange func()) (unsubscribe func(), err error)
}

// Clearer is implemented by transports with a dedicated delete-all call.
// Without it an empty OverwriteCollection has the same effect.
type Clearer interface {
	DeleteCollection(ctx context.Context, id Identity, c models.Collection) error
}

// Admin is implemented by transports with an administrative read surface.
// Implementations answer with an empty result, not an error, when id is not
// privileged.
type Admin interface {
	ListAllProfiles(ctx context.Context, id Identity) ([]models.UserProfile, error)
	LoadCollectionForUser(ctx context.Context, id Identity, userID string, c models.Collection) ([]Record, error)
}
