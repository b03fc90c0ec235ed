package records

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Store = (*pgstore.Store)(nil)

type key struct{ user, collection string }

type memStore struct {
	records  map[key][]json.RawMessage
	profiles map[string]pgstore.Profile
	err      error
}

func newMemStore() *memStore {
	return &memStore{records: map[key][]json.RawMessage{}, profiles: map[string]pgstore.Profile{}}
}

func (m *memStore) Records(_ context.Context, userID, collection string) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := append([]json.RawMessage{}, m.records[key{userID, collection}]...)
	return out, nil
}

func (m *memStore) Replace(_ context.Context, userID, collection string, items []json.RawMessage) error {
	if m.err != nil {
		return m.err
	}
	m.records[key{userID, collection}] = items
	return nil
}

func (m *memStore) DeleteCollection(_ context.Context, userID, collection string) error {
	delete(m.records, key{userID, collection})
	return m.err
}

func (m *memStore) Profile(_ context.Context, userID string) (pgstore.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return pgstore.Profile{}, common.ErrNotFound
	}
	return p, nil
}

func (m *memStore) PutProfile(_ context.Context, p pgstore.Profile) error {
	m.profiles[p.UserID] = p
	return m.err
}

func (m *memStore) Profiles(context.Context) ([]pgstore.Profile, error) {
	var out []pgstore.Profile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, m.err
}

type recorder struct {
	events []string
}

func (r *recorder) Publish(userID, collection string) {
	r.events = append(r.events, userID+":"+collection)
}

func TestCollection(t *testing.T) {
	c, err := Collection("med-logs")
	require.NoError(t, err)
	assert.Equal(t, "med_logs", c)

	c, err = Collection("appointments")
	require.NoError(t, err)
	assert.Equal(t, "appointments", c)

	_, err = Collection("users")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplace_AssignsIDsAndPublishes(t *testing.T) {
	store, pub := newMemStore(), &recorder{}
	svc := NewService(store, pub, logging.Nop())

	saved, err := svc.Replace(context.Background(), "u1", "med-logs",
		[]byte(`[{"id":"l1","taken":true},{"medId":"m1"},{"id":"","medId":"m2"}]`))
	require.NoError(t, err)
	require.Len(t, saved, 3)

	assert.JSONEq(t, `{"id":"l1","taken":true}`, string(saved[0]))
	for _, raw := range saved[1:] {
		var v struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &v))
		assert.Len(t, v.ID, 36)
	}
	assert.Equal(t, saved, store.records[key{"u1", "med_logs"}])
	assert.Equal(t, []string{"u1:med_logs"}, pub.events)

	got, err := svc.List(context.Background(), "u1", "med_logs")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestReplace_Empty(t *testing.T) {
	store := newMemStore()
	store.records[key{"u1", "medications"}] = []json.RawMessage{json.RawMessage(`{"id":"m1"}`)}
	svc := NewService(store, nil, logging.Nop())

	saved, err := svc.Replace(context.Background(), "u1", "medications", []byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, store.records[key{"u1", "medications"}])
}

func TestReplace_Invalid(t *testing.T) {
	svc := NewService(newMemStore(), &recorder{}, logging.Nop())
	ctx := context.Background()

	for _, body := range []string{`{"id":"m1"}`, `null`, `[1,2]`, `[{"id":5}]`, `[{"id":"  "}]`, `not json`} {
		_, err := svc.Replace(ctx, "u1", "medications", []byte(body))
		assert.ErrorIs(t, err, common.ErrValidation, body)
	}
	_, err := svc.Replace(ctx, "u1", "users", []byte(`[]`))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplace_StoreFailureIsNotPublished(t *testing.T) {
	store, pub := newMemStore(), &recorder{}
	store.err = errors.New("db down")
	svc := NewService(store, pub, logging.Nop())

	_, err := svc.Replace(context.Background(), "u1", "medications", []byte(`[]`))
	assert.EqualError(t, err, "db down")
	assert.Empty(t, pub.events)
}

func TestDeleteAll(t *testing.T) {
	store, pub := newMemStore(), &recorder{}
	store.records[key{"u1", "appointments"}] = []json.RawMessage{json.RawMessage(`{"id":"a1"}`)}
	svc := NewService(store, pub, logging.Nop())

	require.NoError(t, svc.DeleteAll(context.Background(), "u1", "appointments"))
	assert.Empty(t, store.records)
	assert.Equal(t, []string{"u1:appointments"}, pub.events)
}

func TestProfiles(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil, logging.Nop())
	ctx := context.Background()

	_, err := svc.Profile(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = svc.PutProfile(ctx, "u1", api.Profile{Name: "  "})
	assert.ErrorIs(t, err, common.ErrValidation)

	saved, err := svc.PutProfile(ctx, "u1", api.Profile{UserID: "spoofed", Name: " Anna ", Email: "anna@example.com"})
	require.NoError(t, err)
	assert.Equal(t, api.Profile{Name: "Anna", Email: "anna@example.com"}, saved)
	assert.Equal(t, pgstore.Profile{UserID: "u1", Name: "Anna", Email: "anna@example.com"}, store.profiles["u1"])

	got, err := svc.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	all, err := svc.AdminProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []api.Profile{{UserID: "u1", Name: "Anna", Email: "anna@example.com"}}, all)
}
