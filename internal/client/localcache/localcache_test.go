package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/repositories/cache"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*Cache, cache.Repository) {
	t.Helper()
	repo, db, err := cache.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(repo, logging.Nop()), repo
}

// failingRepo embeds the interface so unimplemented methods panic; the
// overridden ones fail.
type failingRepo struct {
	cache.Repository
	stored map[string][]byte
}

func (f *failingRepo) Get(ctx context.Context, key string) ([]byte, error) {
	return f.stored[key], nil
}

func (f *failingRepo) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("quota exceeded")
}

// unclearableRepo stores in memory but cannot run Clear.
type unclearableRepo struct {
	stored map[string][]byte
}

func (u *unclearableRepo) Get(ctx context.Context, key string) ([]byte, error) {
	return u.stored[key], nil
}

func (u *unclearableRepo) Set(ctx context.Context, key string, value []byte) error {
	u.stored[key] = value
	return nil
}

func (u *unclearableRepo) Clear(ctx context.Context) error {
	return errors.New("database is locked")
}

func TestReadCollection_MissingIsEmpty(t *testing.T) {
	c, _ := newCache(t)

	got := c.ReadCollection(models.Medications)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWriteThenReadCollection(t *testing.T) {
	c, _ := newCache(t)
	items := []json.RawMessage{
		json.RawMessage(`{"id":"m1","name":"Metformin"}`),
		json.RawMessage(`{"id":"m2","name":"Aspirin"}`),
	}

	c.WriteCollection(models.Medications, items)

	got := c.ReadCollection(models.Medications)
	require.Len(t, got, 2)
	assert.JSONEq(t, string(items[0]), string(got[0]))
	assert.JSONEq(t, string(items[1]), string(got[1]))
}

func TestReadCollection_CorruptIsEmpty(t *testing.T) {
	c, repo := newCache(t)
	require.NoError(t, repo.Set(context.Background(), models.Appointments.CacheKey(), []byte("{not json")))

	assert.Empty(t, c.ReadCollection(models.Appointments))
}

func TestReadCollection_NullIsEmpty(t *testing.T) {
	c, repo := newCache(t)
	require.NoError(t, repo.Set(context.Background(), models.IntakeLogs.CacheKey(), []byte("null")))

	got := c.ReadCollection(models.IntakeLogs)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProfile_DefaultAndRoundTrip(t *testing.T) {
	c, repo := newCache(t)

	assert.Equal(t, models.DefaultProfile(), c.ReadProfile())

	p := models.UserProfile{Name: "Anna", Email: "anna@example.com"}
	c.WriteProfile(p)
	assert.Equal(t, p, c.ReadProfile())

	require.NoError(t, repo.Set(context.Background(), models.UserKey, []byte("[")))
	assert.Equal(t, models.DefaultProfile(), c.ReadProfile())
}

func TestWriteFailure_KeepsPriorValue(t *testing.T) {
	prior := []byte(`[{"id":"m1"}]`)
	repo := &failingRepo{stored: map[string][]byte{models.Medications.CacheKey(): prior}}
	c := New(repo, logging.Nop())

	assert.NotPanics(t, func() {
		c.WriteCollection(models.Medications, []json.RawMessage{json.RawMessage(`{"id":"m2"}`)})
	})

	got := c.ReadCollection(models.Medications)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"id":"m1"}`, string(got[0]))
}

func TestReset(t *testing.T) {
	c, _ := newCache(t)
	for _, col := range models.AllCollections() {
		c.WriteCollection(col, []json.RawMessage{json.RawMessage(`{"id":"x"}`)})
	}
	c.WriteProfile(models.UserProfile{Name: "Anna", Email: "anna@example.com"})

	c.Reset()

	for _, col := range models.AllCollections() {
		assert.Empty(t, c.ReadCollection(col), col)
	}
	assert.Equal(t, models.DefaultProfile(), c.ReadProfile())
}

func TestReset_FallsBackToOverwrite(t *testing.T) {
	repo := &unclearableRepo{stored: map[string][]byte{}}
	c := New(repo, logging.Nop())
	c.WriteCollection(models.Medications, []json.RawMessage{json.RawMessage(`{"id":"m1"}`)})
	c.WriteProfile(models.UserProfile{Name: "Anna"})

	c.Reset()

	assert.Empty(t, c.ReadCollection(models.Medications))
	assert.Equal(t, models.DefaultProfile(), c.ReadProfile())
}
