package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/engine"
	"github.com/dmitrijs2005/mediminder/internal/client/localcache"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/notify"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/memremote"
	"github.com/dmitrijs2005/mediminder/internal/client/repositories/cache"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store   = (*engine.Engine)(nil)
	_ Session = (*engine.Engine)(nil)
)

// fakeClock is a settable Clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func newStore(t *testing.T) (*engine.Engine, *memremote.Store) {
	t.Helper()
	repo, db, err := cache.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rem := memremote.New()
	e := engine.New(localcache.New(repo, logging.Nop()), rem, notify.New(logging.Nop()), logging.Nop(), engine.Options{})
	t.Cleanup(e.Close)
	return e, rem
}

func aspirin() models.Medication {
	return models.Medication{Name: " Aspirin ", Dosage: "100mg", Frequency: models.FrequencyDaily1, Times: []string{"12:00"}}
}

func TestMedicationService_AddGetUpdate(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	svc := NewMedicationService(store, clock.now)

	m, err := svc.Add(aspirin())
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "Aspirin", m.Name)

	got, err := svc.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	m.Dosage = "75mg"
	require.NoError(t, svc.Update(m))
	got, err = svc.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "75mg", got.Dosage)
	assert.Len(t, svc.List(), 1)
}

func TestMedicationService_Errors(t *testing.T) {
	store, _ := newStore(t)
	svc := NewMedicationService(store, newClock().now)

	bad := aspirin()
	bad.Times = nil
	_, err := svc.Add(bad)
	require.ErrorIs(t, err, common.ErrValidation)

	garbled := aspirin()
	garbled.Name = "Asp\xffirin"
	_, err = svc.Add(garbled)
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Get("nope")
	require.ErrorIs(t, err, common.ErrNotFound)

	missing := aspirin()
	missing.ID = "nope"
	require.ErrorIs(t, svc.Update(missing), common.ErrNotFound)

	_, err = svc.Delete("nope")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Empty(t, svc.List())
}

func TestUndo_RestoresEqualRecordAtSamePosition(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	meds := NewMedicationService(store, clock.now)
	undo := NewUndoService(store, clock.now, DefaultUndoWindow)

	var added []models.Medication
	for _, name := range []string{"A", "B", "C"} {
		m := aspirin()
		m.Name = name
		m, err := meds.Add(m)
		require.NoError(t, err)
		added = append(added, m)
	}

	u, err := meds.Delete(added[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Index)
	assert.Equal(t, models.Medications, u.Collection)
	assert.Equal(t, []models.Medication{added[0], added[2]}, meds.List())

	require.NoError(t, undo.Undo(u))
	assert.Equal(t, added, meds.List())

	require.ErrorIs(t, undo.Undo(u), common.ErrAlreadyExists)
}

func TestUndo_ExpiredAndInvalid(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	appts := NewAppointmentService(store, clock.now)
	undo := NewUndoService(store, clock.now, time.Minute)

	a, err := appts.Add(models.Appointment{DoctorName: "Dr. Who", Date: "2025-03-12", Time: "10:00"})
	require.NoError(t, err)
	u, err := appts.Delete(a.ID)
	require.NoError(t, err)

	clock.advance(2 * time.Minute)
	require.ErrorIs(t, undo.Undo(u), ErrUndoExpired)
	require.ErrorIs(t, undo.Undo(models.PendingUndo{}), common.ErrValidation)
	assert.Empty(t, appts.List())
}

func TestUndo_IndexPastEndAppends(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	meds := NewMedicationService(store, clock.now)

	a, err := meds.Add(aspirin())
	require.NoError(t, err)
	u, err := meds.Delete(a.ID)
	require.NoError(t, err)
	u.Index = 7

	b, err := meds.Add(aspirin())
	require.NoError(t, err)

	require.NoError(t, NewUndoService(store, clock.now, 0).Undo(u))
	assert.Equal(t, []models.Medication{b, a}, meds.List())
}

func TestIntakeService_ToggleSequence(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	svc := NewIntakeService(store, clock.now)

	taken, err := svc.Toggle("m1", "2025-03-10", "08:00")
	require.NoError(t, err)
	assert.True(t, taken)
	logs := store.IntakeLogs()
	require.Len(t, logs, 1)
	id := logs[0].ID
	require.NotNil(t, logs[0].TakenAt)
	assert.True(t, logs[0].TakenAt.Equal(clock.t))

	clock.advance(time.Minute)
	taken, err = svc.Toggle("m1", "2025-03-10", "08:00")
	require.NoError(t, err)
	assert.False(t, taken)
	logs = store.IntakeLogs()
	require.Len(t, logs, 1)
	assert.False(t, logs[0].Taken)
	assert.Nil(t, logs[0].TakenAt)
	assert.False(t, svc.IsTaken("m1", "2025-03-10", "08:00"))

	clock.advance(time.Minute)
	taken, err = svc.Toggle("m1", "2025-03-10", "08:00")
	require.NoError(t, err)
	assert.True(t, taken)
	logs = store.IntakeLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, id, logs[0].ID)
	require.NotNil(t, logs[0].TakenAt)
	assert.True(t, logs[0].TakenAt.Equal(clock.t))
	assert.True(t, svc.IsTaken("m1", "2025-03-10", "08:00"))
}

func TestIntakeService_ToggleRejectsBadSlot(t *testing.T) {
	store, _ := newStore(t)
	svc := NewIntakeService(store, newClock().now)

	_, err := svc.Toggle("m1", "10/03/2025", "08:00")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Toggle("m1", "2025-03-10", "8am")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, store.IntakeLogs())
}

func TestIntakeService_MarkAllTimesToday(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	meds := NewMedicationService(store, clock.now)
	svc := NewIntakeService(store, clock.now)

	m := aspirin()
	m.Frequency = models.FrequencyDaily2
	m.Times = []string{"08:00", "20:00"}
	m, err := meds.Add(m)
	require.NoError(t, err)

	_, err = svc.Toggle(m.ID, "2025-03-10", "08:00")
	require.NoError(t, err)
	assert.False(t, svc.AllTakenToday(m.ID))

	require.NoError(t, svc.MarkAllTimesToday(m.ID))
	assert.True(t, svc.AllTakenToday(m.ID))
	assert.Len(t, store.IntakeLogs(), 2)

	require.NoError(t, svc.MarkAllTimesToday(m.ID))
	assert.True(t, svc.IsTaken(m.ID, "2025-03-10", "08:00"))

	require.ErrorIs(t, svc.MarkAllTimesToday("nope"), common.ErrNotFound)
	assert.False(t, svc.AllTakenToday("nope"))
}

func TestIntakeService_TodaySchedule(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()
	svc := NewIntakeService(store, clock.now)
	store.SaveMedications([]models.Medication{
		{ID: "m1", Name: "Metformin", Dosage: "500mg", Frequency: models.FrequencyDaily2, Times: []string{"20:00", "08:00"}},
		{ID: "m2", Name: "Aspirin", Dosage: "100mg", Frequency: models.FrequencyDaily1, Times: []string{"20:00"}},
	})
	_, err := svc.Toggle("m1", "2025-03-10", "08:00")
	require.NoError(t, err)
	_, err = svc.Toggle("m2", "2025-03-09", "20:00")
	require.NoError(t, err)

	rows := svc.TodaySchedule()
	require.Len(t, rows, 3)
	assert.Equal(t, "08:00", rows[0].Time)
	assert.True(t, rows[0].Taken)
	assert.Equal(t, "Aspirin", rows[1].Medication.Name)
	assert.False(t, rows[1].Taken)
	assert.Equal(t, "Metformin", rows[2].Medication.Name)
	assert.Equal(t, "20:00", rows[2].Time)
}

func TestAppointmentService(t *testing.T) {
	store, _ := newStore(t)
	svc := NewAppointmentService(store, newClock().now)

	late, err := svc.Add(models.Appointment{DoctorName: "Dr. B", Date: "2025-04-01", Time: "09:00", Status: models.StatusDone})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, late.Status)
	early, err := svc.Add(models.Appointment{DoctorName: "Dr. A", Date: "2025-03-20", Time: "15:00"})
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, early.ID, list[0].ID)

	require.NoError(t, svc.SetStatus(early.ID, models.StatusMissed))
	got, err := svc.Get(early.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusMissed, got.Status)

	require.ErrorIs(t, svc.SetStatus(early.ID, "cancelled"), common.ErrValidation)
	require.ErrorIs(t, svc.SetStatus("nope", models.StatusDone), common.ErrNotFound)

	late.Location = "Room 4"
	require.NoError(t, svc.Update(late))
	got, err = svc.Get(late.ID)
	require.NoError(t, err)
	assert.Equal(t, "Room 4", got.Location)

	_, err = svc.Add(models.Appointment{DoctorName: "Dr. C", Date: "tomorrow", Time: "09:00"})
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestSeedSampleData(t *testing.T) {
	store, _ := newStore(t)
	clock := newClock()

	require.True(t, SeedSampleData(store, clock.now))
	assert.Len(t, store.Medications(), 3)
	appts := store.Appointments()
	require.Len(t, appts, 2)
	assert.Equal(t, "2025-03-13", appts[0].Date)
	assert.Equal(t, "2025-03-05", appts[1].Date)
	assert.Equal(t, "Anna", store.User().Name)
	for _, m := range store.Medications() {
		assert.NoError(t, m.Validate())
	}

	assert.False(t, SeedSampleData(store, clock.now))
	assert.Len(t, store.Medications(), 3)
}
