package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMedication() Medication {
	return Medication{
		ID:        "m1",
		Name:      "Metformin",
		Dosage:    "500mg",
		Frequency: FrequencyDaily2,
		Times:     []string{"08:00", "20:00"},
	}
}

func TestMedication_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Medication)
		wantErr bool
	}{
		{"valid", func(m *Medication) {}, false},
		{"blank name", func(m *Medication) { m.Name = "  " }, true},
		{"blank dosage", func(m *Medication) { m.Dosage = "" }, true},
		{"unknown frequency", func(m *Medication) { m.Frequency = "hourly" }, true},
		{"no times", func(m *Medication) { m.Times = nil }, true},
		{"six times", func(m *Medication) {
			m.Times = []string{"01:00", "02:00", "03:00", "04:00", "05:00", "06:00"}
		}, true},
		{"five times", func(m *Medication) {
			m.Times = []string{"01:00", "02:00", "03:00", "04:00", "05:00"}
		}, false},
		{"duplicate time", func(m *Medication) { m.Times = []string{"08:00", "08:00"} }, true},
		{"bad hour", func(m *Medication) { m.Times = []string{"24:00"} }, true},
		{"single digit hour", func(m *Medication) { m.Times = []string{"8:00"} }, true},
		{"invalid utf-8 name", func(m *Medication) { m.Name = "Metformin\xff" }, true},
		{"invalid utf-8 notes", func(m *Medication) { m.Notes = "\xc3\x28" }, true},
		{"non-ascii text", func(m *Medication) { m.Name = "Ibuprofēns"; m.Notes = "после еды" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMedication()
			tt.mutate(&m)
			err := m.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAppointment_Validate(t *testing.T) {
	a := Appointment{DoctorName: "Dr. Kovacs", Date: "2025-03-01", Time: "09:30", Status: StatusPending}
	require.NoError(t, a.Validate())

	bad := a
	bad.DoctorName = ""
	assert.ErrorIs(t, bad.Validate(), common.ErrValidation)

	bad = a
	bad.Date = "2025-13-01"
	assert.ErrorIs(t, bad.Validate(), common.ErrValidation)

	bad = a
	bad.Status = "cancelled"
	assert.ErrorIs(t, bad.Validate(), common.ErrValidation)

	bad = a
	bad.Location = "Room \xfe"
	err := bad.Validate()
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.ErrorContains(t, err, "location is not valid UTF-8")

	ok := a
	ok.DoctorName = "Dr. Bērziņa"
	assert.NoError(t, ok.Validate())
}

func TestCollection_KeysAndPaths(t *testing.T) {
	assert.Equal(t, "mediminder_medications", Medications.CacheKey())
	assert.Equal(t, "mediminder_med_logs", IntakeLogs.CacheKey())
	assert.Equal(t, "mediminder_appointments", Appointments.CacheKey())

	assert.Equal(t, "medications", Medications.Path())
	assert.Equal(t, "med-logs", IntakeLogs.Path())
	assert.Equal(t, "appointments", Appointments.Path())
}

func TestParseCollection(t *testing.T) {
	c, err := ParseCollection("med-logs")
	require.NoError(t, err)
	assert.Equal(t, IntakeLogs, c)

	c, err = ParseCollection("med_logs")
	require.NoError(t, err)
	assert.Equal(t, IntakeLogs, c)

	_, err = ParseCollection("users")
	assert.Error(t, err)
	assert.False(t, Collection("users").Valid())
}

func TestDefaultProfile(t *testing.T) {
	p := DefaultProfile()
	assert.Equal(t, DefaultUserName, p.Name)
	assert.True(t, p.IsDefault())
	assert.False(t, UserProfile{Name: "Anna"}.IsDefault())
	assert.False(t, UserProfile{Email: "a@b.c"}.IsDefault())
}

func TestPendingUndo_Expired(t *testing.T) {
	at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	u := PendingUndo{Collection: Medications, DeletedAt: at}

	assert.False(t, u.Expired(at.Add(4*time.Second), 5*time.Second))
	assert.True(t, u.Expired(at.Add(6*time.Second), 5*time.Second))
	assert.False(t, u.Expired(at.Add(time.Hour), 0))
}
