// Package services contains the tracker's application services: medication
// and appointment management, intake logging, undo of deletions, sample
// data and authentication. All of them work on a Store, which the sync
// engine implements.
package services

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/google/uuid"
)

// Store is the record storage the services read and write. Reads never
// fail; writes are persisted locally and synchronized in the background.
type Store interface {
	Medications() []models.Medication
	SaveMedications(meds []models.Medication)
	IntakeLogs() []models.IntakeLog
	SaveIntakeLogs(logs []models.IntakeLog)
	Appointments() []models.Appointment
	SaveAppointments(appts []models.Appointment)
	User() models.UserProfile
	SaveUser(p models.UserProfile)
	Collection(c models.Collection) []json.RawMessage
	SaveCollection(c models.Collection, items []json.RawMessage)
}

// Clock returns the current time.
type Clock func() time.Time

func newID() string {
	return uuid.NewString()
}

type identified interface {
	RecordID() string
}

func indexOf[T identified](items []T, id string) int {
	for i, it := range items {
		if it.RecordID() == id {
			return i
		}
	}
	return -1
}

// remove deletes items[i] and returns a PendingUndo holding the record.
func remove[T identified](items []T, i int, c models.Collection, now time.Time) ([]T, models.PendingUndo, error) {
	raw, err := json.Marshal(items[i])
	if err != nil {
		return items, models.PendingUndo{}, err
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	out = append(out, items[i+1:]...)
	return out, models.PendingUndo{Collection: c, Record: raw, Index: i, DeletedAt: now}, nil
}
