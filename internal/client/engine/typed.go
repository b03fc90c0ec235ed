package engine

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/logging"
)

func decodeAll[T any](logger logging.Logger, c models.Collection, items []json.RawMessage) []T {
	out := make([]T, 0, len(items))
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn(context.Background(), "skipping undecodable record", "collection", c, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func encodeAll[T any](items []T) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(items))
	for _, v := range items {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func get[T any](e *Engine, c models.Collection) []T {
	return decodeAll[T](e.logger, c, e.cache.ReadCollection(c))
}

func save[T any](e *Engine, c models.Collection, items []T) {
	raw, err := encodeAll(items)
	if err != nil {
		e.logger.Error(context.Background(), "cannot encode collection", "collection", c, "error", err)
		return
	}
	e.saveCollection(c, raw)
}

func (e *Engine) Medications() []models.Medication {
	return get[models.Medication](e, models.Medications)
}

func (e *Engine) SaveMedications(meds []models.Medication) {
	save(e, models.Medications, meds)
}

func (e *Engine) IntakeLogs() []models.IntakeLog {
	return get[models.IntakeLog](e, models.IntakeLogs)
}

func (e *Engine) SaveIntakeLogs(logs []models.IntakeLog) {
	save(e, models.IntakeLogs, logs)
}

func (e *Engine) Appointments() []models.Appointment {
	return get[models.Appointment](e, models.Appointments)
}

func (e *Engine) SaveAppointments(appts []models.Appointment) {
	save(e, models.Appointments, appts)
}

func (e *Engine) User() models.UserProfile {
	return e.cache.ReadProfile()
}

func (e *Engine) SaveUser(p models.UserProfile) {
	e.saveProfile(p)
}

// Collection returns the raw cached records of c.
func (e *Engine) Collection(c models.Collection) []json.RawMessage {
	return e.cache.ReadCollection(c)
}

// SaveCollection replaces c with raw records, like the typed savers.
func (e *Engine) SaveCollection(c models.Collection, items []json.RawMessage) {
	e.saveCollection(c, items)
}

// ClearCollection deletes every record of c, here and on the remote.
func (e *Engine) ClearCollection(c models.Collection) {
	e.clearCollection(c)
}
