package engine

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
)

func (e *Engine) admin() (remote.Admin, remote.Identity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateLoggedIn || e.identity == nil || !e.identity.Admin {
		return nil, remote.Identity{}, false
	}
	a, ok := e.transport.(remote.Admin)
	return a, *e.identity, ok
}

// AdminListProfiles lists every user's profile. It is empty unless the
// session is an admin one on a transport with administrative support.
func (e *Engine) AdminListProfiles(ctx context.Context) []models.UserProfile {
	a, id, ok := e.admin()
	if !ok {
		return []models.UserProfile{}
	}
	ps, err := a.ListAllProfiles(ctx, id)
	if err != nil {
		e.logger.Warn(ctx, "admin profile listing failed", "error", err)
		return []models.UserProfile{}
	}
	if ps == nil {
		return []models.UserProfile{}
	}
	return ps
}

// AdminCollection returns another user's collection, under the same rules
// as AdminListProfiles.
func (e *Engine) AdminCollection(ctx context.Context, userID string, c models.Collection) []json.RawMessage {
	a, id, ok := e.admin()
	if !ok {
		return []json.RawMessage{}
	}
	recs, err := a.LoadCollectionForUser(ctx, id, userID, c)
	if err != nil {
		e.logger.Warn(ctx, "admin collection load failed", "target_user", userID, "collection", c, "error", err)
		return []json.RawMessage{}
	}
	return remote.Items(recs)
}

func (e *Engine) AdminMedications(ctx context.Context, userID string) []models.Medication {
	return decodeAll[models.Medication](e.logger, models.Medications, e.AdminCollection(ctx, userID, models.Medications))
}

func (e *Engine) AdminIntakeLogs(ctx context.Context, userID string) []models.IntakeLog {
	return decodeAll[models.IntakeLog](e.logger, models.IntakeLogs, e.AdminCollection(ctx, userID, models.IntakeLogs))
}

func (e *Engine) AdminAppointments(ctx context.Context, userID string) []models.Appointment {
	return decodeAll[models.Appointment](e.logger, models.Appointments, e.AdminCollection(ctx, userID, models.Appointments))
}
