package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/services"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

// remember keeps the most recent deletion for undo; older ones are dropped.
func (a *App) remember(u models.PendingUndo) {
	a.mu.Lock()
	a.lastUndo = &u
	a.mu.Unlock()
}

func (a *App) Undo(ctx context.Context) error {
	a.mu.Lock()
	u := a.lastUndo
	a.lastUndo = nil
	a.mu.Unlock()

	if u == nil {
		fmt.Fprintln(a.out, "Nothing to undo.")
		return nil
	}
	if err := a.undo.Undo(*u); err != nil {
		if errors.Is(err, services.ErrUndoExpired) {
			fmt.Fprintln(a.out, "Too late to undo.")
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "Restored the deleted %s record.\n", strings.TrimSuffix(string(u.Collection), "s"))
	return nil
}

// Clear empties one collection after the user types yes.
func (a *App) Clear(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: clear <medications|med-logs|appointments>")
	}
	c, err := models.ParseCollection(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	n := len(a.engine.Collection(c))
	if n == 0 {
		fmt.Fprintf(a.out, "No %s to delete.\n", c.Path())
		return nil
	}
	answer, err := GetSimpleText(a.reader, fmt.Sprintf("Delete all %d %s? Type yes to confirm", n, c.Path()), a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}
	a.engine.ClearCollection(c)
	fmt.Fprintf(a.out, "Deleted all %s.\n", c.Path())
	return nil
}

func (a *App) Seed(ctx context.Context) error {
	if !services.SeedSampleData(a.engine, a.now) {
		fmt.Fprintln(a.out, "Tracker is not empty, sample data not added.")
		return nil
	}
	fmt.Fprintln(a.out, "Sample medications and appointments added.")
	return nil
}

func (a *App) Profile(ctx context.Context, args []string) error {
	p := a.engine.User()
	if name := strings.TrimSpace(strings.Join(args, " ")); name != "" {
		p.Name = name
		a.engine.SaveUser(p)
	}
	fmt.Fprintf(a.out, "Name: %s\n", p.Name)
	if p.Email != "" {
		fmt.Fprintf(a.out, "Email: %s\n", p.Email)
	}
	if id, ok := a.engine.Identity(); ok && id.Admin {
		fmt.Fprintln(a.out, "Role: admin")
	}
	return nil
}

func (a *App) Admin(ctx context.Context, args []string) error {
	id, ok := a.engine.Identity()
	if !ok || !id.Admin {
		return fmt.Errorf("admin session required: %w", common.ErrForbidden)
	}

	if len(args) == 0 {
		profiles := a.engine.AdminListProfiles(ctx)
		if len(profiles) == 0 {
			fmt.Fprintln(a.out, "No users found.")
			return nil
		}
		for _, p := range profiles {
			fmt.Fprintf(a.out, "%-36s  %-20s  %s\n", p.UserID, p.Name, p.Email)
		}
		return nil
	}

	userID := args[0]
	meds := a.engine.AdminMedications(ctx, userID)
	logs := a.engine.AdminIntakeLogs(ctx, userID)
	appts := a.engine.AdminAppointments(ctx, userID)

	fmt.Fprintf(a.out, "Medications (%d):\n", len(meds))
	for _, m := range meds {
		fmt.Fprintln(a.out, "  "+formatMedication(m))
	}
	taken := 0
	for _, l := range logs {
		if l.Taken {
			taken++
		}
	}
	fmt.Fprintf(a.out, "Intake logs: %d, %d taken\n", len(logs), taken)
	fmt.Fprintf(a.out, "Appointments (%d):\n", len(appts))
	for _, ap := range appts {
		fmt.Fprintln(a.out, "  "+formatAppointment(ap))
	}
	return nil
}
