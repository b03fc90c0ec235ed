package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

func (a *App) ListAppointments(ctx context.Context) error {
	appts := a.appts.List()
	a.seen(models.Appointments)
	if len(appts) == 0 {
		fmt.Fprintln(a.out, "No appointments yet. Use addappt to add one.")
		return nil
	}
	for _, ap := range appts {
		fmt.Fprintln(a.out, formatAppointment(ap))
	}
	return nil
}

func (a *App) AddAppointment(ctx context.Context) error {
	var ap models.Appointment
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Doctor", &ap.DoctorName},
		{"Specialty", &ap.Specialty},
		{"Date (YYYY-MM-DD)", &ap.Date},
		{"Time (HH:MM)", &ap.Time},
		{"Location", &ap.Location},
		{"Notes", &ap.Notes},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.label, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}
	ap, err := a.appts.Add(ap)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added", formatAppointment(ap))
	return nil
}

func (a *App) SetStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: status <appointment> <pending|done|missed>", common.ErrValidation)
	}
	ref, status := strings.Join(args[:len(args)-1], " "), models.Status(strings.ToLower(args[len(args)-1]))
	ap, err := resolve(a.appts.List(), ref, doctorName)
	if err != nil {
		return err
	}
	if err := a.appts.SetStatus(ap.ID, status); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s on %s is now %s.\n", ap.DoctorName, ap.Date, status)
	return nil
}

func (a *App) DeleteAppointment(ctx context.Context, args []string) error {
	ap, err := resolve(a.appts.List(), strings.Join(args, " "), doctorName)
	if err != nil {
		return err
	}
	u, err := a.appts.Delete(ap.ID)
	if err != nil {
		return err
	}
	a.remember(u)
	fmt.Fprintf(a.out, "Deleted appointment with %s. Type undo to restore it.\n", ap.DoctorName)
	return nil
}
