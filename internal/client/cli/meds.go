package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
)

func (a *App) ListMedications(ctx context.Context) error {
	meds := a.meds.List()
	a.seen(models.Medications)
	if len(meds) == 0 {
		fmt.Fprintln(a.out, "No medications yet. Use addmed to add one.")
		return nil
	}
	for _, m := range meds {
		fmt.Fprintln(a.out, formatMedication(m))
	}
	return nil
}

// readMedication prompts for every medication field, offering the values
// of cur as defaults.
func (a *App) readMedication(cur models.Medication) (models.Medication, error) {
	m := cur
	var err error
	if m.Name, err = GetTextOr(a.reader, "Name", cur.Name, a.out); err != nil {
		return m, err
	}
	if m.Dosage, err = GetTextOr(a.reader, "Dosage", cur.Dosage, a.out); err != nil {
		return m, err
	}
	freq, err := GetTextOr(a.reader, "Frequency (daily1, daily2, daily3, weekly, asneeded)", string(cur.Frequency), a.out)
	if err != nil {
		return m, err
	}
	m.Frequency = models.Frequency(strings.ToLower(freq))

	times, err := GetList(a.reader, fmt.Sprintf("Times, HH:MM separated by commas [%s]", strings.Join(cur.Times, ",")), a.out)
	if err != nil {
		return m, err
	}
	if len(times) > 0 {
		m.Times = times
	}
	if m.Notes, err = GetTextOr(a.reader, "Notes", cur.Notes, a.out); err != nil {
		return m, err
	}
	return m, nil
}

func (a *App) AddMedication(ctx context.Context) error {
	m, err := a.readMedication(models.Medication{Frequency: models.FrequencyDaily1})
	if err != nil {
		return err
	}
	m, err = a.meds.Add(m)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Added", formatMedication(m))
	return nil
}

func (a *App) EditMedication(ctx context.Context, args []string) error {
	cur, err := resolve(a.meds.List(), strings.Join(args, " "), medName)
	if err != nil {
		return err
	}
	m, err := a.readMedication(cur)
	if err != nil {
		return err
	}
	if err := a.meds.Update(m); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved", formatMedication(m))
	return nil
}

func (a *App) DeleteMedication(ctx context.Context, args []string) error {
	m, err := resolve(a.meds.List(), strings.Join(args, " "), medName)
	if err != nil {
		return err
	}
	u, err := a.meds.Delete(m.ID)
	if err != nil {
		return err
	}
	a.remember(u)
	fmt.Fprintf(a.out, "Deleted %s. Type undo to restore it.\n", m.Name)
	return nil
}
