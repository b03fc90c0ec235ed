package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

func (a *App) Today(ctx context.Context) error {
	rows := a.intake.TodaySchedule()
	a.seen(models.IntakeLogs)
	a.seen(models.Medications)

	fmt.Fprintf(a.out, "Schedule for %s\n", a.now().Format(models.DateLayout))
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "Nothing scheduled.")
		return nil
	}
	taken := 0
	for _, r := range rows {
		if r.Taken {
			taken++
		}
		fmt.Fprintf(a.out, "%s %s  %s %s  [%s]\n", checkbox(r.Taken), r.Time, r.Medication.Name, r.Medication.Dosage, shortID(r.Medication.ID))
	}
	fmt.Fprintf(a.out, "%d of %d doses taken\n", taken, len(rows))
	return nil
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: usage: toggle <medication> <HH:MM> [YYYY-MM-DD]", common.ErrValidation)
	}
	m, err := resolve(a.meds.List(), args[0], medName)
	if err != nil {
		return err
	}
	date := a.now().Format(models.DateLayout)
	if len(args) == 3 {
		date = args[2]
	}
	taken, err := a.intake.Toggle(m.ID, date, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s %s %s\n", checkbox(taken), date, args[1], m.Name)
	return nil
}

func (a *App) MarkAll(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: usage: markall <medication>", common.ErrValidation)
	}
	m, err := resolve(a.meds.List(), args[0], medName)
	if err != nil {
		return err
	}
	if err := a.intake.MarkAllTimesToday(m.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "All doses of %s taken today.\n", m.Name)
	return nil
}
