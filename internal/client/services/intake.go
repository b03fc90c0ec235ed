package services

import (
	"fmt"
	"sort"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

// ScheduleRow is one dose slot of today's schedule.
type ScheduleRow struct {
	Medication models.Medication
	Time       string
	Taken      bool
}

// IntakeService records which scheduled doses were taken.
type IntakeService interface {
	// Toggle flips the taken flag of the (medID, date, time) slot, creating
	// a taken log when none exists yet. It returns the new flag.
	Toggle(medID, date, clock string) (bool, error)
	IsTaken(medID, date, clock string) bool
	// MarkAllTimesToday marks every slot of the medication taken for today.
	MarkAllTimesToday(medID string) error
	AllTakenToday(medID string) bool
	// TodaySchedule lists today's slots ordered by time, then medication name.
	TodaySchedule() []ScheduleRow
}

type intakeService struct {
	store Store
	now   Clock
}

func NewIntakeService(store Store, now Clock) IntakeService {
	return &intakeService{store: store, now: now}
}

func (s *intakeService) today() string {
	return s.now().Format(models.DateLayout)
}

func (s *intakeService) Toggle(medID, date, clock string) (bool, error) {
	if medID == "" || !models.ValidDate(date) || !models.ValidClock(clock) {
		return false, fmt.Errorf("%w: invalid dose slot %q %q %q", common.ErrValidation, medID, date, clock)
	}
	logs, taken := s.toggle(s.store.IntakeLogs(), medID, date, clock)
	s.store.SaveIntakeLogs(logs)
	return taken, nil
}

func (s *intakeService) toggle(logs []models.IntakeLog, medID, date, clock string) ([]models.IntakeLog, bool) {
	for i := range logs {
		if !logs[i].Matches(medID, date, clock) {
			continue
		}
		logs[i].Taken = !logs[i].Taken
		if logs[i].Taken {
			at := s.now()
			logs[i].TakenAt = &at
		} else {
			logs[i].TakenAt = nil
		}
		return logs, logs[i].Taken
	}
	at := s.now()
	return append(logs, models.IntakeLog{
		ID:      newID(),
		MedID:   medID,
		Date:    date,
		Time:    clock,
		Taken:   true,
		TakenAt: &at,
	}), true
}

func isTaken(logs []models.IntakeLog, medID, date, clock string) bool {
	for _, l := range logs {
		if l.Matches(medID, date, clock) && l.Taken {
			return true
		}
	}
	return false
}

func (s *intakeService) IsTaken(medID, date, clock string) bool {
	return isTaken(s.store.IntakeLogs(), medID, date, clock)
}

func (s *intakeService) medication(id string) (models.Medication, bool) {
	meds := s.store.Medications()
	if i := indexOf(meds, id); i >= 0 {
		return meds[i], true
	}
	return models.Medication{}, false
}

func (s *intakeService) MarkAllTimesToday(medID string) error {
	med, ok := s.medication(medID)
	if !ok {
		return fmt.Errorf("medication %s: %w", medID, common.ErrNotFound)
	}
	today := s.today()
	logs := s.store.IntakeLogs()
	changed := false
	for _, t := range med.Times {
		if isTaken(logs, medID, today, t) {
			continue
		}
		logs, _ = s.toggle(logs, medID, today, t)
		changed = true
	}
	if changed {
		s.store.SaveIntakeLogs(logs)
	}
	return nil
}

func (s *intakeService) AllTakenToday(medID string) bool {
	med, ok := s.medication(medID)
	if !ok {
		return false
	}
	today := s.today()
	logs := s.store.IntakeLogs()
	for _, t := range med.Times {
		if !isTaken(logs, medID, today, t) {
			return false
		}
	}
	return true
}

func (s *intakeService) TodaySchedule() []ScheduleRow {
	today := s.today()
	logs := s.store.IntakeLogs()
	rows := []ScheduleRow{}
	for _, m := range s.store.Medications() {
		for _, t := range m.Times {
			rows = append(rows, ScheduleRow{Medication: m, Time: t, Taken: isTaken(logs, m.ID, today, t)})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Time != rows[j].Time {
			return rows[i].Time < rows[j].Time
		}
		return rows[i].Medication.Name < rows[j].Medication.Name
	})
	return rows
}
