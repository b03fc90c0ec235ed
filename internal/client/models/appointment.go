package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/common"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusMissed  Status = "missed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusMissed:
		return true
	}
	return false
}

type Appointment struct {
	ID         string `json:"id"`
	DoctorName string `json:"doctorName"`
	Specialty  string `json:"specialty,omitempty"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Location   string `json:"location,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Status     Status `json:"status"`
}

func (a Appointment) RecordID() string { return a.ID }

func (a Appointment) Validate() error {
	err := checkUTF8("id", a.ID, "doctor name", a.DoctorName, "specialty", a.Specialty,
		"location", a.Location, "notes", a.Notes)
	if err != nil {
		return err
	}
	if strings.TrimSpace(a.DoctorName) == "" {
		return fmt.Errorf("%w: doctor name is required", common.ErrValidation)
	}
	if !ValidDate(a.Date) {
		return fmt.Errorf("%w: invalid date %q", common.ErrValidation, a.Date)
	}
	if !ValidClock(a.Time) {
		return fmt.Errorf("%w: invalid time %q", common.ErrValidation, a.Time)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, a.Status)
	}
	return nil
}

// When returns the sortable "date time" key of the appointment.
func (a Appointment) When() string {
	return a.Date + " " + a.Time
}
