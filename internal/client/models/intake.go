package models

import "time"

// IntakeLog records whether one scheduled dose (medication, date, time) was
// taken. MedID is a weak reference: the medication may since have been
// deleted.
type IntakeLog struct {
	ID      string     `json:"id"`
	MedID   string     `json:"medId"`
	Date    string     `json:"date"`
	Time    string     `json:"time"`
	Taken   bool       `json:"taken"`
	TakenAt *time.Time `json:"takenAt"`
}

func (l IntakeLog) RecordID() string { return l.ID }

// Matches reports whether the log belongs to the given slot.
func (l IntakeLog) Matches(medID, date, clock string) bool {
	return l.MedID == medID && l.Date == date && l.Time == clock
}
