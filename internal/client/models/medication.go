package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/mediminder/internal/common"
)

type Frequency string

const (
	FrequencyDaily1   Frequency = "daily1"
	FrequencyDaily2   Frequency = "daily2"
	FrequencyDaily3   Frequency = "daily3"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyAsNeeded Frequency = "asneeded"
)

// MaxTimesPerMedication bounds Medication.Times.
const MaxTimesPerMedication = 5

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily1, FrequencyDaily2, FrequencyDaily3, FrequencyWeekly, FrequencyAsNeeded:
		return true
	}
	return false
}

type Medication struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dosage    string    `json:"dosage"`
	Frequency Frequency `json:"frequency"`
	Times     []string  `json:"times"`
	Notes     string    `json:"notes,omitempty"`
}

func (m Medication) RecordID() string { return m.ID }

// Validate checks the fields a medication form must provide. Times must hold
// one to five distinct HH:MM values.
func (m Medication) Validate() error {
	if err := checkUTF8("id", m.ID, "name", m.Name, "dosage", m.Dosage, "notes", m.Notes); err != nil {
		return err
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", common.ErrValidation)
	}
	if strings.TrimSpace(m.Dosage) == "" {
		return fmt.Errorf("%w: dosage is required", common.ErrValidation)
	}
	if !m.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", common.ErrValidation, m.Frequency)
	}
	if len(m.Times) == 0 || len(m.Times) > MaxTimesPerMedication {
		return fmt.Errorf("%w: between 1 and %d times required", common.ErrValidation, MaxTimesPerMedication)
	}
	seen := make(map[string]struct{}, len(m.Times))
	for _, t := range m.Times {
		if !ValidClock(t) {
			return fmt.Errorf("%w: invalid time %q", common.ErrValidation, t)
		}
		if _, dup := seen[t]; dup {
			return fmt.Errorf("%w: duplicate time %q", common.ErrValidation, t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

// checkUTF8 takes name/value pairs. Invalid bytes would be replaced with
// U+FFFD when the record is encoded, so they are rejected instead.
func checkUTF8(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if !utf8.ValidString(pairs[i+1]) {
			return fmt.Errorf("%w: %s is not valid UTF-8", common.ErrValidation, pairs[i])
		}
	}
	return nil
}

// ValidClock reports whether s is a 24-hour HH:MM time.
func ValidClock(s string) bool {
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// DateLayout is the layout of record dates.
const DateLayout = "2006-01-02"
