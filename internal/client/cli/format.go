package cli

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

const shortIDLen = 8

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

type record interface {
	RecordID() string
}

// resolve finds the record a user typed: a full id, a unique id prefix, or
// a name as reported by nameOf, case-insensitively.
func resolve[T record](items []T, ref string, nameOf func(T) string) (T, error) {
	var zero T
	if ref == "" {
		return zero, fmt.Errorf("%w: id or name required", common.ErrValidation)
	}
	var matches []T
	for _, it := range items {
		if it.RecordID() == ref {
			return it, nil
		}
		if strings.HasPrefix(it.RecordID(), ref) || strings.EqualFold(nameOf(it), ref) {
			matches = append(matches, it)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%q: %w", ref, common.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("%w: %q is ambiguous", common.ErrValidation, ref)
	}
}

func medName(m models.Medication) string     { return m.Name }
func doctorName(a models.Appointment) string { return a.DoctorName }

func formatMedication(m models.Medication) string {
	s := fmt.Sprintf("[%s] %s %s, %s at %s", shortID(m.ID), m.Name, m.Dosage, m.Frequency, strings.Join(m.Times, ", "))
	if m.Notes != "" {
		s += " (" + m.Notes + ")"
	}
	return s
}

func formatAppointment(a models.Appointment) string {
	s := fmt.Sprintf("[%s] %s %s  %s", shortID(a.ID), a.Date, a.Time, a.DoctorName)
	if a.Specialty != "" {
		s += ", " + a.Specialty
	}
	if a.Location != "" {
		s += " @ " + a.Location
	}
	s += "  " + strings.ToUpper(string(a.Status))
	if a.Notes != "" {
		s += "\n           " + a.Notes
	}
	return s
}

func checkbox(taken bool) string {
	if taken {
		return "[x]"
	}
	return "[ ]"
}
