package services

import (
	"github.com/dmitrijs2005/mediminder/internal/client/models"
)

// SeedSampleData fills an empty tracker with a few medications and
// appointments and names the user. It does nothing, returning false, when
// any medication or appointment already exists.
func SeedSampleData(store Store, now Clock) bool {
	if len(store.Medications()) > 0 || len(store.Appointments()) > 0 {
		return false
	}
	t := now()
	soon := t.AddDate(0, 0, 3).Format(models.DateLayout)
	past := t.AddDate(0, 0, -5).Format(models.DateLayout)

	store.SaveMedications([]models.Medication{
		{ID: newID(), Name: "Metformin", Dosage: "500mg", Frequency: models.FrequencyDaily2, Times: []string{"08:00", "20:00"}, Notes: "After meals"},
		{ID: newID(), Name: "Aspirin", Dosage: "100mg", Frequency: models.FrequencyDaily1, Times: []string{"12:00"}},
		{ID: newID(), Name: "Atorvastatin", Dosage: "20mg", Frequency: models.FrequencyDaily1, Times: []string{"20:00"}, Notes: "Before bed"},
	})
	store.SaveAppointments([]models.Appointment{
		{ID: newID(), DoctorName: "Dr. Peter Kovacs", Specialty: "Internal medicine", Date: soon, Time: "10:00", Location: "Clinic, 3rd floor", Notes: "Bring blood test results", Status: models.StatusPending},
		{ID: newID(), DoctorName: "Dr. Eva Nagy", Specialty: "Ophthalmology", Date: past, Time: "14:00", Location: "Eye clinic, ground floor", Status: models.StatusDone},
	})

	p := store.User()
	if p.IsDefault() {
		p.Name = "Anna"
		store.SaveUser(p)
	}
	return true
}
