package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

type AppointmentService interface {
	// List returns appointments ordered by date and time.
	List() []models.Appointment
	Get(id string) (models.Appointment, error)
	// Add stores a new pending appointment with a fresh id.
	Add(a models.Appointment) (models.Appointment, error)
	Update(a models.Appointment) error
	SetStatus(id string, status models.Status) error
	Delete(id string) (models.PendingUndo, error)
}

type appointmentService struct {
	store Store
	now   Clock
}

func NewAppointmentService(store Store, now Clock) AppointmentService {
	return &appointmentService{store: store, now: now}
}

func (s *appointmentService) List() []models.Appointment {
	appts := s.store.Appointments()
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].When() < appts[j].When() })
	return appts
}

func (s *appointmentService) Get(id string) (models.Appointment, error) {
	appts := s.store.Appointments()
	i := indexOf(appts, id)
	if i < 0 {
		return models.Appointment{}, fmt.Errorf("appointment %s: %w", id, common.ErrNotFound)
	}
	return appts[i], nil
}

func normalizeAppointment(a models.Appointment) models.Appointment {
	a.DoctorName = strings.TrimSpace(a.DoctorName)
	a.Specialty = strings.TrimSpace(a.Specialty)
	a.Location = strings.TrimSpace(a.Location)
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}

func (s *appointmentService) Add(a models.Appointment) (models.Appointment, error) {
	a = normalizeAppointment(a)
	a.Status = models.StatusPending
	if err := a.Validate(); err != nil {
		return models.Appointment{}, err
	}
	a.ID = newID()
	s.store.SaveAppointments(append(s.store.Appointments(), a))
	return a, nil
}

func (s *appointmentService) Update(a models.Appointment) error {
	a = normalizeAppointment(a)
	if err := a.Validate(); err != nil {
		return err
	}
	appts := s.store.Appointments()
	i := indexOf(appts, a.ID)
	if i < 0 {
		return fmt.Errorf("appointment %s: %w", a.ID, common.ErrNotFound)
	}
	appts[i] = a
	s.store.SaveAppointments(appts)
	return nil
}

func (s *appointmentService) SetStatus(id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}
	appts := s.store.Appointments()
	i := indexOf(appts, id)
	if i < 0 {
		return fmt.Errorf("appointment %s: %w", id, common.ErrNotFound)
	}
	if appts[i].Status == status {
		return nil
	}
	appts[i].Status = status
	s.store.SaveAppointments(appts)
	return nil
}

func (s *appointmentService) Delete(id string) (models.PendingUndo, error) {
	appts := s.store.Appointments()
	i := indexOf(appts, id)
	if i < 0 {
		return models.PendingUndo{}, fmt.Errorf("appointment %s: %w", id, common.ErrNotFound)
	}
	rest, undo, err := remove(appts, i, models.Appointments, s.now())
	if err != nil {
		return models.PendingUndo{}, fmt.Errorf("encode appointment: %w", err)
	}
	s.store.SaveAppointments(rest)
	return undo, nil
}
