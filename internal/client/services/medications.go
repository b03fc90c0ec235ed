package services

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

// MedicationService manages the medication list.
type MedicationService interface {
	List() []models.Medication
	Get(id string) (models.Medication, error)
	// Add validates m, assigns a fresh id and appends it.
	Add(m models.Medication) (models.Medication, error)
	// Update replaces the medication with the same id.
	Update(m models.Medication) error
	// Delete removes the medication; its intake logs are kept.
	Delete(id string) (models.PendingUndo, error)
}

type medicationService struct {
	store Store
	now   Clock
}

func NewMedicationService(store Store, now Clock) MedicationService {
	return &medicationService{store: store, now: now}
}

func (s *medicationService) List() []models.Medication {
	return s.store.Medications()
}

func (s *medicationService) Get(id string) (models.Medication, error) {
	meds := s.store.Medications()
	i := indexOf(meds, id)
	if i < 0 {
		return models.Medication{}, fmt.Errorf("medication %s: %w", id, common.ErrNotFound)
	}
	return meds[i], nil
}

func normalizeMedication(m models.Medication) models.Medication {
	m.Name = strings.TrimSpace(m.Name)
	m.Dosage = strings.TrimSpace(m.Dosage)
	m.Notes = strings.TrimSpace(m.Notes)
	return m
}

func (s *medicationService) Add(m models.Medication) (models.Medication, error) {
	m = normalizeMedication(m)
	if err := m.Validate(); err != nil {
		return models.Medication{}, err
	}
	m.ID = newID()
	s.store.SaveMedications(append(s.store.Medications(), m))
	return m, nil
}

func (s *medicationService) Update(m models.Medication) error {
	m = normalizeMedication(m)
	if err := m.Validate(); err != nil {
		return err
	}
	meds := s.store.Medications()
	i := indexOf(meds, m.ID)
	if i < 0 {
		return fmt.Errorf("medication %s: %w", m.ID, common.ErrNotFound)
	}
	meds[i] = m
	s.store.SaveMedications(meds)
	return nil
}

func (s *medicationService) Delete(id string) (models.PendingUndo, error) {
	meds := s.store.Medications()
	i := indexOf(meds, id)
	if i < 0 {
		return models.PendingUndo{}, fmt.Errorf("medication %s: %w", id, common.ErrNotFound)
	}
	rest, undo, err := remove(meds, i, models.Medications, s.now())
	if err != nil {
		return models.PendingUndo{}, fmt.Errorf("encode medication: %w", err)
	}
	s.store.SaveMedications(rest)
	return undo, nil
}
