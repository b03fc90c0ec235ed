package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

// DefaultUndoWindow is how long a deletion stays undoable.
const DefaultUndoWindow = 30 * time.Second

var ErrUndoExpired = errors.New("undo window has passed")

type UndoService interface {
	// Undo puts the deleted record back at its former position. Positions
	// past the end append.
	Undo(u models.PendingUndo) error
}

type undoService struct {
	store  Store
	now    Clock
	window time.Duration
}

// NewUndoService builds an UndoService; a zero window never expires.
func NewUndoService(store Store, now Clock, window time.Duration) UndoService {
	return &undoService{store: store, now: now, window: window}
}

func (s *undoService) Undo(u models.PendingUndo) error {
	if !u.Collection.Valid() || len(u.Record) == 0 {
		return fmt.Errorf("%w: nothing to undo", common.ErrValidation)
	}
	if u.Expired(s.now(), s.window) {
		return ErrUndoExpired
	}
	rec, err := remote.RecordOf(u.Record)
	if err != nil {
		return err
	}

	items := s.store.Collection(u.Collection)
	recs, err := remote.RecordsFromItems(items)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if r.ID == rec.ID {
			return fmt.Errorf("record %s: %w", rec.ID, common.ErrAlreadyExists)
		}
	}

	i := min(max(u.Index, 0), len(items))
	out := make([]json.RawMessage, 0, len(items)+1)
	out = append(out, items[:i]...)
	out = append(out, u.Record)
	out = append(out, items[i:]...)
	s.store.SaveCollection(u.Collection, out)
	return nil
}
