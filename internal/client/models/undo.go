package models

import (
	"encoding/json"
	"time"
)

// PendingUndo is handed out by delete operations and carries everything
// needed to restore the deleted record.
type PendingUndo struct {
	Collection Collection
	Record     json.RawMessage
	Index      int
	DeletedAt  time.Time
}

// Expired reports whether the undo window ttl has passed at now. A zero ttl
// never expires.
func (u PendingUndo) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(u.DeletedAt) > ttl
}
