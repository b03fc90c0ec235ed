// Package models holds the tracker's record types: medications, intake logs,
// appointments and the user profile, plus the collection names that scope
// them locally and remotely.
package models

import "fmt"

// Collection names one of the three synchronized record sets. The string
// value is the name used by remote backends.
type Collection string

const (
	Medications  Collection = "medications"
	IntakeLogs   Collection = "med_logs"
	Appointments Collection = "appointments"
)

// UserKey is the local cache key of the user profile.
const UserKey = "mediminder_user"

// AllCollections lists the collections in a fixed order.
func AllCollections() []Collection {
	return []Collection{Medications, IntakeLogs, Appointments}
}

// CacheKey is the key the collection is stored under in the local cache.
func (c Collection) CacheKey() string {
	return "mediminder_" + string(c)
}

// Path is the REST path segment of the collection.
func (c Collection) Path() string {
	switch c {
	case IntakeLogs:
		return "med-logs"
	default:
		return string(c)
	}
}

func (c Collection) Valid() bool {
	switch c {
	case Medications, IntakeLogs, Appointments:
		return true
	}
	return false
}

// ParseCollection accepts either the collection name or its REST path.
func ParseCollection(s string) (Collection, error) {
	for _, c := range AllCollections() {
		if s == string(c) || s == c.Path() {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", s)
}
