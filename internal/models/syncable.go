// Package models provides data model definitions for the QuizPath sync engine.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UUID is a wrapper around string for UUID v4 type safety.
type UUID string

// NewUUID generates a new UUID v4.
func NewUUID() UUID {
	return UUID(uuid.New().String())
}

// Value implements driver.Valuer for UUID.
func (u UUID) Value() (driver.Value, error) {
	return string(u), nil
}

// Scan implements sql.Scanner for UUID.
func (u *UUID) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*u = ""
	case string:
		*u = UUID(v)
	case []byte:
		*u = UUID(v)
	default:
		return fmt.Errorf("cannot scan %T into UUID", value)
	}
	return nil
}

// String returns the string representation of the UUID.
func (u UUID) String() string {
	return string(u)
}

// SyncMeta carries the sync bookkeeping shared by every record that
// participates in sync.
//
// Invariant: a record with NeedsSync == false has SyncedAt set, and
// SyncedAt >= LastModified at the time the flag was cleared.
type SyncMeta struct {
	NeedsSync    bool   `db:"needs_sync" json:"needs_sync"`
	LastModified int64  `db:"last_modified" json:"last_modified"`
	SyncedAt     *int64 `db:"synced_at" json:"synced_at,omitempty"`
}

// MarkDirty flags the record as having unacknowledged local changes.
func (m *SyncMeta) MarkDirty(now time.Time) {
	m.NeedsSync = true
	m.LastModified = now.Unix()
}

// MarkSynced clears the dirty flag and records the acknowledgement time.
func (m *SyncMeta) MarkSynced(now time.Time) {
	ts := now.Unix()
	m.NeedsSync = false
	m.SyncedAt = &ts
}

// LastModifiedTime returns LastModified as time.Time.
func (m *SyncMeta) LastModifiedTime() time.Time {
	return time.Unix(m.LastModified, 0)
}

// SyncedAtTime returns SyncedAt as time.Time, or the zero time if the
// record has never been acknowledged.
func (m *SyncMeta) SyncedAtTime() time.Time {
	if m.SyncedAt == nil {
		return time.Time{}
	}
	return time.Unix(*m.SyncedAt, 0)
}
