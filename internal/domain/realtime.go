package domain

import (
	"encoding/json"
	"time"
)

// ChangeEvent is a row change published by the database trigger.
type ChangeEvent struct {
	Table           string          `json:"table"`
	Type            string          `json:"type"`
	Record          json.RawMessage `json:"record,omitempty"`
	OldRecord       json.RawMessage `json:"old_record,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`

	// Set instead of the rows when the change was too large for NOTIFY.
	KeyColumn string `json:"key_column,omitempty"`
	Key       string `json:"key,omitempty"`
}

// Truncated reports whether the rows must be loaded from the table.
func (e ChangeEvent) Truncated() bool {
	return e.Key != "" && e.Record == nil && e.OldRecord == nil
}
