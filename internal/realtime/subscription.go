package realtime

import "nego/internal/domain"

// Subscription is one named channel a client listens on.
type Subscription struct {
	Topic  string
	Table  string
	Event  string
	Filter *Filter
}

// Matches reports whether ev should be delivered on this subscription.
// DELETE events are matched against the old row.
func (s Subscription) Matches(ev domain.ChangeEvent) bool {
	if s.Table != ev.Table {
		return false
	}
	if s.Event != "*" && s.Event != ev.Type {
		return false
	}
	row := ev.Record
	if ev.Type == "DELETE" || len(row) == 0 {
		row = ev.OldRecord
	}
	return s.Filter.Matches(row)
}
