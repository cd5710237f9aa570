package realtime

import (
	"encoding/json"
	"errors"
	"strings"

	"nego/internal/domain"

	"github.com/tidwall/gjson"
)

var (
	ErrBadFilter     = errors.New("filter must look like column=eq.value")
	ErrUnknownTable  = errors.New("unknown table")
	ErrBadEvent      = errors.New("event must be *, INSERT, UPDATE or DELETE")
	ErrOwnFilterOnly = errors.New("private tables require a filter on your own user id")
	ErrAdminOnly     = errors.New("table is restricted to admins")
)

// Filter is a single equality predicate on a row column.
type Filter struct {
	Column string
	Value  string
}

// ParseFilter reads "col=eq.value". An empty string means no filter.
func ParseFilter(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	col, rest, ok := strings.Cut(s, "=")
	if !ok {
		return nil, ErrBadFilter
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	col = strings.TrimSpace(col)
	if !ok || col == "" || val == "" {
		return nil, ErrBadFilter
	}
	return &Filter{Column: col, Value: val}, nil
}

// Matches reports whether the row's column equals the filter value.
func (f *Filter) Matches(row json.RawMessage) bool {
	if f == nil {
		return true
	}
	if len(row) == 0 {
		return false
	}
	v := gjson.GetBytes(row, f.Column)
	return v.Exists() && v.String() == f.Value
}

// tableAccess describes who may subscribe to a table. Owner columns list
// the columns a non-admin must filter on with their own id. Paywalled
// columns are dropped from premium rows for everyone but the talent.
type tableAccess struct {
	public    bool
	adminOnly bool
	owners    []string
	redact    []string
	paywalled []string
}

var tables = map[string]tableAccess{
	"profiles":            {public: true, redact: []string{"email", "admin_notes", "suspension_reason"}},
	"media":               {public: true, redact: []string{"moderation_notes", "flagged_reason"}, paywalled: []string{"url", "storage_path"}},
	"talent_services":     {public: true},
	"wallets":             {owners: []string{"user_id"}},
	"transactions":        {owners: []string{"user_id"}},
	"notifications":       {owners: []string{"user_id"}},
	"gifts":               {owners: []string{"sender_id", "recipient_id"}},
	"bookings":            {owners: []string{"client_id", "talent_id"}, redact: []string{"admin_notes"}},
	"withdrawal_requests": {owners: []string{"talent_id"}},
	"verifications":       {adminOnly: true},
}

// Authorize checks a subscription request against the table rules.
func Authorize(userID string, role domain.Role, table string, f *Filter) error {
	access, ok := tables[table]
	if !ok {
		return ErrUnknownTable
	}
	if role == domain.RoleAdmin || access.public {
		return nil
	}
	if access.adminOnly {
		return ErrAdminOnly
	}
	if f == nil || f.Value != userID {
		return ErrOwnFilterOnly
	}
	for _, col := range access.owners {
		if f.Column == col {
			return nil
		}
	}
	return ErrOwnFilterOnly
}

func normalizeEvent(e string) (string, error) {
	switch e = strings.ToUpper(strings.TrimSpace(e)); e {
	case "", "*":
		return "*", nil
	case "INSERT", "UPDATE", "DELETE":
		return e, nil
	}
	return "", ErrBadEvent
}

// redact strips columns the subscriber must not see from a change event.
func redact(ev domain.ChangeEvent, userID string, role domain.Role) domain.ChangeEvent {
	access := tables[ev.Table]
	if role == domain.RoleAdmin || (len(access.redact) == 0 && len(access.paywalled) == 0) {
		return ev
	}
	ev.Record = dropFields(ev.Record, access, userID)
	ev.OldRecord = dropFields(ev.OldRecord, access, userID)
	return ev
}

func dropFields(row json.RawMessage, access tableAccess, userID string) json.RawMessage {
	if len(row) == 0 {
		return row
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(row, &m); err != nil {
		return nil
	}
	for _, f := range access.redact {
		delete(m, f)
	}
	if len(access.paywalled) > 0 && locked(m, userID) {
		for _, f := range access.paywalled {
			delete(m, f)
		}
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return out
}

// locked reports a premium row owned by someone other than userID.
func locked(m map[string]json.RawMessage, userID string) bool {
	var (
		premium bool
		owner   string
	)
	_ = json.Unmarshal(m["is_premium"], &premium)
	_ = json.Unmarshal(m["talent_id"], &owner)
	return premium && owner != userID
}
