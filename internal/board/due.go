package board

import (
	"fmt"
	"time"
)

// DueDate is a tri-state due-date value for partial updates:
//
//   - not present: the due date is left untouched
//   - present and nil: the due date is explicitly cleared
//   - present with a value: the due date is set
//
// The zero value means "not present".
type DueDate struct {
	present bool
	t       *time.Time
}

// DueUnchanged returns a DueDate that leaves the due date untouched.
func DueUnchanged() DueDate {
	return DueDate{}
}

// DueCleared returns a DueDate that explicitly clears the due date.
func DueCleared() DueDate {
	return DueDate{present: true}
}

// DueOn returns a DueDate set to t, normalized to UTC.
func DueOn(t time.Time) DueDate {
	utc := t.UTC()
	return DueDate{present: true, t: &utc}
}

// Present reports whether the update carries a due-date change at all.
func (d DueDate) Present() bool {
	return d.present
}

// Value returns the due date, or nil if cleared or not present.
func (d DueDate) Value() *time.Time {
	if d.t == nil {
		return nil
	}
	due := *d.t
	return &due
}

// String returns the canonical serialized form, or "" when there is none.
func (d DueDate) String() string {
	if d.t == nil {
		return ""
	}
	return d.t.Format(time.RFC3339)
}

// ParseDue normalizes the accepted due-date representations into a DueDate.
// It accepts:
//
//   - nil: explicit clear
//   - time.Time / *time.Time: structured value
//   - string: a pre-serialized RFC3339 timestamp or YYYY-MM-DD date
//
// All values normalize to UTC before hitting the remote store.
func ParseDue(v any) (DueDate, error) {
	switch val := v.(type) {
	case nil:
		return DueCleared(), nil
	case time.Time:
		return DueOn(val), nil
	case *time.Time:
		if val == nil {
			return DueCleared(), nil
		}
		return DueOn(*val), nil
	case string:
		if val == "" {
			return DueCleared(), nil
		}
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return DueOn(t), nil
		}
		if t, err := time.Parse("2006-01-02", val); err == nil {
			return DueOn(t), nil
		}
		return DueDate{}, fmt.Errorf("unrecognized due date %q", val)
	default:
		return DueDate{}, fmt.Errorf("unsupported due date type %T", v)
	}
}
