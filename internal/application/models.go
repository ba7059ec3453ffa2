package application

import (
	"time"

	"github.com/ls1intum/tum-apply-sub002/internal/scheduler"
)

// Session is the editing view of one calendar day for one interview process.
type Session struct {
	ID        string
	ProcessID string
	Day       time.Time
	Policy    scheduler.Policy
	Ranges    []scheduler.Range
	Revision  uint64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Session) clone() Session {
	out := s
	if s.Ranges != nil {
		out.Ranges = make([]scheduler.Range, len(s.Ranges))
		copy(out.Ranges, s.Ranges)
	}
	return out
}

func (s Session) rangeIndex(id string) int {
	for i, r := range s.Ranges {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// OpenSessionParams wraps the data required to open an editing session.
type OpenSessionParams struct {
	Day       time.Time
	ProcessID string
	Policy    scheduler.Policy
}

// RangeInput captures caller provided range fields. Start and End are "HH:MM"
// strings; values that do not parse are treated as not entered.
type RangeInput struct {
	Kind     scheduler.RangeKind
	Start    string
	End      string
	Location string
}

// ConflictReport carries the merged conflict annotations of one session revision.
type ConflictReport struct {
	SessionID   string
	Revision    uint64
	Annotations map[scheduler.SlotKey]scheduler.Annotation
}
