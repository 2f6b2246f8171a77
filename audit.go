package inlinecall

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// StreamingMarker is the CallRecord result text for calls whose result is a fragment sequence.
const StreamingMarker = "streaming..."

// CallRecord is one audit entry for a dispatched directive, whatever its outcome.
type CallRecord struct {
	ID        string
	Tool      string
	Args      string
	Result    string // stringified value, diagnostic text, or StreamingMarker
	Streaming bool
	Err       error
	Time      time.Time
}

// Failed reports whether the call ended in one of the diagnostic error kinds.
func (r CallRecord) Failed() bool { return r.Err != nil }

func newCallRecord(tool, args string) CallRecord {
	return CallRecord{
		ID:   uuid.NewString(),
		Tool: tool,
		Args: args,
		Time: time.Now(),
	}
}

// auditLog collects records for one pass. A pass runs on a single goroutine, so no locking.
type auditLog struct {
	records []CallRecord
}

func (l *auditLog) add(r CallRecord) { l.records = append(l.records, r) }

func (l *auditLog) snapshot() []CallRecord { return slices.Clone(l.records) }
