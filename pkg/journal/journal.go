// Package journal keeps a write-only audit trail of finished research runs.
// Records carry run metadata only. Transcripts are never stored and nothing
// here is ever read back into a conversation.
package journal

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Record summarises one finished run.
type Record struct {
	RunID      string        `json:"run_id"`
	Query      string        `json:"query"`
	Outcome    string        `json:"outcome"`
	Iterations int           `json:"iterations"`
	Tools      []string      `json:"tools,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// Recorder persists run records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// MemoryRecorder keeps records in process. Useful for tests and as a default.
type MemoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Tools = append([]string(nil), rec.Tools...)
	m.records = append(m.records, rec)
	return nil
}

// Records returns a snapshot of everything recorded so far.
func (m *MemoryRecorder) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

// MultiRecorder fans a record out to every recorder and joins their errors.
type MultiRecorder []Recorder

func (mr MultiRecorder) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, r := range mr {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Recorder = (*MemoryRecorder)(nil)
	_ Recorder = MultiRecorder(nil)
)
