package ledger

import (
	"context"
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryStore keeps the ledger in process memory, grouped by submission id.
type MemoryStore struct {
	rows *xsync.MapOf[string, []Row]
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: xsync.NewMapOf[string, []Row]()}
}

func (m *MemoryStore) Insert(_ context.Context, row Row) error {
	m.rows.Compute(row.SubmissionID, func(old []Row, _ bool) ([]Row, bool) {
		next := make([]Row, len(old), len(old)+1)
		copy(next, old)
		return append(next, row), false
	})
	return nil
}

func (m *MemoryStore) Update(_ context.Context, o Outcome) (int64, error) {
	var n int64
	m.rows.Compute(o.SubmissionID, func(old []Row, loaded bool) ([]Row, bool) {
		if !loaded {
			return nil, true
		}
		next := slices.Clone(old)
		for i := range next {
			if next[i].TestCaseID != o.TestCaseID {
				continue
			}
			next[i].TimeMs = o.TimeMs
			next[i].MemoryKb = o.MemoryKb
			next[i].Output = o.Output
			next[i].Error = o.Error
			next[i].Status = o.Status
			n++
		}
		return next, false
	})
	return n, nil
}

func (m *MemoryStore) Rows(_ context.Context, submissionID string) ([]Row, error) {
	rows, _ := m.rows.Load(submissionID)
	return slices.Clone(rows), nil
}

// Len returns the total number of rows across all submissions.
func (m *MemoryStore) Len() int {
	total := 0
	m.rows.Range(func(_ string, rows []Row) bool {
		total += len(rows)
		return true
	})
	return total
}

func (m *MemoryStore) Close() error {
	return nil
}
