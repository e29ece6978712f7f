package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/pkg/messaging/statuses"
)

var ErrStorage = errors.New("ledger storage failure")

// Row tracks the outcome of one test case of one published submission.
// Every column is text, mirroring the table layout.
type Row struct {
	SubmissionID string `db:"sub_id"`
	TestCaseID   string `db:"test_id"`
	Input        string `db:"input"`
	ExpectOutput string `db:"expect_output"`
	FileName     string `db:"file_name"`
	TimeMs       string `db:"time_ms"`
	MemoryKb     string `db:"memory_kb"`
	Output       string `db:"output"`
	Error        string `db:"error"`
	Status       string `db:"status"`
}

// Outcome carries the columns a worker result overwrites.
type Outcome struct {
	SubmissionID string
	TestCaseID   string
	TimeMs       string
	MemoryKb     string
	Output       string
	Error        string
	Status       string
}

// Store is shared by the publisher (Insert) and the collector (Update).
// Implementations must be safe for concurrent use.
type Store interface {
	Insert(ctx context.Context, row Row) error
	// Update overwrites every row matching the outcome's key and returns how
	// many were touched. An unknown key is not an error.
	Update(ctx context.Context, o Outcome) (int64, error)
	// Rows returns the rows of a submission. The memory and sqlite stores
	// keep insertion order; on postgres the order is unspecified.
	Rows(ctx context.Context, submissionID string) ([]Row, error)
	Close() error
}

// PendingRows builds the rows recorded when a submission is published.
func PendingRows(s api.Submission) []Row {
	rows := make([]Row, 0, len(s.TestCases))
	for _, tc := range s.TestCases {
		rows = append(rows, Row{
			SubmissionID: s.ID,
			TestCaseID:   tc.ID,
			Input:        tc.Input,
			ExpectOutput: tc.ExpectOutput,
			FileName:     s.FileName,
			Status:       statuses.Pending.String(),
		})
	}
	return rows
}

func OutcomeOf(r api.TestCaseResult) Outcome {
	return Outcome{
		SubmissionID: r.SubmissionID,
		TestCaseID:   r.TestCaseID,
		TimeMs:       strconv.FormatInt(r.TimeUsedInMs, 10),
		MemoryKb:     strconv.FormatInt(r.MemoryUsedInKb, 10),
		Output:       r.Output,
		Error:        r.Error,
		Status:       r.Status.String(),
	}
}
