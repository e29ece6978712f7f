package api

import (
	"github.com/programme-lv/feeder/pkg/messaging/statuses"
)

// Bus subjects
const (
	SubmissionCreatedSubject  = "submission.created"
	SubmissionExecutedSubject = "submission.executed"
)

// TestCaseResult is what a worker publishes on SubmissionExecutedSubject
// once a single test case of a submission has been run.
type TestCaseResult struct {
	SubmissionID string `json:"submissionId"`
	TestCaseID   string `json:"testCaseId"`

	Status statuses.Status `json:"status"`

	TimeUsedInMs   int64 `json:"timeUsedInMs"`
	MemoryUsedInKb int64 `json:"memoryUsedInKb"`

	Output string `json:"output"`
	Error  string `json:"error"`
}
