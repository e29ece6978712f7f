package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/programme-lv/feeder/pkg/messaging/statuses"
)

var ErrDecode = errors.New("malformed message")

func EncodeSubmission(s Submission) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submission %s: %w", s.ID, err)
	}
	return b, nil
}

func DecodeSubmission(data []byte) (Submission, error) {
	var s Submission
	if err := json.Unmarshal(data, &s); err != nil {
		return Submission{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return s, nil
}

func EncodeResult(r TestCaseResult) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return b, nil
}

// DecodeResult parses a worker result. The status is resolved onto the
// closed set here; a message without both ids cannot be correlated and is
// rejected as well.
func DecodeResult(data []byte) (TestCaseResult, error) {
	var r TestCaseResult
	if err := json.Unmarshal(data, &r); err != nil {
		return TestCaseResult{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if r.SubmissionID == "" || r.TestCaseID == "" {
		return TestCaseResult{}, fmt.Errorf("%w: missing submission or test case id", ErrDecode)
	}
	if r.Status == "" {
		r.Status = statuses.InternalServerError
	}
	return r, nil
}
