package api_test

import (
	"testing"

	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/pkg/messaging/statuses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goSubmission() api.Submission {
	return api.Submission{
		ID:       "0b6c8d7e-1f57-4a57-a1a0-0d3f0c1e2b11",
		FileName: "memorize.go",
		Language: api.Language{
			ID:             "go",
			SourceFile:     "main.go",
			BinaryFile:     "main.exe",
			CompileCommand: "go build -o main.exe main.go",
			RunCommand:     "./main.exe",
		},
		Code:            "package main\n\nfunc main() {}\n",
		TimeLimitInMs:   2000,
		MemoryLimitInKb: 256 * 1024,
		TestCases: []api.TestCase{
			{ID: "t1", Input: "10", ExpectOutput: "55"},
			{ID: "t2", Input: "0", ExpectOutput: "0"},
		},
		Settings: api.Settings{WithTrim: true, WithCaseSensitive: true, WithWhitespace: false},
	}
}

func TestSubmissionRoundTrip(t *testing.T) {
	want := goSubmission()

	b, err := api.EncodeSubmission(want)
	require.NoError(t, err)

	got, err := api.DecodeSubmission(b)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSubmissionWireNames(t *testing.T) {
	b, err := api.EncodeSubmission(goSubmission())
	require.NoError(t, err)

	for _, key := range []string{
		`"timeLimitInMs":2000`, `"memoryLimitInKb":262144`, `"expectOutput":"55"`,
		`"sourceFile":"main.go"`, `"compileCommand"`, `"withCaseSensitive":true`,
		`"testCases"`, `"fileName":"memorize.go"`,
	} {
		assert.Contains(t, string(b), key)
	}
}

func TestDecodeResult(t *testing.T) {
	msg := `{"submissionId":"s1","testCaseId":"t1","status":"success",
		"timeUsedInMs":120,"memoryUsedInKb":2048,"output":"55\n","error":""}`

	r, err := api.DecodeResult([]byte(msg))
	require.NoError(t, err)
	require.Equal(t, api.TestCaseResult{
		SubmissionID:   "s1",
		TestCaseID:     "t1",
		Status:         statuses.Accepted,
		TimeUsedInMs:   120,
		MemoryUsedInKb: 2048,
		Output:         "55\n",
	}, r)
}

func TestDecodeResultEmptyStatusIsInternalError(t *testing.T) {
	r, err := api.DecodeResult([]byte(`{"submissionId":"s1","testCaseId":"t1","status":""}`))
	require.NoError(t, err)
	require.Equal(t, statuses.InternalServerError, r.Status)

	r, err = api.DecodeResult([]byte(`{"submissionId":"s1","testCaseId":"t1"}`))
	require.NoError(t, err)
	require.Equal(t, statuses.InternalServerError, r.Status)
}

func TestDecodeResultRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"submissionId":`,
		"unknown status": `{"submissionId":"s1","testCaseId":"t1","status":"maybe"}`,
		"no ids":         `{"status":"AC"}`,
		"wrong type":     `{"submissionId":"s1","testCaseId":"t1","timeUsedInMs":"fast"}`,
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := api.DecodeResult([]byte(msg))
			require.ErrorIs(t, err, api.ErrDecode)
		})
	}
}
