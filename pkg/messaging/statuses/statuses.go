package statuses

import (
	"errors"
	"fmt"
	"strings"
)

type Status string

const (
	Pending               Status = "pending"
	Testing               Status = "T"
	Accepted              Status = "AC"
	WrongAnswer           Status = "WA"
	TimeLimitExceeded     Status = "TLE"
	MemoryLimitExceeded   Status = "MLE"
	IdlenessLimitExceeded Status = "ILE"
	RuntimeError          Status = "RE"
	CompilationError      Status = "CE"
	Ignored               Status = "IG"
	InternalServerError   Status = "ISE"
)

var ErrUnknownStatus = errors.New("unknown status")

// aliases maps the vocabulary workers report with onto the closed set.
// Keys are lower case.
var aliases = map[string]Status{
	"pending": Pending,

	"t":       Testing,
	"running": Testing,
	"testing": Testing,

	"ac":       Accepted,
	"accepted": Accepted,
	"success":  Accepted,
	"passed":   Accepted,
	"ok":       Accepted,

	"wa":           WrongAnswer,
	"wrong_answer": WrongAnswer,
	"failed":       WrongAnswer,

	"tle":                 TimeLimitExceeded,
	"time_limit_exceeded": TimeLimitExceeded,
	"timed_out":           TimeLimitExceeded,
	"timeout":             TimeLimitExceeded,

	"mle":                   MemoryLimitExceeded,
	"memory_limit_exceeded": MemoryLimitExceeded,

	"ile":                     IdlenessLimitExceeded,
	"idleness_limit_exceeded": IdlenessLimitExceeded,

	"re":            RuntimeError,
	"runtime_error": RuntimeError,
	"error":         RuntimeError,
	"errored":       RuntimeError,

	"ce":            CompilationError,
	"compile_error": CompilationError,

	"ig":      Ignored,
	"ignored": Ignored,
	"none":    Ignored,

	// workers report their own failures with an empty status
	"":               InternalServerError,
	"ise":            InternalServerError,
	"internal_error": InternalServerError,
}

// Parse maps a status reported by a worker onto the closed set. Callers
// store the canonical code it returns, not the raw worker string, so
// "passed" is recorded as AC and "failed" as WA.
func Parse(s string) (Status, error) {
	st, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// IsFinal reports whether the status is a verdict rather than a progress marker.
func (s Status) IsFinal() bool {
	return s != Pending && s != Testing
}

func (s Status) String() string {
	return string(s)
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s), nil
}
