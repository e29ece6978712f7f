package api

// Submission is the unit of work published on SubmissionCreatedSubject.
type Submission struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`

	Language Language `json:"language"`
	Code     string   `json:"code"`

	TimeLimitInMs   int `json:"timeLimitInMs"`
	MemoryLimitInKb int `json:"memoryLimitInKb"`

	TestCases []TestCase `json:"testCases"`
	Settings  Settings   `json:"settings"`
}

type TestCase struct {
	ID           string `json:"id"`
	Input        string `json:"input"`
	ExpectOutput string `json:"expectOutput"`
}

// Language tells the worker how to build and run the code.
type Language struct {
	ID             string `json:"id"`
	SourceFile     string `json:"sourceFile"`
	BinaryFile     string `json:"binaryFile"`
	CompileCommand string `json:"compileCommand"`
	RunCommand     string `json:"runCommand"`
}

// Settings control how the worker compares output with the expected answer.
type Settings struct {
	WithTrim          bool `json:"withTrim"`
	WithCaseSensitive bool `json:"withCaseSensitive"`
	WithWhitespace    bool `json:"withWhitespace"`
}
