package catalog

import "slices"

// Options describes where the catalog comes from and how its submissions are
// shaped. It is read from the [catalog] section of the config file.
type Options struct {
	// Tests is a JSON array of test cases, optionally zstd compressed (.zst).
	Tests string `toml:"tests"`
	// CodeDir holds one candidate source file per submission.
	CodeDir string `toml:"code_dir"`

	Language LanguageSpec `toml:"language"`
	Limits   LimitsSpec   `toml:"limits"`
	Settings SettingsSpec `toml:"settings"`
}

type LanguageSpec struct {
	ID         string   `toml:"id"`
	SourceFile string   `toml:"source_file"`
	BinaryFile string   `toml:"binary_file"`
	CompileCmd string   `toml:"compile_cmd"`
	RunCmd     string   `toml:"run_cmd"`
	Extensions []string `toml:"extensions"`
}

type LimitsSpec struct {
	TimeMs   int `toml:"time_ms"`
	MemoryKb int `toml:"memory_kb"`
}

// SettingsSpec fields default to true when left out.
type SettingsSpec struct {
	Trim          *bool `toml:"trim"`
	CaseSensitive *bool `toml:"case_sensitive"`
	Whitespace    *bool `toml:"whitespace"`
}

const (
	DefaultTimeLimitMs   = 2000
	DefaultMemoryLimitKb = 256 * 1024
)

// GoLanguage is used when the config does not describe a language.
var GoLanguage = LanguageSpec{
	ID:         "go",
	SourceFile: "main.go",
	BinaryFile: "main.exe",
	CompileCmd: "go build -o main.exe main.go",
	RunCmd:     "./main.exe",
	Extensions: []string{".go"},
}

func goLanguage() LanguageSpec {
	l := GoLanguage
	l.Extensions = slices.Clone(GoLanguage.Extensions)
	return l
}

func DefaultOptions() Options {
	return Options{
		Tests:    "testCases.json",
		CodeDir:  "code_test",
		Language: goLanguage(),
		Limits: LimitsSpec{
			TimeMs:   DefaultTimeLimitMs,
			MemoryKb: DefaultMemoryLimitKb,
		},
	}
}

// withDefaults fills every zero field from DefaultOptions. A language with an
// id but no run command is incomplete and left as is for Load to reject.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Tests == "" {
		o.Tests = def.Tests
	}
	if o.CodeDir == "" {
		o.CodeDir = def.CodeDir
	}
	if o.Language.ID == "" && o.Language.RunCmd == "" {
		o.Language = def.Language
	}
	if len(o.Language.Extensions) == 0 && o.Language.ID == GoLanguage.ID {
		o.Language.Extensions = slices.Clone(GoLanguage.Extensions)
	}
	if o.Limits.TimeMs <= 0 {
		o.Limits.TimeMs = def.Limits.TimeMs
	}
	if o.Limits.MemoryKb <= 0 {
		o.Limits.MemoryKb = def.Limits.MemoryKb
	}
	return o
}

func orTrue(b *bool) bool {
	return b == nil || *b
}
