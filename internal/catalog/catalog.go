// Package catalog loads the fixed pool of submissions the publisher picks from.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/feeder/api"
)

var ErrEmpty = errors.New("catalog is empty")

type Catalog struct {
	subs []api.Submission
}

// Load reads the test case set and builds one submission per matching
// source file in the code directory. Every submission gets a fresh id.
func Load(opts Options) (*Catalog, error) {
	opts = opts.withDefaults()
	lang := opts.Language
	if lang.SourceFile == "" || lang.RunCmd == "" {
		return nil, fmt.Errorf("language specification incomplete; require source_file, run_cmd (id=%q)", lang.ID)
	}
	if len(lang.Extensions) == 0 {
		return nil, fmt.Errorf("language %q lists no source file extensions", lang.ID)
	}

	tests, err := LoadTestCases(opts.Tests)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(opts.CodeDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read code directory: %w", err)
	}

	exts := mapset.NewSet[string]()
	for _, ext := range lang.Extensions {
		exts.Add(strings.ToLower(ext))
	}

	language := api.Language{
		ID:             lang.ID,
		SourceFile:     lang.SourceFile,
		BinaryFile:     lang.BinaryFile,
		CompileCommand: lang.CompileCmd,
		RunCommand:     lang.RunCmd,
	}
	settings := api.Settings{
		WithTrim:          orTrue(opts.Settings.Trim),
		WithCaseSensitive: orTrue(opts.Settings.CaseSensitive),
		WithWhitespace:    orTrue(opts.Settings.Whitespace),
	}

	var subs []api.Submission
	for _, entry := range entries {
		if entry.IsDir() || !exts.Contains(strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}
		code, err := os.ReadFile(filepath.Join(opts.CodeDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read source file %s: %w", entry.Name(), err)
		}
		subs = append(subs, api.Submission{
			ID:              uuid.NewString(),
			FileName:        entry.Name(),
			Language:        language,
			Code:            string(code),
			TimeLimitInMs:   opts.Limits.TimeMs,
			MemoryLimitInKb: opts.Limits.MemoryKb,
			TestCases:       tests,
			Settings:        settings,
		})
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no %v files in %s", ErrEmpty, lang.Extensions, opts.CodeDir)
	}
	return &Catalog{subs: subs}, nil
}

// New wraps already built submissions.
func New(subs ...api.Submission) (*Catalog, error) {
	if len(subs) == 0 {
		return nil, ErrEmpty
	}
	return &Catalog{subs: slices.Clone(subs)}, nil
}

// LoadTestCases reads a JSON array of test cases. Files ending in .zst are
// decompressed first. Test case ids must be unique.
func LoadTestCases(path string) ([]api.TestCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open test cases: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".zst" {
		d, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer d.Close()
		r = d
	}

	var tests []api.TestCase
	if err := json.NewDecoder(r).Decode(&tests); err != nil {
		return nil, fmt.Errorf("failed to parse test cases %s: %w", path, err)
	}
	if len(tests) == 0 {
		return nil, fmt.Errorf("no test cases in %s", path)
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, tc := range tests {
		if tc.ID == "" {
			return nil, fmt.Errorf("test case without id in %s", path)
		}
		if !seen.Add(tc.ID) {
			return nil, fmt.Errorf("duplicate test case id %s in %s", tc.ID, path)
		}
	}
	return tests, nil
}

func (c *Catalog) Len() int {
	return len(c.subs)
}

func (c *Catalog) Submissions() []api.Submission {
	return slices.Clone(c.subs)
}

// Pick selects a submission uniformly at random.
func (c *Catalog) Pick(r *rand.Rand) api.Submission {
	return c.subs[r.IntN(len(c.subs))]
}
