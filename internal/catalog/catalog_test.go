package catalog_test

import (
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var threeTests = []api.TestCase{
	{ID: "1", Input: "1 2", ExpectOutput: "3"},
	{ID: "2", Input: "2 2", ExpectOutput: "4"},
	{ID: "3", Input: "0 0", ExpectOutput: "0"},
}

func writeTests(t *testing.T, dir, name string, tests []api.TestCase) string {
	t.Helper()
	data, err := json.Marshal(tests)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	if filepath.Ext(name) == ".zst" {
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		data = enc.EncodeAll(data, nil)
		require.NoError(t, enc.Close())
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeCode(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, code := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(code), 0o644))
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	tests := writeTests(t, t.TempDir(), "testCases.json", threeTests)
	code := writeCode(t, map[string]string{
		"b.go":      "package main",
		"a.go":      "package main\n",
		"notes.txt": "ignored",
	})
	require.NoError(t, os.Mkdir(filepath.Join(code, "sub.go"), 0o755))

	cat, err := catalog.Load(catalog.Options{Tests: tests, CodeDir: code})
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	subs := cat.Submissions()
	assert.Equal(t, "a.go", subs[0].FileName)
	assert.Equal(t, "b.go", subs[1].FileName)
	assert.NotEqual(t, subs[0].ID, subs[1].ID)

	sub := subs[0]
	assert.Len(t, sub.ID, 36)
	assert.Equal(t, "package main\n", sub.Code)
	assert.Equal(t, catalog.DefaultTimeLimitMs, sub.TimeLimitInMs)
	assert.Equal(t, 262144, sub.MemoryLimitInKb)
	assert.Equal(t, threeTests, sub.TestCases)
	assert.Equal(t, api.Settings{WithTrim: true, WithCaseSensitive: true, WithWhitespace: true}, sub.Settings)
	assert.Equal(t, api.Language{
		ID:             "go",
		SourceFile:     "main.go",
		BinaryFile:     "main.exe",
		CompileCommand: "go build -o main.exe main.go",
		RunCommand:     "./main.exe",
	}, sub.Language)
}

func TestLoadCustomLanguage(t *testing.T) {
	tests := writeTests(t, t.TempDir(), "tests.json", threeTests)
	code := writeCode(t, map[string]string{
		"x.PY":   "print(1)",
		"y.go":   "package main",
		"z.py":   "print(2)",
		"readme": "",
	})
	off := false
	cat, err := catalog.Load(catalog.Options{
		Tests:   tests,
		CodeDir: code,
		Language: catalog.LanguageSpec{
			ID:         "python3.10",
			SourceFile: "main.py",
			RunCmd:     "python3.10 main.py",
			Extensions: []string{".py"},
		},
		Limits:   catalog.LimitsSpec{TimeMs: 500},
		Settings: catalog.SettingsSpec{Whitespace: &off},
	})
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	for _, sub := range cat.Submissions() {
		assert.Equal(t, "python3.10", sub.Language.ID)
		assert.Empty(t, sub.Language.CompileCommand)
		assert.Equal(t, 500, sub.TimeLimitInMs)
		assert.Equal(t, catalog.DefaultMemoryLimitKb, sub.MemoryLimitInKb)
		assert.False(t, sub.Settings.WithWhitespace)
		assert.True(t, sub.Settings.WithTrim)
	}
}

func TestLoadEmpty(t *testing.T) {
	tests := writeTests(t, t.TempDir(), "tests.json", threeTests)
	code := writeCode(t, map[string]string{"a.cpp": "int main(){}"})

	_, err := catalog.Load(catalog.Options{Tests: tests, CodeDir: code})
	assert.ErrorIs(t, err, catalog.ErrEmpty)
}

func TestLoadIncompleteLanguage(t *testing.T) {
	_, err := catalog.Load(catalog.Options{Language: catalog.LanguageSpec{ID: "cpp"}})
	assert.ErrorContains(t, err, "incomplete")
}

func TestLoadMissingCodeDir(t *testing.T) {
	tests := writeTests(t, t.TempDir(), "tests.json", threeTests)
	_, err := catalog.Load(catalog.Options{Tests: tests, CodeDir: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestLoadTestCasesZstd(t *testing.T) {
	path := writeTests(t, t.TempDir(), "testCases.json.zst", threeTests)

	tests, err := catalog.LoadTestCases(path)
	require.NoError(t, err)
	assert.Equal(t, threeTests, tests)
}

func TestLoadTestCasesRejects(t *testing.T) {
	dir := t.TempDir()

	dup := writeTests(t, dir, "dup.json", []api.TestCase{{ID: "1"}, {ID: "2"}, {ID: "1"}})
	_, err := catalog.LoadTestCases(dup)
	assert.ErrorContains(t, err, "duplicate test case id 1")

	noID := writeTests(t, dir, "noid.json", []api.TestCase{{Input: "x"}})
	_, err = catalog.LoadTestCases(noID)
	assert.ErrorContains(t, err, "without id")

	empty := writeTests(t, dir, "empty.json", []api.TestCase{})
	_, err = catalog.LoadTestCases(empty)
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{not json"), 0o644))
	_, err = catalog.LoadTestCases(garbage)
	assert.Error(t, err)

	_, err = catalog.LoadTestCases(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestPick(t *testing.T) {
	a := api.Submission{ID: "a"}
	b := api.Submission{ID: "b"}
	cat, err := catalog.New(a, b)
	require.NoError(t, err)

	r := rand.New(rand.NewPCG(1, 2))
	seen := map[string]int{}
	for range 200 {
		seen[cat.Pick(r).ID]++
	}
	assert.Len(t, seen, 2)
	assert.Greater(t, seen["a"], 50)
	assert.Greater(t, seen["b"], 50)

	_, err = catalog.New()
	assert.ErrorIs(t, err, catalog.ErrEmpty)
}

func TestSubmissionsIsCopy(t *testing.T) {
	cat, err := catalog.New(api.Submission{ID: "a"})
	require.NoError(t, err)

	subs := cat.Submissions()
	subs[0].ID = "changed"
	assert.Equal(t, "a", cat.Submissions()[0].ID)
}
