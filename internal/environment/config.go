package environment

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/programme-lv/feeder/api"
	"github.com/programme-lv/feeder/internal/catalog"
	"github.com/programme-lv/feeder/internal/xdg"
)

const (
	AppName        = "feeder"
	ConfigFileName = "feeder.toml"
	LedgerFileName = "ledger.db"
	DefaultNatsURL = "nats://localhost:4222"
)

// File is the layout of feeder.toml. Flags and environment variables take
// precedence over it.
type File struct {
	Transport string          `toml:"transport"`
	Interval  string          `toml:"interval"`
	LogLevel  string          `toml:"log_level"`
	Subjects  Subjects        `toml:"subjects"`
	Catalog   catalog.Options `toml:"catalog"`
	Nats      NatsConfig      `toml:"nats"`
	SQS       SQSConfig       `toml:"sqs"`
	Ledger    LedgerConfig    `toml:"ledger"`
}

type Subjects struct {
	Created  string `toml:"created"`
	Executed string `toml:"executed"`
}

type NatsConfig struct {
	URL string `toml:"url"`
}

type SQSConfig struct {
	Region          string            `toml:"region"`
	WaitTimeSeconds int32             `toml:"wait_time_seconds"`
	Queues          map[string]string `toml:"queues"`
}

type LedgerConfig struct {
	// DSN is a postgres:// url, a sqlite file path, ":memory:" or "memory"
	// for the in-process store.
	DSN string `toml:"dsn"`
}

// Default returns the configuration used when no file is present.
func Default() File {
	return File{
		Transport: "nats",
		Interval:  "1s",
		LogLevel:  "info",
		Subjects: Subjects{
			Created:  api.SubmissionCreatedSubject,
			Executed: api.SubmissionExecutedSubject,
		},
		Catalog: catalog.DefaultOptions(),
		Nats:    NatsConfig{URL: DefaultNatsURL},
		SQS:     SQSConfig{WaitTimeSeconds: 5},
		Ledger:  LedgerConfig{DSN: DefaultLedgerPath()},
	}
}

// ReadFile decodes path over the defaults. A missing file is only an error
// when required is set.
func ReadFile(path string, required bool) (File, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if _, err := cfg.PublishInterval(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (f File) PublishInterval() (time.Duration, error) {
	d, err := time.ParseDuration(f.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid publish interval %q: %w", f.Interval, err)
	}
	return d, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.NewXDGDirs().AppConfigDir(AppName), ConfigFileName)
}

func DefaultLedgerPath() string {
	return filepath.Join(xdg.NewXDGDirs().AppStateDir(AppName), LedgerFileName)
}

// EnsureLedgerDir creates the parent directory of a sqlite ledger file.
func EnsureLedgerDir(dsn string) error {
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	return xdg.NewXDGDirs().EnsureDir(dir)
}
