package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables recognized by ApplyEnv.
const (
	EnvInput     = "CSV2FTS_INPUT"
	EnvOutput    = "CSV2FTS_OUTPUT"
	EnvTable     = "CSV2FTS_TABLE"
	EnvBatchSize = "CSV2FTS_BATCH_SIZE"
	EnvStorage   = "CSV2FTS_STORAGE"
	EnvJob       = "CSV2FTS_JOB"
)

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are not overridden. A missing file is
// not an error when optional is true.
func LoadEnvFile(path string, optional bool) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays CSV2FTS_* variables onto p. getenv is usually os.Getenv;
// tests pass a map lookup instead.
func ApplyEnv(p *Pipeline, getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvJob)); v != "" {
		p.Job = v
	}
	if v := strings.TrimSpace(getenv(EnvInput)); v != "" {
		p.Source.SetInput(v)
	}
	if v := strings.TrimSpace(getenv(EnvOutput)); v != "" {
		p.Storage.DB.DSN = v
	}
	if v := strings.TrimSpace(getenv(EnvTable)); v != "" {
		p.Storage.DB.Table = v
	}
	if v := strings.TrimSpace(getenv(EnvStorage)); v != "" {
		p.Storage.Kind = v
	}
	if v := strings.TrimSpace(getenv(EnvBatchSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s=%q: %w", EnvBatchSize, v, err)
		}
		p.Runtime.BatchSize = n
	}
	return nil
}
