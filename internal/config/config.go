// Package config defines the JSON/YAML-serializable configuration model for
// csv2fts. A Pipeline value is the single input to an import run: where the
// delimited file lives, how it is parsed, which store receives it and how
// often the loader commits.
//
// Example (trimmed):
//
//	{
//	  "job":     "contacts_import",
//	  "source":  { "kind": "file", "file": { "path": "yandexeda.csv" } },
//	  "parser":  { "kind": "csv", "options": { "delimiter": "auto", "encoding": "utf-8" } },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "yandexeda.db", "table": "contacts" } },
//	  "runtime": { "batch_size": 100000 }
//	}
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Built-in defaults.
const (
	DefaultJob         = "csv2fts"
	DefaultInputPath   = "yandexeda.csv"
	DefaultOutputDSN   = "yandexeda.db"
	DefaultTable       = "contacts"
	DefaultStorageKind = "sqlite"
	DefaultBatchSize   = 100000
)

// Pipeline describes a full import run.
type Pipeline struct {
	// Job names the run for logs and metrics labels.
	Job string `json:"job" yaml:"job"`

	// Source describes where input data comes from (e.g., local file).
	Source Source `json:"source" yaml:"source"`

	// Parser configures how raw bytes are turned into records.
	Parser Parser `json:"parser" yaml:"parser"`

	// Storage describes where records are written.
	Storage Storage `json:"storage" yaml:"storage"`

	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// RuntimeConfig controls batching.
type RuntimeConfig struct {
	// BatchSize is the number of attempted inserts per committed transaction.
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// Source identifies the data source. Kinds: "file" and "http".
type Source struct {
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http,omitempty" yaml:"http,omitempty"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`

	// MaxRetries for 429/5xx and transport errors; 0 means the client
	// default, negative disables retries.
	MaxRetries         int               `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	Headers            map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// SetInput points the source at v: an http(s) URL selects the "http" kind,
// anything else is a local path.
func (s *Source) SetInput(v string) {
	if isHTTPURL(v) {
		s.Kind = "http"
		s.HTTP.URL = v
		return
	}
	s.Kind = "file"
	s.File.Path = v
}

// Location returns the path or URL the source reads, for logs.
func (s Source) Location() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

func isHTTPURL(v string) bool {
	u, err := url.Parse(v)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is the local filesystem path to the input file. Paths ending in
	// .gz, .bz2, .xz or .zst are decompressed on the fly.
	Path string `json:"path" yaml:"path"`
}

// Parser selects how to parse the raw source into records.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind" yaml:"kind"`

	// Options is a free-form map interpreted by the parser. For CSV:
	//   delimiter (string, "auto" to sniff), encoding (string),
	//   lazy_quotes (bool), strict_width (bool), fold_accents (bool),
	//   scrub (object of literal pattern → replacement applied to raw bytes)
	Options Options `json:"options" yaml:"options"`
}

// Storage selects the sink used to persist records.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", "mysql" or "mssql".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is the connection string; for SQLite a file path is enough.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the full-text table name.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable issues the idempotent create statement before loading.
	// A nil value means true.
	AutoCreateTable *bool `json:"auto_create_table,omitempty" yaml:"auto_create_table,omitempty"`
}

// CreateTable reports whether the loader should issue the create statement.
func (d DBConfig) CreateTable() bool {
	return d.AutoCreateTable == nil || *d.AutoCreateTable
}

// Default returns a pipeline populated with the importer's built-in values.
func Default() Pipeline {
	return Pipeline{
		Job: DefaultJob,
		Source: Source{
			Kind: "file",
			File: SourceFile{Path: DefaultInputPath},
		},
		Parser: Parser{
			Kind: "csv",
			Options: Options{
				"delimiter": "auto",
				"encoding":  "utf-8",
			},
		},
		Storage: Storage{
			Kind: DefaultStorageKind,
			DB: DBConfig{
				DSN:   DefaultOutputDSN,
				Table: DefaultTable,
			},
		},
		Runtime: RuntimeConfig{BatchSize: DefaultBatchSize},
	}
}

// Load reads a pipeline file and overlays it on Default(). Files ending in
// .yaml or .yml are decoded as YAML; everything else as JSON.
func Load(path string) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	p := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return Pipeline{}, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("config: decode json %s: %w", path, err)
		}
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	return p, nil
}

// Options is a small helper to fetch typed values from arbitrary JSON/YAML
// maps. It performs only minimal type coercion and returns the provided
// default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. encoding/json decodes numbers as
// float64 while yaml.v3 produces int, so both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
