package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"csv2fts/internal/config"
	"csv2fts/internal/etl"
	"csv2fts/internal/logging"
	csvparser "csv2fts/internal/parser/csv"
	"csv2fts/internal/probe"
	"csv2fts/internal/schema"
	"csv2fts/internal/storage"
	"csv2fts/internal/storage/sqlite"
)

// PipelineFlags override fields of the effective pipeline. Precedence, lowest
// first: built-in defaults, --config file, CSV2FTS_* variables, flags.
type PipelineFlags struct {
	Config    string `short:"c" help:"Pipeline config file (.json, .yaml, .yml)." type:"path" env:"CSV2FTS_CONFIG"`
	Input     string `short:"i" help:"Input file or http(s) URL; .gz, .bz2, .xz and .zst are decompressed."`
	Output    string `short:"o" help:"Output DSN (a file path for SQLite)."`
	Table     string `help:"Full-text table name."`
	Storage   string `help:"Storage backend (sqlite, postgres, mysql, mssql)."`
	BatchSize int    `name:"batch-size" help:"Attempted rows per committed transaction."`
	Job       string `help:"Job name used in logs and metrics."`

	Delimiter   string `short:"d" help:"Delimiter: auto, comma, semicolon, tab, pipe or a single character."`
	Encoding    string `help:"Input charset as a WHATWG label, e.g. windows-1251."`
	LazyQuotes  bool   `name:"lazy-quotes" help:"Tolerate bare quotes inside unquoted fields."`
	StrictWidth bool   `name:"strict-width" help:"Reject records whose field count differs from the header."`
	FoldAccents bool   `name:"fold-accents" help:"Strip accents from header names before the identifier check."`
	NoCreate    bool   `name:"no-create" help:"Do not issue the create-table statement."`
}

// Pipeline resolves the effective pipeline.
func (f PipelineFlags) Pipeline() (config.Pipeline, error) {
	p := config.Default()
	if f.Config != "" {
		var err error
		if p, err = config.Load(f.Config); err != nil {
			return config.Pipeline{}, err
		}
	}
	if err := config.ApplyEnv(&p, os.Getenv); err != nil {
		return config.Pipeline{}, err
	}

	if f.Job != "" {
		p.Job = f.Job
	}
	if f.Input != "" {
		p.Source.SetInput(f.Input)
	}
	if f.Output != "" {
		p.Storage.DB.DSN = f.Output
	}
	if f.Table != "" {
		p.Storage.DB.Table = f.Table
	}
	if f.Storage != "" {
		p.Storage.Kind = f.Storage
	}
	if f.BatchSize != 0 {
		p.Runtime.BatchSize = f.BatchSize
	}
	if f.NoCreate {
		no := false
		p.Storage.DB.AutoCreateTable = &no
	}

	if p.Parser.Options == nil {
		p.Parser.Options = config.Options{}
	}
	if f.Delimiter != "" {
		p.Parser.Options["delimiter"] = f.Delimiter
	}
	if f.Encoding != "" {
		p.Parser.Options["encoding"] = f.Encoding
	}
	if f.LazyQuotes {
		p.Parser.Options["lazy_quotes"] = true
	}
	if f.StrictWidth {
		p.Parser.Options["strict_width"] = true
	}
	if f.FoldAccents {
		p.Parser.Options["fold_accents"] = true
	}
	return p, nil
}

func newLogger(g *Globals, k *kong.Context) *slog.Logger {
	log := logging.Setup(g.LogLevel, g.LogFormat, k.Stderr)
	slog.SetDefault(log)
	return log
}

// ImportCmd runs a full import.
type ImportCmd struct {
	PipelineFlags
	MetricsFlags
}

func (c *ImportCmd) Run(g *Globals, ctx context.Context, k *kong.Context) error {
	log := newLogger(g, k)
	p, err := c.Pipeline()
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	flush, err := setupMetrics(c.MetricsFlags, p.Job, runID, log)
	if err != nil {
		return err
	}
	defer flush()

	_, err = etl.Run(ctx, p, etl.Options{Logger: log, RunID: runID})
	return err
}

// SniffCmd previews the delimiter and column mapping.
type SniffCmd struct {
	PipelineFlags
	Sample int  `default:"1000" help:"Data records to scan for width and parse statistics."`
	JSON   bool `name:"json" help:"Print the result as JSON."`
}

type sniffOutput struct {
	Input       string          `json:"input"`
	Delimiter   string          `json:"delimiter"`
	Sniffed     bool            `json:"sniffed"`
	Columns     []sniffedColumn `json:"columns"`
	Duplicates  []string        `json:"duplicates,omitempty"`
	Sampled     int             `json:"sampled"`
	ParseErrors int             `json:"parse_errors"`
	Wide        int             `json:"wide"`
	Narrow      int             `json:"narrow"`
}

type sniffedColumn struct {
	Position int    `json:"position"`
	Original string `json:"original"`
	Name     string `json:"name"`
}

func (c *SniffCmd) Run(g *Globals, ctx context.Context, k *kong.Context) error {
	_ = newLogger(g, k)
	p, err := c.Pipeline()
	if err != nil {
		return err
	}
	opts := p.Parser.Options

	forced, _ := probe.DecodeDelimiter(opts.String("delimiter", "auto"))
	res, err := probe.Probe(ctx, etl.SourceFor(p), probe.Options{
		Delimiter:  forced,
		Parser:     csvparser.OptionsFrom(opts, forced),
		Header:     schema.HeaderOptions{FoldAccents: opts.Bool("fold_accents", false)},
		SampleRows: c.Sample,
	})
	if err != nil {
		return err
	}

	out := sniffOutput{
		Input:       p.Source.Location(),
		Delimiter:   probe.DelimiterName(res.Delimiter),
		Sniffed:     res.Sniffed,
		Duplicates:  res.Duplicates,
		Sampled:     res.Sampled,
		ParseErrors: res.ParseErrors,
		Wide:        res.Wide,
		Narrow:      res.Narrow,
	}
	for _, col := range res.Columns {
		out.Columns = append(out.Columns, sniffedColumn{Position: col.Position, Original: col.Original, Name: col.Name})
	}

	if c.JSON {
		enc := json.NewEncoder(k.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(k.Stdout, "input:     %s\n", out.Input)
	fmt.Fprintf(k.Stdout, "delimiter: %s (sniffed=%t)\n", out.Delimiter, out.Sniffed)
	fmt.Fprintf(k.Stdout, "sampled:   %d records, %d parse errors, %d wide, %d narrow\n",
		out.Sampled, out.ParseErrors, out.Wide, out.Narrow)
	if len(out.Duplicates) > 0 {
		fmt.Fprintf(k.Stdout, "duplicates: %s\n", strings.Join(out.Duplicates, ", "))
	}
	tw := tabwriter.NewWriter(k.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tCOLUMN\tHEADER")
	for _, col := range out.Columns {
		fmt.Fprintf(tw, "%d\t%s\t%q\n", col.Position, col.Name, col.Original)
	}
	return tw.Flush()
}

// ValidateCmd lints the effective pipeline.
type ValidateCmd struct {
	PipelineFlags
}

func (c *ValidateCmd) Run(k *kong.Context) error {
	p, err := c.Pipeline()
	if err != nil {
		return err
	}
	issues := config.ValidatePipeline(p)
	if !registered(p.Storage.Kind) {
		issues = append(issues, config.Issue{
			Severity: config.SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("backend %q is not built into this binary; available: %s", p.Storage.Kind, strings.Join(storage.ListKinds(), ", ")),
		})
	}
	for _, iss := range issues {
		fmt.Fprintf(k.Stdout, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	fmt.Fprintln(k.Stdout, "configuration is valid")
	return nil
}

func registered(kind string) bool {
	for _, k := range storage.ListKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (VersionCmd) Run(k *kong.Context) error {
	name, kind := sqlite.Driver()
	fmt.Fprintf(k.Stdout, "csv2fts %s\n", version)
	fmt.Fprintf(k.Stdout, "sqlite driver: %s (%s)\n", name, kind)
	fmt.Fprintf(k.Stdout, "storage kinds: %s\n", strings.Join(storage.ListKinds(), ", "))
	return nil
}
