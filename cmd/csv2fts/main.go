// Command csv2fts loads a delimited text file into a full-text search table.
//
// Examples:
//
//	csv2fts -i yandexeda.csv -o yandexeda.db
//	csv2fts import -c pipeline.yaml --batch-size 50000
//	csv2fts sniff -i people.csv.gz
//	csv2fts validate -c pipeline.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"csv2fts/internal/config"

	// register all backends with the storage factory.
	_ "csv2fts/internal/storage/all"
)

var version = "dev"

// CLI defines the command-line interface for csv2fts.
type CLI struct {
	Globals

	Import   ImportCmd   `cmd:"" default:"withargs" help:"Load a delimited file into a full-text table (default)."`
	Sniff    SniffCmd    `cmd:"" help:"Print the detected delimiter and column names without touching the database."`
	Validate ValidateCmd `cmd:"" help:"Lint the effective pipeline configuration."`
	Version  VersionCmd  `cmd:"" help:"Print version information."`
}

// Globals are flags shared by every command.
type Globals struct {
	EnvFile   string `name:"env-file" help:"dotenv file loaded before flags and CSV2FTS_* variables are applied." type:"path"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" env:"CSV2FTS_LOG_LEVEL" help:"Log level (${enum})."`
	LogFormat string `name:"log-format" default:"auto" enum:"auto,text,json" env:"CSV2FTS_LOG_FORMAT" help:"Log format (${enum}); auto picks text on a terminal."`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes the selected command and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// The env file must be in the process environment before kong resolves
	// env-backed flags.
	if path := envFileArg(args); path != "" {
		if err := config.LoadEnvFile(path, false); err != nil {
			fmt.Fprintf(stderr, "csv2fts: %v\n", err)
			return 1
		}
	}

	var c CLI
	exitCode := -1
	parser, err := kong.New(&c,
		kong.Name("csv2fts"),
		kong.Description("Load CSV/TSV files into SQLite FTS5 (or another full-text store)."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)
	if err != nil {
		fmt.Fprintf(stderr, "csv2fts: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		// --help or --version style early exit.
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx.BindTo(ctx, (*context.Context)(nil))

	if err := kctx.Run(&c.Globals); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "csv2fts: interrupted")
			return 130
		}
		fmt.Fprintf(stderr, "csv2fts: %v\n", err)
		return 1
	}
	return 0
}

// envFileArg finds --env-file in args without a full parse.
func envFileArg(args []string) string {
	for i, a := range args {
		if a == "--" {
			return ""
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			return v
		}
		if a == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
