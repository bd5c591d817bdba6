package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"helter/internal/ast"
	"helter/internal/builtins"
	"helter/internal/journal"
	"helter/internal/log"
	"helter/internal/parser"
	"helter/internal/repl"
	"helter/internal/util"
	"log/slog"
	"os"
	"strings"
)

var (
	// Version is the current version of the helter binary, set at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configPath  string
	rootPolicy  string
	debugAST    string
	journalDSN  string
	historyFile string
	maxDepth    int
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Read settings from this TOML file")
	// evaluator config
	flag.StringVar(&rootPolicy, "root-policy", builtins.PolicySymbols, "Unknown identifiers: symbols (mint a symbol) or catalog (absent)")
	flag.IntVar(&maxDepth, "max-depth", util.DefaultMaxDepth, "Maximum evaluation nesting, 0 for unlimited")
	// parser config
	flag.StringVar(&debugAST, "debug-ast", "", "Render the AST: json, yaml or text")
	// session config
	flag.StringVar(&journalDSN, "journal", "", "Journal evaluations to sqlite:<file>, mysql:<dsn> or postgres://<dsn>")
	flag.StringVar(&historyFile, "history", "", "REPL history file")
	// log config
	flag.StringVar(&logLevel, "log-level", "NONE", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}

	if help {
		printHelp()
		return
	}

	os.Exit(run())
}

func run() int {
	config, err := util.LoadConfig(configPath, os.Getenv("HELTER_HOME"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	applyFlags(&config)

	logCloser := log.Setup(config.LogLevel, config.LogFile)
	defer logCloser.Close()
	slog.Debug("configuration loaded", slog.String("file", config.ConfigFile), slog.String("root-policy", config.RootPolicy))

	ctx := context.Background()
	opts := repl.Options{
		RootPolicy: config.RootPolicy,
		MaxDepth:   config.MaxDepth,
		DebugAST:   config.DebugAST,
	}
	if config.Journal != "" {
		j, err := journal.Open(ctx, config.Journal)
		if err != nil {
			// the journal is optional, evaluation goes ahead without it
			slog.Error("journal unavailable", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "journal disabled: %v\n", err)
		} else {
			defer j.Close()
			opts.Journal = j
		}
	}

	if filename := flag.Arg(0); filename != "" {
		return runFile(ctx, filename, opts)
	}

	session, err := repl.NewSession(opts, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if isTerminal(os.Stdin) {
		fmt.Printf("helter %s. Type :help for help.\n", Version)
		repl.Run(ctx, session, config.History)
	} else {
		repl.Start(ctx, os.Stdin, os.Stdout, session)
	}
	return 0
}

// applyFlags lets flags given on the command line override file settings.
func applyFlags(config *util.Configuration) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root-policy":
			config.RootPolicy = rootPolicy
		case "max-depth":
			config.MaxDepth = maxDepth
		case "debug-ast":
			config.DebugAST = debugAST
		case "journal":
			config.Journal = journalDSN
		case "history":
			config.History = historyFile
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		}
	})
}

func runFile(ctx context.Context, filename string, opts repl.Options) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", filename, err)
		return 1
	}

	expr, err := parser.Parse(string(src), builtins.Literals{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Invalid syntax")
		var perr *parser.Error
		if errors.As(err, &perr) {
			for _, msg := range perr.Messages {
				fmt.Fprintf(os.Stderr, "\t%s\n", msg)
			}
			fmt.Fprintln(os.Stderr, perr.Context(string(src)))
		}
		return 1
	}

	if opts.DebugAST != "" {
		if err := writeAST(filename, expr, opts.DebugAST); err != nil {
			fmt.Fprintf(os.Stderr, "debug-ast: %v\n", err)
		}
	}

	// the AST has been written to a file already
	opts.DebugAST = ""
	session, err := repl.NewSession(opts, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	result, err := session.Evaluate(expr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println(result.Inspect())

	if opts.Journal != nil {
		if err := opts.Journal.Record(ctx, string(src), result); err != nil {
			slog.Warn("journal write failed", slog.Any("error", err))
		}
	}
	return 0
}

// writeAST stores the rendered AST next to the source file.
func writeAST(filename string, expr ast.Expression, format string) error {
	ext := format
	if ext == "text" {
		ext = "txt"
	}
	target := strings.TrimSuffix(filename, ".hlt") + ".ast." + ext
	slog.Debug("writing AST", slog.String("file", target))
	return parser.WriteAST(expr, target, format)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func printVersion() {
	fmt.Printf("helter version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: helter [options] [filename]

Options:
  -config <path>        Read settings from a TOML file. Default is ./helter.toml,
                        then $HELTER_HOME/helter.toml.
  -root-policy <name>   How unknown identifiers resolve: 'symbols' mints a fresh
                        symbol, 'catalog' leaves them absent. Default is 'symbols'.
  -max-depth <n>        Abort evaluations nested deeper than n. 0 disables the guard.
  -debug-ast <format>   Render the AST as json, yaml or text. Files get a
                        <name>.ast.<ext> next to them, the REPL prints it.
  -journal <dsn>        Record every evaluation: sqlite:<file>, mysql:<dsn> or
                        postgres://<dsn>.
  -history <path>       Keep REPL line history in this file.
  -help                 Display this help information and exit.
  -version              Display version information and exit.
  -log-level <level>    Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>      Specify a log file to write logs. Default is stderr.

Details:
Without a filename helter starts an interactive session. Every input is
evaluated against the previous result, and top-level bindings persist.

Examples:
  helter                            Start the REPL
  helter -log-level=debug           Start with debug logging enabled
  helter prog.hlt                   Evaluate prog.hlt and print the result
  helter -journal sqlite:h.db       Start the REPL and journal every input

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
