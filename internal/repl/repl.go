package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"helter/internal/ast"
	"helter/internal/builtins"
	"helter/internal/evaluator"
	"helter/internal/journal"
	"helter/internal/lexer"
	"helter/internal/object"
	"helter/internal/parser"
	"helter/internal/token"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

const (
	PROMPT = "> "
	// CONTINUE is shown while a link or string is still open.
	CONTINUE = ". "
)

const helpText = `Commands:
  :help            show this text
  :quit, :q        leave the session
  :reset           drop every binding and the current value
  :env             list the bindings made at the top level
  :ast <expr>      print the syntax tree of <expr>
  :history [n]     show the last n journaled inputs (default 10)

Anything else is evaluated against the current value, and its result
becomes the new current value.
`

// Recorder is the part of the journal a session writes to.
type Recorder interface {
	Record(ctx context.Context, input string, result object.Value) error
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

type Options struct {
	RootPolicy string
	MaxDepth   int
	DebugAST   string
	Journal    Recorder
}

// Session is one interactive evaluation context: a root environment whose
// top-level bindings persist across inputs, and the current value that each
// input is evaluated against.
type Session struct {
	opts     Options
	resolver object.Resolver
	env      object.Env
	eval     *evaluator.Evaluator
	current  object.Value
	out      io.Writer
}

func NewSession(opts Options, out io.Writer) (*Session, error) {
	s := &Session{opts: opts, out: out}
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) reset() error {
	resolver, err := builtins.Resolver(s.opts.RootPolicy)
	if err != nil {
		return err
	}
	s.resolver = resolver
	s.env = object.NewRootEnvironment(resolver)
	s.eval = evaluator.New(s.opts.MaxDepth)
	s.current = object.NONE
	return nil
}

// Current returns the value the next input will be evaluated against.
func (s *Session) Current() object.Value { return s.current }

// Env returns the session's root environment.
func (s *Session) Env() object.Env { return s.env }

// Execute handles one complete input, a command or an expression. It
// reports whether the session should end.
func (s *Session) Execute(ctx context.Context, input string) (quit bool) {
	line := strings.TrimSpace(input)
	if blank(line) {
		return false
	}
	if strings.HasPrefix(line, ":") {
		return s.command(ctx, line)
	}

	expr, err := parser.Parse(input, builtins.Literals{})
	if err != nil {
		printParserErrors(s.out, err)
		return false
	}
	if s.opts.DebugAST != "" {
		s.printAST(expr)
	}

	result, err := s.Evaluate(expr)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	s.current = result
	io.WriteString(s.out, result.Inspect())
	io.WriteString(s.out, "\n")

	if s.opts.Journal != nil {
		if err := s.opts.Journal.Record(ctx, input, result); err != nil {
			slog.Warn("journal write failed", slog.Any("error", err))
		}
	}
	return false
}

// Evaluate runs expr against the current value at the top level. A fault
// inside the evaluation is returned as an error; the environment keeps
// whatever bindings were made before it.
func (s *Session) Evaluate(expr ast.Expression) (result object.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("evaluation aborted", slog.Any("panic", r))
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()
	return s.eval.Evaluate(expr, s.current, s.env), nil
}

func (s *Session) command(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":quit", ":q", ":exit":
		return true

	case ":help":
		io.WriteString(s.out, helpText)

	case ":reset":
		if err := s.reset(); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		io.WriteString(s.out, "session reset.\n")

	case ":env":
		locals := s.env.Locals()
		if len(locals) == 0 {
			io.WriteString(s.out, "no bindings.\n")
		}
		for _, k := range locals {
			fmt.Fprintf(s.out, "%s = %s\n", k, s.env.Lookup(k).Inspect())
		}

	case ":ast":
		src := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if src == "" {
			io.WriteString(s.out, "usage: :ast <expr>\n")
			return false
		}
		expr, err := parser.Parse(src, builtins.Literals{})
		if err != nil {
			printParserErrors(s.out, err)
			return false
		}
		s.printAST(expr)

	case ":history":
		s.history(ctx, fields[1:])

	default:
		io.WriteString(s.out, "unknown command. Type :help for help.\n")
	}
	return false
}

func (s *Session) history(ctx context.Context, args []string) {
	if s.opts.Journal == nil {
		io.WriteString(s.out, "journal disabled, start with -journal <dsn>.\n")
		return
	}
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			io.WriteString(s.out, "usage: :history [n]\n")
			return
		}
		n = v
	}
	entries, err := s.opts.Journal.Recent(ctx, n)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	for _, e := range entries {
		fmt.Fprintf(s.out, "%4d  %s => %s\n", e.Seq, strings.ReplaceAll(e.Input, "\n", " "), e.Output)
	}
}

func (s *Session) printAST(expr ast.Expression) {
	format := s.opts.DebugAST
	if format == "" {
		format = "text"
	}
	out, err := parser.RenderAST(expr, format)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	io.WriteString(s.out, out)
}

// Start runs a session over plain reader input, one prompt per complete
// expression.
func Start(ctx context.Context, in io.Reader, out io.Writer, s *Session) {
	scanner := bufio.NewScanner(in)
	var buf strings.Builder

	for {
		if buf.Len() == 0 {
			io.WriteString(out, PROMPT)
		} else {
			io.WriteString(out, CONTINUE)
		}
		if !scanner.Scan() {
			if buf.Len() > 0 {
				s.Execute(ctx, buf.String())
			}
			return
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(scanner.Text())
		if NeedsMore(buf.String()) {
			continue
		}

		input := buf.String()
		buf.Reset()
		if s.Execute(ctx, input) {
			return
		}
	}
}

// NeedsMore reports whether src is a prefix of a longer valid input: it does
// not parse yet, but only because a link or string is still open.
func NeedsMore(src string) bool {
	trimmed := strings.TrimSpace(src)
	if blank(trimmed) || strings.HasPrefix(trimmed, ":") {
		return false
	}
	_, err := parser.Parse(src, builtins.Literals{})
	var perr *parser.Error
	if !errors.As(err, &perr) {
		return false
	}
	return perr.AtEOF
}

// blank reports whether src holds nothing but whitespace and comments.
func blank(src string) bool {
	return lexer.New(src).NextToken().Type == token.EOF
}

func printParserErrors(out io.Writer, err error) {
	io.WriteString(out, "Invalid syntax\n")
	var perr *parser.Error
	if !errors.As(err, &perr) {
		io.WriteString(out, "\t"+err.Error()+"\n")
		return
	}
	for _, msg := range perr.Messages {
		io.WriteString(out, "\t"+msg+"\n")
	}
}
