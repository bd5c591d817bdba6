package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// Run drives s from the terminal with line editing. History is loaded from
// and saved to historyFile when it is set.
func Run(ctx context.Context, s *Session, historyFile string) {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	for {
		input, ok := readByParseProbe(ln)
		if !ok { // Ctrl+D
			fmt.Fprintln(s.out)
			break
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(input, "\n", " "))
		if s.Execute(ctx, input) {
			break
		}
	}

	if historyFile != "" {
		saveHistory(ln, historyFile)
	}
}

func saveHistory(ln *liner.State, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("cannot create history directory", slog.String("path", path), slog.Any("error", err))
		return
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("cannot write history", slog.String("path", path), slog.Any("error", err))
		return
	}
	defer f.Close()
	_, _ = ln.WriteHistory(f)
}

// readByParseProbe reads lines until the buffer no longer looks like the
// start of an unfinished expression.
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			// Ctrl+C drops the pending input
			return "", true
		}
		if err != nil {
			slog.Error("reading input failed", slog.Any("error", err))
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !NeedsMore(b.String()) {
			return b.String(), true
		}
	}
}
