package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

// Levels beyond the four slog defines. NONE sits above every record the
// interpreter emits, so it silences logging altogether.
const (
	LevelTrace = slog.Level(-8)
	LevelNone  = slog.Level(12)
)

var levelNames = map[slog.Level]string{
	LevelTrace: "TRACE",
	LevelNone:  "NONE",
}

// ParseLevel maps a -log-level flag value to a slog level. Unknown names
// disable logging.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return LevelNone
	}
}

// File is a log destination that can be reopened in place, so an external
// rotation (mv + SIGHUP) starts a fresh file without restarting the process.
type File struct {
	path string

	mu sync.Mutex
	fh *os.File
}

func OpenFile(path string) (*File, error) {
	// Create parent directories if they don't exist
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f := &File{path: path}
	if err := f.Reopen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fh.Write(p)
}

func (f *File) Reopen() error {
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	f.mu.Lock()
	old := f.fh
	f.fh = fh
	f.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fh.Close()
}

// ReopenOnHangup reopens f whenever the process receives SIGHUP.
//
//	mv helter.log helter.bak && kill -HUP <pid>
func (f *File) ReopenOnHangup() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	go func() {
		for range sigs {
			if err := f.Reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "could not reopen log file '%s': %v\n", f.path, err)
			}
		}
	}()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs a JSON slog logger as the process default. Records go to
// file when one is given, otherwise (or when it cannot be opened) to stderr.
func Setup(level, file string) io.Closer {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := OpenFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", file, err)
		} else {
			f.ReopenOnHangup()
			w, closer = f, f
		}
	}

	slog.SetDefault(slog.New(NewHandler(w, ParseLevel(level))))
	return closer
}

// NewHandler returns the JSON handler used by every front end.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: false,
		Level:     level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey || len(groups) != 0 {
				return a
			}
			if lvl, ok := a.Value.Any().(slog.Level); ok {
				if name, ok := levelNames[lvl]; ok {
					a.Value = slog.StringValue(name)
				}
			}
			return a
		},
	})
}
