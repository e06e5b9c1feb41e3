package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Options configures New.
type Options struct {
	// Level is one of debug, info, warn or error.
	Level string

	// Dir receives rotating log files when set.
	Dir string

	// Name prefixes the log files, "escpos" by default.
	Name string

	// Console defaults to os.Stderr.
	Console io.Writer
}

// New builds a text logger writing to the console and, if opts.Dir is set, to
// a rotating file. The returned Closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		w      io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if opts.Dir != "" {
		name := opts.Name
		if name == "" {
			name = "escpos"
		}
		rf, err := NewRotatingFile(opts.Dir, name)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(console, rf)
		closer = rf
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(h), closer, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RotatingFile appends to <dir>/<name>-<n>.log where n is 0 for days 1-9 of
// the month, 1 for days 10-19 and 2 from day 20 on. Entering period n removes
// the file of period n+1 (mod 3), which is the oldest one.
type RotatingFile struct {
	dir, name string
	now       func() time.Time

	mu     sync.Mutex
	f      *os.File
	suffix int
}

// NewRotatingFile creates dir if needed. The file itself is opened on first write.
func NewRotatingFile(dir, name string) (*RotatingFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	return &RotatingFile{dir: dir, name: name, now: time.Now, suffix: -1}, nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := suffixForDay(r.now().Day()); s != r.suffix || r.f == nil {
		if err := r.rotate(s); err != nil {
			return 0, err
		}
	}
	return r.f.Write(p)
}

func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

func (r *RotatingFile) path(suffix int) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s-%d.log", r.name, suffix))
}

func (r *RotatingFile) rotate(suffix int) error {
	if r.f != nil {
		r.f.Close()
		r.f = nil
	}

	stale := r.path((suffix + 1) % 3)
	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "log: removing %s: %v\n", stale, err)
	}

	f, err := os.OpenFile(r.path(suffix), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return fmt.Errorf("log file: %w", err)
	}
	r.f = f
	r.suffix = suffix
	return nil
}

func suffixForDay(day int) int {
	switch {
	case day <= 9:
		return 0
	case day <= 19:
		return 1
	default:
		return 2
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
