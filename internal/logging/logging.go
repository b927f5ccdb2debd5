package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ecorewards/ecorewards/internal/utils"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const consoleTimeFormat = "15:04:05.000"

type Options struct {
	Level    slog.Level
	Console  io.Writer // os.Stderr when nil
	FilePath string    // no log file when empty
}

// Logs owns the console and file handlers of a process
type Logs struct {
	console slog.Handler
	file    slog.Handler
	closer  io.Closer
}

func Setup(opts Options) (*Logs, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logs{
		console: NewConsoleHandler(console, opts.Level),
	}

	if opts.FilePath != "" {
		f, err := OpenFile(opts.FilePath)
		if err != nil {
			return nil, err
		}
		l.file = slog.NewTextHandler(f, &slog.HandlerOptions{Level: opts.Level})
		l.closer = f
	}

	return l, nil
}

// Logger writes to the console and the log file
func (l *Logs) Logger() *slog.Logger {
	if l.file == nil {
		return slog.New(l.console)
	}
	return slog.New(NewMultiHandler(l.console, l.file))
}

// FileLogger skips the console. Used while a full screen TUI owns the terminal.
func (l *Logs) FileLogger() *slog.Logger {
	if l.file == nil {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(l.file)
}

func (l *Logs) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// NewConsoleHandler is a tint handler, coloured only when w is a terminal
func NewConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: consoleTimeFormat,
		NoColor:    !isTerminal(w),
	})
}

// OpenFile opens path for appending, creating its parent directory
func OpenFile(path string) (*os.File, error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
