package adapters

import (
	"fmt"
	"io"
	"os"
	"sync"

	"careerarc/internal/logging/types"
)

// StdoutConfig represents configuration for the stdout adapter
type StdoutConfig struct {
	Format    string `yaml:"format"`    // json or text
	Colorized bool   `yaml:"colorized"` // ANSI colours in text format
}

// StdoutAdapter writes one line per entry to a stream, stdout by default
type StdoutAdapter struct {
	name   string
	config StdoutConfig
	out    io.Writer
	mu     sync.Mutex
}

// NewStdoutAdapter creates an adapter writing to os.Stdout
func NewStdoutAdapter(name string, config StdoutConfig) *StdoutAdapter {
	return NewWriterAdapter(name, config, os.Stdout)
}

// NewWriterAdapter creates a stdout-style adapter over any writer
func NewWriterAdapter(name string, config StdoutConfig, out io.Writer) *StdoutAdapter {
	return &StdoutAdapter{name: name, config: config, out: out}
}

func (a *StdoutAdapter) Write(entry *types.LogEntry) error {
	line, err := formatEntry(entry, a.config.Format, a.config.Colorized)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	_, err = fmt.Fprintln(a.out, line)
	return err
}

func (a *StdoutAdapter) Close() error { return nil }

func (a *StdoutAdapter) Health() error { return nil }

func (a *StdoutAdapter) Name() string { return a.name }
