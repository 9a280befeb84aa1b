// Package ui owns the process-wide terminal statics. They are created exactly
// once, before the first configuration module loads, and every module
// invocation receives the same instance; reloads must never reallocate them.
package ui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Statics bundles what the rendering layer needs regardless of which
// configuration module is active.
type Statics struct {
	// Renderer is the lipgloss renderer for the session's output stream.
	Renderer *lipgloss.Renderer
	// Interactive reports whether stdout is a terminal. Non-interactive runs
	// (pipes, tests) skip the built-in session UI.
	Interactive bool

	open bool
}

// NewStatics inspects the process's stdout once.
func NewStatics() *Statics {
	fd := os.Stdout.Fd()
	return &Statics{
		Renderer:    lipgloss.NewRenderer(os.Stdout),
		Interactive: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

// Open brackets the whole supervisor loop; it must be balanced by Close at
// process exit, not per reload cycle.
func (s *Statics) Open() error {
	if s.open {
		return fmt.Errorf("ui: statics already open")
	}
	s.open = true
	return nil
}

// Close releases the terminal.
func (s *Statics) Close() error {
	if !s.open {
		return fmt.Errorf("ui: statics not open")
	}
	s.open = false
	return nil
}
