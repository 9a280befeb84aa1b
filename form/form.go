// Package form holds the named styling table ("forms") shared between the
// runner and the loaded configuration module. A module may overwrite or add
// entries freely while it runs; the supervisor restores the initial snapshot
// between cycles so one module's styling never bleeds into its replacement.
package form

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Snapshot is an immutable copy of the table contents, captured once at
// process start and used to reset the table after every cycle.
type Snapshot map[string]lipgloss.Style

// Table is the live styling registry. It is part of the process-wide statics:
// created exactly once and never reallocated across reloads.
type Table struct {
	mu     sync.RWMutex
	styles map[string]lipgloss.Style
}

// NewTable returns a table seeded with the built-in default forms.
func NewTable() *Table {
	return &Table{styles: defaultStyles()}
}

func defaultStyles() map[string]lipgloss.Style {
	return map[string]lipgloss.Style{
		"default":   lipgloss.NewStyle(),
		"accent":    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		"error":     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		"key":       lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
		"selection": lipgloss.NewStyle().Reverse(true),
		"status":    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Set installs or replaces a named form.
func (t *Table) Set(name string, style lipgloss.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.styles[name] = style
}

// Get looks up a named form.
func (t *Table) Get(name string) (lipgloss.Style, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.styles[name]
	return s, ok
}

// Names returns the sorted form names currently installed.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.styles))
	for name := range t.styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current contents.
func (t *Table) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make(Snapshot, len(t.styles))
	for name, style := range t.styles {
		snap[name] = style
	}
	return snap
}

// Reset discards every entry and restores the given snapshot.
func (t *Table) Reset(init Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.styles = make(map[string]lipgloss.Style, len(init))
	for name, style := range init {
		t.styles[name] = style
	}
}
