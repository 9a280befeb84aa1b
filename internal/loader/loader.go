// Package loader turns build artifacts into live module handles. The unsafe
// dynamic-loading boundary is confined here: a handle moves through
// Unloaded → Loaded → Unloaded, and its entry point must never be called once
// it has been closed. The supervisor guarantees structurally that no
// invocation is in flight when Close runs.
package loader

import (
	"errors"
	"fmt"
	"plugin"

	"github.com/scribeterm/scribe/session"
)

// Error kinds callers branch on when deciding to fall back to the built-in
// default configuration.
var (
	// ErrOpenFailed marks an artifact that is missing, corrupt, or has
	// unresolved dependencies.
	ErrOpenFailed = errors.New("artifact could not be opened")
	// ErrSymbolMissing marks an artifact without a usable entry symbol. The
	// signature check is best-effort: a same-named export with a compatible
	// shape but different semantics is an inherent risk of dynamic loading.
	ErrSymbolMissing = errors.New("entry symbol missing or mistyped")
)

// Handle is one loaded artifact plus its resolved entry point. Entry is valid
// only while the handle is loaded; after Close it returns nil so any
// use-after-close fails loudly at the call site instead of running stale code.
type Handle interface {
	// Entry returns the resolved entry point, or nil once closed.
	Entry() session.EntryFunc
	// Path identifies the underlying artifact for diagnostics.
	Path() string
	// Close releases the artifact's resources. It must only be called after
	// every invocation of the entry point has returned.
	Close() error
}

// Loader opens an artifact path as a live Handle.
type Loader interface {
	Load(path string) (Handle, error)
}

// PluginLoader loads compiled artifacts through the runtime's native plugin
// support.
type PluginLoader struct{}

// Load opens the artifact and resolves the entry symbol.
func (PluginLoader) Load(path string) (Handle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", ErrOpenFailed, path, err)
	}
	sym, err := p.Lookup(session.EntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", ErrSymbolMissing, path, err)
	}
	entry, err := entryOf(sym)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", ErrSymbolMissing, path, err)
	}
	return &pluginHandle{path: path, entry: entry}, nil
}

// entryOf accepts both an exported function and an exported variable of the
// entry type; plugin.Lookup yields the function value for the former and a
// pointer for the latter.
func entryOf(sym plugin.Symbol) (session.EntryFunc, error) {
	switch v := sym.(type) {
	case session.EntryFunc:
		return v, nil
	case *session.EntryFunc:
		if *v == nil {
			return nil, fmt.Errorf("exported %s variable is nil", session.EntrySymbol)
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("exported %s has the wrong signature (%T)", session.EntrySymbol, sym)
	}
}

type pluginHandle struct {
	path  string
	entry session.EntryFunc
}

func (h *pluginHandle) Entry() session.EntryFunc { return h.entry }

func (h *pluginHandle) Path() string { return h.path }

// Close drops the entry reference. Native plugins cannot be unmapped from the
// process; forgetting the symbol is the strongest release available and makes
// a use-after-close panic instead of silently running the old module.
func (h *pluginHandle) Close() error {
	h.entry = nil
	return nil
}
