package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/scribeterm/scribe/session"
)

// InterpLoader evaluates the configuration source directly instead of loading
// a compiled artifact. It serves platforms without native plugin support and
// the `loader: interp` setting; "unloading" is simply dropping the
// interpreter, so reload cycles cost no build step.
type InterpLoader struct{}

// Load interprets every .go file under dir and resolves the entry symbol.
func (InterpLoader) Load(dir string) (Handle, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", ErrOpenFailed, dir, err)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loader: %w: stdlib symbols: %v", ErrOpenFailed, err)
	}
	if err := i.Use(Symbols()); err != nil {
		return nil, fmt.Errorf("loader: %w: scribe symbols: %v", ErrOpenFailed, err)
	}

	evaluated := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			continue
		}
		if _, err := i.EvalPath(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("loader: %w: interpret %s: %v", ErrOpenFailed, name, err)
		}
		evaluated++
	}
	if evaluated == 0 {
		return nil, fmt.Errorf("loader: %w: no Go source in %s", ErrOpenFailed, dir)
	}

	v, err := i.Eval(session.EntrySymbol)
	if err != nil {
		return nil, fmt.Errorf("loader: %w: %s: %v", ErrSymbolMissing, dir, err)
	}
	entry, ok := v.Interface().(session.EntryFunc)
	if !ok {
		return nil, fmt.Errorf("loader: %w: %s defines %s with the wrong signature", ErrSymbolMissing, dir, session.EntrySymbol)
	}
	return &interpHandle{path: dir, entry: entry, interp: i}, nil
}

type interpHandle struct {
	path   string
	entry  session.EntryFunc
	interp *interp.Interpreter
}

func (h *interpHandle) Entry() session.EntryFunc { return h.entry }

func (h *interpHandle) Path() string { return h.path }

func (h *interpHandle) Close() error {
	h.entry = nil
	h.interp = nil
	return nil
}
