// Package clip wraps clipboard access behind a process-wide handle. The
// handle keeps an in-process buffer for environments without a system
// clipboard (headless sessions, missing xclip/xsel), so yank and paste keep
// working either way.
package clip

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard is created once per process and shared with every configuration
// module through the meta-statics.
type Clipboard struct {
	mu     sync.Mutex
	local  string
	system bool
}

// New returns a clipboard backed by the system clipboard when one is
// available.
func New() *Clipboard {
	return &Clipboard{system: !clipboard.Unsupported}
}

// Set stores text, preferring the system clipboard and falling back to the
// in-process buffer when the write fails.
func (c *Clipboard) Set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.local = text
	if c.system {
		if err := clipboard.WriteAll(text); err != nil {
			c.system = false
		}
	}
}

// Get returns the most recent text, reading the system clipboard when
// possible so content copied outside the process is visible too.
func (c *Clipboard) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.system {
		if text, err := clipboard.ReadAll(); err == nil {
			return text
		}
		c.system = false
	}
	return c.local
}
