// Package session defines the contract between the scribe runner and a loaded
// configuration module: the state that must survive every reload and the
// entry-point signature every artifact exports.
package session

import (
	"time"

	"github.com/scribeterm/scribe/clip"
	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/form"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/ui"
)

// FileView is the reload-surviving representation of one file open in one
// view: enough to reopen the buffer exactly where the user left it. The
// session's views are an ordered collection of these, grouped per view; an
// empty collection means the session is over and the runner terminates.
type FileView struct {
	Path   string
	Line   int
	Column int
	// Unsaved holds buffer contents never written to disk, so a reload
	// cannot lose edits.
	Unsaved []byte
}

// Initials are the once-per-process handles each invocation receives first:
// the log sink and the initial styling snapshot the table is reset to between
// cycles.
type Initials struct {
	Logs  *logs.Logs
	Forms form.Snapshot
}

// MetaStatics bundles the process-wide statics that outlive every module
// instance. They are created once at startup and handed, unchanged, into
// every invocation; a module must never replace them.
type MetaStatics struct {
	UI        *ui.Statics
	Clipboard *clip.Clipboard
	Forms     *form.Table
}

// EntryFunc is the signature every configuration artifact exports under
// EntrySymbol. It runs the whole session until the application asks for a
// reload or a shutdown, then returns the updated views, the event receiver to
// thread into the next cycle, and the instant a rebuild started (nil when no
// build ran), used only to report build duration.
//
// EntryFunc is an alias so a plugin's exported function asserts structurally,
// without the plugin having to name this type.
type EntryFunc = func(Initials, MetaStatics, [][]FileView, event.Channel) ([][]FileView, <-chan event.Event, *time.Time)

// EntrySymbol is the exported name resolved in every artifact.
const EntrySymbol = "Run"
