// Package supervisor drives the reload loop: run the current module (or the
// built-in fallback) until it yields, capture the session state it returns,
// unload it, block for the next watch signal, load the replacement, repeat.
// The session ends when a cycle returns no open views.
package supervisor

import (
	"errors"
	"fmt"
	"time"

	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/internal/loader"
	"github.com/scribeterm/scribe/internal/watch"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/session"
)

// Supervisor owns the loop. All fields are set once at bootstrap.
type Supervisor struct {
	Loader   loader.Loader
	Signals  <-chan watch.Signal
	Logs     *logs.Logs
	Fallback session.EntryFunc
	Initials session.Initials
	Statics  session.MetaStatics
	Channel  event.Channel
}

// cycleResult is what one invocation hands back to the loop.
type cycleResult struct {
	files      [][]session.FileView
	rx         <-chan event.Event
	reloadedAt *time.Time
}

// Run executes reload cycles until the session ends. handle may be nil, in
// which case the first cycle runs the fallback. files seeds the first
// invocation; the event receiver starts from Channel.Rx and thereafter is
// whatever each invocation returns, so queued events survive every reload.
func (s *Supervisor) Run(handle loader.Handle, files [][]session.FileView) error {
	rx := s.Channel.Rx
	for {
		entry := s.Fallback
		if handle != nil {
			entry = handle.Entry()
		}

		res := s.invoke(entry, files, rx)
		files, rx = res.files, res.rx

		// the next module starts from the initial styling, never from
		// whatever the outgoing one installed
		s.Statics.Forms.Reset(s.Initials.Forms)

		// safe only here: the invocation has returned and no entry
		// reference remains in flight
		if handle != nil {
			if err := handle.Close(); err != nil {
				s.Logs.Errorf("unload %s: %v", handle.Path(), err)
			}
			handle = nil
		}

		if len(files) == 0 {
			return nil
		}

		sig, ok := <-s.Signals
		if !ok {
			return fmt.Errorf("supervisor: signal channel closed with %d open views", len(files))
		}
		s.logReload(sig, res.reloadedAt)

		next, err := s.Loader.Load(sig.ArtifactPath)
		if err != nil {
			s.reportLoadError(sig.ArtifactPath, err)
			continue
		}
		handle = next
	}
}

// invoke runs one entry invocation on its own goroutine and joins it before
// returning, so the entry reference is provably out of scope when the caller
// unloads the handle. A panic inside the invocation is deliberately not
// recovered: session state after a mid-flight fault is of unknown validity.
func (s *Supervisor) invoke(entry session.EntryFunc, files [][]session.FileView, rx <-chan event.Event) cycleResult {
	done := make(chan cycleResult, 1)
	go func() {
		ch := event.Channel{Tx: s.Channel.Tx, Rx: rx}
		f, r, at := entry(s.Initials, s.Statics, files, ch)
		done <- cycleResult{files: f, rx: r, reloadedAt: at}
	}()
	return <-done
}

func (s *Supervisor) logReload(sig watch.Signal, reloadedAt *time.Time) {
	if reloadedAt != nil {
		s.Logs.Infof("%s profile reloaded in %s", sig.Profile, time.Since(*reloadedAt).Round(10*time.Millisecond))
		return
	}
	s.Logs.Infof("%s profile reloaded", sig.Profile)
}

func (s *Supervisor) reportLoadError(path string, err error) {
	if errors.Is(err, loader.ErrOpenFailed) || errors.Is(err, loader.ErrSymbolMissing) {
		s.Logs.Errorf("%v; defaults active this cycle", err)
		return
	}
	s.Logs.Errorf("load %s: %v; defaults active this cycle", path, err)
}
