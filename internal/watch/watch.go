// Package watch observes the configuration project's build output directories
// and tells the supervisor when a fresh artifact is ready to load.
//
// Artifact creation and the build tool's lock release are asynchronous, so
// the watcher debounces in two steps: an artifact-creation event only records
// that a build happened; the signal is emitted when the build lock disappears
// afterwards. Emitting on creation alone risks loading a half-written
// artifact.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/internal/config"
	"github.com/scribeterm/scribe/logs"
)

// Signal tells the supervisor exactly one fresh artifact is ready. Each
// signal is consumed once; they are delivered in filesystem-event order.
type Signal struct {
	ArtifactPath string
	Profile      config.Profile
}

// Watcher owns the fsnotify instance and its delivery goroutine for the
// whole process lifetime.
type Watcher struct {
	fs      *fsnotify.Watcher
	signals chan Signal
	sink    *logs.Logs
	appTx   chan<- event.Event
}

// settleDelay coalesces a burst of source writes into one signal in source
// mode, where no build lock exists to key on.
const settleDelay = 300 * time.Millisecond

// New registers non-recursive watches on every candidate output directory,
// creating any that do not exist yet. Failure here is fatal to the caller:
// without the watcher the supervisor can never observe a rebuild.
func New(projectDir string, sink *logs.Logs, appTx chan<- event.Event) (*Watcher, error) {
	w, err := newWatcher(sink, appTx)
	if err != nil {
		return nil, err
	}
	for _, c := range config.CandidateDirs(projectDir, false) {
		if err := os.MkdirAll(c.Dir, 0o755); err != nil {
			w.fs.Close()
			return nil, fmt.Errorf("watch: ensure %s: %w", c.Dir, err)
		}
		if err := w.fs.Add(c.Dir); err != nil {
			w.fs.Close()
			return nil, fmt.Errorf("watch: watch %s: %w", c.Dir, err)
		}
	}
	go w.runArtifacts()
	return w, nil
}

// NewSource watches the project source directory instead of the build
// outputs, for the interpreted loader mode: any change to a .go file yields
// one coalesced signal whose path is the project directory itself.
func NewSource(projectDir string, sink *logs.Logs, appTx chan<- event.Event) (*Watcher, error) {
	w, err := newWatcher(sink, appTx)
	if err != nil {
		return nil, err
	}
	if err := w.fs.Add(projectDir); err != nil {
		w.fs.Close()
		return nil, fmt.Errorf("watch: watch %s: %w", projectDir, err)
	}
	go w.runSource(projectDir)
	return w, nil
}

func newWatcher(sink *logs.Logs, appTx chan<- event.Event) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{fs: fsw, signals: make(chan Signal, 8), sink: sink, appTx: appTx}, nil
}

// Signals is the channel the supervisor blocks on between cycles.
func (w *Watcher) Signals() <-chan Signal { return w.signals }

// Close stops event delivery. Pending signals stay readable.
func (w *Watcher) Close() error { return w.fs.Close() }

func (w *Watcher) runArtifacts() {
	artifact := config.ArtifactFile()
	var pending *Signal
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			switch {
			// go build writes to a temp file and renames into place, so the
			// artifact may surface as either op.
			case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename):
				if filepath.Base(ev.Name) == artifact {
					pending = &Signal{ArtifactPath: ev.Name, Profile: profileOf(ev.Name)}
				}
			case ev.Op.Has(fsnotify.Remove):
				if filepath.Base(ev.Name) == config.LockFile && pending != nil {
					w.emit(*pending)
					pending = nil
				}
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sink.Errorf("watch: %v", err)
		}
	}
}

func (w *Watcher) runSource(projectDir string) {
	var pending *Signal
	var settle *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Ext(ev.Name) != ".go" {
				continue
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			pending = &Signal{ArtifactPath: projectDir, Profile: config.ProfileDebug}
			if settle == nil {
				settle = time.NewTimer(settleDelay)
				fire = settle.C
			} else {
				if !settle.Stop() {
					select {
					case <-settle.C:
					default:
					}
				}
				settle.Reset(settleDelay)
			}
		case <-fire:
			if pending != nil {
				w.emit(*pending)
				pending = nil
			}
			settle = nil
			fire = nil
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sink.Errorf("watch: %v", err)
		}
	}
}

// emit queues the signal for the supervisor and nudges the running module to
// wind down. The nudge send never blocks: a full application channel means
// the module is not draining events, and the queued signal still triggers the
// reload whenever it does return.
func (w *Watcher) emit(sig Signal) {
	w.signals <- sig
	select {
	case w.appTx <- event.Event{Kind: event.KindReloadRequested}:
	default:
	}
}

func profileOf(artifactPath string) config.Profile {
	if filepath.Base(filepath.Dir(artifactPath)) == string(config.ProfileRelease) {
		return config.ProfileRelease
	}
	return config.ProfileDebug
}
