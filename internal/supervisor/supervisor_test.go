package supervisor

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/form"
	"github.com/scribeterm/scribe/internal/loader"
	"github.com/scribeterm/scribe/internal/watch"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/session"
)

// callLog records load/invoke/close ordering across goroutines.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

type fakeHandle struct {
	name  string
	entry session.EntryFunc
	log   *callLog
}

func (h *fakeHandle) Entry() session.EntryFunc { return h.entry }
func (h *fakeHandle) Path() string             { return h.name }
func (h *fakeHandle) Close() error {
	h.log.add("close " + h.name)
	h.entry = nil
	return nil
}

type fakeLoader struct {
	log     *callLog
	handles map[string]loader.Handle
	loads   []string
}

func (l *fakeLoader) Load(path string) (loader.Handle, error) {
	l.loads = append(l.loads, path)
	l.log.add("load " + path)
	h, ok := l.handles[path]
	if !ok {
		return nil, fmt.Errorf("loader: %w: %s", loader.ErrOpenFailed, path)
	}
	return h, nil
}

func openViews(path string) [][]session.FileView {
	return [][]session.FileView{{{Path: path}}}
}

// scriptedEntry returns the given views and hands the receiver straight back.
func scriptedEntry(log *callLog, name string, files [][]session.FileView, at *time.Time) session.EntryFunc {
	return func(_ session.Initials, _ session.MetaStatics, _ [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
		log.add("invoke-start " + name)
		log.add("invoke-end " + name)
		return files, ch.Rx, at
	}
}

func newSupervisor(t *testing.T, ld loader.Loader, signals <-chan watch.Signal, fb session.EntryFunc) (*Supervisor, *logs.Logs) {
	t.Helper()
	sink, err := logs.New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })

	forms := form.NewTable()
	if fb == nil {
		fb = func(_ session.Initials, _ session.MetaStatics, files [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
			return nil, ch.Rx, nil
		}
	}
	return &Supervisor{
		Loader:   ld,
		Signals:  signals,
		Logs:     sink,
		Fallback: fb,
		Initials: session.Initials{Logs: sink, Forms: forms.Snapshot()},
		Statics:  session.MetaStatics{Forms: forms},
		Channel:  event.NewChannel(),
	}, sink
}

func TestUnloadNeverOverlapsInvocation(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}

	b := &fakeHandle{name: "B", log: log}
	b.entry = scriptedEntry(log, "B", nil, nil)
	ld.handles["B"] = b

	a := &fakeHandle{name: "A", log: log}
	a.entry = scriptedEntry(log, "A", openViews("a.txt"), nil)

	signals := make(chan watch.Signal, 1)
	signals <- watch.Signal{ArtifactPath: "B"}

	sup, _ := newSupervisor(t, ld, signals, nil)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		"invoke-start A", "invoke-end A", "close A",
		"load B",
		"invoke-start B", "invoke-end B", "close B",
	}
	got := log.all()
	if len(got) != len(want) {
		t.Fatalf("unexpected ordering: %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d: want %q, got %q (full: %v)", i, want[i], got[i], got)
		}
	}
}

func TestReceiverIdentitySurvivesReloads(t *testing.T) {
	log := &callLog{}
	var mu sync.Mutex
	var seen []<-chan event.Event

	recordingEntry := func(files [][]session.FileView) session.EntryFunc {
		return func(_ session.Initials, _ session.MetaStatics, _ [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
			mu.Lock()
			seen = append(seen, ch.Rx)
			mu.Unlock()
			return files, ch.Rx, nil
		}
	}

	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{
		"B": &fakeHandle{name: "B", log: log, entry: recordingEntry(openViews("a.txt"))},
		"C": &fakeHandle{name: "C", log: log, entry: recordingEntry(nil)},
	}}
	a := &fakeHandle{name: "A", log: log, entry: recordingEntry(openViews("a.txt"))}

	signals := make(chan watch.Signal, 2)
	signals <- watch.Signal{ArtifactPath: "B"}
	signals <- watch.Signal{ArtifactPath: "C"}

	sup, _ := newSupervisor(t, ld, signals, nil)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 cycles, got %d", len(seen))
	}
	for i, rx := range seen {
		if rx != sup.Channel.Rx {
			t.Fatalf("cycle %d received a different receiver", i)
		}
	}
}

func TestEmptyViewsTerminateWithoutReload(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}
	a := &fakeHandle{name: "A", log: log}
	a.entry = scriptedEntry(log, "A", nil, nil)

	signals := make(chan watch.Signal, 1)
	signals <- watch.Signal{ArtifactPath: "B"}

	sup, _ := newSupervisor(t, ld, signals, nil)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ld.loads) != 0 {
		t.Fatalf("no load may happen after the session ends: %v", ld.loads)
	}
	if len(signals) != 1 {
		t.Fatalf("queued signal must stay unconsumed")
	}
}

func TestSignalsLoadInOrder(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}
	ld.handles["target/debug/libconfig.so"] = &fakeHandle{
		name: "debug", log: log,
		entry: scriptedEntry(log, "debug", openViews("a.txt"), nil),
	}
	ld.handles["target/release/libconfig.so"] = &fakeHandle{
		name: "release", log: log,
		entry: scriptedEntry(log, "release", nil, nil),
	}
	a := &fakeHandle{name: "A", log: log}
	a.entry = scriptedEntry(log, "A", openViews("a.txt"), nil)

	signals := make(chan watch.Signal, 2)
	signals <- watch.Signal{ArtifactPath: "target/debug/libconfig.so", Profile: "debug"}
	signals <- watch.Signal{ArtifactPath: "target/release/libconfig.so", Profile: "release"}

	sup, _ := newSupervisor(t, ld, signals, nil)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(ld.loads) != 2 || ld.loads[0] != "target/debug/libconfig.so" || ld.loads[1] != "target/release/libconfig.so" {
		t.Fatalf("signals consumed out of order: %v", ld.loads)
	}
}

func TestLoadFailureRunsFallback(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}
	a := &fakeHandle{name: "A", log: log}
	a.entry = scriptedEntry(log, "A", openViews("a.txt"), nil)

	signals := make(chan watch.Signal, 1)
	signals <- watch.Signal{ArtifactPath: "missing.so"}

	fallbackRan := false
	fb := func(_ session.Initials, _ session.MetaStatics, _ [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
		fallbackRan = true
		return nil, ch.Rx, nil
	}

	sup, sink := newSupervisor(t, ld, signals, fb)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !fallbackRan {
		t.Fatalf("fallback must run when the load fails")
	}

	var logged bool
	for _, rec := range sink.Recent() {
		if rec.Level == logs.LevelError && strings.Contains(rec.Message, "defaults active") {
			logged = true
		}
	}
	if !logged {
		t.Fatalf("load failure must be reported: %+v", sink.Recent())
	}
}

func TestBuildDurationLogged(t *testing.T) {
	log := &callLog{}
	at := time.Now().Add(-1500 * time.Millisecond)
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{
		"B": &fakeHandle{name: "B", log: log, entry: scriptedEntry(log, "B", nil, nil)},
	}}
	a := &fakeHandle{name: "A", log: log}
	a.entry = scriptedEntry(log, "A", openViews("a.txt"), &at)

	signals := make(chan watch.Signal, 1)
	signals <- watch.Signal{ArtifactPath: "B", Profile: "release"}

	sup, sink := newSupervisor(t, ld, signals, nil)
	if err := sup.Run(a, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	var found bool
	for _, rec := range sink.Recent() {
		if strings.Contains(rec.Message, "release profile reloaded in") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reload duration line: %+v", sink.Recent())
	}
}

func TestNilHandleRunsFallbackOnce(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}

	cycles := 0
	fb := func(_ session.Initials, _ session.MetaStatics, _ [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
		cycles++
		return nil, ch.Rx, nil
	}

	sup, _ := newSupervisor(t, ld, make(chan watch.Signal), fb)
	if err := sup.Run(nil, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if cycles != 1 {
		t.Fatalf("expected exactly one fallback cycle, got %d", cycles)
	}
	if len(ld.loads) != 0 {
		t.Fatalf("no artifact may be loaded without a signal: %v", ld.loads)
	}
}

func TestFormsResetBetweenCycles(t *testing.T) {
	log := &callLog{}
	ld := &fakeLoader{log: log, handles: map[string]loader.Handle{}}

	sup, _ := newSupervisor(t, ld, make(chan watch.Signal), nil)

	styler := &fakeHandle{name: "A", log: log}
	styler.entry = func(_ session.Initials, ms session.MetaStatics, _ [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
		ms.Forms.Set("themed", ms.Forms.Snapshot()["default"])
		return nil, ch.Rx, nil
	}

	if err := sup.Run(styler, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := sup.Statics.Forms.Get("themed"); ok {
		t.Fatalf("styling must not leak past a cycle")
	}
}
