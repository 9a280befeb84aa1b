package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/scribeterm/scribe/clip"
	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/form"
	"github.com/scribeterm/scribe/internal/build"
	"github.com/scribeterm/scribe/internal/config"
	"github.com/scribeterm/scribe/internal/fallback"
	"github.com/scribeterm/scribe/internal/loader"
	"github.com/scribeterm/scribe/internal/supervisor"
	"github.com/scribeterm/scribe/internal/watch"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/session"
	"github.com/scribeterm/scribe/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	projectFlag := flag.String("project", "", "configuration project directory (defaults to the user config dir)")
	releaseFlag := flag.Bool("release", false, "prefer the optimized artifact profile")
	interpFlag := flag.Bool("interp", false, "interpret the configuration source instead of loading a compiled artifact")
	streamFlag := flag.Bool("stream-build", false, "stream build output to the terminal")
	flag.Parse()

	projectDir := *projectFlag
	if projectDir == "" {
		var err error
		projectDir, err = config.ProjectDir()
		if err != nil {
			return err
		}
	}
	projectDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	// statics: created exactly once, shared with every module instance
	statics := ui.NewStatics()
	var echo io.Writer
	if statics.Interactive {
		echo = os.Stderr
	}
	sink, err := logs.New(projectDir, echo)
	if err != nil {
		return err
	}
	defer sink.Close()

	forms := form.NewTable()
	initials := session.Initials{Logs: sink, Forms: forms.Snapshot()}
	ms := session.MetaStatics{UI: statics, Clipboard: clip.New(), Forms: forms}
	ch := event.NewChannel()

	if err := statics.Open(); err != nil {
		return err
	}
	defer statics.Close()

	if !config.HasProject(projectDir) {
		// degraded mode: one fallback cycle, no watcher, no builder, no
		// reload attempts
		sink.Errorf("no configuration project at %s; loading defaults", projectDir)
		fallback.Run(initials, ms, nil, ch)
		return nil
	}

	if err := config.Init(projectDir); err != nil {
		sink.Errorf("%v", err)
	}
	opts, err := config.LoadOptions(projectDir)
	if err != nil {
		sink.Errorf("%v", err)
	}
	if *releaseFlag {
		opts.Build.Release = true
	}
	if *streamFlag {
		opts.Build.Stream = true
	}
	if *interpFlag {
		opts.Loader.Mode = "interp"
	}

	var (
		ld           loader.Loader
		watcher      *watch.Watcher
		artifactPath string
	)
	if opts.Loader.Mode == "interp" {
		ld = loader.InterpLoader{}
		artifactPath = projectDir
		watcher, err = watch.NewSource(projectDir, sink, ch.Tx)
	} else {
		ld = loader.PluginLoader{}
		artifactPath = ensureArtifact(sink, projectDir, opts)
		watcher, err = watch.New(projectDir, sink, ch.Tx)
	}
	if err != nil {
		// the one unrecoverable setup failure: without the watcher a
		// rebuild could never be observed
		return err
	}
	defer watcher.Close()

	var handle loader.Handle
	if artifactPath != "" {
		h, loadErr := ld.Load(artifactPath)
		if loadErr != nil {
			sink.Errorf("%v; defaults active", loadErr)
		} else {
			handle = h
		}
	}

	sup := &supervisor.Supervisor{
		Loader:   ld,
		Signals:  watcher.Signals(),
		Logs:     sink,
		Fallback: fallback.Run,
		Initials: initials,
		Statics:  ms,
		Channel:  ch,
	}
	return sup.Run(handle, nil)
}

// ensureArtifact probes the candidate output directories and, when nothing
// has ever been built, compiles the project eagerly. A failed build is
// recoverable: the supervisor starts on the fallback and a later rebuild
// arrives through the watcher.
func ensureArtifact(sink *logs.Logs, projectDir string, opts config.Options) string {
	if path, _, ok := config.FindArtifact(projectDir, opts.Build.Release); ok {
		return path
	}
	fmt.Println("Compiling the configuration for the first time, this might take a while...")
	descriptor := filepath.Join(projectDir, config.DescriptorFile)
	res, err := build.Run(sink, build.Spec{
		ProjectDir: projectDir,
		Descriptor: descriptor,
		Release:    opts.Build.Release,
		Stream:     opts.Build.Stream,
		Command:    opts.Build.Command,
	})
	if err != nil {
		sink.Errorf("compile %s: %v", descriptor, err)
		return ""
	}
	sink.Infof("compiled %s profile in %s", res.Profile, res.Elapsed.Round(10*time.Millisecond))
	return res.ArtifactPath
}
