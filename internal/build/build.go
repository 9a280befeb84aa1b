// Package build invokes the external build tool that turns the configuration
// project into a loadable artifact. It runs synchronously and only ever runs
// eagerly, before the first load, when no artifact exists yet; later rebuilds
// happen outside the runner and reach it through the watcher.
package build

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/scribeterm/scribe/internal/config"
	"github.com/scribeterm/scribe/logs"
)

// Spec describes one build.
type Spec struct {
	// ProjectDir is the configuration project root.
	ProjectDir string
	// Descriptor is the build descriptor path, reported in diagnostics.
	Descriptor string
	// Release selects the optimized profile.
	Release bool
	// Stream forwards tool output to the terminal instead of capturing it.
	Stream bool
	// Command is the build tool binary; empty means "go".
	Command string
}

// Result reports where a successful build landed.
type Result struct {
	ArtifactPath string
	Profile      config.Profile
	Elapsed      time.Duration
}

// Run compiles the project into the canonical output directory for the
// requested profile. The lock marker is held for the duration of the tool
// invocation so watchers can tell a complete artifact from one still being
// written. Failure is recoverable by the caller; stderr is surfaced through
// the sink unless output was streamed.
func Run(sink *logs.Logs, spec Spec) (Result, error) {
	profile := config.ProfileDebug
	if spec.Release {
		profile = config.ProfileRelease
	}
	outDir := config.OutputDir(spec.ProjectDir, profile)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("build: ensure %s: %w", outDir, err)
	}
	artifact := filepath.Join(outDir, config.ArtifactFile())

	lock := filepath.Join(outDir, config.LockFile)
	if err := os.WriteFile(lock, nil, 0o644); err != nil {
		return Result{}, fmt.Errorf("build: write lock: %w", err)
	}
	defer os.Remove(lock)

	command := spec.Command
	if command == "" {
		command = "go"
	}
	args := []string{"build", "-buildmode=plugin", "-o", artifact}
	if spec.Release {
		args = append(args, "-trimpath", "-ldflags=-s -w")
	} else {
		args = append(args, "-gcflags=all=-N -l")
	}
	args = append(args, ".")

	cmd := exec.Command(command, args...)
	cmd.Dir = spec.ProjectDir

	start := time.Now()
	var stderr bytes.Buffer
	if spec.Stream {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		if !spec.Stream && stderr.Len() > 0 {
			sink.Errorf("build %s: %s", spec.Descriptor, strings.TrimSpace(stderr.String()))
		}
		return Result{}, fmt.Errorf("build: %s %s: %w", command, strings.Join(args, " "), err)
	}
	return Result{ArtifactPath: artifact, Profile: profile, Elapsed: time.Since(start)}, nil
}
