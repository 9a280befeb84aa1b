// internal/config/config.go
//
// This package locates the user's configuration project and models the
// runner's own settings file (scribe.yaml). The configuration project is a Go
// module under the user's config directory, compiled into a loadable artifact
// by internal/build and picked up by internal/watch.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ProjectEnv overrides where the configuration project is looked up.
	ProjectEnv = "SCRIBE_CONFIG_DIR"
	// DescriptorFile marks a directory as a configuration project root and
	// is the descriptor handed to the build tool.
	DescriptorFile = "go.mod"
	// OptionsFile is the runner's own settings file inside the project.
	OptionsFile = "scribe.yaml"
	// LockFile marks a build in progress inside an artifact output dir. It
	// is created when a build starts and removed when the build tool exits;
	// the watcher keys its debounce on the removal.
	LockFile = ".build-lock"
)

const defaultOptionsYAML = `# scribe runner configuration
version: 1

build:
  # Build tool invoked against the project descriptor.
  command: go
  # Build the optimized profile instead of the debug one.
  prefer_release: false
  # Stream build output to the terminal instead of capturing it.
  stream_output: false

loader:
  # plugin: load the compiled artifact. interp: interpret the source directly.
  mode: plugin
`

// Profile names an artifact build flavor.
type Profile string

const (
	ProfileDebug   Profile = "debug"
	ProfileRelease Profile = "release"
)

// BuildOptions controls how internal/build invokes the tool.
type BuildOptions struct {
	Command string `yaml:"command"`
	Release bool   `yaml:"prefer_release"`
	Stream  bool   `yaml:"stream_output"`
}

// LoaderOptions selects how artifacts become live modules.
type LoaderOptions struct {
	Mode string `yaml:"mode"`
}

// Options models scribe.yaml.
type Options struct {
	Version int           `yaml:"version"`
	Build   BuildOptions  `yaml:"build"`
	Loader  LoaderOptions `yaml:"loader"`
}

// DefaultOptions returns the settings used when scribe.yaml is absent.
func DefaultOptions() Options {
	return Options{
		Version: 1,
		Build:   BuildOptions{Command: "go"},
		Loader:  LoaderOptions{Mode: "plugin"},
	}
}

// ProjectDir resolves the configuration project root: the override env var
// when set, otherwise <user config dir>/scribe.
func ProjectDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(ProjectEnv)); dir != "" {
		return filepath.Abs(dir)
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, "scribe"), nil
}

// HasProject reports whether dir contains a configuration project.
func HasProject(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, DescriptorFile))
	return err == nil && !info.IsDir()
}

// Init writes a default scribe.yaml into an existing project that has none.
func Init(projectDir string) error {
	path := filepath.Join(projectDir, OptionsFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(defaultOptionsYAML), 0o644); err != nil {
		return fmt.Errorf("config: write default %s: %w", OptionsFile, err)
	}
	return nil
}

// LoadOptions reads scribe.yaml from the project, filling in defaults for
// anything unset. A missing file yields the defaults.
func LoadOptions(projectDir string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(filepath.Join(projectDir, OptionsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("config: read %s: %w", OptionsFile, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return DefaultOptions(), fmt.Errorf("config: parse %s: %w", OptionsFile, err)
	}
	if strings.TrimSpace(opts.Build.Command) == "" {
		opts.Build.Command = "go"
	}
	switch opts.Loader.Mode {
	case "", "plugin":
		opts.Loader.Mode = "plugin"
	case "interp":
	default:
		return DefaultOptions(), fmt.Errorf("config: unknown loader mode %q", opts.Loader.Mode)
	}
	return opts, nil
}

// ArtifactFile returns the platform-specific loadable artifact filename.
func ArtifactFile() string {
	switch runtime.GOOS {
	case "windows":
		return "config.dll"
	case "darwin":
		return "libconfig.dylib"
	default:
		return "libconfig.so"
	}
}

// Candidate is one artifact output directory and the profile it holds.
type Candidate struct {
	Dir     string
	Profile Profile
}

// CandidateDirs lists the artifact output directories in probe order, the
// preferred profile first. Both the plain and the target-qualified layout are
// covered for each profile.
func CandidateDirs(projectDir string, preferRelease bool) []Candidate {
	target := runtime.GOOS + "_" + runtime.GOARCH
	debug := []Candidate{
		{Dir: filepath.Join(projectDir, "target", "debug"), Profile: ProfileDebug},
		{Dir: filepath.Join(projectDir, "target", target, "debug"), Profile: ProfileDebug},
	}
	release := []Candidate{
		{Dir: filepath.Join(projectDir, "target", "release"), Profile: ProfileRelease},
		{Dir: filepath.Join(projectDir, "target", target, "release"), Profile: ProfileRelease},
	}
	if preferRelease {
		return append(release, debug...)
	}
	return append(debug, release...)
}

// OutputDir returns the canonical artifact directory for a profile.
func OutputDir(projectDir string, profile Profile) string {
	return filepath.Join(projectDir, "target", string(profile))
}

// FindArtifact probes the candidate directories for an existing artifact.
func FindArtifact(projectDir string, preferRelease bool) (path string, profile Profile, ok bool) {
	name := ArtifactFile()
	for _, c := range CandidateDirs(projectDir, preferRelease) {
		p := filepath.Join(c.Dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, c.Profile, true
		}
	}
	return "", "", false
}
