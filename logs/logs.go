// Package logs provides the process-wide log sink. The sink is created once,
// before the first configuration module loads, and is handed to every module
// invocation as an explicit handle: both the log file and the in-memory ring
// survive every reload.
package logs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level classifies a record.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// String returns the uppercase level tag used in the log file.
func (l Level) String() string {
	if l == LevelError {
		return "ERROR"
	}
	return "INFO"
}

// Record is one retained log entry. The UI layer reads these back to show
// recent messages to the user.
type Record struct {
	Time    time.Time
	Level   Level
	Message string
}

const ringSize = 256

// Logs appends timestamped lines to logs/scribe.log under the configuration
// directory and keeps a bounded ring of recent records, so failures can be
// inspected both after the process exits and from inside a running session.
type Logs struct {
	mu     sync.Mutex
	file   *os.File
	echo   io.Writer
	recent []Record

	infoStyle lipgloss.Style
	errStyle  lipgloss.Style
}

// New creates (or reuses) the log file under dir. echo, when non-nil,
// receives a styled copy of every line; pass the terminal only when it is
// interactive.
func New(dir string, echo io.Writer) (*Logs, error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logs: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "scribe.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logs: open log file: %w", err)
	}
	return &Logs{
		file:      f,
		echo:      echo,
		infoStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		errStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}, nil
}

// Close releases the file handle.
func (l *Logs) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Infof records an informational message.
func (l *Logs) Infof(format string, args ...any) {
	l.write(LevelInfo, format, args...)
}

// Errorf records an error visible to the user. Recoverable failures in the
// reload cycle all pass through here; none are silently swallowed.
func (l *Logs) Errorf(format string, args ...any) {
	l.write(LevelError, format, args...)
}

// Recent returns a copy of the retained records, oldest first.
func (l *Logs) Recent() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.recent))
	copy(out, l.recent)
	return out
}

func (l *Logs) write(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		fmt.Fprintf(l.file, "[%s] %s %s\n", now.Format(time.RFC3339), level, msg)
	}
	if l.echo != nil {
		style := l.infoStyle
		if level == LevelError {
			style = l.errStyle
		}
		fmt.Fprintln(l.echo, style.Render(msg))
	}
	l.recent = append(l.recent, Record{Time: now, Level: level, Message: msg})
	if len(l.recent) > ringSize {
		l.recent = l.recent[len(l.recent)-ringSize:]
	}
}
