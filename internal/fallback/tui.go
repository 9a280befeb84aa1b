// internal/fallback/tui.go
//
// The interactive face of the fallback session, shown when stdout is a
// terminal. It follows The Elm Architecture via bubbletea: the event channel
// is pumped into the program one message at a time, and the program quits as
// soon as a reload or shutdown is requested.

package fallback

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/session"
)

const recentShown = 8

type keyMap struct {
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// eventMsg wraps one application event for the bubbletea update loop.
type eventMsg event.Event

// waitForEvent reads exactly one event; Update re-issues it after each
// delivery, so at most one reader is ever blocked on the channel.
func waitForEvent(rx <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-rx
		if !ok {
			return eventMsg(event.Event{Kind: event.KindQuit})
		}
		return eventMsg(ev)
	}
}

type model struct {
	init   session.Initials
	ms     session.MetaStatics
	files  [][]session.FileView
	rx     <-chan event.Event
	keys   keyMap
	reload bool
	quit   bool
}

func (m model) Init() tea.Cmd {
	return waitForEvent(m.rx)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quit = true
			return m, tea.Quit
		}
	case eventMsg:
		switch event.Event(msg).Kind {
		case event.KindReloadRequested:
			m.reload = true
			return m, tea.Quit
		case event.KindQuit:
			m.quit = true
			return m, tea.Quit
		default:
			return m, waitForEvent(m.rx)
		}
	}
	return m, nil
}

func (m model) View() string {
	accent, _ := m.ms.Forms.Get("accent")
	status, _ := m.ms.Forms.Get("status")
	errStyle, _ := m.ms.Forms.Get("error")
	keyStyle, _ := m.ms.Forms.Get("key")

	var b strings.Builder
	b.WriteString(accent.Render("scribe — defaults active") + "\n")
	b.WriteString(status.Render("no user configuration is loaded this cycle") + "\n\n")

	recent := m.init.Logs.Recent()
	if len(recent) > recentShown {
		recent = recent[len(recent)-recentShown:]
	}
	for _, rec := range recent {
		line := rec.Message
		if rec.Level == logs.LevelError {
			line = errStyle.Render(line)
		} else {
			line = status.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + fmt.Sprintf("%s quit · rebuild the configuration to reload", keyStyle.Render("q")))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func runInteractive(init session.Initials, ms session.MetaStatics, files [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
	m := model{init: init, ms: ms, files: files, rx: ch.Rx, keys: newKeyMap()}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		init.Logs.Errorf("fallback session: %v", err)
		return drain(files, ch)
	}
	out, ok := final.(model)
	if !ok || out.quit {
		return nil, ch.Rx, nil
	}
	return files, ch.Rx, nil
}
