// Package fallback is the built-in default entry point. It runs whenever no
// user configuration is available — the project is missing, the build failed,
// or the artifact would not load — so a broken configuration degrades the
// session to defaults instead of ending it.
package fallback

import (
	"time"

	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/session"
)

// Run satisfies session.EntryFunc.
func Run(init session.Initials, ms session.MetaStatics, files [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
	// a failed user module must not leave its styling behind
	ms.Forms.Reset(init.Forms)
	init.Logs.Infof("defaults active; user configuration not loaded")

	if ms.UI != nil && ms.UI.Interactive {
		return runInteractive(init, ms, files, ch)
	}
	return drain(files, ch)
}

// drain is the non-interactive session: honor whatever is already queued,
// then wait to be told to reload or quit. Without a UI no new view can ever
// open, so an empty session with nothing queued ends immediately instead of
// blocking forever.
func drain(files [][]session.FileView, ch event.Channel) ([][]session.FileView, <-chan event.Event, *time.Time) {
	for {
		var ev event.Event
		var ok bool
		if len(files) == 0 {
			select {
			case ev, ok = <-ch.Rx:
			default:
				return files, ch.Rx, nil
			}
		} else {
			ev, ok = <-ch.Rx
		}
		if !ok {
			return nil, ch.Rx, nil
		}
		switch ev.Kind {
		case event.KindReloadRequested:
			return files, ch.Rx, nil
		case event.KindQuit:
			return nil, ch.Rx, nil
		}
	}
}
