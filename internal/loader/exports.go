package loader

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/scribeterm/scribe/clip"
	"github.com/scribeterm/scribe/event"
	"github.com/scribeterm/scribe/form"
	"github.com/scribeterm/scribe/logs"
	"github.com/scribeterm/scribe/session"
	"github.com/scribeterm/scribe/ui"
)

// Symbols exposes the scribe API to interpreted configuration modules, in the
// layout yaegi expects (import path slash package name). Kept by hand: the
// surface is small and changes rarely.
func Symbols() interp.Exports {
	return interp.Exports{
		"github.com/scribeterm/scribe/event/event": {
			"Event":               reflect.ValueOf((*event.Event)(nil)),
			"Kind":                reflect.ValueOf((*event.Kind)(nil)),
			"Channel":             reflect.ValueOf((*event.Channel)(nil)),
			"NewChannel":          reflect.ValueOf(event.NewChannel),
			"KindKey":             reflect.ValueOf(event.KindKey),
			"KindResize":          reflect.ValueOf(event.KindResize),
			"KindReloadRequested": reflect.ValueOf(event.KindReloadRequested),
			"KindQuit":            reflect.ValueOf(event.KindQuit),
		},
		"github.com/scribeterm/scribe/session/session": {
			"FileView":    reflect.ValueOf((*session.FileView)(nil)),
			"Initials":    reflect.ValueOf((*session.Initials)(nil)),
			"MetaStatics": reflect.ValueOf((*session.MetaStatics)(nil)),
			"EntrySymbol": reflect.ValueOf(session.EntrySymbol),
		},
		"github.com/scribeterm/scribe/form/form": {
			"Table":    reflect.ValueOf((*form.Table)(nil)),
			"Snapshot": reflect.ValueOf((*form.Snapshot)(nil)),
			"NewTable": reflect.ValueOf(form.NewTable),
		},
		"github.com/scribeterm/scribe/logs/logs": {
			"Logs":       reflect.ValueOf((*logs.Logs)(nil)),
			"Record":     reflect.ValueOf((*logs.Record)(nil)),
			"Level":      reflect.ValueOf((*logs.Level)(nil)),
			"LevelInfo":  reflect.ValueOf(logs.LevelInfo),
			"LevelError": reflect.ValueOf(logs.LevelError),
			"New":        reflect.ValueOf(logs.New),
		},
		"github.com/scribeterm/scribe/clip/clip": {
			"Clipboard": reflect.ValueOf((*clip.Clipboard)(nil)),
			"New":       reflect.ValueOf(clip.New),
		},
		"github.com/scribeterm/scribe/ui/ui": {
			"Statics":    reflect.ValueOf((*ui.Statics)(nil)),
			"NewStatics": reflect.ValueOf(ui.NewStatics),
		},
	}
}
