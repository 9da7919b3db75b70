// Package ui implements the default rendering of engine events. It is
// intentionally the thinnest possible Presenter: a structured-log sink,
// sufficient to drive and observe the manager without a real GUI toolkit.
package ui

import (
	"log/slog"

	"github.com/dfsoundsense/soundsense-go/internal/events"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
)

// Presenter consumes Events emitted by the logic goroutine. Implementations
// must not block the caller for longer than rendering one event requires.
type Presenter interface {
	Present(events.Event)
}

// LogPresenter renders every event as a structured log line.
type LogPresenter struct{}

func (LogPresenter) Present(e events.Event) {
	log := logging.ForService("ui")
	if log == nil {
		// logging.Init has not run yet
		log = slog.Default()
	}
	switch e.Kind {
	case events.LoadedGamelog:
		log.Info("gamelog loaded")
	case events.LoadedSoundpack:
		log.Info("soundpack loaded", "channels", e.ChannelNames)
	case events.LoadedIgnoreList:
		log.Info("ignore list loaded")
	case events.LoadedVolumeSettings:
		log.Info("volume settings loaded", "settings", e.VolumeSettings)
	case events.ChannelWasPlayPaused:
		log.Info("channel play/pause changed", "channel", e.Channel, "paused", e.IsPaused)
	case events.SoundThreadPanicked:
		log.Error("sound thread panicked", "title", e.Title, "body", e.Body)
	default:
		log.Warn("unknown event kind", "kind", e.Kind)
	}
}

// Pump forwards every event from bus until the channel is closed, handing
// each to p. Intended to run in its own goroutine.
func Pump(bus *events.Bus, p Presenter) {
	for e := range bus.Events {
		p.Present(e)
	}
}
