// Package engine wires the three scheduling domains together: the D1
// cooperative logic loop, the D3 gamelog tailer, and the D2 mixer device.
// The logic loop and the tailer goroutines run under one errgroup; the
// mixer device is started and closed by Run itself, outside that group.
package engine

import (
	"context"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dfsoundsense/soundsense-go/internal/conf"
	"github.com/dfsoundsense/soundsense-go/internal/errors"
	"github.com/dfsoundsense/soundsense-go/internal/events"
	"github.com/dfsoundsense/soundsense-go/internal/gamelog"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
	"github.com/dfsoundsense/soundsense-go/internal/manager"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
	"github.com/dfsoundsense/soundsense-go/internal/soundpack"
	"github.com/dfsoundsense/soundsense-go/internal/ui"
)

const tick = 10 * time.Millisecond

// Run loads the configured soundpack and gamelog, then drives the logic
// loop until a fatal error occurs or the process is asked to stop. It
// returns the first such error.
func Run(settings *conf.Settings) error {
	log := logging.ForService("engine")

	bus := events.NewBus()
	go ui.Pump(bus, ui.LogPresenter{})

	m, err := mixer.New()
	if err != nil {
		return errors.New(err).Component("engine").Category(errors.CategoryAudioDevice).Build()
	}
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, gctx := errgroup.WithContext(ctx)

	loop := &logicLoop{
		settings: settings,
		mixer:    m,
		bus:      bus,
		group:    group,
		parent:   gctx,
	}
	if err := loop.loadSoundpack(settings.Paths.Soundpack); err != nil {
		return err
	}
	if err := loop.loadGamelog(settings.Paths.Gamelog); err != nil {
		return err
	}

	group.Go(func() error {
		return loop.run(gctx)
	})

	if err := group.Wait(); err != nil {
		log.Error("engine stopped with error", "error", err)
		bus.Events <- events.Event{Kind: events.SoundThreadPanicked, Title: "engine", Body: err.Error()}
		return err
	}
	return nil
}

// logicLoop is D1's mutable state: the current manager and gamelog tailer,
// both of which can be hot-swapped by a command without tearing down the
// mixer or the audio device.
type logicLoop struct {
	settings *conf.Settings
	mixer    *mixer.Mixer
	bus      *events.Bus
	group    *errgroup.Group
	parent   context.Context

	mgr    *manager.Manager
	tailer *gamelog.Tailer
	cancel context.CancelFunc
	lines  <-chan string
}

func (l *logicLoop) loadSoundpack(path string) error {
	result, err := soundpack.Load(path)
	if err != nil {
		return err
	}
	if l.mgr != nil {
		l.mgr.Finish()
	}
	l.mgr = manager.New(result, l.mixer, l.bus)
	l.bus.Events <- events.Event{Kind: events.LoadedSoundpack, ChannelNames: l.mgr.ChannelNames()}
	return nil
}

// loadGamelog opens a new tailer and starts it under the engine's errgroup,
// cancelling any previously running tailer first. Tailer.Run reports no
// error, so the tailer's goroutine always returns nil to the group; a
// failure to open the file is returned to the caller here.
func (l *logicLoop) loadGamelog(path string) error {
	tailer, err := gamelog.Open(path)
	if err != nil {
		return err
	}
	if l.cancel != nil {
		l.cancel()
		l.tailer.Close()
	}

	tailerCtx, cancel := context.WithCancel(l.parent)
	l.tailer = tailer
	l.cancel = cancel
	l.lines = tailer.Lines

	l.group.Go(func() error {
		tailer.Run(tailerCtx)
		return nil
	})

	l.bus.Events <- events.Event{Kind: events.LoadedGamelog}
	return nil
}

func (l *logicLoop) run(ctx context.Context) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.mgr.Finish()
			if l.cancel != nil {
				l.cancel()
			}
			return nil

		case cmd := <-l.bus.Commands:
			l.handleCommand(cmd)

		case line, ok := <-l.lines:
			if !ok {
				return nil
			}
			l.mgr.ProcessLine(line)

		case now := <-ticker.C:
			dtMS := int(now.Sub(last).Milliseconds())
			last = now
			l.mgr.Maintain(dtMS)
		}
	}
}

func (l *logicLoop) handleCommand(cmd events.Command) {
	switch cmd.Kind {
	case events.VolumeChange:
		l.mgr.SetVolume(cmd.Channel, cmd.Percent)
	case events.ThresholdChange:
		l.mgr.SetThreshold(cmd.Channel, cmd.Level)
	case events.SkipCurrentSound:
		l.mgr.Skip(cmd.Channel)
	case events.PlayPause:
		paused := l.mgr.PlayPause(cmd.Channel)
		l.bus.Events <- events.Event{Kind: events.ChannelWasPlayPaused, Channel: cmd.Channel, IsPaused: paused}
	case events.ChangeIgnoreList:
		lines, err := readLines(cmd.Path)
		if err != nil {
			logging.Warn("engine: failed to load ignore list", "path", cmd.Path, "error", err)
			return
		}
		l.mgr.SetIgnoreList(lines)
		l.bus.Events <- events.Event{Kind: events.LoadedIgnoreList}
	case events.ChangeSoundpack:
		if err := l.loadSoundpack(cmd.Path); err != nil {
			logging.Warn("engine: failed to load soundpack", "path", cmd.Path, "error", err)
		}
	case events.ChangeGamelog:
		if err := l.loadGamelog(cmd.Path); err != nil {
			logging.Warn("engine: failed to load gamelog", "path", cmd.Path, "error", err)
		}
	case events.SetCurrentVolumesAsDefault:
		if cmd.Writer == nil {
			return
		}
		if err := l.mgr.SetCurrentVolumesAsDefault(cmd.Writer); err != nil {
			logging.Warn("engine: failed to write default volumes", "error", err)
		}
	}
}

func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}
	return lines, nil
}
