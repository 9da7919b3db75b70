// Package manager implements C8: the dispatcher that drives tailed log
// lines through the rule table into sound channels, and serves the
// external command surface.
package manager

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dfsoundsense/soundsense-go/internal/control"
	"github.com/dfsoundsense/soundsense-go/internal/events"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
	"github.com/dfsoundsense/soundsense-go/internal/mixer"
	"github.com/dfsoundsense/soundsense-go/internal/patternrewrite"
	"github.com/dfsoundsense/soundsense-go/internal/player"
	"github.com/dfsoundsense/soundsense-go/internal/ruletable"
	"github.com/dfsoundsense/soundsense-go/internal/soundchannel"
	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
	"github.com/dfsoundsense/soundsense-go/internal/soundpack"
)

const totalChannel = "total"

var repeatMarker = regexp.MustCompile(`^x[0-9]+$`)

// Manager is the C8 runtime: one per loaded soundpack.
type Manager struct {
	mixer *mixer.Mixer
	bus   *events.Bus

	table        *ruletable.Table
	channels     map[string]*soundchannel.Channel
	channelOrder []string

	ignoreList []*regexp.Regexp

	globalVolume    *control.Volume
	globalPause     *control.Pause
	globalThreshold int

	prevLine string
	rng      *rand.Rand

	generation uuid.UUID
	warnDedup  *gocache.Cache
}

// New builds a Manager from a loaded soundpack, creating every channel's
// players on the shared mixer. "total" names the global volume/pause cells,
// not a channel, so no channel is created for it.
func New(result *soundpack.Result, m *mixer.Mixer, bus *events.Bus) *Manager {
	mgr := &Manager{
		mixer:           m,
		bus:             bus,
		table:           result.Table,
		channels:        make(map[string]*soundchannel.Channel),
		channelOrder:    result.ChannelOrder,
		globalVolume:    control.NewVolume(1.0),
		globalPause:     &control.Pause{},
		globalThreshold: 4,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		generation:      uuid.New(),
		warnDedup:       gocache.New(30*time.Second, time.Minute),
	}
	for _, name := range result.ChannelOrder {
		if name == totalChannel {
			continue
		}
		ch := soundchannel.New(name, m, mgr.globalVolume, mgr.globalPause)
		if pt, ok := result.Channels[name]; ok {
			ch.PlayType = pt
		}
		mgr.channels[name] = ch
	}
	return mgr
}

func (m *Manager) ChannelNames() []string {
	out := make([]string, len(m.channelOrder))
	copy(out, m.channelOrder)
	return out
}

// SetIgnoreList replaces the ignore-pattern list atomically, applying the
// same legacy-dialect rewrites used for rule patterns.
func (m *Manager) SetIgnoreList(lines []string) {
	var compiled []*regexp.Regexp
	for _, raw := range lines {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		re, err := regexp.Compile(patternrewrite.Rewrite(raw))
		if err != nil {
			logging.Warn("manager: invalid ignore pattern dropped", "pattern", raw, "error", err)
			continue
		}
		compiled = append(compiled, re)
	}
	m.ignoreList = compiled
}

// ProcessLine checks line against the ignore list, then every compiled
// rule in table order, dispatching to the matching channel(s).
func (m *Manager) ProcessLine(line string) {
	if repeatMarker.MatchString(line) {
		line = m.prevLine
	} else {
		m.prevLine = line
	}

	for _, ig := range m.ignoreList {
		if ig.MatchString(line) {
			return
		}
	}

	for idx, entry := range m.table.Entries {
		if !entry.Regexp.MatchString(line) {
			continue
		}
		m.table.MarkRecent(idx)

		if m.canPlay(entry) {
			m.dispatch(entry)
		}

		if entry.HaltOnMatch {
			return
		}
	}
}

func (m *Manager) canPlay(entry *ruletable.CompiledEntry) bool {
	if entry.CurrentTimeoutMS > 0 {
		return false
	}
	if entry.Probability != nil {
		draw := m.rng.Intn(100)
		if draw >= *entry.Probability {
			return false
		}
	}
	if entry.Threshold > m.globalThreshold {
		return false
	}
	return true
}

func (m *Manager) dispatch(entry *ruletable.CompiledEntry) {
	idx := 0
	if len(entry.Files) > 1 && entry.Loop != soundmodel.LoopStart {
		idx = weightedIndex(m.rng, entry.Weights)
	}

	channelName := entry.Channel
	var ch *soundchannel.Channel
	if channelName != "" {
		var ok bool
		ch, ok = m.channels[channelName]
		if !ok {
			m.warnOnce("unknown-channel:"+channelName, "manager: rule references unknown channel, skipping", "channel", channelName)
			return
		}
	} else {
		ch = m.channels["misc"]
	}

	concurrency := -1
	if entry.Concurrency != nil {
		concurrency = *entry.Concurrency
	}
	if concurrency >= 0 && ch.Len() >= concurrency {
		return
	}
	if ch.Threshold < entry.Threshold {
		return
	}

	if entry.TimeoutMS != nil {
		entry.CurrentTimeoutMS = *entry.TimeoutMS
	} else {
		entry.CurrentTimeoutMS = 0
	}

	switch entry.Loop {
	case soundmodel.LoopStart:
		ch.ChangeLoop(loopFiles(entry.Files), entry.DelayMS)
	case soundmodel.LoopStop:
		ch.StopLoop(entry.DelayMS)
		if len(entry.Files) > 0 {
			m.addOneshot(ch, entry.Files[idx], entry.DelayMS)
		}
	default:
		if len(entry.Files) > 0 {
			m.addOneshot(ch, entry.Files[idx], entry.DelayMS)
		}
	}
}

func (m *Manager) addOneshot(ch *soundchannel.Channel, file soundmodel.SoundFile, delayMS int) {
	path := file.Source.Single()
	if file.Source.Playlist {
		if len(file.Source.Paths) == 0 {
			return
		}
		path = file.Source.Paths[m.rng.Intn(len(file.Source.Paths))]
	}
	if path == "" {
		return
	}
	balance := file.Balance
	if file.RandomBalance {
		balance = m.rng.Float64()*2 - 1
	}
	ch.AddOneshot(path, file.Amplification, balance, delayMS)
}

func loopFiles(files []soundmodel.SoundFile) []player.LoopFile {
	out := make([]player.LoopFile, 0, len(files))
	for _, f := range files {
		out = append(out, player.LoopFile{
			Source:        f.Source,
			Amplification: f.Amplification,
			RandomBalance: f.RandomBalance,
			Balance:       f.Balance,
		})
	}
	return out
}

// weightedIndex picks an index in [0,len(weights)) proportional to weight;
// falls back to index 0 if every weight is non-positive.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	draw := rng.Float64() * total
	var acc float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if draw < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Maintain runs every channel's per-tick logic and ages the rule table.
func (m *Manager) Maintain(dtMS int) {
	m.table.Maintain(dtMS)
	for _, name := range m.channelOrder {
		if ch, ok := m.channels[name]; ok {
			ch.Maintain(dtMS)
		}
	}
}

// SetVolume implements set_volume: "total" targets the global cell.
func (m *Manager) SetVolume(name string, percent int) {
	v := float64(percent) / 100.0
	if name == totalChannel {
		m.globalVolume.Store(v)
		return
	}
	if ch, ok := m.channels[name]; ok {
		ch.Volume.Store(v)
	}
}

// SetThreshold implements set_threshold analogously to SetVolume.
func (m *Manager) SetThreshold(name string, level int) {
	if name == totalChannel {
		m.globalThreshold = level
		return
	}
	if ch, ok := m.channels[name]; ok {
		ch.Threshold = level
	}
}

// Skip implements skip: "total" skips every channel's loop.
func (m *Manager) Skip(name string) {
	if name == totalChannel {
		for _, ch := range m.channels {
			ch.Skip()
		}
		return
	}
	if ch, ok := m.channels[name]; ok {
		ch.Skip()
	}
}

// PlayPause flips the named channel's (or the global) pause flag.
func (m *Manager) PlayPause(name string) bool {
	if name == totalChannel {
		return m.globalPause.Flip()
	}
	if ch, ok := m.channels[name]; ok {
		return ch.PlayPause()
	}
	return false
}

// SetCurrentVolumesAsDefault writes "name=percent" lines, one per channel
// plus "all=" for the master volume.
func (m *Manager) SetCurrentVolumesAsDefault(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "all=%d\n", int(m.globalVolume.Load()*100)); err != nil {
		return err
	}
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ch := m.channels[name]
		if _, err := fmt.Fprintf(bw, "%s=%d\n", name, int(ch.Volume.Load()*100)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var defaultVolumeLine = regexp.MustCompile(`([[:word:]]+)=(.+)`)

// LoadDefaultVolumes parses the same "key=percent" format produced by
// SetCurrentVolumesAsDefault and applies it, returning the settings applied
// for the LoadedVolumeSettings event.
func (m *Manager) LoadDefaultVolumes(r io.Reader) []events.ChannelPercent {
	var applied []events.ChannelPercent
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		match := defaultVolumeLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		key := match[1]
		percent, err := strconv.Atoi(strings.TrimSpace(match[2]))
		if err != nil {
			continue
		}
		if key == "all" {
			m.SetVolume(totalChannel, percent)
		} else {
			m.SetVolume(key, percent)
		}
		applied = append(applied, events.ChannelPercent{Channel: key, Percent: percent})
	}
	return applied
}

// Finish stops every channel's audio, guaranteeing no orphaned sources
// survive a soundpack reload.
func (m *Manager) Finish() {
	for _, ch := range m.channels {
		ch.Finish()
	}
}

func (m *Manager) warnOnce(key, msg string, args ...any) {
	if _, found := m.warnDedup.Get(key); found {
		return
	}
	m.warnDedup.SetDefault(key, struct{}{})
	logging.Warn(msg, args...)
}
