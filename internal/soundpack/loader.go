// Package soundpack implements C7: the soundpack directory walker and XML
// parser that produces a rule table plus a channel-settings map.
package soundpack

import (
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
	"github.com/dfsoundsense/soundsense-go/internal/patternrewrite"
	"github.com/dfsoundsense/soundsense-go/internal/ruletable"
	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

// Result is everything a soundpack load produces.
type Result struct {
	Table        *ruletable.Table
	Channels     map[string]soundmodel.PlayType
	ChannelOrder []string // "total","music",<discovery order minus misc>,"misc"
}

const (
	chanTotal = "total"
	chanMusic = "music"
	chanMisc  = "misc"
)

type loader struct {
	entries       []*ruletable.CompiledEntry
	channelOrder  []string
	channelSeen   map[string]bool
	channelPlay   map[string]soundmodel.PlayType
}

// Load walks root depth-first, parsing every .xml file it finds.
func Load(root string) (*Result, error) {
	l := &loader{
		channelSeen: make(map[string]bool),
		channelPlay: make(map[string]soundmodel.PlayType),
	}
	l.ensureChannel(chanMisc)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.New(err).Component("soundpack").Category(errors.CategorySoundpackLoad).
				Context("path", path).Build()
		}
		if d.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".xml" {
			return nil
		}
		if ferr := l.parseFile(path); ferr != nil {
			return errors.New(ferr).Component("soundpack").Category(errors.CategoryXMLParse).
				Context("path", path).Build()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:        ruletable.New(l.entries),
		Channels:     l.channelPlay,
		ChannelOrder: l.finalOrder(),
	}, nil
}

// ensureChannel registers name in discovery order on first reference. It
// does not populate channelPlay: that map holds only channels with an
// explicit <channelSetting>, so the per-name play-type default (applied by
// soundchannel.New) is never overwritten for a channel that never got one.
func (l *loader) ensureChannel(name string) {
	if !l.channelSeen[name] {
		l.channelSeen[name] = true
		l.channelOrder = append(l.channelOrder, name)
	}
}

// finalOrder applies the fixed head/tail contract: "total","music", then
// discovery order minus "misc", then "misc" last.
func (l *loader) finalOrder() []string {
	out := []string{chanTotal, chanMusic}
	for _, name := range l.channelOrder {
		if name == chanMisc || name == chanMusic {
			continue
		}
		out = append(out, name)
	}
	out = append(out, chanMisc)
	return out
}

func (l *loader) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dir := filepath.Dir(path)
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "sound":
			l.parseSound(dec, start, dir, path)
		case "channelSettings":
			l.parseChannelSettings(dec, start)
		case "soundFile":
			logging.Warn("soundpack: <soundFile> outside any <sound> dropped", "file", path)
			skipElement(dec)
		}
	}
}

var knownSoundAttrs = map[string]bool{
	"logPattern": true, "channel": true, "loop": true, "concurency": true,
	"timeout": true, "probability": true, "propability": true, "delay": true,
	"haltOnMatch": true, "randomBalance": true, "playbackThreshhold": true,
	"ansiFormat": true, "ansiPattern": true,
}

var knownSoundFileAttrs = map[string]bool{
	"fileName": true, "weight": true, "volumeAdjustment": true,
	"randomBalance": true, "balanceAdjustment": true, "delay": true, "playlist": true,
}

func warnUnknownAttrs(elem string, attrs []xml.Attr, known map[string]bool, path string) {
	for _, a := range attrs {
		if !known[a.Name.Local] {
			logging.Warn("soundpack: unknown attribute ignored", "element", elem, "attribute", a.Name.Local, "file", path)
		}
	}
}

func attrValue(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (l *loader) parseSound(dec *xml.Decoder, start xml.StartElement, dir, path string) {
	warnUnknownAttrs("sound", start.Attr, knownSoundAttrs, path)

	logPattern, hasPattern := attrValue(start.Attr, "logPattern")
	if !hasPattern || strings.TrimSpace(logPattern) == "" {
		logging.Warn("soundpack: <sound> with no logPattern dropped", "file", path)
		skipElement(dec)
		return
	}

	rewritten := patternrewrite.Rewrite(logPattern)
	re, err := regexp.Compile(rewritten)
	if err != nil {
		logging.Warn("soundpack: failed to compile logPattern, dropped", "file", path, "pattern", rewritten, "error", err)
		skipElement(dec)
		return
	}

	entry := soundmodel.SoundEntry{
		Pattern:   rewritten,
		Threshold: 4,
	}
	if channel, ok := attrValue(start.Attr, "channel"); ok && channel != "" {
		entry.Channel = channel
		l.ensureChannel(channel)
	}
	if loop, ok := attrValue(start.Attr, "loop"); ok {
		switch loop {
		case "start":
			entry.Loop = soundmodel.LoopStart
		case "stop":
			entry.Loop = soundmodel.LoopStop
		}
	}
	if v, ok := attrValue(start.Attr, "concurency"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			entry.Concurrency = &n
		}
	}
	if v, ok := attrValue(start.Attr, "timeout"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			entry.TimeoutMS = &n
		}
	}
	prob, hasProb := attrValue(start.Attr, "probability")
	if !hasProb {
		prob, hasProb = attrValue(start.Attr, "propability")
	}
	if hasProb {
		if n, err := strconv.Atoi(prob); err == nil {
			entry.Probability = &n
		}
	}
	if v, ok := attrValue(start.Attr, "delay"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			entry.DelayMS = n
		}
	}
	if v, ok := attrValue(start.Attr, "haltOnMatch"); ok {
		entry.HaltOnMatch = parseBool(v)
	}
	if v, ok := attrValue(start.Attr, "randomBalance"); ok {
		entry.RandomBalance = parseBool(v)
	}
	if v, ok := attrValue(start.Attr, "playbackThreshhold"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			entry.Threshold = n
		}
	}

	// Walk child tokens for <soundFile> entries until this <sound> closes.
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "soundFile" {
				sf := l.parseSoundFile(t, dir, path)
				if len(sf.Source.Paths) == 0 {
					// playlist could not be expanded; already warned
					continue
				}
				entry.Files = append(entry.Files, sf)
				entry.Weights = append(entry.Weights, sf.Weight)
			} else {
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "sound" && depth == 0 {
				goto done
			}
			if depth > 0 {
				depth--
			}
		}
	}
done:
	l.entries = append(l.entries, &ruletable.CompiledEntry{SoundEntry: entry, Regexp: re})
}

func (l *loader) parseSoundFile(start xml.StartElement, dir, path string) soundmodel.SoundFile {
	warnUnknownAttrs("soundFile", start.Attr, knownSoundFileAttrs, path)

	sf := soundmodel.SoundFile{Weight: 100}
	fileName, _ := attrValue(start.Attr, "fileName")
	isPlaylist := false
	if v, ok := attrValue(start.Attr, "playlist"); ok {
		isPlaylist = parseBool(v)
	}

	full := resolveRelative(dir, fileName)
	if isPlaylist {
		paths, err := expandPlaylist(full)
		if err != nil {
			logging.Warn("soundpack: failed to expand playlist, dropping soundFile", "file", path, "playlist", full, "error", err)
			sf.Source = soundmodel.SoundSource{}
		} else {
			sf.Source = soundmodel.SoundSource{Playlist: true, Paths: paths}
		}
	} else {
		sf.Source = soundmodel.SoundSource{Paths: []string{full}}
	}

	if v, ok := attrValue(start.Attr, "weight"); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			sf.Weight = n
		}
	}
	if v, ok := attrValue(start.Attr, "volumeAdjustment"); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			sf.Amplification = soundmodel.VolumeAdjustment(n)
		}
	} else {
		sf.Amplification = soundmodel.VolumeAdjustment(0)
	}
	if v, ok := attrValue(start.Attr, "randomBalance"); ok {
		sf.RandomBalance = parseBool(v)
	}
	if v, ok := attrValue(start.Attr, "balanceAdjustment"); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			sf.Balance = n
		}
	}
	if v, ok := attrValue(start.Attr, "delay"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			sf.DelayMS = n
		}
	}
	return sf
}

func (l *loader) parseChannelSettings(dec *xml.Decoder, start xml.StartElement) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "channelSetting" {
				name, _ := attrValue(t.Attr, "name")
				playTypeStr, _ := attrValue(t.Attr, "playType")
				if name == "" {
					continue
				}
				l.ensureChannel(name)
				pt, err := soundmodel.ParsePlayType(playTypeStr)
				if err != nil {
					logging.Warn("soundpack: unknown playType, defaulting to all", "channel", name, "playType", playTypeStr)
					pt = soundmodel.PlayAll
				}
				l.channelPlay[name] = pt
			}
		case xml.EndElement:
			if t.Name.Local == "channelSettings" {
				return
			}
		}
	}
}

// skipElement consumes tokens until the currently-open element closes,
// used when a <sound> is dropped for lacking a logPattern.
func skipElement(dec *xml.Decoder) {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return
			}
			depth--
		}
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
	}
	return b
}
