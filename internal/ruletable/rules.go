// Package ruletable implements C6: the dense vector of compiled sound
// rules plus the "recent" set of entries that still have a live timer.
package ruletable

import (
	"regexp"

	"github.com/dfsoundsense/soundsense-go/internal/soundmodel"
)

// CompiledEntry pairs a SoundEntry with its compiled trigger pattern.
// Table order is semantically significant: rules are evaluated in
// soundpack-declaration order, so entries must not be re-indexed per
// channel.
type CompiledEntry struct {
	soundmodel.SoundEntry
	Regexp *regexp.Regexp
}

// Table is the rule vector plus the recent-timer index.
type Table struct {
	Entries []*CompiledEntry
	recent  map[int]struct{}
}

func New(entries []*CompiledEntry) *Table {
	return &Table{Entries: entries, recent: make(map[int]struct{})}
}

// MarkRecent inserts idx into the recent set and increments that entry's
// recent_call counter.
func (t *Table) MarkRecent(idx int) {
	t.recent[idx] = struct{}{}
	t.Entries[idx].RecentCall++
}

// Maintain ages every recent entry's timer by dtMS and its recent_call
// down, dropping entries whose timeout has reached zero. Per-tick work is
// proportional to currently-hot rules, not the full table.
func (t *Table) Maintain(dtMS int) {
	for idx := range t.recent {
		e := t.Entries[idx]
		e.CurrentTimeoutMS -= dtMS
		if e.CurrentTimeoutMS < 0 {
			e.CurrentTimeoutMS = 0
		}
		e.RecentCall--
		if e.RecentCall < 0 {
			e.RecentCall = 0
		}
		if e.CurrentTimeoutMS == 0 {
			delete(t.recent, idx)
		}
	}
}
