// Package gamelog implements the default gamelog-watcher external
// collaborator (D3): it tails an append-only text file and emits each new
// complete line over a channel, skipping everything already in the file at
// open time. It is explicitly a default implementation of an interface the
// core engine treats as external — callers may substitute their own line
// source.
package gamelog

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/dfsoundsense/soundsense-go/internal/errors"
	"github.com/dfsoundsense/soundsense-go/internal/logging"
)

// Tailer watches one file path and delivers newly appended lines on Lines.
type Tailer struct {
	path    string
	Lines   chan string
	watcher *fsnotify.Watcher
	file    *os.File
	reader  *bufio.Reader
	offset  int64
}

// Open seeks to the current end of path and begins watching it for writes.
// Only bytes appended after this call are ever delivered.
func Open(path string) (*Tailer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).Component("gamelog").Category(errors.CategoryGamelog).
			Context("path", path).Build()
	}
	off, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, errors.New(err).Component("gamelog").Category(errors.CategoryGamelog).Build()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, errors.New(err).Component("gamelog").Category(errors.CategoryGamelog).Build()
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		f.Close()
		return nil, errors.New(err).Component("gamelog").Category(errors.CategoryGamelog).
			Context("path", path).Build()
	}

	return &Tailer{
		path:    path,
		Lines:   make(chan string, 256),
		watcher: watcher,
		file:    f,
		reader:  bufio.NewReader(f),
		offset:  off,
	}, nil
}

// Close stops watching and releases the underlying file handle. Lines is
// closed once Run has observed ctx's cancellation or an unrecoverable error.
func (t *Tailer) Close() error {
	werr := t.watcher.Close()
	ferr := t.file.Close()
	if werr != nil {
		return werr
	}
	return ferr
}

// Run drains filesystem events until ctx is done, pushing every complete
// line it can read onto Lines. A file that shrinks (log rotated in place)
// is treated as truncation: the tailer reads again from offset 0.
func (t *Tailer) Run(ctx context.Context) {
	defer close(t.Lines)

	t.drainAvailableLines()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0 {
				t.handlePossibleTruncation()
				t.drainAvailableLines()
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				logging.Warn("gamelog: watched file removed or renamed", "path", t.path)
				return
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("gamelog: watcher error", "path", t.path, "error", err)
		}
	}
}

func (t *Tailer) handlePossibleTruncation() {
	info, err := t.file.Stat()
	if err != nil {
		return
	}
	if info.Size() < t.offset {
		if _, err := t.file.Seek(0, io.SeekStart); err != nil {
			return
		}
		t.reader = bufio.NewReader(t.file)
		t.offset = 0
	}
}

func (t *Tailer) drainAvailableLines() {
	for {
		line, err := t.reader.ReadString('\n')
		if err == io.EOF && len(line) > 0 {
			// A trailing line without its newline yet: rewind to its start
			// so it is read again, whole, on a later event.
			if _, serr := t.file.Seek(-int64(len(line)), io.SeekCurrent); serr == nil {
				t.reader.Reset(t.file)
				return
			}
		}
		if len(line) > 0 {
			t.offset += int64(len(line))
			t.Lines <- trimEOL(line)
		}
		if err != nil {
			// io.EOF (or any other transient read error) just means no
			// complete line is available yet.
			return
		}
	}
}

func trimEOL(s string) string {
	n := len(s)
	for n > 0 && (s[n-1] == '\n' || s[n-1] == '\r') {
		n--
	}
	return s[:n]
}
