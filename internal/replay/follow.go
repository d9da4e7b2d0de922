package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"biofeat-go/internal/models"

	"github.com/fsnotify/fsnotify"
)

// Follow tails a JSONL trace and forwards every complete line to rec, the same
// way Run does. onUpdate is called with the number of events applied after
// each batch. When the file is replaced (rename over it, or rotation followed
// by a new file) the replacement is read from its beginning. It returns nil
// once ctx is done.
func Follow(ctx context.Context, path string, rec Recorder, clock *Clock, onUpdate func(applied int)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer func() { f.Close() }()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; a watch on the file itself ends when it is replaced.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	p := newPlayer(func(string) Recorder { return rec }, clock, models.None())
	tail := &lineTail{r: f}

	drain := func() error {
		lines, err := tail.next()
		if err != nil {
			return err
		}
		applied := 0
		for _, line := range lines {
			ev, ok, err := models.DecodeTraceLine(line)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := p.play(ev); err != nil {
				return err
			}
			applied++
		}
		if applied > 0 && onUpdate != nil {
			onUpdate(applied)
		}
		return nil
	}

	// reopen switches to the file now at path. A missing file is not an error:
	// the old one was moved away and a Create follows.
	reopen := func() error {
		next, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reopen trace: %w", err)
		}
		f.Close()
		f = next
		tail.r = next
		tail.pending = nil
		return nil
	}

	if err := drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				// finish what was written to the old file first
				if err := drain(); err != nil {
					return err
				}
				if err := reopen(); err != nil {
					return err
				}
			}
			if err := drain(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch trace: %w", err)
		}
	}
}

// lineTail returns complete lines appended to r since the previous call.
type lineTail struct {
	r       io.Reader
	pending []byte
}

func (t *lineTail) next() ([][]byte, error) {
	buf := make([]byte, 32*1024)
	for {
		n, err := t.r.Read(buf)
		t.pending = append(t.pending, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trace: %w", err)
		}
	}

	var lines [][]byte
	for {
		i := bytes.IndexByte(t.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, bytes.Clone(t.pending[:i]))
		t.pending = t.pending[i+1:]
	}
	return lines, nil
}
