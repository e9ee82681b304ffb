package script

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// journal reads complete lines appended to a file since the last read.
type journal struct {
	path    string
	offset  int64
	partial []byte
}

func (j *journal) readNew() ([]string, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < j.offset {
		// Truncated or replaced: start over.
		j.offset, j.partial = 0, nil
	}
	if _, err := f.Seek(j.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	j.offset += int64(len(data))

	buf := append(j.partial, data...)
	last := bytes.LastIndexByte(buf, '\n')
	if last == -1 {
		j.partial = buf
		return nil, nil
	}
	j.partial = append([]byte(nil), buf[last+1:]...)

	var lines []string
	for _, l := range bytes.Split(buf[:last], []byte("\n")) {
		lines = append(lines, string(l))
	}
	return lines, nil
}

// Follow applies every op already in the journal at path and then every op
// appended to it until ctx is cancelled. The file need not exist yet.
// Malformed lines and failed ops are logged and skipped.
func (r *Runner) Follow(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	j := &journal{path: path}
	r.drain(j)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				r.drain(j)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("journal watcher error", "path", path, "err", err)
		}
	}
}

func (r *Runner) drain(j *journal) {
	lines, err := j.readNew()
	if err != nil {
		r.logger.Warn("read journal", "path", j.path, "err", err)
		return
	}
	for _, line := range lines {
		op, ok, err := parseLine(line)
		if err != nil {
			r.logger.Warn("skip journal line", "line", line, "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := r.Apply(op); err != nil {
			r.logger.Warn("journal op failed", "op", op.Op, "ref", op.Ref, "err", err)
		}
	}
}
