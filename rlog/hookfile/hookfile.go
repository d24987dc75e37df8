/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package hookfile writes log entries to a file on disk and watches that
// file with fsnotify so an external log-rotation tool (logrotate, a
// sidecar) removing or renaming it is picked up by reopening, instead of
// silently writing into a file descriptor for a now-unlinked inode.
package hookfile

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type Hook struct {
	mu     sync.Mutex
	path   string
	flags  int
	perm   os.FileMode
	file   *os.File
	levels []logrus.Level
	watch  *fsnotify.Watcher
}

// New opens path for append and starts an fsnotify watch on it.
func New(path string, levels ...logrus.Level) (*Hook, error) {
	if len(levels) == 0 {
		levels = logrus.AllLevels
	}

	h := &Hook{
		path:   path,
		flags:  os.O_APPEND | os.O_CREATE | os.O_WRONLY,
		perm:   0o644,
		levels: levels,
	}

	if err := h.open(); err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err = w.Add(path); err != nil {
		_ = w.Close()
		return nil, err
	}

	h.watch = w
	go h.watchLoop()

	return h, nil
}

func (h *Hook) open() error {
	f, err := os.OpenFile(h.path, h.flags, h.perm)
	if err != nil {
		return err
	}

	h.mu.Lock()
	if h.file != nil {
		_ = h.file.Close()
	}
	h.file = f
	h.mu.Unlock()

	return nil
}

func (h *Hook) watchLoop() {
	for ev := range h.watch.Events {
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			_ = h.open()
			_ = h.watch.Add(h.path)
		}
	}
}

func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

func (h *Hook) Fire(e *logrus.Entry) error {
	line, err := e.Bytes()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = h.file.Write(line)
	return err
}

func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.watch != nil {
		_ = h.watch.Close()
	}
	if h.file != nil {
		return h.file.Close()
	}
	return nil
}
