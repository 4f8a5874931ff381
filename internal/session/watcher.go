// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// fsWatcher reloads the session file when another process rewrites it.
type fsWatcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching the session file's directory and reloads the store on
// external writes. onReload, if non-nil, is invoked after each reload.
// Watching the directory rather than the file survives atomic renames.
func (s *Store) Watch(onReload func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create session watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch session directory: %w", err)
	}

	fw := &fsWatcher{w: w, done: make(chan struct{})}
	s.watcher = fw

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				s.mu.Lock()
				s.readFile()
				s.mu.Unlock()
				if onReload != nil {
					onReload()
				}
			case <-w.Errors:
				// Watch errors are non-fatal; the in-memory state stays valid.
			case <-fw.done:
				return
			}
		}
	}()

	return nil
}

// Unwatch stops the file watcher, if any.
func (s *Store) Unwatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher == nil {
		return
	}
	close(s.watcher.done)
	s.watcher.w.Close()
	s.watcher = nil
}
