// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quota

import (
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config bounds how much a managed directory is allowed to hold.
// A zero value disables that budget.
type Config struct {
	MaxSizeBytes uint64
	MaxAge       time.Duration
}

// Manager owns an Inventory and runs eviction passes against it on a
// background goroutine, coalescing repeated triggers: a burst of
// file-creation events between eviction passes collapses into a
// single pass.
type Manager struct {
	inv  *Inventory
	cfg  Config
	log  *zap.Logger
	mu   sync.Mutex // guards inv against concurrent Notifier/Manager access
	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewManager starts a Manager backed by inv, applying cfg's budgets.
// The returned Manager owns inv; call Close to stop the background
// goroutine and close the inventory.
func NewManager(inv *Inventory, cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		inv:  inv,
		cfg:  cfg,
		log:  log,
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go m.run()
	return m
}

// Notifier returns a handle other goroutines can use to report file
// activity and trigger eviction passes, without exposing Manager's
// lifecycle methods (Close) to every caller that just wants to record
// an event.
func (m *Manager) Notifier() *Notifier {
	return &Notifier{m: m}
}

// Close stops the background eviction goroutine and closes the
// underlying inventory database. It blocks until the goroutine has
// exited.
func (m *Manager) Close() error {
	close(m.stop)
	<-m.done
	return m.inv.Close()
}

func (m *Manager) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stop:
			return
		case <-m.wake:
			m.performEvictionIfNeeded()
		}
	}
}

// triggerEviction wakes the background goroutine. A wake-up already
// pending is not duplicated: the buffered channel has capacity one,
// and a full send is dropped rather than blocking.
func (m *Manager) triggerEviction() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *Manager) performEvictionIfNeeded() {
	m.mu.Lock()
	totalBefore, err := m.inv.TotalSizeBytes()
	m.mu.Unlock()
	if err != nil {
		m.log.Error("reading inventory size", zap.Error(err))
		return
	}
	m.log.Info("eviction pass starting", zap.Uint64("total_bytes", totalBefore))

	if m.cfg.MaxSizeBytes > 0 {
		m.mu.Lock()
		toDelete, err := m.inv.FilesToDeleteForMaxSize(m.cfg.MaxSizeBytes)
		m.mu.Unlock()
		if err != nil {
			m.log.Error("listing files over size budget", zap.Error(err))
		} else if len(toDelete) > 0 {
			m.deleteFiles(toDelete)
		}
	}

	if m.cfg.MaxAge > 0 {
		m.mu.Lock()
		toDelete, err := m.inv.FilesToDeleteForMaxAge(m.cfg.MaxAge, time.Now())
		m.mu.Unlock()
		if err != nil {
			m.log.Error("listing files over age budget", zap.Error(err))
		} else if len(toDelete) > 0 {
			m.deleteFiles(toDelete)
		}
	}
}

// deleteFiles removes each file from disk and updates the inventory to
// match, one at a time, releasing the lock between files so a large
// eviction pass doesn't block Notifier callers for its whole duration.
func (m *Manager) deleteFiles(paths []string) {
	for _, path := range paths {
		m.log.Info("deleting file", zap.String("path", path))

		err := os.Remove(path)
		m.mu.Lock()
		switch {
		case err == nil:
			if err := m.inv.OnFileDeleted(path); err != nil {
				m.log.Error("updating inventory after delete", zap.String("path", path), zap.Error(err))
			}
		case errors.Is(err, os.ErrNotExist):
			if err := m.inv.OnFileFoundAbsent(path); err != nil {
				m.log.Error("updating inventory for absent file", zap.String("path", path), zap.Error(err))
			}
		default:
			m.log.Error("deleting file", zap.String("path", path), zap.Error(err))
		}
		m.mu.Unlock()
	}
}

// Notifier reports file-system activity to a Manager. Multiple
// Notifiers may share one Manager; all access is serialized by the
// Manager's mutex.
type Notifier struct {
	m *Manager
}

// OnFileCreated records a new file and triggers an eviction check.
func (n *Notifier) OnFileCreated(path string, sizeBytes uint64, creationTime time.Time) error {
	n.m.mu.Lock()
	err := n.m.inv.OnFileCreated(path, sizeBytes, creationTime)
	n.m.mu.Unlock()
	if err != nil {
		return err
	}
	n.m.triggerEviction()
	return nil
}

// OnFileAccessed records that path was read, without triggering an
// eviction pass: accessing a file never grows the managed directory.
func (n *Notifier) OnFileAccessed(path string, accessTime time.Time) error {
	n.m.mu.Lock()
	defer n.m.mu.Unlock()
	return n.m.inv.OnFileAccessed(path, accessTime)
}

// TriggerEvictionCheck forces an eviction pass to run soon, even
// without a new file-created event (e.g. after startup).
func (n *Notifier) TriggerEvictionCheck() {
	n.m.triggerEviction()
}
