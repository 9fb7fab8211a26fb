// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quota

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestManager(t *testing.T, cfg Config) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	inv, err := OpenInventory(dir, filepath.Join(dir, ".inventory.db"), nil)
	if err != nil {
		t.Fatalf("OpenInventory: %v", err)
	}
	m := NewManager(inv, cfg, nil)
	t.Cleanup(func() { m.Close() })
	return m, dir
}

// waitForEviction gives the background goroutine a chance to run; the
// channel-based coalescing means a pass is scheduled essentially
// immediately, so a short, repeated poll is enough without flaking on
// a slow CI runner.
func waitForEviction(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("eviction pass did not complete in time")
}

func TestManagerEvictsOverSizeBudget(t *testing.T) {
	m, dir := newTestManager(t, Config{MaxSizeBytes: 10})
	n := m.Notifier()

	path := filepath.Join(dir, "big.bin")
	if err := os.WriteFile(path, make([]byte, 100), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := n.OnFileCreated(path, 100, time.Now()); err != nil {
		t.Fatal(err)
	}

	waitForEviction(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	})
}

func TestManagerKeepsFilesWithinBudget(t *testing.T) {
	m, dir := newTestManager(t, Config{MaxSizeBytes: 1000})
	n := m.Notifier()

	path := filepath.Join(dir, "small.bin")
	if err := os.WriteFile(path, make([]byte, 10), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := n.OnFileCreated(path, 10, time.Now()); err != nil {
		t.Fatal(err)
	}
	n.TriggerEvictionCheck()

	// Give the background goroutine a moment, then confirm the file
	// is still present (a negative wait, so just sleep briefly).
	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(path); err != nil {
		t.Errorf("file removed even though it was within budget: %v", err)
	}
}

func TestManagerHandlesAlreadyDeletedFile(t *testing.T) {
	m, dir := newTestManager(t, Config{MaxSizeBytes: 1})
	n := m.Notifier()

	path := filepath.Join(dir, "ghost.bin")
	// Record it in the inventory without actually creating the file
	// on disk, simulating a race where something else removed it
	// first.
	if err := n.OnFileCreated(path, 100, time.Now()); err != nil {
		t.Fatal(err)
	}

	waitForEviction(t, func() bool {
		total, err := func() (uint64, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			return m.inv.TotalSizeBytes()
		}()
		return err == nil && total == 0
	})
}
