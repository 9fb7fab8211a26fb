// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quota

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestInventory(t *testing.T) (*Inventory, string) {
	t.Helper()
	dir := t.TempDir()
	inv, err := OpenInventory(dir, filepath.Join(dir, ".inventory.db"), nil)
	if err != nil {
		t.Fatalf("OpenInventory: %v", err)
	}
	t.Cleanup(func() { inv.Close() })
	return inv, dir
}

func TestInventoryCreateAndTotalSize(t *testing.T) {
	inv, dir := newTestInventory(t)
	now := time.Now()

	if err := inv.OnFileCreated(filepath.Join(dir, "a.bin"), 100, now); err != nil {
		t.Fatal(err)
	}
	if err := inv.OnFileCreated(filepath.Join(dir, "b.bin"), 200, now); err != nil {
		t.Fatal(err)
	}

	total, err := inv.TotalSizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if total != 300 {
		t.Errorf("TotalSizeBytes() = %d, want 300", total)
	}
}

func TestInventoryUpsertReplacesSize(t *testing.T) {
	inv, dir := newTestInventory(t)
	now := time.Now()
	path := filepath.Join(dir, "a.bin")

	if err := inv.OnFileCreated(path, 100, now); err != nil {
		t.Fatal(err)
	}
	if err := inv.OnFileCreated(path, 500, now); err != nil {
		t.Fatal(err)
	}

	total, err := inv.TotalSizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if total != 500 {
		t.Errorf("TotalSizeBytes() = %d, want 500 after overwrite", total)
	}
}

func TestInventoryFilesToDeleteForMaxSize(t *testing.T) {
	inv, dir := newTestInventory(t)

	old := time.Now().Add(-time.Hour)
	mid := time.Now().Add(-30 * time.Minute)
	recent := time.Now()

	mustCreate := func(name string, size uint64, accessed time.Time) {
		p := filepath.Join(dir, name)
		if err := inv.OnFileCreated(p, size, accessed); err != nil {
			t.Fatal(err)
		}
		if err := inv.OnFileAccessed(p, accessed); err != nil {
			t.Fatal(err)
		}
	}
	mustCreate("oldest.bin", 100, old)
	mustCreate("middle.bin", 100, mid)
	mustCreate("newest.bin", 100, recent)

	toDelete, err := inv.FilesToDeleteForMaxSize(150)
	if err != nil {
		t.Fatal(err)
	}
	if len(toDelete) != 2 {
		t.Fatalf("FilesToDeleteForMaxSize = %v, want 2 entries", toDelete)
	}
	if filepath.Base(toDelete[0]) != "oldest.bin" {
		t.Errorf("first file to delete = %s, want oldest.bin", filepath.Base(toDelete[0]))
	}
}

func TestInventoryFilesToDeleteForMaxSizeWithinBudget(t *testing.T) {
	inv, dir := newTestInventory(t)
	if err := inv.OnFileCreated(filepath.Join(dir, "a.bin"), 10, time.Now()); err != nil {
		t.Fatal(err)
	}

	toDelete, err := inv.FilesToDeleteForMaxSize(1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(toDelete) != 0 {
		t.Errorf("FilesToDeleteForMaxSize within budget = %v, want none", toDelete)
	}
}

func TestInventoryFilesToDeleteForMaxAge(t *testing.T) {
	inv, dir := newTestInventory(t)

	stale := time.Now().Add(-2 * time.Hour)
	fresh := time.Now()

	if err := inv.OnFileCreated(filepath.Join(dir, "stale.bin"), 10, stale); err != nil {
		t.Fatal(err)
	}
	if err := inv.OnFileCreated(filepath.Join(dir, "fresh.bin"), 10, fresh); err != nil {
		t.Fatal(err)
	}

	toDelete, err := inv.FilesToDeleteForMaxAge(time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(toDelete) != 1 || filepath.Base(toDelete[0]) != "stale.bin" {
		t.Errorf("FilesToDeleteForMaxAge = %v, want just stale.bin", toDelete)
	}
}

func TestInventoryDeleteRemovesFromTotal(t *testing.T) {
	inv, dir := newTestInventory(t)
	path := filepath.Join(dir, "a.bin")
	if err := inv.OnFileCreated(path, 100, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := inv.OnFileDeleted(path); err != nil {
		t.Fatal(err)
	}
	total, err := inv.TotalSizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("TotalSizeBytes() after delete = %d, want 0", total)
	}
}

func TestInventoryIgnoresPathsOutsideRoot(t *testing.T) {
	inv, _ := newTestInventory(t)
	if err := inv.OnFileCreated("/tmp/definitely-outside", 100, time.Now()); err != nil {
		t.Fatal(err)
	}
	total, err := inv.TotalSizeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("TotalSizeBytes() = %d, want 0 for an out-of-root path", total)
	}
}
