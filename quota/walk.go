// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quota

import (
	"io/fs"
	"path/filepath"
	"time"
)

// ListExistingFiles walks dir and returns a FileInfo for every regular
// file found, for seeding a freshly created Inventory.
//
// filepath.WalkDir is used directly here rather than through a
// third-party walker: none of the libraries this toolchain already
// depends on wrap directory traversal, and a one-shot depth-first scan
// of the managed root isn't worth pulling in a dependency for.
func ListExistingFiles(dir string) ([]FileInfo, error) {
	var files []FileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries rather than aborting the whole scan
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{
			Path:           path,
			SizeBytes:      uint64(info.Size()),
			CreationTime:   creationTime(info),
			LastAccessTime: accessTime(info),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// creationTime and accessTime fall back to ModTime since the standard
// fs.FileInfo interface has no portable way to read a platform's
// birth-time or atime; that information is available via the
// platform-specific Sys() stat struct but isn't worth that much
// coupling for a value that only seeds initial ordering.
func creationTime(info fs.FileInfo) time.Time { return info.ModTime() }
func accessTime(info fs.FileInfo) time.Time   { return info.ModTime() }
