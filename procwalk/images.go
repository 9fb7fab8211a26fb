// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"bufio"
	"debug/elf"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Image describes one ELF object mapped into a foreign process.
type Image struct {
	File    string // path to the backing file, or "" for anonymous mappings
	Address uint64 // load address: the lowest mapped virtual address
	Size    uint64 // total span of the image's PT_LOAD segments
	BuildID string // hex-encoded .note.gnu.build-id, or "" if absent
}

type imageSorter []Image

func (s imageSorter) Len() int           { return len(s) }
func (s imageSorter) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s imageSorter) Less(i, j int) bool { return s[i].Address < s[j].Address }

// ListImages enumerates the ELF images mapped into pid, sorted by load
// address.
//
// Linux exposes the set of mapped files directly through
// /proc/<pid>/maps, and the ELF headers are read back off disk from
// those same paths, so this needs no WithSuspendedProcess call: unlike
// ForeignMemory's reads of the target's live address space, nothing
// here touches pid's memory while it keeps running.
func ListImages(pid int) ([]Image, error) {
	paths, err := distinctMappedFiles(pid)
	if err != nil {
		return nil, err
	}

	var images []Image
	for path, lowAddr := range paths {
		img, err := describeImage(path, lowAddr)
		if err != nil {
			// A mapped file may have been replaced or deleted
			// since /proc/<pid>/maps was read, or may not be an
			// ELF object (e.g. a font file mmap'd by a library);
			// skip it rather than fail the whole walk.
			continue
		}
		images = append(images, img)
	}

	sort.Sort(imageSorter(images))
	return images, nil
}

// distinctMappedFiles returns, for each distinct backing file in
// pid's memory map, the lowest virtual address at which it appears.
func distinctMappedFiles(pid int) (map[string]uint64, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, &KernelError{Op: "open maps", Pid: pid, Err: err}
	}
	defer f.Close()

	lowAddr := make(map[string]uint64)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		path := fields[5]
		if !strings.HasPrefix(path, "/") {
			continue // anonymous, heap, stack, vdso, etc.
		}
		addrRange := strings.SplitN(fields[0], "-", 2)
		if len(addrRange) != 2 {
			continue
		}
		lo, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		if prev, ok := lowAddr[path]; !ok || lo < prev {
			lowAddr[path] = lo
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &KernelError{Op: "scan maps", Pid: pid, Err: err}
	}
	return lowAddr, nil
}

func describeImage(path string, loadAddr uint64) (Image, error) {
	ef, err := elf.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer ef.Close()

	var lo, hi uint64
	first := true
	for _, prog := range ef.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		if first || prog.Vaddr < lo {
			lo = prog.Vaddr
		}
		if end := prog.Vaddr + prog.Memsz; first || end > hi {
			hi = end
		}
		first = false
	}
	size := hi - lo

	buildID, _ := readBuildID(ef)

	return Image{
		File:    path,
		Address: loadAddr,
		Size:    size,
		BuildID: buildID,
	}, nil
}

// readBuildID extracts the hex-encoded contents of .note.gnu.build-id,
// the portable-ELF analogue of a Mach-O LC_UUID load command.
func readBuildID(ef *elf.File) (string, error) {
	sect := ef.Section(".note.gnu.build-id")
	if sect == nil {
		return "", fmt.Errorf("procwalk: no .note.gnu.build-id section")
	}
	data, err := sect.Data()
	if err != nil {
		return "", err
	}
	notes, err := parseNotes(data)
	if err != nil {
		return "", err
	}
	for _, n := range notes {
		if n.name == "GNU" && n.typ == 3 { // NT_GNU_BUILD_ID
			return hex.EncodeToString(n.desc), nil
		}
	}
	return "", fmt.Errorf("procwalk: build-id note not found")
}

type elfNote struct {
	name string
	typ  uint32
	desc []byte
}

// parseNotes decodes the packed ELF note format: each note is a
// namesz/descsz/type header followed by 4-byte-aligned name and
// descriptor blobs.
func parseNotes(data []byte) ([]elfNote, error) {
	var notes []elfNote
	for len(data) >= 12 {
		namesz := le32(data[0:4])
		descsz := le32(data[4:8])
		typ := le32(data[8:12])
		data = data[12:]

		nameEnd := align4(namesz)
		if uint64(len(data)) < nameEnd {
			break
		}
		name := strings.TrimRight(string(data[:namesz]), "\x00")
		data = data[nameEnd:]

		descEnd := align4(descsz)
		if uint64(len(data)) < descEnd {
			break
		}
		desc := data[:descsz]
		data = data[descEnd:]

		notes = append(notes, elfNote{name: name, typ: typ, desc: desc})
	}
	return notes, nil
}

func le32(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24
}

func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
