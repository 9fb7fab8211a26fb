// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procwalk

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildNote(name string, typ uint32, desc []byte) []byte {
	var b bytes.Buffer
	nameBytes := append([]byte(name), 0)
	binary.Write(&b, binary.LittleEndian, uint32(len(nameBytes)))
	binary.Write(&b, binary.LittleEndian, uint32(len(desc)))
	binary.Write(&b, binary.LittleEndian, typ)
	b.Write(nameBytes)
	for len(b.Bytes())%4 != 0 {
		b.WriteByte(0)
	}
	b.Write(desc)
	for len(b.Bytes())%4 != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func TestParseNotesFindsBuildID(t *testing.T) {
	buildID := []byte{0xde, 0xad, 0xbe, 0xef}
	data := buildNote("GNU", 3, buildID)

	notes, err := parseNotes(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("len(notes) = %d, want 1", len(notes))
	}
	if notes[0].name != "GNU" || notes[0].typ != 3 {
		t.Fatalf("notes[0] = %+v", notes[0])
	}
	if !bytes.Equal(notes[0].desc, buildID) {
		t.Fatalf("notes[0].desc = %x, want %x", notes[0].desc, buildID)
	}
}

func TestAlign4(t *testing.T) {
	cases := map[uint64]uint64{0: 0, 1: 4, 3: 4, 4: 4, 5: 8}
	for in, want := range cases {
		if got := align4(in); got != want {
			t.Errorf("align4(%d) = %d, want %d", in, got, want)
		}
	}
}
