// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command typedump renders a symbol's declarator from a JSON-encoded
// type-information stream.
//
// The real PDB byte-stream decoder is an external collaborator (see
// the pdbtype package doc); typedump's JSON format exists so this
// toolchain has a runnable, self-contained way to exercise
// pdbtype.Printer without also shipping a full PDB parser.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aclements/profkit/internal/testpe"
	"github.com/aclements/profkit/pdbtype"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("typedump: ")

	var (
		flagInput = flag.String("i", "", "read type stream from `file` (JSON)")
		flagIndex = flag.Uint("index", 0, "type index to render")
		flagName  = flag.String("name", "", "render as a function named `name` instead of a bare type")
	)
	flag.Parse()
	if *flagInput == "" || flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*flagInput)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	finder, err := decodeStream(f)
	if err != nil {
		log.Fatalf("decoding %s: %v", *flagInput, err)
	}

	printer := pdbtype.NewPrinter(finder, 8, pdbtype.DefaultStyle)
	index := pdbtype.TypeIndex(*flagIndex)

	var out string
	if *flagName != "" {
		out, err = printer.RenderFunction(*flagName, index, nil)
	} else {
		out, err = printer.Render(index)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out)
}

// jsonRecord is the on-disk shape of one type stream entry. Kind
// selects which of the other fields are meaningful, mirroring the
// tagged union pdbtype.TypeData itself represents.
type jsonRecord struct {
	Index   uint32 `json:"index"`
	Kind    string `json:"kind"`
	Name    string `json:"name,omitempty"`
	Unique  string `json:"unique,omitempty"`
	Size    uint64 `json:"size,omitempty"`
	Forward bool   `json:"forward,omitempty"`

	Underlying uint32   `json:"underlying,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Const      bool     `json:"const,omitempty"`
	ByteSize   uint32   `json:"byteSize,omitempty"`
	Dims       []uint64 `json:"dims,omitempty"`

	ReturnType   uint32   `json:"returnType,omitempty"`
	ArgumentList uint32   `json:"argumentList,omitempty"`
	ClassType    uint32   `json:"classType,omitempty"`
	ThisType     *uint32  `json:"thisType,omitempty"`
	Arguments    []uint32 `json:"arguments,omitempty"`

	Primitive   string `json:"primitive,omitempty"`
	Indirection bool   `json:"indirection,omitempty"`

	Value     int64  `json:"value,omitempty"`
	ValueKind string `json:"valueKind,omitempty"`
}

func decodeStream(f *os.File) (*testpe.Finder, error) {
	var records []jsonRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, err
	}

	finder := testpe.New()
	for _, r := range records {
		data, err := toTypeData(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", r.Index, err)
		}
		finder.Set(pdbtype.TypeIndex(r.Index), data)
	}
	return finder, nil
}

func toTypeData(r jsonRecord) (pdbtype.TypeData, error) {
	toArgs := func(in []uint32) []pdbtype.TypeIndex {
		out := make([]pdbtype.TypeIndex, len(in))
		for i, v := range in {
			out[i] = pdbtype.TypeIndex(v)
		}
		return out
	}
	var thisIdx *pdbtype.TypeIndex
	if r.ThisType != nil {
		v := pdbtype.TypeIndex(*r.ThisType)
		thisIdx = &v
	}

	switch r.Kind {
	case "primitive":
		kind, ok := primitiveKinds[r.Primitive]
		if !ok {
			return nil, fmt.Errorf("unknown primitive %q", r.Primitive)
		}
		return pdbtype.Primitive{Kind_: kind, Indirection: r.Indirection}, nil
	case "class":
		return pdbtype.Class{Name: r.Name, UniqueName: r.Unique, Size: r.Size, ForwardRef: r.Forward}, nil
	case "union":
		return pdbtype.Union{Name: r.Name, UniqueName: r.Unique, Size: r.Size, ForwardRef: r.Forward}, nil
	case "pointer":
		mode, ok := pointerModes[r.Mode]
		if !ok {
			return nil, fmt.Errorf("unknown pointer mode %q", r.Mode)
		}
		return pdbtype.Pointer{Underlying: pdbtype.TypeIndex(r.Underlying), Mode: mode, IsConst: r.Const, ByteSize: r.ByteSize}, nil
	case "modifier":
		return pdbtype.Modifier{Underlying: pdbtype.TypeIndex(r.Underlying), Const: r.Const}, nil
	case "array":
		return pdbtype.Array{ElementType: pdbtype.TypeIndex(r.Underlying), Dimensions: r.Dims}, nil
	case "procedure":
		return pdbtype.Procedure{ReturnType: pdbtype.TypeIndex(r.ReturnType), ArgumentList: pdbtype.TypeIndex(r.ArgumentList)}, nil
	case "memberFunction":
		return pdbtype.MemberFunction{
			ClassType:    pdbtype.TypeIndex(r.ClassType),
			ThisType:     thisIdx,
			ReturnType:   pdbtype.TypeIndex(r.ReturnType),
			ArgumentList: pdbtype.TypeIndex(r.ArgumentList),
		}, nil
	case "argumentList":
		return pdbtype.ArgumentList{Arguments: toArgs(r.Arguments)}, nil
	case "enumeration":
		return pdbtype.Enumeration{Name: r.Name, Underlying: pdbtype.TypeIndex(r.Underlying)}, nil
	case "enumerate":
		kind, ok := variantKinds[r.ValueKind]
		if !ok {
			return nil, fmt.Errorf("unknown valueKind %q", r.ValueKind)
		}
		return pdbtype.Enumerate{Name: r.Name, Value: r.Value, ValueKind: kind}, nil
	default:
		return nil, fmt.Errorf("unknown kind %q", r.Kind)
	}
}

var variantKinds = map[string]pdbtype.VariantKind{
	"i8": pdbtype.VariantI8, "u8": pdbtype.VariantU8,
	"i16": pdbtype.VariantI16, "u16": pdbtype.VariantU16,
	"i32": pdbtype.VariantI32, "u32": pdbtype.VariantU32,
	"i64": pdbtype.VariantI64, "u64": pdbtype.VariantU64,
}

var pointerModes = map[string]pdbtype.PointerMode{
	"pointer":        pdbtype.PointerModePointer,
	"lvalueRef":      pdbtype.PointerModeLValueRef,
	"rvalueRef":      pdbtype.PointerModeRValueRef,
	"member":         pdbtype.PointerModeMember,
	"memberFunction": pdbtype.PointerModeMemberFunction,
}

var primitiveKinds = map[string]pdbtype.PrimitiveKind{
	"void": pdbtype.PrimitiveVoid, "char": pdbtype.PrimitiveRChar,
	"schar": pdbtype.PrimitiveChar, "uchar": pdbtype.PrimitiveUChar,
	"wchar": pdbtype.PrimitiveWChar, "short": pdbtype.PrimitiveShort,
	"ushort": pdbtype.PrimitiveUShort, "int": pdbtype.PrimitiveI32,
	"uint": pdbtype.PrimitiveU32, "long": pdbtype.PrimitiveLong,
	"ulong": pdbtype.PrimitiveULong, "longlong": pdbtype.PrimitiveQuad,
	"ulonglong": pdbtype.PrimitiveUQuad, "float": pdbtype.PrimitiveF32,
	"double": pdbtype.PrimitiveF64, "bool": pdbtype.PrimitiveBool8,
}
