// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdbtype reconstructs C/C++ source-level declarators from a
// flat, possibly cyclic, graph of PDB type-information records.
//
// The byte-level PDB stream parser is an external collaborator: pdbtype
// only consumes already-parsed TypeData values through a Finder.
package pdbtype

import "fmt"

// TypeIndex is a dense integer handle into a stream of type records.
// TypeIndex(0) conventionally means "no type" / void.
type TypeIndex uint32

// TypeKind identifies which variant a TypeData value holds.
type TypeKind int

//go:generate stringer -type=TypeKind

const (
	KindPrimitive TypeKind = iota
	KindClass
	KindUnion
	KindPointer
	KindModifier
	KindArray
	KindProcedure
	KindMemberFunction
	KindArgumentList
	KindEnumeration
	KindEnumerate
)

// TypeData is the closed set of type record variants a Finder can
// return. It is a tagged sum implemented as an interface with a single
// unexported marker method: callers dispatch on the concrete type with
// a type switch, never with further interface methods.
type TypeData interface {
	Kind() TypeKind
	typeData()
}

// PrimitiveKind identifies a built-in scalar type.
type PrimitiveKind int

const (
	PrimitiveVoid PrimitiveKind = iota
	PrimitiveNoType
	PrimitiveChar
	PrimitiveUChar
	PrimitiveRChar
	PrimitiveWChar
	PrimitiveRChar16
	PrimitiveRChar32
	PrimitiveI8
	PrimitiveU8
	PrimitiveShort
	PrimitiveUShort
	PrimitiveI16
	PrimitiveU16
	PrimitiveLong
	PrimitiveULong
	PrimitiveI32
	PrimitiveU32
	PrimitiveQuad
	PrimitiveUQuad
	PrimitiveI64
	PrimitiveU64
	PrimitiveI128
	PrimitiveU128
	PrimitiveOcta
	PrimitiveUOcta
	PrimitiveF16
	PrimitiveF32
	PrimitiveF32PP
	PrimitiveF48
	PrimitiveF64
	PrimitiveF80
	PrimitiveF128
	PrimitiveComplex32
	PrimitiveComplex64
	PrimitiveComplex80
	PrimitiveComplex128
	PrimitiveBool8
	PrimitiveBool16
	PrimitiveBool32
	PrimitiveBool64
	PrimitiveHRESULT
)

// Primitive is a built-in scalar type, optionally a pointer to one.
type Primitive struct {
	Kind_       PrimitiveKind
	Indirection bool // true if this is a pointer to Kind_
}

func (Primitive) Kind() TypeKind { return KindPrimitive }
func (Primitive) typeData()      {}

// ClassKind distinguishes the three PDB aggregate-record flavors that
// render with a keyword when NameOnly is off.
type ClassKind int

//go:generate stringer -type=ClassKind

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindStruct
)

// Class is a class/struct/interface record.
type Class struct {
	Name       string
	UniqueName string // may be empty; falls back to Name
	ClassKind  ClassKind
	Size       uint64
	ForwardRef bool
}

func (Class) Kind() TypeKind { return KindClass }
func (Class) typeData()      {}

// uniqueOrName returns the name used to key the forward-reference size
// cache: UniqueName if present, otherwise Name.
func (c Class) uniqueOrName() string {
	if c.UniqueName != "" {
		return c.UniqueName
	}
	return c.Name
}

// Union is a union record.
type Union struct {
	Name       string
	UniqueName string
	Size       uint64
	ForwardRef bool
}

func (Union) Kind() TypeKind { return KindUnion }
func (Union) typeData()      {}

func (u Union) uniqueOrName() string {
	if u.UniqueName != "" {
		return u.UniqueName
	}
	return u.Name
}

// PointerMode identifies what kind of indirection a Pointer represents.
type PointerMode int

//go:generate stringer -type=PointerMode

const (
	PointerModePointer PointerMode = iota
	PointerModeLValueRef
	PointerModeRValueRef
	PointerModeMember
	PointerModeMemberFunction
)

// Pointer is a pointer, reference, or pointer-to-member record.
type Pointer struct {
	Underlying TypeIndex
	Mode       PointerMode
	IsConst    bool
	ByteSize   uint32
}

func (Pointer) Kind() TypeKind { return KindPointer }
func (Pointer) typeData()      {}

// Modifier wraps an underlying type with const/volatile qualification.
type Modifier struct {
	Underlying TypeIndex
	Const      bool
	Volatile   bool
}

func (Modifier) Kind() TypeKind { return KindModifier }
func (Modifier) typeData()      {}

// Array is a (possibly multi-dimensional) array record. Dimensions are
// stored exactly as the PDB wire format stores them: each entry is the
// *byte* span covered by that level, not an element count.
type Array struct {
	ElementType TypeIndex
	Dimensions  []uint64
}

func (Array) Kind() TypeKind { return KindArray }
func (Array) typeData()      {}

// FunctionAttributes carries the handful of procedure/method attribute
// bits the printer cares about.
type FunctionAttributes struct {
	IsConstructor bool
}

// Procedure is a free-function or function-pointer-target signature.
type Procedure struct {
	ReturnType   TypeIndex // TypeIndex(0) if void
	ArgumentList TypeIndex
	Attributes   FunctionAttributes
}

func (Procedure) Kind() TypeKind { return KindProcedure }
func (Procedure) typeData()      {}

// MemberFunction is a class-method signature.
type MemberFunction struct {
	ClassType    TypeIndex
	ThisType     *TypeIndex // nil means static
	ReturnType   TypeIndex
	ArgumentList TypeIndex
	Attributes   FunctionAttributes
}

func (MemberFunction) Kind() TypeKind { return KindMemberFunction }
func (MemberFunction) typeData()      {}

// ArgumentList is an ordered list of argument type indices.
type ArgumentList struct {
	Arguments []TypeIndex
}

func (ArgumentList) Kind() TypeKind { return KindArgumentList }
func (ArgumentList) typeData()      {}

// Enumeration is an enum record.
type Enumeration struct {
	Name       string
	Underlying TypeIndex
}

func (Enumeration) Kind() TypeKind { return KindEnumeration }
func (Enumeration) typeData()      {}

// VariantKind identifies the width and signedness of an Enumerate's
// encoded value, matching the numeric leaf type the PDB wire format
// tags a constant with.
type VariantKind int

const (
	VariantI8 VariantKind = iota
	VariantU8
	VariantI16
	VariantU16
	VariantI32
	VariantU32
	VariantI64
	VariantU64
)

// Enumerate is a single `enum class N` value, carrying its constant
// value at the width and signedness the wire format encoded it with:
// an enumerator's underlying storage size is not necessarily the same
// for every member of an enumeration.
type Enumerate struct {
	Name      string
	Value     int64
	ValueKind VariantKind
}

func (Enumerate) Kind() TypeKind { return KindEnumerate }
func (Enumerate) typeData()      {}

// Finder resolves a TypeIndex to a parsed TypeData record. It is the
// external collaborator named in the package doc: the byte-stream PDB
// parser lives outside this package and is assumed already correct.
type Finder interface {
	Find(index TypeIndex) (TypeData, error)
}

// ErrTypeNotFound is returned (possibly wrapped) by a Finder when an
// index does not resolve to any record.
var ErrTypeNotFound = fmt.Errorf("pdbtype: type index not found")
