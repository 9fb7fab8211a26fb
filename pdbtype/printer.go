// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdbtype

import (
	"fmt"
	"strings"
)

// Style configures how Printer renders declarators. The zero Style is
// not the default; pass DefaultStyle to NewPrinter for the default
// rendering. NewPrinter uses whatever Style it is given as is.
type Style struct {
	// OmitReturnType suppresses the return type of function
	// signatures rendered by RenderFunction/Render.
	OmitReturnType bool

	// SpaceAfterComma inserts a space after each comma in an
	// argument list ("int, int" vs "int,int").
	SpaceAfterComma bool

	// SpaceBeforePointer places the pointer/reference sigil's
	// surrounding space before the sigil instead of after it
	// ("int const *" vs "int const*").
	SpaceBeforePointer bool

	// NameOnly renders named aggregates (class/struct/union/enum)
	// as their bare name, without a leading keyword.
	NameOnly bool
}

// DefaultStyle matches the toolchain's default rendering: omit
// function return types, space after comma, and bare aggregate names.
var DefaultStyle = Style{
	OmitReturnType:  true,
	SpaceAfterComma: true,
	NameOnly:        true,
}

// StreamFinder is a Finder that can additionally enumerate every record
// in the type stream in declaration order, which Printer needs once, at
// construction, to build its forward-reference size cache.
type StreamFinder interface {
	Finder
	// ForEach calls yield for every (index, record) pair in the
	// stream, in declaration order, until yield returns false.
	ForEach(yield func(TypeIndex, TypeData) bool)
}

// Printer renders PDB type records as C-style declarators.
//
// A Printer is built once from a StreamFinder and is safe to share by
// read-only reference: it holds no mutable state after construction.
type Printer struct {
	finder  Finder
	sizes   *sizeCache
	ptrSize uint32
	style   Style
}

// NewPrinter builds a Printer over the types reachable through f,
// using ptrSize as the size (in bytes) of a native pointer. It performs
// the single linear pass over the stream required to populate the
// forward-reference size cache (spec 4.2).
func NewPrinter(f StreamFinder, ptrSize uint32, style Style) *Printer {
	return &Printer{
		finder:  f,
		sizes:   newSizeCache(f.ForEach),
		ptrSize: ptrSize,
		style:   style,
	}
}

func (p *Printer) find(index TypeIndex) (TypeData, error) {
	t, err := p.finder.Find(index)
	if err != nil {
		return nil, fmt.Errorf("pdbtype: resolving type %d: %w", index, err)
	}
	return t, nil
}

// SizeOf returns the storage size, in bytes, of the type referenced by
// index. It returns 0 for unresolvable or void-like inputs, per spec.
func (p *Printer) SizeOf(index TypeIndex) uint64 {
	t, err := p.find(index)
	if err != nil {
		return 0
	}
	return p.dataSize(t)
}

func (p *Printer) dataSize(t TypeData) uint64 {
	switch t := t.(type) {
	case Primitive:
		if t.Indirection {
			return uint64(p.ptrSize)
		}
		return primitiveSize(t.Kind_)
	case Class:
		return p.classSize(t)
	case Union:
		return p.unionSize(t)
	case MemberFunction:
		return uint64(p.ptrSize)
	case Procedure:
		return uint64(p.ptrSize)
	case Pointer:
		return uint64(t.ByteSize)
	case Array:
		if len(t.Dimensions) == 0 {
			return 0
		}
		return t.Dimensions[len(t.Dimensions)-1]
	case Enumeration:
		return p.SizeOf(t.Underlying)
	case Enumerate:
		return variantSize(t.ValueKind)
	case Modifier:
		return p.SizeOf(t.Underlying)
	default:
		return 0
	}
}

// variantSize reports the storage width, in bytes, of an Enumerate's
// encoded value.
func variantSize(k VariantKind) uint64 {
	switch k {
	case VariantI8, VariantU8:
		return 1
	case VariantI16, VariantU16:
		return 2
	case VariantI32, VariantU32:
		return 4
	case VariantI64, VariantU64:
		return 8
	default:
		return 0
	}
}

func (p *Printer) classSize(t Class) uint64 {
	if t.ForwardRef {
		// The name can be missing from the cache if the type is a
		// forward reference to itself (possible with an empty
		// struct); fall back to the record's own declared size.
		return p.sizes.lookup(t.uniqueOrName(), t.Size)
	}
	return t.Size
}

func (p *Printer) unionSize(t Union) uint64 {
	if t.ForwardRef {
		return p.sizes.lookup(t.uniqueOrName(), t.Size)
	}
	return t.Size
}

func primitiveSize(k PrimitiveKind) uint64 {
	switch k {
	case PrimitiveNoType, PrimitiveVoid:
		return 0
	case PrimitiveChar, PrimitiveUChar, PrimitiveRChar, PrimitiveI8, PrimitiveU8, PrimitiveBool8:
		return 1
	case PrimitiveWChar, PrimitiveRChar16, PrimitiveShort, PrimitiveUShort, PrimitiveI16,
		PrimitiveU16, PrimitiveF16, PrimitiveBool16:
		return 2
	case PrimitiveRChar32, PrimitiveLong, PrimitiveULong, PrimitiveI32, PrimitiveU32,
		PrimitiveF32, PrimitiveF32PP, PrimitiveBool32, PrimitiveHRESULT:
		return 4
	case PrimitiveI64, PrimitiveU64, PrimitiveQuad, PrimitiveUQuad, PrimitiveF64,
		PrimitiveComplex32, PrimitiveBool64:
		return 8
	case PrimitiveI128, PrimitiveU128, PrimitiveOcta, PrimitiveUOcta, PrimitiveF128, PrimitiveComplex64:
		return 16
	case PrimitiveF48:
		return 6
	case PrimitiveF80:
		return 10
	case PrimitiveComplex80:
		return 20
	case PrimitiveComplex128:
		return 32
	default:
		return 0
	}
}

// ParentScope names the enclosing scope of a rendered function, used
// only to produce the "C::" qualifier prefix.
type ParentScope struct {
	ClassType TypeIndex
}

// RenderFunction renders a fully qualified function signature for name
// at the given type index. If name is empty, it yields the sentinel
// "<name omitted>". If index is zero (no type information), it yields
// name verbatim.
//
// The PDB "this" parameter is elided from the rendered argument list
// only when it truly points, possibly through a modifier, at the
// enclosing class type; some unusual calling conventions produce a
// first "argument" that is structurally this but semantically is not,
// in which case it is rendered as an explicit first argument. This can
// in principle double-render this for sufficiently pathological input;
// that tradeoff is intentional, not a bug to fix here.
func (p *Printer) RenderFunction(name string, index TypeIndex, parent *ParentScope) (string, error) {
	if name == "" {
		return "<name omitted>", nil
	}
	if index == 0 {
		return name, nil
	}

	t, err := p.find(index)
	if err != nil {
		return "", err
	}

	switch t := t.(type) {
	case MemberFunction:
		static, constMethod, ret, args, err := p.methodParts(t, p.style.OmitReturnType)
		if err != nil {
			return "", err
		}
		scope, err := p.scopePrefix(parent)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		if static {
			b.WriteString("static ")
		}
		writeReturn(&b, ret)
		b.WriteString(scope)
		b.WriteString(name)
		b.WriteByte('(')
		b.WriteString(args)
		b.WriteByte(')')
		if constMethod {
			b.WriteString(" const")
		}
		return b.String(), nil

	case Procedure:
		ret, args, err := p.procedureParts(t, p.style.OmitReturnType)
		if err != nil {
			return "", err
		}
		scope, err := p.scopePrefix(parent)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		writeReturn(&b, ret)
		b.WriteString(scope)
		b.WriteString(name)
		b.WriteByte('(')
		b.WriteString(args)
		b.WriteByte(')')
		return b.String(), nil

	default:
		return name, nil
	}
}

func writeReturn(b *strings.Builder, ret string) {
	if ret != "" {
		b.WriteString(ret)
		b.WriteByte(' ')
	}
}

func (p *Printer) scopePrefix(parent *ParentScope) (string, error) {
	if parent == nil {
		return "", nil
	}
	t, err := p.find(parent.ClassType)
	if err != nil {
		return "", err
	}
	class, ok := t.(Class)
	if !ok {
		return fmt.Sprintf("<unhandled scope type %T>::", t), nil
	}
	return class.Name + "::", nil
}

// returnType renders index's return type, or "" to suppress it.
// omitReturn forces suppression independent of index/attrs, for
// callers that apply their own return-type policy instead of
// p.style.OmitReturnType (pointer-to-function forms always show their
// return type, regardless of style).
func (p *Printer) returnType(index TypeIndex, attrs FunctionAttributes, omitReturn bool) (string, error) {
	if index == 0 || omitReturn || attrs.IsConstructor {
		return "", nil
	}
	return p.Render(index)
}

func (p *Printer) procedureParts(t Procedure, omitReturn bool) (ret, args string, err error) {
	ret, err = p.returnType(t.ReturnType, t.Attributes, omitReturn)
	if err != nil {
		return "", "", err
	}
	args, err = p.Render(t.ArgumentList)
	if err != nil {
		return "", "", err
	}
	return ret, args, nil
}

// thisKind classifies how a MemberFunction's this-pointer relates to
// its enclosing class, per spec 4.1's "Function rendering" rules.
type thisKind int

const (
	thisKindNotThis thisKind = iota
	thisKindThis
	thisKindConstThis
)

func (p *Printer) checkThisType(this, class TypeIndex) (thisKind, error) {
	t, err := p.find(this)
	if err != nil {
		return thisKindNotThis, err
	}

	switch t := t.(type) {
	case Pointer:
		if t.Underlying == class {
			return thisKindThis, nil
		}
		under, err := p.find(t.Underlying)
		if err != nil {
			return thisKindNotThis, err
		}
		if mod, ok := under.(Modifier); ok && mod.Underlying == class {
			if mod.Const {
				return thisKindConstThis, nil
			}
			return thisKindThis, nil
		}
		return thisKindNotThis, nil

	case Modifier:
		under, err := p.find(t.Underlying)
		if err != nil {
			return thisKindNotThis, err
		}
		if ptr, ok := under.(Pointer); ok && ptr.Underlying == class {
			if t.Const {
				return thisKindConstThis, nil
			}
			return thisKindThis, nil
		}
		return thisKindNotThis, nil

	default:
		return thisKindNotThis, nil
	}
}

func (p *Printer) methodParts(t MemberFunction, omitReturn bool) (static, constMethod bool, ret, args string, err error) {
	ret, err = p.returnType(t.ReturnType, t.Attributes, omitReturn)
	if err != nil {
		return false, false, "", "", err
	}
	args, err = p.Render(t.ArgumentList)
	if err != nil {
		return false, false, "", "", err
	}

	if t.ThisType == nil {
		return true, false, ret, args, nil
	}

	kind, err := p.checkThisType(*t.ThisType, t.ClassType)
	if err != nil {
		return false, false, "", "", err
	}
	if kind == thisKindNotThis {
		thisTyp, err := p.Render(*t.ThisType)
		if err != nil {
			return false, false, "", "", err
		}
		if args == "" {
			args = thisTyp
		} else {
			args = thisTyp + ", " + args
		}
		return false, false, ret, args, nil
	}

	return false, kind == thisKindConstThis, ret, args, nil
}

// ptrAttr is one level of a pointer/reference chain, collected while
// descending and emitted in reverse (source) order.
type ptrAttr struct {
	pointerConst bool
	pointeeConst bool
	mode         PointerMode
}

// Render renders the type referenced by index as a C declarator.
func (p *Printer) Render(index TypeIndex) (string, error) {
	t, err := p.find(index)
	if err != nil {
		return "", err
	}
	return p.renderData(t)
}

func (p *Printer) renderData(t TypeData) (string, error) {
	switch t := t.(type) {
	case Primitive:
		return p.renderPrimitive(t, false), nil
	case Class:
		return p.renderClass(t), nil
	case MemberFunction:
		_, _, ret, args, err := p.methodParts(t, p.style.OmitReturnType)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		writeReturn(&b, ret)
		b.WriteString("()(")
		b.WriteString(args)
		b.WriteByte(')')
		return b.String(), nil
	case Procedure:
		ret, args, err := p.procedureParts(t, p.style.OmitReturnType)
		if err != nil {
			return "", err
		}
		var b strings.Builder
		writeReturn(&b, ret)
		b.WriteString("()(")
		b.WriteString(args)
		b.WriteByte(')')
		return b.String(), nil
	case ArgumentList:
		return p.renderArgList(t)
	case Pointer:
		return p.renderPointer(t, false)
	case Array:
		return p.renderArray(t)
	case Union:
		return p.renderNamed("union", t.Name), nil
	case Enumeration:
		return p.renderNamed("enum", t.Name), nil
	case Enumerate:
		return p.renderNamed("enum class", t.Name), nil
	case Modifier:
		return p.renderModifier(t)
	default:
		return fmt.Sprintf("unhandled type /* %T */", t), nil
	}
}

func (p *Printer) renderArgList(t ArgumentList) (string, error) {
	comma := ","
	if p.style.SpaceAfterComma {
		comma = ", "
	}
	var b strings.Builder
	for i, idx := range t.Arguments {
		if i > 0 {
			b.WriteString(comma)
		}
		s, err := p.Render(idx)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

func (p *Printer) renderNamed(base, name string) string {
	if p.style.NameOnly {
		return name
	}
	return base + " " + name
}

func (p *Printer) renderClass(c Class) string {
	if p.style.NameOnly {
		return c.Name
	}
	switch c.ClassKind {
	case ClassKindInterface:
		return "interface " + c.Name
	case ClassKindStruct:
		return "struct " + c.Name
	default:
		return "class " + c.Name
	}
}

func (p *Printer) renderModifier(m Modifier) (string, error) {
	t, err := p.find(m.Underlying)
	if err != nil {
		return "", err
	}
	switch t := t.(type) {
	case Pointer:
		return p.renderPointer(t, m.Const)
	case Primitive:
		return p.renderPrimitive(t, m.Const), nil
	default:
		s, err := p.renderData(t)
		if err != nil {
			return "", err
		}
		if m.Const {
			return "const " + s, nil
		}
		return s, nil
	}
}

// renderPointer walks a chain of pointers (and the modifiers between
// them), collecting a stack of qualifier tuples, then emits the base
// type followed by the qualifiers in reverse (source) order.
//
// A Modifier encountered between two pointers attaches its constant
// flag to the pointee-const of the most recently pushed pointer; it
// never introduces a new level of the chain.
func (p *Printer) renderPointer(ptr Pointer, outerConst bool) (string, error) {
	attrs := []ptrAttr{{
		pointerConst: ptr.IsConst || outerConst,
		mode:         ptr.Mode,
	}}

	for {
		t, err := p.find(ptr.Underlying)
		if err != nil {
			return "", err
		}
		switch tt := t.(type) {
		case Pointer:
			attrs = append(attrs, ptrAttr{pointerConst: tt.IsConst, mode: tt.Mode})
			ptr = tt
		case Modifier:
			attrs[len(attrs)-1].pointeeConst = tt.Const
			under, err := p.find(tt.Underlying)
			if err != nil {
				return "", err
			}
			if inner, ok := under.(Pointer); ok {
				attrs = append(attrs, ptrAttr{pointerConst: inner.IsConst, mode: inner.Mode})
				ptr = inner
				continue
			}
			return p.renderPtrHelper(attrs, under)
		default:
			return p.renderPtrHelper(attrs, t)
		}
	}
}

func (p *Printer) renderPtrHelper(attrs []ptrAttr, base TypeData) (string, error) {
	switch t := base.(type) {
	case MemberFunction:
		return p.renderMemberPtr(t, attrs)
	case Procedure:
		return p.renderProcPtr(t, attrs)
	default:
		return p.renderOtherPtr(base, attrs)
	}
}

func (p *Printer) renderAttrs(attrs []ptrAttr) string {
	var b strings.Builder
	for i := len(attrs) - 1; i >= 0; i-- {
		a := attrs[i]
		if a.pointeeConst {
			if p.style.SpaceBeforePointer {
				b.WriteString(" const ")
			} else {
				b.WriteString(" const")
			}
		}
		switch a.mode {
		case PointerModePointer:
			b.WriteByte('*')
		case PointerModeLValueRef:
			b.WriteByte('&')
		case PointerModeRValueRef:
			b.WriteString("&&")
		case PointerModeMember, PointerModeMemberFunction:
			b.WriteString("::*")
		}
		if a.pointerConst {
			if p.style.SpaceBeforePointer {
				b.WriteString(" const ")
			} else {
				b.WriteString(" const")
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func (p *Printer) renderMemberPtr(t MemberFunction, attrs []ptrAttr) (string, error) {
	class, err := p.Render(t.ClassType)
	if err != nil {
		return "", err
	}
	_, _, ret, args, err := p.methodParts(t, false)
	if err != nil {
		return "", err
	}
	a := p.renderAttrs(attrs)
	var b strings.Builder
	writeReturn(&b, ret)
	b.WriteByte('(')
	b.WriteString(class)
	b.WriteString(a)
	b.WriteString(")(")
	b.WriteString(args)
	b.WriteByte(')')
	return b.String(), nil
}

func (p *Printer) renderProcPtr(t Procedure, attrs []ptrAttr) (string, error) {
	ret, args, err := p.procedureParts(t, false)
	if err != nil {
		return "", err
	}
	a := p.renderAttrs(attrs)
	var b strings.Builder
	writeReturn(&b, ret)
	b.WriteByte('(')
	b.WriteString(a)
	b.WriteString(")(")
	b.WriteString(args)
	b.WriteByte(')')
	return b.String(), nil
}

func (p *Printer) renderOtherPtr(base TypeData, attrs []ptrAttr) (string, error) {
	typ, err := p.renderData(base)
	if err != nil {
		return "", err
	}
	a := p.renderAttrs(attrs)

	// A leading "const" always needs a separating space; otherwise a
	// leading sigil (*, &) only gets one when the style asks for it.
	needSpace := strings.HasPrefix(a, "const") || p.style.SpaceBeforePointer
	if needSpace {
		return typ + " " + a, nil
	}
	return typ + a, nil
}

func (p *Printer) renderPrimitive(t Primitive, isConst bool) string {
	name := primitiveName(t.Kind_)

	if t.Indirection {
		if p.style.SpaceBeforePointer {
			if isConst {
				return name + " const *"
			}
			return name + " *"
		}
		if isConst {
			return name + " const*"
		}
		return name + "*"
	}
	if isConst {
		return "const " + name
	}
	return name
}

func primitiveName(k PrimitiveKind) string {
	switch k {
	case PrimitiveNoType:
		return "<NoType>"
	case PrimitiveVoid:
		return "void"
	case PrimitiveChar:
		return "signed char"
	case PrimitiveUChar:
		return "unsigned char"
	case PrimitiveRChar:
		return "char"
	case PrimitiveWChar:
		return "wchar_t"
	case PrimitiveRChar16:
		return "char16_t"
	case PrimitiveRChar32:
		return "char32_t"
	case PrimitiveI8:
		return "int8_t"
	case PrimitiveU8:
		return "uint8_t"
	case PrimitiveShort:
		return "short"
	case PrimitiveUShort:
		return "unsigned short"
	case PrimitiveI16:
		return "int16_t"
	case PrimitiveU16:
		return "uint16_t"
	case PrimitiveLong:
		return "long"
	case PrimitiveULong:
		return "unsigned long"
	case PrimitiveI32:
		return "int"
	case PrimitiveU32:
		return "unsigned int"
	case PrimitiveQuad:
		return "long long"
	case PrimitiveUQuad:
		return "unsigned long long"
	case PrimitiveI64:
		return "int64_t"
	case PrimitiveU64:
		return "uint64_t"
	case PrimitiveI128, PrimitiveOcta:
		return "int128_t"
	case PrimitiveU128, PrimitiveUOcta:
		return "uint128_t"
	case PrimitiveF16:
		return "float16_t"
	case PrimitiveF32, PrimitiveF32PP:
		return "float"
	case PrimitiveF48:
		return "float48_t"
	case PrimitiveF64:
		return "double"
	case PrimitiveF80, PrimitiveF128:
		return "long double"
	case PrimitiveComplex32:
		return "complex<float>"
	case PrimitiveComplex64:
		return "complex<double>"
	case PrimitiveComplex80, PrimitiveComplex128:
		return "complex<long double>"
	case PrimitiveBool8:
		return "bool"
	case PrimitiveBool16:
		return "bool16_t"
	case PrimitiveBool32:
		return "bool32_t"
	case PrimitiveBool64:
		return "bool64_t"
	case PrimitiveHRESULT:
		return "HRESULT"
	default:
		return "<unknown>"
	}
}

// arrayInfo walks a chain of nested Array records (the PDB wire format
// flattens T[A][B] into Pointer{Array{Array{T, B*sizeof(T)}, A*B*sizeof(T)}}-
// shaped nesting) and returns the byte-dimensions outermost-first, along
// with the ultimate element type.
func (p *Printer) arrayInfo(a Array) ([]uint64, TypeData, error) {
	dims := []uint64{a.Dimensions[0]}
	for {
		t, err := p.find(a.ElementType)
		if err != nil {
			return nil, nil, err
		}
		inner, ok := t.(Array)
		if !ok {
			return dims, t, nil
		}
		dims = append(dims, inner.Dimensions[0])
		a = inner
	}
}

func (p *Printer) renderArray(a Array) (string, error) {
	dims, base, err := p.arrayInfo(a)
	if err != nil {
		return "", err
	}
	baseTyp, err := p.renderData(base)
	if err != nil {
		return "", err
	}

	// dims is outermost-first; convert byte spans to element counts
	// by dividing each dimension by the next-inner one (the
	// innermost divides by the base element size), then emit
	// innermost-rightmost.
	size := p.dataSize(base)
	counts := make([]string, len(dims))
	for i := len(dims) - 1; i >= 0; i-- {
		if size == 0 {
			counts[i] = "[]"
		} else {
			counts[i] = fmt.Sprintf("[%d]", dims[i]/size)
		}
		size = dims[i]
	}

	var b strings.Builder
	b.WriteString(baseTyp)
	for _, c := range counts {
		b.WriteString(c)
	}
	return b.String(), nil
}
