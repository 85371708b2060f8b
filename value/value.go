// Package value implements the tagged value tree shared by the parser and
// the evaluator: literals, registers, operator trees, and the handful of
// assembler-specific references (program counter, local labels, macro
// positional arguments) that only resolve once a symbol table exists.
package value

import "fmt"

// Kind discriminates the variants of Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindUndef
	KindInt
	KindFloat
	KindString
	KindReg
	KindPC
	KindBackref
	KindFwdref
	KindInterp
	KindID
	KindText
	KindOper
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindUndef:
		return "undef"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindReg:
		return "reg"
	case KindPC:
		return "pc"
	case KindBackref:
		return "backref"
	case KindFwdref:
		return "fwdref"
	case KindInterp:
		return "interp"
	case KindID:
		return "id"
	case KindText:
		return "text"
	case KindOper:
		return "oper"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Attribute records a size or increment/decrement hint carried by a value,
// set by the parser (from `<`/`>` prefixes or `,X+`/`,-Y` suffixes) or by
// the encoder once it has picked a concrete addressing-mode width.
type Attribute int

const (
	AttrNone Attribute = iota
	Attr5Bit
	Attr8Bit
	Attr16Bit
	AttrPostInc
	AttrPostInc2
	AttrPreDec
	AttrPreDec2
	AttrPostDec
)

// Reg names a 6809/6309 register. Validity against the active ISA is
// checked by the caller, not by this type.
type Reg int

const (
	RegNone Reg = iota
	RegCC
	RegA
	RegB
	RegD
	RegDP
	RegX
	RegY
	RegU
	RegS
	RegPC
	RegPCR
	RegE
	RegF
	RegW
	RegQ
	RegV
)

var regNames = map[Reg]string{
	RegCC: "CC", RegA: "A", RegB: "B", RegD: "D", RegDP: "DP",
	RegX: "X", RegY: "Y", RegU: "U", RegS: "S", RegPC: "PC", RegPCR: "PCR",
	RegE: "E", RegF: "F", RegW: "W", RegQ: "Q", RegV: "V",
}

func (r Reg) String() string {
	if n, ok := regNames[r]; ok {
		return n
	}
	return "?"
}

// Op names an operator carried by a KindOper node.
type Op int

const (
	OpNeg Op = iota
	OpPos
	OpNot
	OpMul
	OpDiv
	OpAdd
	OpSub
	OpMod
	OpShl
	OpShr
	OpAnd
	OpXor
	OpOr
)

// Value is the single tagged-union node used throughout the assembler.
// Only the fields relevant to Kind are meaningful; the rest are zero.
type Value struct {
	Kind  Kind
	Attr  Attribute
	Int   int64
	Float float64
	Str   string
	Reg   Reg
	Num   int // backref/fwdref/interp operand number
	Op    Op
	Kids  []*Value // oper operands, id/text/array children
}

func Empty() *Value                 { return &Value{Kind: KindEmpty} }
func Undef() *Value                 { return &Value{Kind: KindUndef} }
func Int(v int64) *Value            { return &Value{Kind: KindInt, Int: v} }
func Float(v float64) *Value        { return &Value{Kind: KindFloat, Float: v} }
func String(s string) *Value        { return &Value{Kind: KindString, Str: s} }
func Register(r Reg) *Value         { return &Value{Kind: KindReg, Reg: r} }
func PC() *Value                    { return &Value{Kind: KindPC} }
func Backref(n int) *Value          { return &Value{Kind: KindBackref, Num: n} }
func Fwdref(n int) *Value           { return &Value{Kind: KindFwdref, Num: n} }
func Interp(n int) *Value           { return &Value{Kind: KindInterp, Num: n} }
func ID(kids ...*Value) *Value      { return &Value{Kind: KindID, Kids: kids} }
func Text(kids ...*Value) *Value    { return &Value{Kind: KindText, Kids: kids} }
func Array(kids ...*Value) *Value   { return &Value{Kind: KindArray, Kids: kids} }
func Unary(op Op, a *Value) *Value  { return &Value{Kind: KindOper, Op: op, Kids: []*Value{a}} }
func Binary(op Op, a, b *Value) *Value {
	return &Value{Kind: KindOper, Op: op, Kids: []*Value{a, b}}
}

// TypeOf returns KindEmpty for a nil value, matching the original engine's
// convention that a null node behaves as an empty one.
func TypeOf(v *Value) Kind {
	if v == nil {
		return KindEmpty
	}
	return v.Kind
}

func AttrOf(v *Value) Attribute {
	if v == nil {
		return AttrNone
	}
	return v.Attr
}

// WithAttr returns v tagged with attr, cloning only the top node.
func WithAttr(v *Value, attr Attribute) *Value {
	if v == nil {
		return &Value{Kind: KindEmpty, Attr: attr}
	}
	clone := *v
	clone.Attr = attr
	return &clone
}

// PushArray appends el to arr, treating a nil/empty arr as "start a new
// one-element array" the way the original node_array_push does.
func PushArray(arr, el *Value) *Value {
	if arr == nil || TypeOf(arr) == KindEmpty {
		return Array(el)
	}
	kids := make([]*Value, 0, len(arr.Kids)+1)
	kids = append(kids, arr.Kids...)
	kids = append(kids, el)
	return &Value{Kind: KindArray, Attr: arr.Attr, Kids: kids}
}

// Equal is structural equality: same kind, same scalar payload, same
// children recursively. Float comparison is exact (bitwise via ==), not
// tolerant, matching the original's node_equal.
func Equal(a, b *Value) bool {
	ak, bk := TypeOf(a), TypeOf(b)
	if ak != bk {
		return false
	}
	switch ak {
	case KindEmpty, KindUndef, KindPC:
		return true
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindReg:
		return a.Reg == b.Reg
	case KindBackref, KindFwdref, KindInterp:
		return a.Num == b.Num
	case KindOper:
		if a.Op != b.Op || len(a.Kids) != len(b.Kids) {
			return false
		}
	case KindID, KindText, KindArray:
		if len(a.Kids) != len(b.Kids) {
			return false
		}
	}
	for i := range a.Kids {
		if !Equal(a.Kids[i], b.Kids[i]) {
			return false
		}
	}
	return true
}

func (v *Value) String() string {
	if v == nil {
		return "<empty>"
	}
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindString:
		return v.Str
	case KindReg:
		return v.Reg.String()
	default:
		return v.Kind.String()
	}
}
