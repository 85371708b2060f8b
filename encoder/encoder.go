package encoder

import (
	"fmt"
	"strings"

	"six09asm/errs"
	"six09asm/eval"
	"six09asm/section"
	"six09asm/value"
)

// Sink is the minimal surface the encoder needs from the engine: operand
// evaluation (via the embedded eval.Env), byte emission into the current
// section, and the direct-page base for direct-vs-extended selection.
type Sink interface {
	eval.Env
	EmitBytes(b []byte)
	SkipBytes(n int64)
	DirectPage() int64 // -1 when unset
	PCAfter(extra int64) int64
}

// opcodeBytes splits a possibly page-prefixed opcode value into its wire
// bytes (page byte first, when present).
func opcodeBytes(v int) []byte {
	if v < 0 {
		return nil
	}
	if page := v >> 8; page != 0 {
		return []byte{byte(page), byte(v)}
	}
	return []byte{byte(v)}
}

// Instruction is one parsed mnemonic line ready for encoding: the
// mnemonic, whether the operand used `#` immediate syntax, and the raw
// (unevaluated) argument value tree.
type Instruction struct {
	Mnemonic  string
	Immediate bool
	Args      *value.Value // KindArray, or KindEmpty for no operands
	Pos       errs.Position
	RawLine   string
}

// Encode dispatches inst to the family encoder named by the opcode
// table, reporting errors through sink's eval.Env.ReportError.
func Encode(sink Sink, inst *Instruction) error {
	mnemonic := strings.ToUpper(inst.Mnemonic)
	opc, ok := Lookup(mnemonic)
	if !ok {
		return fmt.Errorf("unknown mnemonic %q", inst.Mnemonic)
	}
	args := argSlice(inst.Args)
	switch opc.Family {
	case FamInherent:
		return encodeInherent(sink, opc, args)
	case FamImmediateOnly:
		return encodeImmediateOnly(sink, opc, args)
	case FamAddress:
		return encodeAddress(sink, opc, inst.Immediate, args)
	case FamRel8:
		return encodeRelative(sink, opc, args, 1)
	case FamRel16:
		return encodeRelative(sink, opc, args, 2)
	case FamStackS:
		return encodeStack(sink, opc, args, "S")
	case FamStackU:
		return encodeStack(sink, opc, args, "U")
	case FamPair:
		return encodePair(sink, opc, args)
	case FamTFM:
		return encodeTFM(sink, opc, args)
	case FamImm8Mem:
		return encodeImm8Mem(sink, opc, args)
	case FamRegMem:
		return encodeRegMem(sink, opc, args)
	}
	return fmt.Errorf("unhandled opcode family for %q", inst.Mnemonic)
}

func argSlice(args *value.Value) []*value.Value {
	if args == nil || args.Kind != value.KindArray {
		return nil
	}
	return args.Kids
}

func arity(sink Sink, args []*value.Value, want int) error {
	if len(args) != want {
		sink.ReportError(errs.Syntax, "expected %d operand(s), got %d", want, len(args))
		return fmt.Errorf("arity mismatch")
	}
	return nil
}

func encodeInherent(sink Sink, opc Opcode, args []*value.Value) error {
	if err := arity(sink, args, 0); err != nil {
		return err
	}
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	return nil
}

func encodeImmediateOnly(sink Sink, opc Opcode, args []*value.Value) error {
	if err := arity(sink, args, 1); err != nil {
		return err
	}
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	return emitWidth(sink, eval.Eval(sink, args[0]), opc.ImmWidth)
}

// emitWidth emits the low width/8 bytes of v (or padding if v is undef).
func emitWidth(sink Sink, v *value.Value, width int) error {
	n := width / 8
	if v.Kind == value.KindUndef {
		sink.EmitBytes(section.Pad(n))
		return nil
	}
	i, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		sink.EmitBytes(section.Pad(n))
		return err
	}
	sink.EmitBytes(section.BigEndian(n, i))
	return nil
}
