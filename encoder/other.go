package encoder

import (
	"six09asm/errs"
	"six09asm/eval"
	"six09asm/section"
	"six09asm/value"
)

// encodeStack implements PSHS/PULS/PSHU/PULU: an arity-N list of
// registers, OR'd into a single bitmask postbyte. Grounded on
// original_source/src/instr.c's instr_stack / stack_bit.
func encodeStack(sink Sink, opc Opcode, args []*value.Value, self string) error {
	selfReg := value.RegS
	if self == "U" {
		selfReg = value.RegU
	}
	mask := 0
	for _, a := range args {
		if a.Kind != value.KindReg {
			sink.ReportError(errs.Syntax, "expected a register in stack list")
			return errIllegal
		}
		bit, ok := stackBit(a.Reg, selfReg)
		if !ok {
			sink.ReportError(errs.Syntax, "cannot push/pull %s onto its own stack", a.Reg)
			return errIllegal
		}
		mask |= bit
	}
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	sink.EmitBytes([]byte{byte(mask)})
	return nil
}

// encodePair implements TFR/EXG: two register operands packed into one
// byte as high-nibble<<4|low-nibble. A numeric operand in place of a
// register is illegal-but-not-fatal, matching instr_pair.
func encodePair(sink Sink, opc Opcode, args []*value.Value) error {
	if err := arity(sink, args, 2); err != nil {
		return err
	}
	n1, ok1 := pairOperand(sink, args[0])
	n2, ok2 := pairOperand(sink, args[1])
	if !ok1 || !ok2 {
		return errIllegal
	}
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	sink.EmitBytes([]byte{byte(n1<<4 | n2)})
	return nil
}

func pairOperand(sink Sink, a *value.Value) (int, bool) {
	if a.Kind != value.KindReg {
		sink.ReportError(errs.Illegal, "TFR/EXG operand must be a register")
		return 0, false
	}
	n, _, ok := pairNibble(a.Reg)
	if !ok {
		sink.ReportError(errs.Illegal, "register %s is not valid for TFR/EXG", a.Reg)
		return 0, false
	}
	return n, true
}

// encodeTFM implements the 6309 TFM family: two register operands, each
// carrying an inc/dec attribute, select one of 4 opcode variants (mod
// 0..3) via the low bits of the base opcode. Grounded on instr_tfm.
func encodeTFM(sink Sink, opc Opcode, args []*value.Value) error {
	if err := arity(sink, args, 2); err != nil {
		return err
	}
	a, b := args[0], args[1]
	if a.Kind != value.KindReg || !tfmRegOK(a.Reg) || b.Kind != value.KindReg || !tfmRegOK(b.Reg) {
		sink.ReportError(errs.Syntax, "TFM operands must be X, Y, U, S, or D")
		return errIllegal
	}
	aAttr, bAttr := value.AttrOf(a), value.AttrOf(b)
	var mod int
	switch {
	case aAttr == value.AttrPostInc && bAttr == value.AttrPostInc:
		mod = 0
	case aAttr == value.AttrPreDec && bAttr == value.AttrPreDec:
		mod = 1
	case aAttr == value.AttrPostInc && bAttr == value.AttrNone:
		mod = 2
	case aAttr == value.AttrNone && bAttr == value.AttrPostInc:
		mod = 3
	default:
		sink.ReportError(errs.Syntax, "invalid TFM increment/decrement combination")
		return errIllegal
	}
	na, _, _ := pairNibble(a.Reg)
	nb, _, _ := pairNibble(b.Reg)
	sink.EmitBytes(opcodeBytes(opc.ImmOp + mod))
	sink.EmitBytes([]byte{byte(na<<4 | nb)})
	return nil
}

// encodeImm8Mem implements the 6309 AIM/OIM/EIM/TIM family: opcode byte,
// then the 8-bit immediate, then a direct/indexed/extended address
// operand (arity 2 or 3, the trailing args forming the memory operand).
func encodeImm8Mem(sink Sink, opc Opcode, args []*value.Value) error {
	if len(args) < 2 {
		sink.ReportError(errs.Syntax, "expected an immediate and a memory operand")
		return errIllegal
	}
	immVal := eval.Eval(sink, args[0])
	memArgs := args[1:]

	if len(memArgs) == 2 || (len(memArgs) == 1 && memArgs[0].Kind == value.KindArray) {
		return encodeImm8MemIndexed(sink, opc, immVal, memArgs)
	}
	if len(memArgs) != 1 {
		sink.ReportError(errs.Syntax, "expected a direct/extended/indexed memory operand")
		return errIllegal
	}
	addrVal := eval.Eval(sink, memArgs[0])
	attr := value.AttrOf(memArgs[0])

	if addrVal.Kind == value.KindUndef {
		sink.EmitBytes(opcodeBytes(opc.ExtendedOp))
		if err := emitWidth(sink, immVal, 8); err != nil {
			return err
		}
		sink.EmitBytes(section.Pad(2))
		return nil
	}
	addr, err := eval.ToInt(addrVal)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return err
	}
	dp := sink.DirectPage()
	if attr == value.Attr8Bit || (attr == value.AttrNone && dp >= 0 && dp == (addr>>8)&0xff) {
		sink.EmitBytes(opcodeBytes(opc.DirectOp))
		if err := emitWidth(sink, immVal, 8); err != nil {
			return err
		}
		sink.EmitBytes(section.BigEndian(1, addr))
		return nil
	}
	sink.EmitBytes(opcodeBytes(opc.ExtendedOp))
	if err := emitWidth(sink, immVal, 8); err != nil {
		return err
	}
	sink.EmitBytes(section.BigEndian(2, addr))
	return nil
}

// encodeImm8MemIndexed handles AIM/OIM/EIM/TIM's indexed memory operand.
// The wire format is opcode, immediate, then the usual indexed postbyte
// (+ offset bytes) — the immediate sits between the opcode and the
// postbyte that encodeIndexed would otherwise emit back-to-back with its
// own opcode byte, so an immPrefixSink splices it in after the first
// EmitBytes call (the opcode) instead of duplicating the indexed
// postbyte-selection logic here.
func encodeImm8MemIndexed(sink Sink, opc Opcode, immVal *value.Value, memArgs []*value.Value) error {
	if opc.IndexedOp == unsupported {
		sink.ReportError(errs.Illegal, "%s does not support indexed addressing", opc.Mnemonic)
		return errIllegal
	}
	immBytes, err := imm8Bytes(sink, immVal)
	if err != nil {
		return err
	}
	return encodeIndexed(&immPrefixSink{Sink: sink, imm: immBytes}, opc, memArgs)
}

// imm8Bytes evaluates v as an 8-bit immediate, reporting and padding on
// error/undef rather than failing the whole encode.
func imm8Bytes(sink Sink, v *value.Value) ([]byte, error) {
	if v.Kind == value.KindUndef {
		return section.Pad(1), nil
	}
	i, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return section.Pad(1), err
	}
	return section.BigEndian(1, i), nil
}

// immPrefixSink emits imm immediately after the first EmitBytes call it
// observes (the addressing mode's leading opcode byte), then passes
// every later call straight through.
type immPrefixSink struct {
	Sink
	imm  []byte
	done bool
}

func (s *immPrefixSink) EmitBytes(b []byte) {
	s.Sink.EmitBytes(b)
	if !s.done {
		s.done = true
		s.Sink.EmitBytes(s.imm)
	}
}

// encodeRegMem implements the 6309 BAND/BOR/BEOR/BIAND/BIOR/BIEOR/
// LDBT/STBT family: source register + source bit + destination bit +
// destination direct address.
func encodeRegMem(sink Sink, opc Opcode, args []*value.Value) error {
	if err := arity(sink, args, 4); err != nil {
		return err
	}
	srcReg := args[0]
	if srcReg.Kind != value.KindReg {
		sink.ReportError(errs.Syntax, "expected a register (CC, A, or B)")
		return errIllegal
	}
	var pbyte int
	switch srcReg.Reg {
	case value.RegCC:
		pbyte = 0x00
	case value.RegA:
		pbyte = 0x40
	case value.RegB:
		pbyte = 0x80
	default:
		sink.ReportError(errs.Syntax, "register-memory source must be CC, A, or B")
		return errIllegal
	}
	srcBit, err := evalBitIndex(sink, args[1])
	if err != nil {
		return err
	}
	dstBit, err := evalBitIndex(sink, args[2])
	if err != nil {
		return err
	}
	pbyte |= srcBit << 3
	pbyte |= dstBit

	addrVal := eval.Eval(sink, args[3])
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	sink.EmitBytes([]byte{byte(pbyte)})
	if addrVal.Kind == value.KindUndef {
		sink.EmitBytes(section.Pad(1))
		return nil
	}
	addr, err := eval.ToInt(addrVal)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return err
	}
	sink.EmitBytes(section.BigEndian(1, addr))
	return nil
}

func evalBitIndex(sink Sink, a *value.Value) (int, error) {
	v := eval.Eval(sink, a)
	n, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return 0, err
	}
	if n < 0 || n > 7 {
		sink.ReportError(errs.OutOfRange, "bit index out of range: %d", n)
		return 0, errIllegal
	}
	return int(n), nil
}
