package encoder

import (
	"six09asm/errs"
	"six09asm/eval"
	"six09asm/section"
	"six09asm/value"
)

// idxFlags classifies which postbyte family an index register belongs
// to, mirroring the FLAG_XYUS/FLAG_PC/FLAG_PCR/FLAG_W bits of
// original_source/src/instr.c's idx_regs[] table.
type idxFlags int

const (
	idxNone idxFlags = iota
	idxXYUS
	idxPC
	idxPCR
	idxW
)

// idxRegInfo is one row of idx_regs[]: the register's postbyte selector
// bits (for XYUS: 0x00/0x20/0x40/0x60 OR'd into the postbyte) and its
// flag class.
type idxRegInfo struct {
	pbyteSel int
	flags    idxFlags
}

func indexRegister(r value.Reg) (idxRegInfo, bool) {
	switch r {
	case value.RegX:
		return idxRegInfo{0x00, idxXYUS}, true
	case value.RegY:
		return idxRegInfo{0x20, idxXYUS}, true
	case value.RegU:
		return idxRegInfo{0x40, idxXYUS}, true
	case value.RegS:
		return idxRegInfo{0x60, idxXYUS}, true
	case value.RegPC:
		return idxRegInfo{0, idxPC}, true
	case value.RegPCR:
		return idxRegInfo{0, idxPCR}, true
	case value.RegW:
		return idxRegInfo{0, idxW}, true
	}
	return idxRegInfo{}, false
}

// encodeIndexed implements the Indexed family of §4.6. args is either
// [offsetArg, indexArg] for `offset,REG` syntax, or a single array-typed
// arg (the bracketed `[...]`) for pure indirect addressing with no
// offset register (`[address]` -> extended indirect).
func encodeIndexed(sink Sink, opc Opcode, args []*value.Value) error {
	if opc.IndexedOp == unsupported {
		sink.ReportError(errs.Illegal, "%s does not support indexed addressing", opc.Mnemonic)
		return errIllegal
	}

	if len(args) == 1 {
		return encodeIndexedIndirectAddress(sink, opc, args[0])
	}

	offArg, idxArg := args[0], args[1]
	indirect := false
	inner := idxArg
	if idxArg.Kind == value.KindArray && len(idxArg.Kids) == 1 {
		indirect = true
		inner = idxArg.Kids[0]
	}
	if inner.Kind != value.KindReg {
		sink.ReportError(errs.Syntax, "indexed addressing requires a register")
		return errIllegal
	}
	info, ok := indexRegister(inner.Reg)
	if !ok {
		sink.ReportError(errs.Illegal, "register %s cannot be used as an index", inner.Reg)
		return errIllegal
	}
	attr := value.AttrOf(inner)

	// Auto inc/dec modes carry no offset value at all.
	switch attr {
	case value.AttrPostInc, value.AttrPostInc2, value.AttrPreDec, value.AttrPreDec2:
		return encodeIndexedAutoIncDec(sink, opc, info, attr, indirect)
	}

	offVal := eval.Eval(sink, offArg)
	offAttr := value.AttrOf(offArg)

	if offVal.Kind == value.KindUndef {
		// Width unknown on this pass: reserve the widest legal form.
		return encodeIndexedOffset(sink, opc, info, 0, value.Attr16Bit, indirect, true)
	}
	off, err := eval.ToInt(offVal)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return err
	}
	if off == 0 && offAttr == value.AttrNone {
		offAttr = value.AttrNone // explicit "no offset" collapses to 5-bit zero, matching instr.c
	}
	return encodeIndexedOffset(sink, opc, info, off, offAttr, indirect, false)
}

var errIllegal = &errs.Error{Severity: errs.Illegal, Message: "illegal addressing mode"}

// encodeIndexedAutoIncDec emits the postbyte for ,R+ / ,R++ / ,-R / ,--R.
func encodeIndexedAutoIncDec(sink Sink, opc Opcode, info idxRegInfo, attr value.Attribute, indirect bool) error {
	if info.flags != idxXYUS {
		sink.ReportError(errs.Illegal, "auto increment/decrement only legal on X/Y/U/S")
		return errIllegal
	}
	var bits int
	switch attr {
	case value.AttrPostInc:
		bits = 0x80
		if indirect {
			sink.ReportError(errs.Illegal, "indirect single auto-increment is illegal")
		}
	case value.AttrPostInc2:
		bits = 0x81
	case value.AttrPreDec:
		bits = 0x82
		if indirect {
			sink.ReportError(errs.Illegal, "indirect single auto-decrement is illegal")
		}
	case value.AttrPreDec2:
		bits = 0x83
	}
	pbyte := info.pbyteSel | bits
	if indirect {
		pbyte |= 0x10
	}
	sink.EmitBytes(opcodeBytes(opc.IndexedOp))
	sink.EmitBytes([]byte{byte(pbyte)})
	return nil
}

// encodeIndexedOffset implements the 5-bit/8-bit/16-bit offset-size
// selection of instr_indexed2: try the smallest encoding that's both
// legal for this register class and large enough for the offset,
// preferring 5-bit, then 8-bit, then 16-bit.
func encodeIndexedOffset(sink Sink, opc Opcode, info idxRegInfo, off int64, attr value.Attribute, indirect, forceWide bool) error {
	switch info.flags {
	case idxXYUS:
		if !forceWide && attr != value.Attr8Bit && attr != value.Attr16Bit && !indirect && section.FitsSigned5(off) {
			pbyte := info.pbyteSel | (int(off) & 0x1f)
			sink.EmitBytes(opcodeBytes(opc.IndexedOp))
			sink.EmitBytes([]byte{byte(pbyte)})
			return nil
		}
		if !forceWide && attr != value.Attr16Bit && section.FitsSigned8(off) {
			pbyte := info.pbyteSel | 0x88
			if indirect {
				pbyte |= 0x10
			}
			sink.EmitBytes(opcodeBytes(opc.IndexedOp))
			sink.EmitBytes([]byte{byte(pbyte)})
			sink.EmitBytes(section.BigEndian(1, off))
			return nil
		}
		pbyte := info.pbyteSel | 0x89
		if indirect {
			pbyte |= 0x10
		}
		sink.EmitBytes(opcodeBytes(opc.IndexedOp))
		sink.EmitBytes([]byte{byte(pbyte)})
		if forceWide {
			sink.EmitBytes(section.Pad(2))
			return nil
		}
		if !section.FitsSigned16(off) {
			sink.ReportError(errs.OutOfRange, "indexed offset out of range: %d", off)
		}
		sink.EmitBytes(section.BigEndian(2, off))
		return nil

	case idxPC:
		pbyte := 0x8C
		if indirect {
			pbyte |= 0x10
		}
		sink.EmitBytes(opcodeBytes(opc.IndexedOp))
		sink.EmitBytes([]byte{byte(pbyte)})
		if forceWide {
			sink.EmitBytes(section.Pad(1))
			return nil
		}
		sink.EmitBytes(section.BigEndian(1, off))
		return nil

	case idxPCR:
		return encodeIndexedPCR(sink, opc, off, indirect, forceWide)

	case idxW:
		var pbyte int
		switch {
		case forceWide:
			// Width unknown on this pass: reserve the 16-bit-offset form
			// so a later pass resolving off to exactly 0 can't shrink
			// the span (§4.6/§8 pass-stability).
			pbyte = 0xAF
		case off == 0:
			pbyte = 0x8F
		default:
			pbyte = 0xAF
		}
		if indirect {
			pbyte++
		}
		sink.EmitBytes(opcodeBytes(opc.IndexedOp))
		sink.EmitBytes([]byte{byte(pbyte)})
		if pbyte == 0xAF || pbyte == 0xB0 {
			if forceWide {
				sink.EmitBytes(section.Pad(2))
			} else {
				sink.EmitBytes(section.BigEndian(2, off))
			}
		}
		return nil
	}
	return errIllegal
}

// encodeIndexedPCR implements the 6309 PC-relative indexed form: the
// stored offset is relative to the pc value once the whole instruction
// (including the offset field) has been consumed, tried first at 8-bit
// width then 16-bit, per instr.c's recursive-retry scheme.
func encodeIndexedPCR(sink Sink, opc Opcode, target int64, indirect, forceWide bool) error {
	pbyte8 := 0x8C
	pbyte16 := 0x8D
	if indirect {
		pbyte8 |= 0x10
		pbyte16 |= 0x10
	}
	sink.EmitBytes(opcodeBytes(opc.IndexedOp))
	if forceWide {
		sink.EmitBytes([]byte{byte(pbyte16)})
		sink.EmitBytes(section.Pad(2))
		return nil
	}
	pcAfter8 := sink.PCAfter(2) // opcode already emitted; 1 postbyte + 1 offset byte remain
	disp8 := target - pcAfter8
	if section.FitsSigned8(disp8) {
		sink.EmitBytes([]byte{byte(pbyte8)})
		sink.EmitBytes(section.BigEndian(1, disp8))
		return nil
	}
	pcAfter16 := sink.PCAfter(3)
	disp16 := target - pcAfter16
	sink.EmitBytes([]byte{byte(pbyte16)})
	if !section.FitsSigned16(disp16) {
		sink.ReportError(errs.OutOfRange, "PC-relative offset out of range: %d", disp16)
	}
	sink.EmitBytes(section.BigEndian(2, disp16))
	return nil
}

// encodeIndexedIndirectAddress implements the single-argument `[addr]`
// form: extended indirect, postbyte 0x9F followed by a 16-bit address.
func encodeIndexedIndirectAddress(sink Sink, opc Opcode, arr *value.Value) error {
	if len(arr.Kids) != 1 {
		sink.ReportError(errs.Syntax, "expected a single address inside [...]")
		return errIllegal
	}
	v := eval.Eval(sink, arr.Kids[0])
	sink.EmitBytes(opcodeBytes(opc.IndexedOp))
	sink.EmitBytes([]byte{0x9F})
	if v.Kind == value.KindUndef {
		sink.EmitBytes(section.Pad(2))
		return nil
	}
	addr, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return err
	}
	sink.EmitBytes(section.BigEndian(2, addr))
	return nil
}
