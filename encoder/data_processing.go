package encoder

import (
	"fmt"

	"six09asm/errs"
	"six09asm/eval"
	"six09asm/section"
	"six09asm/value"
)

// encodeAddress implements §4.6's "Direct/Extended" family (named
// instr_address in original_source/src/instr.c): 1 or 2 args. Two args
// (or a single array-typed arg) mean indexed addressing; otherwise the
// operand is a plain address expression and direct, extended, or
// (if neither fits) indexed is picked. A leading `#` in the source
// routes here too, selecting the immediate form instead when the
// mnemonic supports one.
func encodeAddress(sink Sink, opc Opcode, immediate bool, args []*value.Value) error {
	if immediate {
		if opc.ImmOp == unsupported {
			sink.ReportError(errs.Syntax, "%s does not support immediate addressing", opc.Mnemonic)
			return fmt.Errorf("no immediate form")
		}
		if err := arity(sink, args, 1); err != nil {
			return err
		}
		sink.EmitBytes(opcodeBytes(opc.ImmOp))
		return emitWidth(sink, eval.Eval(sink, args[0]), opc.ImmWidth)
	}

	if len(args) == 2 || (len(args) == 1 && args[0].Kind == value.KindArray) {
		return encodeIndexed(sink, opc, args)
	}
	if err := arity(sink, args, 1); err != nil {
		return err
	}

	v := eval.Eval(sink, args[0])
	attr := value.AttrOf(args[0])

	if v.Kind == value.KindUndef {
		// Width is unknown; prefer extended (the widest, always-legal
		// form) so the span length doesn't oscillate between passes.
		if opc.ExtendedOp != unsupported {
			sink.EmitBytes(opcodeBytes(opc.ExtendedOp))
			sink.EmitBytes(section.Pad(2))
			return nil
		}
		sink.EmitBytes(opcodeBytes(opc.IndexedOp))
		sink.EmitBytes(section.Pad(1))
		return nil
	}

	addr, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		return err
	}

	dp := sink.DirectPage()
	wantDirect := opc.DirectOp != unsupported &&
		(attr == value.Attr8Bit || (attr == value.AttrNone && dp >= 0 && dp == (addr>>8)&0xff))
	if wantDirect {
		sink.EmitBytes(opcodeBytes(opc.DirectOp))
		sink.EmitBytes(section.BigEndian(1, addr))
		return nil
	}

	wantExtended := opc.ExtendedOp != unsupported && (attr == value.Attr16Bit || attr == value.AttrNone)
	if wantExtended {
		sink.EmitBytes(opcodeBytes(opc.ExtendedOp))
		sink.EmitBytes(section.BigEndian(2, addr))
		return nil
	}

	return encodeIndexed(sink, opc, args)
}
