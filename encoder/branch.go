package encoder

import (
	"six09asm/errs"
	"six09asm/eval"
	"six09asm/section"
	"six09asm/value"
)

// encodeRelative implements §4.6's Relative family: emit the opcode, then
// a width-byte displacement computed from the target value minus the pc
// that will be current once the displacement field itself is emitted
// (i.e. the address of the following instruction). nowarn (an explicit
// 16-bit attribute on the operand) suppresses the "fits in 8 bits, a
// short branch would do" warning on long-branch forms.
func encodeRelative(sink Sink, opc Opcode, args []*value.Value, width int) error {
	if err := arity(sink, args, 1); err != nil {
		return err
	}
	sink.EmitBytes(opcodeBytes(opc.ImmOp))
	v := eval.Eval(sink, args[0])
	nowarn := value.AttrOf(args[0]) == value.Attr16Bit

	if v.Kind == value.KindUndef {
		sink.EmitBytes(section.Pad(width))
		return nil
	}
	target, err := eval.ToInt(v)
	if err != nil {
		sink.ReportError(errs.Syntax, "%v", err)
		sink.EmitBytes(section.Pad(width))
		return err
	}
	pcAfter := sink.PCAfter(int64(width))
	disp := target - pcAfter

	switch width {
	case 1:
		if !section.FitsSigned8(disp) {
			sink.ReportError(errs.OutOfRange, "branch target out of range: %d", disp)
		}
	case 2:
		if !nowarn && section.FitsSigned8(disp) {
			sink.ReportError(errs.Warning, "long branch could be a short branch")
		}
		if !section.FitsSigned16(disp) {
			sink.ReportError(errs.OutOfRange, "branch target out of range: %d", disp)
		}
	}
	sink.EmitBytes(section.BigEndian(width, disp))
	return nil
}
