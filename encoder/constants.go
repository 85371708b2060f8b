package encoder

import "six09asm/value"

// stackBit maps a register to its bit in the PSHS/PULS/PSHU/PULU postbyte,
// grounded on original_source/src/instr.c's stack_bit(). "self" is the bit
// used by the stack-pointer register that would be self-referential for
// this particular mnemonic (S for PSHS/PULS, U for PSHU/PULU) - passed in
// by the caller since both share bit 0x40 for "the other" stack pointer.
func stackBit(r value.Reg, selfReg value.Reg) (bit int, ok bool) {
	switch r {
	case value.RegCC:
		return 0x01, true
	case value.RegA:
		return 0x02, true
	case value.RegB:
		return 0x04, true
	case value.RegD:
		return 0x06, true
	case value.RegDP:
		return 0x08, true
	case value.RegX:
		return 0x10, true
	case value.RegY:
		return 0x20, true
	case value.RegU, value.RegS:
		if r == selfReg {
			return 0, false
		}
		return 0x40, true
	case value.RegPC:
		return 0x80, true
	}
	return 0, false
}

// pairNibble maps a register to its 4-bit TFR/EXG code, grounded on
// original_source/src/instr.c's pair_nibble().
func pairNibble(r value.Reg) (nibble int, is16bit bool, ok bool) {
	switch r {
	case value.RegD:
		return 0x0, true, true
	case value.RegX:
		return 0x1, true, true
	case value.RegY:
		return 0x2, true, true
	case value.RegU:
		return 0x3, true, true
	case value.RegS:
		return 0x4, true, true
	case value.RegPC:
		return 0x5, true, true
	case value.RegW:
		return 0x6, true, true
	case value.RegV:
		return 0x7, true, true
	case value.RegA:
		return 0x8, false, true
	case value.RegB:
		return 0x9, false, true
	case value.RegCC:
		return 0xA, false, true
	case value.RegDP:
		return 0xB, false, true
	case value.RegE:
		return 0xE, false, true
	case value.RegF:
		return 0xF, false, true
	}
	return 0, false, false
}

// tfmRegOK reports whether r is a legal TFM register (X, Y, U, S, or D).
func tfmRegOK(r value.Reg) bool {
	switch r {
	case value.RegX, value.RegY, value.RegU, value.RegS, value.RegD:
		return true
	}
	return false
}
