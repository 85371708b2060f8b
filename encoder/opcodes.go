// Package encoder implements the per-mnemonic-family instruction encoders
// of §4.6: it turns a mnemonic plus evaluated operand values into opcode
// page bytes, postbytes, and displacement/immediate bytes emitted to the
// current section.
//
// Grounded on original_source/src/instr.c and original_source/src/opcodes.h
// for the addressing-mode dispatch rules and the indexed-mode table; the
// concrete opcode byte values for the base 6809 set and the listed 6309
// extensions are standard, publicly documented encodings (opcodes.h only
// gives the struct shape, not the data table).
package encoder

// Family discriminates which encode* function handles a mnemonic,
// mirroring the OPCODE_* immediate-type sub-field of the original
// opcodes.h (OPCODE_INHERENT, OPCODE_REL8, OPCODE_PAIR, ...).
type Family int

const (
	FamInherent Family = iota
	FamImmediateOnly         // ANDCC/ORCC/CWAI: single imm8 operand, no address form
	FamAddress                // LDA-style: immediate and/or direct/indexed/extended
	FamRel8
	FamRel16
	FamStackS // PSHS/PULS (self bit is S)
	FamStackU // PSHU/PULU (self bit is U)
	FamPair   // TFR/EXG
	FamTFM    // 6309 block transfer
	FamImm8Mem // 6309 AIM/OIM/EIM/TIM
	FamRegMem  // 6309 BAND/BOR/...
)

// page encodes the opcode-page prefix byte (0x10/0x11) in the high byte
// of a 16-bit opcode value; 0 means "no prefix, page 0".
const (
	page2 = 0x10 << 8
	page3 = 0x11 << 8
)

// Opcode is one table entry: which family it belongs to, and the raw
// byte(s) for whichever addressing forms it supports. A *Op field set to
// unsupported (-1) means that form isn't legal for this mnemonic.
type Opcode struct {
	Mnemonic string
	Family   Family

	ImmWidth int // 0, 8, 16, or 32: width of the immediate field, if any
	ImmOp    int // -1 = unsupported
	DirectOp int
	IndexedOp int
	ExtendedOp int

	// relative/inherent/stack/pair/tfm/imm8mem/regmem use ImmOp as the
	// sole opcode value (possibly page-prefixed).
}

const unsupported = -1

func op(mn string, fam Family, imm, immW, direct, indexed, extended int) Opcode {
	return Opcode{Mnemonic: mn, Family: fam, ImmWidth: immW, ImmOp: imm, DirectOp: direct, IndexedOp: indexed, ExtendedOp: extended}
}

func inherent(mn string, code int) Opcode {
	return Opcode{Mnemonic: mn, Family: FamInherent, ImmOp: code, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
}

func rel(mn string, fam Family, code int) Opcode {
	return Opcode{Mnemonic: mn, Family: fam, ImmOp: code, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
}

// Table is keyed by uppercased mnemonic.
var Table = buildTable()

func buildTable() map[string]Opcode {
	t := make(map[string]Opcode)
	add := func(o Opcode) { t[o.Mnemonic] = o }

	// Inherent, no operand.
	for mn, code := range map[string]int{
		"NOP": 0x12, "SYNC": 0x13, "DAA": 0x19, "SEX": 0x1D,
		"ABX": 0x3A, "RTI": 0x3B, "RTS": 0x39, "MUL": 0x3D, "SWI": 0x3F,
		"SWI2": page2 | 0x3F, "SWI3": page3 | 0x3F,
		"NEGA": 0x40, "COMA": 0x43, "LSRA": 0x44, "RORA": 0x46, "ASRA": 0x47,
		"ASLA": 0x48, "LSLA": 0x48, "ROLA": 0x49, "DECA": 0x4A, "INCA": 0x4C,
		"TSTA": 0x4D, "CLRA": 0x4F,
		"NEGB": 0x50, "COMB": 0x53, "LSRB": 0x54, "RORB": 0x56, "ASRB": 0x57,
		"ASLB": 0x58, "LSLB": 0x58, "ROLB": 0x59, "DECB": 0x5A, "INCB": 0x5C,
		"TSTB": 0x5D, "CLRB": 0x5F,
	} {
		add(inherent(mn, code))
	}

	// Immediate-only (operates on CC, no address form).
	for mn, code := range map[string]int{"ANDCC": 0x1C, "ORCC": 0x1A, "CWAI": 0x3C} {
		add(op(mn, FamImmediateOnly, code, 8, unsupported, unsupported, unsupported))
	}

	// Memory read-modify-write: direct/indexed/extended only, no immediate.
	for mn, codes := range map[string][3]int{
		"NEG": {0x00, 0x60, 0x70}, "COM": {0x03, 0x63, 0x73},
		"LSR": {0x04, 0x64, 0x74}, "ROR": {0x06, 0x66, 0x76},
		"ASR": {0x07, 0x67, 0x77}, "ASL": {0x08, 0x68, 0x78},
		"LSL": {0x08, 0x68, 0x78}, "ROL": {0x09, 0x69, 0x79},
		"DEC": {0x0A, 0x6A, 0x7A}, "INC": {0x0C, 0x6C, 0x7C},
		"TST": {0x0D, 0x6D, 0x7D}, "JMP": {0x0E, 0x6E, 0x7E},
		"CLR": {0x0F, 0x6F, 0x7F},
	} {
		add(op(mn, FamAddress, unsupported, 0, codes[0], codes[1], codes[2]))
	}
	// JSR: direct/indexed/extended only.
	add(op("JSR", FamAddress, unsupported, 0, 0x9D, 0xAD, 0xBD))

	// LEA: indexed-only.
	for mn, code := range map[string]int{"LEAX": 0x30, "LEAY": 0x31, "LEAS": 0x32, "LEAU": 0x33} {
		add(op(mn, FamAddress, unsupported, 0, unsupported, code, unsupported))
	}

	// Accumulator A ops: imm8 + direct/indexed/extended.
	type quad struct{ imm, direct, indexed, extended int }
	aOps := map[string]quad{
		"SUBA": {0x80, 0x90, 0xA0, 0xB0}, "CMPA": {0x81, 0x91, 0xA1, 0xB1},
		"SBCA": {0x82, 0x92, 0xA2, 0xB2}, "ANDA": {0x84, 0x94, 0xA4, 0xB4},
		"BITA": {0x85, 0x95, 0xA5, 0xB5}, "LDA": {0x86, 0x96, 0xA6, 0xB6},
		"EORA": {0x88, 0x98, 0xA8, 0xB8}, "ADCA": {0x89, 0x99, 0xA9, 0xB9},
		"ORA": {0x8A, 0x9A, 0xAA, 0xBA}, "ADDA": {0x8B, 0x9B, 0xAB, 0xBB},
	}
	for mn, q := range aOps {
		add(op(mn, FamAddress, q.imm, 8, q.direct, q.indexed, q.extended))
	}
	add(op("STA", FamAddress, unsupported, 0, 0x97, 0xA7, 0xB7))

	bOps := map[string]quad{
		"SUBB": {0xC0, 0xD0, 0xE0, 0xF0}, "CMPB": {0xC1, 0xD1, 0xE1, 0xF1},
		"SBCB": {0xC2, 0xD2, 0xE2, 0xF2}, "ANDB": {0xC4, 0xD4, 0xE4, 0xF4},
		"BITB": {0xC5, 0xD5, 0xE5, 0xF5}, "LDB": {0xC6, 0xD6, 0xE6, 0xF6},
		"EORB": {0xC8, 0xD8, 0xE8, 0xF8}, "ADCB": {0xC9, 0xD9, 0xE9, 0xF9},
		"ORB": {0xCA, 0xDA, 0xEA, 0xFA}, "ADDB": {0xCB, 0xDB, 0xEB, 0xFB},
	}
	for mn, q := range bOps {
		add(op(mn, FamAddress, q.imm, 8, q.direct, q.indexed, q.extended))
	}
	add(op("STB", FamAddress, unsupported, 0, 0xD7, 0xE7, 0xF7))

	// 16-bit register ops, page 0.
	add(op("SUBD", FamAddress, 0x83, 16, 0x93, 0xA3, 0xB3))
	add(op("ADDD", FamAddress, 0xC3, 16, 0xD3, 0xE3, 0xF3))
	add(op("CMPX", FamAddress, 0x8C, 16, 0x9C, 0xAC, 0xBC))
	add(op("LDX", FamAddress, 0x8E, 16, 0x9E, 0xAE, 0xBE))
	add(op("STX", FamAddress, unsupported, 0, 0x9F, 0xAF, 0xBF))
	add(op("LDD", FamAddress, 0xCC, 16, 0xDC, 0xEC, 0xFC))
	add(op("STD", FamAddress, unsupported, 0, 0xDD, 0xED, 0xFD))
	add(op("LDU", FamAddress, 0xCE, 16, 0xDE, 0xEE, 0xFE))
	add(op("STU", FamAddress, unsupported, 0, 0xDF, 0xEF, 0xFF))

	// 16-bit register ops, page 2 (CMPD/CMPY/LDY/STY/LDS/STS).
	add(op("CMPD", FamAddress, page2|0x83, 16, page2|0x93, page2|0xA3, page2|0xB3))
	add(op("CMPY", FamAddress, page2|0x8C, 16, page2|0x9C, page2|0xAC, page2|0xBC))
	add(op("LDY", FamAddress, page2|0x8E, 16, page2|0x9E, page2|0xAE, page2|0xBE))
	add(op("STY", FamAddress, unsupported, 0, page2|0x9F, page2|0xAF, page2|0xBF))
	add(op("LDS", FamAddress, page2|0xCE, 16, page2|0xDE, page2|0xEE, page2|0xFE))
	add(op("STS", FamAddress, unsupported, 0, page2|0xDF, page2|0xEF, page2|0xFF))

	// Page 3 (CMPU/CMPS).
	add(op("CMPU", FamAddress, page3|0x83, 16, page3|0x93, page3|0xA3, page3|0xB3))
	add(op("CMPS", FamAddress, page3|0x8C, 16, page3|0x9C, page3|0xAC, page3|0xBC))

	// Branches, rel8.
	for mn, code := range map[string]int{
		"BRA": 0x20, "BRN": 0x21, "BHI": 0x22, "BLS": 0x23, "BHS": 0x24, "BCC": 0x24,
		"BLO": 0x25, "BCS": 0x25, "BNE": 0x26, "BEQ": 0x27, "BVC": 0x28, "BVS": 0x29,
		"BPL": 0x2A, "BMI": 0x2B, "BGE": 0x2C, "BLT": 0x2D, "BGT": 0x2E, "BLE": 0x2F,
		"BSR": 0x8D,
	} {
		add(rel(mn, FamRel8, code))
	}
	// Long branches, rel16 (LBRA/LBSR are page 0, the rest page 2).
	add(rel("LBRA", FamRel16, 0x16))
	add(rel("LBSR", FamRel16, 0x17))
	for mn, code := range map[string]int{
		"LBRN": 0x21, "LBHI": 0x22, "LBLS": 0x23, "LBHS": 0x24, "LBCC": 0x24,
		"LBLO": 0x25, "LBCS": 0x25, "LBNE": 0x26, "LBEQ": 0x27, "LBVC": 0x28,
		"LBVS": 0x29, "LBPL": 0x2A, "LBMI": 0x2B, "LBGE": 0x2C, "LBLT": 0x2D,
		"LBGT": 0x2E, "LBLE": 0x2F,
	} {
		add(rel(mn, FamRel16, page2|code))
	}

	// Stack.
	t["PSHS"] = Opcode{Mnemonic: "PSHS", Family: FamStackS, ImmOp: 0x34, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
	t["PULS"] = Opcode{Mnemonic: "PULS", Family: FamStackS, ImmOp: 0x35, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
	t["PSHU"] = Opcode{Mnemonic: "PSHU", Family: FamStackU, ImmOp: 0x36, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
	t["PULU"] = Opcode{Mnemonic: "PULU", Family: FamStackU, ImmOp: 0x37, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}

	// Pair.
	t["EXG"] = Opcode{Mnemonic: "EXG", Family: FamPair, ImmOp: 0x1E, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}
	t["TFR"] = Opcode{Mnemonic: "TFR", Family: FamPair, ImmOp: 0x1F, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}

	// 6309 TFM: base opcode, mod 0-3 selects the low two bits.
	t["TFM"] = Opcode{Mnemonic: "TFM", Family: FamTFM, ImmOp: 0x38, DirectOp: unsupported, IndexedOp: unsupported, ExtendedOp: unsupported}

	// 6309 8-bit-immediate-memory.
	for mn, code := range map[string]int{"AIM": 0x02, "OIM": 0x01, "EIM": 0x05, "TIM": 0x0B} {
		add(op(mn, FamImm8Mem, code, 8, code, code|0x60, code|0x70))
	}

	// 6309 register-memory.
	for mn, code := range map[string]int{
		"BAND": 0x30, "BOR": 0x31, "BEOR": 0x32, "BIAND": 0x33, "BIOR": 0x34, "BIEOR": 0x35,
		"LDBT": 0x36, "STBT": 0x37,
	} {
		add(op(mn, FamRegMem, page2|code, 0, unsupported, unsupported, unsupported))
	}

	// 6309 extra 16-bit/register ops reusing the address family.
	add(op("LDQ", FamAddress, page2|0xCD, 32, unsupported, unsupported, unsupported))
	add(op("LDE", FamAddress, page2|0x86, 8, page2|0x96, page2|0xA6, page2|0xB6))
	add(op("STE", FamAddress, unsupported, 0, page2|0x97, page2|0xA7, page2|0xB7))
	add(op("LDF", FamAddress, page3|0x86, 8, page3|0x96, page3|0xA6, page3|0xB6))
	add(op("STF", FamAddress, unsupported, 0, page3|0x97, page3|0xA7, page3|0xB7))
	add(op("ADDE", FamAddress, page2|0x8B, 8, page2|0x9B, page2|0xAB, page2|0xBB))
	add(op("ADDF", FamAddress, page3|0x8B, 8, page3|0x9B, page3|0xAB, page3|0xBB))
	add(op("SUBE", FamAddress, page2|0x80, 8, page2|0x90, page2|0xA0, page2|0xB0))
	add(op("SUBF", FamAddress, page3|0x80, 8, page3|0x90, page3|0xA0, page3|0xB0))
	add(op("CMPE", FamAddress, page2|0x81, 8, page2|0x91, page2|0xA1, page2|0xB1))
	add(op("CMPF", FamAddress, page3|0x81, 8, page3|0x91, page3|0xA1, page3|0xB1))
	add(op("CMPW", FamAddress, page2|0x82, 16, page2|0x92, page2|0xA2, page2|0xB2))
	add(op("DIVD", FamAddress, page2|0x8D, 8, page2|0x9D, page2|0xAD, page2|0xBD))
	add(op("DIVQ", FamAddress, page2|0x8E, 16, page2|0x9E, page2|0xAE, page2|0xBE))
	add(op("MULD", FamAddress, page2|0x8F, 16, page2|0x9F, page2|0xAF, page2|0xBF))
	add(inherent("SEXW", page2|0x14))
	for mn, code := range map[string]int{"CLRE": 0x4F, "CLRF": 0x5F, "COME": 0x43, "COMF": 0x53,
		"DECE": 0x4A, "DECF": 0x5A, "INCE": 0x4C, "INCF": 0x5C, "TSTE": 0x4D, "TSTF": 0x5D} {
		add(inherent(mn, page2|code))
	}

	return t
}

// Lookup returns the opcode entry for an uppercased mnemonic.
func Lookup(mnemonic string) (Opcode, bool) {
	o, ok := Table[mnemonic]
	return o, ok
}
