package encoder

import (
	"fmt"
	"testing"

	"six09asm/errs"
	"six09asm/value"
)

// fakeSink is a minimal Sink for exercising one encode call at a time: it
// records every emitted byte and every diagnostic, and lets a test fix pc
// and the direct-page base up front.
type fakeSink struct {
	pc       int64
	dp       int64
	symbols  map[string]*value.Value
	bytes    []byte
	errs     []errs.Severity
}

func newFakeSink() *fakeSink {
	return &fakeSink{dp: -1, symbols: make(map[string]*value.Value)}
}

func (s *fakeSink) CurrentPC() int64 { return s.pc }
func (s *fakeSink) LineNumber() int  { return 1 }
func (s *fakeSink) LookupSymbol(name string) (*value.Value, bool) {
	v, ok := s.symbols[name]
	return v, ok
}
func (s *fakeSink) LookupBackref(num, line int) (*value.Value, bool) { return nil, false }
func (s *fakeSink) LookupFwdref(num, line int) (*value.Value, bool)  { return nil, false }
func (s *fakeSink) PositionalGet(index int) (*value.Value, error) {
	return nil, fmt.Errorf("no positional variables")
}
func (s *fakeSink) IgnoreUndefined() bool { return false }
func (s *fakeSink) ReportError(sev errs.Severity, format string, args ...any) {
	s.errs = append(s.errs, sev)
}
func (s *fakeSink) EmitBytes(b []byte)  { s.bytes = append(s.bytes, b...) }
func (s *fakeSink) SkipBytes(n int64)   { s.pc += n }
func (s *fakeSink) DirectPage() int64   { return s.dp }
func (s *fakeSink) PCAfter(extra int64) int64 {
	return s.pc + int64(len(s.bytes)) + extra
}

func wantBytes(t *testing.T, got []byte, want ...byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got % X, want % X", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got % X, want % X", got, want)
		}
	}
}

func TestEncodeInherent(t *testing.T) {
	sink := newFakeSink()
	opc, _ := Lookup("RTS")
	if err := Encode(sink, &Instruction{Mnemonic: "RTS", Args: value.Array()}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantBytes(t, sink.bytes, byte(opc.ImmOp))
}

func TestEncodeImmediateOnly(t *testing.T) {
	sink := newFakeSink()
	inst := &Instruction{Mnemonic: "ANDCC", Args: value.Array(value.Int(0xAF))}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	opc, _ := Lookup("ANDCC")
	wantBytes(t, sink.bytes, byte(opc.ImmOp), 0xAF)
}

func TestEncodeRelative8Range(t *testing.T) {
	tests := []struct {
		name    string
		pc      int64
		target  int64
		wantErr bool
	}{
		{"in range positive", 0x1000, 0x1000 + 2 + 127, false},
		{"in range negative", 0x1000, 0x1000 + 2 - 128, false},
		{"just out of range", 0x1000, 0x1000 + 2 + 128, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newFakeSink()
			sink.pc = tt.pc
			inst := &Instruction{Mnemonic: "BRA", Args: value.Array(value.Int(tt.target))}
			Encode(sink, inst)
			gotErr := false
			for _, sev := range sink.errs {
				if sev == errs.OutOfRange {
					gotErr = true
				}
			}
			if gotErr != tt.wantErr {
				t.Errorf("out-of-range reported = %v, want %v (errs=%v)", gotErr, tt.wantErr, sink.errs)
			}
			if len(sink.bytes) != 2 {
				t.Errorf("expected opcode+1 byte displacement, got % X", sink.bytes)
			}
		})
	}
}

func TestEncodeRelative16RangeAndWarning(t *testing.T) {
	sink := newFakeSink()
	sink.pc = 0x2000
	// Within rel8 range too: LBRA should warn that a short branch would do.
	inst := &Instruction{Mnemonic: "LBRA", Args: value.Array(value.Int(0x2000 + 3 + 10))}
	Encode(sink, inst)
	sawWarning := false
	for _, sev := range sink.errs {
		if sev == errs.Warning {
			sawWarning = true
		}
	}
	if !sawWarning {
		t.Errorf("expected a short-branch-would-do warning, got errs=%v", sink.errs)
	}
	if len(sink.bytes) != 3 {
		t.Fatalf("expected opcode+2 byte displacement, got % X", sink.bytes)
	}

	sink2 := newFakeSink()
	sink2.pc = 0x2000
	inst2 := &Instruction{Mnemonic: "LBRA", Args: value.Array(value.Int(0x2000 + 3 + 10000))}
	Encode(sink2, inst2)
	for _, sev := range sink2.errs {
		if sev == errs.OutOfRange {
			t.Fatalf("unexpected out-of-range for an in-range rel16 target")
		}
	}

	sink3 := newFakeSink()
	sink3.pc = 0x2000
	inst3 := &Instruction{Mnemonic: "LBRA", Args: value.Array(value.Int(0x2000 + 3 + 100000))}
	Encode(sink3, inst3)
	sawRange := false
	for _, sev := range sink3.errs {
		if sev == errs.OutOfRange {
			sawRange = true
		}
	}
	if !sawRange {
		t.Errorf("expected an out-of-range error for a too-far rel16 target")
	}
}

func TestEncodeAddressDirectVsExtended(t *testing.T) {
	opc, _ := Lookup("LDA")

	t.Run("direct via matching DP", func(t *testing.T) {
		sink := newFakeSink()
		sink.dp = 0x10
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(value.Int(0x1042))}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wantBytes(t, sink.bytes, byte(opc.DirectOp), 0x42)
	})

	t.Run("extended when DP unset", func(t *testing.T) {
		sink := newFakeSink()
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(value.Int(0x1042))}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wantBytes(t, sink.bytes, byte(opc.ExtendedOp), 0x10, 0x42)
	})

	t.Run("forced 8-bit attribute stays direct even off-page", func(t *testing.T) {
		sink := newFakeSink()
		sink.dp = 0x00
		arg := value.WithAttr(value.Int(0x1042), value.Attr8Bit)
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(arg)}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wantBytes(t, sink.bytes, byte(opc.DirectOp), 0x42)
	})

	t.Run("immediate form", func(t *testing.T) {
		sink := newFakeSink()
		inst := &Instruction{Mnemonic: "LDA", Immediate: true, Args: value.Array(value.Int(0x7F))}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wantBytes(t, sink.bytes, byte(opc.ImmOp), 0x7F)
	})

	t.Run("undef prefers extended, not oscillating width", func(t *testing.T) {
		sink := newFakeSink()
		sink.dp = 0x10
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(value.Undef())}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(sink.bytes) != 3 {
			t.Fatalf("expected extended-width placeholder (opcode+2), got % X", sink.bytes)
		}
		if sink.bytes[0] != byte(opc.ExtendedOp) {
			t.Errorf("expected extended opcode reserved for an undef operand, got %#x", sink.bytes[0])
		}
	})
}

// TestEncodeIndexedOffsetPreference exercises the 5-bit/8-bit/16-bit
// offset-size selection for the X/Y/U/S register class.
func TestEncodeIndexedOffsetPreference(t *testing.T) {
	opc, _ := Lookup("LDA")
	tests := []struct {
		name     string
		off      int64
		wantLen  int
		wantByte byte
	}{
		{"zero collapses to 5-bit", 0, 2, 0x00},
		{"fits 5-bit", 15, 2, 0x0F},
		{"needs 8-bit", 100, 3, 0x88},
		{"needs 16-bit", 10000, 4, 0x89},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newFakeSink()
			args := []*value.Value{value.Int(tt.off), value.Register(value.RegX)}
			inst := &Instruction{Mnemonic: "LDA", Args: value.Array(args...)}
			if err := Encode(sink, inst); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if len(sink.bytes) != tt.wantLen {
				t.Fatalf("got % X, want length %d", sink.bytes, tt.wantLen)
			}
			if sink.bytes[0] != byte(opc.IndexedOp) {
				t.Fatalf("opcode byte = %#x, want %#x", sink.bytes[0], opc.IndexedOp)
			}
			if sink.bytes[1] != tt.wantByte {
				t.Errorf("postbyte = %#x, want %#x", sink.bytes[1], tt.wantByte)
			}
		})
	}
}

// TestEncodeIndexedWRegister is a regression test for the two idxW bugs
// fixed in encodeIndexedOffset: an undefined offset under forceWide must
// reserve the 16-bit-offset postbyte (not the bare 0x8F form), and the
// indirect 16-bit-offset postbyte (0xB0) must still emit its two offset
// bytes.
func TestEncodeIndexedWRegister(t *testing.T) {
	t.Run("forceWide reserves the wide form", func(t *testing.T) {
		sink := newFakeSink()
		args := []*value.Value{value.Undef(), value.Register(value.RegW)}
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(args...)}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(sink.bytes) != 4 {
			t.Fatalf("got % X, want 4 bytes (opcode+postbyte+2 offset bytes)", sink.bytes)
		}
		if sink.bytes[1] != 0xAF {
			t.Errorf("postbyte = %#x, want 0xAF", sink.bytes[1])
		}
	})

	t.Run("indirect 16-bit offset emits its offset bytes", func(t *testing.T) {
		sink := newFakeSink()
		idxArg := value.Array(value.Register(value.RegW))
		args := []*value.Value{value.Int(0x1234), idxArg}
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(args...)}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(sink.bytes) != 4 {
			t.Fatalf("got % X, want 4 bytes (opcode+postbyte+2 offset bytes)", sink.bytes)
		}
		if sink.bytes[1] != 0xB0 {
			t.Errorf("postbyte = %#x, want 0xB0 (indirect wide)", sink.bytes[1])
		}
		if sink.bytes[2] != 0x12 || sink.bytes[3] != 0x34 {
			t.Errorf("offset bytes = % X, want 12 34", sink.bytes[2:])
		}
	})

	t.Run("zero offset, non-indirect, uses the no-offset form", func(t *testing.T) {
		sink := newFakeSink()
		args := []*value.Value{value.Int(0), value.Register(value.RegW)}
		inst := &Instruction{Mnemonic: "LDA", Args: value.Array(args...)}
		if err := Encode(sink, inst); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		wantBytes(t, sink.bytes[1:], 0x8F)
	})
}

func TestEncodeStackSelfPushIllegal(t *testing.T) {
	sink := newFakeSink()
	args := value.Array(value.Register(value.RegS), value.Register(value.RegA))
	inst := &Instruction{Mnemonic: "PSHS", Args: args}
	Encode(sink, inst)
	sawIllegal := false
	for _, sev := range sink.errs {
		if sev == errs.Syntax {
			sawIllegal = true
		}
	}
	if !sawIllegal {
		t.Errorf("expected an error pushing S onto its own stack, got errs=%v", sink.errs)
	}

	sink2 := newFakeSink()
	args2 := value.Array(value.Register(value.RegS), value.Register(value.RegA))
	inst2 := &Instruction{Mnemonic: "PSHU", Args: args2}
	Encode(sink2, inst2)
	for _, sev := range sink2.errs {
		if sev == errs.Syntax {
			t.Errorf("unexpected error pushing S onto PSHU's stack (only U, its own stack register, is illegal there)")
		}
	}
}

func TestEncodeStackMaskOrdering(t *testing.T) {
	sink := newFakeSink()
	opc, _ := Lookup("PSHS")
	args := value.Array(value.Register(value.RegA), value.Register(value.RegB), value.Register(value.RegX))
	inst := &Instruction{Mnemonic: "PSHS", Args: args}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// PSHS postbyte bits, high to low: PC,U,Y,X,DP,B,A,CC.
	want := byte(0x04 | 0x02 | 0x10)
	wantBytes(t, sink.bytes, byte(opc.ImmOp), want)
}

func TestEncodePair(t *testing.T) {
	sink := newFakeSink()
	opc, _ := Lookup("TFR")
	args := value.Array(value.Register(value.RegX), value.Register(value.RegY))
	inst := &Instruction{Mnemonic: "TFR", Args: args}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(sink.bytes) != 2 || sink.bytes[0] != byte(opc.ImmOp) {
		t.Fatalf("got % X", sink.bytes)
	}
}

func TestEncodeImm8MemDirect(t *testing.T) {
	sink := newFakeSink()
	sink.dp = 0x00
	opc, _ := Lookup("AIM")
	args := value.Array(value.Int(0xFF), value.Int(0x0042))
	inst := &Instruction{Mnemonic: "AIM", Args: args}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	wantBytes(t, sink.bytes, byte(opc.DirectOp), 0xFF, 0x42)
}

// TestEncodeImm8MemIndexed exercises the AIM/OIM/EIM/TIM indexed delegation
// fixed in this review pass: the arity-3 `imm,offset,REG` form must reach
// the indexed encoder rather than being rejected outright, with the
// immediate spliced in between the opcode and the indexed postbyte.
func TestEncodeImm8MemIndexed(t *testing.T) {
	sink := newFakeSink()
	opc, _ := Lookup("OIM")
	args := value.Array(value.Int(0x80), value.Int(5), value.Register(value.RegX))
	inst := &Instruction{Mnemonic: "OIM", Args: args}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// opcode, immediate, postbyte (5-bit offset form, reg X selector 0x00).
	wantBytes(t, sink.bytes, byte(opc.IndexedOp), 0x80, 0x05)
}

func TestEncodeRegMem(t *testing.T) {
	sink := newFakeSink()
	opc, _ := Lookup("BAND")
	args := value.Array(value.Register(value.RegA), value.Int(3), value.Int(5), value.Int(0x42))
	inst := &Instruction{Mnemonic: "BAND", Args: args}
	if err := Encode(sink, inst); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	page, low := byte(opc.ImmOp>>8), byte(opc.ImmOp)
	wantBytes(t, sink.bytes, page, low, byte(0x40|3<<3|5), 0x42)
}
