package output

import (
	"strings"
	"testing"

	"six09asm/section"
)

func TestWriteIntelHexDataRecord(t *testing.T) {
	spans := []*section.Span{{Put: 0x2000, Data: []byte{0xAB, 0xCD}}}
	got, err := writeIntelHex(spans, ExecAddr{})
	if err != nil {
		t.Fatalf("writeIntelHex: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (one data record, one terminator): %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], ":02200000ABCD") {
		t.Errorf("data record = %q, want prefix :02200000ABCD", lines[0])
	}
}

func TestWriteIntelHexTerminatorNoExec(t *testing.T) {
	got, err := writeIntelHex(nil, ExecAddr{})
	if err != nil {
		t.Fatalf("writeIntelHex: %v", err)
	}
	line := strings.TrimRight(string(got), "\n")
	if line != ":00000001FF" {
		t.Errorf("terminator = %q, want :00000001FF", line)
	}
}

func TestWriteIntelHexTerminatorWithExec(t *testing.T) {
	got, err := writeIntelHex(nil, ExecAddr{Value: 0x1234, Set: true})
	if err != nil {
		t.Fatalf("writeIntelHex: %v", err)
	}
	line := strings.TrimRight(string(got), "\n")
	if line != ":00123401B9" {
		t.Errorf("terminator = %q, want :00123401B9 (exec address carried in the type-01 record)", line)
	}
}

func TestWriteIntelHexSplitsOn16ByteChunks(t *testing.T) {
	data := make([]byte, 20)
	spans := []*section.Span{{Put: 0, Data: data}}
	got, err := writeIntelHex(spans, ExecAddr{})
	if err != nil {
		t.Fatalf("writeIntelHex: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(got), "\n"), "\n")
	// 20 bytes at 16 per record -> 2 data records, plus the terminator.
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], ":10") || !strings.HasPrefix(lines[1], ":04") {
		t.Errorf("expected a 16-byte then a 4-byte record, got %q, %q", lines[0], lines[1])
	}
}

func TestWriteIntelHexRejectsOver64K(t *testing.T) {
	spans := []*section.Span{{Put: 0xFFF0, Data: make([]byte, 32)}}
	if _, err := writeIntelHex(spans, ExecAddr{}); err == nil {
		t.Error("expected an error: span runs past the 64K address range")
	}
}
