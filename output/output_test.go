package output

import (
	"testing"

	"six09asm/section"
)

func TestRequiresPadding(t *testing.T) {
	tests := []struct {
		f    Format
		want bool
	}{
		{Binary, true},
		{DragonDOS, true},
		{CoCo, false},
		{SRecord, false},
		{IntelHex, false},
	}
	for _, tt := range tests {
		if got := RequiresPadding(tt.f); got != tt.want {
			t.Errorf("RequiresPadding(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if _, err := Write(Format(99), nil, ExecAddr{}); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestWriteBinary(t *testing.T) {
	spans := []*section.Span{{Put: 0x1000, Data: []byte{0x01, 0x02, 0x03}}}
	got, err := writeBinary(spans, ExecAddr{})
	if err != nil {
		t.Fatalf("writeBinary: %v", err)
	}
	if string(got) != string([]byte{0x01, 0x02, 0x03}) {
		t.Errorf("writeBinary = % X, want 01 02 03", got)
	}
}

func TestWriteBinaryRejectsExec(t *testing.T) {
	spans := []*section.Span{{Data: []byte{0x01}}}
	if _, err := writeBinary(spans, ExecAddr{Value: 0x1000, Set: true}); err == nil {
		t.Error("expected an error: flat binary has no room for an exec address")
	}
}

func TestWriteBinaryRejectsMultipleSpans(t *testing.T) {
	spans := []*section.Span{{Data: []byte{0x01}}, {Data: []byte{0x02}}}
	if _, err := writeBinary(spans, ExecAddr{}); err == nil {
		t.Error("expected an error: binary output requires a single coalesced span")
	}
}

func TestWriteBinaryEmpty(t *testing.T) {
	got, err := writeBinary(nil, ExecAddr{})
	if err != nil || got != nil {
		t.Errorf("writeBinary(nil) = %v, %v, want nil, nil", got, err)
	}
}

func TestWriteDragonDOSHeader(t *testing.T) {
	spans := []*section.Span{{Put: 0x2000, Data: []byte{0xAA, 0xBB}}}
	got, err := writeDragonDOS(spans, ExecAddr{})
	if err != nil {
		t.Fatalf("writeDragonDOS: %v", err)
	}
	want := []byte{0x55, 0x02, 0x20, 0x00, 0x00, 0x02, 0x20, 0x00, 0xAA, 0xAA, 0xBB}
	if string(got) != string(want) {
		t.Errorf("writeDragonDOS = % X, want % X", got, want)
	}
}

func TestWriteDragonDOSExplicitExec(t *testing.T) {
	spans := []*section.Span{{Put: 0x2000, Data: []byte{0xAA}}}
	got, err := writeDragonDOS(spans, ExecAddr{Value: 0x3000, Set: true})
	if err != nil {
		t.Fatalf("writeDragonDOS: %v", err)
	}
	// exec address field (bytes 6,7) should carry 0x3000, not the load address.
	if got[6] != 0x30 || got[7] != 0x00 {
		t.Errorf("exec field = %02X%02X, want 3000", got[6], got[7])
	}
}

func TestWriteDragonDOSRejectsMultipleSpans(t *testing.T) {
	spans := []*section.Span{{Data: []byte{0x01}}, {Data: []byte{0x02}}}
	if _, err := writeDragonDOS(spans, ExecAddr{}); err == nil {
		t.Error("expected an error: dragondos output requires a single coalesced span")
	}
}

func TestWriteCoCoMultiSpanAndExec(t *testing.T) {
	spans := []*section.Span{
		{Put: 0x1000, Data: []byte{0x01, 0x02}},
		{Put: 0x2000, Data: []byte{0x03}},
	}
	got, err := writeCoCo(spans, ExecAddr{Value: 0x1000, Set: true})
	if err != nil {
		t.Fatalf("writeCoCo: %v", err)
	}
	want := []byte{
		0x00, 0x00, 0x02, 0x10, 0x00, 0x01, 0x02,
		0x00, 0x00, 0x01, 0x20, 0x00, 0x03,
		0xFF, 0x00, 0x00, 0x10, 0x00,
	}
	if string(got) != string(want) {
		t.Errorf("writeCoCo = % X, want % X", got, want)
	}
}

func TestWriteCoCoNoExec(t *testing.T) {
	spans := []*section.Span{{Put: 0x4000, Data: []byte{0x42}}}
	got, err := writeCoCo(spans, ExecAddr{})
	if err != nil {
		t.Fatalf("writeCoCo: %v", err)
	}
	want := []byte{0x00, 0x00, 0x01, 0x40, 0x00, 0x42}
	if string(got) != string(want) {
		t.Errorf("writeCoCo = % X, want % X (no trailing exec block)", got, want)
	}
}
