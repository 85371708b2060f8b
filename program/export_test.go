package program

import (
	"strings"
	"testing"

	"six09asm/value"
)

func TestWriteExportsOrdersAndFormats(t *testing.T) {
	macroB := &Program{Kind: KindMacro, Name: "BBB"}
	macroB.AddLine(nil, "LDA", nil, "\tLDA #1")
	macroA := &Program{Kind: KindMacro, Name: "AAA"}
	macroA.AddLine(nil, "RTS", nil, "\tRTS")

	symbols := []SymbolExport{
		{Name: "ZZZ", Val: value.Int(99)},
		{Name: "AAA_SYM", Val: value.String("hi")},
	}

	var sb strings.Builder
	if err := WriteExports(&sb, []*Program{macroB, macroA}, symbols); err != nil {
		t.Fatalf("WriteExports: %v", err)
	}
	got := sb.String()

	if strings.Index(got, "AAA\tmacro") > strings.Index(got, "BBB\tmacro") {
		t.Errorf("expected macros sorted by name, got:\n%s", got)
	}
	if !strings.Contains(got, "\tRTS\n\tendm\n") {
		t.Errorf("expected macro AAA's body and endm to render, got:\n%s", got)
	}
	if strings.Index(got, "AAA_SYM\tequ") > strings.Index(got, "ZZZ\tequ") {
		t.Errorf("expected symbols sorted by name, got:\n%s", got)
	}
	if !strings.Contains(got, "AAA_SYM\tequ\t/hi/\n") {
		t.Errorf("expected a string symbol delimited by slashes, got:\n%s", got)
	}
	if !strings.Contains(got, "ZZZ\tequ\t99\n") {
		t.Errorf("expected an int symbol rendered plainly, got:\n%s", got)
	}
}

func TestFormatExportValue(t *testing.T) {
	tests := []struct {
		v    *value.Value
		want string
	}{
		{value.Int(42), "42"},
		{value.Float(1.5), "1.5"},
		{value.String("abc"), "/abc/"},
		{nil, "0"},
		{value.Register(value.RegX), "X"},
	}
	for _, tt := range tests {
		if got := formatExportValue(tt.v); got != tt.want {
			t.Errorf("formatExportValue(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
