package engine

import (
	"strings"
	"testing"

	"six09asm/parser"
	"six09asm/program"
)

// parseSource parses a single in-memory source string into an
// engine.Source, failing the test on any parse error.
func parseSource(t *testing.T, filename, src string) Source {
	t.Helper()
	set := program.NewSet()
	p := parser.NewFileParser(src, filename, set, "")
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("%s: parse error: %v", filename, err)
	}
	if items := p.Errors().Items(); len(items) > 0 {
		t.Fatalf("%s: unexpected parse errors: %v", filename, items)
	}
	return Source{Filename: filename, Prog: prog}
}

// TestRunPasses_DirectAddressConvergence exercises the convergence
// scenario of a forward reference whose encoding narrows from extended
// (the undefined-width default) to direct once the direct-page base and
// final address are both known, and checks that the pass driver
// converges to the narrower, stable encoding rather than oscillating.
func TestRunPasses_DirectAddressConvergence(t *testing.T) {
	src := "\tSETDP $00\n\tORG $0040\nL\tLDA T\nT\tFCB $55\n"
	sources := []Source{parseSource(t, "fwd.asm", src)}

	eng := New(Config{})
	if err := eng.RunPasses(sources); err != nil {
		t.Fatalf("RunPasses: %v", err)
	}

	spans, warnings := eng.Sections.CoalesceAll(false)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %#v", len(spans), spans)
	}
	span := spans[0]
	if span.Org != 0x0040 {
		t.Errorf("span.Org = %#x, want 0x40", span.Org)
	}
	want := []byte{0x96, 0x42, 0x55}
	if string(span.Data) != string(want) {
		t.Errorf("span.Data = % X, want % X", span.Data, want)
	}
}

// TestRunListingPass checks that a post-convergence listing pass
// records one entry per top-level source line, with the address
// captured before that line executes and the bytes it actually emitted.
func TestRunListingPass(t *testing.T) {
	src := "\tORG $4000\n\tLDA #$10\n\tRTS\n"
	sources := []Source{parseSource(t, "list.asm", src)}

	eng := New(Config{})
	if err := eng.RunPasses(sources); err != nil {
		t.Fatalf("RunPasses: %v", err)
	}

	eng.EnableListing()
	if err := eng.RunListingPass(sources); err != nil {
		t.Fatalf("RunListingPass: %v", err)
	}

	if len(eng.Listing) != 3 {
		t.Fatalf("expected 3 listing entries, got %d: %#v", len(eng.Listing), eng.Listing)
	}

	org, lda, rts := eng.Listing[0], eng.Listing[1], eng.Listing[2]

	if org.Addr != 0 || len(org.Bytes) != 0 {
		t.Errorf("ORG entry: Addr=%#x Bytes=% X, want Addr=0 and no bytes", org.Addr, org.Bytes)
	}

	if lda.Addr != 0x4000 {
		t.Errorf("LDA entry: Addr=%#x, want 0x4000", lda.Addr)
	}
	if want := []byte{0x86, 0x10}; string(lda.Bytes) != string(want) {
		t.Errorf("LDA entry: Bytes=% X, want % X", lda.Bytes, want)
	}

	if rts.Addr != 0x4002 {
		t.Errorf("RTS entry: Addr=%#x, want 0x4002", rts.Addr)
	}
	if want := []byte{0x39}; string(rts.Bytes) != string(want) {
		t.Errorf("RTS entry: Bytes=% X, want % X", rts.Bytes, want)
	}
}

// TestWriteExports checks that an exported macro and an exported symbol
// both render, in name order, via program.WriteExports.
func TestWriteExports(t *testing.T) {
	src := "FOO\tEQU\t$2A\nBAR\tMACRO\n\tLDA #1\n\tENDM\n\tEXPORT FOO,BAR\n"
	sources := []Source{parseSource(t, "exp.asm", src)}

	eng := New(Config{})
	if err := eng.RunPasses(sources); err != nil {
		t.Fatalf("RunPasses: %v", err)
	}

	var out strings.Builder
	if err := eng.WriteExports(&out); err != nil {
		t.Fatalf("WriteExports: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "BAR\tmacro\n") || !strings.Contains(got, "\tendm\n") {
		t.Errorf("expected exported macro BAR in output, got:\n%s", got)
	}
	if !strings.Contains(got, "FOO\tequ\t42\n") {
		t.Errorf("expected exported symbol FOO equ 42 in output, got:\n%s", got)
	}
	if strings.Index(got, "BAR") > strings.Index(got, "FOO") {
		t.Errorf("expected exported macros to render before exported symbols, got:\n%s", got)
	}
}
