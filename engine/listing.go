package engine

import "six09asm/program"

// ListingEntry is one source line's address/bytes/text for the `-l`
// listing file, captured during a dedicated replay pass after
// convergence (§4.7's final-two-passes-identical invariant makes the
// replay's bytes match the converged assembly exactly).
type ListingEntry struct {
	Filename string
	LineNum  int
	Addr     int64
	HasAddr  bool
	Bytes    []byte
	Source   string
}

// EnableListing turns on per-line byte capture for the next pass run
// through RunPasses (or a manual assembleProgram walk). Call this only
// after RunPasses has already converged, then run one more pass: macro
// expansions collapse onto their call-site line, matching the
// traditional assembler listing convention of not repeating a macro's
// body under every call site.
func (e *Engine) EnableListing() { e.listingOn = true; e.Listing = nil }

// assembleTopLevelLine is assembleLine's top-level entry point invoked
// directly from assembleProgram's own loop (Contexts.Depth()==1): the
// only place a listing.Line is recorded. Lines reached through macro
// expansion (Contexts.Depth()>1) still emit bytes, which fold into the
// call site's entry via curLineBytes.
func (e *Engine) assembleTopLevelLine(filename string, line *program.Line) {
	if !e.listingOn {
		e.assembleLine(line)
		return
	}
	addrBefore := e.CurrentPC()
	e.curLineBytes = nil
	e.assembleLine(line)
	e.Listing = append(e.Listing, ListingEntry{
		Filename: filename,
		LineNum:  line.LineNum,
		Addr:     addrBefore,
		HasAddr:  line.Opcode != "" || line.Label != nil,
		Bytes:    e.curLineBytes,
		Source:   line.Text,
	})
	e.curLineBytes = nil
}
