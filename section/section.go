// Package section implements the section/span byte-emission model of
// §4.5: named sections each own an ordered list of spans of emitted
// bytes, tracked separately by "pc" (run address) and "put" (load
// address), restarted each pass, and coalesced at the end of the run.
//
// Grounded on original_source/src/section.c.
package section

import (
	"sort"

	"six09asm/symtab"
)

// Span is a maximal contiguous run of bytes produced without a pc/put
// discontinuity.
type Span struct {
	Org  int64 // starting pc
	Put  int64 // starting put
	Data []byte
	Seq  int64
}

func (s *Span) size() int64 { return int64(len(s.Data)) }

// Section is a named, independently-addressed region of output.
type Section struct {
	Name string

	PC int64
	Put int64
	DP  int64 // direct-page base; -1 when unknown

	Pass       int
	lastEndPC  int64
	seenBefore bool

	Locals *symtab.LocalTable
	Line   int

	Spans   []*Span
	current *Span
}

func newSection(name string) *Section {
	return &Section{Name: name, DP: -1, Locals: symtab.NewLocalTable()}
}

// Map owns every section created during a run, plus the sequence counter
// shared across all of them (span sequence numbers are globally
// monotonic, per §5's ordering guarantee).
type Map struct {
	sections map[string]*Section
	order    []string
	current  *Section
	seq      int64
}

func NewMap() *Map { return &Map{sections: make(map[string]*Section)} }

// SetCurrent switches to (creating if necessary) the named section and,
// if this is its first activation this pass, seeds its pc/put from the
// previously active section (or zero) and discards its old spans.
func (m *Map) SetCurrent(name string, pass int) *Section {
	sec, ok := m.sections[name]
	if !ok {
		sec = newSection(name)
		m.sections[name] = sec
		m.order = append(m.order, name)
	}
	if sec.Pass != pass || !sec.seenBefore {
		var seedPC, seedPut int64
		if m.current != nil {
			seedPC, seedPut = m.current.PC, m.current.Put
		}
		sec.Spans = nil
		sec.current = nil
		sec.DP = -1
		sec.Line = 0
		sec.PC = seedPC
		sec.Put = seedPut
		sec.Pass = pass
		sec.seenBefore = true
	}
	m.current = sec
	return sec
}

func (m *Map) Current() *Section { return m.current }

// Get returns a section by name without switching to it (nil if absent).
func (m *Map) Get(name string) *Section { return m.sections[name] }

// Names returns section names in creation order.
func (m *Map) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// ensureSpan closes the open span if a discontinuity has occurred and
// opens (or reuses) one starting at the section's current pc/put.
func (m *Map) ensureSpan(sec *Section) *Span {
	if sec.current != nil {
		expectPut := sec.current.Put + sec.current.size()
		expectPC := sec.current.Org + sec.current.size()
		if sec.Put == expectPut && sec.PC == expectPC {
			return sec.current
		}
		if sec.current.size() == 0 {
			// drop the empty span rather than keeping a zero-length one
			sec.Spans = sec.Spans[:len(sec.Spans)-1]
		}
	}
	sp := &Span{Org: sec.PC, Put: sec.Put, Seq: m.seq}
	m.seq++
	sec.Spans = append(sec.Spans, sp)
	sec.current = sp
	return sp
}

// Append writes bytes to the current section, advancing both pc and put.
func (m *Map) Append(sec *Section, data []byte) {
	sp := m.ensureSpan(sec)
	sp.Data = append(sp.Data, data...)
	sec.PC += int64(len(data))
	sec.Put += int64(len(data))
}

// Skip advances pc/put by n bytes without emitting data (RMB et al.),
// which always closes any open span.
func (m *Map) Skip(sec *Section, n int64) {
	sec.current = nil
	sec.PC += n
	sec.Put += n
}

// SetOrigin sets sec's pc (and put, keeping them in lockstep) to addr,
// closing any open span (ORG).
func (m *Map) SetOrigin(sec *Section, addr int64) {
	sec.current = nil
	sec.PC = addr
	sec.Put = addr
}

// SetPut sets sec's put independently of pc, closing any open span
// (the PUT directive, used for position-independent code).
func (m *Map) SetPut(sec *Section, put int64) {
	sec.current = nil
	sec.Put = put
}

// FinishPass reports, per section, whether its ending pc differs from
// the value observed at the end of the previous pass. Pass 0 is always
// treated as inconsistent (forcing at least a second pass), made
// explicit here rather than relying on a zero-initialized sentinel that
// happens to differ, per the resolved Open Question in SPEC_FULL.md §9.
func (m *Map) FinishPass(pass int) (inconsistent bool) {
	for _, name := range m.order {
		sec := m.sections[name]
		if pass == 0 || sec.PC != sec.lastEndPC {
			inconsistent = true
		}
		sec.lastEndPC = sec.PC
	}
	return inconsistent
}

func spanLess(a, b *Span) bool {
	if a.Put != b.Put {
		return a.Put < b.Put
	}
	return a.Seq < b.Seq
}

// Coalesce produces a cleaned copy of sec's span list: optionally sorted
// by (put, seq), with overlaps truncated (raising a data error via the
// returned slice of error strings) and, if pad is true, gaps zero-filled
// and abutting spans merged.
func Coalesce(spans []*Span, sortSpans, pad bool) (out []*Span, warnings []string) {
	cp := make([]*Span, len(spans))
	for i, s := range spans {
		d := make([]byte, len(s.Data))
		copy(d, s.Data)
		cp[i] = &Span{Org: s.Org, Put: s.Put, Data: d, Seq: s.Seq}
	}
	if sortSpans {
		sort.SliceStable(cp, func(i, j int) bool { return spanLess(cp[i], cp[j]) })
	}
	var result []*Span
	for _, s := range cp {
		if len(result) == 0 {
			result = append(result, s)
			continue
		}
		prev := result[len(result)-1]
		prevEnd := prev.Put + prev.size()
		switch {
		case s.Put < prevEnd:
			overlap := prevEnd - s.Put
			if overlap >= s.size() {
				warnings = append(warnings, "span fully overlapped, dropped")
				continue
			}
			warnings = append(warnings, "overlapping spans truncated")
			s = &Span{Org: s.Org + overlap, Put: s.Put + overlap, Data: s.Data[overlap:], Seq: s.Seq}
			result = append(result, s)
		case s.Put == prevEnd:
			prev.Data = append(prev.Data, s.Data...)
		case pad:
			gap := s.Put - prevEnd
			prev.Data = append(prev.Data, make([]byte, gap)...)
			prev.Data = append(prev.Data, s.Data...)
		default:
			result = append(result, s)
		}
	}
	return result, warnings
}

// CoalesceAll merges every section's spans into one synthetic, sorted,
// optionally padded span list, for the single-image output formatters.
func (m *Map) CoalesceAll(pad bool) (spans []*Span, warnings []string) {
	var all []*Span
	for _, name := range m.order {
		all = append(all, m.sections[name].Spans...)
	}
	return Coalesce(all, true, pad)
}
