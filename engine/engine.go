// Package engine owns every piece of state the assembler's operations
// need and exposes them through one explicit object, per the redesign
// note in SPEC_FULL.md §9: no package-level globals, so the CLI, the
// browser, and the test suite are all thin callers over one *Engine.
package engine

import (
	"fmt"

	"six09asm/errs"
	"six09asm/eval"
	"six09asm/program"
	"six09asm/section"
	"six09asm/symtab"
	"six09asm/value"
)

// MaxPasses bounds the pass driver, per §4.7.
const MaxPasses = 10

// Config carries the pass-driver/engine-wide tunables that the config
// package and CLI flags populate.
type Config struct {
	MaxPasses        int
	MaxMacroDepth    int
	ISA6309          bool // enables 6309-only mnemonics/registers
}

// Engine is the single mutable object the whole assembler operates
// through.
type Engine struct {
	Cfg Config

	Symbols    *symtab.Table
	Sections   *section.Map
	Programs   *program.Set
	Contexts   program.ContextStack
	Positional eval.PositionalStack
	Errors     errs.List

	pass         int
	curFilename  string
	curLineNum   int
	ignoreUndef  bool
	macroDepth   int
	macroStack   []string
	exported     []string

	listingOn    bool
	curLineBytes []byte
	Listing      []ListingEntry
}

// Exported returns the names marked with EXPORT, in declaration order
// (duplicates included; callers dedupe them, e.g. WriteExports).
func (e *Engine) Exported() []string { return e.exported }

func New(cfg Config) *Engine {
	if cfg.MaxPasses == 0 {
		cfg.MaxPasses = MaxPasses
	}
	if cfg.MaxMacroDepth == 0 {
		cfg.MaxMacroDepth = 8
	}
	return &Engine{
		Cfg:      cfg,
		Symbols:  symtab.New(),
		Sections: section.NewMap(),
		Programs: program.NewSet(),
	}
}

// --- eval.Env ---------------------------------------------------------

func (e *Engine) CurrentPC() int64 {
	sec := e.Sections.Current()
	if sec == nil {
		return 0
	}
	return sec.PC
}

func (e *Engine) LineNumber() int { return e.curLineNum }

func (e *Engine) LookupSymbol(name string) (*value.Value, bool) {
	e.Symbols.RecordUse(name, symtab.Position{Filename: e.curFilename, Line: e.curLineNum})
	return e.Symbols.Get(name)
}

func (e *Engine) LookupBackref(num, line int) (*value.Value, bool) {
	sec := e.Sections.Current()
	if sec == nil {
		return nil, false
	}
	return sec.Locals.Backref(num, line)
}

func (e *Engine) LookupFwdref(num, line int) (*value.Value, bool) {
	sec := e.Sections.Current()
	if sec == nil {
		return nil, false
	}
	return sec.Locals.Fwdref(num, line)
}

func (e *Engine) PositionalGet(index int) (*value.Value, error) {
	return e.Positional.Get(index)
}

func (e *Engine) IgnoreUndefined() bool { return e.ignoreUndef }

func (e *Engine) ReportError(sev errs.Severity, format string, args ...any) {
	e.Errors.Add(errs.New(sev, errs.Position{Filename: e.curFilename, Line: e.curLineNum}, format, args...))
}

// SetIgnoreUndefined toggles the probe mode used by IFDEF/IFNDEF so that
// a symbol lookup made purely to test definedness doesn't force another
// pass (§4.7's last paragraph).
func (e *Engine) SetIgnoreUndefined(v bool) { e.ignoreUndef = v }

// --- encoder.Sink -------------------------------------------------------

func (e *Engine) EmitBytes(b []byte) {
	sec := e.Sections.Current()
	if sec == nil {
		return
	}
	e.Sections.Append(sec, b)
	if e.listingOn {
		e.curLineBytes = append(e.curLineBytes, b...)
	}
	if sec.PC < 0 || sec.PC > 0x10000 {
		e.ReportError(errs.OutOfRange, "program counter out of range: 0x%X", sec.PC)
	}
}

func (e *Engine) SkipBytes(n int64) {
	sec := e.Sections.Current()
	if sec == nil {
		return
	}
	e.Sections.Skip(sec, n)
}

func (e *Engine) DirectPage() int64 {
	sec := e.Sections.Current()
	if sec == nil {
		return -1
	}
	return sec.DP
}

func (e *Engine) PCAfter(extra int64) int64 {
	return e.CurrentPC() + extra
}

// SetSection switches the active section (the SETDP/ORG/section
// directives and the default "" section all route through here).
func (e *Engine) SetSection(name string) {
	e.Sections.SetCurrent(name, e.pass)
}

// SetDirectPage sets the current section's direct-page base (SETDP).
func (e *Engine) SetDirectPage(dp int64) {
	if sec := e.Sections.Current(); sec != nil {
		sec.DP = dp
	}
}

// --- macro positional-argument recursion guard --------------------------

// PushMacro enters a macro expansion, guarding against runaway direct
// recursion and excess nesting depth, mirroring the teacher's
// MacroExpander.Expand guard (parser/macros.go) adapted to this engine's
// explicit-state design.
func (e *Engine) PushMacro(name string) error {
	if e.macroDepth >= e.Cfg.MaxMacroDepth {
		return fmt.Errorf("macro nesting too deep (> %d), expanding '%s'", e.Cfg.MaxMacroDepth, name)
	}
	for _, n := range e.macroStack {
		if n == name {
			return fmt.Errorf("macro '%s' recursively invokes itself", name)
		}
	}
	e.macroDepth++
	e.macroStack = append(e.macroStack, name)
	return nil
}

func (e *Engine) PopMacro() {
	if len(e.macroStack) == 0 {
		return
	}
	e.macroStack = e.macroStack[:len(e.macroStack)-1]
	e.macroDepth--
}
