package engine

import (
	"fmt"
	"strings"

	"six09asm/encoder"
	"six09asm/errs"
	"six09asm/eval"
	"six09asm/program"
	"six09asm/symtab"
	"six09asm/value"
)

// Source is one file handed to the engine: its name (for diagnostics and
// file-program deduplication) and its already-lexed lines. The parser
// package is responsible for producing this from text.
type Source struct {
	Filename string
	Prog     *program.Program
}

// RunPasses implements the pass driver of §4.7: repeatedly assembles
// every source, in order, until every section reports convergence (or
// the pass budget is exhausted). Pass 0 is always treated as
// inconsistent (explicit, not an accident of a zero-initialized
// sentinel), matching the resolved Open Question in SPEC_FULL.md §9.
func (e *Engine) RunPasses(sources []Source) error {
	for pass := 0; pass < e.Cfg.MaxPasses; pass++ {
		e.pass = pass
		e.Errors.Clear()
		e.SetSection("")

		for _, src := range sources {
			e.curFilename = src.Filename
			e.assembleProgram(src.Prog)
		}
		inconsistent := e.Sections.FinishPass(pass)
		level, any := e.Errors.PassLevel()
		if any && level >= errs.Fatal {
			return fmt.Errorf("fatal error during pass %d", pass)
		}
		if !inconsistent && (!any || level < errs.Inconsistent) {
			return nil
		}
	}
	return fmt.Errorf("failed to converge after %d passes", e.Cfg.MaxPasses)
}

// RunListingPass runs one extra pass over an already-converged run with
// EnableListing turned on, populating e.Listing. It must only be called
// after RunPasses has returned nil: convergence guarantees this pass
// emits byte-for-byte the same output as the final pass RunPasses ran.
func (e *Engine) RunListingPass(sources []Source) error {
	e.pass++
	e.Errors.Clear()
	e.SetSection("")

	for _, src := range sources {
		e.curFilename = src.Filename
		e.assembleProgram(src.Prog)
	}
	if lvl, any := e.Errors.PassLevel(); any && lvl >= errs.Fatal {
		return fmt.Errorf("fatal error during listing pass")
	}
	return nil
}

// assembleProgram walks one file program's lines in order, handling
// labels, pseudo-ops, and mnemonics.
func (e *Engine) assembleProgram(p *program.Program) {
	ctx := program.NewContext(p)
	if err := e.Contexts.Push(ctx); err != nil {
		e.ReportError(errs.Fatal, "%v", err)
		return
	}
	defer e.Contexts.Pop()

	for {
		line := ctx.Next()
		if line == nil {
			break
		}
		e.curLineNum = line.LineNum
		if sec := e.Sections.Current(); sec != nil {
			sec.Line = line.LineNum
		}
		if e.Contexts.Depth() == 1 {
			e.assembleTopLevelLine(e.curFilename, line)
		} else {
			e.assembleLine(line)
		}
	}
}

func (e *Engine) assembleLine(line *program.Line) {
	op := strings.ToUpper(line.Opcode)
	// EQU/SET bind their label to the operand value themselves.
	if line.Label != nil && op != "EQU" && op != "SET" {
		e.bindLabel(line.Label)
	}
	if line.Opcode == "" {
		return
	}
	if handler, ok := pseudoOps[op]; ok {
		handler(e, line)
		return
	}
	if macro, ok := e.Programs.Macro(line.Opcode); ok {
		e.Symbols.RecordUse(macro.Name, symtab.Position{Filename: e.curFilename, Line: e.curLineNum})
		e.expandMacro(macro, line)
		return
	}
	e.encodeMnemonic(line)
}

// expandMacro pushes a positional-argument frame built from the call
// site's operands and a new context over the macro body, guarded
// against runaway recursion/depth (§4.3, §4.7; grounded on the teacher's
// MacroExpander recursion guard).
func (e *Engine) expandMacro(macro *program.Program, call *program.Line) {
	if err := e.PushMacro(macro.Name); err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	defer e.PopMacro()

	argsVal := call.Args
	if argsVal == nil {
		argsVal = value.Array()
	}
	if err := e.Positional.Push(argsVal); err != nil {
		e.ReportError(errs.Fatal, "%v", err)
		return
	}
	defer e.Positional.Pop()

	e.assembleProgram(macro)
}

// bindLabel defines a regular or numeric local label at the line's
// current pc.
func (e *Engine) bindLabel(label *value.Value) {
	pcVal := value.Int(e.CurrentPC())
	switch label.Kind {
	case value.KindInt:
		sec := e.Sections.Current()
		if sec == nil {
			return
		}
		if err := sec.Locals.Set(int(label.Int), e.curLineNum, pcVal); err != nil {
			e.ReportError(errs.Inconsistent, "%v", err)
		}
	case value.KindID, value.KindString:
		name, _ := eval.EvalString(e, label)
		if err := e.Symbols.Set(name, pcVal, false, e.pass); err != nil {
			if symtab.IsInconsistent(err) {
				e.ReportError(errs.Inconsistent, "%v", err)
			} else {
				e.ReportError(errs.Syntax, "%v", err)
			}
		}
	}
}

// encodeMnemonic dispatches to the instruction encoder.
func (e *Engine) encodeMnemonic(line *program.Line) {
	inst := &encoder.Instruction{
		Mnemonic:  line.Opcode,
		Immediate: line.Immediate,
		Args:      line.Args,
		Pos:       errs.Position{Filename: e.curFilename, Line: line.LineNum},
		RawLine:   line.Text,
	}
	// Errors are already recorded via ReportError inside the encoder;
	// the returned error only short-circuits this one instruction.
	_ = encoder.Encode(e, inst)
}
