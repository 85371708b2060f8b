package engine

import (
	"strings"

	"six09asm/errs"
	"six09asm/eval"
	"six09asm/program"
	"six09asm/section"
	"six09asm/symtab"
	"six09asm/value"
)

type pseudoHandler func(e *Engine, line *program.Line)

var pseudoOps map[string]pseudoHandler

func init() {
	pseudoOps = map[string]pseudoHandler{
		"ORG":     (*Engine).doORG,
		"PUT":     (*Engine).doPUT,
		"SETDP":   (*Engine).doSETDP,
		"RMB":     (*Engine).doRMB,
		".RMB":    (*Engine).doRMB,
		"RESERVE": (*Engine).doRMB,
		"FCB":     (*Engine).doFCB,
		".BYTE":   (*Engine).doFCB,
		"FDB":     (*Engine).doFDB,
		".WORD":   (*Engine).doFDB,
		"FCC":     (*Engine).doFCC,
		"FILL":    (*Engine).doFILL,
		"EQU":     (*Engine).doEQU,
		"SET":     (*Engine).doSET,
		"EXPORT":  (*Engine).doEXPORT,
		"MACRO":   (*Engine).doMACRONoop,
		"ENDM":    (*Engine).doMACRONoop,
		"IFDEF":   (*Engine).doIFDEF,
		"IFNDEF":  (*Engine).doIFNDEF,
		"ELSE":    (*Engine).doELSE,
		"ENDIF":   (*Engine).doMACRONoop,
	}
}

func (e *Engine) args(line *program.Line) []*value.Value {
	if line.Args == nil || line.Args.Kind != value.KindArray {
		return nil
	}
	return line.Args.Kids
}

func (e *Engine) evalArg(line *program.Line, i int) (*value.Value, bool) {
	a := e.args(line)
	if i >= len(a) {
		return nil, false
	}
	return eval.Eval(e, a[i]), true
}

func (e *Engine) doORG(line *program.Line) {
	v, ok := e.evalArg(line, 0)
	if !ok {
		e.ReportError(errs.Syntax, "ORG requires an address operand")
		return
	}
	addr, err := eval.ToInt(v)
	if err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	sec := e.Sections.Current()
	if sec == nil {
		return
	}
	e.Sections.SetOrigin(sec, addr)
}

func (e *Engine) doPUT(line *program.Line) {
	v, ok := e.evalArg(line, 0)
	if !ok {
		e.ReportError(errs.Syntax, "PUT requires an address operand")
		return
	}
	addr, err := eval.ToInt(v)
	if err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	if sec := e.Sections.Current(); sec != nil {
		e.Sections.SetPut(sec, addr)
	}
}

func (e *Engine) doSETDP(line *program.Line) {
	v, ok := e.evalArg(line, 0)
	if !ok {
		e.ReportError(errs.Syntax, "SETDP requires a value")
		return
	}
	dp, err := eval.ToInt(v)
	if err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	e.SetDirectPage(dp & 0xff)
}

func (e *Engine) doRMB(line *program.Line) {
	v, ok := e.evalArg(line, 0)
	if !ok {
		e.ReportError(errs.Syntax, "RMB requires a count")
		return
	}
	n, err := eval.ToInt(v)
	if err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	e.SkipBytes(n)
}

func (e *Engine) doFCB(line *program.Line) {
	for _, raw := range e.args(line) {
		v := eval.Eval(e, raw)
		if v.Kind == value.KindUndef {
			e.EmitBytes(section.Pad(1))
			continue
		}
		n, err := eval.ToInt(v)
		if err != nil {
			e.ReportError(errs.Syntax, "%v", err)
			continue
		}
		e.EmitBytes(section.BigEndian(1, n))
	}
}

func (e *Engine) doFDB(line *program.Line) {
	for _, raw := range e.args(line) {
		v := eval.Eval(e, raw)
		if v.Kind == value.KindUndef {
			e.EmitBytes(section.Pad(2))
			continue
		}
		n, err := eval.ToInt(v)
		if err != nil {
			e.ReportError(errs.Syntax, "%v", err)
			continue
		}
		e.EmitBytes(section.BigEndian(2, n))
	}
}

func (e *Engine) doFCC(line *program.Line) {
	for _, raw := range e.args(line) {
		s, err := eval.EvalString(e, raw)
		if err != nil {
			e.ReportError(errs.Syntax, "%v", err)
			continue
		}
		e.EmitBytes([]byte(s))
	}
}

func (e *Engine) doFILL(line *program.Line) {
	args := e.args(line)
	if len(args) != 2 {
		e.ReportError(errs.Syntax, "FILL requires a fill byte and a count")
		return
	}
	fillVal := eval.Eval(e, args[0])
	countVal := eval.Eval(e, args[1])
	fill, err1 := eval.ToInt(fillVal)
	count, err2 := eval.ToInt(countVal)
	if err1 != nil || err2 != nil {
		e.ReportError(errs.Syntax, "FILL requires integer operands")
		return
	}
	buf := make([]byte, count)
	for i := range buf {
		buf[i] = byte(fill)
	}
	e.EmitBytes(buf)
}

func (e *Engine) doEQU(line *program.Line) { e.defineSymbol(line, false) }
func (e *Engine) doSET(line *program.Line) { e.defineSymbol(line, true) }

func (e *Engine) defineSymbol(line *program.Line, changeable bool) {
	if line.Label == nil {
		e.ReportError(errs.Syntax, "%s requires a label", line.Opcode)
		return
	}
	name, _ := eval.EvalString(e, line.Label)
	v, ok := e.evalArg(line, 0)
	if !ok {
		e.ReportError(errs.Syntax, "%s requires a value", line.Opcode)
		return
	}
	if err := e.Symbols.Set(name, v, changeable, e.pass); err != nil {
		if symtab.IsInconsistent(err) {
			e.ReportError(errs.Inconsistent, "%v", err)
		} else {
			e.ReportError(errs.Syntax, "%v", err)
		}
	}
}

func (e *Engine) doEXPORT(line *program.Line) {
	for _, raw := range e.args(line) {
		name, err := eval.EvalString(e, raw)
		if err != nil {
			e.ReportError(errs.Syntax, "%v", err)
			continue
		}
		e.exported = append(e.exported, name)
	}
}

func (e *Engine) doMACRONoop(*program.Line) {}

// doIFDEF/doIFNDEF probe symbol definedness without forcing a re-pass
// (the ignore-undefined flag of §4.7's last paragraph), then, if the
// condition fails, fast-forward the active context past the matching
// ELSE/ENDIF.
func (e *Engine) doIFDEF(line *program.Line) { e.doConditional(line, true) }
func (e *Engine) doIFNDEF(line *program.Line) { e.doConditional(line, false) }

func (e *Engine) doConditional(line *program.Line, wantDefined bool) {
	args := e.args(line)
	if len(args) != 1 {
		e.ReportError(errs.Syntax, "%s requires one symbol name", line.Opcode)
		return
	}
	name, err := eval.EvalString(e, args[0])
	if err != nil {
		e.ReportError(errs.Syntax, "%v", err)
		return
	}
	e.SetIgnoreUndefined(true)
	_, defined := e.Symbols.TryGet(name)
	e.SetIgnoreUndefined(false)

	take := defined == wantDefined
	if take {
		return
	}
	ctx := e.Contexts.Top()
	if ctx == nil {
		return
	}
	skipToElseOrEndif(ctx, true)
}

// doELSE is only reached when the preceding IFDEF/IFNDEF branch ran, so
// it skips the ELSE branch up to the matching ENDIF.
func (e *Engine) doELSE(*program.Line) {
	if ctx := e.Contexts.Top(); ctx != nil {
		skipToElseOrEndif(ctx, false)
	}
}

// skipToElseOrEndif advances ctx past lines until it finds ELSE (stop
// just after it, so the following lines run; only when stopAtElse) or
// ENDIF (stop just after it), honoring nested IFDEF/IFNDEF blocks.
func skipToElseOrEndif(ctx *program.Context, stopAtElse bool) {
	depth := 0
	for {
		l := ctx.Next()
		if l == nil {
			return
		}
		op := strings.ToUpper(l.Opcode)
		switch op {
		case "IFDEF", "IFNDEF":
			depth++
		case "ELSE":
			if depth == 0 && stopAtElse {
				return
			}
		case "ENDIF":
			if depth == 0 {
				return
			}
			depth--
		}
	}
}
