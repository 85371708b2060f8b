// Package parser turns 6809/6309 assembly source text into the
// program.Program/program.Line trees the engine assembles. It is
// line-oriented and column-sensitive in the traditional assembler style:
// a label starts in column 1, everything else is indented.
//
// Grounded on the teacher's parser/parser.go token-stream recursive
// descent design, adapted from ARM's instruction/operand grammar to
// 6809/6309 addressing syntax, and on original_source/src/lex.c and
// original_source/src/parse.c for literal prefixes and directive/operand
// shapes.
package parser

import (
	"os"
	"path/filepath"
	"strings"

	"six09asm/errs"
	"six09asm/program"
	"six09asm/value"
)

// Parser consumes a token stream and builds one program.Program.
type Parser struct {
	filename string
	tokens   []Token
	pos      int
	cur      Token
	peek     Token
	errs     *errs.List

	macroSet     *program.Set // where MACRO definitions register; nil disables MACRO/INCLUDE
	baseDir      string       // directory INCLUDE paths are resolved against
	includeDepth int          // nesting depth of the current INCLUDE chain

	sourceLines []string // input split on '\n', for rawLine lookups (1-based via Pos.Line)

	immediate bool // set by parseOperandList when it consumes a leading '#'
}

// NewParser builds a parser with no macro table or include base directory
// (suitable for parsing a single self-contained fragment, e.g. in tests).
// Use NewFileParser for a real source file that may define macros or
// INCLUDE other files.
func NewParser(input, filename string) *Parser {
	lexer := NewLexer(input, filename)
	p := &Parser{filename: filename, errs: &errs.List{}}
	p.sourceLines = strings.Split(input, "\n")
	p.tokens = lexer.TokenizeAll()
	for _, e := range lexer.Errors().Items() {
		p.errs.Add(e)
	}
	p.next()
	p.next()
	return p
}

// NewFileParser builds a parser for a real source file: MACRO definitions
// register into set, and INCLUDE paths resolve relative to baseDir.
func NewFileParser(input, filename string, set *program.Set, baseDir string) *Parser {
	p := NewParser(input, filename)
	p.macroSet = set
	p.baseDir = baseDir
	return p
}

func (p *Parser) Errors() *errs.List { return p.errs }

func (p *Parser) next() {
	p.cur = p.peek
	if p.pos < len(p.tokens) {
		p.peek = p.tokens[p.pos]
		p.pos++
	} else {
		p.peek = Token{Type: TokenEOF, Pos: p.cur.Pos}
	}
}

func (p *Parser) expect(t TokenType, msg string) bool {
	if p.cur.Type == t {
		p.next()
		return true
	}
	p.err(p.cur.Pos, "%s (got %s)", msg, p.cur.Type)
	return false
}

func (p *Parser) atLineEnd() bool {
	return p.cur.Type == TokenEOF || p.cur.Type == TokenNewline || p.cur.Type == TokenComment
}

// Parse lexes and parses the whole input into prog, a KindFile program.
// INCLUDE directives are resolved eagerly by splicing the included file's
// lines in place, matching the traditional single-pass textual include.
func (p *Parser) Parse() (*program.Program, error) {
	prog := &program.Program{Kind: program.KindFile, Name: p.filename}
	if err := p.parseInto(prog); err != nil {
		return prog, err
	}
	return prog, nil
}

// parseInto appends this parser's lines (after macro-body extraction and
// INCLUDE splicing) onto prog.
func (p *Parser) parseInto(prog *program.Program) error {
	for {
		// skip blank/comment-only lines
		for p.cur.Type == TokenNewline || p.cur.Type == TokenComment {
			p.next()
		}
		if p.cur.Type == TokenEOF {
			break
		}
		line, err := p.parseLine()
		if err != nil {
			return err
		}
		if line == nil {
			continue
		}
		op := strings.ToUpper(line.Opcode)
		switch op {
		case "MACRO":
			if err := p.parseMacroDefinition(prog, line); err != nil {
				return err
			}
			continue
		case "INCLUDE":
			if err := p.spliceInclude(prog, line); err != nil {
				return err
			}
			continue
		}
		prog.Lines = append(prog.Lines, line)
	}
	return nil
}

// parseLine parses one logical source line: an optional label, an
// optional opcode, and its operands.
func (p *Parser) parseLine() (*program.Line, error) {
	startTok := p.cur
	var label *value.Value

	// Numeric local label definition: "5:"
	if p.cur.Type == TokenNumber && isAllDigits(p.cur.Literal) && p.peek.Type == TokenColon && !p.peek.LeadingSpace {
		n := 0
		for _, r := range p.cur.Literal {
			n = n*10 + int(r-'0')
		}
		label = value.Int(int64(n))
		p.next() // number
		p.next() // colon
	} else if p.cur.Type == TokenIdentifier && !p.cur.LeadingSpace {
		// A column-1 identifier is a label. It may or may not carry a
		// trailing colon.
		name := p.cur.Literal
		p.next()
		if p.cur.Type == TokenColon {
			p.next()
		}
		label = value.ID(value.String(name))
	}

	if p.atLineEnd() {
		p.skipToNewline()
		if label == nil {
			return nil, nil
		}
		return &program.Line{Label: label, LineNum: startTok.Pos.Line, Text: p.rawLine(startTok)}, nil
	}

	if p.cur.Type != TokenIdentifier {
		p.err(p.cur.Pos, "expected an opcode, got %s", p.cur.Type)
		p.skipToNewline()
		return &program.Line{Label: label, LineNum: startTok.Pos.Line, Text: p.rawLine(startTok)}, nil
	}
	opcode := p.cur.Literal
	p.next()

	p.immediate = false
	args := p.parseOperandList()

	line := &program.Line{
		Label:     label,
		Opcode:    opcode,
		Args:      args,
		Immediate: p.immediate,
		LineNum:   startTok.Pos.Line,
		Text:      p.rawLine(startTok),
	}
	p.skipToNewline()
	return line, nil
}

func (p *Parser) skipToNewline() {
	for p.cur.Type != TokenNewline && p.cur.Type != TokenEOF {
		p.next()
	}
	if p.cur.Type == TokenNewline {
		p.next()
	}
}

// rawLine returns the original source text of start's line, trimmed of
// a trailing carriage return (for CRLF input), for listings and the
// EXPORT symbol-export format to reproduce verbatim.
func (p *Parser) rawLine(start Token) string {
	idx := start.Pos.Line - 1
	if idx < 0 || idx >= len(p.sourceLines) {
		return ""
	}
	return strings.TrimSuffix(p.sourceLines[idx], "\r")
}

// parseOperandList parses zero or more comma-separated operand units. A
// leading '#' marks the whole instruction as using immediate addressing
// (recorded via p.immediate) and is not itself a value-tree node.
func (p *Parser) parseOperandList() *value.Value {
	if p.atLineEnd() {
		return value.Array()
	}
	if p.cur.Type == TokenHash {
		p.immediate = true
		p.next()
	}

	var items []*value.Value
	for {
		items = append(items, p.parseOperandUnit()...)
		if p.cur.Type == TokenComma {
			p.next()
			continue
		}
		break
	}
	return value.Array(items...)
}

// parseOperandUnit parses one comma-delimited operand slot, returning
// one item for a plain value/register and two items (offset, index term)
// for indexed addressing, per the encoder's argument-shape contract
// (six09asm/encoder's FamAddress/Indexed dispatch).
func (p *Parser) parseOperandUnit() []*value.Value {
	if p.cur.Type == TokenLBracket {
		return p.parseBracketUnit()
	}

	// ",X" / ",X+" with no offset expression at all.
	if p.cur.Type == TokenComma {
		p.next()
		reg := p.parseRegisterTerm()
		return []*value.Value{value.Int(0), reg}
	}

	expr := p.parseSizedExpr()
	if p.cur.Type == TokenComma && p.commaIntroducesRegisterTerm() {
		p.next()
		reg := p.parseRegisterTerm()
		return []*value.Value{expr, reg}
	}
	return []*value.Value{expr}
}

// commaIntroducesRegisterTerm reports whether the token just past the
// current comma starts a register term (a bare index register, or a
// pre-decrement `-`/`--` prefix before one). It disambiguates the single
// "offset,REG" indexed/pair shape from an ordinary multi-operand comma
// list (FCB lists, BAND's reg/bit/bit/addr, FILL's byte/count, ...)
// where the token after a comma is not a register at all.
func (p *Parser) commaIntroducesRegisterTerm() bool {
	if p.peek.Type == TokenIdentifier {
		_, ok := lookupRegister(p.peek.Literal)
		return ok
	}
	return p.peek.Type == TokenMinus
}

// parseBracketUnit parses "[...]": either pure extended-indirect
// "[addr]" (one item, wrapped) or indexed indirect "[offset,REG]" /
// "[,REG]" (two items, with the register term itself wrapped to signal
// indirection).
func (p *Parser) parseBracketUnit() []*value.Value {
	p.next() // consume '['

	var offset *value.Value
	if p.cur.Type == TokenComma {
		offset = value.Int(0)
	} else {
		offset = p.parseSizedExpr()
	}

	if p.cur.Type == TokenComma {
		p.next()
		reg := p.parseRegisterTerm()
		p.expect(TokenRBracket, "expected ']'")
		return []*value.Value{offset, value.Array(reg)}
	}

	p.expect(TokenRBracket, "expected ']'")
	return []*value.Value{value.Array(offset)}
}

// parseRegisterTerm parses an index register, optionally wrapped in a
// leading predecrement (-R, --R) or trailing postincrement (R+, R++).
func (p *Parser) parseRegisterTerm() *value.Value {
	attr := value.AttrNone
	if p.cur.Type == TokenMinus {
		p.next()
		attr = value.AttrPreDec
		if p.cur.Type == TokenMinus {
			p.next()
			attr = value.AttrPreDec2
		}
	}

	if p.cur.Type != TokenIdentifier {
		p.err(p.cur.Pos, "expected a register name")
		return value.Register(value.RegNone)
	}
	reg, ok := lookupRegister(p.cur.Literal)
	if !ok {
		p.err(p.cur.Pos, "%q is not a valid index register", p.cur.Literal)
		reg = value.RegNone
	}
	p.next()

	if attr == value.AttrNone && p.cur.Type == TokenPlus {
		p.next()
		attr = value.AttrPostInc
		if p.cur.Type == TokenPlus {
			p.next()
			attr = value.AttrPostInc2
		}
	}
	return value.WithAttr(value.Register(reg), attr)
}

// parseSizedExpr parses an optional leading `<`/`>` size-forcing prefix
// (§4.1/§4.6) followed by a full expression.
func (p *Parser) parseSizedExpr() *value.Value {
	switch p.cur.Type {
	case TokenLess:
		p.next()
		return value.WithAttr(p.parseExpr(), value.Attr8Bit)
	case TokenGreater:
		p.next()
		return value.WithAttr(p.parseExpr(), value.Attr16Bit)
	default:
		return p.parseExpr()
	}
}

// parseMacroDefinition consumes a "name MACRO p1,p2,..." header line plus
// every following line up to the matching ENDM, registering the result as
// a KindMacro program in prog's enclosing set. The macro body's lines are
// parsed the same way any other line is; parameter references appear in
// their bodies as \1, \2, ... (TokenInterp), resolved by the engine's
// positional-argument stack at expansion time rather than by textual
// substitution here.
func (p *Parser) parseMacroDefinition(prog *program.Program, header *program.Line) error {
	if header.Label == nil {
		p.err(errs.Position{Filename: p.filename, Line: header.LineNum}, "MACRO requires a name label")
	}
	var name string
	if header.Label != nil {
		name, _ = labelText(header.Label)
	}
	macro := &program.Program{Kind: program.KindMacro, Name: name}

	depth := 1
	for {
		for p.cur.Type == TokenNewline || p.cur.Type == TokenComment {
			p.next()
		}
		if p.cur.Type == TokenEOF {
			p.err(p.cur.Pos, "MACRO %q has no matching ENDM", name)
			break
		}
		line, err := p.parseLine()
		if err != nil {
			return err
		}
		if line == nil {
			continue
		}
		op := strings.ToUpper(line.Opcode)
		if op == "MACRO" {
			depth++
		}
		if op == "ENDM" {
			depth--
			if depth == 0 {
				break
			}
		}
		macro.Lines = append(macro.Lines, line)
	}

	if p.macroSet == nil {
		p.err(errs.Position{Filename: p.filename, Line: header.LineNum}, "MACRO is not supported in this context")
		return nil
	}
	params := make([]string, len(flattenArray(header.Args)))
	registered, err := p.macroSet.NewMacro(name, params)
	if err != nil {
		p.err(errs.Position{Filename: p.filename, Line: header.LineNum}, "%v", err)
		return nil
	}
	registered.Lines = macro.Lines
	return nil
}

func labelText(v *value.Value) (string, bool) {
	if v == nil {
		return "", false
	}
	if v.Kind == value.KindID && len(v.Kids) == 1 && v.Kids[0].Kind == value.KindString {
		return v.Kids[0].Str, true
	}
	return "", false
}

// spliceInclude reads the named file relative to baseDir and parses its
// lines directly into prog, matching the traditional single-pass
// textual-include model (no separate compilation unit, no macro-scope
// boundary).
func (p *Parser) spliceInclude(prog *program.Program, line *program.Line) error {
	args := flattenArray(line.Args)
	if len(args) != 1 || args[0].Kind != value.KindString {
		p.err(errs.Position{Filename: p.filename, Line: line.LineNum}, "INCLUDE requires a single string filename")
		return nil
	}
	if p.includeDepth >= MaxIncludeDepth {
		p.err(errs.Position{Filename: p.filename, Line: line.LineNum}, "INCLUDE nesting too deep (> %d), possible circular include", MaxIncludeDepth)
		return nil
	}
	path := args[0].Str
	if p.baseDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(p.baseDir, path)
	}
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided assembly source path
	if err != nil {
		p.err(errs.Position{Filename: p.filename, Line: line.LineNum}, "cannot open include file %q: %v", path, err)
		return nil
	}
	sub := NewFileParser(string(content), filepath.Base(path), p.macroSet, filepath.Dir(path))
	sub.includeDepth = p.includeDepth + 1
	if err := sub.parseInto(prog); err != nil {
		return err
	}
	for _, e := range sub.errs.Items() {
		p.errs.Add(e)
	}
	return nil
}

func flattenArray(v *value.Value) []*value.Value {
	if v == nil || v.Kind != value.KindArray {
		return nil
	}
	return v.Kids
}
