package parser

import (
	"os"
	"path/filepath"

	"six09asm/errs"
	"six09asm/program"
)

// ParseFile reads filePath and parses it into set as a new file Program,
// registering any MACRO definitions it contains into the same set and
// splicing any INCLUDE targets in place. Returns the list of diagnostics
// raised while lexing/parsing (syntax errors only; semantic errors are
// the engine's job during assembly).
func ParseFile(filePath string, set *program.Set) (*program.Program, *errs.List, error) {
	content, err := os.ReadFile(filePath) // #nosec G304 -- user-provided assembly file path
	if err != nil {
		return nil, nil, err
	}
	filename := filepath.Base(filePath)
	prog := set.File(filename)

	p := NewFileParser(string(content), filename, set, filepath.Dir(filePath))
	if err := p.parseInto(prog); err != nil {
		return prog, p.Errors(), err
	}
	return prog, p.Errors(), nil
}
