package engine

import (
	"io"

	"six09asm/errs"
	"six09asm/program"
)

// WriteExports renders every name passed to EXPORT as either a macro
// body or a symbol definition, via program.WriteExports. Each name is
// deduplicated and rendered once; program.WriteExports writes the macros
// first, then the symbols, each group sorted by name.
func (e *Engine) WriteExports(w io.Writer) error {
	seen := make(map[string]bool, len(e.exported))
	var macros []*program.Program
	var symbols []program.SymbolExport

	for _, name := range e.exported {
		if seen[name] {
			continue
		}
		seen[name] = true

		if macro, ok := e.Programs.Macro(name); ok {
			macros = append(macros, macro)
			continue
		}
		if v, ok := e.Symbols.TryGet(name); ok {
			symbols = append(symbols, program.SymbolExport{Name: name, Val: v})
			continue
		}
		e.ReportError(errs.Warning, "EXPORT of undefined name '%s'", name)
	}

	return program.WriteExports(w, macros, symbols)
}
