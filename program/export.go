package program

import (
	"fmt"
	"io"
	"sort"

	"six09asm/value"
)

// SymbolExport is one exported global symbol: its name and final value.
type SymbolExport struct {
	Name string
	Val  *value.Value
}

// WriteExports writes the exported-symbols file described in §6: each
// exported macro as `name\tmacro\n<body>\n\tendm\n`, each exported symbol
// as `name\tequ\t<value>\n`, with string values delimited by `/`.
// Grounded on original_source/src/program.c's prog_print_exports.
func WriteExports(w io.Writer, macros []*Program, symbols []SymbolExport) error {
	sort.Slice(macros, func(i, j int) bool { return macros[i].Name < macros[j].Name })
	for _, m := range macros {
		if _, err := fmt.Fprintf(w, "%s\tmacro\n", m.Name); err != nil {
			return err
		}
		for _, l := range m.Lines {
			if _, err := fmt.Fprintf(w, "%s\n", l.Text); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "\tendm\n"); err != nil {
			return err
		}
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })
	for _, s := range symbols {
		if _, err := fmt.Fprintf(w, "%s\tequ\t%s\n", s.Name, formatExportValue(s.Val)); err != nil {
			return err
		}
	}
	return nil
}

func formatExportValue(v *value.Value) string {
	if v == nil {
		return "0"
	}
	switch v.Kind {
	case value.KindInt:
		return fmt.Sprintf("%d", v.Int)
	case value.KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case value.KindString:
		return "/" + v.Str + "/"
	default:
		return v.String()
	}
}
