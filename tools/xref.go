// Package tools implements post-assembly analysis: a symbol
// cross-reference report and a lint pass over unused symbols/macros.
//
// Grounded on the teacher's tools/xref.go Symbol/Reference model,
// adapted from ARM instruction references to this assembler's
// symtab.Table definition/use tracking.
package tools

import (
	"fmt"
	"sort"
	"strings"

	"six09asm/engine"
	"six09asm/symtab"
)

// XrefEntry is one symbol's final value plus every use site.
type XrefEntry struct {
	Name  string
	Value string
	Uses  []symtab.Position
}

// Xref builds a cross-reference report for every defined symbol in eng,
// sorted by name.
func Xref(eng *engine.Engine) []*XrefEntry {
	names := eng.Symbols.Names()
	sort.Strings(names)

	out := make([]*XrefEntry, 0, len(names))
	for _, name := range names {
		v, _ := eng.Symbols.TryGet(name)
		out = append(out, &XrefEntry{
			Name:  name,
			Value: v.String(),
			Uses:  eng.Symbols.Uses(name),
		})
	}
	return out
}

// FormatXref renders a report in the teacher's "name: value" plus indented
// use-site list format (tools/xref.go's PrintReport style).
func FormatXref(entries []*XrefEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%-24s %s\n", e.Name, e.Value)
		if len(e.Uses) == 0 {
			b.WriteString("    (never referenced)\n")
			continue
		}
		for _, u := range e.Uses {
			fmt.Fprintf(&b, "    %s:%d\n", u.Filename, u.Line)
		}
	}
	return b.String()
}
