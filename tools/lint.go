package tools

import (
	"fmt"
	"sort"

	"six09asm/engine"
)

// LintLevel represents the severity of a lint finding.
type LintLevel int

const (
	LintWarning LintLevel = iota
	LintInfo
)

func (l LintLevel) String() string {
	switch l {
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue is a single finding.
type LintIssue struct {
	Level   LintLevel
	Name    string
	Message string
	Code    string // "UNUSED_SYMBOL", "UNUSED_MACRO"
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("%s: %s: %s [%s]", i.Level, i.Name, i.Message, i.Code)
}

// Lint runs a post-assembly lint pass over eng: symbols defined but
// never referenced, and macros defined but never expanded. Grounded on
// the teacher's tools/lint.go Linter.checkUnused, reusing
// symtab.Table's definition/use tracking (engine.Engine.Symbols) in
// place of ARM's label-reference scan.
func Lint(eng *engine.Engine) []*LintIssue {
	var issues []*LintIssue

	names := eng.Symbols.Names()
	sort.Strings(names)
	for _, name := range names {
		if len(eng.Symbols.Uses(name)) == 0 {
			issues = append(issues, &LintIssue{
				Level:   LintWarning,
				Name:    name,
				Message: "symbol defined but never referenced",
				Code:    "UNUSED_SYMBOL",
			})
		}
	}

	exported := make(map[string]bool, len(eng.Exported()))
	for _, name := range eng.Exported() {
		exported[name] = true
	}
	macroNames := eng.Programs.MacroNames()
	sort.Strings(macroNames)
	for _, name := range macroNames {
		if exported[name] {
			continue // exported macros are public API, not dead code
		}
		if len(eng.Symbols.Uses(name)) == 0 {
			issues = append(issues, &LintIssue{
				Level:   LintInfo,
				Name:    name,
				Message: "macro defined but never expanded",
				Code:    "UNUSED_MACRO",
			})
		}
	}

	return issues
}
