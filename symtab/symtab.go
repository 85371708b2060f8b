// Package symtab implements the global symbol store and the per-section
// numbered local-label tables of §4.4, grounded on
// original_source/src/symbol.c. Unlike the original, entries carry an
// explicit "changeable" flag so SET-defined symbols can be reassigned
// across passes without tripping the redefinition check that EQU-defined
// ones are subject to.
package symtab

import (
	"fmt"

	"six09asm/value"
)

type entry struct {
	pass       int
	val        *value.Value
	changeable bool
}

// Table is the global name -> value store.
type Table struct {
	syms map[string]*entry
	uses map[string][]Position
}

// Position locates a use site; duplicated from errs.Position rather than
// imported, keeping symtab free of a dependency on the diagnostics
// package (xref/lint tooling is the only consumer).
type Position struct {
	Filename string
	Line     int
}

func New() *Table { return &Table{syms: make(map[string]*entry), uses: make(map[string][]Position)} }

// Set defines or redefines name. Redefining a non-changeable symbol within
// the same pass is a syntax error. Redefining across passes with a
// different value is an inconsistency (forces another pass) unless the
// symbol is changeable.
func (t *Table) Set(name string, val *value.Value, changeable bool, pass int) error {
	old, has := t.syms[name]
	if has && old.pass == pass && !old.changeable {
		return fmt.Errorf("symbol '%s' redefined", name)
	}
	if has && !old.changeable && !value.Equal(old.val, val) {
		t.syms[name] = &entry{pass: pass, val: val, changeable: changeable}
		return &inconsistentErr{name: name}
	}
	t.syms[name] = &entry{pass: pass, val: val, changeable: changeable}
	return nil
}

type inconsistentErr struct{ name string }

func (e *inconsistentErr) Error() string { return fmt.Sprintf("value of '%s' unstable", e.name) }

// IsInconsistent reports whether err came from an unstable redefinition
// rather than a hard redefinition error.
func IsInconsistent(err error) bool {
	_, ok := err.(*inconsistentErr)
	return ok
}

// TryGet returns the stored value without raising an error when missing.
func (t *Table) TryGet(name string) (*value.Value, bool) {
	e, ok := t.syms[name]
	if !ok {
		return nil, false
	}
	return e.val, true
}

// Get returns the stored value, or ok=false if undefined (callers decide
// whether that's an error, per the ignore-undefined flag of §4.7).
func (t *Table) Get(name string) (*value.Value, bool) {
	return t.TryGet(name)
}

// RecordUse notes that name was referenced at pos, for xref/lint
// tooling. Safe to call on an undefined name (xref reports it anyway;
// lint's unused-symbol check only cares about defined names with zero
// uses).
func (t *Table) RecordUse(name string, pos Position) {
	t.uses[name] = append(t.uses[name], pos)
}

// Uses returns every recorded use site of name, in recording order.
func (t *Table) Uses(name string) []Position { return t.uses[name] }

// Names returns every defined symbol name, for export/xref/lint tooling.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.syms))
	for n := range t.syms {
		out = append(out, n)
	}
	return out
}

// Clear removes every symbol (used when starting a brand new run, not
// between passes - symbols persist across passes per §3's lifecycle).
func (t *Table) Clear() { t.syms = make(map[string]*entry) }

// --- local numbered labels -------------------------------------------------

type localEntry struct {
	line int
	val  *value.Value
}

// LocalTable is a per-section table of numbered local labels (the "N:"
// syntax), keyed by label number, each holding every definition line seen
// so backref/fwdref lookups can pick the nearest one relative to a query
// line. Grounded on symbol_local_backref/fwdref/set.
type LocalTable struct {
	labels map[int][]localEntry
}

func NewLocalTable() *LocalTable { return &LocalTable{labels: make(map[int][]localEntry)} }

// Set records/updates the definition of label num at line, detecting
// cross-pass instability the same way the global table does.
func (lt *LocalTable) Set(num, line int, val *value.Value) error {
	list := lt.labels[num]
	for i, e := range list {
		if e.line == line {
			if !value.Equal(e.val, val) {
				list[i] = localEntry{line: line, val: val}
				lt.labels[num] = list
				return &inconsistentErr{name: fmt.Sprintf("%d", num)}
			}
			list[i] = localEntry{line: line, val: val}
			lt.labels[num] = list
			return nil
		}
	}
	lt.labels[num] = append(list, localEntry{line: line, val: val})
	return nil
}

// Backref returns the definition of num with the largest line <= query.
func (lt *LocalTable) Backref(num, line int) (*value.Value, bool) {
	var best *localEntry
	for i, e := range lt.labels[num] {
		if e.line <= line && (best == nil || e.line > best.line) {
			best = &lt.labels[num][i]
		}
	}
	if best == nil {
		return nil, false
	}
	return best.val, true
}

// Fwdref returns the definition of num with the smallest line > query.
func (lt *LocalTable) Fwdref(num, line int) (*value.Value, bool) {
	var best *localEntry
	for i, e := range lt.labels[num] {
		if e.line > line && (best == nil || e.line < best.line) {
			best = &lt.labels[num][i]
		}
	}
	if best == nil {
		return nil, false
	}
	return best.val, true
}
