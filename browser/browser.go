// Package browser implements the `--browse` interactive post-assembly
// viewer: a read-only terminal UI over the finished listing, symbol
// table, and section map.
//
// Grounded on the teacher's debugger/tui.go Flex/Pages layout and
// TextView panel style, adapted from live-register/memory panels (there
// is no VM in this repository's scope, per SPEC_FULL.md's Non-goals) to
// static views over an already-assembled program.
package browser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"six09asm/engine"
	"six09asm/section"
)

// Browser is the text user interface shown after a successful assembly
// when `--browse` is given.
type Browser struct {
	App   *tview.Application
	Pages *tview.Pages

	MainLayout  *tview.Flex
	ListingView *tview.TextView
	SymbolsView *tview.Table
	SectionsView *tview.TextView

	eng *engine.Engine
}

// New builds a Browser over the finished assembly: listingText is the
// rendered listing.Writer output, spans the coalesced section map.
func New(eng *engine.Engine, listingText string, spans []*section.Span) *Browser {
	b := &Browser{
		App: tview.NewApplication(),
		eng: eng,
	}

	b.initializeViews(listingText, spans)
	b.buildLayout()
	b.setupKeyBindings()

	return b
}

func (b *Browser) initializeViews(listingText string, spans []*section.Span) {
	b.ListingView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	b.ListingView.SetBorder(true).SetTitle(" Listing ")
	fmt.Fprint(b.ListingView, listingText)

	b.SymbolsView = tview.NewTable().
		SetFixed(1, 0).
		SetSelectable(true, false)
	b.SymbolsView.SetBorder(true).SetTitle(" Symbols (/ to filter) ")
	b.populateSymbols("")

	b.SectionsView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	b.SectionsView.SetBorder(true).SetTitle(" Sections ")
	fmt.Fprint(b.SectionsView, renderSections(spans))
}

func (b *Browser) populateSymbols(filter string) {
	b.SymbolsView.Clear()
	b.SymbolsView.SetCell(0, 0, tview.NewTableCell("NAME").SetSelectable(false).SetTextColor(tcell.ColorYellow))
	b.SymbolsView.SetCell(0, 1, tview.NewTableCell("VALUE").SetSelectable(false).SetTextColor(tcell.ColorYellow))

	names := b.eng.Symbols.Names()
	sort.Strings(names)

	row := 1
	for _, name := range names {
		if filter != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(filter)) {
			continue
		}
		v, ok := b.eng.Symbols.TryGet(name)
		if !ok {
			continue
		}
		b.SymbolsView.SetCell(row, 0, tview.NewTableCell(name))
		b.SymbolsView.SetCell(row, 1, tview.NewTableCell(v.String()))
		row++
	}
}

func renderSections(spans []*section.Span) string {
	var b strings.Builder
	for _, s := range spans {
		fmt.Fprintf(&b, "org=$%04X put=$%04X size=%d\n", s.Org, s.Put, len(s.Data))
	}
	if b.Len() == 0 {
		return "(no output)\n"
	}
	return b.String()
}

func (b *Browser) buildLayout() {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.SymbolsView, 0, 2, false).
		AddItem(b.SectionsView, 0, 1, false)

	b.MainLayout = tview.NewFlex().
		AddItem(b.ListingView, 0, 2, true).
		AddItem(right, 0, 1, false)

	b.Pages = tview.NewPages().AddPage("main", b.MainLayout, true, true)
	b.App.SetRoot(b.Pages, true)
}

func (b *Browser) setupKeyBindings() {
	var filterField *tview.InputField

	b.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			b.cycleFocus()
			return nil
		case tcell.KeyEscape:
			if filterField != nil {
				b.App.SetFocus(b.MainLayout)
				filterField = nil
				return nil
			}
		}
		switch event.Rune() {
		case 'q':
			b.App.Stop()
			return nil
		case '/':
			filterField = tview.NewInputField().SetLabel("filter: ")
			filterField.SetChangedFunc(func(text string) { b.populateSymbols(text) })
			filterField.SetDoneFunc(func(tcell.Key) { b.App.SetFocus(b.SymbolsView) })
			b.Pages.AddPage("filter", center(filterField, 60, 3), true, true)
			b.App.SetFocus(filterField)
			return nil
		}
		return event
	})
}

func (b *Browser) cycleFocus() {
	switch b.App.GetFocus() {
	case b.ListingView:
		b.App.SetFocus(b.SymbolsView)
	case b.SymbolsView:
		b.App.SetFocus(b.SectionsView)
	default:
		b.App.SetFocus(b.ListingView)
	}
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// Run blocks until the user quits the browser.
func (b *Browser) Run() error {
	return b.App.SetFocus(b.ListingView).Run()
}
