package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"six09asm/browser"
	"six09asm/config"
	"six09asm/engine"
	"six09asm/errs"
	"six09asm/listing"
	"six09asm/output"
	"six09asm/parser"
	"six09asm/program"
	"six09asm/tools"
	"six09asm/value"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")

		binFmt   = flag.Bool("B", false, "Flat binary output (default)")
		dragon   = flag.Bool("D", false, "DragonDOS wrapped binary output")
		coco     = flag.Bool("C", false, "CoCo segmented binary output")
		srec     = flag.Bool("S", false, "Motorola S-record output")
		ihex     = flag.Bool("H", false, "Intel HEX output")
		execAddr = flag.String("e", "", "Execution address for formats that carry one")
		outFile  = flag.String("o", "", "Output filename")
		lstFile  = flag.String("l", "", "Listing filename")
		symFile  = flag.String("s", "", "Exported-symbols filename")

		configFile = flag.String("config", "", "Load a TOML config overriding built-in defaults")
		maxPasses  = flag.Int("max-passes", 0, "Override the maximum pass count (still capped at 10 unless raised)")
		browse     = flag.Bool("browse", false, "After a successful assembly, open the interactive listing/symbol browser")
		xrefFile   = flag.String("xref", "", "Write a symbol cross-reference report to this file")
		lint       = flag.Bool("lint", false, "Run a post-assembly lint pass (unused symbols/macros)")
		isa6309    = flag.Bool("6309", false, "Enable 6309-only mnemonics/registers")
		defines    multiFlag
	)
	// -D is already taken by DragonDOS output (matching the original asm6809
	// getopt string "BDCSHe:o:l:s:"), so the predefine convenience uses
	// its long name only.
	flag.Var(&defines, "define", "Predefine NAME=VALUE before assembly starts (repeatable)")

	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("six09asm %s (commit %s, built %s)\n", Version, Commit, Date)
		return
	}
	if *showHelp || flag.NArg() == 0 {
		printUsage()
		if flag.NArg() == 0 && !*showHelp {
			os.Exit(1)
		}
		return
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadFrom(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	format, err := resolveFormat(*binFmt, *dragon, *coco, *srec, *ihex, cfg.Output.DefaultFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	engCfg := engine.Config{
		MaxPasses:     cfg.Assemble.MaxPasses,
		MaxMacroDepth: cfg.Assemble.MaxMacroDepth,
		ISA6309:       cfg.Assemble.ISA6309 || *isa6309,
	}
	if *maxPasses > 0 {
		engCfg.MaxPasses = *maxPasses
	}
	eng := engine.New(engCfg)

	if err := predefineSymbols(eng, defines); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sources, err := parseSources(flag.Args(), eng.Programs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := eng.RunPasses(sources); err != nil {
		printErrors(eng.Errors.Items())
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// A syntax error anywhere is a failed run even if the pass driver
	// otherwise converged, per §7/§8.
	if eng.Errors.Failed() {
		printErrors(eng.Errors.Items())
		os.Exit(1)
	}

	spans, warnings := eng.Sections.CoalesceAll(output.RequiresPadding(format))
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	exec, err := resolveExecAddr(*execAddr, eng)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	bytes, err := output.Write(format, spans, exec)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	outPath := *outFile
	if outPath == "" {
		outPath = defaultOutputName(flag.Args()[0], format)
	}
	if err := os.WriteFile(outPath, bytes, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}

	var listingText string
	if *lstFile != "" || *browse {
		eng.EnableListing()
		if err := eng.RunListingPass(sources); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		listingText = renderListing(eng)
		if *lstFile != "" {
			if err := os.WriteFile(*lstFile, []byte(listingText), 0644); err != nil {
				fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *lstFile, err)
				os.Exit(1)
			}
		}
	}

	if *symFile != "" {
		f, err := os.Create(*symFile) // #nosec G304 -- user-specified output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating %s: %v\n", *symFile, err)
			os.Exit(1)
		}
		if err := eng.WriteExports(f); err != nil {
			f.Close()
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *symFile, err)
			os.Exit(1)
		}
		f.Close()
	}

	if *xrefFile != "" {
		report := tools.FormatXref(tools.Xref(eng))
		if err := os.WriteFile(*xrefFile, []byte(report), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", *xrefFile, err)
			os.Exit(1)
		}
	}

	if *lint {
		for _, issue := range tools.Lint(eng) {
			fmt.Fprintln(os.Stderr, issue.String())
		}
	}

	if *browse {
		b := browser.New(eng, listingText, spans)
		if err := b.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// multiFlag accumulates repeated -define NAME=VALUE flags.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// predefineSymbols implements --define NAME=VALUE: each value is parsed
// the same way an exec address is (hex/octal/binary/decimal prefixes,
// else treated as a bare string), and bound into the symbol table
// before assembly starts, at pass 0 so it behaves like any other
// pass-0-defined EQU.
func predefineSymbols(eng *engine.Engine, defines []string) error {
	for _, d := range defines {
		name, raw, ok := strings.Cut(d, "=")
		if !ok {
			return fmt.Errorf("-define %q: expected NAME=VALUE", d)
		}
		var v *value.Value
		if n, err := parseNumericLiteral(raw); err == nil {
			v = value.Int(n)
		} else {
			v = value.String(raw)
		}
		if err := eng.Symbols.Set(name, v, false, 0); err != nil {
			return fmt.Errorf("-define %q: %w", d, err)
		}
	}
	return nil
}

func parseNumericLiteral(s string) (int64, error) {
	switch {
	case strings.HasPrefix(s, "$"):
		return strconv.ParseInt(s[1:], 16, 64)
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		return strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		return strconv.ParseInt(s[2:], 2, 64)
	case strings.HasPrefix(s, "%"):
		return strconv.ParseInt(s[1:], 2, 64)
	case strings.HasPrefix(s, "@"):
		return strconv.ParseInt(s[1:], 8, 64)
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}

// resolveExecAddr parses the -e flag per §6: a numeric literal in any of
// the assembler's prefixes, or a symbol name looked up in the (by now
// converged) global table.
func resolveExecAddr(s string, eng *engine.Engine) (output.ExecAddr, error) {
	if s == "" {
		return output.ExecAddr{}, nil
	}
	if n, err := parseNumericLiteral(s); err == nil {
		return output.ExecAddr{Value: n, Set: true}, nil
	}
	v, ok := eng.Symbols.TryGet(s)
	if !ok || v.Kind != value.KindInt {
		return output.ExecAddr{}, fmt.Errorf("cannot resolve exec address %q", s)
	}
	return output.ExecAddr{Value: v.Int, Set: true}, nil
}

// resolveFormat applies the mutually-exclusive -B/-D/-C/-S/-H flags,
// falling back to the config file's default when none are given.
func resolveFormat(bin, dragon, coco, srec, ihex bool, configDefault string) (output.Format, error) {
	set := 0
	var chosen output.Format
	check := func(b bool, f output.Format) {
		if b {
			set++
			chosen = f
		}
	}
	check(bin, output.Binary)
	check(dragon, output.DragonDOS)
	check(coco, output.CoCo)
	check(srec, output.SRecord)
	check(ihex, output.IntelHex)

	if set > 1 {
		return 0, fmt.Errorf("only one of -B/-D/-C/-S/-H may be given")
	}
	if set == 1 {
		return chosen, nil
	}

	switch configDefault {
	case "", "bin", "binary":
		return output.Binary, nil
	case "dragondos":
		return output.DragonDOS, nil
	case "coco":
		return output.CoCo, nil
	case "srec":
		return output.SRecord, nil
	case "hex":
		return output.IntelHex, nil
	default:
		return 0, fmt.Errorf("unknown default_format %q in config", configDefault)
	}
}

func defaultOutputName(srcPath string, format output.Format) string {
	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	switch format {
	case output.SRecord:
		return base + ".s19"
	case output.IntelHex:
		return base + ".hex"
	default:
		return base + ".bin"
	}
}

// parseSources parses every source file into a shared program.Set (the
// engine's own) so MACRO definitions and INCLUDE targets are visible
// across files, and builds the engine.Source list RunPasses expects.
func parseSources(paths []string, set *program.Set) ([]engine.Source, error) {
	var sources []engine.Source
	var allErrs []*errs.Error

	for _, path := range paths {
		prog, diags, err := parser.ParseFile(path, set)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if diags != nil {
			allErrs = append(allErrs, diags.Items()...)
		}
		sources = append(sources, engine.Source{Filename: filepath.Base(path), Prog: prog})
	}

	if len(allErrs) > 0 {
		printErrors(allErrs)
		worst := errs.Warning
		for _, e := range allErrs {
			if e.Severity > worst {
				worst = e.Severity
			}
		}
		if worst >= errs.Syntax {
			return sources, fmt.Errorf("syntax errors in source")
		}
	}

	return sources, nil
}

func printErrors(list []*errs.Error) {
	for _, e := range list {
		fmt.Fprintln(os.Stderr, e.Error())
	}
}

// renderListing renders the captured per-line listing entries through
// listing.Writer.
func renderListing(eng *engine.Engine) string {
	w := listing.New()
	for _, e := range eng.Listing {
		w.Add(listing.Line{
			LineNum: e.LineNum,
			Addr:    e.Addr,
			HasAddr: e.HasAddr,
			Bytes:   e.Bytes,
			Source:  e.Source,
		})
	}
	var b strings.Builder
	_ = w.WriteTo(&b)
	return b.String()
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `six09asm %s - a 6809/6309 cross assembler

Usage: six09asm [OPTIONS]... SOURCE...

Output format (mutually exclusive, default -B):
  -B              flat binary output
  -D              DragonDOS wrapped binary
  -C              CoCo segmented binary
  -S              Motorola S-record
  -H              Intel HEX

  -e ADDR         execution address for formats that carry one
  -o FILE         output filename
  -l FILE         listing filename
  -s FILE         exported-symbols filename

  --config FILE       load a TOML config overriding built-in defaults
  --max-passes N      override the maximum pass count
  --browse            open the interactive listing/symbol browser after assembly
  --xref FILE         write a symbol cross-reference report
  --lint              run a post-assembly lint pass
  --define NAME=VALUE predefine a symbol before assembly starts (repeatable)
  -6309               enable 6309-only mnemonics/registers

  --version       show version information
  --help          show this help
`, Version)
}
