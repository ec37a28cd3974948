package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/moniker"
	"github.com/jward/moniker/internal/config"
)

var (
	flagStrategy     string
	flagOffset       int
	flagRoot         string
	flagNamingScript string
)

var atCmd = &cobra.Command{
	Use:   "at <file> [<line> <col>]",
	Short: "Print the moniker of the symbol at a position",
	Long:  "Resolves the symbol at <line> <col> (1-based, columns in bytes) or at --offset and prints its moniker.",
	Args:  cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := runAt(args)
		if err != nil {
			return outputError("at", err)
		}
		return outputResult(CLIResult{Command: "at", Results: results})
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the monikers of every resolved symbol in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := runSymbols(args[0])
		if err != nil {
			return outputError("symbols", err)
		}
		return outputResult(CLIResult{Command: "symbols", Results: results})
	},
}

func init() {
	for _, c := range []*cobra.Command{atCmd, symbolsCmd} {
		c.Flags().StringVar(&flagStrategy, "strategy", "", "moniker strategy: export-path|hash|all (default: from config)")
		c.Flags().StringVar(&flagRoot, "root", "", "directory file scopes are named relative to (default: root_dir from config)")
		c.Flags().StringVar(&flagNamingScript, "naming-script", "", "Risor file-scope naming script, or embedded:<name>")
	}
	atCmd.Flags().IntVar(&flagOffset, "offset", -1, "byte offset instead of <line> <col>")
}

// openProgram opens the index and loads the resolved program.
func openProgram() (*moniker.Program, func(), error) {
	dbPath := resolveDBPath(repoRoot)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("database not found: %s (run 'moniker index' first)", dbPath)
	}

	namingScript := cfg.NamingScript
	if flagNamingScript != "" {
		namingScript = flagNamingScript
	}
	engine, err := moniker.New(dbPath, engineOptions(namingScript, nil, false)...)
	if err != nil {
		return nil, nil, err
	}
	if engine.NeedsReindex() {
		engine.Close()
		return nil, nil, fmt.Errorf("index %s is out of date (run 'moniker index')", dbPath)
	}
	p, err := engine.Program(resolveRootDir(flagRoot))
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return p, func() { engine.Close() }, nil
}

// selectedStrategies returns the strategies named by --strategy or the config.
func selectedStrategies(p *moniker.Program) ([]moniker.Strategy, error) {
	name := cfg.Strategy
	if flagStrategy != "" {
		name = flagStrategy
	}
	names := []string{name}
	if name == config.StrategyAll {
		names = []string{moniker.StrategyExportPath, moniker.StrategyHash}
	}
	var out []moniker.Strategy
	for _, n := range names {
		s, err := p.Strategy(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func runAt(args []string) ([]CLIMoniker, error) {
	file, src, err := readSourceArg(args[0])
	if err != nil {
		return nil, err
	}
	offset := flagOffset
	switch {
	case offset >= 0 && len(args) == 1:
	case offset < 0 && len(args) == 3:
		line, err := parseIntArg(args[1], "line")
		if err != nil {
			return nil, err
		}
		col, err := parseIntArg(args[2], "col")
		if err != nil {
			return nil, err
		}
		if offset, err = moniker.OffsetFor(file, line, col); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("requires either <line> <col> arguments or --offset")
	}

	p, closeFn, err := openProgram()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	strategies, err := selectedStrategies(p)
	if err != nil {
		return nil, err
	}

	results := []CLIMoniker{}
	for _, s := range strategies {
		if m, ok := p.MonikerAt(file, offset, s); ok {
			results = append(results, toCLIMoniker(src, m))
		}
	}
	return results, nil
}

func runSymbols(arg string) ([]CLIMoniker, error) {
	file, src, err := readSourceArg(arg)
	if err != nil {
		return nil, err
	}
	p, closeFn, err := openProgram()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	strategies, err := selectedStrategies(p)
	if err != nil {
		return nil, err
	}

	results := []CLIMoniker{}
	for _, s := range strategies {
		for _, m := range p.MonikersInFile(file, s) {
			results = append(results, toCLIMoniker(src, m))
		}
	}
	return results, nil
}

func toCLIMoniker(src []byte, m moniker.SymbolMoniker) CLIMoniker {
	line, col := lineCol(src, m.Start)
	return CLIMoniker{
		File:     m.File,
		Line:     line,
		Col:      col,
		Start:    m.Start,
		End:      m.End,
		SymbolID: int64(m.Symbol),
		Name:     m.Name,
		Strategy: m.Strategy,
		Moniker:  m.Moniker,
	}
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(src []byte, offset int) (int, int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line := bytes.Count(before, []byte{'\n'}) + 1
	col := offset - (bytes.LastIndexByte(before, '\n') + 1) + 1
	return line, col
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// readSourceArg resolves a file argument and reads its contents, which
// line and column reporting needs.
func readSourceArg(arg string) (string, []byte, error) {
	file, err := resolveFilePath(arg)
	if err != nil {
		return "", nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", file, err)
	}
	return file, src, nil
}

// parseIntArg parses a positional argument as a positive integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be 1 or greater", name, value)
	}
	return n, nil
}
