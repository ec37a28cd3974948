package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIMoniker is a JSON-friendly moniker of one symbol span. Line and Col
// are 1-based.
type CLIMoniker struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	SymbolID int64  `json:"symbol_id"`
	Name     string `json:"name"`
	Strategy string `json:"strategy"`
	Moniker  string `json:"moniker"`
}
