package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose = "verbose"
	FlagConfig  = "config"
	FlagLogFile = "log-file"

	// View command flags
	FlagTUI   = "tui"
	FlagWatch = "watch"

	// Apply command flags
	FlagNode    = "node"
	FlagSubnode = "subnode"
	FlagAmount  = "amount"
	FlagPercent = "percent"
	FlagStep    = "step"

	// Export command flags
	FlagOutput    = "output"
	FlagFormat    = "format"
	FlagTitle     = "title"
	FlagHighlight = "highlight"

	// Chat command flags
	FlagBaseURL = "base-url"
	FlagThread  = "thread"
	FlagModel   = "model"

	// Output format flags
	FlagJSON = "json"

	// Init command flags
	FlagDryRun  = "dry-run"
	FlagForce   = "force"
	FlagMinimal = "minimal"
	FlagGlobal  = "global"
)
