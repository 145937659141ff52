// Command devlog inspects and manages the logs described by a configuration
// file.
//
// Usage:
//
//	devlog <command> [flags]
//
// Commands:
//
//	list     List configured logs
//	dump     Print log entries in human-readable format
//	export   Export log entries as JSON Lines, CSV or CBOR
//	stats    Show statistics about log entries
//	flush    Erase all entries of a log
//	append   Append an entry to a log
//	view     View a CBOR log file
//	shell    Start the interactive shell
//	metrics  Serve Prometheus metrics
//	version  Print the devlog version
//
// Examples:
//
//	# Append to the persistent boot log
//	devlog -c devlog.yaml append boot warn os "battery low"
//
//	# Show warnings and above from every log
//	devlog -c devlog.yaml dump --filter 'level >= WARN'
//
//	# Export to CSV
//	devlog -c devlog.yaml export --format csv -o logs.csv
package main

import (
	"os"

	"github.com/mash-protocol/devlog/cmd/devlog/commands"
)

func main() {
	os.Exit(commands.Execute())
}
