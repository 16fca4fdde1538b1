// Package outwriter has output and writer logic.
package outwriter

import (
	"os"

	"github.com/will-wright-eng/social-signals/internal/contract"
	"github.com/will-wright-eng/social-signals/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRecords prints stored records in rank order. With detail set every raw metric is shown.
func (ow *OutWriter) WriteRecords(records []schema.MetricsRecord, cfg *contract.Config, detail bool) error {
	return WriteRecords(records, cfg, detail)
}

// WriteBatch prints the records and per-path outcomes of a batch analysis.
func (ow *OutWriter) WriteBatch(result schema.BatchResult, cfg *contract.Config) error {
	return WriteBatchResult(result, cfg)
}

// WriteStoreStatus prints aggregate information about the metrics store.
func (ow *OutWriter) WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return WriteStoreStatus(status, cfg)
}

// WriteConfig prints the resolved configuration.
func (ow *OutWriter) WriteConfig(cfg *contract.Config) error {
	return WriteConfig(cfg)
}

// getMaxTablePathWidth calculates the maximum width for repository paths in table output
// based on terminal width and which columns are shown.
func getMaxTablePathWidth(cfg *contract.Config, detail bool) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Name + Signal + Label + Stars + Issues + Group with borders/padding
	baseWidth := 70

	if detail {
		baseWidth += 60 // Age + Freq + Contrib + Commits + LOC + Analyzed
	}

	// Table borders, separators, and padding
	baseWidth += 20

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
