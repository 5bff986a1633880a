package outwriter

import (
	"os"

	"github.com/huangsam/coverwatch/internal/contract"
	"golang.org/x/term"
)

// Bounds for the name column of tables.
const (
	minNameWidth = 12
	maxNameWidth = 60
)

// GetMaxTableNameWidth calculates the maximum width for component or test names in
// table output, given the combined width of the other columns.
func GetMaxTableNameWidth(cfg *contract.Config, fixedColumns int) int {
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

	// Borders, separators and padding
	available := termWidth - fixedColumns - 20
	return min(max(available, minNameWidth), maxNameWidth)
}
