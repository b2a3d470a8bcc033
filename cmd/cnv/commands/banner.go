package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/version"
)

// printStartupBanner writes the serve startup summary to stderr. Stdout is
// the protocol stream and must stay clean.
func printStartupBanner(cataloguePath string, commandCount int, watch bool) {
	info := version.Get()

	watchState := "off"
	if watch {
		watchState = "on"
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", pterm.LightCyan("  ┌─ cnv gateway ──────────────────────────────┐"))
	fmt.Fprintf(os.Stderr, "%s Version:   %s (commit %s)\n", pterm.LightCyan("  │"), info.Version, info.Short())
	fmt.Fprintf(os.Stderr, "%s Catalogue: %s (%d commands)\n", pterm.LightCyan("  │"), cataloguePath, commandCount)
	fmt.Fprintf(os.Stderr, "%s Watch:     %s\n", pterm.LightCyan("  │"), watchState)
	fmt.Fprintf(os.Stderr, "%s Transport: stdio (MCP)\n", pterm.LightCyan("  │"))
	fmt.Fprintf(os.Stderr, "%s\n\n", pterm.LightCyan("  └────────────────────────────────────────────┘"))
}
