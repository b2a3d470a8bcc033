package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/cmd/cnv/commands"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/config"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cnv",
	Short: "cnv - Semantic command catalogue with attested queries",
	Long: `cnv - In-process semantic query engine over a command catalogue.

cnv compiles a YAML command catalogue into an immutable triple store,
answers SPARQL-style queries against it, and chains a tamper-evident
receipt for every accepted invocation.

Available commands:
  serve   - Start the MCP stdio gateway (resources + tools)
  query   - Run a one-shot query against the catalogue store
  verify  - Verify an exported receipt chain
  version - Show version information

Examples:
  cnv serve --catalogue commands.yaml
  cnv query 'SELECT ?name WHERE { ?cmd <urn:cnv:schema#name> ?name }'
  cnv verify receipts.json`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		jsonOutput := false
		if err == nil {
			jsonOutput = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return logger.SetLevel(logger.LevelForVerbosity(verbosity))
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.QueryCmd)
	rootCmd.AddCommand(commands.VerifyCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
