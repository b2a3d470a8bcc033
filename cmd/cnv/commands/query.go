package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/config"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/executor"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

// QueryCmd runs a one-shot query against the catalogue store
var QueryCmd = &cobra.Command{
	Use:   "query [query string]",
	Short: "Run a one-shot query against the catalogue store",
	Long: `Compile the catalogue into a triple store, run a single query through
the parse/optimize/execute pipeline, and print the result.

Examples:
  cnv query 'SELECT ?name WHERE { ?cmd <urn:cnv:schema#name> ?name }'
  cnv query --file report.rq --format json
  cnv query 'ASK { <urn:cnv:command/user-create> <urn:cnv:schema#noun> "user" }'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

var (
	queryCataloguePath string
	queryFile          string
	queryFormat        string
	queryShowReceipt   bool
)

func init() {
	QueryCmd.Flags().StringVar(&queryCataloguePath, "catalogue", "", "Catalogue file path (overrides config)")
	QueryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "Read the query from a file instead of the argument")
	QueryCmd.Flags().StringVar(&queryFormat, "format", "text", "Output format: text or json")
	QueryCmd.Flags().BoolVar(&queryShowReceipt, "receipt", false, "Print the chained receipt for this invocation")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryFormat != "text" && queryFormat != "json" {
		return errors.Newf("unknown format %q (want text or json)", queryFormat)
	}

	queryText, err := readQueryText(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	cataloguePath := cfg.Catalogue.Path
	if queryCataloguePath != "" {
		cataloguePath = queryCataloguePath
	}

	cat, err := registry.Load(cataloguePath)
	if err != nil {
		return errors.Wrapf(err, "failed to load catalogue from %s", cataloguePath)
	}
	st := cat.BuildStore()

	q, err := parser.Parse(queryText)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintln(os.Stderr, perr.Annotate(queryText))
			return errors.New("query did not parse")
		}
		return err
	}

	root, err := optimizer.New(st.Stats()).
		WithHashJoinThreshold(cfg.Query.HashJoinThreshold).
		Optimize(q)
	if err != nil {
		return errors.Wrap(err, "failed to plan query")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Gateway.QueryTimeoutSeconds)*time.Second)
	defer cancel()

	result, err := executor.New(st).Execute(ctx, root)
	if err != nil {
		return errors.Wrap(err, "query execution failed")
	}

	var payload []byte
	if queryFormat == "json" {
		payload, err = result.JSON()
		if err != nil {
			return errors.Wrap(err, "failed to encode result")
		}
		fmt.Println(string(payload))
	} else {
		fmt.Println(result.Text())
		payload = []byte(result.Text())
	}

	if queryShowReceipt {
		lc := ledger.New(nil)
		chainHash := lc.Append(ledger.NewReceipt(cfg.Ledger.AgentID, []byte(queryText), payload))
		pterm.Success.Printf("receipt chained: %s\n", chainHash.Hex())
	}
	return nil
}

func readQueryText(args []string) (string, error) {
	if queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return "", errors.Wrapf(err, "failed to read query from %s", queryFile)
		}
		return string(data), nil
	}
	if len(args) == 0 {
		return "", errors.New("no query given (pass a query string or --file)")
	}
	return args[0], nil
}
