package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/config"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/gateway"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/logger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
)

// ServeCmd starts the MCP stdio gateway
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP stdio gateway",
	Long: `Start the gateway on stdin/stdout speaking the Model Context Protocol.

The catalogue is compiled into a frozen triple store at startup. With
--watch, edits to the catalogue file rebuild the store in place while
the gateway keeps serving; a broken edit keeps the previous catalogue.`,
	RunE: runServe,
}

var (
	serveCataloguePath string
	serveWatch         bool
	serveNoBanner      bool
)

func init() {
	ServeCmd.Flags().StringVar(&serveCataloguePath, "catalogue", "", "Catalogue file path (overrides config)")
	ServeCmd.Flags().BoolVar(&serveWatch, "watch", false, "Rebuild the store when the catalogue file changes")
	ServeCmd.Flags().BoolVar(&serveNoBanner, "no-banner", false, "Suppress the startup banner")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	cataloguePath := cfg.Catalogue.Path
	if serveCataloguePath != "" {
		cataloguePath = serveCataloguePath
	}
	watch := cfg.Catalogue.Watch || serveWatch

	cat, err := registry.Load(cataloguePath)
	if err != nil {
		return errors.Wrapf(err, "failed to load catalogue from %s", cataloguePath)
	}

	log := logger.Logger.Named("gateway")
	lc := ledger.New(logger.Logger.Named("ledger"))

	gw := gateway.New(cfg, lc, log)
	gw.SetCatalogue(cat)

	// The gateway owns stdout for the protocol stream, so everything
	// human-facing goes to stderr.
	if !serveNoBanner {
		printStartupBanner(cataloguePath, len(cat.Commands), watch)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watch {
		watcher, err := registry.NewWatcher(cataloguePath, log.Named("watcher"), gw.SetCatalogue)
		if err != nil {
			return errors.Wrap(err, "failed to start catalogue watcher")
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorw("catalogue watcher stopped", "error", err)
			}
		}()
	}

	log.Infow("gateway serving on stdio",
		"catalogue", cataloguePath,
		"commands", len(cat.Commands),
		"watch", watch,
	)
	return gw.ServeStdio()
}
