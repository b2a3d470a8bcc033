// Package gateway exposes the engine over the Model Context Protocol:
// readable resources (catalogues, store dump, receipts) and callable tools
// (run-query, validate-invocation, append-receipt). The gateway decodes,
// routes, and encodes; all query logic lives in the sparql packages and all
// chaining in the ledger.
package gateway

import (
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/config"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/shape"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/store"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/version"
)

// Resource URIs served by the gateway.
const (
	URICatalogueTypes    = "cnv://catalogue/types"
	URICatalogueCommands = "cnv://catalogue/commands"
	URIStoreDump         = "cnv://store/dump"
	URIRecentReceipts    = "cnv://ledger/recent"
	URIReceiptByHash     = "cnv://ledger/receipts/{hash}"
)

// engine is one immutable catalogue generation: the frozen store, its
// statistics, and the validator derived from the same catalogue. Swapped
// wholesale on rebuild so in-flight queries keep a consistent snapshot.
type engine struct {
	cat       *registry.Catalogue
	store     *store.TripleStore
	stats     store.Statistics
	validator *shape.Validator
}

// Gateway is the protocol server. One Gateway serves many concurrent
// connections; per-request state stays on the stack.
type Gateway struct {
	cfg     *config.Config
	ledger  *ledger.Lockchain
	log     *zap.SugaredLogger
	limiter *rate.Limiter
	server  *server.MCPServer

	mu  sync.RWMutex
	eng *engine
}

// New assembles a gateway around a ledger and configuration. Attach a
// catalogue with SetCatalogue before serving.
func New(cfg *config.Config, lc *ledger.Lockchain, log *zap.SugaredLogger) *Gateway {
	g := &Gateway{
		cfg:    cfg,
		ledger: lc,
		log:    log,
	}
	if cfg.Gateway.ToolCallsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(cfg.Gateway.ToolCallsPerSecond), 1)
	}

	g.server = server.NewMCPServer(
		"cnv-gateway",
		version.Get().Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)
	g.registerTools()
	g.registerResources()
	return g
}

// SetCatalogue builds a fresh frozen store from the catalogue and swaps it
// in. Queries already executing continue against the previous snapshot.
func (g *Gateway) SetCatalogue(cat *registry.Catalogue) {
	st := cat.BuildStore()
	eng := &engine{
		cat:       cat,
		store:     st,
		stats:     st.Stats(),
		validator: shape.NewValidator(cat),
	}
	g.mu.Lock()
	g.eng = eng
	g.mu.Unlock()
	g.log.Infow("catalogue attached",
		"commands", len(cat.Commands),
		"triples", st.Len(),
	)
}

func (g *Gateway) currentEngine() *engine {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.eng
}

func (g *Gateway) queryTimeout() time.Duration {
	secs := g.cfg.Gateway.QueryTimeoutSeconds
	if secs <= 0 {
		secs = 10
	}
	return time.Duration(secs) * time.Second
}

// ServeStdio serves the protocol over stdin/stdout until the stream closes.
func (g *Gateway) ServeStdio() error {
	return server.ServeStdio(g.server)
}

// MCPServer exposes the underlying server for in-process tests.
func (g *Gateway) MCPServer() *server.MCPServer {
	return g.server
}
