package gateway

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/registry"
)

func (g *Gateway) registerResources() {
	g.server.AddResource(mcp.NewResource(
		URICatalogueTypes,
		"catalogue-of-types",
		mcp.WithResourceDescription("Argument types declared by the command catalogue"),
		mcp.WithMIMEType("application/json"),
	), g.handleCatalogueTypes)

	g.server.AddResource(mcp.NewResource(
		URICatalogueCommands,
		"catalogue-of-commands",
		mcp.WithResourceDescription("Noun-verb commands with their argument shapes"),
		mcp.WithMIMEType("application/json"),
	), g.handleCatalogueCommands)

	g.server.AddResource(mcp.NewResource(
		URIStoreDump,
		"full-store-dump",
		mcp.WithResourceDescription("Every triple in the frozen store"),
		mcp.WithMIMEType("text/plain"),
	), g.handleStoreDump)

	g.server.AddResource(mcp.NewResource(
		URIRecentReceipts,
		"recent-receipts",
		mcp.WithResourceDescription("Most recently chained ledger entries"),
		mcp.WithMIMEType("application/json"),
	), g.handleRecentReceipts)

	g.server.AddResourceTemplate(mcp.NewResourceTemplate(
		URIReceiptByHash,
		"receipt-by-hash",
		mcp.WithTemplateDescription("One ledger entry, addressed by its chain hash"),
		mcp.WithTemplateMIMEType("application/json"),
	), g.handleReceiptByHash)
}

func jsonContents(uri string, v interface{}) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      uri,
		MIMEType: "application/json",
		Text:     string(data),
	}}, nil
}

func (g *Gateway) handleCatalogueTypes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	eng := g.currentEngine()
	if eng == nil {
		return nil, errors.ErrStoreNotBuilt
	}
	type typeEntry struct {
		Name string `json:"name"`
		IRI  string `json:"iri"`
	}
	var types []typeEntry
	for _, t := range eng.cat.ArgTypes() {
		types = append(types, typeEntry{Name: string(t), IRI: string(registry.TypeIRI(t))})
	}
	return jsonContents(request.Params.URI, types)
}

func (g *Gateway) handleCatalogueCommands(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	eng := g.currentEngine()
	if eng == nil {
		return nil, errors.ErrStoreNotBuilt
	}
	return jsonContents(request.Params.URI, eng.cat.Commands)
}

func (g *Gateway) handleStoreDump(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	eng := g.currentEngine()
	if eng == nil {
		return nil, errors.ErrStoreNotBuilt
	}
	var sb strings.Builder
	for _, t := range eng.store.All() {
		sb.WriteString(t.String())
		sb.WriteByte('\n')
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      request.Params.URI,
		MIMEType: "text/plain",
		Text:     sb.String(),
	}}, nil
}

func (g *Gateway) handleRecentReceipts(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	n := g.cfg.Gateway.RecentReceipts
	if n <= 0 {
		n = 20
	}
	return jsonContents(request.Params.URI, g.ledger.Recent(n))
}

func (g *Gateway) handleReceiptByHash(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	hex := uri[strings.LastIndex(uri, "/")+1:]
	hash, err := ledger.ParseHash(hex)
	if err != nil {
		return nil, errors.NewInvalidRequestError("malformed chain hash %q", hex)
	}
	entry, ok := g.ledger.EntryByHash(hash)
	if !ok {
		return nil, errors.NewNotFoundError("no ledger entry with chain hash %s", hex)
	}
	return jsonContents(uri, entry)
}
