package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/ledger"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/executor"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/optimizer"
	"github.com/seanchatmangpt/clap-noun-verb-sub004/sparql/parser"
)

func (g *Gateway) registerTools() {
	runQuery := mcp.NewTool("run-query",
		mcp.WithDescription("Run a query against the command ontology and return bindings"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Query text (SELECT, CONSTRUCT, ASK, or DESCRIBE)"),
		),
		mcp.WithString("format",
			mcp.Description("Result format: json (default) or text"),
		),
	)
	g.server.AddTool(runQuery, g.handleRunQuery)

	validate := mcp.NewTool("validate-invocation",
		mcp.WithDescription("Validate a command invocation against its declared argument shapes"),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Command name, e.g. graph.build"),
		),
		mcp.WithObject("args",
			mcp.Description("Invocation arguments as a name/value object"),
		),
	)
	g.server.AddTool(validate, g.handleValidateInvocation)

	appendReceipt := mcp.NewTool("append-receipt",
		mcp.WithDescription("Chain an execution receipt onto the audit ledger"),
		mcp.WithString("invocation_hash",
			mcp.Required(),
			mcp.Description("SHA-256 of the invocation, hex encoded"),
		),
		mcp.WithString("result_hash",
			mcp.Required(),
			mcp.Description("SHA-256 of the result, hex encoded"),
		),
		mcp.WithString("agent_id",
			mcp.Description("Identity of the invoking agent"),
		),
	)
	g.server.AddTool(appendReceipt, g.handleAppendReceipt)
}

// allow enforces the gateway-wide tool rate limit.
func (g *Gateway) allow() *ProtocolError {
	if g.limiter != nil && !g.limiter.Allow() {
		return protocolErrorf(CodeRateLimited, "tool call rate limit exceeded")
	}
	return nil
}

func toolError(perr *ProtocolError) *mcp.CallToolResult {
	return mcp.NewToolResultError(perr.payload())
}

// handleRunQuery runs the parse-optimize-execute pipeline under the
// configured wall-time bound and chains a receipt for the accepted
// invocation. Pipeline failures come back as structured errors; they never
// close the connection.
func (g *Gateway) handleRunQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if perr := g.allow(); perr != nil {
		return toolError(perr), nil
	}
	queryText, err := request.RequireString("query")
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "%v", err)), nil
	}
	format := request.GetString("format", "json")
	if format != "json" && format != "text" {
		return toolError(protocolErrorf(CodeBadArguments, "unknown format %q: must be json or text", format)), nil
	}

	eng := g.currentEngine()
	if eng == nil {
		return toolError(classify(errors.ErrStoreNotBuilt)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.queryTimeout())
	defer cancel()

	start := time.Now()
	result, err := runPipeline(ctx, eng, g.cfg.Query.HashJoinThreshold, queryText)
	if err != nil {
		perr := classify(err)
		g.log.Debugw("query failed", "code", perr.Code, "error", perr.Message)
		return toolError(perr), nil
	}

	var payload []byte
	if format == "json" {
		payload, err = result.JSON()
		if err != nil {
			return toolError(classify(err)), nil
		}
	} else {
		payload = []byte(result.Text())
	}

	chainHash := g.ledger.Append(ledger.NewReceipt(g.cfg.Ledger.AgentID, []byte(queryText), payload))
	g.log.Debugw("query accepted",
		"form", result.Form.String(),
		"rows", len(result.Bindings),
		"elapsed", time.Since(start),
		"chain_hash", chainHash.Hex(),
	)
	return mcp.NewToolResultText(string(payload)), nil
}

// runPipeline is the one place the three query stages meet: it holds no
// state and touches only the engine snapshot it is given.
func runPipeline(ctx context.Context, eng *engine, threshold float64, queryText string) (*executor.Result, error) {
	q, err := parser.Parse(queryText)
	if err != nil {
		return nil, err
	}
	opt := optimizer.New(eng.stats)
	if threshold > 0 {
		opt = opt.WithHashJoinThreshold(threshold)
	}
	root, err := opt.Optimize(q)
	if err != nil {
		return nil, err
	}
	return executor.New(eng.store).Execute(ctx, root)
}

func (g *Gateway) handleValidateInvocation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if perr := g.allow(); perr != nil {
		return toolError(perr), nil
	}
	command, err := request.RequireString("command")
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "%v", err)), nil
	}
	args := map[string]interface{}{}
	if raw, ok := request.GetArguments()["args"]; ok && raw != nil {
		args, ok = raw.(map[string]interface{})
		if !ok {
			return toolError(protocolErrorf(CodeBadArguments, "args must be an object")), nil
		}
	}

	eng := g.currentEngine()
	if eng == nil {
		return toolError(classify(errors.ErrStoreNotBuilt)), nil
	}

	result := eng.validator.Validate(command, args)
	payload, err := json.Marshal(result)
	if err != nil {
		return toolError(classify(err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (g *Gateway) handleAppendReceipt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if perr := g.allow(); perr != nil {
		return toolError(perr), nil
	}
	invocationHex, err := request.RequireString("invocation_hash")
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "%v", err)), nil
	}
	resultHex, err := request.RequireString("result_hash")
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "%v", err)), nil
	}
	agentID := request.GetString("agent_id", g.cfg.Ledger.AgentID)

	invocationHash, err := ledger.ParseHash(invocationHex)
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "invocation_hash: %v", err)), nil
	}
	resultHash, err := ledger.ParseHash(resultHex)
	if err != nil {
		return toolError(protocolErrorf(CodeBadArguments, "result_hash: %v", err)), nil
	}

	receipt := ledger.Receipt{
		ID:             "RC-" + uuid.NewString(),
		InvocationHash: invocationHash,
		ResultHash:     resultHash,
		AgentID:        agentID,
		Timestamp:      time.Now().UTC(),
	}
	chainHash := g.ledger.Append(receipt)

	payload, err := json.Marshal(map[string]string{"chain_hash": chainHash.Hex()})
	if err != nil {
		return toolError(classify(err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
