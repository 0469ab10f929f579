package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPlannerMCPServer creates an MCP server with the planner tools
// registered.
func NewPlannerMCPServer(svc *PlannerService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tripweaver-planner",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "plan_trip",
		Description: "Reconcile a multi-day travel itinerary. Fetches lodging, event, and restaurant suggestions, resolves conflicts against time and budget constraints, and returns a complete or partial day-by-day plan with per-gap reasons.",
	}, svc.PlanTrip)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate_trip",
		Description: "Validate a trip request (dates, day window, budget caps) without calling any suggestion producer.",
	}, svc.ValidateTrip)

	return server
}

// RunMCPServer starts an HTTP server exposing the planner MCP tools.
func RunMCPServer(ctx context.Context, svc *PlannerService, addr string) error {
	server := NewPlannerMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
