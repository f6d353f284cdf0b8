package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftplan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("liftplan strength-training planner. Look up the periodization phase for a date, estimate one-rep-max from a strength test, compute working loads, and read the daily prescription of a training profile."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetTrainingPhase, Handler: h.getTrainingPhase},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolGetWorkingLoad, Handler: h.getWorkingLoad},
		server.ServerTool{Tool: toolGetDailyPrescription, Handler: h.getDailyPrescription},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolListProfiles, Handler: h.listProfiles},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resPhaseTable, Handler: h.phaseTable},
		server.ServerResource{Resource: resToday, Handler: h.today},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resPhaseTable = mcp.NewResource(
	"liftplan://phase_table",
	"Phase Table",
	mcp.WithResourceDescription("The three periodization phases with intensity bands, rest durations and default sets/reps"),
	mcp.WithMIMEType("application/json"),
)

var resToday = mcp.NewResource(
	"liftplan://today",
	"Today's Prescription",
	mcp.WithResourceDescription("Today's phase and the active profile's exercises with sets, reps and working loads"),
	mcp.WithMIMEType("application/json"),
)
