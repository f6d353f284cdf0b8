package mcp

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/profiles"
	"github.com/claude/liftplan/internal/schedule"
)

// DataSource abstracts the profile layer for MCP tools. Both
// *profiles.Service (local) and HTTPClient (remote via REST API) satisfy
// this interface.
type DataSource interface {
	List(ctx context.Context) ([]*models.Profile, error)
	Prescribe(ctx context.Context, profileID string, date time.Time) (schedule.Day, error)
}

// Compile-time check: *profiles.Service satisfies DataSource.
var _ DataSource = (*profiles.Service)(nil)
