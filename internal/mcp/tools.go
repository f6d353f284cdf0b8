package mcp

import (
	"context"
	"time"

	"github.com/claude/liftplan/internal/catalog"
	"github.com/claude/liftplan/internal/training"
	"github.com/mark3labs/mcp-go/mcp"
)

const dateLayout = "2006-01-02"

// date parses a YYYY-MM-DD argument as a local calendar date, defaulting to today.
func (h *handlers) date(s string) (time.Time, error) {
	if s == "" {
		return h.now(), nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// --- Tool definitions ---

var toolGetTrainingPhase = mcp.NewTool("get_training_phase",
	mcp.WithDescription("Get the periodization phase for a date: week number, phase name, intensity band, rest duration and default sets/reps."),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate the one-rep-max from a strength test using weight * (1 + reps/30). Per-side entries on barbell exercises are converted to the total load first."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Test weight in kg")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed")),
	mcp.WithString("exercise_id", mcp.Description("Master exercise id (see list_exercises). Needed for per-side conversion.")),
	mcp.WithString("weight_entry", mcp.Description("How the weight was entered. Defaults to total."), mcp.Enum("total", "perSide")),
)

var toolGetWorkingLoad = mcp.NewTool("get_working_load",
	mcp.WithDescription("Compute the working-load range for a one-rep-max in a phase, rounded to 2.5kg plates. Returns N/A for a zero one-rep-max or unknown phase."),
	mcp.WithNumber("one_rep_max", mcp.Required(), mcp.Description("One-rep-max in kg")),
	mcp.WithString("phase", mcp.Description("Phase key. Defaults to the phase of date."), mcp.Enum("highVolume", "mediumVolume", "lowVolume")),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD) used when phase is omitted. Defaults to today.")),
)

var toolGetDailyPrescription = mcp.NewTool("get_daily_prescription",
	mcp.WithDescription("Get what to train on a date: day name, phase, and every exercise with sets, reps, load and rest. Rest days have no exercises."),
	mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("profile_id", mcp.Description("Profile id. Defaults to the active profile.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the master exercise catalog with muscle groups, input types and bar weights."),
)

var toolListProfiles = mcp.NewTool("list_profiles",
	mcp.WithDescription("List training profiles with their ids and names."),
)

// --- Tool handlers ---

func (h *handlers) getTrainingPhase(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := h.date(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	rx := training.PhaseFor(date)
	cfg, _ := training.Config(rx.Phase)
	result, err := mcp.NewToolResultJSON(map[string]any{
		"date":   date.Format(dateLayout),
		"week":   training.WeekOfYear(date),
		"phase":  rx,
		"config": cfg,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) estimateOneRepMax(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireFloat("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	entry, ok := catalog.ParseWeightEntry(req.GetString("weight_entry", ""))
	if !ok {
		return mcp.NewToolResultError("weight_entry must be total or perSide"), nil
	}

	total, err := catalog.EnteredTotal(req.GetString("exercise_id", ""), weight, entry)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	orm, err := training.EstimateOneRepMax(total, int(reps))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"total_weight": total,
		"reps":         int(reps),
		"one_rep_max":  orm,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkingLoad(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orm, err := req.RequireFloat("one_rep_max")
	if err != nil {
		return mcp.NewToolResultError("one_rep_max parameter is required"), nil
	}

	phase := training.Phase(req.GetString("phase", ""))
	if phase == "" {
		date, err := h.date(req.GetString("date", ""))
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		phase = training.PhaseFor(date).Phase
	}

	load, err := training.WorkingLoad(orm, phase)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(map[string]any{
		"one_rep_max": orm,
		"phase":       phase,
		"load":        load,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getDailyPrescription(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := h.date(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	day, err := h.ds.Prescribe(ctx, req.GetString("profile_id", ""), date)
	if err != nil {
		h.log.Error("mcp get_daily_prescription", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(day)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(catalog.All())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

type profileSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Exercises int    `json:"exercises"`
}

func (h *handlers) listProfiles(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := h.ds.List(ctx)
	if err != nil {
		h.log.Error("mcp list_profiles", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	summaries := make([]profileSummary, 0, len(list))
	for _, p := range list {
		n := 0
		for _, day := range p.Plan {
			if day != nil {
				n += len(day.Exercises)
			}
		}
		summaries = append(summaries, profileSummary{ID: p.ID, Name: p.Name, Exercises: n})
	}

	result, err := mcp.NewToolResultJSON(summaries)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
