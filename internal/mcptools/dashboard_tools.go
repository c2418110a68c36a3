package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/daybook/internal/activity"
)

func registerStreakTools(add addFunc, deps *Dependencies) {
	d := deps.Dashboard

	add(mcp.NewTool("streak",
		mcp.WithDescription("Current daily completion streak"),
		mcp.WithBoolean("reset", mcp.Description("Reset the streak to zero")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if argsOf(req).boolean("reset") {
			if err := d.ResetStreak(ctx); err != nil {
				return errResult(err)
			}
		}
		return jsonResult(d.Streak())
	})
}

func registerWeightTools(add addFunc, deps *Dependencies) {
	d := deps.Dashboard

	add(mcp.NewTool("weight_add",
		mcp.WithDescription("Record a weigh-in. One entry per date."),
		mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight, positive")),
		mcp.WithString("date", mcp.Description("Date (YYYY-MM-DD), default today")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		w, ok, err := a.number("weight")
		if err != nil {
			return errResult(err)
		}
		if !ok {
			return mcp.NewToolResultError("weight is required"), nil
		}
		day := d.Calendar().Today()
		if p, err := a.date("date", d.Calendar()); err != nil {
			return errResult(err)
		} else if p != nil {
			day = *p
		}
		e, err := d.AddWeight(ctx, day, w)
		if err != nil {
			return userError(err)
		}
		return jsonResult(e)
	})

	add(mcp.NewTool("weight_delete",
		mcp.WithDescription("Remove a weigh-in by ID"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry ID")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := argsOf(req).requireID("id")
		if err != nil {
			return errResult(err)
		}
		if err := d.DeleteWeight(ctx, int64(id)); err != nil {
			return userError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted weigh-in %d", id)), nil
	})

	add(mcp.NewTool("weight_stats",
		mcp.WithDescription("Weight entries with overall change, weekly rate, trend and the chart series"),
		mcp.WithNumber("recent", mcp.Description("How many recent entries to include (default 10)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := argsOf(req).count("recent", 10)
		if err != nil {
			return errResult(err)
		}
		series := d.WeightSeries()
		result := map[string]any{
			"count":  len(series),
			"recent": d.RecentWeights(n),
			"series": series,
		}
		if stats, ok := d.WeightStats(); ok {
			result["stats"] = stats
		}
		return jsonResult(result)
	})
}

func summaryTool() mcp.Tool {
	return mcp.NewTool("summary",
		mcp.WithDescription("Today's dashboard header: completions, open tasks, streak and theme"),
	)
}

func summaryHandler(deps *Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(deps.Dashboard.Summary())
	}
}

func activityTool() mcp.Tool {
	return mcp.NewTool("activity_recent",
		mcp.WithDescription("Recent dashboard activity from the journal"),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
		mcp.WithString("type", mcp.Description("Only entries of this type, e.g. task_completed")),
		mcp.WithString("query", mcp.Description("Only entries whose summary contains this text")),
	)
}

func activityHandler(deps *Dependencies) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		limit, err := a.count("limit", 20)
		if err != nil {
			return errResult(err)
		}

		var entries []activity.Entry
		switch {
		case a.str("type") != "":
			entries, err = deps.ActivityLog.ByType(activity.Type(a.str("type")), limit)
		case a.str("query") != "":
			entries, err = deps.ActivityLog.Search(a.str("query"), limit)
		default:
			entries, err = deps.ActivityLog.Recent(limit)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read activity: %v", err)), nil
		}
		if entries == nil {
			entries = []activity.Entry{}
		}
		return jsonResult(entries)
	}
}
