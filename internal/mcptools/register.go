package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/recurrence"
	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

// RegisterAll adds every tool to s
func RegisterAll(s *server.MCPServer, deps *Dependencies) {
	s.AddTools(Tools(deps)...)
}

// Tools builds the tool list for deps
func Tools(deps *Dependencies) []server.ServerTool {
	var out []server.ServerTool
	add := func(tool mcp.Tool, h server.ToolHandlerFunc) {
		out = append(out, server.ServerTool{Tool: tool, Handler: wrap(deps, tool.Name, h)})
	}

	registerTaskTools(add, deps)
	registerHistoryTools(add, deps)
	registerStreakTools(add, deps)
	registerWeightTools(add, deps)
	add(summaryTool(), summaryHandler(deps))
	if deps.ActivityLog != nil {
		add(activityTool(), activityHandler(deps))
	}
	return out
}

type addFunc func(mcp.Tool, server.ToolHandlerFunc)

func wrap(deps *Dependencies, name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logging.Debug("mcp", "%s %v", name, req.Params.Arguments)
		res, err := h(ctx, req)
		if deps.OnToolCall != nil {
			deps.OnToolCall(name)
		}
		return res, err
	}
}

// userError turns validation failures into a readable tool error
func userError(err error) (*mcp.CallToolResult, error) {
	switch {
	case errors.Is(err, tasks.ErrNotFound), errors.Is(err, tasks.ErrSubtaskNotFound),
		errors.Is(err, weight.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %v", err)), nil
	default:
		return errResult(err)
	}
}

type taskView struct {
	tasks.Task
	Urgency    string `json:"urgency"`
	Recurrence string `json:"recurrence,omitempty"`
}

func viewOf(t tasks.Task, u tasks.Urgency) taskView {
	v := taskView{Task: t, Urgency: u.String()}
	if t.Recurring() {
		v.Recurrence = recurrence.Describe(t.RecurrenceRule)
	}
	return v
}
