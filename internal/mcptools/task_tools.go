package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/tasks"
)

func registerTaskTools(add addFunc, deps *Dependencies) {
	d := deps.Dashboard

	add(mcp.NewTool("task_add",
		mcp.WithDescription("Add a task. Recurring tasks need a due date; the rule is an RRULE or a shorthand like 'monthly' or 'every 2 weeks'."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text")),
		mcp.WithString("due_date", mcp.Description("Due date (YYYY-MM-DD, 'today' or 'tomorrow')")),
		mcp.WithString("notes", mcp.Description("Free-form notes")),
		mcp.WithString("recurrence", mcp.Description("Recurrence rule")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		due, err := a.date("due_date", d.Calendar())
		if err != nil {
			return errResult(err)
		}
		t, err := d.AddTask(ctx, tasks.NewTask{
			Text:           a.str("text"),
			DueDate:        due,
			Notes:          a.str("notes"),
			RecurrenceRule: a.str("recurrence"),
		})
		if err != nil {
			return userError(err)
		}
		return jsonResult(viewOf(t, tasks.UrgencyOf(t, d.Calendar().Today())))
	})

	add(mcp.NewTool("task_list",
		mcp.WithDescription("List open tasks and today's completions, most urgent first"),
		mcp.WithBoolean("all", mcp.Description("Include every task in stored order")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		list := d.VisibleTasks()
		if argsOf(req).boolean("all") {
			list = d.Tasks()
		}
		today := d.Calendar().Today()
		views := make([]taskView, 0, len(list))
		for _, t := range list {
			views = append(views, viewOf(t, tasks.UrgencyOf(t, today)))
		}
		return jsonResult(views)
	})

	add(mcp.NewTool("task_toggle",
		mcp.WithDescription("Toggle a task's completion, or one subtask when subtask_id is given"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithNumber("subtask_id", mcp.Description("Subtask ID")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		id, err := a.requireID("id")
		if err != nil {
			return errResult(err)
		}
		sub, _, err := a.id("subtask_id")
		if err != nil {
			return errResult(err)
		}
		t, err := d.ToggleTask(ctx, id, sub)
		if err != nil {
			return userError(err)
		}
		return jsonResult(viewOf(t, tasks.UrgencyOf(t, d.Calendar().Today())))
	})

	add(mcp.NewTool("task_update",
		mcp.WithDescription("Edit a task. Omitted fields are unchanged; an empty due_date or recurrence clears it."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithString("text", mcp.Description("New text")),
		mcp.WithString("due_date", mcp.Description("New due date")),
		mcp.WithString("notes", mcp.Description("New notes")),
		mcp.WithString("recurrence", mcp.Description("New recurrence rule")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		id, err := a.requireID("id")
		if err != nil {
			return errResult(err)
		}
		p := tasks.Patch{
			Text:           a.optStr("text"),
			Notes:          a.optStr("notes"),
			RecurrenceRule: a.optStr("recurrence"),
		}
		if a.has("due_date") {
			due, err := a.date("due_date", d.Calendar())
			if err != nil {
				return errResult(err)
			}
			if due == nil {
				due = &dates.Date{}
			}
			p.DueDate = due
		}
		t, err := d.UpdateTask(ctx, id, p)
		if err != nil {
			return userError(err)
		}
		return jsonResult(viewOf(t, tasks.UrgencyOf(t, d.Calendar().Today())))
	})

	add(mcp.NewTool("task_delete",
		mcp.WithDescription("Delete a task, or one subtask when subtask_id is given"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Task ID")),
		mcp.WithNumber("subtask_id", mcp.Description("Subtask ID")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		id, err := a.requireID("id")
		if err != nil {
			return errResult(err)
		}
		sub, _, err := a.id("subtask_id")
		if err != nil {
			return errResult(err)
		}
		if sub != 0 {
			err = d.DeleteSubtask(ctx, id, sub)
		} else {
			err = d.DeleteTask(ctx, id)
		}
		if err != nil {
			return userError(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deleted %d", id)), nil
	})

	add(mcp.NewTool("subtask_add",
		mcp.WithDescription("Add a checklist item to a task"),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Parent task ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Subtask text")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a := argsOf(req)
		id, err := a.requireID("id")
		if err != nil {
			return errResult(err)
		}
		s, err := d.AddSubtask(ctx, id, a.str("text"))
		if err != nil {
			return userError(err)
		}
		return jsonResult(s)
	})
}

type historyView struct {
	ID                tasks.ID        `json:"id"`
	Text              string          `json:"text"`
	CompletedAt       *time.Time      `json:"completedAt"`
	Duration          string          `json:"duration"`
	CompletedSubtasks []tasks.Subtask `json:"completedSubtasks,omitempty"`
}

func registerHistoryTools(add addFunc, deps *Dependencies) {
	d := deps.Dashboard

	add(mcp.NewTool("history",
		mcp.WithDescription("Completed one-off tasks, most recent first, with time to complete"),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default all)")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limit, err := argsOf(req).count("limit", 0)
		if err != nil {
			return errResult(err)
		}
		entries := d.History()
		if limit > 0 && limit < len(entries) {
			entries = entries[:limit]
		}
		out := make([]historyView, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyView{
				ID:                e.Task.ID,
				Text:              e.Task.Text,
				CompletedAt:       e.Task.CompletedAt,
				Duration:          tasks.FormatDuration(e.Duration),
				CompletedSubtasks: e.CompletedSubtasks,
			})
		}
		return jsonResult(out)
	})

	add(mcp.NewTool("history_clear",
		mcp.WithDescription("Delete every completed one-off task"),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := d.ClearHistory(ctx)
		if err != nil {
			return errResult(err)
		}
		return mcp.NewToolResultText(fmt.Sprintf("Cleared %d completed tasks", n)), nil
	})
}
