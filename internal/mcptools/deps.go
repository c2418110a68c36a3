// Package mcptools exposes the dashboard as MCP tools.
package mcptools

import (
	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/dashboard"
)

// Dependencies holds the services the tools need. Optional fields may be nil.
type Dependencies struct {
	Dashboard *dashboard.Dashboard

	// Optional: enables activity_recent
	ActivityLog *activity.Log

	// If set, called with the tool name after each call
	OnToolCall func(toolName string)
}
