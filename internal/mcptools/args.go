package mcptools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/tasks"
)

// args wraps a tool call's arguments
type args map[string]any

func argsOf(req mcp.CallToolRequest) args {
	a, _ := req.Params.Arguments.(map[string]any)
	if a == nil {
		a = map[string]any{}
	}
	return a
}

func (a args) has(key string) bool {
	_, ok := a[key]
	return ok
}

func (a args) str(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a args) optStr(key string) *string {
	s, ok := a[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func (a args) boolean(key string) bool {
	switch v := a[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// number accepts JSON numbers and numeric strings
func (a args) number(key string) (float64, bool, error) {
	switch v := a[key].(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case int64:
		return float64(v), true, nil
	case json.Number:
		f, err := v.Float64()
		return f, true, err
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, false, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, true, fmt.Errorf("%s must be a number", key)
		}
		return f, true, nil
	default:
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
}

// maxCount caps list sizes read from arguments; anything larger means no cap
const maxCount = 1 << 20

// count reads a list size. Missing, zero or negative gives def; a size past
// maxCount gives 0, which the list helpers treat as "all".
func (a args) count(key string, def int) (int, error) {
	f, ok, err := a.number(key)
	if err != nil {
		return 0, err
	}
	switch {
	case !ok || math.IsNaN(f) || f < 1:
		return def, nil
	case f >= maxCount:
		return 0, nil
	}
	return int(f), nil
}

func (a args) id(key string) (tasks.ID, bool, error) {
	f, ok, err := a.number(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	return tasks.ID(int64(f)), true, nil
}

func (a args) requireID(key string) (tasks.ID, error) {
	id, ok, err := a.id(key)
	if err != nil {
		return 0, err
	}
	if !ok || id == 0 {
		return 0, fmt.Errorf("%s is required", key)
	}
	return id, nil
}

// date reads YYYY-MM-DD, "today" or "tomorrow". Missing or empty gives nil.
func (a args) date(key string, cal dates.Calendar) (*dates.Date, error) {
	return parseDay(a.str(key), cal)
}

func parseDay(s string, cal dates.Calendar) (*dates.Date, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return nil, nil
	case "today":
		return cal.Today().Ptr(), nil
	case "tomorrow":
		return cal.Today().AddDays(1).Ptr(), nil
	case "yesterday":
		return cal.Yesterday().Ptr(), nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
