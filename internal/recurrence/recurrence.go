// Package recurrence evaluates RFC 5545 recurrence rules anchored on a task's
// due date.
package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/vthunder/daybook/internal/dates"
)

var ErrInvalidRule = errors.New("invalid recurrence rule")

// shorthands accepted in place of a full RRULE
var shorthands = map[string]string{
	"daily":     "FREQ=DAILY",
	"weekly":    "FREQ=WEEKLY",
	"biweekly":  "FREQ=WEEKLY;INTERVAL=2",
	"monthly":   "FREQ=MONTHLY",
	"quarterly": "FREQ=MONTHLY;INTERVAL=3",
	"yearly":    "FREQ=YEARLY",
}

// "every 2 days", "every other week", "every 3 months"
var everyPattern = regexp.MustCompile(`^every\s+(\d+|other)?\s*(day|week|month|year)s?$`)

var freqNames = map[string]string{
	"day":   "DAILY",
	"week":  "WEEKLY",
	"month": "MONTHLY",
	"year":  "YEARLY",
}

// Normalize turns a shorthand ("monthly", "every 2 days") into RRULE form and
// strips an "RRULE:" prefix. Anything else is returned upper-cased for the
// parser to judge.
func Normalize(rule string) string {
	s := strings.TrimSpace(rule)
	lower := strings.ToLower(s)
	if full, ok := shorthands[lower]; ok {
		return full
	}
	if m := everyPattern.FindStringSubmatch(lower); m != nil {
		interval := 1
		switch m[1] {
		case "":
		case "other":
			interval = 2
		default:
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return s
			}
			interval = n
		}
		out := "FREQ=" + freqNames[m[2]]
		if interval > 1 {
			out += ";INTERVAL=" + strconv.Itoa(interval)
		}
		return out
	}
	s = strings.TrimPrefix(strings.ToUpper(s), "RRULE:")
	return s
}

// Rule is a parsed recurrence anchored at a start date
type Rule struct {
	expr  string
	start dates.Date
	rr    *rrule.RRule
}

// Parse parses rule with DTSTART at midnight UTC on start
func Parse(rule string, start dates.Date) (*Rule, error) {
	expr := Normalize(rule)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty rule", ErrInvalidRule)
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: no start date", ErrInvalidRule)
	}
	opt, err := rrule.StrToROption(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRule, rule, err)
	}
	opt.Dtstart = start.Time()
	rr, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidRule, rule, err)
	}
	return &Rule{expr: expr, start: start, rr: rr}, nil
}

// Validate reports whether rule parses
func Validate(rule string) error {
	_, err := Parse(rule, dates.New(2000, time.January, 1))
	return err
}

// String is the normalized RRULE text
func (r *Rule) String() string {
	return r.expr
}

// OnOrAfter returns the earliest occurrence on or after day. The search
// starts strictly after the day before, so an occurrence on day itself counts.
// An occurrence on the day before is skipped: a task advanced late lands on
// its next future date rather than reappearing as already overdue.
// ok is false when the rule has no further occurrences.
func (r *Rule) OnOrAfter(day dates.Date) (next dates.Date, ok bool) {
	t := r.rr.After(day.AddDays(-1).Time(), false)
	if t.IsZero() {
		return dates.Date{}, false
	}
	return dates.Of(t, time.UTC), true
}

// Between lists occurrences from..to inclusive, capped at limit (0 = no cap)
func (r *Rule) Between(from, to dates.Date, limit int) []dates.Date {
	var out []dates.Date
	for _, t := range r.rr.Between(from.Time(), to.Time(), true) {
		out = append(out, dates.Of(t, time.UTC))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Next is the occurrence of rule (anchored at start) on or after today
func Next(rule string, start, today dates.Date) (dates.Date, bool, error) {
	r, err := Parse(rule, start)
	if err != nil {
		return dates.Date{}, false, err
	}
	next, ok := r.OnOrAfter(today)
	return next, ok, nil
}

var freqLabels = map[rrule.Frequency][2]string{
	rrule.YEARLY:   {"yearly", "year"},
	rrule.MONTHLY:  {"monthly", "month"},
	rrule.WEEKLY:   {"weekly", "week"},
	rrule.DAILY:    {"daily", "day"},
	rrule.HOURLY:   {"hourly", "hour"},
	rrule.MINUTELY: {"every minute", "minute"},
	rrule.SECONDLY: {"every second", "second"},
}

// Describe gives a short human label for rule ("daily", "every 2 days").
// Unparsable rules are returned unchanged.
func Describe(rule string) string {
	opt, err := rrule.StrToROption(Normalize(rule))
	if err != nil {
		return rule
	}
	labels, ok := freqLabels[opt.Freq]
	if !ok {
		return rule
	}
	label := labels[0]
	if opt.Interval > 1 {
		label = fmt.Sprintf("every %d %ss", opt.Interval, labels[1])
	}
	if opt.Count > 0 {
		label += fmt.Sprintf(", %d times", opt.Count)
	}
	if !opt.Until.IsZero() {
		label += ", until " + dates.Of(opt.Until, time.UTC).String()
	}
	return label
}
