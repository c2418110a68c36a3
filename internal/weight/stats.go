package weight

import "math"

// Trend is the direction of the overall change
type Trend string

const (
	TrendGain   Trend = "gain"
	TrendLoss   Trend = "loss"
	TrendSteady Trend = "steady"
)

// trendThreshold is the total change, in log units, below which the weight
// counts as held steady
const trendThreshold = 0.5

// Stats summarises the log from first to last entry by date
type Stats struct {
	First         Entry   `json:"first"`
	Last          Entry   `json:"last"`
	TotalChange   float64 `json:"totalChange"`
	PercentChange float64 `json:"percentChange"`
	DaysCovered   int     `json:"daysCovered"`
	WeeklyChange  float64 `json:"weeklyChange"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
	Trend         Trend   `json:"trend"`
}

// Range is the spread between the lightest and heaviest entry
func (s Stats) Range() float64 {
	return s.Max - s.Min
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Stats computes the summary. ok is false with fewer than two entries.
func (l *Log) Stats() (Stats, bool) {
	if len(l.entries) < 2 {
		return Stats{}, false
	}
	first, last := l.entries[0], l.entries[len(l.entries)-1]

	s := Stats{
		First:       first,
		Last:        last,
		TotalChange: last.Weight - first.Weight,
		DaysCovered: first.Date.DaysUntil(last.Date),
		Min:         first.Weight,
		Max:         first.Weight,
	}
	s.PercentChange = round1(s.TotalChange / first.Weight * 100)
	if s.DaysCovered > 0 {
		s.WeeklyChange = round1(s.TotalChange / float64(s.DaysCovered) * 7)
	}
	for _, e := range l.entries {
		s.Min = math.Min(s.Min, e.Weight)
		s.Max = math.Max(s.Max, e.Weight)
	}

	switch {
	case s.TotalChange > trendThreshold:
		s.Trend = TrendGain
	case s.TotalChange < -trendThreshold:
		s.Trend = TrendLoss
	default:
		s.Trend = TrendSteady
	}
	return s, true
}
