package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vthunder/daybook/internal/tasks"
	"github.com/vthunder/daybook/internal/weight"
)

func historyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Completed one-off tasks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if clearAll, _ := cmd.Flags().GetBool("clear"); clearAll {
				n, err := d.ClearHistory(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d completed %s\n", n, plural(n, "task", "tasks"))
				return nil
			}

			entries := d.History()
			if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && limit < len(entries) {
				entries = entries[:limit]
			}
			return c.emit(out, entries, func() {
				if len(entries) == 0 {
					fmt.Fprintln(out, "No completed tasks.")
					return
				}
				for _, e := range entries {
					fmt.Fprintf(out, "  %s  %-40s  took %s\n",
						e.Task.CompletedAt.Format("2006-01-02 15:04"),
						e.Task.Text,
						tasks.FormatDuration(e.Duration))
					for _, s := range e.CompletedSubtasks {
						fmt.Fprintf(out, "      [x] %s\n", s.Text)
					}
				}
			})
		},
	}
	cmd.Flags().Bool("clear", false, "Delete all completed one-off tasks")
	cmd.Flags().IntP("limit", "n", 0, "Show at most this many")
	return cmd
}

func streakCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show the daily completion streak",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := d.ResetStreak(cmd.Context()); err != nil {
					return err
				}
			}
			st := d.Streak()
			out := cmd.OutOrStdout()
			return c.emit(out, st, func() {
				fmt.Fprintf(out, "Streak: %d %s\n", st.Count, plural(st.Count, "day", "days"))
				if st.LastCompletionDate != nil {
					fmt.Fprintf(out, "Last completion: %s\n", st.LastCompletionDate)
				}
			})
		},
	}
	cmd.Flags().Bool("reset", false, "Reset the streak to zero")
	return cmd
}

func summaryCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Today's counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			s := d.Summary()
			out := cmd.OutOrStdout()
			return c.emit(out, s, func() { printSummary(out, s) })
		},
	}
}

// weightReport is the JSON form of weight stats; Stats is null below two entries
type weightReport struct {
	Stats  *weight.Stats  `json:"stats"`
	Series []weight.Point `json:"series"`
}

func weightCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weight",
		Short: "Track weight",
	}

	add := &cobra.Command{
		Use:   "add <weight>",
		Short: "Record a weigh-in (one per date)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			w, err := weight.ParseWeight(args[0])
			if err != nil {
				return err
			}
			day := d.Calendar().Today()
			if v, _ := cmd.Flags().GetString("date"); v != "" {
				if day, err = parseDay(v, d.Calendar()); err != nil {
					return err
				}
			}
			e, err := d.AddWeight(cmd.Context(), day, w)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, e, func() {
				fmt.Fprintf(out, "Recorded %.1f on %s  #%d\n", e.Weight, e.Date, e.ID)
			})
		},
	}
	add.Flags().StringP("date", "d", "", "Date (YYYY-MM-DD), default today")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a weigh-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid weigh-in id %q", args[0])
			}
			if err := d.DeleteWeight(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted weigh-in %d\n", id)
			return nil
		},
	})

	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Recent weigh-ins, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			n, _ := cmd.Flags().GetInt("limit")
			recent := d.RecentWeights(n)
			out := cmd.OutOrStdout()
			return c.emit(out, recent, func() {
				if len(recent) == 0 {
					fmt.Fprintln(out, "No weigh-ins.")
					return
				}
				for _, e := range recent {
					fmt.Fprintf(out, "  %s  %6.1f  #%d\n", e.Date, e.Weight, e.ID)
				}
			})
		},
	}
	list.Flags().IntP("limit", "n", 10, "Show at most this many (0 for all)")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Overall change, weekly rate and trend",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			report := weightReport{Series: d.WeightSeries()}
			if stats, ok := d.WeightStats(); ok {
				report.Stats = &stats
			}
			out := cmd.OutOrStdout()
			return c.emit(out, report, func() {
				stats := report.Stats
				if stats == nil {
					fmt.Fprintln(out, "Need at least two weigh-ins for stats.")
					return
				}
				fmt.Fprintf(out, "From %.1f (%s) to %.1f (%s) over %d %s\n",
					stats.First.Weight, stats.First.Date, stats.Last.Weight, stats.Last.Date,
					stats.DaysCovered, plural(stats.DaysCovered, "day", "days"))
				fmt.Fprintf(out, "Change:  %+.1f (%+.1f%%)\n", stats.TotalChange, stats.PercentChange)
				fmt.Fprintf(out, "Weekly:  %+.1f\n", stats.WeeklyChange)
				fmt.Fprintf(out, "Range:   %.1f to %.1f\n", stats.Min, stats.Max)
				fmt.Fprintf(out, "Trend:   %s\n", stats.Trend)
			})
		},
	})

	return cmd
}
