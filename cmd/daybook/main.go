package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vthunder/daybook/internal/app"
	"github.com/vthunder/daybook/internal/dashboard"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/logging"
)

var Version = "dev"

// cli holds the flags shared by every command and the lazily opened app
type cli struct {
	configPath string
	jsonOut    bool
	debug      bool

	clock dates.Clock // nil means the real clock
	app   *app.App
}

func (c *cli) dashboard(ctx context.Context) (*dashboard.Dashboard, error) {
	if c.app != nil {
		return c.app.Dashboard, nil
	}
	a, err := app.Open(ctx, c.configPath, c.clock)
	if err != nil {
		return nil, err
	}
	// app.Open applies the config's debug setting; the flag wins
	if c.debug {
		logging.SetDebug(true)
	}
	c.app = a
	return a.Dashboard, nil
}

func (c *cli) close() {
	if err := c.app.Close(); err != nil {
		logging.Warn("daybook", "failed to close store: %v", err)
	}
	c.app = nil
}

// emit prints v as JSON when --json is set, otherwise calls text
func (c *cli) emit(w io.Writer, v any, text func()) error {
	if !c.jsonOut {
		text()
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "daybook",
		Short:         "Daybook - tasks, streaks and weight in one place",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, dashboardView{Summary: d.Summary(), Tasks: d.VisibleTasks()}, func() {
				printSummary(out, d.Summary())
				fmt.Fprintln(out)
				printTaskList(out, d.VisibleTasks(), d.Calendar())
			})
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Config file (default: $DAYBOOK_CONFIG, <state>/config.yaml, ~/.config/daybook/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.jsonOut, "json", "j", false, "Output as JSON")
	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")

	root.AddCommand(taskCmd(c))
	root.AddCommand(subtaskCmd(c))
	root.AddCommand(historyCmd(c))
	root.AddCommand(streakCmd(c))
	root.AddCommand(weightCmd(c))
	root.AddCommand(themeCmd(c))
	root.AddCommand(summaryCmd(c))
	root.AddCommand(exportCmd(c))
	root.AddCommand(importCmd(c))
	root.AddCommand(logCmd(c))

	return root
}

func main() {
	c := &cli{}
	root := newRootCmd(c)
	err := root.ExecuteContext(context.Background())
	c.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
