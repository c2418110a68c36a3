package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/dashboard"
)

func themeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [dark|light|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{config.ThemeDark, config.ThemeLight, "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			theme := d.Theme()
			if len(args) == 1 {
				switch v := strings.ToLower(args[0]); v {
				case "toggle":
					theme, err = d.ToggleTheme(cmd.Context())
				default:
					theme, err = v, d.SetTheme(cmd.Context(), v)
				}
				if err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			return c.emit(out, map[string]string{"theme": theme}, func() {
				fmt.Fprintf(out, "Theme: %s\n", theme)
			})
		},
	}
}

func logCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the activity journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			journal := c.app.Activity
			if journal == nil {
				return errors.New("activity log is disabled (activity_log: false)")
			}

			flags := cmd.Flags()
			limit, _ := flags.GetInt("limit")
			typ, _ := flags.GetString("type")
			query, _ := flags.GetString("search")
			today, _ := flags.GetBool("today")

			var entries []activity.Entry
			switch {
			case typ != "":
				entries, err = journal.ByType(activity.Type(typ), limit)
			case query != "":
				entries, err = journal.Search(query, limit)
			case today:
				entries, err = journal.On(d.Calendar().Today(), d.Calendar().Loc)
			default:
				entries, err = journal.Recent(limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			return c.emit(out, entries, func() {
				if len(entries) == 0 {
					fmt.Fprintln(out, "No activity.")
					return
				}
				loc := d.Calendar().Loc
				for _, e := range entries {
					ts := e.Timestamp
					if loc != nil {
						ts = ts.In(loc)
					}
					fmt.Fprintf(out, "  %s  %-15s  %s\n", ts.Format("2006-01-02 15:04"), e.Type, e.Summary)
				}
			})
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Show at most this many")
	cmd.Flags().StringP("type", "t", "", "Only this entry type (task_completed, weight, ...)")
	cmd.Flags().StringP("search", "s", "", "Only entries mentioning this text")
	cmd.Flags().Bool("today", false, "Only today's entries")
	return cmd
}

// formatOf picks the export format from the flag, then the file extension
func formatOf(flag, path string) string {
	if flag != "" {
		return strings.ToLower(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return dashboard.FormatYAML
	}
	return dashboard.FormatJSON
}

func exportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write every task, weigh-in, streak and theme to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			f, _ := cmd.Flags().GetString("format")
			data, err := d.Snapshot().Encode(formatOf(f, path))
			if err != nil {
				return err
			}
			if path == "" || path == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "json or yaml (default from the file extension, else json)")
	return cmd
}

func importCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with an exported snapshot ('-' reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			path := args[0]
			var data []byte
			if path == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}

			f, _ := cmd.Flags().GetString("format")
			snap, err := dashboard.DecodeSnapshot(data, formatOf(f, path))
			if err != nil {
				return err
			}
			if err := d.Restore(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks and %d weigh-ins\n", len(d.Tasks()), len(d.Weights()))
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "json or yaml (default from the file extension, else json)")
	return cmd
}
