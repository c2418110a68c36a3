package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/tasks"
)

func taskCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Manage tasks",
	}
	cmd.AddCommand(taskAddCmd(c))
	cmd.AddCommand(taskListCmd(c))
	cmd.AddCommand(taskDoneCmd(c))
	cmd.AddCommand(taskEditCmd(c))
	cmd.AddCommand(taskRmCmd(c))
	cmd.AddCommand(taskMoveCmd(c))
	cmd.AddCommand(taskShowCmd(c))
	return cmd
}

func taskAddCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Example: `  daybook task add "Pay rent" --due 2024-04-01 --repeat monthly
  daybook task add "Call mom" --due tomorrow`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			due, _ := cmd.Flags().GetString("due")
			notes, _ := cmd.Flags().GetString("notes")
			repeat, _ := cmd.Flags().GetString("repeat")

			n := tasks.NewTask{Text: strings.Join(args, " "), Notes: notes, RecurrenceRule: repeat}
			if due != "" {
				day, err := parseDay(due, d.Calendar())
				if err != nil {
					return err
				}
				n.DueDate = &day
			}
			t, err := d.AddTask(cmd.Context(), n)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, t, func() {
				fmt.Fprintf(out, "Added: %s  #%d\n", t.Text, t.ID)
			})
		},
	}
	cmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringP("notes", "n", "", "Notes")
	cmd.Flags().StringP("repeat", "r", "", "Recurrence (RRULE or daily, weekly, monthly, 'every 2 weeks', ...)")
	return cmd
}

func taskListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks and today's completions",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			all, _ := cmd.Flags().GetBool("all")
			list := d.VisibleTasks()
			if all {
				list = d.Tasks()
			}
			out := cmd.OutOrStdout()
			return c.emit(out, list, func() {
				if all {
					for i, t := range list {
						printTaskLine(out, i+1, t)
					}
					return
				}
				printTaskList(out, list, d.Calendar())
			})
		},
	}
	cmd.Flags().BoolP("all", "a", false, "Every task in stored order, including old completions")
	return cmd
}

func taskDoneCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "done <task> [subtask]",
		Aliases: []string{"toggle"},
		Short:   "Toggle a task, or one of its subtasks",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			var subID tasks.ID
			if len(args) == 2 {
				s, err := resolveSubtask(t, args[1])
				if err != nil {
					return err
				}
				subID = s.ID
			}
			t, err = d.ToggleTask(cmd.Context(), t.ID, subID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, t, func() {
				if subID != 0 {
					s, _ := t.Subtask(subID)
					fmt.Fprintf(out, "%s %s (%s)\n", checkbox(s.Completed), s.Text, t.Text)
				} else {
					fmt.Fprintf(out, "%s %s\n", checkbox(t.Completed), t.Text)
				}
				if t.Completed {
					st := d.Streak()
					fmt.Fprintf(out, "Streak: %d %s\n", st.Count, plural(st.Count, "day", "days"))
				}
			})
		},
	}
}

func taskEditCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <task>",
		Short: "Edit a task's text, due date, notes or recurrence",
		Long: `Edit a task. Only the flags given are changed.
Pass --due none or --repeat none to clear a field.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}

			var p tasks.Patch
			flags := cmd.Flags()
			if flags.Changed("text") {
				v, _ := flags.GetString("text")
				p.Text = &v
			}
			if flags.Changed("notes") {
				v, _ := flags.GetString("notes")
				p.Notes = &v
			}
			if flags.Changed("due") {
				v, _ := flags.GetString("due")
				day := dates.Date{}
				if !isNone(v) {
					if day, err = parseDay(v, d.Calendar()); err != nil {
						return err
					}
				}
				p.DueDate = &day
			}
			if flags.Changed("repeat") {
				v, _ := flags.GetString("repeat")
				if isNone(v) {
					v = ""
				}
				p.RecurrenceRule = &v
			}

			t, err = d.UpdateTask(cmd.Context(), t.ID, p)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, t, func() {
				printTaskDetail(out, t, d.Calendar().Today())
			})
		},
	}
	cmd.Flags().String("text", "", "New text")
	cmd.Flags().StringP("due", "d", "", "New due date, or none")
	cmd.Flags().StringP("notes", "n", "", "New notes")
	cmd.Flags().StringP("repeat", "r", "", "New recurrence, or none")
	return cmd
}

func isNone(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "none"
}

func taskRmCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <task>",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			if err := d.DeleteTask(cmd.Context(), t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", t.Text)
			return nil
		},
	}
}

func taskMoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "move <task> <position>",
		Short: "Move a task to a position in the stored order",
		Long: `Move a task to a position in the stored order.

<task> is a task ID or a position, and <position> is the new 1-based position.
Both positions count in the stored order that "task list --all" numbers,
not the grouped order of the default list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTaskIn(d, args[0], d.Tasks())
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q", args[1])
			}
			if err := d.MoveTask(cmd.Context(), t.ID, pos-1); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved: %s\n", t.Text)
			return nil
		},
	}
}

func taskShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task>",
		Short: "Show a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, t, func() {
				printTaskDetail(out, t, d.Calendar().Today())
			})
		},
	}
}

func subtaskCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subtask",
		Aliases: []string{"sub"},
		Short:   "Manage a task's checklist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task> <text>",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			s, err := d.AddSubtask(cmd.Context(), t.ID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, s, func() {
				fmt.Fprintf(out, "Added to %s: %s  #%d\n", t.Text, s.Text, s.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "done <task> <subtask>",
		Short: "Toggle a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return taskDoneCmd(c).RunE(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <task> <subtask> <text>",
		Short: "Change a subtask's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			s, err := resolveSubtask(t, args[1])
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			t, err = d.UpdateSubtask(cmd.Context(), t.ID, s.ID, tasks.SubtaskPatch{Text: &text})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return c.emit(out, t, func() {
				printTaskDetail(out, t, d.Calendar().Today())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <task> <subtask>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.dashboard(cmd.Context())
			if err != nil {
				return err
			}
			t, err := resolveTask(d, args[0])
			if err != nil {
				return err
			}
			s, err := resolveSubtask(t, args[1])
			if err != nil {
				return err
			}
			if err := d.DeleteSubtask(cmd.Context(), t.ID, s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask: %s\n", s.Text)
			return nil
		},
	})

	return cmd
}
