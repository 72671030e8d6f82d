package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"taskdeck/internal/app"
	"taskdeck/internal/query"
	"taskdeck/internal/task"
)

var (
	cliSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cliErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	cliInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	cliMutedStyle   = lipgloss.NewStyle().Faint(true)
	cliDoneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	cliHighStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// cliView renders the controller's output to stdout for the headless verbs.
// It captures the projection so index arguments resolve against what ls
// prints.
type cliView struct {
	items []*task.Item
	stats query.Stats
}

func (v *cliView) RenderList(items []*task.Item) { v.items = items }

func (v *cliView) RenderStats(stats query.Stats) { v.stats = stats }

func (v *cliView) Notify(severity app.Severity, message string) {
	switch severity {
	case app.SeverityError:
		fmt.Fprintln(os.Stderr, cliErrorStyle.Render("✖ "+message))
	case app.SeverityInfo:
		fmt.Println(cliInfoStyle.Render("• " + message))
	default:
		fmt.Println(cliSuccessStyle.Render("✔ " + message))
	}
}

// Begin is a no-op: there is no edit modal outside the TUI.
func (v *cliView) Begin(*task.Item) {}

func (v *cliView) printList() {
	if len(v.items) == 0 {
		fmt.Println(cliMutedStyle.Render("nothing to show"))
		return
	}
	for i, it := range v.items {
		checkbox := "☐"
		if it.Done {
			checkbox = "☑"
		}
		line := fmt.Sprintf("%2d %s %-4s %s", i+1, checkbox, it.Priority, it.Text)
		if it.Done {
			line = cliDoneStyle.Render(line)
		} else if it.Priority == task.PriorityHigh {
			line = cliHighStyle.Render(line)
		}
		fmt.Println(line)
	}
	fmt.Println(cliMutedStyle.Render(progressLine(v.stats)))
}

func progressLine(st query.Stats) string {
	const width = 28
	total := st.Total
	if total == 0 {
		total = 1
	}
	filled := st.Completed * width / total
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) +
		fmt.Sprintf("] %d/%d done", st.Completed, st.Total)
}

// resolveIndex maps a 1-based ls index to an item id.
func (v *cliView) resolveIndex(arg string) (string, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return "", fmt.Errorf("not a number: %s", arg)
	}
	if n < 1 || n > len(v.items) {
		return "", fmt.Errorf("index out of range: have %d, got %d", len(v.items), n)
	}
	return v.items[n-1].ID, nil
}

func newAddCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := &cliView{}
			c, err := setup(view, view)
			if err != nil {
				return err
			}
			defer c.close()
			c.bus.Publish(app.EventAdd, app.AddPayload{
				Text:     strings.Join(args, " "),
				Priority: priority,
			})
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "medium", "high, medium or low")
	return cmd
}

func newListCmd() *cobra.Command {
	var filter, sortName, search string
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := &cliView{}
			c, err := setup(view, view)
			if err != nil {
				return err
			}
			defer c.close()
			if filter != "" {
				c.bus.Publish(app.EventFilterChange, app.FilterChangePayload{Name: filter})
			}
			if sortName != "" {
				c.bus.Publish(app.EventSortChange, app.SortChangePayload{Name: sortName})
			}
			if search != "" {
				c.bus.Publish(app.EventSearchChange, app.SearchChangePayload{Query: search})
			}
			c.ctrl.Refresh()
			view.printList()
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "all, active or completed")
	cmd.Flags().StringVarP(&sortName, "sort", "s", "", "newest, oldest or priority")
	cmd.Flags().StringVarP(&search, "search", "q", "", "substring to search for")
	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <index>",
		Aliases: []string{"done"},
		Short:   "Toggle done for the task at a 1-based ls index",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := &cliView{}
			c, err := setup(view, view)
			if err != nil {
				return err
			}
			defer c.close()
			c.ctrl.Refresh()
			id, err := view.resolveIndex(args[0])
			if err != nil {
				return err
			}
			c.bus.Publish(app.EventToggle, app.TogglePayload{ID: id})
			view.Notify(app.SeveritySuccess, "Toggled")
			return nil
		},
	}
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <index>",
		Short: "Remove the task at a 1-based ls index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view := &cliView{}
			c, err := setup(view, view)
			if err != nil {
				return err
			}
			defer c.close()
			c.ctrl.Refresh()
			id, err := view.resolveIndex(args[0])
			if err != nil {
				return err
			}
			c.bus.Publish(app.EventDelete, app.DeletePayload{ID: id})
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view := &cliView{}
			c, err := setup(view, view)
			if err != nil {
				return err
			}
			defer c.close()
			c.bus.Publish(app.EventBulkClear, nil)
			return nil
		},
	}
}
