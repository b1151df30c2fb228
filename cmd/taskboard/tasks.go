package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/steveyegge/taskboard/internal/board"
	"github.com/steveyegge/taskboard/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "board",
	Short:   "Show the board",
	Long:    `Show the merged board: tasks from both partitions, grouped by column.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		eng := newEngine(cmd.Context(), cfg, db)
		tasks := eng.Tasks()

		columns := map[board.Status][]board.Task{}
		for _, t := range tasks {
			columns[t.Status] = append(columns[t.Status], t)
		}

		for _, status := range []board.Status{
			board.StatusTodo, board.StatusInProgress, board.StatusReview, board.StatusDone,
		} {
			col := columns[status]
			sort.Slice(col, func(i, j int) bool { return col[i].CreatedAt.Before(col[j].CreatedAt) })

			fmt.Printf("\n%s (%d)\n", ui.RenderStatus(status), len(col))
			for _, t := range col {
				line := fmt.Sprintf("  %s  %s [%s]", ui.RenderDim(shortID(t.ID)), t.Title, ui.RenderPriority(t.Priority))
				if t.Assignee != nil {
					line += fmt.Sprintf("  @%s", t.Assignee.Name)
				}
				if t.Committee != "" {
					line += fmt.Sprintf("  (%s)", t.Committee)
				}
				if t.DueAt != nil {
					line += fmt.Sprintf("  due %s", t.DueAt.Format("2006-01-02"))
				}
				fmt.Println(line)
			}
		}
		fmt.Println()
		return nil
	},
}

var (
	createTitle       string
	createDescription string
	createPriority    string
	createProject     string
	createAssignee    string
	createDue         string
	createStatus      string
)

var createCmd = &cobra.Command{
	Use:     "create",
	GroupID: "board",
	Short:   "Create a task",
	Long: `Create a task.

Without --title, an interactive form collects the fields. Ad-hoc tasks go
to the unscoped partition; passing --project creates a project-scoped task.
Due dates accept RFC3339 timestamps, YYYY-MM-DD, or natural language like
"next friday".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		if createTitle == "" {
			if err := createForm(); err != nil {
				return err
			}
		}

		draft := board.Task{
			Title:       createTitle,
			Description: createDescription,
			Status:      board.Status(createStatus),
			Priority:    board.Priority(createPriority),
			ProjectID:   createProject,
			AssigneeID:  createAssignee,
		}
		if createDue != "" {
			due, err := parseDueInput(createDue)
			if err != nil {
				return err
			}
			draft.DueAt = due.Value()
		}

		eng := newEngine(cmd.Context(), cfg, db)
		created, err := eng.CreateTask(cmd.Context(), draft)
		if err != nil {
			return err
		}
		eng.Wait()

		fmt.Printf("%s Created %s: %s\n", ui.RenderPass("✓"), shortID(created.ID), created.Title)
		return nil
	},
}

// createForm collects the create fields interactively.
func createForm() error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&createTitle).
				Validate(func(s string) error {
					if s == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Value(&createDescription),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("low", string(board.PriorityLow)),
					huh.NewOption("medium", string(board.PriorityMedium)),
					huh.NewOption("high", string(board.PriorityHigh)),
				).
				Value(&createPriority),
			huh.NewInput().
				Title("Due (optional)").
				Value(&createDue),
		),
	).Run()
}

var moveCmd = &cobra.Command{
	Use:     "move <id> <status>",
	GroupID: "board",
	Short:   "Move a task to another column",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		eng := newEngine(cmd.Context(), cfg, db)
		if err := eng.Move(cmd.Context(), args[0], board.Status(args[1])); err != nil {
			return err
		}
		eng.Wait()

		fmt.Printf("%s Moved %s to %s\n", ui.RenderPass("✓"), shortID(args[0]), ui.RenderStatus(board.Status(args[1])))
		return nil
	},
}

var (
	updateTitle       string
	updateDescription string
	updateStatus      string
	updatePriority    string
	updateAssignee    string
	updateDue         string
	updateClearDue    bool
)

var updateCmd = &cobra.Command{
	Use:     "update <id>",
	GroupID: "board",
	Short:   "Update task fields",
	Long: `Update task fields. Only the flags you pass change; everything else
is left untouched. --clear-due removes the due date, which is different
from not passing --due at all.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		var u board.Update
		flags := cmd.Flags()
		if flags.Changed("title") {
			u.Title = &updateTitle
		}
		if flags.Changed("description") {
			u.Description = &updateDescription
		}
		if flags.Changed("status") {
			s := board.Status(updateStatus)
			u.Status = &s
		}
		if flags.Changed("priority") {
			p := board.Priority(updatePriority)
			u.Priority = &p
		}
		if flags.Changed("assignee") {
			u.AssigneeID = &updateAssignee
		}
		if updateClearDue {
			u.Due = board.DueCleared()
		} else if flags.Changed("due") {
			due, err := parseDueInput(updateDue)
			if err != nil {
				return err
			}
			u.Due = due
		}

		eng := newEngine(cmd.Context(), cfg, db)
		if err := eng.Update(cmd.Context(), args[0], u); err != nil {
			return err
		}
		eng.Wait()

		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), shortID(args[0]))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	GroupID: "board",
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		eng := newEngine(cmd.Context(), cfg, db)
		if err := eng.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		eng.Wait()

		fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), shortID(args[0]))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "daemon",
	Short:   "Show store status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg)
		defer db.Close()

		counts, err := db.StatusCounts(context.Background())
		if err != nil {
			return err
		}

		total := 0
		for _, n := range counts {
			total += n
		}

		fmt.Printf("\n%s Store: %s\n", ui.RenderAccent("●"), cfg.StorePath)
		fmt.Printf("   Tasks: %d\n", total)
		for _, status := range []board.Status{
			board.StatusTodo, board.StatusInProgress, board.StatusReview, board.StatusDone,
		} {
			fmt.Printf("   %-12s %d\n", ui.RenderStatus(status), counts[status])
		}
		fmt.Println()
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createTitle, "title", "", "task title")
	createCmd.Flags().StringVar(&createDescription, "description", "", "task description")
	createCmd.Flags().StringVar(&createPriority, "priority", string(board.PriorityMedium), "priority: low, medium, high")
	createCmd.Flags().StringVar(&createProject, "project", "", "owning project id (creates a project-scoped task)")
	createCmd.Flags().StringVar(&createAssignee, "assignee", "", "assignee user id")
	createCmd.Flags().StringVar(&createDue, "due", "", "due date")
	createCmd.Flags().StringVar(&createStatus, "status", string(board.StatusTodo), "board column")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "task title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "task description")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "board column")
	updateCmd.Flags().StringVar(&updatePriority, "priority", "", "priority: low, medium, high")
	updateCmd.Flags().StringVar(&updateAssignee, "assignee", "", "assignee user id")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "due date")
	updateCmd.Flags().BoolVar(&updateClearDue, "clear-due", false, "remove the due date")
}

// parseDueInput turns a flag value into a due date. RFC3339 and YYYY-MM-DD
// are tried first; anything else goes through natural-language parsing.
func parseDueInput(s string) (board.DueDate, error) {
	if due, err := board.ParseDue(s); err == nil {
		return due, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(s, time.Now())
	if err != nil || r == nil {
		return board.DueDate{}, fmt.Errorf("could not parse due date %q", s)
	}
	return board.DueOn(r.Time), nil
}

// shortID abbreviates a store-assigned id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
