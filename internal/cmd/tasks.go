package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-taskmaster/internal/utils"
	"github.com/jrsteele09/go-taskmaster/tasks"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List a project's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		statusFlag, _ := cmd.Flags().GetStringSlice("status")
		priorityFlag, _ := cmd.Flags().GetStringSlice("priority")
		search, _ := cmd.Flags().GetString("search")
		openOnly, _ := cmd.Flags().GetBool("open")

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		filters := tasks.Filters{
			Search:    search,
			SortBy:    tasks.SortByDueDate,
			SortOrder: "ASC",
		}
		for _, s := range statusFlag {
			filters.Status = append(filters.Status, tasks.Status(s))
		}
		for _, p := range priorityFlag {
			filters.Priority = append(filters.Priority, tasks.Priority(p))
		}
		if openOnly {
			filters.IsCompleted = utils.Ptr(false)
		}

		list, meta, err := a.tasks.List(cmd.Context(), args[0], filters)
		if err != nil {
			return err
		}
		for _, t := range list {
			due := ""
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			done := " "
			if t.IsCompleted {
				done = "x"
			}
			fmt.Printf("[%s] %-36s  %-11s %-6s %-10s %s\n", done, t.ID, t.Status, t.Priority, due, t.Title)
		}
		fmt.Printf("%d task(s)\n", meta.Total)
		return nil
	},
}

var taskCreateCmd = &cobra.Command{
	Use:   "create PROJECT_ID TITLE",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority, _ := cmd.Flags().GetString("priority")
		due, _ := cmd.Flags().GetString("due")
		assignee, _ := cmd.Flags().GetString("assignee")

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		task, err := a.tasks.Create(cmd.Context(), args[0], tasks.CreateTask{
			Title:      strings.Join(args[1:], " "),
			Priority:   tasks.Priority(priority),
			DueDate:    due,
			AssigneeID: assignee,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created task %s (%s)\n", task.Title, task.ID)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done TASK_ID",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		task, err := a.tasks.Update(cmd.Context(), args[0], tasks.UpdateTask{
			Status:      utils.Ptr(tasks.StatusDone),
			IsCompleted: utils.Ptr(true),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Done: %s\n", task.Title)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:     "rm TASK_ID",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		if err := a.tasks.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Task deleted.")
		return nil
	},
}

func init() {
	taskListCmd.Flags().StringSlice("status", nil, "filter by status (todo, in_progress, review, done, archived)")
	taskListCmd.Flags().StringSlice("priority", nil, "filter by priority (low, medium, high, urgent)")
	taskListCmd.Flags().String("search", "", "search in title and description")
	taskListCmd.Flags().Bool("open", false, "only incomplete tasks")

	taskCreateCmd.Flags().String("priority", "", "task priority")
	taskCreateCmd.Flags().String("due", "", "due date (RFC 3339 or YYYY-MM-DD)")
	taskCreateCmd.Flags().String("assignee", "", "assignee user id")

	taskCmd.AddCommand(taskListCmd, taskCreateCmd, taskDoneCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
