package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-taskmaster/policy"
	"github.com/jrsteele09/go-taskmaster/projects"
	"github.com/jrsteele09/go-taskmaster/transport"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects of an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgFlag, _ := cmd.Flags().GetString("org")

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}
		orgID, err := a.requireOrg(orgFlag)
		if err != nil {
			return err
		}

		list, meta, err := a.projects.List(cmd.Context(), orgID, transport.Page{})
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Printf("%-36s  %s\n", p.ID, p.Name)
		}
		fmt.Printf("%d project(s)\n", meta.Total)
		return nil
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orgFlag, _ := cmd.Flags().GetString("org")
		description, _ := cmd.Flags().GetString("description")

		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}
		orgID, err := a.requireOrg(orgFlag)
		if err != nil {
			return err
		}

		project, err := a.projects.Create(cmd.Context(), orgID, projects.CreateProject{
			Name:        args[0],
			Description: description,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created project %s (%s)\n", project.Name, project.ID)
		return nil
	},
}

var projectStatsCmd = &cobra.Command{
	Use:   "stats PROJECT_ID",
	Short: "Show a project's task rollup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		stats, err := a.projects.GetStats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Tasks:     %d\n", stats.TotalTasks)
		fmt.Printf("Completed: %d\n", stats.CompletedTasks)
		fmt.Printf("Overdue:   %d\n", stats.OverdueTasks)
		fmt.Printf("Rate:      %.0f%%\n", stats.CompletionRate*100)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:     "rm PROJECT_ID",
	Aliases: []string{"delete"},
	Short:   "Delete a project and its tasks (owner or admin)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := getApp()
		if err != nil {
			return err
		}
		if err := a.guard.Require(); err != nil {
			return err
		}

		project, err := a.projects.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		role, _, err := a.viewerRole(cmd.Context(), project.OrganizationID)
		if err != nil {
			return err
		}
		if !policy.CanEditOrganization(role) {
			return fmt.Errorf("role %q cannot delete projects", role)
		}

		if err := a.projects.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Project deleted.")
		return nil
	},
}

func init() {
	projectListCmd.Flags().String("org", "", "organization id (defaults to the active one)")
	projectCreateCmd.Flags().String("org", "", "organization id (defaults to the active one)")
	projectCreateCmd.Flags().String("description", "", "project description")

	projectCmd.AddCommand(projectListCmd, projectCreateCmd, projectStatsCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}
