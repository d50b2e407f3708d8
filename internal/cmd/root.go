package cmd

import (
	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "taskmaster",
	Short: "TaskMaster project and task management client",
	Long: `taskmaster is a client for the TaskMaster backend: organizations,
projects, tasks, members and role-based permissions, driven from the terminal.

Credentials are stored durably in the data folder (default ~/.taskmaster) and
refreshed automatically when the backend reports an expired access token.`,
	Run: func(cmd *cobra.Command, args []string) {
		figure.NewFigure("TaskMaster", "cybermedium", true).Print()
		_ = cmd.Help()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
