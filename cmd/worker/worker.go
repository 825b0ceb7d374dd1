package worker

import "github.com/spf13/cobra"

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background consumers",
	}
	// attach subcommands
	cmd.AddCommand(activityCmd)
	cmd.AddCommand(notifierCmd)

	return cmd
}
