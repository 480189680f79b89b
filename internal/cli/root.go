package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand assembles the drivebridge command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivebridge",
		Short: "One-way, content-aware folder synchronization",
		Long: `drivebridge copies new and modified files from a source folder to a target
folder. Files are compared by MD5 fingerprint, so unchanged files are never
rewritten and files that exist only in the target are left alone.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewSyncCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
