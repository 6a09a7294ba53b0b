package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var RootCmd = &cobra.Command{
	Use:     "shareporter",
	Version: Version,
	Short:   "Share transfer scheduler for 115 drives",
	Long: `Shareporter watches 115 share links and transfers their content into a
category-organized drive tree, renaming the result and asking the index
service to rescan it. Tasks run manually or on cron schedules.`,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
