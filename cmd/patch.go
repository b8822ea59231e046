package cmd

import (
	"github.com/spf13/cobra"

	"github.com/f5vmr/svxlinkstreaming"
)

func init() {
	command := &cobra.Command{
		Use:   "patch",
		Short: "only rewrite the configuration files",
		Long: `Runs the patch steps of setup against existing files. Nothing
is installed and no service is restarted.`,
		Args: cobra.NoArgs,
		RunE: svxlinkstreaming.Service.PatchCommand,
	}

	rootCmd.AddCommand(command)
}
