package cmd

import (
	"github.com/spf13/cobra"

	"github.com/f5vmr/svxlinkstreaming"
)

func init() {
	command := &cobra.Command{
		Use:   "check",
		Short: "check that the icecast server answers",
		Args:  cobra.NoArgs,
		RunE:  svxlinkstreaming.Service.CheckCommand,
	}

	rootCmd.AddCommand(command)
}
