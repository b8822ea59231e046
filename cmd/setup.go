package cmd

import (
	"github.com/spf13/cobra"

	"github.com/f5vmr/svxlinkstreaming"
)

func init() {
	command := &cobra.Command{
		Use:   "setup",
		Short: "install, patch and start the streaming stack",
		Long: `Installs darkice and icecast2, seeds and patches the darkice
configuration, remaps the svxlink transmitter to the stream, rebrands the
icecast templates, registers darkice to start on boot, restarts the services
and checks that the stream answers.`,
		Args: cobra.NoArgs,
		RunE: svxlinkstreaming.Service.SetupCommand,
	}

	rootCmd.AddCommand(command)
}
