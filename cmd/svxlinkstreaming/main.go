package main

import (
	"github.com/rs/zerolog/log"

	"github.com/f5vmr/svxlinkstreaming/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("failed to execute command")
	}
}
