package main

import (
	"os"

	"github.com/mri-Qbox-Brasil/mri-qbot/bot"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
)

func main() {
	if err := bot.Start(); err != nil {
		logger.Error().Err(err).Msg("bot exited with error")
		os.Exit(1)
	}
}
