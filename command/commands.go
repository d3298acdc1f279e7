package command

import (
	"github.com/mri-Qbox-Brasil/mri-qbot/command/def"

	"github.com/bwmarrin/discordgo"
)

// AnnounceCommand opens an announcement composition session.
var AnnounceCommand = def.AnnounceCommand

// AllCommands contains all of the commands
var AllCommands = []*discordgo.ApplicationCommand{
	def.AnnounceCommand,
}
