package utils

import (
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/config"
	"github.com/mri-Qbox-Brasil/mri-qbot/db"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
)

// HasPermission reports whether the interaction member may run command.
// Grants come from the command_roles table for the guild; when the command
// has no rows there, the configured admin roles apply. Developers always
// pass.
func HasPermission(i *discordgo.InteractionCreate, command string) bool {
	if i.Member == nil || i.Member.User == nil {
		return false
	}

	auth := config.Cfg.Commands.Auth
	if slices.Contains(auth.Developers, i.Member.User.ID) {
		return true
	}

	roleIDs, err := db.GetCommandRoles(i.GuildID, command)
	if err != nil {
		logger.Warn().Str("command", command).Err(err).Msg("could not load command roles")
	}
	if len(roleIDs) == 0 {
		roleIDs = auth.AdminRoles
	}

	for _, role := range i.Member.Roles {
		if slices.Contains(roleIDs, role) {
			return true
		}
	}
	return false
}
