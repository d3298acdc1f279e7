package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/handler"
	"github.com/mri-Qbox-Brasil/mri-qbot/handler/announce"
)

func registerEventHandlers(s *discordgo.Session, svc *announce.Service) {
	s.AddHandler(handler.OnInteractionCreate)

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author != nil && m.Author.ID == s.State.User.ID {
			return
		}
		svc.HandleMessageCreate(m.Message)
	})

	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		svc.HandleMessageUpdate(m.Message)
	})

	s.AddHandler(func(s *discordgo.Session, c *discordgo.ChannelDelete) {
		svc.HandleChannelDelete(c.GuildID, c.ID)
	})
}
