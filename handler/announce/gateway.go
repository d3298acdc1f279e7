package announce

import (
	"github.com/bwmarrin/discordgo"
)

// discordGateway adapts a discordgo session to the Gateway interface.
type discordGateway struct {
	s *discordgo.Session
}

// NewGateway wraps a connected discordgo session.
func NewGateway(s *discordgo.Session) Gateway {
	return &discordGateway{s: s}
}

func (g *discordGateway) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	return g.s.GuildChannelCreateComplex(guildID, data)
}

func (g *discordGateway) DeleteChannel(channelID string) error {
	_, err := g.s.ChannelDelete(channelID)
	return err
}

func (g *discordGateway) Channel(channelID string) (*discordgo.Channel, error) {
	return g.s.Channel(channelID)
}

func (g *discordGateway) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return g.s.ChannelMessageSendComplex(channelID, msg)
}

func (g *discordGateway) EditMessage(channelID, messageID, content string) error {
	_, err := g.s.ChannelMessageEdit(channelID, messageID, content)
	return err
}

func (g *discordGateway) LatestMessage(channelID string) (*discordgo.Message, error) {
	msgs, err := g.s.ChannelMessages(channelID, 1, "", "", "")
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}
