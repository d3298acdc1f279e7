package utils

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/config"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
)

// NotifyContext identifies where an error happened.
type NotifyContext struct {
	Context   string
	GuildID   string
	ChannelID string
	UserID    string
}

func fieldOr(value string) string {
	if value == "" {
		return "Não disponível"
	}
	return value
}

// NotifyError forwards full diagnostic context to the operator channel, or
// to the owner's DMs when no channel is configured. End users only ever see
// short generic status strings; this is where the details go.
func NotifyError(s *discordgo.Session, ctx NotifyContext, err error) {
	logger.Error().
		Str("context", ctx.Context).
		Str("guild_id", ctx.GuildID).
		Str("channel_id", ctx.ChannelID).
		Str("user_id", ctx.UserID).
		Err(err).
		Msg("erro detectado")

	if s == nil {
		return
	}

	message := "Sem informação de erro"
	if err != nil {
		message = Truncate(err.Error(), 1024)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🚨 Erro no Bot",
		Description: "Um erro foi detectado durante a execução de uma ação no bot.",
		Color:       0xFF0000,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Contexto", Value: "`" + fieldOr(ctx.Context) + "`", Inline: true},
			{Name: "Usuário", Value: fieldOr(ctx.UserID), Inline: true},
			{Name: "Canal", Value: fieldOr(ctx.ChannelID), Inline: true},
			{Name: "Servidor", Value: fieldOr(ctx.GuildID), Inline: true},
			{Name: "Mensagem de erro", Value: "```\n" + message + "\n```"},
		},
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Erro monitorado automaticamente"},
	}

	if channelID := config.Cfg.Notify.ChannelID; channelID != "" {
		_, sendErr := s.ChannelMessageSendEmbed(channelID, embed)
		if sendErr == nil {
			return
		}
		logger.Error().Err(sendErr).Msg("erro ao enviar notificação para o canal de operadores")
	}

	ownerID := config.Cfg.Notify.OwnerID
	if ownerID == "" {
		return
	}
	dm, dmErr := s.UserChannelCreate(ownerID)
	if dmErr != nil {
		logger.Error().Err(dmErr).Msg("erro ao abrir DM com o dono do bot")
		return
	}
	if _, dmErr := s.ChannelMessageSendEmbed(dm.ID, embed); dmErr != nil {
		logger.Error().Err(dmErr).Msg("erro ao enviar DM de erro")
	}
}

// DiscordNotifier satisfies the announce.Notifier interface on top of
// NotifyError.
type DiscordNotifier struct {
	Session *discordgo.Session
}

func (n *DiscordNotifier) NotifyError(context, guildID, channelID, userID string, err error) {
	NotifyError(n.Session, NotifyContext{
		Context:   context,
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
	}, err)
}
