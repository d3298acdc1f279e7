package announce

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Control identifier vocabulary. Encoded as "<action>_<kind>:<announceID>"
// and decoded once by handler.ParseControlID.
const (
	actionButton = "announceButton"
	actionSelect = "announceSelect"

	kindSend    = "send"
	kindCancel  = "cancel"
	kindChannel = "channel"
)

func controlID(action, kind, announceID string) string {
	return action + "_" + kind + ":" + announceID
}

// buildControlMessage builds the intro embed, the destination picker and
// the Send/Cancel buttons posted into a fresh session channel.
func buildControlMessage(ownerMention, announceID string, expiry time.Time) *discordgo.MessageSend {
	full := fmt.Sprintf("<t:%d:F>", expiry.Unix())
	relative := fmt.Sprintf("<t:%d:R>", expiry.Unix())

	embed := &discordgo.MessageEmbed{
		Title: "Canal de composição de anúncio",
		Description: strings.Join([]string{
			fmt.Sprintf("Olá %s, este é seu canal temporário para compor o anúncio.", ownerMention),
			"Envie a(s) mensagem(ns) que devem compor o anúncio. O sistema usará a última mensagem enviada por você neste canal como rascunho quando você clicar em Enviar.",
			"Você pode editar sua última mensagem antes de clicar em Enviar.",
			"Selecione o canal de destino no menu abaixo e clique em Enviar para postar.",
			"",
			fmt.Sprintf("Este canal será excluído automaticamente em %s (%s).", full, relative),
		}, "\n\n"),
		Color: 0x5865F2,
	}

	minValues := 1
	picker := discordgo.SelectMenu{
		MenuType:    discordgo.ChannelSelectMenu,
		CustomID:    controlID(actionSelect, kindChannel, announceID),
		Placeholder: "Selecione o canal onde o anúncio será postado",
		MinValues:   &minValues,
		MaxValues:   1,
		ChannelTypes: []discordgo.ChannelType{
			discordgo.ChannelTypeGuildText,
			discordgo.ChannelTypeGuildNews,
		},
	}

	return &discordgo.MessageSend{
		Content: ownerMention,
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{picker}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Enviar",
					Style:    discordgo.SuccessButton,
					CustomID: controlID(actionButton, kindSend, announceID),
				},
				discordgo.Button{
					Label:    "Cancelar",
					Style:    discordgo.DangerButton,
					CustomID: controlID(actionButton, kindCancel, announceID),
				},
			}},
		},
	}
}
