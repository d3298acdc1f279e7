package def

import "github.com/bwmarrin/discordgo"

var AnnounceCommand = &discordgo.ApplicationCommand{
	Name:        "announce",
	Description: "Cria um canal temporário para compor e enviar um anúncio.",
}
