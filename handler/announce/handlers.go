package announce

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/command"
	"github.com/mri-Qbox-Brasil/mri-qbot/handler"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
	"github.com/mri-Qbox-Brasil/mri-qbot/utils"
)

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func announceCommandHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Acknowledge within the 3 second window; the real work runs off the
	// gateway goroutine.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not defer announce response")
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("panic in announce command handler")
				s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
					Content: utils.StringPtr("Ocorreu um erro ao executar o comando."),
				})
			}
		}()

		if i.GuildID == "" {
			s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
				Content: utils.StringPtr("Este comando deve ser usado em um servidor."),
			})
			return
		}

		if !utils.HasPermission(i, command.AnnounceCommand.Name) {
			s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
				Content: utils.StringPtr("Você não tem permissão para usar este comando."),
			})
			return
		}

		// The deferred reply is the origin message: every state transition
		// is echoed back into it.
		originMessageID := i.ID
		if msg, err := s.InteractionResponse(i.Interaction); err == nil && msg != nil {
			originMessageID = msg.ID
		}

		in := StartInput{
			OwnerID:         interactionUserID(i),
			OwnerUsername:   ownerUsername(i),
			OwnerMention:    fmt.Sprintf("<@%s>", interactionUserID(i)),
			GuildID:         i.GuildID,
			OriginChannelID: i.ChannelID,
			OriginMessageID: originMessageID,
		}

		announce, err := svc.Start(in)
		if err != nil {
			var verr *model.ValidationError
			content := "Ocorreu um erro ao executar o comando."
			if errors.As(err, &verr) {
				content = verr.Reason
			} else {
				svc.notifyErr("/announce", i.GuildID, i.ChannelID, in.OwnerID, err)
			}
			s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
				Content: utils.StringPtr(content),
			})
			return
		}

		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: utils.StringPtr(fmt.Sprintf("Canal temporário criado: <#%s>", announce.ChannelID)),
		})
	}()
}

func ownerUsername(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

func componentInteractionHandler(s *discordgo.Session, i *discordgo.InteractionCreate, ctl handler.ControlID) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Error().Str("custom_id", i.MessageComponentData().CustomID).Err(err).Msg("could not defer component response")
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("panic in announce component handler")
				s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
					Content: utils.StringPtr("Ocorreu um erro ao processar sua interação."),
				})
			}
		}()

		content := svc.HandleComponent(i, ctl)
		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: utils.StringPtr(content),
		})
	}()
}

// HandleComponent dispatches a decoded control interaction and returns the
// short status string shown to the user.
func (sv *Service) HandleComponent(i *discordgo.InteractionCreate, ctl handler.ControlID) string {
	data, err := sv.store.GetAnnounceData(ctl.SessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return statusMessage(model.ErrNotFound)
		}
		sv.notifyErr("announce component", i.GuildID, i.ChannelID, interactionUserID(i), err)
		return "Ocorreu um erro ao processar sua interação."
	}

	userID := interactionUserID(i)
	if data.ChannelID != i.ChannelID || data.OwnerID != userID {
		logger.Warn().
			Str("announce_id", data.ID).
			Str("user_id", userID).
			Msg("control interaction from non-owner or wrong channel")
		return "Apenas o autor pode usar estes controles."
	}

	switch {
	case ctl.Action == actionSelect && ctl.Kind == kindChannel:
		values := i.MessageComponentData().Values
		if len(values) == 0 {
			return "Nenhum canal selecionado."
		}
		if err := sv.SelectTarget(data, values[0]); err != nil {
			sv.notifyErr("announce target select", data.GuildID, data.ChannelID, userID, err)
			return statusMessage(err)
		}
		return fmt.Sprintf("Canal selecionado: <#%s>", values[0])

	case ctl.Action == actionButton && ctl.Kind == kindSend:
		if err := sv.Send(data); err != nil {
			var derr *model.DeliveryError
			if errors.As(err, &derr) {
				sv.notifyErr("announce send", data.GuildID, data.ChannelID, userID, err)
			}
			return statusMessage(err)
		}
		return fmt.Sprintf("Anúncio enviado para <#%s>. Canal temporário será removido.", data.AnnounceChannelID)

	case ctl.Action == actionButton && ctl.Kind == kindCancel:
		if err := sv.Cancel(data); err != nil {
			return statusMessage(err)
		}
		return "Anúncio cancelado. Canal temporário será removido."
	}

	logger.Warn().Str("action", ctl.Action).Str("kind", ctl.Kind).Msg("unknown announce control")
	return "Ocorreu um erro ao processar sua interação."
}

// statusMessage maps the error taxonomy to the short generic strings the
// user sees. Full diagnostic context never travels this path.
func statusMessage(err error) string {
	var verr *model.ValidationError
	var derr *model.DeliveryError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Reason
	case errors.Is(err, model.ErrAlreadySent):
		return "Este anúncio já foi enviado."
	case errors.Is(err, model.ErrSendInProgress):
		return "Um envio já está em andamento. Aguarde um instante."
	case errors.Is(err, model.ErrNotFound):
		return "Esta sessão de anúncio não existe mais."
	case errors.As(err, &derr):
		return "Falha ao enviar o anúncio para o canal selecionado."
	default:
		return "Ocorreu um erro ao processar sua interação."
	}
}
