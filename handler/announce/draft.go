package announce

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

func attachmentRefs(attachments []*discordgo.MessageAttachment) []model.Attachment {
	if len(attachments) == 0 {
		return nil
	}
	refs := make([]model.Attachment, 0, len(attachments))
	for _, att := range attachments {
		refs = append(refs, model.Attachment{URL: att.URL, Filename: att.Filename})
	}
	return refs
}

// HandleMessageCreate captures every owner-authored message in a session
// channel as the current draft. Last writer wins; content and attachments
// are overwritten wholesale, never merged.
func (sv *Service) HandleMessageCreate(m *discordgo.Message) {
	w := sv.watches.byChannel(m.ChannelID)
	if w == nil || m.Author == nil || m.Author.ID != w.ownerID {
		return
	}
	if !w.msgSub.Active() || w.current().terminal() {
		return
	}
	sv.captureDraft(w, m)
}

// HandleMessageUpdate applies an edit only while the edited message is
// still the channel's most recent one. An edit to an older message must not
// resurrect a stale draft after a newer message replaced it.
func (sv *Service) HandleMessageUpdate(m *discordgo.Message) {
	w := sv.watches.byChannel(m.ChannelID)
	if w == nil || m.Author == nil || m.Author.ID != w.ownerID {
		return
	}
	if !w.msgSub.Active() || w.current().terminal() {
		return
	}

	latest, err := sv.gateway.LatestMessage(w.channelID)
	if err != nil {
		logger.Warn().Str("announce_id", w.announceID).Err(err).Msg("could not fetch latest message for edit check")
		return
	}
	if latest == nil || latest.ID != m.ID {
		logger.Debug().Str("announce_id", w.announceID).Str("message_id", m.ID).Msg("ignoring edit to stale draft")
		return
	}
	sv.captureDraft(w, m)
}

func (sv *Service) captureDraft(w *watch, m *discordgo.Message) {
	err := sv.store.UpdateDraft(w.announceID, m.Content, attachmentRefs(m.Attachments))
	if err != nil {
		// The row may be gone if cleanup raced this event; anything else
		// is worth the operators' attention.
		if errors.Is(err, model.ErrNotFound) {
			return
		}
		logger.Error().Str("announce_id", w.announceID).Err(err).Msg("could not persist draft")
		sv.notifyErr("announce draft capture", w.guildID, w.channelID, w.ownerID, err)
		return
	}
	logger.Debug().Str("announce_id", w.announceID).Str("message_id", m.ID).Msg("draft captured")
}
