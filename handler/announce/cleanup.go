package announce

import (
	"errors"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

const reasonChannelDeleted = "channel deleted"

// Cleanup tears down a session's channel, rows and in-process watch. It is
// the single convergent teardown path for send success, explicit cancel,
// timeout, the durable expiry sweep and external deletion, and is safe to
// invoke redundantly or concurrently: every step is a no-op when its work
// is already done.
func (sv *Service) Cleanup(guildID, channelID, reason string) {
	logger.Debug().Str("channel_id", channelID).Str("reason", reason).Msg("cleaning up announce session")

	if w := sv.watches.remove(channelID); w != nil {
		w.msgSub.Stop()
		w.compSub.Stop()
	}

	if reason != reasonChannelDeleted {
		if ch, err := sv.gateway.Channel(channelID); err == nil && ch != nil {
			if err := sv.gateway.DeleteChannel(channelID); err != nil {
				// Already gone or not deletable by us; rows still go.
				logger.Warn().Str("channel_id", channelID).Err(err).Msg("could not delete session channel")
			}
		}
	}

	if err := sv.store.DeleteByChannel(channelID); err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error().Str("channel_id", channelID).Err(err).Msg("could not delete announce rows")
		sv.notifyErr("announce cleanup", guildID, channelID, "", err)
	}
}

// Cancel ends the session on the owner's request. A cancel that races an
// in-flight send loses: finish refuses the transition while the delivery
// holds the sending state, so the check and the transition are one atomic
// step.
func (sv *Service) Cancel(data *model.AnnounceData) error {
	w := sv.watches.byChannel(data.ChannelID)
	if w != nil && !w.finish(stateCancelled) {
		if w.current() == stateSending {
			return &model.ConcurrencyError{Err: model.ErrSendInProgress}
		}
		return &model.ConcurrencyError{Err: model.ErrAlreadySent}
	}

	logger.Info().Str("announce_id", data.ID).Str("channel_id", data.ChannelID).Msg("announce session cancelled")
	sv.editOrigin(data, "Anúncio cancelado. Canal temporário será removido.")
	sv.Cleanup(data.GuildID, data.ChannelID, "cancelled by user")
	return nil
}

// HandleChannelDelete routes an external deletion of a session channel
// (e.g. a moderator removing it by hand) into the same teardown path the
// timers use. Deletions of unrelated channels fall through silently.
func (sv *Service) HandleChannelDelete(guildID, channelID string) {
	w := sv.watches.byChannel(channelID)
	if w == nil {
		// Could be a session from before a restart; deleting rows that do
		// not exist is harmless.
		sv.Cleanup(guildID, channelID, reasonChannelDeleted)
		return
	}

	w.finish(stateCancelled)
	if data, err := sv.store.GetAnnounceData(w.announceID); err == nil {
		sv.editOrigin(data, "Canal de anúncio removido. A sessão foi encerrada.")
	}
	sv.Cleanup(guildID, channelID, reasonChannelDeleted)
}
