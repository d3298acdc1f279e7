package announce

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// StartInput are the identifiers the command surface hands to Start. The
// origin message is where status updates are echoed as the session moves
// through its states.
type StartInput struct {
	OwnerID         string
	OwnerUsername   string
	OwnerMention    string
	GuildID         string
	OriginChannelID string
	OriginMessageID string
}

// deriveChannelName builds the deterministic per-owner channel name, e.g.
// "anuncio-maria-4821". The unique index on (guild_id, channel_name) is
// what keeps a user from opening two sessions at once.
func deriveChannelName(username, userID string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, strings.ToLower(username))
	tail := userID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return fmt.Sprintf("anuncio-%s-%s", sanitized, tail)
}

// Start creates a session: the ephemeral channel restricted to the owner
// and the bot, the persisted rows, the control surface and the two
// TTL-bounded subscriptions. It fails with a ValidationError when the owner
// already has a session open in the guild.
func (sv *Service) Start(in StartInput) (*model.Announce, error) {
	channelName := deriveChannelName(in.OwnerUsername, in.OwnerID)

	existing, err := sv.store.GetAnnounceByName(in.GuildID, channelName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &model.ValidationError{
			Reason: "Um canal temporário de anúncio com seu nome já existe. Por favor, finalize ou cancele o anúncio existente antes de criar outro.",
		}
	}

	expiry := time.Now().Add(sv.cfg.Timeout)
	topic := fmt.Sprintf("Canal temporário de anúncio criado por %s. Será removido automaticamente em <t:%d:F> (<t:%d:R>).",
		in.OwnerUsername, expiry.Unix(), expiry.Unix())

	channel, err := sv.gateway.CreateChannel(in.GuildID, discordgo.GuildChannelCreateData{
		Name:                 channelName,
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                topic,
		PermissionOverwrites: sv.sessionOverwrites(in.GuildID, in.OwnerID),
	})
	if err != nil {
		return nil, fmt.Errorf("creating session channel: %w", err)
	}

	announce := &model.Announce{
		ID:          uuid.New().String(),
		GuildID:     in.GuildID,
		ChannelID:   channel.ID,
		ChannelName: channelName,
		ExpiryDate:  expiry,
	}
	data := &model.AnnounceData{
		ID:           announce.ID,
		GuildID:      in.GuildID,
		ChannelID:    channel.ID,
		OwnerID:      in.OwnerID,
		CmdChannelID: in.OriginChannelID,
		CmdMessageID: in.OriginMessageID,
	}

	if err := sv.store.CreateAnnounce(announce, data); err != nil {
		// The channel is externally visible already; take it back down.
		if delErr := sv.gateway.DeleteChannel(channel.ID); delErr != nil {
			logger.Warn().Str("channel_id", channel.ID).Err(delErr).Msg("could not remove channel after failed persist")
		}
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	if _, err := sv.gateway.SendMessage(channel.ID, buildControlMessage(in.OwnerMention, announce.ID, expiry)); err != nil {
		sv.notifyErr("announce start (control message)", in.GuildID, channel.ID, in.OwnerID, err)
		sv.Cleanup(in.GuildID, channel.ID, "control message failed")
		return nil, fmt.Errorf("posting control surface: %w", err)
	}

	w := &watch{
		announceID: announce.ID,
		guildID:    in.GuildID,
		channelID:  channel.ID,
		ownerID:    in.OwnerID,
		state:      stateComposing,
	}
	w.msgSub = newSubscription(sv.cfg.Timeout, func() { sv.expire(w) })
	w.compSub = newSubscription(sv.cfg.Timeout, func() { sv.expire(w) })
	sv.watches.add(w)

	logger.Info().
		Str("announce_id", announce.ID).
		Str("guild_id", in.GuildID).
		Str("channel_id", channel.ID).
		Time("expiry", expiry).
		Msg("announce session started")

	return announce, nil
}

func (sv *Service) sessionOverwrites(guildID, ownerID string) []*discordgo.PermissionOverwrite {
	return []*discordgo.PermissionOverwrite{
		{
			// The @everyone role id equals the guild id.
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:   ownerID,
			Type: discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
				discordgo.PermissionReadMessageHistory | discordgo.PermissionEmbedLinks,
		},
		{
			ID:   sv.cfg.BotUserID,
			Type: discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages |
				discordgo.PermissionManageChannels | discordgo.PermissionReadMessageHistory,
		},
	}
}

// expire is the shared time-bound path of both subscriptions. The finish
// transition is what keeps the two racing timers from tearing down the
// session twice.
func (sv *Service) expire(w *watch) {
	if !w.finish(stateExpired) {
		return
	}
	logger.Info().Str("announce_id", w.announceID).Str("channel_id", w.channelID).Msg("announce session expired")

	if data, err := sv.store.GetAnnounceData(w.announceID); err == nil {
		sv.editOrigin(data, "Anúncio expirado. Canal temporário foi removido.")
	}
	sv.Cleanup(w.guildID, w.channelID, "timeout")
}
