// Package announce implements the announcement composition session: an
// ephemeral channel where one user drafts a message over time, picks a
// destination and publishes it at most once, while message events, button
// clicks, the destination picker and a wall-clock timeout race to mutate
// and finalize the same shared state.
package announce

import (
	"io"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// Gateway is the slice of the Discord API the session engine uses.
type Gateway interface {
	CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)
	DeleteChannel(channelID string) error
	Channel(channelID string) (*discordgo.Channel, error)
	SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	EditMessage(channelID, messageID, content string) error
	// LatestMessage returns the most recent message in a channel, or nil
	// when the channel is empty.
	LatestMessage(channelID string) (*discordgo.Message, error)
}

// Store persists Announce and AnnounceData rows. Implementations must make
// AcquireSendLock atomic: it is the at-most-once guarantee.
type Store interface {
	CreateAnnounce(a *model.Announce, d *model.AnnounceData) error
	GetAnnounceByName(guildID, channelName string) (*model.Announce, error)
	GetAnnounceData(id string) (*model.AnnounceData, error)
	UpdateDraft(id, content string, attachments []model.Attachment) error
	UpdateTargetChannel(id, channelID string) error
	AcquireSendLock(id string, now, until time.Time) error
	ReleaseSendLock(id string) error
	MarkSent(id string, at time.Time) error
	DeleteByChannel(channelID string) error
}

// Fetcher materializes attachments by URL with bounded retry.
type Fetcher interface {
	ProbeSize(url string) (int64, error)
	FetchBuffer(url string) ([]byte, error)
	FetchStream(url string) (io.ReadCloser, error)
}

// Notifier forwards full diagnostic context to the operators. End users
// only ever see short generic status strings.
type Notifier interface {
	NotifyError(context, guildID, channelID, userID string, err error)
}

// Config carries the session-engine knobs.
type Config struct {
	// Timeout is the session TTL; an unfinished session is torn down when
	// it elapses.
	Timeout time.Duration
	// LockTTL is the exclusivity window stamped by a send attempt.
	LockTTL time.Duration
	// BufferLimit is the attachment size, in bytes, below which a download
	// is held fully in memory. Larger or unknown sizes stream to a
	// temporary file.
	BufferLimit int64
	// BotUserID is used in the permission overwrites of session channels.
	BotUserID string
}

// Service owns the announcement composition sessions of one bot process.
type Service struct {
	gateway Gateway
	store   Store
	fetcher Fetcher
	notify  Notifier
	locks   *LockRegistry
	cfg     Config

	watches *watchRegistry
}

// NewService wires the session engine. The lock registry is created at
// process start and injected; it is never package state.
func NewService(gateway Gateway, store Store, fetcher Fetcher, notify Notifier, locks *LockRegistry, cfg Config) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		fetcher: fetcher,
		notify:  notify,
		locks:   locks,
		cfg:     cfg,
		watches: newWatchRegistry(),
	}
}

func (sv *Service) notifyErr(context, guildID, channelID, userID string, err error) {
	if sv.notify != nil {
		sv.notify.NotifyError(context, guildID, channelID, userID, err)
	}
}

// editOrigin echoes a status string to the message the command surface left
// in the origin channel. The origin message may have been deleted; the echo
// is best effort.
func (sv *Service) editOrigin(data *model.AnnounceData, content string) {
	if data.CmdChannelID == "" || data.CmdMessageID == "" {
		return
	}
	if err := sv.gateway.EditMessage(data.CmdChannelID, data.CmdMessageID, content); err != nil {
		logger.Debug().Str("announce_id", data.ID).Err(err).Msg("could not edit origin message")
	}
}
