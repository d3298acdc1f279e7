package announce

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// Send delivers the session's draft to its target channel at most once.
//
// The at-most-once guarantee rests on two gates: the injected process-local
// registry (refuses a double click without touching the store) and the
// store's transactional lock stamp (refuses attempts from anywhere once
// sent_at is set or a lock is live). The lock is a TTL column, not a true
// lease: an attempt that outlives its TTL may see its lock reclaimed by a
// later attempt, and sent_at only prevents the second delivery when the
// first one completed in time. This weak, optimistic guarantee is the
// documented behavior, not an oversight.
func (sv *Service) Send(data *model.AnnounceData) error {
	// Preconditions, checked before any lock is touched.
	if strings.TrimSpace(data.Content) == "" && len(data.Attachments) == 0 {
		return &model.ValidationError{
			Reason: "Nenhum rascunho encontrado. Envie uma mensagem neste canal antes de enviar o anúncio.",
		}
	}
	if data.AnnounceChannelID == "" {
		return &model.ValidationError{
			Reason: "Por favor, selecione um canal de destino antes de enviar.",
		}
	}

	if !sv.locks.Acquire(data.ID) {
		return &model.ConcurrencyError{Err: model.ErrSendInProgress}
	}
	defer sv.locks.Release(data.ID)

	now := time.Now()
	if err := sv.store.AcquireSendLock(data.ID, now, now.Add(sv.cfg.LockTTL)); err != nil {
		return err
	}

	w := sv.watches.byChannel(data.ChannelID)
	if w != nil && !w.beginSend() {
		// Lost a race after the lock was stamped; give the lock back and
		// report what actually ended the session.
		sv.releaseLock(data)
		switch st := w.current(); {
		case st == stateSent:
			return &model.ConcurrencyError{Err: model.ErrAlreadySent}
		case st.terminal():
			return model.ErrNotFound
		default:
			return &model.ConcurrencyError{Err: model.ErrSendInProgress}
		}
	}

	if err := sv.deliver(data); err != nil {
		sv.releaseLock(data)
		if w != nil {
			w.endSend(false)
		}
		sv.editOrigin(data, fmt.Sprintf("Falha ao enviar o anúncio para <#%s>. O canal temporário permanece aberto para nova tentativa.", data.AnnounceChannelID))
		return err
	}

	if err := sv.store.MarkSent(data.ID, time.Now()); err != nil {
		// The announcement is out; the row is torn down right below either
		// way. Log it so a stuck lock can be explained.
		logger.Error().Str("announce_id", data.ID).Err(err).Msg("could not mark announce as sent")
	}

	if w != nil {
		w.finish(stateSent)
	}

	logger.Info().
		Str("announce_id", data.ID).
		Str("target_channel_id", data.AnnounceChannelID).
		Msg("announce delivered")

	sv.editOrigin(data, fmt.Sprintf("Anúncio enviado para <#%s>. Canal temporário será removido.", data.AnnounceChannelID))
	sv.Cleanup(data.GuildID, data.ChannelID, "sent")
	return nil
}

func (sv *Service) releaseLock(data *model.AnnounceData) {
	if err := sv.store.ReleaseSendLock(data.ID); err != nil {
		logger.Error().Str("announce_id", data.ID).Err(err).Msg("could not release send lock")
	}
}

// deliver performs the externally visible half of a send attempt: draft
// re-sync, target validation, attachment materialization and the gateway
// send. Any error leaves the session resumable; the caller releases the
// lock.
func (sv *Service) deliver(data *model.AnnounceData) error {
	sv.refreshDraft(data)

	target, err := sv.gateway.Channel(data.AnnounceChannelID)
	if err != nil || target == nil {
		return &model.DeliveryError{
			TargetID: data.AnnounceChannelID,
			Err:      fmt.Errorf("target channel unreachable: %w", err),
		}
	}
	if target.Type != discordgo.ChannelTypeGuildText && target.Type != discordgo.ChannelTypeGuildNews {
		return &model.DeliveryError{
			TargetID: data.AnnounceChannelID,
			Err:      errors.New("target is not a text channel"),
		}
	}

	files, release := sv.materializeAttachments(data)
	defer release()

	_, err = sv.gateway.SendMessage(data.AnnounceChannelID, &discordgo.MessageSend{
		Content: data.Content,
		Files:   files,
	})
	if err != nil {
		return &model.DeliveryError{TargetID: data.AnnounceChannelID, Err: err}
	}
	return nil
}

// refreshDraft re-reads the latest owner-authored message in the session
// channel. Every store and gateway call before this point is a suspension
// point; the owner may have posted or edited between the click and the lock
// stamp, and the latest message wins.
func (sv *Service) refreshDraft(data *model.AnnounceData) {
	latest, err := sv.gateway.LatestMessage(data.ChannelID)
	if err != nil {
		logger.Warn().Str("announce_id", data.ID).Err(err).Msg("could not re-sync draft before send")
		return
	}
	if latest == nil || latest.Author == nil || latest.Author.ID != data.OwnerID {
		return
	}

	data.Content = latest.Content
	data.Attachments = attachmentRefs(latest.Attachments)
	if err := sv.store.UpdateDraft(data.ID, data.Content, data.Attachments); err != nil {
		logger.Warn().Str("announce_id", data.ID).Err(err).Msg("could not persist re-synced draft")
	}
}

// materializeAttachments downloads the draft attachments: small ones into
// memory, large or unknown-size ones streamed to temporary files. A failed
// download is skipped and the send proceeds with the rest; release removes
// the temporary files once the gateway send finished with them.
func (sv *Service) materializeAttachments(data *model.AnnounceData) ([]*discordgo.File, func()) {
	var files []*discordgo.File
	var closers []io.Closer
	var tmpPaths []string

	release := func() {
		for _, c := range closers {
			c.Close()
		}
		for _, p := range tmpPaths {
			os.Remove(p)
		}
	}

	for _, att := range data.Attachments {
		size, err := sv.fetcher.ProbeSize(att.URL)
		if err != nil {
			logger.Debug().Str("url", att.URL).Err(err).Msg("size probe failed, streaming to disk")
			size = -1
		}

		if size >= 0 && size < sv.cfg.BufferLimit {
			buf, err := sv.fetcher.FetchBuffer(att.URL)
			if err != nil {
				sv.skipAttachment(data, att, err)
				continue
			}
			files = append(files, &discordgo.File{Name: att.Filename, Reader: bytes.NewReader(buf)})
			continue
		}

		stream, err := sv.fetcher.FetchStream(att.URL)
		if err != nil {
			sv.skipAttachment(data, att, err)
			continue
		}
		tmp, err := os.CreateTemp("", "announce-att-*")
		if err != nil {
			stream.Close()
			sv.skipAttachment(data, att, err)
			continue
		}
		_, err = io.Copy(tmp, stream)
		stream.Close()
		if err == nil {
			_, err = tmp.Seek(0, io.SeekStart)
		}
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			sv.skipAttachment(data, att, err)
			continue
		}
		files = append(files, &discordgo.File{Name: att.Filename, Reader: tmp})
		closers = append(closers, tmp)
		tmpPaths = append(tmpPaths, tmp.Name())
	}

	return files, release
}

// skipAttachment logs and reports one undeliverable attachment. The text
// and the remaining attachments still go out.
func (sv *Service) skipAttachment(data *model.AnnounceData, att model.Attachment, err error) {
	ferr := &model.AttachmentFetchError{URL: att.URL, Err: err}
	logger.Warn().Str("announce_id", data.ID).Str("filename", att.Filename).Err(err).Msg("skipping attachment")
	sv.notifyErr("announce send (attachment)", data.GuildID, data.ChannelID, data.OwnerID, ferr)
}
