package db

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

func marshalAttachments(attachments []model.Attachment) (string, error) {
	if len(attachments) == 0 {
		return "", nil
	}
	data, err := json.Marshal(attachments)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalAttachments(raw string) ([]model.Attachment, error) {
	if raw == "" {
		return nil, nil
	}
	var out []model.Attachment
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scanAnnounceData scans a row into an AnnounceData struct.
func scanAnnounceData(scanner rowScanner) (*model.AnnounceData, error) {
	var d model.AnnounceData
	var attachments string
	var lockedUntil, sentAt sql.NullInt64
	err := scanner.Scan(
		&d.ID, &d.GuildID, &d.ChannelID, &d.OwnerID, &d.CmdChannelID, &d.CmdMessageID,
		&d.AnnounceChannelID, &d.Content, &attachments, &lockedUntil, &sentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if d.Attachments, err = unmarshalAttachments(attachments); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		t := time.Unix(lockedUntil.Int64, 0)
		d.LockedUntil = &t
	}
	if sentAt.Valid {
		t := time.Unix(sentAt.Int64, 0)
		d.SentAt = &t
	}
	return &d, nil
}

const announceDataColumns = `id, guild_id, channel_id, owner_id, cmd_channel_id, cmd_message_id,
	COALESCE(announce_channel_id, '') as announce_channel_id,
	COALESCE(content, '') as content,
	COALESCE(attachments, '') as attachments,
	locked_until, sent_at`

// GetAnnounceData retrieves the workflow state for an announce id.
func GetAnnounceData(id string) (*model.AnnounceData, error) {
	row := DB.QueryRow("SELECT "+announceDataColumns+" FROM announce_data WHERE id = ?", id)
	return scanAnnounceData(row)
}

// UpdateDraft overwrites the draft content and attachment list. Last writer
// wins; previous drafts are not retained.
func UpdateDraft(id, content string, attachments []model.Attachment) error {
	raw, err := marshalAttachments(attachments)
	if err != nil {
		return err
	}
	res, err := DB.Exec("UPDATE announce_data SET content = ?, attachments = ?, updated_at = ? WHERE id = ?",
		content, raw, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// UpdateTargetChannel overwrites the selected destination channel.
func UpdateTargetChannel(id, channelID string) error {
	res, err := DB.Exec("UPDATE announce_data SET announce_channel_id = ?, updated_at = ? WHERE id = ?",
		channelID, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AcquireSendLock stamps the send lock for an announce inside a single
// transaction. It refuses when the announce was already sent or when a lock
// stamped by another attempt has not yet expired. This TTL column is the
// sole mutual-exclusion mechanism for deliveries; a lock held past its TTL
// is treated as stale and may be reclaimed.
func AcquireSendLock(id string, now, until time.Time) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sentAt, lockedUntil sql.NullInt64
	err = tx.QueryRow("SELECT sent_at, locked_until FROM announce_data WHERE id = ?", id).
		Scan(&sentAt, &lockedUntil)
	if err == sql.ErrNoRows {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}

	if sentAt.Valid {
		return &model.ConcurrencyError{Err: model.ErrAlreadySent}
	}
	if lockedUntil.Valid && lockedUntil.Int64 > now.Unix() {
		return &model.ConcurrencyError{Err: model.ErrSendInProgress}
	}

	_, err = tx.Exec("UPDATE announce_data SET locked_until = ?, updated_at = ? WHERE id = ?",
		until.Unix(), now.Unix(), id)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ReleaseSendLock clears the send lock, leaving the session resumable.
func ReleaseSendLock(id string) error {
	_, err := DB.Exec("UPDATE announce_data SET locked_until = NULL, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id)
	return err
}

// MarkSent records the delivery timestamp and clears the lock. A non-null
// sent_at is terminal; later send attempts are refused by AcquireSendLock.
func MarkSent(id string, at time.Time) error {
	res, err := DB.Exec("UPDATE announce_data SET sent_at = ?, locked_until = NULL, updated_at = ? WHERE id = ?",
		at.Unix(), at.Unix(), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
