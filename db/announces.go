package db

import (
	"database/sql"
	"time"

	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// rowScanner is an interface that can be satisfied by *sql.Row or *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAnnounce scans a row into an Announce struct.
func scanAnnounce(scanner rowScanner) (*model.Announce, error) {
	var a model.Announce
	var expiry int64
	err := scanner.Scan(&a.ID, &a.GuildID, &a.ChannelID, &a.ChannelName, &expiry)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	a.ExpiryDate = time.Unix(expiry, 0)
	return &a, nil
}

// CreateAnnounce inserts an announce and its workflow data in one
// transaction. The two rows share an id and live and die together.
func CreateAnnounce(a *model.Announce, d *model.AnnounceData) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	_, err = tx.Exec(`INSERT INTO announces(
		id, guild_id, channel_id, channel_name, expiry_date, created_at
	) VALUES(?, ?, ?, ?, ?, ?)`,
		a.ID, a.GuildID, a.ChannelID, a.ChannelName, a.ExpiryDate.Unix(), now,
	)
	if err != nil {
		return err
	}

	attachments, err := marshalAttachments(d.Attachments)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT INTO announce_data(
		id, guild_id, channel_id, owner_id, cmd_channel_id, cmd_message_id,
		announce_channel_id, content, attachments, created_at, updated_at
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.GuildID, d.ChannelID, d.OwnerID, d.CmdChannelID, d.CmdMessageID,
		d.AnnounceChannelID, d.Content, attachments, now, now,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetAnnounceByName retrieves an announce by its derived channel name within
// a guild. Returns nil, nil when none exists.
func GetAnnounceByName(guildID, channelName string) (*model.Announce, error) {
	row := DB.QueryRow(`SELECT id, guild_id, channel_id, channel_name, expiry_date
		FROM announces WHERE guild_id = ? AND channel_name = ?`, guildID, channelName)
	return scanAnnounce(row)
}

// GetExpiredAnnounces returns every announce whose expiry passed.
func GetExpiredAnnounces(now time.Time) ([]*model.Announce, error) {
	rows, err := DB.Query(`SELECT id, guild_id, channel_id, channel_name, expiry_date
		FROM announces WHERE expiry_date <= ?`, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Announce
	for rows.Next() {
		a, err := scanAnnounce(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAnnounceByChannel removes the announce and its data rows for a
// channel. Deleting rows that are already gone is a no-op, so redundant
// cleanup calls are harmless.
func DeleteAnnounceByChannel(channelID string) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM announce_data WHERE channel_id = ?", channelID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM announces WHERE channel_id = ?", channelID); err != nil {
		return err
	}

	return tx.Commit()
}
