package announce

import (
	"time"

	"github.com/mri-Qbox-Brasil/mri-qbot/db"
	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// dbStore backs the Store interface with the sqlite database.
type dbStore struct{}

// NewStore returns the database-backed store. db.InitDB must have run.
func NewStore() Store {
	return dbStore{}
}

func (dbStore) CreateAnnounce(a *model.Announce, d *model.AnnounceData) error {
	return db.CreateAnnounce(a, d)
}

func (dbStore) GetAnnounceByName(guildID, channelName string) (*model.Announce, error) {
	return db.GetAnnounceByName(guildID, channelName)
}

func (dbStore) GetAnnounceData(id string) (*model.AnnounceData, error) {
	return db.GetAnnounceData(id)
}

func (dbStore) UpdateDraft(id, content string, attachments []model.Attachment) error {
	return db.UpdateDraft(id, content, attachments)
}

func (dbStore) UpdateTargetChannel(id, channelID string) error {
	return db.UpdateTargetChannel(id, channelID)
}

func (dbStore) AcquireSendLock(id string, now, until time.Time) error {
	return db.AcquireSendLock(id, now, until)
}

func (dbStore) ReleaseSendLock(id string) error {
	return db.ReleaseSendLock(id)
}

func (dbStore) MarkSent(id string, at time.Time) error {
	return db.MarkSent(id, at)
}

func (dbStore) DeleteByChannel(channelID string) error {
	return db.DeleteAnnounceByChannel(channelID)
}
