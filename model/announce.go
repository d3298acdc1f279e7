package model

import "time"

// Announce is the ephemeral workspace record for one announcement in
// progress. At most one announce with a given ChannelName may exist per
// guild; the name is derived from the owner, which is what prevents a user
// from opening two composition channels at once.
type Announce struct {
	ID          string
	GuildID     string
	ChannelID   string
	ChannelName string
	ExpiryDate  time.Time
}

// Attachment is one draft attachment reference.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// AnnounceData is the mutable workflow state of a session, one-to-one with
// Announce (same ID). Content and Attachments are overwritten wholesale on
// every capture, never merged. LockedUntil in the future means a send
// attempt holds exclusivity; a non-nil SentAt is terminal.
type AnnounceData struct {
	ID                string
	GuildID           string
	ChannelID         string
	OwnerID           string
	CmdChannelID      string
	CmdMessageID      string
	AnnounceChannelID string
	Content           string
	Attachments       []Attachment
	LockedUntil       *time.Time
	SentAt            *time.Time
}
