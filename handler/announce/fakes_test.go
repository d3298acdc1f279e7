package announce

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

// fakeStore mirrors the sqlite store's semantics in memory. AcquireSendLock
// runs its read-decide-stamp under one mutex hold, matching the atomicity
// the real transaction provides.
type fakeStore struct {
	mu        sync.Mutex
	announces map[string]*model.Announce
	data      map[string]*model.AnnounceData
	sentMarks int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		announces: make(map[string]*model.Announce),
		data:      make(map[string]*model.AnnounceData),
	}
}

func copyData(d *model.AnnounceData) *model.AnnounceData {
	out := *d
	out.Attachments = append([]model.Attachment(nil), d.Attachments...)
	if d.LockedUntil != nil {
		t := *d.LockedUntil
		out.LockedUntil = &t
	}
	if d.SentAt != nil {
		t := *d.SentAt
		out.SentAt = &t
	}
	return &out
}

func (s *fakeStore) CreateAnnounce(a *model.Announce, d *model.AnnounceData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.announces {
		if existing.GuildID == a.GuildID && existing.ChannelName == a.ChannelName {
			return fmt.Errorf("unique constraint: %s/%s", a.GuildID, a.ChannelName)
		}
	}
	cp := *a
	s.announces[a.ID] = &cp
	s.data[d.ID] = copyData(d)
	return nil
}

func (s *fakeStore) GetAnnounceByName(guildID, channelName string) (*model.Announce, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.announces {
		if a.GuildID == guildID && a.ChannelName == channelName {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetAnnounceData(id string) (*model.AnnounceData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return copyData(d), nil
}

func (s *fakeStore) UpdateDraft(id, content string, attachments []model.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return model.ErrNotFound
	}
	d.Content = content
	d.Attachments = append([]model.Attachment(nil), attachments...)
	return nil
}

func (s *fakeStore) UpdateTargetChannel(id, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return model.ErrNotFound
	}
	d.AnnounceChannelID = channelID
	return nil
}

func (s *fakeStore) AcquireSendLock(id string, now, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return model.ErrNotFound
	}
	if d.SentAt != nil {
		return &model.ConcurrencyError{Err: model.ErrAlreadySent}
	}
	if d.LockedUntil != nil && d.LockedUntil.After(now) {
		return &model.ConcurrencyError{Err: model.ErrSendInProgress}
	}
	t := until
	d.LockedUntil = &t
	return nil
}

func (s *fakeStore) ReleaseSendLock(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.data[id]; ok {
		d.LockedUntil = nil
	}
	return nil
}

func (s *fakeStore) MarkSent(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok {
		return model.ErrNotFound
	}
	t := at
	d.SentAt = &t
	d.LockedUntil = nil
	s.sentMarks++
	return nil
}

func (s *fakeStore) DeleteByChannel(channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, d := range s.data {
		if d.ChannelID == channelID {
			delete(s.data, id)
		}
	}
	for id, a := range s.announces {
		if a.ChannelID == channelID {
			delete(s.announces, id)
		}
	}
	return nil
}

func (s *fakeStore) sentMarkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sentMarks
}

func (s *fakeStore) rowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.announces) + len(s.data)
}

// fakeGateway records every externally visible call.
type fakeGateway struct {
	mu       sync.Mutex
	channels map[string]*discordgo.Channel
	sent     map[string][]*discordgo.MessageSend
	edits    map[string][]string // channelID:messageID -> contents
	latest   map[string]*discordgo.Message
	deleted  []string
	nextID   int

	sendErr map[string]error // forced SendMessage failures by channel
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		channels: make(map[string]*discordgo.Channel),
		sent:     make(map[string][]*discordgo.MessageSend),
		edits:    make(map[string][]string),
		latest:   make(map[string]*discordgo.Message),
		sendErr:  make(map[string]error),
	}
}

func (g *fakeGateway) addChannel(id string, chType discordgo.ChannelType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[id] = &discordgo.Channel{ID: id, Type: chType}
}

func (g *fakeGateway) setLatest(channelID string, m *discordgo.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[channelID] = m
}

func (g *fakeGateway) failSends(channelID string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendErr[channelID] = err
}

func (g *fakeGateway) CreateChannel(guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	ch := &discordgo.Channel{
		ID:      fmt.Sprintf("chan-%d", g.nextID),
		GuildID: guildID,
		Name:    data.Name,
		Type:    data.Type,
	}
	g.channels[ch.ID] = ch
	return ch, nil
}

func (g *fakeGateway) DeleteChannel(channelID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.channels[channelID]; !ok {
		return errors.New("unknown channel")
	}
	delete(g.channels, channelID)
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) Channel(channelID string) (*discordgo.Channel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (g *fakeGateway) SendMessage(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.sendErr[channelID]; err != nil {
		return nil, err
	}
	if _, ok := g.channels[channelID]; !ok {
		return nil, errors.New("unknown channel")
	}
	g.nextID++
	g.sent[channelID] = append(g.sent[channelID], msg)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", g.nextID), ChannelID: channelID}, nil
}

func (g *fakeGateway) EditMessage(channelID, messageID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := channelID + ":" + messageID
	g.edits[key] = append(g.edits[key], content)
	return nil
}

func (g *fakeGateway) LatestMessage(channelID string) (*discordgo.Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[channelID], nil
}

func (g *fakeGateway) sentTo(channelID string) []*discordgo.MessageSend {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*discordgo.MessageSend(nil), g.sent[channelID]...)
}

func (g *fakeGateway) deletedChannels() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.deleted...)
}

func (g *fakeGateway) hasChannel(channelID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.channels[channelID]
	return ok
}

func (g *fakeGateway) lastEdit(channelID, messageID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	edits := g.edits[channelID+":"+messageID]
	if len(edits) == 0 {
		return ""
	}
	return edits[len(edits)-1]
}

// fakeFetcher serves attachments from a map. URLs listed in failures always
// error.
type fakeFetcher struct {
	mu       sync.Mutex
	contents map[string][]byte
	failures map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		contents: make(map[string][]byte),
		failures: make(map[string]bool),
	}
}

func (f *fakeFetcher) add(url string, body []byte) {
	f.mu.Lock()
	f.contents[url] = body
	f.mu.Unlock()
}

func (f *fakeFetcher) fail(url string) {
	f.mu.Lock()
	f.failures[url] = true
	f.mu.Unlock()
}

func (f *fakeFetcher) ProbeSize(url string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[url] {
		return -1, errors.New("probe failed")
	}
	body, ok := f.contents[url]
	if !ok {
		return -1, errors.New("not found")
	}
	return int64(len(body)), nil
}

func (f *fakeFetcher) FetchBuffer(url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[url] {
		return nil, errors.New("fetch failed")
	}
	body, ok := f.contents[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return append([]byte(nil), body...), nil
}

func (f *fakeFetcher) FetchStream(url string) (io.ReadCloser, error) {
	body, err := f.FetchBuffer(url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(string(body))), nil
}

// fakeNotifier records operator notifications.
type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *fakeNotifier) NotifyError(context, guildID, channelID, userID string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, context)
}

func (n *fakeNotifier) contexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

// newTestService wires a Service against the fakes.
func newTestService(timeout time.Duration) (*Service, *fakeStore, *fakeGateway, *fakeFetcher, *fakeNotifier) {
	store := newFakeStore()
	gw := newFakeGateway()
	fetcher := newFakeFetcher()
	notifier := &fakeNotifier{}
	sv := NewService(gw, store, fetcher, notifier, NewLockRegistry(), Config{
		Timeout:     timeout,
		LockTTL:     30 * time.Second,
		BufferLimit: 5 * 1024 * 1024,
		BotUserID:   "bot-user",
	})
	return sv, store, gw, fetcher, notifier
}

var testStart = StartInput{
	OwnerID:         "owner-1",
	OwnerUsername:   "Maria",
	OwnerMention:    "<@owner-1>",
	GuildID:         "guild-1",
	OriginChannelID: "origin-chan",
	OriginMessageID: "origin-msg",
}
