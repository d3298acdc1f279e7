package announce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mri-Qbox-Brasil/mri-qbot/model"
)

func TestCancelTearsDownSession(t *testing.T) {
	sv, store, gw, _, _ := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)

	require.NoError(t, sv.Cancel(sessionData(t, store, a.ID)))

	assert.False(t, gw.hasChannel(a.ChannelID))
	assert.Zero(t, store.rowCount())
	assert.Nil(t, sv.watches.byChannel(a.ChannelID))
	assert.Contains(t, gw.lastEdit(testStart.OriginChannelID, testStart.OriginMessageID), "Anúncio cancelado")
}

func TestCleanupIsIdempotent(t *testing.T) {
	sv, store, gw, _, notifier := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)

	sv.Cleanup(a.GuildID, a.ChannelID, "test")
	sv.Cleanup(a.GuildID, a.ChannelID, "test")
	sv.Cleanup(a.GuildID, a.ChannelID, "test")

	assert.False(t, gw.hasChannel(a.ChannelID))
	assert.Zero(t, store.rowCount())
	// Redundant invocations are no-ops, not failures worth paging anyone.
	assert.Empty(t, notifier.contexts())
	assert.Equal(t, []string{a.ChannelID}, gw.deletedChannels())
}

func TestCleanupIsSafeUnderConcurrency(t *testing.T) {
	sv, store, gw, _, notifier := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sv.Cleanup(a.GuildID, a.ChannelID, "race")
		}()
	}
	wg.Wait()

	assert.False(t, gw.hasChannel(a.ChannelID))
	assert.Zero(t, store.rowCount())
	assert.Empty(t, notifier.contexts())
}

func TestCancelWhileSendingIsRefused(t *testing.T) {
	sv, store, gw, _, _ := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)

	w := sv.watches.byChannel(a.ChannelID)
	require.NotNil(t, w)
	require.True(t, w.beginSend())

	err := sv.Cancel(sessionData(t, store, a.ID))
	assert.ErrorIs(t, err, model.ErrSendInProgress)
	// The in-flight delivery keeps its session.
	assert.True(t, gw.hasChannel(a.ChannelID))
	assert.NotZero(t, store.rowCount())
}

func TestExternalChannelDeletionEndsSession(t *testing.T) {
	sv, store, gw, _, _ := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)

	// A moderator deleted the channel by hand; Discord already removed it.
	require.NoError(t, gw.DeleteChannel(a.ChannelID))
	sv.HandleChannelDelete(a.GuildID, a.ChannelID)

	assert.Zero(t, store.rowCount())
	assert.Nil(t, sv.watches.byChannel(a.ChannelID))
	// Only the external deletion itself; cleanup must not delete again.
	assert.Equal(t, []string{a.ChannelID}, gw.deletedChannels())
	assert.Contains(t, gw.lastEdit(testStart.OriginChannelID, testStart.OriginMessageID), "sessão foi encerrada")
}

func TestChannelDeleteWithoutWatchStillDeletesRows(t *testing.T) {
	// Rows left behind by a previous process have no in-memory watch.
	sv, store, gw, _, _ := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)
	sv.watches.remove(a.ChannelID)
	require.NoError(t, gw.DeleteChannel(a.ChannelID))

	sv.HandleChannelDelete(a.GuildID, a.ChannelID)

	assert.Zero(t, store.rowCount())
}

func TestSendAfterCleanupReportsNotFound(t *testing.T) {
	sv, store, gw, _, _ := newTestService(time.Hour)
	a := startSession(t, sv, store, gw)
	require.NoError(t, store.UpdateDraft(a.ID, "texto", nil))
	require.NoError(t, sv.SelectTarget(sessionData(t, store, a.ID), targetChannelID))
	data := sessionData(t, store, a.ID)

	sv.Cleanup(a.GuildID, a.ChannelID, "test")

	// A stale interaction that raced cleanup sees a clean not-found, not a
	// crash and not a delivery.
	err := sv.Send(data)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Empty(t, gw.sentTo(targetChannelID))
}
