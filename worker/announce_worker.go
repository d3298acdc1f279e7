package worker

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mri-Qbox-Brasil/mri-qbot/db"
	"github.com/mri-Qbox-Brasil/mri-qbot/handler/announce"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
)

// StartAnnounceWorker schedules the periodic sweep that tears down announce
// sessions whose expiry passed. Live sessions normally end through their
// own timers; the sweep covers rows orphaned by a restart, when no
// in-process timer exists anymore.
func StartAnnounceWorker(svc *announce.Service, checkPeriod string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(checkPeriod, func() { sweepExpired(svc) })
	if err != nil {
		return nil, err
	}
	c.Start()

	logger.Info().Str("check_period", checkPeriod).Msg("announce worker started")
	return c, nil
}

func sweepExpired(svc *announce.Service) {
	expired, err := db.GetExpiredAnnounces(time.Now())
	if err != nil {
		logger.Error().Err(err).Msg("announce worker: could not query expired announces")
		return
	}
	if len(expired) == 0 {
		return
	}

	logger.Debug().Int("count", len(expired)).Msg("announce worker: expired announce rows found")
	for _, a := range expired {
		logger.Info().
			Str("announce_id", a.ID).
			Str("guild_id", a.GuildID).
			Str("channel_id", a.ChannelID).
			Msg("announce worker: removing expired session")
		svc.Cleanup(a.GuildID, a.ChannelID, "expired")
	}
}
