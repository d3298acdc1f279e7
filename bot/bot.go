package bot

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/mri-Qbox-Brasil/mri-qbot/command"
	"github.com/mri-Qbox-Brasil/mri-qbot/config"
	"github.com/mri-Qbox-Brasil/mri-qbot/db"
	"github.com/mri-Qbox-Brasil/mri-qbot/handler/announce"
	"github.com/mri-Qbox-Brasil/mri-qbot/logger"
	"github.com/mri-Qbox-Brasil/mri-qbot/utils"
	"github.com/mri-Qbox-Brasil/mri-qbot/worker"
)

// Start runs the bot until SIGINT/SIGTERM.
func Start() error {
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if config.Cfg.Token == "" {
		return fmt.Errorf("TOKEN is not configured")
	}

	if err := db.InitDB(config.Cfg.Database.Path); err != nil {
		return err
	}

	dg, err := discordgo.New("Bot " + config.Cfg.Token)
	if err != nil {
		return fmt.Errorf("creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	if err := dg.Open(); err != nil {
		return fmt.Errorf("opening connection: %w", err)
	}
	defer dg.Close()

	svc := announce.NewService(
		announce.NewGateway(dg),
		announce.NewStore(),
		utils.NewFetcher(config.Cfg.Announce.FetchRetries),
		&utils.DiscordNotifier{Session: dg},
		announce.NewLockRegistry(),
		announce.Config{
			Timeout:     config.Cfg.Announce.Timeout(),
			LockTTL:     config.Cfg.Announce.LockTTL(),
			BufferLimit: config.Cfg.Announce.BufferLimitBytes,
			BotUserID:   dg.State.User.ID,
		},
	)
	announce.RegisterHandlers(svc)
	registerEventHandlers(dg, svc)

	cronRunner, err := worker.StartAnnounceWorker(svc, config.Cfg.Announce.CheckPeriod)
	if err != nil {
		return fmt.Errorf("starting announce worker: %w", err)
	}
	defer cronRunner.Stop()

	for _, guildID := range config.Cfg.Commands.AllowGuilds {
		for _, cmd := range command.AllCommands {
			if _, err := dg.ApplicationCommandCreate(dg.State.User.ID, guildID, cmd); err != nil {
				return fmt.Errorf("creating command %q in guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}

	logger.Info().Msg("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	return nil
}
