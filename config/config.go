package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Token string `mapstructure:"TOKEN"`

	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Announce AnnounceConfig `mapstructure:"announce"`

	Notify struct {
		OwnerID   string `mapstructure:"owner_id"`
		ChannelID string `mapstructure:"channel_id"`
	} `mapstructure:"notify"`

	Commands struct {
		AllowGuilds []string `mapstructure:"allow_guilds"`
		Auth        struct {
			Developers []string `mapstructure:"developers"`
			AdminRoles []string `mapstructure:"admin_roles"`
		} `mapstructure:"auth"`
	} `mapstructure:"commands"`
}

// AnnounceConfig carries the announcement session knobs.
type AnnounceConfig struct {
	TimeoutHours     int    `mapstructure:"timeout_hours"`
	LockTTLSeconds   int    `mapstructure:"lock_ttl_seconds"`
	BufferLimitBytes int64  `mapstructure:"buffer_limit_bytes"`
	FetchRetries     uint64 `mapstructure:"fetch_retries"`
	CheckPeriod      string `mapstructure:"check_period"`
}

// Timeout is the session TTL.
func (c AnnounceConfig) Timeout() time.Duration {
	return time.Duration(max(1, c.TimeoutHours)) * time.Hour
}

// LockTTL is the send-lock exclusivity window.
func (c AnnounceConfig) LockTTL() time.Duration {
	return time.Duration(max(1, c.LockTTLSeconds)) * time.Second
}

var Cfg Config

func LoadConfig() (err error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("database.path", "./data/mri-qbot.db")
	viper.SetDefault("announce.timeout_hours", 24)
	viper.SetDefault("announce.lock_ttl_seconds", 30)
	viper.SetDefault("announce.buffer_limit_bytes", 5*1024*1024)
	viper.SetDefault("announce.fetch_retries", 3)
	viper.SetDefault("announce.check_period", "*/1 * * * *")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&Cfg)
	return
}
