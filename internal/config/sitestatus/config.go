package sitestatus_config

import (
	"time"

	"github.com/NordCoder/SiteStatus/internal/obs"
	kafkainfra "github.com/NordCoder/SiteStatus/internal/repository/kafka"
	mongoinfra "github.com/NordCoder/SiteStatus/internal/repository/mongodb"
	pginfra "github.com/NordCoder/SiteStatus/internal/repository/postgres"
)

type Check struct {
	SSLExpiry      bool          `mapstructure:"ssl_expiry"`
	SSLFailSafe    bool          `mapstructure:"ssl_fail_safe"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	TLSTimeout     time.Duration `mapstructure:"tls_timeout"`
	TLSPort        int           `mapstructure:"tls_port"`
	UserAgent      string        `mapstructure:"user_agent"`
	Concurrency    int           `mapstructure:"concurrency"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
}

type Store struct {
	Enabled           bool   `mapstructure:"enabled"`
	Backend           string `mapstructure:"backend"`
	Table             string `mapstructure:"table"`
	TruncateBeforeRun bool   `mapstructure:"truncate_before_run"`
}

type SQLite struct {
	Path string `mapstructure:"path"`
}

type Email struct {
	Enabled    bool   `mapstructure:"enabled"`
	From       string `mapstructure:"from"`
	FromName   string `mapstructure:"from_name"`
	To         string `mapstructure:"to"`
	SubjPrefix string `mapstructure:"subj_prefix"`
}

type SMTP struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	UseTLS   bool          `mapstructure:"use_tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Sendmail struct {
	Path string `mapstructure:"path"`
}

// Outbox routes run events through a Postgres table before Kafka.
type Outbox struct {
	Enabled       bool          `mapstructure:"enabled"`
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
	Env    string `mapstructure:"env"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type Schedule struct {
	Cron       string `mapstructure:"cron"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

type Config struct {
	Domains  []string                  `mapstructure:"domains"`
	Check    Check                     `mapstructure:"check"`
	Store    Store                     `mapstructure:"store"`
	DB       pginfra.Config            `mapstructure:"db"`
	SQLite   SQLite                    `mapstructure:"sqlite"`
	Mongo    mongoinfra.Config         `mapstructure:"mongo"`
	Email    Email                     `mapstructure:"email"`
	SMTP     SMTP                      `mapstructure:"smtp"`
	Sendmail Sendmail                  `mapstructure:"sendmail"`
	Kafka    kafkainfra.ProducerConfig `mapstructure:"kafka"`
	Outbox   Outbox                    `mapstructure:"outbox"`
	OTEL     obs.OTELConfig            `mapstructure:"otel"`
	Log      Log                       `mapstructure:"log"`
	Server   Server                    `mapstructure:"server"`
	Schedule Schedule                  `mapstructure:"schedule"`
}

const Version = "1.0.0"

func (l Log) AsLoggerConfig() obs.LogConfig {
	return obs.LogConfig{
		Level:  l.Level,
		Pretty: l.Pretty,
		App:    "sitestatus",
		Env:    l.Env,
		Ver:    Version,
	}
}
