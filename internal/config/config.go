package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"recertify-fraud-service/internal/domain"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	History struct {
		Limit     int    `yaml:"limit"`
		Retention string `yaml:"retention"`
	} `yaml:"history"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Worker struct {
		Concurrency int    `yaml:"concurrency"`
		Queue       string `yaml:"queue"`
		Embedded    bool   `yaml:"embedded"`
	} `yaml:"worker"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Fraud domain.Thresholds `yaml:"fraud"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Thresholds returns the fraud tuning with defaults for anything left unset.
func (c Config) Thresholds() domain.Thresholds {
	return c.Fraud.WithDefaults()
}

// HistoryLimit is the number of prior submissions loaded per check and kept per user.
func (c Config) HistoryLimit() int {
	if c.History.Limit > 0 {
		return c.History.Limit
	}
	return 200
}

// HistoryRetention is how long an idle user's history and fraud log are kept.
func (c Config) HistoryRetention() time.Duration {
	return TTLDuration(c.History.Retention, 90*24*time.Hour)
}

// WorkerQueue names the asynq queue fraud checks are enqueued on.
func (c Config) WorkerQueue() string {
	if c.Worker.Queue != "" {
		return c.Worker.Queue
	}
	return "fraud"
}

// KafkaTopic is where blocked-submission events go.
func (c Config) KafkaTopic() string {
	if c.Kafka.Topic != "" {
		return c.Kafka.Topic
	}
	return "fraud.events"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
