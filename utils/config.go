package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"
)

const (
	constDefaultHubURL    = "https://registry.hub.docker.com"
	constDefaultListen    = ":3000"
	constDefaultStaticDir = "public"
)

// Queue types for FC_QUEUE_TYPE
const (
	QueueNone = "none"
	QueueNats = "nats"
	QueueSqs  = "sqs"
)

// Config holds everything the server and notifier read from the environment
type Config struct {
	ListenAddr        string
	HubURL            string
	HubTimeout        time.Duration
	HubRateLimitDelay time.Duration
	DockerHost        string
	DockerTimeout     time.Duration
	StaticDir         string
	CorsOrigin        string
	QueueType         string
	CheckWorkers      int
	CheckInterval     time.Duration
	WebhookURL        string
}

// LoadConfig reads the FC_* environment variables and validates them.
func LoadConfig() (cfg Config, err error) {
	cfg = Config{
		ListenAddr: GetEnvOrDefault("FC_LISTEN_ADDR", constDefaultListen),
		HubURL:     GetEnvOrDefault("FC_HUB_URL", constDefaultHubURL),
		DockerHost: GetEnvOrDefault("FC_DOCKER_HOST", ""),
		StaticDir:  GetEnvOrDefault("FC_STATIC_DIR", constDefaultStaticDir),
		CorsOrigin: GetEnvOrDefault("FC_CORS_ORIGIN", "*"),
		QueueType:  GetEnvOrDefault("FC_QUEUE_TYPE", QueueNone),
		WebhookURL: GetEnvOrDefault("FC_WEBHOOK_URL", ""),
	}

	if cfg.HubTimeout, err = getEnvDuration("FC_HUB_TIMEOUT", "10s"); err != nil {
		return
	}

	if cfg.HubRateLimitDelay, err = getEnvDuration("FC_HUB_RATE_LIMIT_DELAY", "10s"); err != nil {
		return
	}

	if cfg.DockerTimeout, err = getEnvDuration("FC_DOCKER_TIMEOUT", "30s"); err != nil {
		return
	}

	if cfg.CheckInterval, err = getEnvDuration("FC_CHECK_INTERVAL", "0s"); err != nil {
		return
	}

	workers := GetEnvOrDefault("FC_CHECK_WORKERS", "1")
	if !govalidator.IsInt(workers) {
		err = fmt.Errorf("FC_CHECK_WORKERS must be a number, got %q", workers)
		return
	}
	cfg.CheckWorkers, _ = strconv.Atoi(workers)

	err = cfg.Validate()
	return
}

// Validate checks the values make sense together
func (c Config) Validate() error {
	if !govalidator.IsURL(c.HubURL) {
		return fmt.Errorf("FC_HUB_URL is not a valid URL: %q", c.HubURL)
	}

	if c.WebhookURL != "" && !govalidator.IsURL(c.WebhookURL) {
		return fmt.Errorf("FC_WEBHOOK_URL is not a valid URL: %q", c.WebhookURL)
	}

	if !govalidator.IsIn(c.QueueType, QueueNone, QueueNats, QueueSqs) {
		return fmt.Errorf("FC_QUEUE_TYPE must be one of %s, %s or %s, got %q", QueueNone, QueueNats, QueueSqs, c.QueueType)
	}

	if c.CheckWorkers < 1 {
		return fmt.Errorf("FC_CHECK_WORKERS must be at least 1, got %d", c.CheckWorkers)
	}

	if c.HubTimeout <= 0 || c.DockerTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	if c.CheckInterval < 0 || c.HubRateLimitDelay < 0 {
		return fmt.Errorf("intervals can't be negative")
	}

	return nil
}

func getEnvDuration(name string, defaultValue string) (time.Duration, error) {
	v := GetEnvOrDefault(name, defaultValue)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %v", name, err)
	}

	return d, nil
}
