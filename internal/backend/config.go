package backend

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"budgetbuddy/internal/config"
)

type BackendType string

const (
	RESTBackend   BackendType = config.BackendREST
	MemoryBackend BackendType = config.BackendMemory
)

func (t BackendType) IsValid() bool {
	return t == RESTBackend || t == MemoryBackend
}

func (t BackendType) String() string { return string(t) }

// Config holds what the factory needs to build a backend.
type Config struct {
	Type BackendType

	APIBaseURL string
	APITimeout time.Duration

	// SeedDemo fills the memory backend with a demo account.
	SeedDemo bool

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := BackendType(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         t,
		APIBaseURL:   appConfig.APIBaseURL,
		APITimeout:   appConfig.APITimeout,
		SeedDemo:     t == MemoryBackend,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == RESTBackend {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("API base URL %q is not an http(s) URL", c.APIBaseURL)
		}
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("API timeout must not be negative")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return fmt.Errorf("AMQP exchange and queue are required when AMQP URL is set")
	}
	return nil
}

// GetBackendTypes returns all valid backend types.
func GetBackendTypes() []BackendType {
	return []BackendType{RESTBackend, MemoryBackend}
}
