package appconf

import (
	"fmt"
	"time"
)

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// Config holds the runtime settings of the API server.
type Config struct {
	Port             int
	Env              Environment
	Verbose          bool
	RateLimit        int // requests per second per client
	AutoplayDuration time.Duration
	TickInterval     time.Duration
	SessionTTL       time.Duration
	MaxUploadBytes   int64
}

const (
	DefaultPort             = 4000
	DefaultRateLimit        = 100
	DefaultAutoplayDuration = 60 * time.Second
	DefaultTickInterval     = 100 * time.Millisecond
	DefaultSessionTTL       = 2 * time.Hour
	DefaultMaxUploadBytes   = 20 << 20
)

// Default returns a development configuration with every default applied.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		Env:              Development,
		RateLimit:        DefaultRateLimit,
		AutoplayDuration: DefaultAutoplayDuration,
		TickInterval:     DefaultTickInterval,
		SessionTTL:       DefaultSessionTTL,
		MaxUploadBytes:   DefaultMaxUploadBytes,
	}
}

func (e Environment) String() string {
	switch e {
	case Development:
		return "development"
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

// EnvFlagToEnvironment maps a command line / config file value to an Environment.
// Unknown values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch env {
	case "development":
		return Development
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}
