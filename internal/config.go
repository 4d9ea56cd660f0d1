package internal

import (
	"fmt"
	"time"
)

const (
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

type Config struct {
	Host     string `env:"HOST,required=true"`
	Port     int    `env:"PORT,required=true"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	// mongo or badger
	StoreBackend   string `env:"STORE_BACKEND,required=true"`
	MongoURI       string `env:"MONGO_URI"`
	MongoDatabase  string `env:"MONGO_DATABASE"`
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	DebugPort      *int   `env:"DEBUG_PORT"`

	// Empty REDIS_ADDR runs the in-process broker, single node only.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	BufferSize    int    `env:"BUFFER_SIZE,required=true"`

	RestartInterval        time.Duration `env:"RESTART_INTERVAL,required=true"`
	AuthTokenDuration      time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	TokenValidationTimeout time.Duration `env:"TOKEN_VALIDATION_TIMEOUT,required=true"`
	LimitMessages          *int          `env:"LIMIT_MESSAGES"`
}

// Validate checks the cross-field requirements env tags cannot express.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			return fmt.Errorf("STORE_BACKEND=mongo requires MONGO_URI and MONGO_DATABASE")
		}
	case BackendBadger:
		if c.BadgerFilepath == "" {
			return fmt.Errorf("STORE_BACKEND=badger requires BADGER_FILEPATH")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

func (c Config) MessageLimit() int {
	if c.LimitMessages == nil {
		return 0
	}
	return *c.LimitMessages
}
