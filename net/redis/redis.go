package redis

import (
	"fmt"
	"time"

	"github.com/mediocregopher/radix/v3"
	"github.com/rs/zerolog/log"
)

// Config structure
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int `mapstructure:"pool_size"`
	Timeout  time.Duration
}

// Enabled returns true when a redis host is configured
func (cfg Config) Enabled() bool {
	return cfg.Host != ""
}

// Addr godoc
func (cfg Config) Addr() string {
	port := cfg.Port
	if port == 0 {
		port = 6379
	}
	return fmt.Sprintf("%s:%d", cfg.Host, port)
}

// Connect opens a connection pool to the configured redis server
func Connect(cfg Config) (*radix.Pool, error) {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	size := cfg.PoolSize
	if size <= 0 {
		size = 10
	}

	connFunc := func(network, addr string) (radix.Conn, error) {
		return radix.Dial(network, addr,
			radix.DialTimeout(timeout),
			radix.DialAuthPass(cfg.Password),
			radix.DialSelectDB(cfg.DB),
		)
	}

	pool, err := radix.NewPool("tcp", cfg.Addr(), size, radix.PoolConnFunc(connFunc))
	if err != nil {
		log.Error().Err(err).Str("section", "redis").Str("addr", cfg.Addr()).Msg("Unable to connect to redis")
		return nil, err
	}
	log.Info().Str("section", "redis").Str("addr", cfg.Addr()).Msg("Connected to redis")
	return pool, nil
}
