package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. AUCTION_MIN_INCREMENT
const EnvPrefix = "AUCTION"

// Config is the runtime configuration of the auction service
type Config struct {
	ServerAddr   string
	LogLevel     string
	SeedDemoData bool
	Bidding      BiddingConfig
	Redis        RedisConfig
	AMQP         AMQPConfig
}

// BiddingConfig tunes the bidding coordinator and countdown publisher
type BiddingConfig struct {
	MinIncrement      int64
	CountdownInterval time.Duration
	IdempotencyWindow time.Duration
	PublishTimeout    time.Duration
}

// RedisConfig configures the bid event stream. An empty Addr disables it.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	StreamKey string
	MaxLen    int64
}

// AMQPConfig configures the RabbitMQ bid event queue. An empty URL disables it.
type AMQPConfig struct {
	URL   string
	Queue string
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("auction", pflag.ContinueOnError)

	// server config
	fs.String("server-addr", ":8080", "HTTP listen address")
	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.Bool("seed-demo-data", true, "register the demo vehicle auctions on startup")

	// bidding config
	fs.Int64("min-increment", 100000, "global minimum bid increment in minor units")
	fs.Duration("countdown-interval", time.Minute, "countdown publisher tick interval")
	fs.Duration("idempotency-window", 10*time.Minute, "how long accepted idempotency keys are remembered")
	fs.Duration("publish-timeout", 5*time.Second, "timeout for a single bid event publish")

	// redis config
	fs.String("redis-addr", "", "redis address for the bid event stream")
	fs.String("redis-password", "", "")
	fs.Int("redis-db", 0, "")
	fs.String("redis-stream-key", "auction-bid-events", "redis stream receiving bid events")
	fs.Int64("redis-stream-max-len", 100000, "approximate cap of the bid event stream")

	// amqp config
	fs.String("amqp-url", "", "RabbitMQ URL for bid events")
	fs.String("amqp-queue", "auction.bid.accepted", "RabbitMQ queue receiving bid events")

	return fs
}

// Load parses args, then layers environment variables (optionally from a .env file) on top
// of the flag defaults. Explicit flags win over the environment.
func Load(args []string) (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("config: parse flags: %w", err)
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("config: bind flags: %w", err)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := Config{
		ServerAddr:   v.GetString("server-addr"),
		LogLevel:     v.GetString("log-level"),
		SeedDemoData: v.GetBool("seed-demo-data"),
		Bidding: BiddingConfig{
			MinIncrement:      v.GetInt64("min-increment"),
			CountdownInterval: v.GetDuration("countdown-interval"),
			IdempotencyWindow: v.GetDuration("idempotency-window"),
			PublishTimeout:    v.GetDuration("publish-timeout"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("redis-addr"),
			Password:  v.GetString("redis-password"),
			DB:        v.GetInt("redis-db"),
			StreamKey: v.GetString("redis-stream-key"),
			MaxLen:    v.GetInt64("redis-stream-max-len"),
		},
		AMQP: AMQPConfig{
			URL:   v.GetString("amqp-url"),
			Queue: v.GetString("amqp-queue"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that would break bidding semantics
func (c Config) Validate() error {
	var errs []error
	if c.ServerAddr == "" {
		errs = append(errs, errors.New("server-addr must not be empty"))
	}
	if c.Bidding.MinIncrement <= 0 {
		errs = append(errs, fmt.Errorf("min-increment must be positive, got %d", c.Bidding.MinIncrement))
	}
	if c.Bidding.CountdownInterval <= 0 {
		errs = append(errs, fmt.Errorf("countdown-interval must be positive, got %s", c.Bidding.CountdownInterval))
	}
	if c.Bidding.IdempotencyWindow <= 0 {
		errs = append(errs, fmt.Errorf("idempotency-window must be positive, got %s", c.Bidding.IdempotencyWindow))
	}
	if c.Redis.Addr != "" && c.Redis.StreamKey == "" {
		errs = append(errs, errors.New("redis-stream-key is required when redis-addr is set"))
	}
	if c.AMQP.URL != "" && c.AMQP.Queue == "" {
		errs = append(errs, errors.New("amqp-queue is required when amqp-url is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
