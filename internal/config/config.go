package config

import (
	"time"

	"github.com/beeline-social/engagement-core/internal/ratelimit"
	"github.com/beeline-social/engagement-core/internal/reconciler"
	"github.com/beeline-social/engagement-core/internal/repository"
	pkgconfig "github.com/beeline-social/engagement-core/pkg/config"
	pkglog "github.com/beeline-social/engagement-core/pkg/log"
	"github.com/beeline-social/engagement-core/pkg/pubsub"
)

type Config struct {
	Server     ServerConfig
	DynamoDB   repository.Config `mapstructure:"dynamodb"`
	Redis      RedisConfig
	Kafka      pubsub.KafkaConfig
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Timeline   TimelineConfig
	Reconciler reconciler.Config
	Auth       AuthConfig
	Log        pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RatePolicyConfig is one fixed-window quota.
type RatePolicyConfig struct {
	Limit  int64         `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// Policy converts the config shape into the limiter's.
func (c RatePolicyConfig) Policy() ratelimit.Policy {
	return ratelimit.Policy{Limit: c.Limit, Window: c.Window}
}

// RateLimitConfig carries the per-route quotas.
type RateLimitConfig struct {
	Follow   RatePolicyConfig `mapstructure:"follow"`
	Interact RatePolicyConfig `mapstructure:"interact"`
	Publish  RatePolicyConfig `mapstructure:"publish"`
	Read     RatePolicyConfig `mapstructure:"read"`
}

type TimelineConfig struct {
	FanoutWidth int `mapstructure:"fanout_width"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("dynamodb.table_name", "engagement")
	v.SetDefault("dynamodb.region", "us-east-1")
	v.SetDefault("dynamodb.endpoint", "")
	v.SetDefault("dynamodb.call_timeout", "3s")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.group_id", "engagement-core")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("rate_limit.follow.limit", 30)
	v.SetDefault("rate_limit.follow.window", "1m")
	v.SetDefault("rate_limit.interact.limit", 120)
	v.SetDefault("rate_limit.interact.window", "1m")
	v.SetDefault("rate_limit.publish.limit", 10)
	v.SetDefault("rate_limit.publish.window", "1m")
	v.SetDefault("rate_limit.read.limit", 600)
	v.SetDefault("rate_limit.read.window", "1m")
	v.SetDefault("timeline.fanout_width", 500)
	v.SetDefault("reconciler.interval", "60s")
	v.SetDefault("reconciler.batch_size", 100)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "beeline")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "engagement-core")

	// Bind environment variables
	v.BindEnv("server.port", "PORT")
	v.BindEnv("dynamodb.table_name", "DYNAMODB_TABLE")
	v.BindEnv("dynamodb.region", "AWS_REGION")
	v.BindEnv("dynamodb.endpoint", "DYNAMODB_ENDPOINT")
	v.BindEnv("dynamodb.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("dynamodb.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
