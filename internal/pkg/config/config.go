package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string        `env:"PORT,         default=3000"`
	Env       string        `env:"ENV,          default=development"`
	LogLevel  string        `env:"LOG_LEVEL,    default=info"`
	JWTSecret string        `env:"JWT_SECRET,   required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,    default=5h"`
	// BcryptCost is the work factor of new password hashes.
	BcryptCost  int      `env:"BCRYPT_COST,  default=12"`
	CORSOrigins []string `env:"CORS_ORIGIN,  default=*"`

	Mongo    MongoConfig
	Redis    RedisConfig
	S3       S3Config
	Upload   UploadConfig
	Realtime RealtimeConfig
	Login    LoginConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=cms"`
}

// RedisConfig is optional. An empty Addr keeps realtime events in-process.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,      default=0"`
	Channel  string `env:"REDIS_CHANNEL, default=cms:content-events"`
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET,            default=cms-uploads"`
	Region          string `env:"S3_REGION,            default=us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
	UsePathStyle    bool   `env:"S3_USE_PATH_STYLE,    default=false"`
}

type UploadConfig struct {
	MaxBytes int64 `env:"UPLOAD_MAX_BYTES, default=10485760"`
}

type RealtimeConfig struct {
	Workers   int `env:"REALTIME_WORKERS,    default=4"`
	QueueSize int `env:"REALTIME_QUEUE_SIZE, default=256"`
}

type LoginConfig struct {
	PerMinute int `env:"LOGIN_RATE_PER_MIN, default=10"`
	Burst     int `env:"LOGIN_BURST,        default=5"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l using go-envconfig.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("config: UPLOAD_MAX_BYTES must be positive")
	}
	return &cfg, nil
}
