package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Media    MediaConfig    `mapstructure:"media"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// PublicURL is the externally reachable base of this API, used to build
	// thumbnail URLs (e.g. "https://api.example.com").
	PublicURL string `mapstructure:"public_url"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"` // Custom endpoint for S3-compatible storage (MinIO etc.)
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	// PublicEndpoint is the distribution host published URLs are built from.
	// Empty means the bucket's virtual-hosted S3 URL.
	PublicEndpoint string `mapstructure:"public_endpoint"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// MediaConfig controls the upload pipeline and the external tools it runs.
type MediaConfig struct {
	FFprobePath       string        `mapstructure:"ffprobe_path"`
	FFmpegPath        string        `mapstructure:"ffmpeg_path"`
	TempDir           string        `mapstructure:"temp_dir"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	RemuxTimeout      time.Duration `mapstructure:"remux_timeout"`
	MaxConcurrent     int64         `mapstructure:"max_concurrent"`
	VerifyRemux       bool          `mapstructure:"verify_remux"`
	MaxVideoBytes     int64         `mapstructure:"max_video_bytes"`
	MaxThumbnailBytes int64         `mapstructure:"max_thumbnail_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"` // Human-readable console output instead of JSON
}

// Default upload limits.
const (
	DefaultMaxVideoBytes     int64 = 1 << 30
	DefaultMaxThumbnailBytes int64 = 10 << 20
)

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, media.temp_dir -> MEDIA_TEMP_DIR
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// No file; defaults and env vars are enough.
		err = nil
	} else if err != nil {
		return
	}

	// Duration strings ("30s", "10m") decode straight into time.Duration fields.
	if err = v.Unmarshal(&config); err != nil {
		return
	}

	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8091")
	v.SetDefault("server.public_url", "http://localhost:8091")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "tubely")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("media.ffprobe_path", "ffprobe")
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.temp_dir", "")
	v.SetDefault("media.probe_timeout", "30s")
	v.SetDefault("media.remux_timeout", "10m")
	v.SetDefault("media.max_concurrent", 4)
	v.SetDefault("media.verify_remux", true)
	v.SetDefault("media.max_video_bytes", DefaultMaxVideoBytes)
	v.SetDefault("media.max_thumbnail_bytes", DefaultMaxThumbnailBytes)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{"s3.endpoint", "s3.access_key_id", "s3.secret_access_key", "s3.bucket_name", "s3.public_endpoint", "jwt.secret"} {
		v.SetDefault(key, "")
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.S3.BucketName == "" {
		errs = append(errs, errors.New("s3.bucket_name is required"))
	}
	if c.Media.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("media.max_concurrent must be positive"))
	}
	if c.Media.MaxVideoBytes <= 0 || c.Media.MaxThumbnailBytes <= 0 {
		errs = append(errs, errors.New("media upload limits must be positive"))
	}
	if c.Media.ProbeTimeout <= 0 || c.Media.RemuxTimeout <= 0 {
		errs = append(errs, errors.New("media timeouts must be positive"))
	}
	return errors.Join(errs...)
}
