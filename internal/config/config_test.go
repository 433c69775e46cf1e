package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  address: ":9000"
  public_url: "https://api.tubely.test"
s3:
  bucket_name: "tubely-media"
  region: "eu-west-1"
  public_endpoint: "https://d111.cloudfront.net"
jwt:
  secret: "s3cr3t"
  expiration: "30m"
media:
  probe_timeout: "5s"
  remux_timeout: "2m"
  max_concurrent: 2
  verify_remux: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "https://api.tubely.test", cfg.Server.PublicURL)
	assert.Equal(t, "tubely-media", cfg.S3.BucketName)
	assert.Equal(t, "https://d111.cloudfront.net", cfg.S3.PublicEndpoint)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Second, cfg.Media.ProbeTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Media.RemuxTimeout)
	assert.Equal(t, int64(2), cfg.Media.MaxConcurrent)
	assert.False(t, cfg.Media.VerifyRemux)

	// Untouched keys keep their defaults.
	assert.Equal(t, "ffprobe", cfg.Media.FFprobePath)
	assert.Equal(t, DefaultMaxVideoBytes, cfg.Media.MaxVideoBytes)
	assert.Equal(t, DefaultMaxThumbnailBytes, cfg.Media.MaxThumbnailBytes)
}

func TestLoadConfig_EnvOverridesWithoutFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("S3_BUCKET_NAME", "env-bucket")
	t.Setenv("MEDIA_FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "env-bucket", cfg.S3.BucketName)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
	assert.Contains(t, err.Error(), "s3.bucket_name")
}
