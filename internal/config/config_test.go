package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
jwt:
  secret: file-secret
storage:
  driver: local
  local_path: /tmp/ojt
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, int64(5<<20), cfg.Uploads.MaxDocumentSize)
	assert.Equal(t, int64(10<<20), cfg.Uploads.MaxAvatarSize)
	assert.Equal(t, 5*time.Second, cfg.Database.Retry.Interval)
	assert.Equal(t, "http://localhost:9090", cfg.PublicBaseURL())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: from-file\n")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("MAX_FILE_SIZE", "1024")
	t.Setenv("DB_RETRY_INTERVAL", "250ms")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxDocumentSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.Retry.Interval)
	assert.True(t, cfg.Storage.MinIO.UseSSL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers())
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "server:\n  port: \"1\"\n"},
		{"bad expiration", "jwt:\n  secret: s\n  access_token_expiration: soon\n"},
		{"unknown storage", "jwt:\n  secret: s\nstorage:\n  driver: ftp\n"},
		{"minio without bucket", "jwt:\n  secret: s\nstorage:\n  driver: minio\n  minio:\n    endpoint: localhost:9000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestSetFieldFromEnvRejectsGarbage(t *testing.T) {
	path := writeConfig(t, "jwt:\n  secret: s\n")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "DB_MAX_OPEN_CONNS")
}
