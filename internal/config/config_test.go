package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "valid config",
			yaml:    `session_secret: "s3cret"`,
			wantErr: "",
		},
		{
			name:    "missing session_secret fails validation",
			yaml:    `log_level: INFO`,
			wantErr: "config validation failed",
		},
		{
			name:    "empty session_secret fails validation",
			yaml:    `session_secret: ""`,
			wantErr: "config validation failed",
		},
		{
			name: "bad log level fails validation",
			yaml: "session_secret: s3cret\nlog_level: LOUD",

			wantErr: "config validation failed",
		},
		{
			name:    "invalid yaml syntax",
			yaml:    `invalid: [yaml: content`,
			wantErr: "failed to unmarshal config file",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestConfig(t, test.yaml)
			cfg, err := Load(path)

			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			// defaults survive a partial file
			assert.Equal(t, "INFO", cfg.LogLevel)
			assert.Equal(t, DefaultSessionTTL, cfg.SessionTTL)
			assert.NotEmpty(t, cfg.DBFilepath)
		})
	}
}

func TestLoad_SessionTTL(t *testing.T) {
	t.Parallel()

	path := writeTestConfig(t, "session_secret: s3cret\nsession_ttl: 12h")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Duration(12*time.Hour), cfg.SessionTTL)

	path = writeTestConfig(t, "session_secret: s3cret\nsession_ttl: soon")
	cfg, err = Load(path)
	require.ErrorContains(t, err, "invalid duration")
	assert.Nil(t, cfg)

	path = writeTestConfig(t, "session_secret: s3cret\nsession_ttl: -1h")
	cfg, err = Load(path)
	require.ErrorContains(t, err, "session_ttl must be positive")
	assert.Nil(t, cfg)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	require.ErrorContains(t, err, "failed to read config file")
	assert.Nil(t, cfg)
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}
