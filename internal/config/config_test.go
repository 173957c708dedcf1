package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "valid config",
			yaml:    `listen_address: "localhost:8080"`,
			wantErr: "",
		},
		{
			name:    "bad listen address fails validation",
			yaml:    `listen_address: "not an address"`,
			wantErr: "config validation failed",
		},
		{
			name:    "bad log level fails validation",
			yaml:    `log_level: LOUD`,
			wantErr: "config validation failed",
		},
		{
			name:    "bcrypt cost out of range fails validation",
			yaml:    `bcrypt_cost: 99`,
			wantErr: "config validation failed",
		},
		{
			name:    "bad redis address fails validation",
			yaml:    `redis_addr: "::::"`,
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
			path := writeTestConfig(t, test.yaml)
			cfg, err := Load(path)

			if test.wantErr != "" {
				require.ErrorContains(t, err, test.wantErr)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, Default().ListenAddress, cfg.ListenAddress)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONTACTBOARD_LISTEN_ADDRESS", "localhost:9000")
	t.Setenv("CONTACTBOARD_BCRYPT_COST", "6")
	t.Setenv("CONTACTBOARD_DEV_MODE", "true")

	cfg, err := Load(writeTestConfig(t, `listen_address: "localhost:8080"`))
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.ListenAddress)
	assert.Equal(t, 6, cfg.BcryptCost)
	assert.True(t, cfg.DevMode)
}

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}
