package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"))

	cfg, err := loader.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg.Server)
	require.NotNil(t, cfg.Settings)
	assert.False(t, loader.Exists())
}

func TestLoadWithCreateWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "csd-runlab.yaml")
	loader := NewLoader(path)

	_, err := loader.LoadWithCreate(true)
	require.NoError(t, err)
	assert.True(t, loader.Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csd-runlab.yaml")
	loader := NewLoader(path)

	in := DefaultConfig()
	in.Server.URL = "https://lab.example.com/api/v1"
	in.Server.InsecureTLS = true
	in.Settings.Theme = "light"
	in.Settings.LogBufferLines = 250
	require.NoError(t, loader.Save(in))

	out, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://lab.example.com/api/v1", out.Server.URL)
	assert.True(t, out.Server.InsecureTLS)
	assert.Equal(t, "light", out.Settings.Theme)
	assert.Equal(t, 250, out.Settings.LogBufferLines)
}

func TestLoadFillsMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csd-runlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  url: https://lab.example.com\n"), 0644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://lab.example.com", cfg.Server.URL)
	assert.NotEmpty(t, cfg.Server.TokenFile, "token file defaulted")
	require.NotNil(t, cfg.Settings, "settings section defaulted")
	assert.NotNil(t, cfg.Settings.Logger)
	assert.NotNil(t, cfg.Settings.Reconnect)
}

func TestLoadFillsPartialSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csd-runlab.yaml")
	yaml := "server:\n  url: https://lab.example.com\nsettings:\n  theme: dark\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Settings.LogBufferLines)
	assert.Equal(t, 400, cfg.Settings.AutoExpandDelayMS)
	require.NotNil(t, cfg.Settings.Reconnect)
	assert.Greater(t, cfg.Settings.Reconnect.InitialDelayMS, 0)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csd-runlab.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0644))

	_, err := NewLoader(path).Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.URL = "https://lab.example.com"
	assert.Empty(t, cfg.Validate())

	cfg.Server.URL = ""
	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "server.url")

	cfg = DefaultConfig()
	cfg.Server.URL = "https://lab.example.com"
	cfg.Settings.LogBufferLines = 10
	cfg.Settings.RefreshRate = 10
	cfg.Settings.Reconnect = &ReconnectConfig{InitialDelayMS: 500, MaxDelayMS: 100}
	assert.Len(t, cfg.Validate(), 3)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Version = "1"

	base.Merge(nil)
	assert.Equal(t, "1", base.Version)

	base.Merge(&Config{
		Version: "2",
		Server:  &Server{URL: "https://other.example.com"},
	})
	assert.Equal(t, "2", base.Version)
	assert.Equal(t, "https://other.example.com", base.Server.URL)
	assert.NotNil(t, base.Settings, "absent sections stay as they were")
}
