package config

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6667", cfg.Address())
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Read.Std())
	assert.Equal(t, 1, cfg.Retry.Attempts)
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Empty(t, cfg.Source)

	// The WEBIRC password has no default
	assert.Error(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "ircreg.yaml", `
ircd:
  host: irc.example.net
  port: 6697
  tls: true
webirc:
  password: s3cret
  gateway: suprachat
timeouts:
  read: 5s
retry:
  attempts: 3
  initial: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "irc.example.net:6697", cfg.Address())
	assert.True(t, cfg.IRCd.TLS)
	assert.Equal(t, "s3cret", cfg.WebIRC.Password)
	assert.Equal(t, "suprachat", cfg.WebIRC.Gateway)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Read.Std())
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Dial.Std(), "unset keys keep their defaults")
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Initial.Std())
	assert.Equal(t, path, cfg.Source)
	assert.NoError(t, cfg.Validate())
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "ircreg.toml", `
[ircd]
host = "irc.example.org"
port = 7000

[webirc]
password = "tomlpass"

[timeouts]
handshake = "1m"

[log]
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "irc.example.org:7000", cfg.Address())
	assert.Equal(t, "tomlpass", cfg.WebIRC.Password)
	assert.Equal(t, time.Minute, cfg.Timeouts.Handshake.Std())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "ircreg.json", `{"ircd": {"port": 6668}, "webirc": {"password": "jsonpass"}, "retry": {"multiplier": 1.5}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6668, cfg.IRCd.Port)
	assert.Equal(t, "jsonpass", cfg.WebIRC.Password)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ircreg.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("webirc:\n  password: fromurl\n"))
	}))
	defer srv.Close()

	cfg, err := Load(srv.URL + "/ircreg.yaml")
	require.NoError(t, err)
	assert.Equal(t, "fromurl", cfg.WebIRC.Password)

	_, err = Load(srv.URL + "/missing.yaml")
	assert.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "timeouts:\n  read: soon\n"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "ircreg.yaml", "ircd:\n  host: irc.example.net\nwebirc:\n  password: filepass\n")

	t.Setenv("SUPRA_IRCD_HOST", "10.0.0.5")
	t.Setenv("SUPRA_IRCD_PORT", "6669")
	t.Setenv("SUPRA_IRCD_TLS", "yes")
	t.Setenv("SUPRA_TIMEOUT_READ", "2s")
	t.Setenv("SUPRA_RETRY_MULTIPLIER", "3")
	t.Setenv("SUPRA_RETRY_ATTEMPTS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:6669", cfg.Address())
	assert.True(t, cfg.IRCd.TLS)
	assert.Equal(t, "filepass", cfg.WebIRC.Password)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Read.Std())
	assert.Equal(t, 3.0, cfg.Retry.Multiplier)
	assert.Equal(t, 1, cfg.Retry.Attempts, "unparseable values are ignored")
}

func TestLoadEnvFiles(t *testing.T) {
	path := writeFile(t, ".env", "SUPRA_WEBIRC_PASSWORD=dotenvpass\nSUPRA_LOG_LEVEL=DEBUG\n")
	t.Setenv("SUPRA_LOG_LEVEL", "WARN")

	// t.Setenv restores the variable; clear the one godotenv will set
	t.Setenv("SUPRA_WEBIRC_PASSWORD", "")
	os.Unsetenv("SUPRA_WEBIRC_PASSWORD")

	require.NoError(t, LoadEnvFiles(path, filepath.Join(t.TempDir(), "absent.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenvpass", cfg.WebIRC.Password)
	assert.Equal(t, "WARN", cfg.Log.Level, "existing variables win")
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.WebIRC.Password = "pw"
	cfg.IRCd.Port = 70000
	cfg.Timeouts.Read = Duration(-time.Second)

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ircd.port 70000 out of range")
	assert.Contains(t, err.Error(), "timeouts must not be negative")
	assert.NotContains(t, err.Error(), "webirc.password")
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
