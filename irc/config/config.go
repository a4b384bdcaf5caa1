package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the account client configuration
type Config struct {
	// IRC daemon endpoint
	IRCd struct {
		Host               string `yaml:"host" toml:"host" json:"host" env:"SUPRA_IRCD_HOST"`
		Port               int    `yaml:"port" toml:"port" json:"port" env:"SUPRA_IRCD_PORT"`
		TLS                bool   `yaml:"tls" toml:"tls" json:"tls" env:"SUPRA_IRCD_TLS"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify" toml:"insecure_skip_verify" json:"insecure_skip_verify" env:"SUPRA_IRCD_INSECURE_SKIP_VERIFY"`
	} `yaml:"ircd" toml:"ircd" json:"ircd"`

	// WEBIRC gateway settings
	WebIRC struct {
		Password string `yaml:"password" toml:"password" json:"password" env:"SUPRA_WEBIRC_PASSWORD"`
		Gateway  string `yaml:"gateway" toml:"gateway" json:"gateway" env:"SUPRA_WEBIRC_GATEWAY"`
	} `yaml:"webirc" toml:"webirc" json:"webirc"`

	// Timeouts
	Timeouts struct {
		Dial      Duration `yaml:"dial" toml:"dial" json:"dial" env:"SUPRA_TIMEOUT_DIAL"`
		Read      Duration `yaml:"read" toml:"read" json:"read" env:"SUPRA_TIMEOUT_READ"`
		Handshake Duration `yaml:"handshake" toml:"handshake" json:"handshake" env:"SUPRA_TIMEOUT_HANDSHAKE"`
	} `yaml:"timeouts" toml:"timeouts" json:"timeouts"`

	// Whole-handshake retries
	Retry struct {
		Attempts   int      `yaml:"attempts" toml:"attempts" json:"attempts" env:"SUPRA_RETRY_ATTEMPTS"`
		Initial    Duration `yaml:"initial" toml:"initial" json:"initial" env:"SUPRA_RETRY_INITIAL"`
		Max        Duration `yaml:"max" toml:"max" json:"max" env:"SUPRA_RETRY_MAX"`
		Multiplier float64  `yaml:"multiplier" toml:"multiplier" json:"multiplier" env:"SUPRA_RETRY_MULTIPLIER"`
		Jitter     bool     `yaml:"jitter" toml:"jitter" json:"jitter" env:"SUPRA_RETRY_JITTER"`
	} `yaml:"retry" toml:"retry" json:"retry"`

	// Logging
	Log struct {
		Level      string `yaml:"level" toml:"level" json:"level" env:"SUPRA_LOG_LEVEL"`
		Format     string `yaml:"format" toml:"format" json:"format" env:"SUPRA_LOG_FORMAT"`
		File       string `yaml:"file" toml:"file" json:"file" env:"SUPRA_LOG_FILE"`
		MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb" env:"SUPRA_LOG_MAX_SIZE_MB"`
		MaxBackups int    `yaml:"max_backups" toml:"max_backups" json:"max_backups" env:"SUPRA_LOG_MAX_BACKUPS"`
		MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days" json:"max_age_days" env:"SUPRA_LOG_MAX_AGE_DAYS"`
	} `yaml:"log" toml:"log" json:"log"`

	// Metrics
	Metrics struct {
		Textfile string `yaml:"textfile" toml:"textfile" json:"textfile" env:"SUPRA_METRICS_TEXTFILE"`
	} `yaml:"metrics" toml:"metrics" json:"metrics"`

	// Configuration source, empty when built from defaults only
	Source string `yaml:"-" toml:"-" json:"-"`
}

// Duration is a time.Duration that reads as "15s" in every config format
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler (yaml, toml, json strings)
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	c.IRCd.Host = "127.0.0.1"
	c.IRCd.Port = 6667
	c.Timeouts.Dial = Duration(10 * time.Second)
	c.Timeouts.Read = Duration(15 * time.Second)
	c.Timeouts.Handshake = Duration(30 * time.Second)
	c.Retry.Attempts = 1
	c.Retry.Initial = Duration(500 * time.Millisecond)
	c.Retry.Max = Duration(5 * time.Second)
	c.Retry.Multiplier = 2
	c.Retry.Jitter = true
	c.Log.Level = "INFO"
	c.Log.Format = "text"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
}

// Load loads configuration from a file or URL. An empty source yields the
// defaults. Environment variables override both.
func Load(source string) (*Config, error) {
	cfg := Default()

	if source != "" {
		if err := cfg.loadFromSource(source); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadEnvFiles loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// loadFromSource loads configuration from a file or URL
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	// Check if the source is a URL
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return fmt.Errorf("failed to load config from URL: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read config from URL: %w", err)
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Determine the format based on file extension
	switch {
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		err = yaml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	c.Source = source
	return nil
}

// Validate reports settings the client cannot work with
func (c *Config) Validate() error {
	var errs []error
	if c.WebIRC.Password == "" {
		errs = append(errs, errors.New("webirc.password is required"))
	}
	if c.IRCd.Port <= 0 || c.IRCd.Port > 65535 {
		errs = append(errs, fmt.Errorf("ircd.port %d out of range", c.IRCd.Port))
	}
	if c.Timeouts.Read < 0 || c.Timeouts.Dial < 0 || c.Timeouts.Handshake < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// Address returns host:port of the daemon
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.IRCd.Host, c.IRCd.Port)
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

var durationType = reflect.TypeOf(Duration(0))

// applyEnvOverridesRecursive recursively applies environment variable overrides
func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		envTag := field.Tag.Get("env")

		if envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable.
// Unparseable values leave the field untouched.
func setFieldFromEnv(field reflect.Value, envValue string) {
	if field.Type() == durationType {
		if d, err := time.ParseDuration(envValue); err == nil {
			field.SetInt(int64(d))
		}
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := strconv.ParseInt(envValue, 10, 64); err == nil {
			field.SetInt(v)
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(envValue, 64); err == nil {
			field.SetFloat(v)
		}
	case reflect.Bool:
		field.SetBool(parseBool(envValue))
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "y"
}
