// Package config loads client settings from a YAML file, .env files and
// HTTPCALL_* environment variables, and turns them into [client.Option]s.
//
// Precedence, lowest first: the YAML file, .env, .env.$ENVIRONMENT,
// .env.local, then the process environment. Values already present in the
// process environment are never replaced by .env, but .env.$ENVIRONMENT and
// .env.local overload them.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/adamwoolhether/httpcall/client"
	"github.com/adamwoolhether/httpcall/client/diag"
	"github.com/adamwoolhether/httpcall/client/throttle"
	"github.com/adamwoolhether/httpcall/internal/validate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HTTPCALL_"

// Diagnostics destinations.
const (
	DiagConsole = "console"
	DiagStderr  = "stderr"
	DiagSlog    = "slog"
)

// Config is the file and environment form of the client options.
// Zero values leave the client defaults in place.
type Config struct {
	Timeout           Duration         `yaml:"timeout" validate:"gte=0"`
	ConnectTimeout    Duration         `yaml:"connectTimeout" validate:"gte=0"`
	UserAgent         string           `yaml:"userAgent"`
	Throttle          *throttle.Config `yaml:"throttle"`
	NoFollowRedirects bool             `yaml:"noFollowRedirects"`
	TempDir           string           `yaml:"tempDir"`
	RequestIDHeader   string           `yaml:"requestIdHeader"`
	JSONNumber        bool             `yaml:"jsonNumber"`
	Diagnostics       string           `yaml:"diagnostics" validate:"omitempty,oneof=console stderr slog"`
}

// Duration is a time.Duration that unmarshals from YAML strings (e.g. "60s", "5m").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the standard time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

// Load reads the YAML file at path, if path is not empty, then applies
// .env files from the working directory and HTTPCALL_* overrides.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("opening config: %w", err)
		}
		defer f.Close()

		if cfg, err = Parse(f); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if err := loadEnvFiles(); err != nil {
		return Config{}, err
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("applying environment: %w", err)
	}

	if err := validate.Check(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Parse decodes a YAML document. Unknown keys are rejected and an empty
// document yields the zero Config.
func Parse(r io.Reader) (Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() error {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = os.Getenv("ENV")
	}
	if env != "" {
		envFile := ".env." + env
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	return nil
}

func (cfg *Config) applyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	collect(envDuration("TIMEOUT", &cfg.Timeout))
	collect(envDuration("CONNECT_TIMEOUT", &cfg.ConnectTimeout))
	envString("USER_AGENT", &cfg.UserAgent)
	collect(envBool("NO_FOLLOW_REDIRECTS", &cfg.NoFollowRedirects))
	envString("TEMP_DIR", &cfg.TempDir)
	collect(envBool("JSON_NUMBER", &cfg.JSONNumber))
	envString("DIAGNOSTICS", &cfg.Diagnostics)
	envString("REQUEST_ID_HEADER", &cfg.RequestIDHeader)

	var tc throttle.Config
	if cfg.Throttle != nil {
		tc = *cfg.Throttle
	}
	_, rpsSet := lookup("THROTTLE_RPS")
	_, burstSet := lookup("THROTTLE_BURST")
	_, hostSet := lookup("THROTTLE_PER_HOST")
	collect(envInt("THROTTLE_RPS", &tc.RPS))
	collect(envInt("THROTTLE_BURST", &tc.Burst))
	collect(envBool("THROTTLE_PER_HOST", &tc.PerHost))
	if cfg.Throttle != nil || rpsSet || burstSet || hostSet {
		cfg.Throttle = &tc
	}

	return errors.Join(errs...)
}

// Options converts cfg into client options, in the order [client.Build]
// applies them.
func (cfg Config) Options() []client.Option {
	var opts []client.Option

	if cfg.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Timeout.Duration()))
	}
	if cfg.ConnectTimeout > 0 {
		opts = append(opts, client.WithConnectTimeout(cfg.ConnectTimeout.Duration()))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(cfg.UserAgent))
	}
	if t := cfg.Throttle; t != nil {
		if t.PerHost {
			opts = append(opts, client.WithHostThrottle(t.RPS, t.Burst))
		} else {
			opts = append(opts, client.WithThrottle(t.RPS, t.Burst))
		}
	}
	if cfg.NoFollowRedirects {
		opts = append(opts, client.WithNoFollowRedirects())
	}
	if cfg.TempDir != "" {
		opts = append(opts, client.WithTempDir(cfg.TempDir))
	}
	if cfg.RequestIDHeader != "" {
		opts = append(opts, client.WithRequestIDHeader(cfg.RequestIDHeader))
	}
	if cfg.JSONNumber {
		opts = append(opts, client.WithJSONNumb())
	}

	switch cfg.Diagnostics {
	case DiagConsole:
		opts = append(opts, client.WithSink(diag.Console(os.Stdout)))
	case DiagStderr:
		opts = append(opts, client.WithSink(diag.Writer(os.Stderr)))
	case DiagSlog:
		opts = append(opts, client.WithSink(diag.Slog(slog.Default())))
	}

	return opts
}

// =============================================================================

func lookup(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}

func envString(key string, dst *string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = b
	return nil
}

func envInt(key string, dst *int) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *Duration) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	*dst = Duration(d)
	return nil
}
