package platform

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds the server settings. Values come from the defaults, then the
// TOML file named by -config, then command-line flags.
type Config struct {
	Addr    string `toml:"addr"`
	Token   string `toml:"token"`
	Backend string `toml:"backend"`
	Display string `toml:"display"`

	InlineFilter bool `toml:"inline_filter"`
	Audio        bool `toml:"audio"`
	AllowWS      bool `toml:"allow_ws"`

	TLS     bool   `toml:"tls"`
	TLSCert string `toml:"tls_cert"`
	TLSKey  string `toml:"tls_key"`

	LogLevel       string   `toml:"log_level"`
	OfferTimeout   string   `toml:"offer_timeout"`
	AllowOrigins   []string `toml:"allow_origins"`
	AuthFailLimit  int      `toml:"auth_fail_limit"`
	AuthFailWindow string   `toml:"auth_fail_window"`

	ConfigPath string `toml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		Backend:        "robotgo",
		InlineFilter:   true,
		Audio:          true,
		AllowWS:        true,
		LogLevel:       "info",
		OfferTimeout:   "10s",
		AuthFailLimit:  10,
		AuthFailWindow: "1m",
	}
}

// ParseError reports a config file that is not valid TOML for Config.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("config %s: %v", e.Path, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// LoadFile decodes the TOML file at path over c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

type stringList struct{ v *[]string }

func (s stringList) String() string {
	if s.v == nil {
		return ""
	}
	return strings.Join(*s.v, ",")
}

func (s stringList) Set(v string) error {
	*s.v = nil
	for _, o := range strings.Split(v, ",") {
		if o = strings.TrimSpace(o); o != "" {
			*s.v = append(*s.v, o)
		}
	}
	return nil
}

// bind registers every flag on fs, using the current values of c as
// defaults.
func (c *Config) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigPath, "config", c.ConfigPath, "TOML config file")
	fs.StringVar(&c.Addr, "addr", c.Addr, "HTTP listen address")
	fs.StringVar(&c.Token, "token", c.Token, "Bearer token for authentication (required)")
	fs.StringVar(&c.Backend, "backend", c.Backend, "Input backend: robotgo, xtest or log")
	fs.StringVar(&c.Display, "display", c.Display, "X11 display for the xtest backend (default $DISPLAY)")
	fs.BoolVar(&c.InlineFilter, "inline-filter", c.InlineFilter, "Route data channel events through the filter in the audio path")
	fs.BoolVar(&c.Audio, "audio", c.Audio, "Capture desktop audio")
	fs.BoolVar(&c.AllowWS, "allow-ws", c.AllowWS, "Accept control events on /ws")
	fs.BoolVar(&c.TLS, "tls", c.TLS, "Enable TLS with auto-generated self-signed certificate")
	fs.StringVar(&c.TLSCert, "tls-cert", c.TLSCert, "Path to TLS certificate file (PEM)")
	fs.StringVar(&c.TLSKey, "tls-key", c.TLSKey, "Path to TLS private key file (PEM)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: error, warn, info, debug, trace")
	fs.StringVar(&c.OfferTimeout, "offer-timeout", c.OfferTimeout, "Timeout for WHEP offer processing and ICE gathering")
	fs.Var(stringList{&c.AllowOrigins}, "allow-origins", "Comma-separated CORS allowlist (in addition to same-origin)")
	fs.IntVar(&c.AuthFailLimit, "auth-fail-limit", c.AuthFailLimit, "Max failed auth attempts per client IP per window")
	fs.StringVar(&c.AuthFailWindow, "auth-fail-window", c.AuthFailWindow, "Window for auth failure rate limiting")
}

// Load builds the configuration from args (without the program name).
// Flags given on the command line override the config file.
func Load(name string, args []string) (*Config, error) {
	cfg := Defaults()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	cfg.bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ConfigPath == "" {
		return &cfg, cfg.Validate()
	}

	file := Defaults()
	if err := file.LoadFile(cfg.ConfigPath); err != nil {
		return nil, err
	}
	fs = flag.NewFlagSet(name, flag.ContinueOnError)
	file.bind(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &file, file.Validate()
}

// Validate checks values that the flag package cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Token == "" {
		errs = append(errs, errors.New("token is required"))
	}
	if (c.TLSCert != "") != (c.TLSKey != "") {
		errs = append(errs, errors.New("tls-cert and tls-key must both be set"))
	}
	if _, err := time.ParseDuration(c.OfferTimeout); err != nil {
		errs = append(errs, fmt.Errorf("offer-timeout: %w", err))
	}
	if _, err := time.ParseDuration(c.AuthFailWindow); err != nil {
		errs = append(errs, fmt.Errorf("auth-fail-window: %w", err))
	}
	return errors.Join(errs...)
}

// Durations returns the parsed offer timeout and auth failure window.
// Call after Validate.
func (c *Config) Durations() (offer, authWindow time.Duration) {
	offer, _ = time.ParseDuration(c.OfferTimeout)
	authWindow, _ = time.ParseDuration(c.AuthFailWindow)
	return offer, authWindow
}
