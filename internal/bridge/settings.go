package bridge

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/economy/internal/config"
)

// Bridge defaults. A chat line is small, so the body cap stays tight.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 8766
	DefaultMaxBodyBytes int64 = 64 << 10
	DefaultDedupeWindow       = 1024
	DefaultReadTimeout        = 10 * time.Second
	DefaultWriteTimeout       = 15 * time.Second
	DefaultIdleTimeout        = 60 * time.Second
)

// Settings is the resolved bridge configuration: config.yaml first, then
// ECONOMY_BRIDGE_* variables, then defaults for anything still unset.
type Settings struct {
	Enabled bool
	Host    string
	// Port 0 binds an ephemeral port.
	Port int
	// MaxBodyBytes caps a POST /messages body; larger ones get 413.
	MaxBodyBytes int64
	// DedupeWindow is how many recent message ids are remembered.
	DedupeWindow int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SettingsFromConfig resolves Settings for the project. A nil config yields
// the defaults plus any environment overrides.
func SettingsFromConfig(cfg *config.Config) Settings {
	s := Settings{Enabled: true, Host: DefaultHost, Port: DefaultPort}
	if cfg != nil {
		s.merge(cfg.Project.Bridge)
	}
	for _, o := range envOverrides {
		if raw := strings.TrimSpace(os.Getenv(o.name)); raw != "" {
			o.apply(&s, raw)
		}
	}
	s.normalize()
	return s
}

func (s *Settings) merge(b config.BridgeConfig) {
	if b.Enabled != nil {
		s.Enabled = *b.Enabled
	}
	if host := strings.TrimSpace(b.Host); host != "" {
		s.Host = host
	}
	if validPort(b.Port) {
		s.Port = b.Port
	}
	if b.MaxBodyBytes > 0 {
		s.MaxBodyBytes = b.MaxBodyBytes
	}
	if b.DedupeWindow > 0 {
		s.DedupeWindow = b.DedupeWindow
	}
}

// envOverrides ignores values that do not parse.
var envOverrides = []struct {
	name  string
	apply func(*Settings, string)
}{
	{"ECONOMY_BRIDGE_ENABLED", func(s *Settings, v string) {
		if on, err := strconv.ParseBool(v); err == nil {
			s.Enabled = on
		}
	}},
	{"ECONOMY_BRIDGE_HOST", func(s *Settings, v string) {
		s.Host = v
	}},
	{"ECONOMY_BRIDGE_PORT", func(s *Settings, v string) {
		if port, err := strconv.Atoi(v); err == nil && validPort(port) {
			s.Port = port
		}
	}},
	{"ECONOMY_BRIDGE_MAX_BODY_BYTES", func(s *Settings, v string) {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			s.MaxBodyBytes = n
		}
	}},
	{"ECONOMY_BRIDGE_DEDUPE_WINDOW", func(s *Settings, v string) {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			s.DedupeWindow = n
		}
	}},
}

func (s *Settings) normalize() {
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	if s.Port < 0 || s.Port > 65535 {
		s.Port = DefaultPort
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if s.DedupeWindow <= 0 {
		s.DedupeWindow = DefaultDedupeWindow
	}
	for _, d := range []struct {
		field *time.Duration
		def   time.Duration
	}{
		{&s.ReadTimeout, DefaultReadTimeout},
		{&s.WriteTimeout, DefaultWriteTimeout},
		{&s.IdleTimeout, DefaultIdleTimeout},
	} {
		if *d.field <= 0 {
			*d.field = d.def
		}
	}
}

// Address is the host:port the server binds.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL is the base URL clients post to.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
