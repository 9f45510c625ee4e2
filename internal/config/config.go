package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration accepts Go duration strings ("90s", "1h") or integer
// nanoseconds in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err == nil {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var n int64
	if err := value.Decode(&n); err != nil {
		return err
	}
	*d = Duration(n)
	return nil
}

type Config struct {
	ConfigVersion int             `yaml:"configVersion"`
	Server        ServerConfig    `yaml:"server"`
	Site          SiteConfig      `yaml:"site"`
	Rewrite       RewriteConfig   `yaml:"rewrite"`
	Sessions      SessionConfig   `yaml:"sessions"`
	Logging       LoggingConfig   `yaml:"logging"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
	Metrics       MetricsConfig   `yaml:"metrics"`

	baseDir string `yaml:"-"`
}

type ServerConfig struct {
	Listen string    `yaml:"listen"`
	TLS    TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
}

type SiteConfig struct {
	Root   string  `yaml:"root"`
	Index  string  `yaml:"index"`
	Mounts []Mount `yaml:"mounts"`
}

// Mount maps a URL prefix to a directory under the site root. With no
// mounts configured the whole root is served at "/".
type Mount struct {
	URLPrefix string `yaml:"urlPrefix"`
	Dir       string `yaml:"dir"`
}

type RewriteConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Extensions []string `yaml:"extensions"`
	Attributes []string `yaml:"attributes"`
}

type SessionConfig struct {
	Enabled    bool     `yaml:"enabled"`
	CookieName string   `yaml:"cookieName"`
	TTL        Duration `yaml:"ttl"`
}

type LoggingConfig struct {
	AccessLog string `yaml:"accessLog"`
}

type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	RPS        float64 `yaml:"rps"`
	Burst      int     `yaml:"burst"`
	StatusCode int     `yaml:"statusCode"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const (
	DefaultIndex      = "index.html"
	DefaultCookieName = "anyroot_session"
	DefaultSessionTTL = 24 * time.Hour
)

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

func (c *Config) IndexFile() string {
	if c.Site.Index == "" {
		return DefaultIndex
	}
	return c.Site.Index
}

func (c *Config) SessionCookieName() string {
	if c.Sessions.CookieName == "" {
		return DefaultCookieName
	}
	return c.Sessions.CookieName
}

func (c *Config) SessionTTL() time.Duration {
	if c.Sessions.TTL <= 0 {
		return DefaultSessionTTL
	}
	return time.Duration(c.Sessions.TTL)
}
