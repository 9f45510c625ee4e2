package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if err := validateListen(c.Server.Listen); err != nil {
		v.Add("server.listen invalid: %v", err)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			v.Add("server.tls.certFile required when tls.enabled is true")
		} else if err := requireFile(c.resolvePath(c.Server.TLS.CertFile)); err != nil {
			v.Add("server.tls.certFile invalid: %v", err)
		}
		if c.Server.TLS.KeyFile == "" {
			v.Add("server.tls.keyFile required when tls.enabled is true")
		} else if err := requireFile(c.resolvePath(c.Server.TLS.KeyFile)); err != nil {
			v.Add("server.tls.keyFile invalid: %v", err)
		}
	}

	if c.Site.Root == "" {
		v.Add("site.root is required")
	} else if err := requireDir(c.resolvePath(c.Site.Root)); err != nil {
		v.Add("site.root invalid: %v", err)
	}

	if strings.ContainsRune(c.Site.Index, '/') {
		v.Add("site.index must be a bare file name")
	}

	prefixes := map[string]struct{}{}
	for i, mount := range c.Site.Mounts {
		if mount.URLPrefix == "" || !strings.HasPrefix(mount.URLPrefix, "/") {
			v.Add("site.mounts[%d].urlPrefix must start with /", i)
		} else if _, exists := prefixes[mount.URLPrefix]; exists {
			v.Add("site.mounts[%d].urlPrefix %q is duplicated", i, mount.URLPrefix)
		} else {
			prefixes[mount.URLPrefix] = struct{}{}
		}

		if mount.Dir == "" {
			v.Add("site.mounts[%d].dir is required", i)
		}
	}

	if c.Sessions.Enabled && c.Sessions.TTL < 0 {
		v.Add("sessions.ttl must be >= 0")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			v.Add("rateLimit.rps must be > 0")
		}
		if c.RateLimit.Burst <= 0 {
			v.Add("rateLimit.burst must be > 0")
		}
	}

	if c.Metrics.Enabled {
		if err := validateListen(c.Metrics.Listen); err != nil {
			v.Add("metrics.listen invalid: %v", err)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateListen(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return err
	}
	return nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
