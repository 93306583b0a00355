package authcache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCleanUpInterval is a delay between two consecutive removals of expired entries.
const DefaultCleanUpInterval = time.Minute

// Config controls caching authenticator instance.
//
// It can be embedded in YAML service configuration either as a mapping or
// as a spec string, e.g. "maximumSize=1000,expireAfterWrite=10m".
type Config struct {
	// Name is cache instance name, used in stats and logging.
	Name string `yaml:"name"`

	// MaximumSize bounds the number of resident entries, least recently used entries are evicted.
	// Zero means unbounded, negative value disables caching (every call is delegated).
	// Victim lookup scans resident entries, so inserts into a full cache cost linear time
	// while reads stay lock-free.
	MaximumSize int `yaml:"maximumSize"`

	// ExpireAfterWrite removes entries that were stored longer than this ago, zero disables.
	ExpireAfterWrite time.Duration `yaml:"expireAfterWrite"`

	// ExpireAfterAccess removes entries that were not read longer than this ago, zero disables.
	ExpireAfterAccess time.Duration `yaml:"expireAfterAccess"`

	// CleanUpInterval is a delay between two consecutive expired entries cleanups, default 1m.
	// Use -1 to disable background cleanup, expired entries are still never served.
	CleanUpInterval time.Duration `yaml:"cleanUpInterval"`

	// Logger is an instance of contextualized logger, can be nil.
	Logger ctxd.Logger `yaml:"-"`

	// Stats is metrics collector, can be nil.
	Stats stats.Tracker `yaml:"-"`

	// TracerProvider creates load spans, global provider is used if nil.
	TracerProvider trace.TracerProvider `yaml:"-"`
}

func (c Config) expires() bool {
	return c.ExpireAfterWrite > 0 || c.ExpireAfterAccess > 0
}

// UnmarshalText parses spec string into config.
func (c *Config) UnmarshalText(text []byte) error {
	parsed, err := ParseSpec(string(text))
	if err != nil {
		return err
	}

	c.Name = parsed.Name
	c.MaximumSize = parsed.MaximumSize
	c.ExpireAfterWrite = parsed.ExpireAfterWrite
	c.ExpireAfterAccess = parsed.ExpireAfterAccess
	c.CleanUpInterval = parsed.CleanUpInterval

	return nil
}

// ParseSpec parses comma-separated key=value options into Config.
//
// Supported keys: maximumSize, expireAfterWrite, expireAfterAccess, cleanUpInterval, name.
// Durations use Go syntax ("90s", "10m"), a "d" suffix for days or a plain number of seconds.
func ParseSpec(spec string) (Config, error) {
	cfg := Config{}
	seen := make(map[string]bool)

	for _, option := range strings.Split(spec, ",") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}

		key, value, ok := strings.Cut(option, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if !ok || value == "" {
			return Config{}, fmt.Errorf("%w: value required for %q", ErrInvalidSpec, key)
		}

		if seen[key] {
			return Config{}, fmt.Errorf("%w: %s was already set", ErrInvalidSpec, key)
		}

		seen[key] = true

		var err error

		switch key {
		case "maximumSize":
			cfg.MaximumSize, err = strconv.Atoi(value)
		case "expireAfterWrite":
			cfg.ExpireAfterWrite, err = parseSpecDuration(value)
		case "expireAfterAccess":
			cfg.ExpireAfterAccess, err = parseSpecDuration(value)
		case "cleanUpInterval":
			cfg.CleanUpInterval, err = parseSpecDuration(value)
		case "name":
			cfg.Name = value
		default:
			return Config{}, fmt.Errorf("%w: unknown option %q", ErrInvalidSpec, key)
		}

		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%s: %v", ErrInvalidSpec, key, value, err)
		}
	}

	return cfg, nil
}

func parseSpecDuration(value string) (time.Duration, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}

	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.ParseInt(days, 10, 64)
		if err != nil {
			return 0, err
		}

		return time.Duration(n) * 24 * time.Hour, nil
	}

	return time.ParseDuration(value)
}
