// Package config loads client settings from TOML or YAML files.
//
//	host = "https://zabbix.example.com/"
//	user = "Admin"
//	timeout = "10s"
//
//	[rate_limit]
//	rps = 20
//	burst = 5
//
//	[discovery]
//	etcd_endpoints = ["127.0.0.1:2379"]
//	cluster = "prod"
//	balancer = "consistent_hash"
//
// The password is best supplied through ZABBIXRPC_PASSWORD rather than the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
	"github.com/juju/errors"
	"zabbix-rpc/codec"
	"zabbix-rpc/loadbalance"
	"zabbix-rpc/logging"
)

const (
	EnvHost     = "ZABBIXRPC_HOST"
	EnvUser     = "ZABBIXRPC_USER"
	EnvPassword = "ZABBIXRPC_PASSWORD"
)

const (
	defaultTimeout     = "30s"
	defaultDialTimeout = "5s"
)

type Config struct {
	Host        string          `toml:"host" yaml:"host"`
	User        string          `toml:"user" yaml:"user"`
	Password    string          `toml:"password" yaml:"password"`
	Codec       string          `toml:"codec" yaml:"codec"`
	Timeout     string          `toml:"timeout" yaml:"timeout"`           // Whole HTTP round trip
	CallTimeout string          `toml:"call_timeout" yaml:"call_timeout"` // Per call, optional
	StrictLogin bool            `toml:"strict_login" yaml:"strict_login"`
	RateLimit   RateLimitConfig `toml:"rate_limit" yaml:"rate_limit"`
	Discovery   DiscoveryConfig `toml:"discovery" yaml:"discovery"`
	Log         LogConfig       `toml:"log" yaml:"log"`
}

type RateLimitConfig struct {
	RPS   float64 `toml:"rps" yaml:"rps"` // 0 disables limiting
	Burst int     `toml:"burst" yaml:"burst"`
	Wait  bool    `toml:"wait" yaml:"wait"` // Block for a token instead of failing
}

type DiscoveryConfig struct {
	EtcdEndpoints []string `toml:"etcd_endpoints" yaml:"etcd_endpoints"`
	Cluster       string   `toml:"cluster" yaml:"cluster"`
	Balancer      string   `toml:"balancer" yaml:"balancer"`
	DialTimeout   string   `toml:"dial_timeout" yaml:"dial_timeout"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Enabled reports whether endpoints come from etcd rather than Host.
func (d DiscoveryConfig) Enabled() bool {
	return len(d.EtcdEndpoints) > 0
}

// Default returns a config with every optional field filled in.
func Default() Config {
	return Config{
		Codec:   codec.CodecTypeJSON.String(),
		Timeout: defaultTimeout,
		Discovery: DiscoveryConfig{
			DialTimeout: defaultDialTimeout,
		},
	}
}

// Load reads a .toml, .yaml or .yml file, applies env overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := loadToml(path, &cfg); err != nil {
			return Config{}, err
		}
	case ".yaml", ".yml":
		if err := loadYaml(path, &cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, errors.NotSupportedf("config format %q", ext)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Annotatef(err, "config %s", path)
	}
	return cfg, nil
}

func loadToml(path string, out *Config) error {
	meta, err := toml.DecodeFile(path, out)
	if err != nil {
		return errors.Annotatef(err, "config parse failed (%s)", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		sort.Strings(keys)
		return errors.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func loadYaml(path string, out *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotatef(err, "config load failed (%s)", path)
	}
	if err := yaml.UnmarshalWithOptions(data, out, yaml.Strict()); err != nil {
		return errors.Annotatef(err, "config parse failed (%s)", path)
	}
	return nil
}

// ApplyEnv lets the environment override host and credentials.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvHost)); v != "" {
		c.Host = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUser)); v != "" {
		c.User = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		c.Password = v
	}
}

// Validate checks that the config can produce a client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.User) == "" {
		return errors.NotValidf("empty user")
	}
	if c.Discovery.Enabled() {
		if strings.TrimSpace(c.Discovery.Cluster) == "" {
			return errors.NotValidf("discovery without cluster")
		}
		if _, err := loadbalance.New(c.Discovery.Balancer); err != nil {
			return errors.Trace(err)
		}
		if _, err := parseDuration("discovery.dial_timeout", c.Discovery.DialTimeout); err != nil {
			return err
		}
	} else if strings.TrimSpace(c.Host) == "" {
		return errors.NotValidf("empty host without discovery")
	}

	if _, err := codec.ParseCodecType(c.Codec); err != nil {
		return errors.Trace(err)
	}
	if _, err := parseDuration("timeout", c.Timeout); err != nil {
		return err
	}
	if _, err := parseDuration("call_timeout", c.CallTimeout); err != nil {
		return err
	}
	if c.RateLimit.RPS < 0 {
		return errors.NotValidf("negative rate_limit.rps")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		return errors.NotValidf("rate_limit.burst %d", c.RateLimit.Burst)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// CodecType returns the configured codec. Only meaningful on a validated config.
func (c Config) CodecType() codec.CodecType {
	t, _ := codec.ParseCodecType(c.Codec)
	return t
}

// TransportTimeout returns the HTTP round-trip timeout; zero when unset.
func (c Config) TransportTimeout() time.Duration {
	d, _ := parseDuration("timeout", c.Timeout)
	return d
}

// CallTimeoutDuration returns the per-call timeout; zero when unset.
func (c Config) CallTimeoutDuration() time.Duration {
	d, _ := parseDuration("call_timeout", c.CallTimeout)
	return d
}

// DialTimeout returns the etcd dial timeout; zero when unset.
func (c Config) DialTimeout() time.Duration {
	d, _ := parseDuration("discovery.dial_timeout", c.Discovery.DialTimeout)
	return d
}

func parseDuration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if d < 0 {
		return 0, errors.NotValidf("negative %s", field)
	}
	return d, nil
}
