// Package config loads the settings of a dcf process.
//
// Sources, later ones win:
//  1. built-in defaults
//  2. an optional JSON file ({"mode": "client", "host": "...", "port": 50051, ...})
//  3. a .env file in the working directory, if present
//  4. DCF_* environment variables
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Mode   string   `json:"mode"`    // Role label: client, server, p2p, auto, master
	NodeID string   `json:"node_id"` // Stamped as Sender on outgoing messages
	Peers  []string `json:"peers"`   // Static host:port candidates for the single peer
	Host   string   `json:"host"`    // Peer host; wins over Peers and discovery
	Port   int      `json:"port"`    // Peer port

	Bind           string        `json:"bind"`     // Listen address for serve
	Codec          string        `json:"codec"`    // json or binary
	Balancer       string        `json:"balancer"` // round_robin, weighted_random, consistent_hash
	EtcdEndpoints  []string      `json:"etcd_endpoints"`
	Service        string        `json:"service"` // Registry service name
	ConnectTimeout time.Duration `json:"-"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"` // json or console
}

// fileConfig mirrors Config for the JSON file, where durations are strings.
type fileConfig struct {
	Config
	ConnectTimeout string `json:"connect_timeout"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Mode:           "auto",
		NodeID:         uuid.NewString(),
		Host:           "",
		Port:           50051,
		Bind:           "0.0.0.0:50051",
		Codec:          "json",
		Balancer:       "round_robin",
		Service:        "dcf",
		ConnectTimeout: 20 * time.Second,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

// Load builds a Config from defaults, the JSON file at path (skipped when path is
// empty), .env and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	// A missing .env is fine; system env vars still apply.
	_ = godotenv.Load()

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	fc := fileConfig{Config: *c}
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	*c = fc.Config
	if fc.ConnectTimeout != "" {
		d, err := time.ParseDuration(fc.ConnectTimeout)
		if err != nil {
			return fmt.Errorf("config: connect_timeout: %w", err)
		}
		c.ConnectTimeout = d
	}
	return nil
}

func (c *Config) loadEnv() error {
	loadEnvString(&c.Mode, "DCF_MODE")
	loadEnvString(&c.NodeID, "DCF_NODE_ID")
	loadEnvStringSlice(&c.Peers, "DCF_PEERS")
	loadEnvString(&c.Host, "DCF_HOST")
	if err := loadEnvInt(&c.Port, "DCF_PORT"); err != nil {
		return err
	}
	loadEnvString(&c.Bind, "DCF_BIND")
	loadEnvString(&c.Codec, "DCF_CODEC")
	loadEnvString(&c.Balancer, "DCF_BALANCER")
	loadEnvStringSlice(&c.EtcdEndpoints, "DCF_ETCD_ENDPOINTS")
	loadEnvString(&c.Service, "DCF_SERVICE")
	if err := loadEnvDuration(&c.ConnectTimeout, "DCF_CONNECT_TIMEOUT"); err != nil {
		return err
	}
	loadEnvString(&c.LogLevel, "DCF_LOG_LEVEL")
	loadEnvString(&c.LogFormat, "DCF_LOG_FORMAT")
	return nil
}

// Update sets one setting by its JSON key, as a remote "update_config" command
// would.
func (c *Config) Update(key, value string) error {
	switch key {
	case "mode":
		if !contains(validModes, value) {
			return fmt.Errorf("config: invalid mode %q", value)
		}
		c.Mode = value
	case "node_id":
		c.NodeID = value
	case "host":
		c.Host = value
	case "port":
		port, err := strconv.ParseUint(value, 10, 16)
		if err != nil || port == 0 {
			return fmt.Errorf("config: invalid port %q: must be between 1 and 65535", value)
		}
		c.Port = int(port)
	case "peers":
		c.Peers = splitList(value)
	case "bind":
		c.Bind = value
	case "codec":
		c.Codec = value
	case "balancer":
		c.Balancer = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("config: invalid config key %q", key)
	}
	return nil
}

var (
	validModes      = []string{"client", "server", "p2p", "auto", "master"}
	validCodecs     = []string{"json", "binary"}
	validBalancers  = []string{"round_robin", "weighted_random", "consistent_hash"}
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "console"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if !contains(validModes, c.Mode) {
		problems = append(problems, "mode must be one of: "+strings.Join(validModes, ", "))
	}
	if c.NodeID == "" {
		problems = append(problems, "node_id must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}
	if !contains(validCodecs, c.Codec) {
		problems = append(problems, "codec must be one of: "+strings.Join(validCodecs, ", "))
	}
	if !contains(validBalancers, c.Balancer) {
		problems = append(problems, "balancer must be one of: "+strings.Join(validBalancers, ", "))
	}
	if c.ConnectTimeout <= 0 {
		problems = append(problems, "connect_timeout must be positive")
	}
	if !contains(validLogLevels, c.LogLevel) {
		problems = append(problems, "log_level must be one of: "+strings.Join(validLogLevels, ", "))
	}
	if !contains(validLogFormats, c.LogFormat) {
		problems = append(problems, "log_format must be one of: "+strings.Join(validLogFormats, ", "))
	}

	if len(problems) > 0 {
		return errors.New("config: validation failed: " + strings.Join(problems, "; "))
	}
	return nil
}

func loadEnvString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func loadEnvStringSlice(target *[]string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = splitList(value)
	}
}

func loadEnvInt(target *int, key string) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: invalid integer value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config: invalid duration value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
