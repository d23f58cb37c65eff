package config

import (
	"errors"
	"os"
	"time"
)

// TokenEnv names the environment variable that may carry the operator token.
const TokenEnv = "FARMSYNC_TOKEN"

// Config holds runtime settings for the sync client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - AccessToken: operator token sent with every call.
//   - PollInterval: how often the client asks for job status while waiting.
//   - RequestTimeout: deadline applied to each individual call.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	PollInterval       time.Duration
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.PollInterval = time.Second
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig builds a Config from the process environment and command line.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the token from the environment, then the JSON
// file named by -c/-config in args, then the flags in args. Later sources
// take precedence over earlier ones.
func Load(args []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if v, ok := lookup(TokenEnv); ok {
		cfg.AccessToken = v
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	return cfg, nil
}
