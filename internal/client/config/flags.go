package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     address and port of the backend server
//	-t string     operator access token
//	-i int        status poll interval in seconds
//	-timeout dur  per-call deadline
//
// Only these flags are picked out of args, so positional arguments and
// flags owned by other components do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, "a", "t", "i", "timeout")

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "operator access token")
	pollInterval := fs.Int("i", int(cfg.PollInterval.Seconds()), "status poll interval (in seconds)")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-call deadline")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.PollInterval = time.Duration(*pollInterval) * time.Second
	return nil
}
