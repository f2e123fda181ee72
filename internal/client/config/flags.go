package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server
//	-t string   access token
//	-w int      request timeout in seconds
//
// Only these flags are taken from args so subcommand arguments pass through.
func parseFlags(cfg *Config, args []string) {
	filtered := flagx.FilterArgs(args, []string{"-a", "-t", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	requestTimeout := fs.Int("w", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "w" {
			cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
		}
	})
}
