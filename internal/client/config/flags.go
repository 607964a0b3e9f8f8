package config

import (
	"flag"
	"os"
	"time"

	"github.com/rampforge/rampforge/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the backend server
//	-d string   path of the client state database
//	-i int      session re-validation interval in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the backend server")
	fs.StringVar(&cfg.StateDBPath, "d", cfg.StateDBPath, "path of the client state database")
	verifyInterval := fs.Int("i", int(cfg.VerifyInterval.Seconds()), "session re-validation interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.VerifyInterval = time.Duration(*verifyInterval) * time.Second
}
