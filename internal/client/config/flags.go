package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-t string   transport: rest, pg, s3 or memory
//	-a string   API base URL of the server
//	-r uint     retry budget of idempotent REST calls
//	-d string   Postgres DSN for the pg transport
//	-f string   local cache file
//	-l string   log file
//	-i int      online check interval in seconds
//	-seed       add sample data to an empty tracker
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgsWithBools, to avoid interference with other
// components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsWithBools(os.Args[1:],
		[]string{"-t", "-a", "-r", "-d", "-f", "-l", "-i"},
		[]string{"-seed"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Transport, "t", cfg.Transport, "transport: rest, pg, s3 or memory")
	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "API base URL of the server")
	fs.Uint64Var(&cfg.Retries, "r", cfg.Retries, "retry budget of idempotent REST calls")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "Postgres DSN for the pg transport")
	fs.StringVar(&cfg.CacheDSN, "f", cfg.CacheDSN, "local cache file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.BoolVar(&cfg.Seed, "seed", cfg.Seed, "add sample data to an empty tracker")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
