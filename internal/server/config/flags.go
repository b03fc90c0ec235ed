package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-e string   environment (development, production)
//	-listen     feed push notifications from Postgres LISTEN
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsWithBools(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-e"}, []string{"-listen"})
	parseFlagArgs(cfg, args)
}

func parseFlagArgs(cfg *Config, args []string) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(cfg.TokenValidity.Minutes()), "token validity (in minutes)")
	fs.StringVar(&cfg.Environment, "e", cfg.Environment, "environment")
	fs.BoolVar(&cfg.ListenNotify, "listen", cfg.ListenNotify, "feed push notifications from Postgres LISTEN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.TokenValidity = time.Duration(*tokenValidity) * time.Minute
}
