package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/flagx"
)

// parseFlags overlays cfg with command-line flags:
//
//	-d string   path to the local database file
//	-u string   audit submit endpoint URL
//	-i int      online status check interval (seconds)
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-u", "-i"})

	fs := flag.NewFlagSet("config", flag.PanicOnError)

	dbPath := fs.String("d", "", "Path to the local database file")
	submitURL := fs.String("u", "", "Audit submit endpoint URL")
	interval := fs.Int("i", 0, "Online status check interval (seconds)")

	_ = fs.Parse(args)

	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *submitURL != "" {
		cfg.SubmitURL = *submitURL
	}
	if *interval > 0 {
		cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	}
}
