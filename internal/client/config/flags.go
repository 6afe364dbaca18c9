package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/filesender/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-b string   base URL of the REST endpoint (default from Config)
//	-u string   username (default from Config)
//	-k string   API key (default from Config)
//	-s int      chunk size in bytes (default from Config)
//	-d int      transfer validity in days (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-u", "-k", "-s", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "b", cfg.BaseURL, "base URL of the REST endpoint")
	fs.StringVar(&cfg.Username, "u", cfg.Username, "username")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.Int64Var(&cfg.ChunkSize, "s", cfg.ChunkSize, "chunk size in bytes")
	fs.IntVar(&cfg.DaysValid, "d", cfg.DaysValid, "transfer validity in days")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
