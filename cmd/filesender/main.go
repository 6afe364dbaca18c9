package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/dmitrijs2005/filesender/internal/client/cli"
	"github.com/dmitrijs2005/filesender/internal/client/config"
)

// Global flags come before the subcommand and are consumed by the config
// package (and -v here); everything from the subcommand onward is handed to
// the app untouched.
func splitArgs(args []string) (verbose bool, cmdArgs []string) {
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-v":
			verbose = true
		case strings.HasPrefix(args[i], "-"):
			if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++ // skip the flag's value
			}
		default:
			return verbose, args[i:]
		}
	}
	return verbose, nil
}

func main() {

	ctx := context.Background()
	cfg := config.Load()

	verbose, cmdArgs := splitArgs(os.Args[1:])

	app := cli.NewApp(cfg, verbose)
	if err := app.Run(ctx, cmdArgs); err != nil {
		log.Fatalf("%v", err)
	}

}
