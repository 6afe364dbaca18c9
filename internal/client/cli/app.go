package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/filesender/internal/auth"
	"github.com/dmitrijs2005/filesender/internal/client"
	"github.com/dmitrijs2005/filesender/internal/client/config"
	"github.com/dmitrijs2005/filesender/internal/logging"
	"github.com/dmitrijs2005/filesender/internal/transport"
)

// App wires configuration, the transfer engine and terminal I/O together.
type App struct {
	cfg    *config.Config
	out    io.Writer
	logger logging.Logger
	reader *bufio.Reader
}

func NewApp(cfg *config.Config, verbose bool) *App {
	return &App{
		cfg:    cfg,
		out:    os.Stdout,
		logger: logging.NewTextLogger(os.Stderr, verbose),
		reader: bufio.NewReader(os.Stdin),
	}
}

// Run dispatches to the subcommand named by args[0]. The remaining args are
// parsed by the subcommand itself.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errors.New("no command given")
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "upload":
		return a.Upload(ctx, rest)
	case "upload-voucher":
		return a.UploadVoucher(ctx, rest)
	case "invite":
		return a.Invite(ctx, rest)
	case "download":
		return a.Download(ctx, rest)
	case "server-info":
		return a.ServerInfo(ctx)
	case "help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: filesender [global flags] <command> [command flags]")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Commands:")
	fmt.Fprintln(a.out, "  upload          -to a@x.org[,b@y.org] [-subject s] [-message m] path...")
	fmt.Fprintln(a.out, "  upload-voucher  -voucher TOKEN path...")
	fmt.Fprintln(a.out, "  invite          -to guest@x.org [-subject s] [-message m]")
	fmt.Fprintln(a.out, "  download        -token TOKEN [-out dir]")
	fmt.Fprintln(a.out, "  server-info")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Global flags: -v verbose, -c/-config FILE, -b URL, -u USER, -k KEY, -s BYTES, -d DAYS")
}

// engineOptions translates the resolved configuration into engine options.
func (a *App) engineOptions(signer transport.Signer) client.Options {
	opts := client.Options{
		Auth:      signer,
		Logger:    a.logger,
		ChunkSize: a.cfg.ChunkSize,
	}
	if a.cfg.ConcurrentFiles > 0 {
		opts.ConcurrentFiles = transport.MaxConcurrent(int64(a.cfg.ConcurrentFiles))
	}
	if a.cfg.ConcurrentChunks > 0 {
		opts.ConcurrentChunks = transport.MaxConcurrent(int64(a.cfg.ConcurrentChunks))
	}
	if a.cfg.ConcurrentRequests > 0 {
		opts.ConcurrentRequests = transport.MaxConcurrent(int64(a.cfg.ConcurrentRequests))
	}
	return opts
}

// userClient builds an engine client signed with the configured credential,
// prompting for the API key when only the username is configured.
func (a *App) userClient() (*client.Client, error) {
	if a.cfg.Username == "" {
		return nil, errors.New("no username configured (set -u or FILESENDER_USERNAME)")
	}
	if a.cfg.APIKey == "" {
		key, err := getAPIKey(a.out)
		if err != nil {
			return nil, fmt.Errorf("reading API key: %w", err)
		}
		a.cfg.APIKey = string(key)
	}

	signer := &auth.UserAuth{
		Username: a.cfg.Username,
		APIKey:   a.cfg.APIKey,
		Delay:    time.Duration(a.cfg.SignatureDelay) * time.Second,
	}
	return client.New(a.cfg.BaseURL, a.engineOptions(signer)), nil
}

// anonClient builds an unauthenticated client, enough for downloads and
// server-info.
func (a *App) anonClient() *client.Client {
	return client.New(a.cfg.BaseURL, a.engineOptions(nil))
}

func (a *App) successf(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(a.out, format+"\n", args...)
}
