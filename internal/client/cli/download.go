package cli

import (
	"context"
	"errors"
	"flag"
)

// Download fetches every file behind a share token into a local directory.
// No credential is needed: the token itself is the authorization.
func (a *App) Download(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	token := fs.String("token", "", "download token from the share link")
	out := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return errors.New("a download token is required (-token)")
	}

	c := a.anonClient()
	if err := c.Download(ctx, *token, *out); err != nil {
		return err
	}

	a.successf("Downloaded to %s", *out)
	return nil
}
