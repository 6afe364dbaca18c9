package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/filesender/internal/auth"
	"github.com/dmitrijs2005/filesender/internal/client"
)

// Upload sends the given paths to one or more recipients as a new transfer.
func (a *App) Upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	to := fs.String("to", "", "comma-separated recipient addresses")
	subject := fs.String("subject", "", "transfer subject")
	message := fs.String("message", "", "message shown to recipients")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("nothing to upload: give at least one file or directory")
	}
	recipients := splitList(*to)
	if len(recipients) == 0 {
		if line, err := GetSimpleText(a.reader, "Recipient addresses (comma-separated)", a.out); err == nil {
			recipients = splitList(line)
		}
	}
	if len(recipients) == 0 {
		return errors.New("at least one recipient required (-to)")
	}

	c, err := a.userClient()
	if err != nil {
		return err
	}

	transfer, err := c.Upload(ctx, paths, client.TransferOptions{
		From:       a.cfg.Username,
		Recipients: recipients,
		Subject:    *subject,
		Message:    *message,
		Expires:    a.expiry(),
	})
	if err != nil {
		return err
	}

	a.successf("Transfer %d uploaded (%d files)", transfer.ID, len(transfer.Files))
	for _, r := range transfer.Recipients {
		fmt.Fprintf(a.out, "  %s  %s\n", r.Email, a.downloadLink(r.Token))
	}
	return nil
}

// UploadVoucher sends the given paths through a guest voucher. Recipients
// and sender are fixed by the voucher itself.
func (a *App) UploadVoucher(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload-voucher", flag.ContinueOnError)
	voucher := fs.String("voucher", "", "guest voucher token")
	subject := fs.String("subject", "", "transfer subject")
	message := fs.String("message", "", "message shown to recipients")
	if err := fs.Parse(args); err != nil {
		return err
	}

	paths := fs.Args()
	if len(paths) == 0 {
		return errors.New("nothing to upload: give at least one file or directory")
	}
	token := *voucher
	if token == "" {
		if line, err := GetSimpleText(a.reader, "Voucher token", a.out); err == nil {
			token = line
		}
	}
	if token == "" {
		return errors.New("a voucher token is required (-voucher)")
	}

	g := &auth.GuestAuth{GuestToken: token}
	c := client.New(a.cfg.BaseURL, a.engineOptions(g))
	if err := c.BootstrapGuest(ctx, g); err != nil {
		return err
	}

	transfer, err := c.Upload(ctx, paths, client.TransferOptions{
		Subject: *subject,
		Message: *message,
		Expires: a.expiry(),
	})
	if err != nil {
		return err
	}

	a.successf("Transfer %d uploaded (%d files)", transfer.ID, len(transfer.Files))
	return nil
}

// expiry turns the configured validity in days into an absolute timestamp.
func (a *App) expiry() int64 {
	if a.cfg.DaysValid <= 0 {
		return 0
	}
	return time.Now().AddDate(0, 0, a.cfg.DaysValid).Unix()
}

// downloadLink is the web UI address a recipient opens with their token.
func (a *App) downloadLink(token string) string {
	return a.siteRoot() + "/?s=download&token=" + token
}

func (a *App) siteRoot() string {
	return strings.TrimSuffix(strings.TrimRight(a.cfg.BaseURL, "/"), "/rest.php")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
