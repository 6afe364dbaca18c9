package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/dmitrijs2005/filesender/internal/api"
)

// Invite creates a guest voucher so that someone without an account can
// upload files back to the configured user.
func (a *App) Invite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("invite", flag.ContinueOnError)
	to := fs.String("to", "", "guest email address")
	subject := fs.String("subject", "", "invitation subject")
	message := fs.String("message", "", "message shown to the guest")
	if err := fs.Parse(args); err != nil {
		return err
	}
	guestAddr := *to
	if guestAddr == "" {
		if line, err := GetSimpleText(a.reader, "Guest email address", a.out); err == nil {
			guestAddr = line
		}
	}
	if guestAddr == "" {
		return errors.New("a guest address is required (-to)")
	}

	c, err := a.userClient()
	if err != nil {
		return err
	}

	guest, err := c.CreateGuest(ctx, &api.GuestRequest{
		Recipient: guestAddr,
		From:      a.cfg.Username,
		Subject:   *subject,
		Message:   *message,
		Options:   api.DefaultGuestOptions(),
	})
	if err != nil {
		return err
	}

	a.successf("Voucher created for %s", guest.Email)
	fmt.Fprintf(a.out, "  upload page: %s/?s=upload&vid=%s\n", a.siteRoot(), guest.Token)
	return nil
}
