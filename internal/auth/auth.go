// Package auth implements FileSender's two signing identities: credential
// signing (username plus shared API secret, HMAC-SHA1 over the canonical
// request) and guest stamping (voucher token plus session artifacts scraped
// from the upload page). Both produce a new request value; nothing is signed
// in place.
package auth

import (
	"errors"

	"github.com/dmitrijs2005/filesender/internal/transport"
)

var (
	// ErrNoCredential is returned when signing is attempted with no
	// credential configured. It is the default identity's behavior, so a
	// client can be constructed before authentication is decided.
	ErrNoCredential = errors.New("no authentication was provided")

	// ErrNotBootstrapped is returned when a guest credential is used before
	// its session has been bootstrapped.
	ErrNotBootstrapped = errors.New("guest session has not been bootstrapped")
)

// None is the zero credential. Every signing attempt fails with
// ErrNoCredential.
type None struct{}

func (None) Sign(*transport.Request) (*transport.Request, error) {
	return nil, ErrNoCredential
}
