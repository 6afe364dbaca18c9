package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/filesender/internal/logging"
	"github.com/dmitrijs2005/filesender/internal/scrape"
	"github.com/dmitrijs2005/filesender/internal/transport"
)

// GuestAuth authenticates with a voucher token. Guest signing is not
// cryptographic: it stamps the voucher token as a parameter and replays the
// two session artifacts obtained at bootstrap as headers. Bootstrap must run
// exactly once before the credential signs anything.
type GuestAuth struct {
	GuestToken string

	securityToken string
	csrfToken     string
	ready         bool
}

// Bootstrap fetches the unauthenticated guest upload page and scrapes the
// session artifacts from it: the security token embedded in page markup
// (fatal if absent) and the anti-forgery token from a cookie (some server
// configurations omit it; that is logged and tolerated).
//
// baseURL is the REST endpoint; the upload page lives at the site root on
// the same host.
func (g *GuestAuth) Bootstrap(ctx context.Context, httpc *http.Client, baseURL string, log logging.Logger) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse base url %s: %w", baseURL, err)
	}
	u.Path = ""
	u.RawQuery = url.Values{"s": {"upload"}, "vid": {g.GuestToken}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf("fetching guest upload page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching guest upload page: unexpected status %s", resp.Status)
	}

	token, err := scrape.SecurityToken(resp.Body)
	if err != nil {
		return fmt.Errorf("bootstrapping guest session: %w", err)
	}
	g.securityToken = token

	for _, ck := range resp.Cookies() {
		if ck.Name == "csrfptoken" {
			g.csrfToken = ck.Value
		}
	}
	if g.csrfToken == "" {
		log.Warn(ctx, "guest page set no anti-forgery cookie, continuing without it")
	}

	g.ready = true
	return nil
}

func (g *GuestAuth) Sign(r *transport.Request) (*transport.Request, error) {
	if !g.ready {
		return nil, ErrNotBootstrapped
	}

	s := r.Clone()
	s.Query.Set("vid", g.GuestToken)
	s.Header.Set("X-Filesender-Security-Token", g.securityToken)
	if g.csrfToken != "" {
		s.Header.Set("Csrfptoken", g.csrfToken)
	}
	return s, nil
}
