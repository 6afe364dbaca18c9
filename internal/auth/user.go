package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filesender/internal/transport"
)

// UserAuth signs requests with a (username, API secret) credential.
//
// The server recomputes the signature assuming query parameters in exact
// lexicographic order, so Sign rebuilds the query: it merges remote_user and
// timestamp into the existing parameters, sorts everything, computes the
// HMAC, and appends signature as the final parameter. The signature itself
// is never part of the signed string.
type UserAuth struct {
	Username string
	APIKey   string

	// Delay shifts the signature timestamp forward to compensate for slow
	// uplinks: the server rejects requests whose timestamp has drifted too
	// far by the time the body finishes arriving. A reasonable value is the
	// time it takes to upload one chunk.
	Delay time.Duration

	// now is a test seam.
	now func() time.Time
}

func (a *UserAuth) Sign(r *transport.Request) (*transport.Request, error) {
	if a.Username == "" || a.APIKey == "" {
		return nil, ErrNoCredential
	}

	now := time.Now
	if a.now != nil {
		now = a.now
	}

	s := r.Clone()
	s.Query.Set("remote_user", a.Username)
	s.Query.Set("timestamp", strconv.FormatInt(now().Add(a.Delay).Unix(), 10))

	target, err := canonicalTarget(s.URL, s.Query)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha1.New, []byte(a.APIKey))
	io.WriteString(mac, strings.ToLower(s.Method))
	io.WriteString(mac, "&")
	io.WriteString(mac, target)
	if len(s.Body) > 0 {
		io.WriteString(mac, "&")
		// The body is fed through the hash as a stream; chunk payloads are
		// never concatenated into the signed string.
		if _, err := io.Copy(mac, bytes.NewReader(s.Body)); err != nil {
			return nil, fmt.Errorf("hashing request body: %w", err)
		}
	}

	s.SignedQuery = s.Query.Encode() + "&signature=" + hex.EncodeToString(mac.Sum(nil))
	return s, nil
}

// canonicalTarget is the URL as the server signs it: scheme stripped,
// percent-decoded, query parameters in sorted order.
func canonicalTarget(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %s: %w", rawURL, err)
	}

	target := u.Host + u.Path
	if len(query) > 0 {
		target += "?" + decodedQuery(query)
	}
	return target, nil
}

// decodedQuery renders the query sorted by key with raw (unencoded) values,
// mirroring the server's percent-decoding before signature comparison.
func decodedQuery(query url.Values) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		for j, v := range query[k] {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
