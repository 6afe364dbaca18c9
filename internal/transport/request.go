package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request is an immutable description of one API call: method, URL, query,
// headers and body are all fixed before signing, and signing produces a new
// value instead of mutating in place. This keeps signatures referentially
// transparent and lets a request be re-signed on retry with a fresh
// timestamp.
type Request struct {
	Method string
	// URL is the absolute target without any query string.
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte

	// SignedQuery, when non-empty, is the final pre-encoded query string and
	// takes precedence over Query. Signers set it so the signature parameter
	// stays in the exact position the server expects.
	SignedQuery string
}

// NewRequest builds a bodyless request.
func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: method,
		URL:    rawURL,
		Query:  url.Values{},
		Header: http.Header{},
	}
}

// NewJSONRequest builds a request whose body is the JSON encoding of v.
func NewJSONRequest(method, rawURL string, v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, rawURL, err)
	}
	r := NewRequest(method, rawURL)
	r.Header.Set("Content-Type", "application/json")
	r.Body = body
	return r, nil
}

// Clone returns a deep copy: signers mutate the copy, never the original.
func (r *Request) Clone() *Request {
	c := &Request{
		Method:      r.Method,
		URL:         r.URL,
		Query:       url.Values{},
		Header:      r.Header.Clone(),
		Body:        r.Body,
		SignedQuery: r.SignedQuery,
	}
	if c.Header == nil {
		c.Header = http.Header{}
	}
	for k, vs := range r.Query {
		for _, v := range vs {
			c.Query.Add(k, v)
		}
	}
	return c
}

// EncodedURL is the full URL the request will be sent to. url.Values.Encode
// sorts keys, so an unsigned request already carries its parameters in
// canonical order.
func (r *Request) EncodedURL() string {
	q := r.SignedQuery
	if q == "" {
		q = r.Query.Encode()
	}
	if q == "" {
		return r.URL
	}
	return r.URL + "?" + q
}
