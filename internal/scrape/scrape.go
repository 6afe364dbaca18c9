// Package scrape extracts client-relevant data from FileSender's HTML pages.
// The service exposes no JSON endpoint for the download listing or the guest
// session token, so both are read out of page markup. Keeping the parsing
// here, behind plain functions over io.Reader, means the engine never touches
// HTML and the strategy can be swapped if the server ever grows a structured
// endpoint.
package scrape

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var ErrNoSecurityToken = errors.New("security token not found in page")

// DownloadFile describes one file advertised on a transfer's download page.
type DownloadFile struct {
	ID         int64
	TransferID int64
	Name       string
	Size       int64
	Mime       string
}

// SecurityToken returns the data-security-token attribute of the page's
// <body> element. FileSender embeds it there for scripts; guest uploads must
// replay it as a header.
func SecurityToken(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	var token string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			token = attr(n, "data-security-token")
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)

	if token == "" {
		return "", ErrNoSecurityToken
	}
	return token, nil
}

// Files returns the files listed on a download page: every element carrying
// the "file" class, described by its data-* attributes.
func Files(r io.Reader) ([]DownloadFile, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var files []DownloadFile
	var walkErr error
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "file") {
			f, err := fileFromNode(n)
			if err != nil {
				walkErr = err
				return
			}
			files = append(files, f)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if walkErr != nil {
		return nil, walkErr
	}
	return files, nil
}

func fileFromNode(n *html.Node) (DownloadFile, error) {
	id, err := intAttr(n, "data-id")
	if err != nil {
		return DownloadFile{}, err
	}
	size, err := intAttr(n, "data-size")
	if err != nil {
		return DownloadFile{}, err
	}
	// transferid is informational; tolerate its absence.
	transferID, _ := intAttr(n, "data-transferid")

	return DownloadFile{
		ID:         id,
		TransferID: transferID,
		Name:       attr(n, "data-name"),
		Size:       size,
		Mime:       attr(n, "data-mime"),
	}, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func intAttr(n *html.Node, name string) (int64, error) {
	v := attr(n, name)
	if v == "" {
		return 0, fmt.Errorf("file entry missing %s attribute", name)
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("file entry has bad %s attribute %q: %w", name, v, err)
	}
	return i, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
