// Package client is the FileSender transfer engine: it orchestrates the full
// lifecycle of an upload (register transfer, fan out chunk uploads, mark
// files and the transfer complete) and of a download (resolve a share token
// to files, stream them out). All state lives in memory for the duration of
// one transfer; an aborted workflow starts over from scratch.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/filesender/internal/api"
	"github.com/dmitrijs2005/filesender/internal/auth"
	"github.com/dmitrijs2005/filesender/internal/chunker"
	"github.com/dmitrijs2005/filesender/internal/logging"
	"github.com/dmitrijs2005/filesender/internal/transport"
)

const (
	// DefaultConcurrentFiles bounds files uploaded simultaneously.
	DefaultConcurrentFiles = 1
	// DefaultConcurrentChunks bounds in-flight chunks per file. Total chunk
	// buffers in memory scale with files × chunks: the two limits compose
	// multiplicatively, not additively.
	DefaultConcurrentChunks = 2
)

// ErrChunkTooLarge is a configuration error: the requested chunk size
// exceeds the server-advertised maximum. It is raised once, before any chunk
// is sent.
var ErrChunkTooLarge = errors.New("chunk size exceeds server maximum")

// Options configures a Client. The zero value gives an unauthenticated
// client with default limits, suitable for downloads and server-info.
type Options struct {
	// Auth signs privileged requests. nil leaves the client unauthenticated:
	// any signed request fails with auth.ErrNoCredential.
	Auth transport.Signer

	HTTPClient *http.Client
	Logger     logging.Logger

	// ChunkSize in bytes; 0 adopts the server's advertised maximum.
	ChunkSize int64

	// ConcurrentFiles and ConcurrentChunks bound upload fan-out; their
	// product is the worst-case number of chunk payloads held in memory.
	// ConcurrentRequests caps in-flight HTTP requests across everything.
	ConcurrentFiles    transport.Limit
	ConcurrentChunks   transport.Limit
	ConcurrentRequests transport.Limit

	// Retry policy overrides; zero values use the transport defaults.
	Attempts uint64
	Backoff  time.Duration
}

// Client is a FileSender API client plus transfer engine. Construct with
// New, then Prepare before uploading.
type Client struct {
	baseURL string
	signer  transport.Signer
	tr      *transport.Client
	httpc   *http.Client
	logger  logging.Logger

	chunkSize int64
	files     transport.Limit
	chunks    transport.Limit

	info *api.ServerInfo
}

// New builds a client for the REST endpoint at baseURL, e.g.
// "https://filesender.example.org/rest.php".
func New(baseURL string, opts Options) *Client {
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	signer := opts.Auth
	if signer == nil {
		signer = auth.None{}
	}

	tr := transport.New(transport.Options{
		HTTPClient: httpc,
		Logger:     logger,
		Requests:   opts.ConcurrentRequests,
		Attempts:   opts.Attempts,
		Backoff:    opts.Backoff,
	})

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		signer:    signer,
		tr:        tr,
		httpc:     httpc,
		logger:    logger,
		chunkSize: opts.ChunkSize,
		files:     opts.ConcurrentFiles.Default(DefaultConcurrentFiles),
		chunks:    opts.ConcurrentChunks.Default(DefaultConcurrentChunks),
	}
}

// ServerInfo fetches the server's advertised limits. Unauthenticated.
func (c *Client) ServerInfo(ctx context.Context) (*api.ServerInfo, error) {
	data, err := c.tr.Send(ctx, transport.NewRequest(http.MethodGet, c.endpoint("info")))
	if err != nil {
		return nil, err
	}
	var info api.ServerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding server info: %w", err)
	}
	return &info, nil
}

// Prepare fetches server limits once and resolves the effective chunk size,
// validating it against the server maximum before any chunk is sent.
// Idempotent.
func (c *Client) Prepare(ctx context.Context) error {
	if c.info != nil {
		return nil
	}
	info, err := c.ServerInfo(ctx)
	if err != nil {
		return err
	}
	if c.chunkSize == 0 {
		c.chunkSize = info.UploadChunkSize
	} else if info.UploadChunkSize > 0 && c.chunkSize > info.UploadChunkSize {
		return fmt.Errorf("%w: %d > %d", ErrChunkTooLarge, c.chunkSize, info.UploadChunkSize)
	}
	c.info = info
	return nil
}

// BootstrapGuest runs the one-time session bootstrap for a guest credential.
// Must be called before the credential signs anything.
func (c *Client) BootstrapGuest(ctx context.Context, g *auth.GuestAuth) error {
	return g.Bootstrap(ctx, c.httpc, c.baseURL, c.logger)
}

// CreateTransfer registers a transfer with its file manifest and returns the
// server-assigned identities.
func (c *Client) CreateTransfer(ctx context.Context, body *api.TransferRequest) (*api.Transfer, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, c.endpoint("transfer"), body)
	if err != nil {
		return nil, err
	}
	var t api.Transfer
	if err := c.tr.SignSendJSON(ctx, c.signer, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTransfer mutates transfer state (complete, closed, remind, ...).
func (c *Client) UpdateTransfer(ctx context.Context, id int64, roundTripToken string, body api.TransferUpdate) (*api.Transfer, error) {
	req, err := transport.NewJSONRequest(http.MethodPut, c.endpoint("transfer", strconv.FormatInt(id, 10)), body)
	if err != nil {
		return nil, err
	}
	req.Query.Set("roundtriptoken", roundTripToken)
	var t api.Transfer
	if err := c.tr.SignSendJSON(ctx, c.signer, req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateFile mutates file state; used to mark a file complete once all its
// chunks have been accepted.
func (c *Client) UpdateFile(ctx context.Context, f api.FileHandle, roundTripToken string, body api.FileUpdate) error {
	req, err := transport.NewJSONRequest(http.MethodPut, c.endpoint("file", strconv.FormatInt(f.ID, 10)), body)
	if err != nil {
		return err
	}
	req.Query.Set("key", f.UID)
	req.Query.Set("roundtriptoken", roundTripToken)
	return c.tr.SignSendJSON(ctx, c.signer, req, nil)
}

// CreateGuest invites a recipient to upload through a voucher.
func (c *Client) CreateGuest(ctx context.Context, body *api.GuestRequest) (*api.Guest, error) {
	req, err := transport.NewJSONRequest(http.MethodPost, c.endpoint("guest"), body)
	if err != nil {
		return nil, err
	}
	var g api.Guest
	if err := c.tr.SignSendJSON(ctx, c.signer, req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// uploadChunk sends one chunk. The (id, uid) pair rides on every chunk
// request; offset and declared file size let the server place the bytes
// regardless of arrival order.
func (c *Client) uploadChunk(ctx context.Context, f api.FileHandle, roundTripToken string, ch *chunker.Chunk) error {
	req := transport.NewRequest(http.MethodPut,
		c.endpoint("file", strconv.FormatInt(f.ID, 10), "chunk", strconv.FormatInt(ch.Offset, 10)))
	req.Query.Set("key", f.UID)
	req.Query.Set("roundtriptoken", roundTripToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filesender-File-Size", strconv.FormatInt(f.Size, 10))
	req.Header.Set("X-Filesender-Chunk-Offset", strconv.FormatInt(ch.Offset, 10))
	req.Header.Set("X-Filesender-Chunk-Size", strconv.Itoa(len(ch.Data)))
	req.Body = ch.Data

	_, err := c.tr.SignSend(ctx, c.signer, req)
	return err
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL + "/" + strings.Join(elem, "/")
}

// siteRoot strips the REST path off the base URL. The download listing and
// download.php live at the site root, outside the REST API.
func (c *Client) siteRoot() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %s: %w", c.baseURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	return u.String(), nil
}
