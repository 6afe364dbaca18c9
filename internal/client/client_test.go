package client

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filesender/internal/api"
	"github.com/dmitrijs2005/filesender/internal/auth"
	"github.com/dmitrijs2005/filesender/internal/transport"
)

func testAuth() *auth.UserAuth {
	return &auth.UserAuth{Username: "alice", APIKey: "secret"}
}

func newTestClient(t *testing.T, f *fakeServer, opts Options) *Client {
	t.Helper()
	if opts.Auth == nil {
		opts.Auth = testAuth()
	}
	opts.HTTPClient = f.srv.Client()
	if opts.Backoff == 0 {
		opts.Backoff = time.Millisecond
	}
	return New(f.baseURL(), opts)
}

func writeFile(t *testing.T, path string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o770))
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return data
}

func TestUpload_RoundTrip(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{})

	tmp := t.TempDir()
	wantTop := writeFile(t, filepath.Join(tmp, "top.dat"), 3*fakeChunkSize+7)
	wantNested := writeFile(t, filepath.Join(tmp, "docs", "nested.txt"), fakeChunkSize/2)

	transfer, err := c.Upload(context.Background(),
		[]string{filepath.Join(tmp, "top.dat"), filepath.Join(tmp, "docs")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)
	require.True(t, f.complete, "transfer must be marked complete")

	// The completing update echoes the whole transfer, not a bare ack: the
	// returned state must still carry the files and the recipient tokens.
	require.Len(t, transfer.Files, 2)
	require.NotEmpty(t, transfer.Recipients, "final transfer state must include recipients")
	require.Equal(t, fakeDLToken, transfer.Recipients[0].Token)

	require.Equal(t, wantTop, f.fileByName("top.dat").data)
	require.Equal(t, wantNested, f.fileByName("docs/nested.txt").data)

	// Anonymous download of the same transfer.
	dl := New(f.baseURL(), Options{HTTPClient: f.srv.Client(), Backoff: time.Millisecond})
	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, dl.Download(context.Background(), fakeDLToken, outDir))

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 2, "one flat output file per uploaded file")

	gotTop, err := os.ReadFile(filepath.Join(outDir, "top.dat"))
	require.NoError(t, err)
	require.Equal(t, wantTop, gotTop)

	// Nested structure is not reconstructed; the file lands flat.
	gotNested, err := os.ReadFile(filepath.Join(outDir, "nested.txt"))
	require.NoError(t, err)
	require.Equal(t, wantNested, gotNested)
}

func TestUpload_TransferCompletedAfterAllFiles(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{ConcurrentFiles: transport.MaxConcurrent(4)})

	tmp := t.TempDir()
	for _, name := range []string{"a.dat", "b.dat", "c.dat"} {
		writeFile(t, filepath.Join(tmp, name), 2*fakeChunkSize)
	}

	_, err := c.Upload(context.Background(),
		[]string{filepath.Join(tmp, "a.dat"), filepath.Join(tmp, "b.dat"), filepath.Join(tmp, "c.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)

	// Server-side assertions in handleUpdateTransfer checked the invariant;
	// the event log must end with the transfer completion.
	require.Equal(t, "transfer", f.events[len(f.events)-1])
	require.Len(t, f.events, 4)
}

func TestUpload_ZeroByteFile(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "empty.dat"), 0)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "empty.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)

	require.Equal(t, 0, f.chunks, "a zero-byte file produces no chunks")
	require.True(t, f.fileByName("empty.dat").complete, "but must still be marked complete")
	require.True(t, f.complete)
}

func TestUpload_ChunkConcurrencyBound(t *testing.T) {
	const limit = 3
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{ConcurrentChunks: transport.MaxConcurrent(limit)})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "big.dat"), 20*fakeChunkSize)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "big.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)

	ff := f.fileByName("big.dat")
	require.LessOrEqual(t, ff.peak, limit,
		"never more than %d chunk requests in flight for one file", limit)
	require.Equal(t, 20, f.chunks)
}

func TestUpload_ChunkSizeAboveServerMaximum(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{ChunkSize: fakeChunkSize + 1})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "a.dat"), 10)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "a.dat")},
		TransferOptions{From: "alice"})
	require.ErrorIs(t, err, ErrChunkTooLarge)
	require.False(t, f.created, "validation must happen before any transfer is registered")
}

func TestUpload_SkipsServerPlaceholderEntries(t *testing.T) {
	f := newFakeServer(t)
	f.extraEntries = []api.FileHandle{{ID: 999, UID: "uid-999", Name: "folder-placeholder"}}
	c := newTestClient(t, f, Options{})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "real.dat"), fakeChunkSize)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "real.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)
	require.True(t, f.complete)
}

func TestUpload_AbortsOnTerminalChunkFailure(t *testing.T) {
	f := newFakeServer(t)
	f.failChunkName = "bad.dat"
	c := newTestClient(t, f, Options{ConcurrentFiles: transport.MaxConcurrent(2)})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "good.dat"), 4*fakeChunkSize)
	writeFile(t, filepath.Join(tmp, "bad.dat"), 4*fakeChunkSize)

	_, err := c.Upload(context.Background(),
		[]string{filepath.Join(tmp, "good.dat"), filepath.Join(tmp, "bad.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})

	var re *transport.RequestError
	require.ErrorAs(t, err, &re)
	require.Equal(t, "storage_write_failed", re.Message)

	require.False(t, f.complete, "a failed transfer must never be marked complete")
	require.False(t, f.fileByName("bad.dat").complete)
}

func TestUpload_AdoptsServerChunkSize(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{}) // ChunkSize 0

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "a.dat"), 5*fakeChunkSize)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "a.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)
	require.Equal(t, 5, f.chunks, "chunk count must follow the server-advertised size")
}

func TestUpload_GuestVoucher(t *testing.T) {
	f := newFakeServer(t)

	g := &auth.GuestAuth{GuestToken: "guest-tok"}
	c := newTestClient(t, f, Options{Auth: g})
	require.NoError(t, c.BootstrapGuest(context.Background(), g))

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "v.dat"), fakeChunkSize)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "v.dat")},
		TransferOptions{From: "guest@example.com"})
	require.NoError(t, err)
	require.True(t, f.complete)
}

func TestDownload_FilenameFromContentDisposition(t *testing.T) {
	f := newFakeServer(t)
	f.omitListNames = true
	c := newTestClient(t, f, Options{})

	tmp := t.TempDir()
	want := writeFile(t, filepath.Join(tmp, "orig.dat"), fakeChunkSize)
	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "orig.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)

	outDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, c.Download(context.Background(), fakeDLToken, outDir))

	got, err := os.ReadFile(filepath.Join(outDir, "dl-orig.dat"))
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDownload_NoFilenameAnywhereIsFatal(t *testing.T) {
	f := newFakeServer(t)
	f.omitListNames = true
	f.omitDispoName = true
	c := newTestClient(t, f, Options{})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "orig.dat"), 10)
	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "orig.dat")},
		TransferOptions{From: "alice", Recipients: []string{"to@example.com"}})
	require.NoError(t, err)

	err = c.Download(context.Background(), fakeDLToken, filepath.Join(t.TempDir(), "out"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no filename")
}

func TestUpload_UnauthenticatedClientFails(t *testing.T) {
	f := newFakeServer(t)
	c := New(f.baseURL(), Options{HTTPClient: f.srv.Client(), Backoff: time.Millisecond})

	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "a.dat"), 10)

	_, err := c.Upload(context.Background(), []string{filepath.Join(tmp, "a.dat")},
		TransferOptions{From: "alice"})
	require.ErrorIs(t, err, auth.ErrNoCredential)
	require.False(t, f.created)
}

func TestServerInfo(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{})

	info, err := c.ServerInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(fakeChunkSize), info.UploadChunkSize)
}

func TestCreateGuest(t *testing.T) {
	f := newFakeServer(t)
	c := newTestClient(t, f, Options{})

	guest, err := c.CreateGuest(context.Background(), &api.GuestRequest{
		Recipient: "guest@example.com",
		From:      "alice",
		Subject:   "upload voucher",
		Options:   api.DefaultGuestOptions(),
	})
	require.NoError(t, err)
	require.Equal(t, "guest-voucher-1", guest.Token)
	require.Equal(t, "guest@example.com", guest.Email)
}
