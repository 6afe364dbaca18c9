package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrijs2005/filesender/internal/api"
)

const (
	fakeChunkSize = 64
	fakeDLToken   = "dl-token-1"
	fakeRTToken   = "rtt-1"
)

type fakeFile struct {
	handle   api.FileHandle
	data     []byte
	received int64
	complete bool
	inFlight int
	peak     int
}

// fakeServer emulates the subset of FileSender the engine talks to: the
// REST endpoints, the download listing page and download.php.
type fakeServer struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	nextID     int64
	files      map[int64]*fakeFile
	recipients []api.Recipient
	events     []string
	chunks     int
	created    bool
	complete   bool

	// knobs
	extraEntries  []api.FileHandle
	failChunkName string
	omitListNames bool
	omitDispoName bool
}

func newFakeServer(t *testing.T) *fakeServer {
	f := &fakeServer{t: t, files: make(map[int64]*fakeFile)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest.php/info", f.handleInfo)
	mux.HandleFunc("POST /rest.php/transfer", f.handleCreateTransfer)
	mux.HandleFunc("PUT /rest.php/transfer/{id}", f.handleUpdateTransfer)
	mux.HandleFunc("PUT /rest.php/file/{id}", f.handleUpdateFile)
	mux.HandleFunc("PUT /rest.php/file/{id}/chunk/{offset}", f.handleChunk)
	mux.HandleFunc("POST /rest.php/guest", f.handleCreateGuest)
	mux.HandleFunc("GET /{$}", f.handleSitePage)
	mux.HandleFunc("GET /download.php", f.handleDownload)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeServer) baseURL() string { return f.srv.URL + "/rest.php" }

// requireAuth accepts either a credential signature or a guest stamp.
func (f *fakeServer) requireAuth(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query()
	signed := q.Get("signature") != "" && q.Get("remote_user") != "" && q.Get("timestamp") != ""
	guest := q.Get("vid") != "" && r.Header.Get("X-Filesender-Security-Token") != ""
	if !signed && !guest {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"auth_required"}`)
		return false
	}
	return true
}

func (f *fakeServer) handleInfo(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `{"upload_chunk_size":%d}`, fakeChunkSize)
}

func (f *fakeServer) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	if !f.requireAuth(w, r) {
		return
	}
	var req api.TransferRequest
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = true
	f.recipients = []api.Recipient{{ID: 1, TransferID: 1, Token: fakeDLToken, Email: "to@example.com"}}

	for _, rf := range req.Files {
		f.nextID++
		h := api.FileHandle{
			ID: f.nextID, TransferID: 1, UID: fmt.Sprintf("uid-%d", f.nextID),
			Name: rf.Name, Size: rf.Size, Cid: rf.Cid,
		}
		f.files[h.ID] = &fakeFile{handle: h, data: make([]byte, rf.Size)}
	}

	_ = json.NewEncoder(w).Encode(f.transferLocked())
}

// transferLocked renders the stored transfer state the way the real server
// echoes it on every transfer response. Callers hold f.mu.
func (f *fakeServer) transferLocked() api.Transfer {
	resp := api.Transfer{
		ID:             1,
		RoundTripToken: fakeRTToken,
		Recipients:     f.recipients,
	}
	for id := int64(1); id <= f.nextID; id++ {
		if ff, ok := f.files[id]; ok {
			resp.Files = append(resp.Files, ff.handle)
		}
	}
	resp.Files = append(resp.Files, f.extraEntries...)
	return resp
}

func (f *fakeServer) handleChunk(w http.ResponseWriter, r *http.Request) {
	if !f.requireAuth(w, r) {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	offset, _ := strconv.ParseInt(r.PathValue("offset"), 10, 64)

	body, err := io.ReadAll(r.Body)
	if !assert.NoError(f.t, err) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	ff := f.files[id]
	if ff == nil {
		f.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"file_not_found"}`)
		return
	}

	assert.Equal(f.t, ff.handle.UID, r.URL.Query().Get("key"), "chunk request must carry the file uid")
	assert.Equal(f.t, fakeRTToken, r.URL.Query().Get("roundtriptoken"))
	assert.Equal(f.t, strconv.FormatInt(ff.handle.Size, 10), r.Header.Get("X-Filesender-File-Size"))
	assert.Equal(f.t, strconv.FormatInt(offset, 10), r.Header.Get("X-Filesender-Chunk-Offset"))
	assert.Equal(f.t, strconv.Itoa(len(body)), r.Header.Get("X-Filesender-Chunk-Size"))

	if f.failChunkName == ff.handle.Name {
		f.mu.Unlock()
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message":"storage_write_failed"}`)
		return
	}

	ff.inFlight++
	if ff.inFlight > ff.peak {
		ff.peak = ff.inFlight
	}
	f.mu.Unlock()

	// Hold the slot briefly so overlapping chunk uploads are observable.
	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	ff.inFlight--
	copy(ff.data[offset:], body)
	ff.received += int64(len(body))
	f.chunks++
	f.mu.Unlock()

	fmt.Fprint(w, `{}`)
}

func (f *fakeServer) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	if !f.requireAuth(w, r) {
		return
	}
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()
	ff := f.files[id]
	if ff == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"file_not_found"}`)
		return
	}
	assert.Equal(f.t, ff.handle.UID, r.URL.Query().Get("key"))
	assert.False(f.t, ff.complete, "file %d completed twice", id)
	assert.Equal(f.t, ff.handle.Size, ff.received,
		"file %d marked complete before all its bytes arrived", id)

	ff.complete = true
	f.events = append(f.events, fmt.Sprintf("file:%d", id))
	fmt.Fprint(w, `{}`)
}

func (f *fakeServer) handleUpdateTransfer(w http.ResponseWriter, r *http.Request) {
	if !f.requireAuth(w, r) {
		return
	}
	var up api.TransferUpdate
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&up)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if up.Complete {
		for id, ff := range f.files {
			assert.True(f.t, ff.complete,
				"transfer completed before file %d reported complete", id)
		}
		f.complete = true
		f.events = append(f.events, "transfer")
	}
	_ = json.NewEncoder(w).Encode(f.transferLocked())
}

func (f *fakeServer) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	if !f.requireAuth(w, r) {
		return
	}
	var req api.GuestRequest
	if !assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req)) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	assert.NotEmpty(f.t, req.Recipient)
	_ = json.NewEncoder(w).Encode(api.Guest{
		ID: 1, Email: req.Recipient, Token: "guest-voucher-1",
	})
}

// handleSitePage plays the web UI: the guest upload page (scraped during
// guest bootstrap) and the download listing page.
func (f *fakeServer) handleSitePage(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("s") {
	case "upload":
		http.SetCookie(w, &http.Cookie{Name: "csrfptoken", Value: "csrf-1"})
		fmt.Fprint(w, `<html><body data-security-token="sec-1"><p>drop files here</p></body></html>`)
		return
	case "download":
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	assert.Equal(f.t, fakeDLToken, r.URL.Query().Get("token"))

	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprint(w, `<html><body>`)
	for _, ff := range f.files {
		name := ""
		if !f.omitListNames {
			name = fmt.Sprintf(` data-name=%q`, ff.handle.Name)
		}
		fmt.Fprintf(w, `<div class="file" data-id="%d" data-size="%d" data-transferid="1"%s></div>`,
			ff.handle.ID, ff.handle.Size, name)
	}
	fmt.Fprint(w, `</body></html>`)
}

func (f *fakeServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, fakeDLToken, r.URL.Query().Get("token"))
	id, _ := strconv.ParseInt(r.URL.Query().Get("files_ids"), 10, 64)

	f.mu.Lock()
	ff := f.files[id]
	f.mu.Unlock()
	if ff == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"download_missing"}`)
		return
	}
	if !f.omitDispoName {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename=%q`, "dl-"+ff.handle.Name))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(ff.data)
}

func (f *fakeServer) fileByName(name string) *fakeFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ff := range f.files {
		if ff.handle.Name == name {
			return ff
		}
	}
	return nil
}
