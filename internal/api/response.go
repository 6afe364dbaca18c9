package api

// ServerInfo is the body of GET /info: server-advertised limits and site
// metadata. Fetched once per client lifetime and treated as immutable.
type ServerInfo struct {
	SiteName         string `json:"site_name,omitempty"`
	URL              string `json:"url,omitempty"`
	UploadChunkSize  int64  `json:"upload_chunk_size"`
	MaxTransferSize  int64  `json:"max_transfer_size,omitempty"`
	MaxTransferFiles int64  `json:"max_transfer_files,omitempty"`
}

// Date is the server's two-faced timestamp representation.
type Date struct {
	Raw       int64  `json:"raw"`
	Formatted string `json:"formatted"`
}

// FileHandle is a server-assigned file identity inside a transfer. The
// (ID, UID) pair is required on every chunk request for the file.
type FileHandle struct {
	ID         int64  `json:"id"`
	TransferID int64  `json:"transfer_id"`
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Cid        string `json:"cid,omitempty"`
	SHA1       string `json:"sha1,omitempty"`
}

// Recipient is one addressee of a transfer. Token is the download token the
// recipient uses to fetch the files.
type Recipient struct {
	ID           int64  `json:"id"`
	TransferID   int64  `json:"transfer_id"`
	Token        string `json:"token"`
	Email        string `json:"email"`
	Created      Date   `json:"created"`
	LastActivity Date   `json:"last_activity"`
	DownloadURL  string `json:"download_url"`
}

// Transfer is the server-side aggregate created by POST /transfer. Identity
// fields never change after creation; state changes only through
// TransferUpdate calls. RoundTripToken must be attached to every follow-up
// request for this transfer.
type Transfer struct {
	ID             int64        `json:"id"`
	UserID         string       `json:"user_id"`
	UserEmail      string       `json:"user_email"`
	Subject        string       `json:"subject"`
	Message        string       `json:"message"`
	Expires        Date         `json:"expires"`
	Options        []string     `json:"options"`
	Files          []FileHandle `json:"files"`
	Recipients     []Recipient  `json:"recipients"`
	RoundTripToken string       `json:"roundtriptoken"`
	Salt           string       `json:"salt"`
}

// Guest is the voucher created by POST /guest. Token is the value the guest
// pastes after "vid=" on the upload page.
type Guest struct {
	ID              int64    `json:"id"`
	UserID          string   `json:"user_id"`
	UserEmail       string   `json:"user_email"`
	Email           string   `json:"email"`
	Token           string   `json:"token"`
	TransferCount   int64    `json:"transfer_count"`
	Subject         string   `json:"subject"`
	Message         string   `json:"message"`
	Options         []string `json:"options"`
	TransferOptions []string `json:"transfer_options"`
	Created         Date     `json:"created"`
	Expires         Date     `json:"expires"`
}
