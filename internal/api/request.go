// Package api defines the request and response bodies exchanged with the
// FileSender REST API. Field names follow the wire format exactly; optional
// fields carry omitempty so that absent values are not sent at all (the
// server treats an explicit null differently from a missing key).
package api

// File describes one file in the manifest sent when creating a transfer.
// Cid is a client-chosen correlation id echoed back by the server, used to
// match returned file handles to local paths.
type File struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
	Cid      string `json:"cid,omitempty"`
}

// TransferRequest is the body of POST /transfer.
//
// Recipients and From may be omitted when uploading to a guest voucher: the
// voucher already determines both.
type TransferRequest struct {
	Files      []File   `json:"files"`
	Options    []string `json:"options,omitempty"`
	Expires    int64    `json:"expires,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Message    string   `json:"message,omitempty"`
	Recipients []string `json:"recipients,omitempty"`
	From       string   `json:"from,omitempty"`
}

// TransferUpdate is the body of PUT /transfer/{id}.
type TransferUpdate struct {
	Complete         bool `json:"complete,omitempty"`
	Closed           bool `json:"closed,omitempty"`
	ExtendExpiryDate bool `json:"extend_expiry_date,omitempty"`
	Remind           bool `json:"remind,omitempty"`
}

// FileUpdate is the body of PUT /file/{id}.
type FileUpdate struct {
	Complete bool `json:"complete"`
}

// GuestVoucherOptions controls how a guest voucher behaves and which
// notification mails the server sends around it.
type GuestVoucherOptions struct {
	ValidOnlyOneTime         bool `json:"valid_only_one_time"`
	CanOnlySendToMe          bool `json:"can_only_send_to_me"`
	EmailUploadStarted       bool `json:"email_upload_started"`
	EmailUploadPageAccess    bool `json:"email_upload_page_access"`
	EmailGuestCreated        bool `json:"email_guest_created"`
	EmailGuestCreatedReceipt bool `json:"email_guest_created_receipt"`
	EmailGuestExpired        bool `json:"email_guest_expired"`
}

// GuestTransferOptions are transfer-level settings applied to uploads made
// through the voucher.
type GuestTransferOptions struct {
	AddMeToRecipients bool `json:"add_me_to_recipients"`
}

// GuestOptions groups voucher and transfer options in the shape the server
// expects.
type GuestOptions struct {
	Guest    GuestVoucherOptions  `json:"guest"`
	Transfer GuestTransferOptions `json:"transfer"`
}

// DefaultGuestOptions returns voucher settings for the common case: a
// single-use voucher whose uploads come back to the inviting user, with
// creation and expiry notifications enabled.
func DefaultGuestOptions() GuestOptions {
	return GuestOptions{
		Guest: GuestVoucherOptions{
			ValidOnlyOneTime:         true,
			CanOnlySendToMe:          true,
			EmailGuestCreated:        true,
			EmailGuestCreatedReceipt: true,
			EmailGuestExpired:        true,
		},
		Transfer: GuestTransferOptions{AddMeToRecipients: true},
	}
}

// GuestRequest is the body of POST /guest. Recipient is the email address of
// the person being invited; From is the inviting user.
type GuestRequest struct {
	Recipient string       `json:"recipient"`
	From      string       `json:"from"`
	Subject   string       `json:"subject,omitempty"`
	Message   string       `json:"message,omitempty"`
	Options   GuestOptions `json:"options"`
}
