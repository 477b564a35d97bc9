// Package documents implements the document registry for quill. Documents
// are uploaded PDFs held in blob storage; sessions reach their bytes, page
// geometry, and rendered pages only through this package.
package documents

import (
	"time"

	"github.com/google/uuid"
)

// Document status values. A document starts as a draft, waits on other
// parties while unsigned placeholders remain, and is signed once every
// persisted field carries a mark.
const (
	StatusDraft    = "draft"
	StatusAwaiting = "awaiting_signatures"
	StatusSigned   = "signed"
)

// Document represents a registered document with its metadata and blob storage reference.
type Document struct {
	ID          uuid.UUID `json:"id"`
	ContractID  *string   `json:"contract_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	PageCount   *int      `json:"page_count"`
	StorageKey  string    `json:"storage_key"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateCommand carries the data needed to upload and register a new document.
// ContractID links the document to the contract whose counterparty is offered
// in the signer directory.
type CreateCommand struct {
	Data        []byte
	Filename    string
	ContentType string
	ContractID  *string
	PageCount   *int
}

// Page is the intrinsic size of one page in PDF points.
type Page struct {
	Number int     `json:"number"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
