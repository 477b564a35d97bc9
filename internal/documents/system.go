package documents

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/pkg/pagination"
	"github.com/JaimeStill/quill/pkg/storage"
)

// System defines the public contract for document domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Document], error)

	Find(ctx context.Context, id uuid.UUID) (*Document, error)
	Create(ctx context.Context, cmd CreateCommand) (*Document, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Content opens the stored bytes of a document. The caller must close
	// the blob's Body.
	Content(ctx context.Context, id uuid.UUID) (*Document, *storage.Blob, error)

	// Geometry returns the intrinsic size of every page, in page order.
	Geometry(ctx context.Context, id uuid.UUID) ([]Page, error)

	// RenderPage rasterizes one page (1-based) to PNG.
	RenderPage(ctx context.Context, id uuid.UUID, page int) ([]byte, error)
}
