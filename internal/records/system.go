package records

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/pkg/storage"
)

// System defines the public contract for field record persistence. It
// satisfies reconcile.Saver.
type System interface {
	Handler() *Handler

	List(ctx context.Context, documentID uuid.UUID) ([]Record, error)
	Find(ctx context.Context, id uuid.UUID) (*Record, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Image opens the stored signature image of a record. The caller must
	// close the blob's Body.
	Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error)

	// Save replaces the document's field set with the submission in a single
	// transaction. Images are uploaded first and removed again if the
	// transaction fails.
	Save(ctx context.Context, sub reconcile.Submission) error

	// Export writes the document's field set as an xlsx workbook.
	Export(ctx context.Context, documentID uuid.UUID, w io.Writer) error
}
