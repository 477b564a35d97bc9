package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"
)

const sourcePDF = "source.pdf"

// ReadGeometry extracts the media box size of every page in a PDF.
func ReadGeometry(rs io.ReadSeeker) ([]Page, error) {
	dims, err := api.PageDims(rs, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	pages := make([]Page, len(dims))
	for i, d := range dims {
		pages[i] = Page{Number: i + 1, Width: d.Width, Height: d.Height}
	}
	return pages, nil
}

func (r *repo) Geometry(ctx context.Context, id uuid.UUID) ([]Page, error) {
	_, data, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return ReadGeometry(bytes.NewReader(data))
}

func (r *repo) RenderPage(ctx context.Context, id uuid.UUID, page int) ([]byte, error) {
	_, data, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	pages, err := ReadGeometry(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if page < 1 || page > len(pages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageNotFound, page, len(pages))
	}

	tempDir, err := os.MkdirTemp("", "quill-render-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %w", ErrRenderFailed, err)
	}
	defer os.RemoveAll(tempDir)

	pdfPath := filepath.Join(tempDir, sourcePDF)
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: write temp pdf: %w", ErrRenderFailed, err)
	}

	png, err := r.render(pdfPath, page)
	if err != nil {
		r.logger.Error("page render failed", "id", id, "page", page, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	return png, nil
}

// load fetches a PDF document and its full contents.
func (r *repo) load(ctx context.Context, id uuid.UUID) (*Document, []byte, error) {
	doc, blob, err := r.Content(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	defer blob.Body.Close()

	if doc.ContentType != pdfContentType {
		return nil, nil, ErrNotPDF
	}

	data, err := io.ReadAll(blob.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read document blob: %w", err)
	}
	return doc, data, nil
}

func renderPDFPage(pdfPath string, page int) ([]byte, error) {
	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.DefaultImageConfig())
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	p, err := pdfDoc.ExtractPage(page)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}

	return p.ToImage(renderer, nil)
}
