package records

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/quill/internal/reconcile"
	"github.com/JaimeStill/quill/pkg/query"
	"github.com/JaimeStill/quill/pkg/repository"
	"github.com/JaimeStill/quill/pkg/storage"
)

type repo struct {
	db       *sql.DB
	storage  storage.System
	logger   *slog.Logger
	basePath string
	now      func() time.Time
}

// New creates a record repository implementing the System interface.
// basePath is the API mount point used to build image proxy URLs.
func New(db *sql.DB, store storage.System, logger *slog.Logger, basePath string) System {
	return &repo{
		db:       db,
		storage:  store,
		logger:   logger.With("system", "records"),
		basePath: basePath,
		now:      time.Now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) List(ctx context.Context, documentID uuid.UUID) ([]Record, error) {
	q, args := query.
		NewBuilder(projection, defaultSort...).
		WhereEquals("DocumentID", documentID).
		Build()

	recs, err := repository.QueryMany(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	for i := range recs {
		r.link(&recs[i])
	}
	return recs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	rec, err := repository.QueryOne(ctx, r.db, q, args, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	r.link(&rec)
	return &rec, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	rec, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	if err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM field_records WHERE id = $1", id); err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if rec.StorageKey != nil {
		r.deleteBlob(ctx, *rec.StorageKey, "blob delete failed after record delete")
	}

	r.logger.Info("record deleted", "id", id)
	return nil
}

func (r *repo) Image(ctx context.Context, id uuid.UUID) (*storage.Blob, error) {
	rec, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.StorageKey == nil {
		return nil, ErrNoImage
	}

	blob, err := r.storage.Download(ctx, *rec.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: blob missing for %s", ErrNoImage, id)
		}
		return nil, fmt.Errorf("download record image: %w", err)
	}
	return blob, nil
}

func (r *repo) Save(ctx context.Context, sub reconcile.Submission) error {
	documentID, err := uuid.Parse(sub.DocumentID)
	if err != nil {
		return fmt.Errorf("%w: document id %q", ErrInvalidRecord, sub.DocumentID)
	}

	drafts, err := FromSubmission(documentID, sub, r.now())
	if err != nil {
		return err
	}

	uploaded, err := r.uploadImages(ctx, documentID, drafts)
	if err != nil {
		r.compensate(ctx, uploaded)
		return err
	}

	stale, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) ([]string, error) {
		return r.write(ctx, tx, documentID, drafts)
	})
	if err != nil {
		r.compensate(ctx, uploaded)
		switch repository.Code(err) {
		case repository.CodeForeignKeyViolation:
			return ErrDocumentNotFound
		case repository.CodeInvalidText:
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		return repository.MapError(err, ErrDocumentNotFound, ErrDuplicate)
	}

	for _, key := range stale {
		r.deleteBlob(ctx, key, "stale record image delete failed")
	}

	r.logger.Info("field records saved",
		"document_id", documentID,
		"records", len(drafts),
		"images", len(uploaded),
		"status", DocumentStatus(drafts),
	)
	return nil
}

// write upserts every draft, removes the document's records absent from the
// drafts, and sets the document status. It returns the storage keys that no
// record references anymore.
func (r *repo) write(ctx context.Context, tx *sql.Tx, documentID uuid.UUID, drafts []Draft) ([]string, error) {
	existing, err := repository.QueryMany(ctx, tx,
		"SELECT id, storage_key FROM field_records WHERE document_id = $1 FOR UPDATE",
		[]any{documentID}, scanStoredKey,
	)
	if err != nil {
		return nil, fmt.Errorf("lock records: %w", err)
	}

	prior := make(map[string]*string, len(existing))
	for _, k := range existing {
		prior[k.ID] = k.StorageKey
	}

	var stale []string
	kept := make(map[string]bool, len(drafts))

	for _, d := range drafts {
		kept[d.ID] = true

		old, ok := prior[d.ID]
		if !ok {
			if _, err := tx.ExecContext(ctx, insertRecord, d.insertArgs()...); err != nil {
				return nil, fmt.Errorf("insert record %s: %w", d.ID, err)
			}
			continue
		}

		if err := repository.ExecExpectOne(ctx, tx, updateRecord, d.updateArgs()...); err != nil {
			return nil, fmt.Errorf("update record %s: %w", d.ID, err)
		}
		if d.StorageKey != nil && old != nil && *old != *d.StorageKey {
			stale = append(stale, *old)
		}
	}

	for id, key := range prior {
		if kept[id] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM field_records WHERE id = $1", id); err != nil {
			return nil, fmt.Errorf("delete record %s: %w", id, err)
		}
		if key != nil {
			stale = append(stale, *key)
		}
	}

	if err := repository.ExecExpectOne(ctx, tx,
		"UPDATE documents SET status = $2, updated_at = NOW() WHERE id = $1",
		documentID, DocumentStatus(drafts),
	); err != nil {
		return nil, err
	}

	return stale, nil
}

func (r *repo) uploadImages(ctx context.Context, documentID uuid.UUID, drafts []Draft) ([]string, error) {
	var uploaded []string
	for i := range drafts {
		d := &drafts[i]
		if len(d.Image) == 0 {
			continue
		}

		key := fmt.Sprintf("records/%s/%s/%s%s", documentID, d.ID, uuid.NewString(), imageExtension(d.ImageType))
		if err := r.storage.Upload(ctx, key, bytes.NewReader(d.Image), d.ImageType); err != nil {
			return uploaded, fmt.Errorf("upload record image: %w", err)
		}
		uploaded = append(uploaded, key)
		d.StorageKey = &key
	}
	return uploaded, nil
}

func (r *repo) compensate(ctx context.Context, keys []string) {
	for _, key := range keys {
		r.deleteBlob(ctx, key, "compensating blob delete failed")
	}
}

func (r *repo) deleteBlob(ctx context.Context, key, msg string) {
	if err := r.storage.Delete(ctx, key); err != nil {
		r.logger.Warn(msg, "key", key, "error", err)
	}
}

// link fills the proxy URL for records that have a stored image.
func (r *repo) link(rec *Record) {
	if rec.StorageKey != nil {
		url := ImageURL(r.basePath, rec.ID)
		rec.SignatureURL = &url
	}
}

// ImageURL is the proxy path serving a record's image.
func ImageURL(basePath, id string) string {
	return fmt.Sprintf("%s/records/%s/image", basePath, id)
}

const insertRecord = `
	INSERT INTO field_records(
		id, document_id, type, page_number, x_percent, y_percent, width_percent, height_percent,
		assigned_role, assigned_identity_id, label, is_signed, storage_key,
		signed_value, signed_by_name, signed_by_title, signed_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const updateRecord = `
	UPDATE field_records SET
		type = $3,
		page_number = $4,
		x_percent = $5,
		y_percent = $6,
		width_percent = $7,
		height_percent = $8,
		assigned_role = $9,
		assigned_identity_id = $10,
		label = $11,
		is_signed = $12,
		storage_key = COALESCE($13, storage_key),
		signed_value = COALESCE($14, signed_value),
		signed_by_name = COALESCE($15, signed_by_name),
		signed_by_title = COALESCE($16, signed_by_title),
		signed_at = CASE WHEN $12 THEN COALESCE(signed_at, $17) END,
		updated_at = NOW()
	WHERE id = $1 AND document_id = $2`

func (d Draft) insertArgs() []any {
	return []any{
		d.ID, d.DocumentID, string(d.Type), d.PageNumber,
		d.XPercent, d.YPercent, d.WidthPercent, d.HeightPercent,
		string(d.AssignedRole), d.AssignedIdentityID, d.Label, d.IsSigned, d.StorageKey,
		d.SignedValue, d.SignedByName, d.SignedByTitle, d.SignedAt,
	}
}

func (d Draft) updateArgs() []any {
	return d.insertArgs()
}
