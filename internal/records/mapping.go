package records

import (
	"github.com/JaimeStill/quill/pkg/query"
	"github.com/JaimeStill/quill/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "field_records", "r").
	Project("id", "ID").
	Project("document_id", "DocumentID").
	Project("type", "Type").
	Project("page_number", "PageNumber").
	Project("x_percent", "XPercent").
	Project("y_percent", "YPercent").
	Project("width_percent", "WidthPercent").
	Project("height_percent", "HeightPercent").
	Project("assigned_role", "AssignedRole").
	Project("assigned_identity_id", "AssignedIdentityID").
	Project("label", "Label").
	Project("is_signed", "IsSigned").
	Project("storage_key", "StorageKey").
	Project("signed_value", "SignedValue").
	Project("signed_by_name", "SignedByName").
	Project("signed_by_title", "SignedByTitle").
	Project("signed_at", "SignedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "documents", "d", "JOIN", "r.document_id = d.id").
	Project("filename", "DocumentFilename")

var defaultSort = []query.SortField{
	{Field: "PageNumber"},
	{Field: "CreatedAt"},
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.DocumentID,
		&r.Type,
		&r.PageNumber,
		&r.XPercent,
		&r.YPercent,
		&r.WidthPercent,
		&r.HeightPercent,
		&r.AssignedRole,
		&r.AssignedIdentityID,
		&r.Label,
		&r.IsSigned,
		&r.StorageKey,
		&r.SignedValue,
		&r.SignedByName,
		&r.SignedByTitle,
		&r.SignedAt,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.DocumentFilename,
	)
	return r, err
}

type storedKey struct {
	ID         string
	StorageKey *string
}

func scanStoredKey(s repository.Scanner) (storedKey, error) {
	var k storedKey
	err := s.Scan(&k.ID, &k.StorageKey)
	return k, err
}
