package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// DocumentRepository handles uploaded document metadata.
type DocumentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{pool: pool}
}

// Create inserts document metadata after the file has been written to disk.
func (r *DocumentRepository) Create(ctx context.Context, d *model.Document) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO documents (family_id, student_id, kind, path, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, uploaded_at`,
		d.FamilyID, d.StudentID, d.Kind, d.Path, d.ContentType, d.SizeBytes,
	).Scan(&d.ID, &d.UploadedAt)
}

// ListByFamily retrieves all documents uploaded for a family.
func (r *DocumentRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.Document, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, family_id, student_id, kind, path, content_type, size_bytes, uploaded_at
		 FROM documents WHERE family_id = $1 ORDER BY uploaded_at DESC`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.FamilyID, &d.StudentID, &d.Kind, &d.Path,
			&d.ContentType, &d.SizeBytes, &d.UploadedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
