package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// Sentinel errors for document uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// Registration documents are scans or photos.
var allowedDocumentTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
}

type documentStore interface {
	Create(ctx context.Context, d *model.Document) error
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]model.Document, error)
}

// DocumentService stores registration documents on local disk, segregated
// per family, with their metadata in the database.
type DocumentService struct {
	cfg       *config.Config
	documents documentStore
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(cfg *config.Config, documents documentStore) *DocumentService {
	return &DocumentService{cfg: cfg, documents: documents}
}

// SaveUpload validates and writes an uploaded document, then records its
// metadata. Files get UUID names under a per-family directory.
func (s *DocumentService) SaveUpload(
	ctx context.Context,
	familyID uuid.UUID,
	studentID *int,
	kind model.DocumentKind,
	file multipart.File,
	header *multipart.FileHeader,
) (*model.Document, error) {
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedDocumentTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s (allowed: %s)",
			ErrUnsupportedFileType, contentType, strings.Join(allowedDocTypes(), ", "))
	}

	if header.Size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, header.Size, s.cfg.MaxUploadBytes)
	}

	dir := filepath.Join(s.cfg.UploadDir, familyID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	filename := uuid.New().String() + ext
	destPath := filepath.Join(dir, filename)

	dst, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}

	doc := &model.Document{
		FamilyID:    familyID,
		StudentID:   studentID,
		Kind:        kind,
		Path:        "/uploads/" + familyID.String() + "/" + filename,
		ContentType: contentType,
		SizeBytes:   header.Size,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		// The file is orphaned if the metadata write fails; remove it.
		os.Remove(destPath)
		return nil, fmt.Errorf("store document metadata: %w", err)
	}
	return doc, nil
}

// ListFamilyDocuments retrieves the documents uploaded for one family.
func (s *DocumentService) ListFamilyDocuments(ctx context.Context, familyID uuid.UUID) ([]model.Document, error) {
	return s.documents.ListByFamily(ctx, familyID)
}

func allowedDocTypes() []string {
	types := make([]string, 0, len(allowedDocumentTypes))
	for t := range allowedDocumentTypes {
		types = append(types, t)
	}
	return types
}
