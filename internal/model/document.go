package model

import (
	"time"

	"github.com/google/uuid"
)

// DocumentKind classifies an uploaded registration document.
type DocumentKind string

const (
	DocumentKindCitizenship  DocumentKind = "citizenship"
	DocumentKindResidency    DocumentKind = "residency"
	DocumentKindNotification DocumentKind = "notification_form"
	DocumentKindOther        DocumentKind = "other"
)

// Document is an uploaded file attached to a family (and optionally one
// of its students).
type Document struct {
	ID          uuid.UUID    `json:"id"`
	FamilyID    uuid.UUID    `json:"family_id"`
	StudentID   *int         `json:"student_id,omitempty"`
	Kind        DocumentKind `json:"kind"`
	Path        string       `json:"path"`
	ContentType string       `json:"content_type"`
	SizeBytes   int64        `json:"size_bytes"`
	UploadedAt  time.Time    `json:"uploaded_at"`
}
