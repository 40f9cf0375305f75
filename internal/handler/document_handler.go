package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/response"
	"github.com/rtdacademy/connect-backend/internal/service"
)

// DocumentHandler handles registration document uploads.
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

var validDocumentKinds = map[model.DocumentKind]bool{
	model.DocumentKindCitizenship:  true,
	model.DocumentKindResidency:    true,
	model.DocumentKindNotification: true,
	model.DocumentKindOther:        true,
}

// Upload godoc
// POST /api/v1/student/documents
// Multipart upload: "file" plus "kind" and optional "student_id" form fields.
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := middleware.GetClaims(c)
	familyID, err := uuid.Parse(claims.FamilyID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	kind := model.DocumentKind(c.PostForm("kind"))
	if !validDocumentKinds[kind] {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}

	var studentID *int
	if raw := c.PostForm("student_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		studentID = &id
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer file.Close()

	doc, err := h.documentService.SaveUpload(c.Request.Context(), familyID, studentID, kind, file, fileHeader)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedFileType):
			response.Fail(c, http.StatusUnsupportedMediaType, response.ErrUnsupportedFile)
		case errors.Is(err, service.ErrFileTooLarge):
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrFileTooLarge)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"document": doc})
}

// ListMine godoc
// GET /api/v1/student/documents
func (h *DocumentHandler) ListMine(c *gin.Context) {
	claims := middleware.GetClaims(c)
	familyID, err := uuid.Parse(claims.FamilyID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	docs, err := h.documentService.ListFamilyDocuments(c.Request.Context(), familyID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"documents": docs})
}

// ListFamily godoc
// GET /api/v1/staff/families/:id/documents
func (h *DocumentHandler) ListFamily(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	docs, err := h.documentService.ListFamilyDocuments(c.Request.Context(), familyID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"documents": docs})
}
