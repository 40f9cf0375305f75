package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/response"
	"github.com/rtdacademy/connect-backend/internal/service"
	"github.com/rtdacademy/connect-backend/internal/validator"
)

// RegistrationHandler handles family registration endpoints.
type RegistrationHandler struct {
	registrationService *service.RegistrationService
}

// NewRegistrationHandler creates a new RegistrationHandler.
func NewRegistrationHandler(registrationService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Submit godoc
// POST /api/v1/public/registrations
// Accepts a full family registration: guardians, students, enrollments.
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req model.SubmitRegistrationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	family, students, err := h.registrationService.Submit(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
		case errors.Is(err, service.ErrUnknownCourse):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrUnknownCourse)
		case errors.Is(err, service.ErrFacilitatorNotFound), errors.Is(err, service.ErrFacilitatorRequired):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrFacilitatorNotFound)
		case errors.Is(err, service.ErrPrimaryGuardianRequired):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrValidation)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"family":   family,
		"students": students,
	})
}

// ListFacilitators godoc
// GET /api/v1/public/facilitators
func (h *RegistrationHandler) ListFacilitators(c *gin.Context) {
	facilitators, err := h.registrationService.ListFacilitators(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"facilitators": facilitators})
}

// GetMyFamily godoc
// GET /api/v1/student/family
// Returns the authenticated student's family profile.
func (h *RegistrationHandler) GetMyFamily(c *gin.Context) {
	claims := middleware.GetClaims(c)
	familyID, err := uuid.Parse(claims.FamilyID)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	family, err := h.registrationService.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"family": family})
}

// GetFamily godoc
// GET /api/v1/staff/families/:id
// Staff view of one family profile.
func (h *RegistrationHandler) GetFamily(c *gin.Context) {
	familyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	family, err := h.registrationService.GetFamily(c.Request.Context(), familyID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"family": family})
}
