package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/response"
	"github.com/rtdacademy/connect-backend/internal/service"
)

// CreditHandler exposes payment-eligibility credit records.
type CreditHandler struct {
	creditService *service.CreditService
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(creditService *service.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// GetMyCredits godoc
// GET /api/v1/student/credits
// Returns the authenticated student's credit record, computing it on first
// read.
func (h *CreditHandler) GetMyCredits(c *gin.Context) {
	claims := middleware.GetClaims(c)
	record, err := h.creditService.GetRecord(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"credits": record})
}

// GetStudentCredits godoc
// GET /api/v1/staff/students/:student_id/credits
func (h *CreditHandler) GetStudentCredits(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	record, err := h.creditService.GetRecord(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"credits": record})
}

// RecomputeStudentCredits godoc
// POST /api/v1/staff/students/:student_id/credits/recompute
// Forces a synchronous rebuild, bypassing the worker queue.
func (h *CreditHandler) RecomputeStudentCredits(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	record, err := h.creditService.RecomputeStudent(c.Request.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"credits": record})
}
