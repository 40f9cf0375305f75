package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rtdacademy/connect-backend/internal/middleware"
	"github.com/rtdacademy/connect-backend/internal/model"
	"github.com/rtdacademy/connect-backend/internal/response"
	"github.com/rtdacademy/connect-backend/internal/service"
	"github.com/rtdacademy/connect-backend/internal/validator"
)

// AssessmentHandler handles question generation, evaluation, and grades.
type AssessmentHandler struct {
	assessmentService *service.AssessmentService
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessmentService *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// resolveStudentID decides whose assessment is being operated on. Students
// always act on their own; staff pass a student email in the payload.
func (h *AssessmentHandler) resolveStudentID(c *gin.Context, studentEmail string) (int, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return 0, false
	}

	if claims.TokenType == service.TokenTypeStudent {
		return claims.UserID, true
	}

	if studentEmail == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return 0, false
	}
	student, err := h.assessmentService.ResolveStudent(c.Request.Context(), studentEmail)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return 0, false
	}
	return student.ID, true
}

// Generate godoc
// POST /api/v1/student/courses/:course_id/assessments/:code/generate
// Produces (or regenerates) the question for one assessment slot.
func (h *AssessmentHandler) Generate(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GenerateRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	studentID, ok := h.resolveStudentID(c, req.StudentEmail)
	if !ok {
		return
	}

	assessment, err := h.assessmentService.Generate(c.Request.Context(), studentID, courseID, c.Param("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound), errors.Is(err, service.ErrAssessmentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAssessmentTerminal):
			response.Fail(c, http.StatusConflict, response.ErrAssessmentTerminal)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": assessment})
}

// Evaluate godoc
// POST /api/v1/student/courses/:course_id/assessments/:code/evaluate
// Grades a submitted answer and advances the attempt counter.
func (h *AssessmentHandler) Evaluate(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.EvaluateRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	studentID, ok := h.resolveStudentID(c, req.StudentEmail)
	if !ok {
		return
	}

	outcome, err := h.assessmentService.Evaluate(c.Request.Context(), studentID, courseID, c.Param("code"), req.Answer)
	if err != nil {
		var wordErr *service.WordCountError
		switch {
		case errors.As(err, &wordErr):
			response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrWordCountOutOfBounds, map[string]string{
				"answer": wordErr.Error(),
			})
		case errors.Is(err, service.ErrAssessmentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrAssessmentTerminal):
			response.Fail(c, http.StatusConflict, response.ErrAssessmentTerminal)
		case errors.Is(err, service.ErrAttemptsExhausted):
			response.Fail(c, http.StatusConflict, response.ErrAttemptsExhausted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// Get godoc
// GET /api/v1/student/courses/:course_id/assessments/:code
// Returns the student's current question for one slot.
func (h *AssessmentHandler) Get(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	studentID, ok := h.resolveStudentID(c, c.Query("student_email"))
	if !ok {
		return
	}

	assessment, err := h.assessmentService.GetAssessment(c.Request.Context(), studentID, courseID, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrAssessmentNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"assessment": assessment})
}

// ListGrades godoc
// GET /api/v1/student/courses/:course_id/grades
// Returns the committed best scores for a course.
func (h *AssessmentHandler) ListGrades(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	studentID, ok := h.resolveStudentID(c, c.Query("student_email"))
	if !ok {
		return
	}

	grades, err := h.assessmentService.ListGrades(c.Request.Context(), studentID, courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"grades": grades})
}

// DirectScore godoc
// POST /api/v1/staff/grades/direct
// Writes a score straight into the grade store, bypassing evaluation.
func (h *AssessmentHandler) DirectScore(c *gin.Context) {
	var req model.DirectScoreRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.assessmentService.DirectScore(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound), errors.Is(err, service.ErrAssessmentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrScoreOutOfRange):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrScoreOutOfRange)
		case errors.Is(err, service.ErrScoreCooldown):
			response.Fail(c, http.StatusTooManyRequests, response.ErrScoreCooldown)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, outcome)
}
