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
	"github.com/rtdacademy/connect-backend/internal/validator"
)

// ExamSessionHandler handles exam authoring and timed exam attempts.
type ExamSessionHandler struct {
	examService *service.ExamSessionService
}

// NewExamSessionHandler creates a new ExamSessionHandler.
func NewExamSessionHandler(examService *service.ExamSessionService) *ExamSessionHandler {
	return &ExamSessionHandler{examService: examService}
}

// CreateExam godoc
// POST /api/v1/staff/courses/:course_id/exams
func (h *ExamSessionHandler) CreateExam(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), courseID, &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListExams godoc
// GET /api/v1/student/courses/:course_id/exams
func (h *ExamSessionHandler) ListExams(c *gin.Context) {
	courseID, err := strconv.Atoi(c.Param("course_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	exams, err := h.examService.ListExams(c.Request.Context(), courseID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartSession godoc
// POST /api/v1/student/exams/:exam_id/sessions
// Opens or resumes the student's session for an exam.
func (h *ExamSessionHandler) StartSession(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StartExamSessionRequest
	if c.Request.ContentLength > 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	claims := middleware.GetClaims(c)
	detail, err := h.examService.Start(c.Request.Context(), claims.UserID, examID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotAvailable):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotAvailable)
		case errors.Is(err, service.ErrAssessmentNotFound):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// SaveAnswer godoc
// PUT /api/v1/student/exam-sessions/:session_id/answers
// Upserts one answer; re-saving the same question overwrites it.
func (h *ExamSessionHandler) SaveAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SaveExamAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	session, err := h.examService.SaveAnswer(c.Request.Context(), claims.UserID, sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionCompleted):
			response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		case errors.Is(err, service.ErrQuestionNotInExam):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrQuestionNotInExam)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"questions_completed": session.QuestionsCompleted,
		"question_total":      len(session.QuestionCodes),
	})
}

// SubmitSession godoc
// POST /api/v1/student/exam-sessions/:session_id/submit
// Grades every question and finalizes the session. One-shot.
func (h *ExamSessionHandler) SubmitSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	detail, err := h.examService.Submit(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrSessionCompleted):
			response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// GetSession godoc
// GET /api/v1/student/exam-sessions/:session_id
func (h *ExamSessionHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	detail, err := h.examService.GetSession(c.Request.Context(), claims.UserID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, detail)
}
