package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/model"
)

type courseCatalogStore interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	Create(ctx context.Context, c *model.Course) error
	Update(ctx context.Context, id int, req *model.UpdateCourseRequest) (*model.Course, error)
	GetAssessmentConfig(ctx context.Context, courseID int, code string) (*model.CourseAssessment, error)
	UpsertAssessmentConfig(ctx context.Context, ca *model.CourseAssessment) error
	ListFallbackQuestions(ctx context.Context, courseID int) ([]model.FallbackQuestion, error)
	AddFallbackQuestion(ctx context.Context, q *model.FallbackQuestion) error
}

type courseCacheInvalidator interface {
	InvalidateCourseCache(ctx context.Context, courseID int)
}

// CourseService manages the course catalog, assessment slot configuration,
// and the fallback question pool.
type CourseService struct {
	courses courseCatalogStore
	credits courseCacheInvalidator
	logger  zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(courses courseCatalogStore, credits courseCacheInvalidator, logger zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		credits: credits,
		logger:  logger.With().Str("service", "course").Logger(),
	}
}

// List retrieves the full catalog.
func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.courses.List(ctx)
}

// Get retrieves one course.
func (s *CourseService) Get(ctx context.Context, id int) (*model.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course: %w", err)
	}
	return course, nil
}

// Create adds a course to the catalog.
func (s *CourseService) Create(ctx context.Context, req *model.CreateCourseRequest) (*model.Course, error) {
	course := &model.Course{
		Code:            req.Code,
		Title:           req.Title,
		Credits:         req.Credits,
		Exempt:          req.Exempt,
		GradingGuidance: req.GradingGuidance,
		Active:          true,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}

// Update applies a partial update. Credit-weight changes invalidate the
// course cache so pending credit recomputes see the new value.
func (s *CourseService) Update(ctx context.Context, id int, req *model.UpdateCourseRequest) (*model.Course, error) {
	course, err := s.courses.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("update course: %w", err)
	}
	s.credits.InvalidateCourseCache(ctx, id)
	return course, nil
}

// GetAssessmentConfig retrieves one assessment slot configuration.
func (s *CourseService) GetAssessmentConfig(ctx context.Context, courseID int, code string) (*model.CourseAssessment, error) {
	cfg, err := s.courses.GetAssessmentConfig(ctx, courseID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load assessment config: %w", err)
	}
	return cfg, nil
}

// UpsertAssessmentConfig creates or replaces an assessment slot.
func (s *CourseService) UpsertAssessmentConfig(ctx context.Context, courseID int, req *model.UpsertCourseAssessmentRequest) (*model.CourseAssessment, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	ca := &model.CourseAssessment{
		CourseID:       courseID,
		AssessmentCode: req.AssessmentCode,
		Topic:          req.Topic,
		Difficulty:     model.Difficulty(req.Difficulty),
		MinWords:       req.MinWords,
		MaxWords:       req.MaxWords,
		MaxScore:       req.MaxScore,
		MaxAttempts:    req.MaxAttempts,
		PromptNotes:    req.PromptNotes,
	}
	if err := s.courses.UpsertAssessmentConfig(ctx, ca); err != nil {
		return nil, fmt.Errorf("upsert assessment config: %w", err)
	}
	return ca, nil
}

// AddFallbackQuestion adds an authored question to the course fallback pool.
func (s *CourseService) AddFallbackQuestion(ctx context.Context, courseID int, req *model.AddFallbackQuestionRequest) (*model.FallbackQuestion, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	q := &model.FallbackQuestion{
		CourseID:       courseID,
		Difficulty:     model.Difficulty(req.Difficulty),
		QuestionText:   req.QuestionText,
		ExpectedAnswer: req.ExpectedAnswer,
		SampleAnswer:   req.SampleAnswer,
	}
	if err := s.courses.AddFallbackQuestion(ctx, q); err != nil {
		return nil, fmt.Errorf("add fallback question: %w", err)
	}
	return q, nil
}

// ListFallbackQuestions retrieves the fallback pool of a course.
func (s *CourseService) ListFallbackQuestions(ctx context.Context, courseID int) ([]model.FallbackQuestion, error) {
	return s.courses.ListFallbackQuestions(ctx, courseID)
}
