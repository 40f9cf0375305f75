package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// Exam session errors.
var (
	ErrExamNotAvailable  = errors.New("exam not available")
	ErrSessionNotFound   = errors.New("exam session not found")
	ErrSessionCompleted  = errors.New("exam session already completed")
	ErrQuestionNotInExam = errors.New("question is not part of this exam")
)

type examStore interface {
	GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error)
	CreateExam(ctx context.Context, e *model.Exam) error
	ListExamsByCourse(ctx context.Context, courseID int) ([]model.Exam, error)
	GetInProgressSession(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error)
	GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error)
	CreateSession(ctx context.Context, s *model.ExamSession) error
	SaveResponse(ctx context.Context, sessionID uuid.UUID, questionCode, answer string) (int, error)
	ListResponses(ctx context.Context, sessionID uuid.UUID) (map[string]string, error)
	CompleteWithResults(ctx context.Context, sessionID uuid.UUID, results []model.ExamQuestionResult, finalScore, maxScore, percentage float64) error
	ListResults(ctx context.Context, sessionID uuid.UUID) ([]model.ExamQuestionResult, error)
}

// questionProvisioner supplies and grades session-scoped questions. The real
// implementation is *AssessmentService.
type questionProvisioner interface {
	EnsureSessionQuestion(ctx context.Context, session *model.ExamSession, code string) error
	EvaluateSessionQuestion(ctx context.Context, session *model.ExamSession, code, answer string) (*model.ExamQuestionResult, error)
	SessionQuestionMaxScore(ctx context.Context, session *model.ExamSession, code string) (float64, error)
}

// ExamSessionService manages timed multi-question exam attempts: start,
// incremental answer saving, and one-shot submission.
type ExamSessionService struct {
	sessions  examStore
	questions questionProvisioner
	rdb       *redis.Client
	logger    zerolog.Logger
}

// NewExamSessionService creates a new ExamSessionService.
func NewExamSessionService(sessions examStore, questions questionProvisioner, rdb *redis.Client, logger zerolog.Logger) *ExamSessionService {
	return &ExamSessionService{
		sessions:  sessions,
		questions: questions,
		rdb:       rdb,
		logger:    logger.With().Str("service", "exam_session").Logger(),
	}
}

// CreateExam stores a staff-authored exam.
func (s *ExamSessionService) CreateExam(ctx context.Context, courseID int, req *model.CreateExamRequest) (*model.Exam, error) {
	e := &model.Exam{
		CourseID:         courseID,
		Title:            req.Title,
		QuestionCodes:    req.QuestionCodes,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Active:           true,
	}
	if err := s.sessions.CreateExam(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	return e, nil
}

// ListExams retrieves the exams of a course.
func (s *ExamSessionService) ListExams(ctx context.Context, courseID int) ([]model.Exam, error) {
	return s.sessions.ListExamsByCourse(ctx, courseID)
}

// Start opens (or resumes) an exam session. Starting is idempotent: an
// in-progress session for the same exam is returned as-is, and missing
// session questions are provisioned on every call.
func (s *ExamSessionService) Start(ctx context.Context, studentID int, examID uuid.UUID, req *model.StartExamSessionRequest) (*model.ExamSessionDetail, error) {
	exam, err := s.sessions.GetExam(ctx, examID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if !exam.Active {
		return nil, ErrExamNotAvailable
	}

	session, err := s.sessions.GetInProgressSession(ctx, examID, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if session == nil {
		limit := exam.TimeLimitMinutes
		if req != nil && req.TimeLimitMinutes != nil {
			limit = req.TimeLimitMinutes
		}
		session = &model.ExamSession{
			ExamID:           exam.ID,
			CourseID:         exam.CourseID,
			StudentID:        studentID,
			Status:           model.SessionStatusInProgress,
			QuestionCodes:    exam.QuestionCodes,
			TimeLimitMinutes: limit,
		}
		if err := s.sessions.CreateSession(ctx, session); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		s.publishMonitorEvent(ctx, session, model.MonitorSessionStarted)
	}

	for _, code := range session.QuestionCodes {
		if err := s.questions.EnsureSessionQuestion(ctx, session, code); err != nil {
			return nil, err
		}
	}

	return s.detail(ctx, session)
}

// SaveAnswer upserts one answer into an in-progress session and reports
// progress. Saving again for the same question overwrites in place.
func (s *ExamSessionService) SaveAnswer(ctx context.Context, studentID int, sessionID uuid.UUID, req *model.SaveExamAnswerRequest) (*model.ExamSession, error) {
	session, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrSessionCompleted
	}
	if !containsCode(session.QuestionCodes, req.QuestionCode) {
		return nil, ErrQuestionNotInExam
	}

	count, err := s.sessions.SaveResponse(ctx, sessionID, req.QuestionCode, req.Answer)
	if err != nil {
		return nil, fmt.Errorf("save response: %w", err)
	}
	session.QuestionsCompleted = count

	s.publishMonitorEvent(ctx, session, model.MonitorAnswerSaved)
	return session, nil
}

// Submit grades every question of an in-progress session and finalizes it.
// A question whose grading fails is recorded with zero credit instead of
// failing the whole submission.
func (s *ExamSessionService) Submit(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.ExamSessionDetail, error) {
	session, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusInProgress {
		return nil, ErrSessionCompleted
	}

	responses, err := s.sessions.ListResponses(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	results := make([]model.ExamQuestionResult, 0, len(session.QuestionCodes))
	for _, code := range session.QuestionCodes {
		res, gerr := s.questions.EvaluateSessionQuestion(ctx, session, code, responses[code])
		if gerr != nil {
			s.logger.Error().Err(gerr).
				Str("session_id", sessionID.String()).
				Str("question_code", code).
				Msg("session question grading failed")
			// The failed question keeps its point value so the session
			// percentage counts it as zero of its max, not as absent.
			maxScore, merr := s.questions.SessionQuestionMaxScore(ctx, session, code)
			if merr != nil {
				s.logger.Error().Err(merr).
					Str("session_id", sessionID.String()).
					Str("question_code", code).
					Msg("load failed question max score")
			}
			res = &model.ExamQuestionResult{
				SessionID:    sessionID,
				QuestionCode: code,
				MaxScore:     maxScore,
				Feedback:     "This question could not be graded.",
				GradedWith:   model.SourceError,
			}
		}
		results = append(results, *res)
	}

	final, max, pct := aggregateResults(results)
	if err := s.sessions.CompleteWithResults(ctx, sessionID, results, final, max, pct); err != nil {
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	now := time.Now()
	session.Status = model.SessionStatusCompleted
	session.FinishedAt = &now
	session.FinalScore = &final
	session.MaxScore = &max
	session.Percentage = &pct

	s.publishMonitorEvent(ctx, session, model.MonitorSessionCompleted)

	return &model.ExamSessionDetail{
		Session:   *session,
		Responses: responses,
		Results:   results,
	}, nil
}

// GetSession retrieves a session with its responses and, once completed,
// its per-question results.
func (s *ExamSessionService) GetSession(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.ExamSessionDetail, error) {
	session, err := s.loadOwnedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, session)
}

func (s *ExamSessionService) loadOwnedSession(ctx context.Context, studentID int, sessionID uuid.UUID) (*model.ExamSession, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	// Ownership failures look identical to a missing session.
	if session.StudentID != studentID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *ExamSessionService) detail(ctx context.Context, session *model.ExamSession) (*model.ExamSessionDetail, error) {
	responses, err := s.sessions.ListResponses(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	detail := &model.ExamSessionDetail{
		Session:          *session,
		Responses:        responses,
		RemainingSeconds: remainingSeconds(session, time.Now()),
	}

	if session.Status == model.SessionStatusCompleted {
		results, err := s.sessions.ListResults(ctx, session.ID)
		if err != nil {
			return nil, fmt.Errorf("load results: %w", err)
		}
		detail.Results = results
	}
	return detail, nil
}

// publishMonitorEvent pushes a progress update onto the course monitor
// channel. Best effort: monitoring never blocks the student path.
func (s *ExamSessionService) publishMonitorEvent(ctx context.Context, session *model.ExamSession, eventType string) {
	event := model.ExamMonitorEvent{
		Type:               eventType,
		SessionID:          session.ID,
		ExamID:             session.ExamID,
		CourseID:           session.CourseID,
		StudentID:          session.StudentID,
		QuestionsCompleted: session.QuestionsCompleted,
		QuestionTotal:      len(session.QuestionCodes),
		Percentage:         session.Percentage,
		At:                 time.Now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	channel := config.CacheKey.ExamMonitorChannel(session.CourseID)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.logger.Warn().Err(err).Str("channel", channel).Msg("publish monitor event")
	}
}

// aggregateResults sums per-question scores into the session totals.
func aggregateResults(results []model.ExamQuestionResult) (final, max, pct float64) {
	for _, r := range results {
		final += r.Score
		max += r.MaxScore
	}
	if max > 0 {
		pct = math.Round(final/max*10000) / 100
	}
	return final, max, pct
}

// remainingSeconds computes time left on an in-progress timed session,
// floored at zero. Informational only: submission is accepted regardless.
func remainingSeconds(session *model.ExamSession, now time.Time) *float64 {
	if session.Status != model.SessionStatusInProgress || session.TimeLimitMinutes == nil {
		return nil
	}
	deadline := session.StartedAt.Add(time.Duration(*session.TimeLimitMinutes) * time.Minute)
	left := deadline.Sub(now).Seconds()
	if left < 0 {
		left = 0
	}
	return &left
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
