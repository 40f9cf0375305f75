package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/ai"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// Assessment workflow errors.
var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentTerminal = errors.New("assessment already finalized")
	ErrAttemptsExhausted  = errors.New("no attempts remaining")
	ErrScoreOutOfRange    = errors.New("score out of range")
	ErrScoreCooldown      = errors.New("score updated too recently")
	ErrStudentNotFound    = errors.New("student not found")
)

// WordCountError reports an answer outside the configured word bounds.
type WordCountError struct {
	Words int
	Min   int
	Max   int
}

func (e *WordCountError) Error() string {
	return fmt.Sprintf("answer is %d words, expected between %d and %d", e.Words, e.Min, e.Max)
}

// placeholderQuestion is the last rung of the generation ladder: shown when
// both the model and the authored fallback pool are unavailable.
const placeholderQuestion = "Describe the most important concept you have learned in this course so far, and explain why it matters."

type assessmentCourseStore interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
	GetAssessmentConfig(ctx context.Context, courseID int, code string) (*model.CourseAssessment, error)
	ListFallbackQuestions(ctx context.Context, courseID int) ([]model.FallbackQuestion, error)
}

type assessmentStore interface {
	GetByKey(ctx context.Context, studentID, courseID int, code string) (*model.Assessment, error)
	GetBySessionAndCode(ctx context.Context, sessionID uuid.UUID, code string) (*model.Assessment, error)
	Create(ctx context.Context, a *model.Assessment, secured *model.SecuredAnswer) error
	RecordAttempt(ctx context.Context, id uuid.UUID, attempts int, status model.AssessmentStatus) error
	UpdateQuestion(ctx context.Context, a *model.Assessment, secured *model.SecuredAnswer) error
	GetSecuredAnswer(ctx context.Context, assessmentID uuid.UUID) (*model.SecuredAnswer, error)
	DeleteSecuredAnswer(ctx context.Context, assessmentID uuid.UUID) error
}

type gradeStore interface {
	CommitBestScore(ctx context.Context, g *model.Grade) (bool, float64, error)
	ListByStudentCourse(ctx context.Context, studentID, courseID int) ([]model.Grade, error)
}

type studentResolver interface {
	GetStudentByEmail(ctx context.Context, email string) (*model.Student, error)
}

// answerGrader is the model-backed question generator and grader. The real
// implementation is *ai.Client.
type answerGrader interface {
	GenerateQuestion(ctx context.Context, spec ai.GenerationSpec) (*ai.GeneratedQuestion, error)
	EvaluateAnswer(ctx context.Context, spec ai.EvaluationSpec) (*ai.EvalVerdict, error)
}

// AssessmentService implements the question lifecycle: generation with the
// fallback ladder, answer evaluation, attempt accounting, and grade commits.
type AssessmentService struct {
	cfg         *config.Config
	courses     assessmentCourseStore
	assessments assessmentStore
	grades      gradeStore
	students    studentResolver
	grader      answerGrader
	queue       TaskQueue
	rdb         *redis.Client
	logger      zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	cfg *config.Config,
	courses assessmentCourseStore,
	assessments assessmentStore,
	grades gradeStore,
	students studentResolver,
	grader answerGrader,
	queue TaskQueue,
	rdb *redis.Client,
	logger zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		cfg:         cfg,
		courses:     courses,
		assessments: assessments,
		grades:      grades,
		students:    students,
		grader:      grader,
		queue:       queue,
		rdb:         rdb,
		logger:      logger.With().Str("service", "assessment").Logger(),
	}
}

// ResolveStudent maps an email to a student ID for staff-on-behalf calls.
func (s *AssessmentService) ResolveStudent(ctx context.Context, email string) (*model.Student, error) {
	st, err := s.students.GetStudentByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("resolve student: %w", err)
	}
	return st, nil
}

// Generate produces (or regenerates) the question for one assessment slot.
// Sources are tried in order: the model, the authored fallback pool, then a
// static placeholder. Word limits and scoring bounds always come from the
// course configuration, never from the model output.
func (s *AssessmentService) Generate(ctx context.Context, studentID, courseID int, code string) (*model.Assessment, error) {
	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("load course: %w", err)
	}

	cfg, err := s.courses.GetAssessmentConfig(ctx, courseID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load assessment config: %w", err)
	}

	existing, err := s.assessments.GetByKey(ctx, studentID, courseID, code)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if existing != nil && existing.Terminal() {
		return nil, ErrAssessmentTerminal
	}

	question, expected, sample, source := s.produceQuestion(ctx, course, cfg)

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.cfg.DefaultMaxAttempts
	}

	secured := &model.SecuredAnswer{
		ExpectedAnswer:  expected,
		GradingGuidance: course.GradingGuidance,
	}

	if existing != nil {
		// Regeneration replaces the question but keeps the attempt
		// counter; retries never reset the budget.
		existing.QuestionText = question
		existing.SampleAnswer = sample
		existing.MinWords = cfg.MinWords
		existing.MaxWords = cfg.MaxWords
		existing.MaxScore = cfg.MaxScore
		existing.MaxAttempts = maxAttempts
		existing.Source = source
		secured.AssessmentID = existing.ID
		if err := s.assessments.UpdateQuestion(ctx, existing, secured); err != nil {
			return nil, fmt.Errorf("update question: %w", err)
		}
		return existing, nil
	}

	a := &model.Assessment{
		StudentID:      studentID,
		CourseID:       courseID,
		AssessmentCode: code,
		QuestionText:   question,
		SampleAnswer:   sample,
		MinWords:       cfg.MinWords,
		MaxWords:       cfg.MaxWords,
		MaxScore:       cfg.MaxScore,
		MaxAttempts:    maxAttempts,
		Status:         model.AssessmentStatusActive,
		Source:         source,
	}
	if err := s.assessments.Create(ctx, a, secured); err != nil {
		return nil, fmt.Errorf("create assessment: %w", err)
	}
	return a, nil
}

// produceQuestion walks the generation ladder and returns the question text,
// expected answer, sample answer, and which rung supplied them.
func (s *AssessmentService) produceQuestion(ctx context.Context, course *model.Course, cfg *model.CourseAssessment) (question, expected, sample string, source model.QuestionSource) {
	gen, err := s.grader.GenerateQuestion(ctx, ai.GenerationSpec{
		CourseTitle: course.Title,
		Topic:       cfg.Topic,
		Difficulty:  string(cfg.Difficulty),
		MinWords:    cfg.MinWords,
		MaxWords:    cfg.MaxWords,
		PromptNotes: cfg.PromptNotes,
	})
	if err == nil {
		return gen.QuestionText, gen.ExpectedAnswer, gen.SampleAnswer, model.SourceAI
	}
	if !errors.Is(err, ai.ErrDisabled) {
		s.logger.Warn().Err(err).
			Int("course_id", cfg.CourseID).
			Str("assessment_code", cfg.AssessmentCode).
			Msg("question generation failed, using fallback")
	}

	pool, perr := s.courses.ListFallbackQuestions(ctx, cfg.CourseID)
	if perr != nil {
		s.logger.Error().Err(perr).Int("course_id", cfg.CourseID).Msg("load fallback questions")
	}
	if fb, ok := pickFallback(pool, cfg.Difficulty); ok {
		return fb.QuestionText, fb.ExpectedAnswer, fb.SampleAnswer, model.SourceFallback
	}

	return placeholderQuestion, "", "", model.SourcePlaceholder
}

// pickFallback selects an authored fallback question: an exact difficulty
// match, else one tagged intermediate. Anything else is skipped so an
// advanced question is never handed to a beginner slot.
func pickFallback(pool []model.FallbackQuestion, difficulty model.Difficulty) (*model.FallbackQuestion, bool) {
	for i := range pool {
		if pool[i].Difficulty == difficulty {
			return &pool[i], true
		}
	}
	for i := range pool {
		if pool[i].Difficulty == model.DifficultyIntermediate {
			return &pool[i], true
		}
	}
	return nil, false
}

// Evaluate grades one standalone answer, advances the attempt counter, and
// commits the grade if it beats the stored best.
func (s *AssessmentService) Evaluate(ctx context.Context, studentID, courseID int, code, answer string) (*model.EvaluationOutcome, error) {
	a, err := s.assessments.GetByKey(ctx, studentID, courseID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a.Terminal() {
		return nil, ErrAssessmentTerminal
	}
	if a.Attempts >= a.MaxAttempts {
		return nil, ErrAttemptsExhausted
	}

	// The word gate runs before any model call and does not consume an
	// attempt.
	words := CountWords(answer)
	if words < a.MinWords || words > a.MaxWords {
		return nil, &WordCountError{Words: words, Min: a.MinWords, Max: a.MaxWords}
	}

	verdict := s.gradeAnswer(ctx, a, answer, true)

	attempts := a.Attempts + 1
	status := nextStatus(verdict.IsCorrect, attempts, a.MaxAttempts)
	if err := s.assessments.RecordAttempt(ctx, a.ID, attempts, status); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	changed, best, err := s.grades.CommitBestScore(ctx, &model.Grade{
		StudentID:      studentID,
		CourseID:       courseID,
		AssessmentCode: code,
		Score:          verdict.Score,
		MaxScore:       verdict.MaxScore,
	})
	if err != nil {
		return nil, fmt.Errorf("commit grade: %w", err)
	}
	if changed {
		s.enqueueGradebookSync(ctx, studentID, courseID, code, best, verdict.MaxScore)
	}

	if status == model.AssessmentStatusCompleted || status == model.AssessmentStatusFailed {
		if err := s.assessments.DeleteSecuredAnswer(ctx, a.ID); err != nil {
			s.logger.Error().Err(err).Str("assessment_id", a.ID.String()).Msg("delete secured answer")
		}
	}

	return &model.EvaluationOutcome{
		Verdict:      verdict,
		Attempts:     attempts,
		MaxAttempts:  a.MaxAttempts,
		Status:       status,
		GradeUpdated: changed,
		BestScore:    best,
	}, nil
}

// EnsureSessionQuestion creates the session-scoped question for one exam
// slot if it does not already exist, making session start safe to retry.
func (s *AssessmentService) EnsureSessionQuestion(ctx context.Context, session *model.ExamSession, code string) error {
	_, err := s.assessments.GetBySessionAndCode(ctx, session.ID, code)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("load session question %s: %w", code, err)
	}

	course, err := s.courses.GetByID(ctx, session.CourseID)
	if err != nil {
		return fmt.Errorf("load course: %w", err)
	}
	cfg, err := s.courses.GetAssessmentConfig(ctx, session.CourseID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrAssessmentNotFound, code)
		}
		return fmt.Errorf("load assessment config %s: %w", code, err)
	}

	question, expected, sample, source := s.produceQuestion(ctx, course, cfg)
	a := &model.Assessment{
		StudentID:      session.StudentID,
		CourseID:       session.CourseID,
		AssessmentCode: code,
		QuestionText:   question,
		SampleAnswer:   sample,
		MinWords:       cfg.MinWords,
		MaxWords:       cfg.MaxWords,
		MaxScore:       cfg.MaxScore,
		MaxAttempts:    1,
		Status:         model.AssessmentStatusActive,
		Source:         source,
		ExamSessionID:  &session.ID,
	}
	secured := &model.SecuredAnswer{
		ExpectedAnswer:  expected,
		GradingGuidance: course.GradingGuidance,
	}
	if err := s.assessments.Create(ctx, a, secured); err != nil {
		return fmt.Errorf("create session question %s: %w", code, err)
	}
	return nil
}

// SessionQuestionMaxScore reports the point value of one session question,
// used to keep a question in the exam denominator when grading it failed.
func (s *AssessmentService) SessionQuestionMaxScore(ctx context.Context, session *model.ExamSession, code string) (float64, error) {
	a, err := s.assessments.GetBySessionAndCode(ctx, session.ID, code)
	if err != nil {
		return 0, fmt.Errorf("load session question %s: %w", code, err)
	}
	return a.MaxScore, nil
}

// EvaluateSessionQuestion grades one saved answer of an exam session. An
// empty answer scores zero without touching the model. The word gate is not
// applied: whatever the student saved before submitting is graded as-is.
func (s *AssessmentService) EvaluateSessionQuestion(ctx context.Context, session *model.ExamSession, code, answer string) (*model.ExamQuestionResult, error) {
	a, err := s.assessments.GetBySessionAndCode(ctx, session.ID, code)
	if err != nil {
		return nil, fmt.Errorf("load session question %s: %w", code, err)
	}

	var verdict model.Verdict
	if strings.TrimSpace(answer) == "" {
		verdict = model.Verdict{
			MaxScore:   a.MaxScore,
			Feedback:   "No answer was provided for this question.",
			GradedWith: model.SourceFallback,
		}
	} else {
		verdict = s.gradeAnswer(ctx, a, answer, CountWords(answer) >= a.MinWords)
	}

	if err := s.assessments.RecordAttempt(ctx, a.ID, a.Attempts+1, model.AssessmentStatusCompleted); err != nil {
		return nil, fmt.Errorf("record session attempt: %w", err)
	}
	if err := s.assessments.DeleteSecuredAnswer(ctx, a.ID); err != nil {
		s.logger.Error().Err(err).Str("assessment_id", a.ID.String()).Msg("delete secured answer")
	}

	changed, best, err := s.grades.CommitBestScore(ctx, &model.Grade{
		StudentID:      session.StudentID,
		CourseID:       session.CourseID,
		AssessmentCode: code,
		Score:          verdict.Score,
		MaxScore:       verdict.MaxScore,
	})
	if err != nil {
		return nil, fmt.Errorf("commit session grade: %w", err)
	}
	if changed {
		s.enqueueGradebookSync(ctx, session.StudentID, session.CourseID, code, best, verdict.MaxScore)
	}

	return &model.ExamQuestionResult{
		SessionID:    session.ID,
		QuestionCode: code,
		Score:        verdict.Score,
		MaxScore:     verdict.MaxScore,
		IsCorrect:    verdict.IsCorrect,
		Feedback:     verdict.Feedback,
		GradedWith:   verdict.GradedWith,
	}, nil
}

// gradeAnswer asks the model for a verdict and falls back to deterministic
// partial credit when the model is unavailable or returns garbage.
// meetsMinWords drives the fallback score only.
func (s *AssessmentService) gradeAnswer(ctx context.Context, a *model.Assessment, answer string, meetsMinWords bool) model.Verdict {
	secured, err := s.assessments.GetSecuredAnswer(ctx, a.ID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.logger.Error().Err(err).Str("assessment_id", a.ID.String()).Msg("load secured answer")
	}
	if secured == nil {
		secured = &model.SecuredAnswer{}
	}

	raw, err := s.grader.EvaluateAnswer(ctx, ai.EvaluationSpec{
		QuestionText:    a.QuestionText,
		ExpectedAnswer:  secured.ExpectedAnswer,
		StudentAnswer:   answer,
		MaxScore:        a.MaxScore,
		GradingGuidance: secured.GradingGuidance,
	})
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			s.logger.Warn().Err(err).
				Str("assessment_id", a.ID.String()).
				Msg("evaluation failed, using fallback verdict")
		}
		return fallbackVerdict(meetsMinWords, a.MaxScore)
	}
	return verdictFromEval(raw, a.MaxScore)
}

// DirectScore writes a score straight into the grade store, bypassing
// evaluation. Used by staff for manual overrides. A short Redis cooldown
// absorbs accidental double-submits.
func (s *AssessmentService) DirectScore(ctx context.Context, req *model.DirectScoreRequest) (*model.EvaluationOutcome, error) {
	student, err := s.ResolveStudent(ctx, req.StudentEmail)
	if err != nil {
		return nil, err
	}

	cfg, err := s.courses.GetAssessmentConfig(ctx, req.CourseID, req.AssessmentCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load assessment config: %w", err)
	}
	if req.Score < 0 || req.Score > cfg.MaxScore {
		return nil, ErrScoreOutOfRange
	}

	cooldownKey := config.CacheKey.ScoreCooldownKey(req.StudentEmail, req.AssessmentCode)
	ok, err := s.rdb.SetNX(ctx, cooldownKey, 1, s.cfg.ScoreCooldown).Result()
	if err != nil {
		return nil, fmt.Errorf("check cooldown: %w", err)
	}
	if !ok {
		return nil, ErrScoreCooldown
	}

	changed, best, err := s.grades.CommitBestScore(ctx, &model.Grade{
		StudentID:      student.ID,
		CourseID:       req.CourseID,
		AssessmentCode: req.AssessmentCode,
		Score:          req.Score,
		MaxScore:       cfg.MaxScore,
	})
	if err != nil {
		return nil, fmt.Errorf("commit grade: %w", err)
	}
	if changed {
		s.enqueueGradebookSync(ctx, student.ID, req.CourseID, req.AssessmentCode, best, cfg.MaxScore)
	}

	pct := 0
	if cfg.MaxScore > 0 {
		pct = int(math.Round(req.Score / cfg.MaxScore * 100))
	}
	return &model.EvaluationOutcome{
		Verdict: model.Verdict{
			IsCorrect:  req.Score >= cfg.MaxScore,
			Score:      req.Score,
			MaxScore:   cfg.MaxScore,
			Percentage: pct,
			Feedback:   "Score set by staff.",
			GradedWith: model.SourceFallback,
		},
		GradeUpdated: changed,
		BestScore:    best,
	}, nil
}

// ListGrades retrieves the committed best scores of a student in a course.
func (s *AssessmentService) ListGrades(ctx context.Context, studentID, courseID int) ([]model.Grade, error) {
	return s.grades.ListByStudentCourse(ctx, studentID, courseID)
}

// GetAssessment retrieves a student's current question for one slot.
func (s *AssessmentService) GetAssessment(ctx context.Context, studentID, courseID int, code string) (*model.Assessment, error) {
	a, err := s.assessments.GetByKey(ctx, studentID, courseID, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	return a, nil
}

// enqueueGradebookSync hands the new best score to the gradebook worker.
// Best effort: grading never fails because the queue is down.
func (s *AssessmentService) enqueueGradebookSync(ctx context.Context, studentID, courseID int, code string, score, maxScore float64) {
	item := &model.GradebookItem{
		StudentID:      studentID,
		CourseID:       courseID,
		AssessmentCode: code,
		Score:          score,
		MaxScore:       maxScore,
		SyncedAt:       time.Now(),
	}
	if err := s.queue.Push(ctx, config.WorkerKey.GradebookSyncQueue, item); err != nil {
		s.logger.Error().Err(err).
			Int("student_id", studentID).
			Int("course_id", courseID).
			Str("assessment_code", code).
			Msg("enqueue gradebook sync")
	}
}

// CountWords counts whitespace-separated tokens.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// verdictFromEval clamps a raw model verdict into the configured score range
// and derives the percentage.
func verdictFromEval(raw *ai.EvalVerdict, maxScore float64) model.Verdict {
	score := raw.Score
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	pct := 0
	if maxScore > 0 {
		pct = int(math.Round(score / maxScore * 100))
	}
	return model.Verdict{
		IsCorrect:  raw.IsCorrect && score >= maxScore,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: pct,
		Feedback:   raw.Feedback,
		GradedWith: model.SourceAI,
	}
}

// fallbackVerdict is the deterministic verdict used when the model cannot
// grade: half credit (rounded down) for a good-faith answer that meets the
// minimum length, zero otherwise. Never marks the answer correct, so the
// attempt budget stays open for a real grading pass.
func fallbackVerdict(meetsMinWords bool, maxScore float64) model.Verdict {
	score := 0.0
	feedback := "Your answer could not be automatically graded and is too short for provisional credit."
	if meetsMinWords {
		score = math.Floor(maxScore * 0.5)
		feedback = "Your answer could not be automatically graded right now. Provisional credit has been applied; a final grade may follow."
	}
	pct := 0
	if maxScore > 0 {
		pct = int(math.Round(score / maxScore * 100))
	}
	return model.Verdict{
		IsCorrect:  false,
		Score:      score,
		MaxScore:   maxScore,
		Percentage: pct,
		Feedback:   feedback,
		GradedWith: model.SourceFallback,
	}
}

// nextStatus derives the lifecycle state after an attempt.
func nextStatus(isCorrect bool, attempts, maxAttempts int) model.AssessmentStatus {
	switch {
	case isCorrect:
		return model.AssessmentStatusCompleted
	case attempts >= maxAttempts:
		return model.AssessmentStatusFailed
	default:
		return model.AssessmentStatusAttempted
	}
}
