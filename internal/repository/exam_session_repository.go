package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// ExamSessionRepository handles exam, session, response, and result data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

// GetExam retrieves an exam definition.
func (r *ExamSessionRepository) GetExam(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, title, question_codes, time_limit_minutes, active, created_at
		 FROM exams WHERE id = $1`, examID,
	).Scan(&e.ID, &e.CourseID, &e.Title, &e.QuestionCodes, &e.TimeLimitMinutes, &e.Active, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CreateExam inserts an exam definition.
func (r *ExamSessionRepository) CreateExam(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (course_id, title, question_codes, time_limit_minutes, active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING id, active, created_at`,
		e.CourseID, e.Title, e.QuestionCodes, e.TimeLimitMinutes,
	).Scan(&e.ID, &e.Active, &e.CreatedAt)
}

// ListExamsByCourse retrieves the exams authored for a course.
func (r *ExamSessionRepository) ListExamsByCourse(ctx context.Context, courseID int) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, title, question_codes, time_limit_minutes, active, created_at
		 FROM exams WHERE course_id = $1 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.CourseID, &e.Title, &e.QuestionCodes,
			&e.TimeLimitMinutes, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// GetInProgressSession retrieves a student's open session for an exam, if any.
func (r *ExamSessionRepository) GetInProgressSession(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT id, exam_id, course_id, student_id, status, question_codes,
		        time_limit_minutes, started_at, finished_at, final_score, max_score, percentage
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3`,
		examID, studentID, model.SessionStatusInProgress))
}

// GetSession retrieves a session by ID.
func (r *ExamSessionRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	return r.scanSession(r.pool.QueryRow(ctx,
		`SELECT id, exam_id, course_id, student_id, status, question_codes,
		        time_limit_minutes, started_at, finished_at, final_score, max_score, percentage
		 FROM exam_sessions WHERE id = $1`, sessionID))
}

func (r *ExamSessionRepository) scanSession(row interface{ Scan(...any) error }) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.CourseID, &s.StudentID, &s.Status, &s.QuestionCodes,
		&s.TimeLimitMinutes, &s.StartedAt, &s.FinishedAt, &s.FinalScore, &s.MaxScore, &s.Percentage)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CreateSession inserts a new in-progress session.
func (r *ExamSessionRepository) CreateSession(ctx context.Context, s *model.ExamSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (exam_id, course_id, student_id, status, question_codes, time_limit_minutes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, started_at`,
		s.ExamID, s.CourseID, s.StudentID, model.SessionStatusInProgress, s.QuestionCodes, s.TimeLimitMinutes,
	).Scan(&s.ID, &s.StartedAt)
}

// SaveResponse upserts one answer and returns the distinct-question count
// for the session. Re-saving a question overwrites without changing the count.
func (r *ExamSessionRepository) SaveResponse(ctx context.Context, sessionID uuid.UUID, questionCode, answer string) (int, error) {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO exam_responses (session_id, question_code, answer, saved_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (session_id, question_code) DO UPDATE SET
			answer = EXCLUDED.answer, saved_at = NOW()`,
		sessionID, questionCode, answer)
	if err != nil {
		return 0, err
	}

	var count int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_responses WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE exam_sessions SET questions_completed = $2 WHERE id = $1`, sessionID, count)
	return count, err
}

// ListResponses retrieves the response map for a session.
func (r *ExamSessionRepository) ListResponses(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT question_code, answer FROM exam_responses WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := make(map[string]string)
	for rows.Next() {
		var code, answer string
		if err := rows.Scan(&code, &answer); err != nil {
			return nil, err
		}
		responses[code] = answer
	}
	return responses, rows.Err()
}

// CompleteWithResults finalizes a session in one transaction: per-question
// results are written and the session flips to completed. The status guard
// makes a second submit a no-op error.
func (r *ExamSessionRepository) CompleteWithResults(
	ctx context.Context,
	sessionID uuid.UUID,
	results []model.ExamQuestionResult,
	finalScore, maxScore, percentage float64,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $2, finished_at = $3, final_score = $4, max_score = $5, percentage = $6
		 WHERE id = $1 AND status = $7`,
		sessionID, model.SessionStatusCompleted, now, finalScore, maxScore, percentage,
		model.SessionStatusInProgress)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s is not in progress", sessionID)
	}

	for _, res := range results {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exam_results (session_id, question_code, score, max_score, is_correct, feedback, graded_with)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			sessionID, res.QuestionCode, res.Score, res.MaxScore, res.IsCorrect, res.Feedback, res.GradedWith); err != nil {
			return fmt.Errorf("insert result %s: %w", res.QuestionCode, err)
		}
	}

	return tx.Commit(ctx)
}

// ListResults retrieves the per-question breakdown of a completed session.
func (r *ExamSessionRepository) ListResults(ctx context.Context, sessionID uuid.UUID) ([]model.ExamQuestionResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, question_code, score, max_score, is_correct, feedback, graded_with
		 FROM exam_results WHERE session_id = $1 ORDER BY question_code`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []model.ExamQuestionResult
	for rows.Next() {
		var res model.ExamQuestionResult
		if err := rows.Scan(&res.SessionID, &res.QuestionCode, &res.Score, &res.MaxScore,
			&res.IsCorrect, &res.Feedback, &res.GradedWith); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}
