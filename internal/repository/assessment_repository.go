package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// AssessmentRepository handles assessment and secured-answer data access.
type AssessmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(pool *pgxpool.Pool) *AssessmentRepository {
	return &AssessmentRepository{pool: pool}
}

const assessmentColumns = `id, student_id, course_id, assessment_code, question_text, sample_answer,
	min_words, max_words, max_score, attempts, max_attempts, status, source,
	exam_session_id, created_at, updated_at`

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.StudentID, &a.CourseID, &a.AssessmentCode, &a.QuestionText,
		&a.SampleAnswer, &a.MinWords, &a.MaxWords, &a.MaxScore, &a.Attempts,
		&a.MaxAttempts, &a.Status, &a.Source, &a.ExamSessionID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByKey retrieves the assessment for a (student, course, code) key outside
// of any exam session.
func (r *AssessmentRepository) GetByKey(ctx context.Context, studentID, courseID int, code string) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE student_id = $1 AND course_id = $2 AND assessment_code = $3 AND exam_session_id IS NULL`,
		studentID, courseID, code))
}

// GetBySessionAndCode retrieves the placeholder assessment for a question
// inside an exam session.
func (r *AssessmentRepository) GetBySessionAndCode(ctx context.Context, sessionID uuid.UUID, code string) (*model.Assessment, error) {
	return scanAssessment(r.pool.QueryRow(ctx,
		`SELECT `+assessmentColumns+` FROM assessments
		 WHERE exam_session_id = $1 AND assessment_code = $2`, sessionID, code))
}

// Create inserts an assessment and its secured answer key in one transaction.
func (r *AssessmentRepository) Create(ctx context.Context, a *model.Assessment, secured *model.SecuredAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO assessments
			(student_id, course_id, assessment_code, question_text, sample_answer,
			 min_words, max_words, max_score, attempts, max_attempts, status, source, exam_session_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11, $12)
		 RETURNING id, created_at, updated_at`,
		a.StudentID, a.CourseID, a.AssessmentCode, a.QuestionText, a.SampleAnswer,
		a.MinWords, a.MaxWords, a.MaxScore, a.MaxAttempts, a.Status, a.Source, a.ExamSessionID,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}

	if secured != nil {
		secured.AssessmentID = a.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO secured_answers (assessment_id, expected_answer, grading_guidance)
			 VALUES ($1, $2, $3)`,
			secured.AssessmentID, secured.ExpectedAnswer, secured.GradingGuidance); err != nil {
			return fmt.Errorf("insert secured answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecordAttempt updates the attempt counter and status after an evaluation.
func (r *AssessmentRepository) RecordAttempt(ctx context.Context, id uuid.UUID, attempts int, status model.AssessmentStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE assessments SET attempts = $2, status = $3, updated_at = NOW() WHERE id = $1`,
		id, attempts, status)
	return err
}

// UpdateQuestion replaces the question content of an existing assessment,
// used when regenerating a non-terminal question.
func (r *AssessmentRepository) UpdateQuestion(ctx context.Context, a *model.Assessment, secured *model.SecuredAnswer) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE assessments SET question_text = $2, sample_answer = $3, source = $4,
			min_words = $5, max_words = $6, max_score = $7, max_attempts = $8,
			status = $9, updated_at = NOW()
		 WHERE id = $1`,
		a.ID, a.QuestionText, a.SampleAnswer, a.Source, a.MinWords, a.MaxWords,
		a.MaxScore, a.MaxAttempts, a.Status); err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}

	if secured != nil {
		secured.AssessmentID = a.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO secured_answers (assessment_id, expected_answer, grading_guidance)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (assessment_id) DO UPDATE SET
				expected_answer = EXCLUDED.expected_answer,
				grading_guidance = EXCLUDED.grading_guidance`,
			secured.AssessmentID, secured.ExpectedAnswer, secured.GradingGuidance); err != nil {
			return fmt.Errorf("upsert secured answer: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetSecuredAnswer retrieves the answer key for an assessment.
func (r *AssessmentRepository) GetSecuredAnswer(ctx context.Context, assessmentID uuid.UUID) (*model.SecuredAnswer, error) {
	s := &model.SecuredAnswer{}
	err := r.pool.QueryRow(ctx,
		`SELECT assessment_id, expected_answer, grading_guidance
		 FROM secured_answers WHERE assessment_id = $1`, assessmentID,
	).Scan(&s.AssessmentID, &s.ExpectedAnswer, &s.GradingGuidance)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSecuredAnswer removes the answer key once an assessment is terminal.
func (r *AssessmentRepository) DeleteSecuredAnswer(ctx context.Context, assessmentID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM secured_answers WHERE assessment_id = $1`, assessmentID)
	return err
}
