package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// GradeRepository handles durable grade data access.
type GradeRepository struct {
	pool *pgxpool.Pool
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(pool *pgxpool.Pool) *GradeRepository {
	return &GradeRepository{pool: pool}
}

// Get retrieves the grade for a (student, course, assessment code) key.
func (r *GradeRepository) Get(ctx context.Context, studentID, courseID int, code string) (*model.Grade, error) {
	g := &model.Grade{}
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, course_id, assessment_code, score, max_score, updated_at
		 FROM grades
		 WHERE student_id = $1 AND course_id = $2 AND assessment_code = $3`,
		studentID, courseID, code,
	).Scan(&g.StudentID, &g.CourseID, &g.AssessmentCode, &g.Score, &g.MaxScore, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// CommitBestScore writes the score under the best-score-wins policy: a first
// attempt is written unconditionally (even a zero), an existing grade is only
// overwritten by a strictly higher score. Returns true when the durable grade
// changed, along with the resulting best score.
func (r *GradeRepository) CommitBestScore(ctx context.Context, g *model.Grade) (bool, float64, error) {
	var best float64
	var updatedAt time.Time
	// The WHERE guard makes the upsert a no-op for score <= existing; the
	// follow-up SELECT reads whichever score survived.
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO grades (student_id, course_id, assessment_code, score, max_score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (student_id, course_id, assessment_code) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			updated_at = NOW()
		 WHERE grades.score < EXCLUDED.score`,
		g.StudentID, g.CourseID, g.AssessmentCode, g.Score, g.MaxScore)
	if err != nil {
		return false, 0, err
	}

	err = r.pool.QueryRow(ctx,
		`SELECT score, updated_at FROM grades
		 WHERE student_id = $1 AND course_id = $2 AND assessment_code = $3`,
		g.StudentID, g.CourseID, g.AssessmentCode,
	).Scan(&best, &updatedAt)
	if err != nil {
		return false, 0, err
	}

	return tag.RowsAffected() > 0, best, nil
}

// ListByStudentCourse retrieves all grades for a student's course.
func (r *GradeRepository) ListByStudentCourse(ctx context.Context, studentID, courseID int) ([]model.Grade, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, course_id, assessment_code, score, max_score, updated_at
		 FROM grades
		 WHERE student_id = $1 AND course_id = $2
		 ORDER BY assessment_code`, studentID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grades []model.Grade
	for rows.Next() {
		var g model.Grade
		if err := rows.Scan(&g.StudentID, &g.CourseID, &g.AssessmentCode,
			&g.Score, &g.MaxScore, &g.UpdatedAt); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}
