package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// GradebookRepository maintains the gradebook projection of grades.
type GradebookRepository struct {
	pool *pgxpool.Pool
}

// NewGradebookRepository creates a new GradebookRepository.
func NewGradebookRepository(pool *pgxpool.Pool) *GradebookRepository {
	return &GradebookRepository{pool: pool}
}

// Upsert creates or updates a single gradebook item.
func (r *GradebookRepository) Upsert(ctx context.Context, item *model.GradebookItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gradebook_items (student_id, course_id, assessment_code, score, max_score, synced_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (student_id, course_id, assessment_code) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			synced_at = NOW()`,
		item.StudentID, item.CourseID, item.AssessmentCode, item.Score, item.MaxScore)
	return err
}

// BulkUpsert writes a batch of gradebook items in one statement.
func (r *GradebookRepository) BulkUpsert(ctx context.Context, items []*model.GradebookItem) error {
	n := len(items)
	if n == 0 {
		return nil
	}

	studentIDs := make([]int, 0, n)
	courseIDs := make([]int, 0, n)
	codes := make([]string, 0, n)
	scores := make([]float64, 0, n)
	maxScores := make([]float64, 0, n)

	for _, item := range items {
		studentIDs = append(studentIDs, item.StudentID)
		courseIDs = append(courseIDs, item.CourseID)
		codes = append(codes, item.AssessmentCode)
		scores = append(scores, item.Score)
		maxScores = append(maxScores, item.MaxScore)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO gradebook_items (student_id, course_id, assessment_code, score, max_score, synced_at)
		SELECT u.student_id, u.course_id, u.assessment_code, u.score, u.max_score, NOW()
		FROM UNNEST(
			$1::int[],
			$2::int[],
			$3::text[],
			$4::float8[],
			$5::float8[]
		) AS u (student_id, course_id, assessment_code, score, max_score)
		ON CONFLICT (student_id, course_id, assessment_code) DO UPDATE SET
			score = EXCLUDED.score,
			max_score = EXCLUDED.max_score,
			synced_at = NOW()
	`, studentIDs, courseIDs, codes, scores, maxScores)
	return err
}

// ListByStudentCourse retrieves the gradebook items for a student's course.
func (r *GradebookRepository) ListByStudentCourse(ctx context.Context, studentID, courseID int) ([]model.GradebookItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, course_id, assessment_code, score, max_score, synced_at
		 FROM gradebook_items
		 WHERE student_id = $1 AND course_id = $2
		 ORDER BY assessment_code`, studentID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.GradebookItem
	for rows.Next() {
		var item model.GradebookItem
		if err := rows.Scan(&item.StudentID, &item.CourseID, &item.AssessmentCode,
			&item.Score, &item.MaxScore, &item.SyncedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
