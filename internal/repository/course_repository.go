package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// CourseRepository handles course and assessment-config data access.
type CourseRepository struct {
	pool *pgxpool.Pool
}

// NewCourseRepository creates a new CourseRepository.
func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{pool: pool}
}

// GetByID retrieves a course.
func (r *CourseRepository) GetByID(ctx context.Context, id int) (*model.Course, error) {
	course := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, title, credits, exempt, grading_guidance, active, created_at, updated_at
		 FROM courses WHERE id = $1`, id,
	).Scan(&course.ID, &course.Code, &course.Title, &course.Credits, &course.Exempt,
		&course.GradingGuidance, &course.Active, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// List retrieves all courses, active first.
func (r *CourseRepository) List(ctx context.Context) ([]model.Course, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, title, credits, exempt, grading_guidance, active, created_at, updated_at
		 FROM courses ORDER BY active DESC, code ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Code, &c.Title, &c.Credits, &c.Exempt,
			&c.GradingGuidance, &c.Active, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, c *model.Course) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO courses (code, title, credits, exempt, grading_guidance, active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, active, created_at, updated_at`,
		c.Code, c.Title, c.Credits, c.Exempt, c.GradingGuidance,
	).Scan(&c.ID, &c.Active, &c.CreatedAt, &c.UpdatedAt)
}

// Update applies non-nil fields of the request to a course.
func (r *CourseRepository) Update(ctx context.Context, id int, req *model.UpdateCourseRequest) (*model.Course, error) {
	course := &model.Course{}
	err := r.pool.QueryRow(ctx,
		`UPDATE courses SET
			title            = COALESCE(NULLIF($2, ''), title),
			credits          = COALESCE($3, credits),
			exempt           = COALESCE($4, exempt),
			grading_guidance = COALESCE($5, grading_guidance),
			active           = COALESCE($6, active),
			updated_at       = NOW()
		 WHERE id = $1
		 RETURNING id, code, title, credits, exempt, grading_guidance, active, created_at, updated_at`,
		id, req.Title, req.Credits, req.Exempt, req.GradingGuidance, req.Active,
	).Scan(&course.ID, &course.Code, &course.Title, &course.Credits, &course.Exempt,
		&course.GradingGuidance, &course.Active, &course.CreatedAt, &course.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return course, nil
}

// GetAssessmentConfig retrieves the authored config for one assessment slot.
func (r *CourseRepository) GetAssessmentConfig(ctx context.Context, courseID int, code string) (*model.CourseAssessment, error) {
	ca := &model.CourseAssessment{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, course_id, assessment_code, topic, difficulty, min_words, max_words,
		        max_score, max_attempts, prompt_notes
		 FROM course_assessments
		 WHERE course_id = $1 AND assessment_code = $2`, courseID, code,
	).Scan(&ca.ID, &ca.CourseID, &ca.AssessmentCode, &ca.Topic, &ca.Difficulty,
		&ca.MinWords, &ca.MaxWords, &ca.MaxScore, &ca.MaxAttempts, &ca.PromptNotes)
	if err != nil {
		return nil, err
	}
	return ca, nil
}

// UpsertAssessmentConfig creates or replaces an assessment slot config.
func (r *CourseRepository) UpsertAssessmentConfig(ctx context.Context, ca *model.CourseAssessment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO course_assessments
			(course_id, assessment_code, topic, difficulty, min_words, max_words, max_score, max_attempts, prompt_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (course_id, assessment_code) DO UPDATE SET
			topic = EXCLUDED.topic,
			difficulty = EXCLUDED.difficulty,
			min_words = EXCLUDED.min_words,
			max_words = EXCLUDED.max_words,
			max_score = EXCLUDED.max_score,
			max_attempts = EXCLUDED.max_attempts,
			prompt_notes = EXCLUDED.prompt_notes
		 RETURNING id`,
		ca.CourseID, ca.AssessmentCode, ca.Topic, ca.Difficulty, ca.MinWords,
		ca.MaxWords, ca.MaxScore, ca.MaxAttempts, ca.PromptNotes,
	).Scan(&ca.ID)
}

// ListFallbackQuestions retrieves all authored fallback questions for a course.
func (r *CourseRepository) ListFallbackQuestions(ctx context.Context, courseID int) ([]model.FallbackQuestion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, difficulty, question_text, expected_answer, sample_answer
		 FROM fallback_questions WHERE course_id = $1 ORDER BY id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.FallbackQuestion
	for rows.Next() {
		var q model.FallbackQuestion
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Difficulty, &q.QuestionText,
			&q.ExpectedAnswer, &q.SampleAnswer); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AddFallbackQuestion inserts an authored fallback question.
func (r *CourseRepository) AddFallbackQuestion(ctx context.Context, q *model.FallbackQuestion) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO fallback_questions (course_id, difficulty, question_text, expected_answer, sample_answer)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		q.CourseID, q.Difficulty, q.QuestionText, q.ExpectedAnswer, q.SampleAnswer,
	).Scan(&q.ID)
}
