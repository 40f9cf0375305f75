package model

import "time"

// Grade is the durable best score for a (student, course, assessment code)
// key. Monotonically non-decreasing across attempts.
type Grade struct {
	StudentID      int       `json:"student_id"`
	CourseID       int       `json:"course_id"`
	AssessmentCode string    `json:"assessment_code"`
	Score          float64   `json:"score"`
	MaxScore       float64   `json:"max_score"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GradebookItem is the worker-maintained projection of a Grade into the
// course gradebook. It can lag behind grades; grading never waits on it.
type GradebookItem struct {
	StudentID      int       `json:"student_id"`
	CourseID       int       `json:"course_id"`
	AssessmentCode string    `json:"assessment_code"`
	Score          float64   `json:"score"`
	MaxScore       float64   `json:"max_score"`
	SyncedAt       time.Time `json:"synced_at"`
}

// DirectScoreRequest is the staff payload for writing a score directly,
// bypassing evaluation.
type DirectScoreRequest struct {
	StudentEmail   string  `json:"student_email" binding:"required,email"`
	CourseID       int     `json:"course_id" binding:"required"`
	AssessmentCode string  `json:"assessment_code" binding:"required,min=2,max=100"`
	Score          float64 `json:"score" binding:"min=0"`
}
