package model

import "time"

// Course represents a registerable course with its credit weight.
type Course struct {
	ID              int       `json:"id"`
	Code            string    `json:"code"`
	Title           string    `json:"title"`
	Credits         float64   `json:"credits"`
	Exempt          bool      `json:"exempt"`
	GradingGuidance string    `json:"grading_guidance,omitempty"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Difficulty labels a question generation request.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// CourseAssessment is the authored configuration for one assessment slot in
// a course: what topic to generate questions about and the grading bounds.
type CourseAssessment struct {
	ID             int        `json:"id"`
	CourseID       int        `json:"course_id"`
	AssessmentCode string     `json:"assessment_code"`
	Topic          string     `json:"topic"`
	Difficulty     Difficulty `json:"difficulty"`
	MinWords       int        `json:"min_words"`
	MaxWords       int        `json:"max_words"`
	MaxScore       float64    `json:"max_score"`
	MaxAttempts    int        `json:"max_attempts"`
	PromptNotes    string     `json:"prompt_notes,omitempty"`
}

// FallbackQuestion is an authored substitute used when the AI service is
// unavailable or returns an unusable result.
type FallbackQuestion struct {
	ID             int        `json:"id"`
	CourseID       int        `json:"course_id"`
	Difficulty     Difficulty `json:"difficulty"`
	QuestionText   string     `json:"question_text"`
	ExpectedAnswer string     `json:"-"`
	SampleAnswer   string     `json:"sample_answer"`
}

// AddFallbackQuestionRequest is the payload for authoring a fallback question.
type AddFallbackQuestionRequest struct {
	Difficulty     string `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	QuestionText   string `json:"question_text" binding:"required,min=10,max=4000"`
	ExpectedAnswer string `json:"expected_answer" binding:"required,min=3,max=8000"`
	SampleAnswer   string `json:"sample_answer" binding:"omitempty,max=8000"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Code            string  `json:"code" binding:"required,min=2,max=20"`
	Title           string  `json:"title" binding:"required,min=3,max=255"`
	Credits         float64 `json:"credits" binding:"min=0,max=15"`
	Exempt          bool    `json:"exempt"`
	GradingGuidance string  `json:"grading_guidance" binding:"omitempty,max=4000"`
}

// UpdateCourseRequest is the payload for updating a course.
type UpdateCourseRequest struct {
	Title           string   `json:"title" binding:"omitempty,min=3,max=255"`
	Credits         *float64 `json:"credits" binding:"omitempty,min=0,max=15"`
	Exempt          *bool    `json:"exempt"`
	GradingGuidance *string  `json:"grading_guidance" binding:"omitempty,max=4000"`
	Active          *bool    `json:"active"`
}

// UpsertCourseAssessmentRequest is the payload for authoring an assessment slot.
type UpsertCourseAssessmentRequest struct {
	AssessmentCode string  `json:"assessment_code" binding:"required,min=2,max=100"`
	Topic          string  `json:"topic" binding:"required,min=3,max=500"`
	Difficulty     string  `json:"difficulty" binding:"required,oneof=beginner intermediate advanced"`
	MinWords       int     `json:"min_words" binding:"min=1"`
	MaxWords       int     `json:"max_words" binding:"required,gtfield=MinWords"`
	MaxScore       float64 `json:"max_score" binding:"required,min=1"`
	MaxAttempts    int     `json:"max_attempts" binding:"omitempty,min=1,max=10"`
	PromptNotes    string  `json:"prompt_notes" binding:"omitempty,max=2000"`
}
