package model

import (
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates the grading lifecycle of one question instance.
type AssessmentStatus string

const (
	AssessmentStatusActive    AssessmentStatus = "active"
	AssessmentStatusAttempted AssessmentStatus = "attempted"
	AssessmentStatusCompleted AssessmentStatus = "completed"
	AssessmentStatusFailed    AssessmentStatus = "failed"
)

// QuestionSource records how the question text was produced.
type QuestionSource string

const (
	SourceAI          QuestionSource = "ai"
	SourceFallback    QuestionSource = "fallback"
	SourcePlaceholder QuestionSource = "placeholder"
	// SourceError marks an exam result substituted after a grading failure.
	SourceError QuestionSource = "error"
)

// Assessment is one question instance assigned to one student, with its own
// attempt counter and status. The expected answer lives in a secured
// companion record, never in this struct.
type Assessment struct {
	ID             uuid.UUID        `json:"id"`
	StudentID      int              `json:"student_id"`
	CourseID       int              `json:"course_id"`
	AssessmentCode string           `json:"assessment_code"`
	QuestionText   string           `json:"question_text"`
	SampleAnswer   string           `json:"sample_answer,omitempty"`
	MinWords       int              `json:"min_words"`
	MaxWords       int              `json:"max_words"`
	MaxScore       float64          `json:"max_score"`
	Attempts       int              `json:"attempts"`
	MaxAttempts    int              `json:"max_attempts"`
	Status         AssessmentStatus `json:"status"`
	Source         QuestionSource   `json:"source"`
	ExamSessionID  *uuid.UUID       `json:"exam_session_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Terminal reports whether the assessment can accept no further attempts.
func (a *Assessment) Terminal() bool {
	return a.Status == AssessmentStatusCompleted || a.Status == AssessmentStatusFailed
}

// SecuredAnswer is the answer-key companion of an Assessment. Deleted once
// the assessment reaches a terminal state.
type SecuredAnswer struct {
	AssessmentID    uuid.UUID `json:"assessment_id"`
	ExpectedAnswer  string    `json:"expected_answer"`
	GradingGuidance string    `json:"grading_guidance,omitempty"`
}

// GenerateRequest is the payload for generating a question.
type GenerateRequest struct {
	// Staff may generate on behalf of a student; students generate for
	// themselves and must leave this empty.
	StudentEmail string `json:"student_email" binding:"omitempty,email"`
}

// EvaluateRequest is the payload for submitting an answer for evaluation.
type EvaluateRequest struct {
	Answer       string `json:"answer" binding:"required,min=1,max=20000"`
	StudentEmail string `json:"student_email" binding:"omitempty,email"`
}

// Verdict is the outcome of evaluating one answer.
type Verdict struct {
	IsCorrect  bool    `json:"is_correct"`
	Score      float64 `json:"score"`
	MaxScore   float64 `json:"max_score"`
	Percentage int     `json:"percentage"`
	Feedback   string  `json:"feedback"`
	// GradedWith records whether the verdict came from the model or the
	// deterministic fallback.
	GradedWith QuestionSource `json:"graded_with"`
}

// EvaluationOutcome is returned to the caller after an evaluate call.
type EvaluationOutcome struct {
	Verdict      Verdict          `json:"verdict"`
	Attempts     int              `json:"attempts"`
	MaxAttempts  int              `json:"max_attempts"`
	Status       AssessmentStatus `json:"status"`
	GradeUpdated bool             `json:"grade_updated"`
	BestScore    float64          `json:"best_score"`
}
