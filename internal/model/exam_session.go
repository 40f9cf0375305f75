package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states. The transition is one-way:
// a completed session is immutable.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
)

// Exam is a staff-authored multi-question exam over a course's assessment
// slots.
type Exam struct {
	ID               uuid.UUID `json:"id"`
	CourseID         int       `json:"course_id"`
	Title            string    `json:"title"`
	QuestionCodes    []string  `json:"question_codes"`
	TimeLimitMinutes *int      `json:"time_limit_minutes,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
}

// ExamSession represents one timed multi-question attempt.
type ExamSession struct {
	ID                 uuid.UUID     `json:"id"`
	ExamID             uuid.UUID     `json:"exam_id"`
	CourseID           int           `json:"course_id"`
	StudentID          int           `json:"student_id"`
	Status             SessionStatus `json:"status"`
	QuestionCodes      []string      `json:"question_codes"`
	QuestionsCompleted int           `json:"questions_completed"`
	TimeLimitMinutes   *int          `json:"time_limit_minutes,omitempty"`
	StartedAt          time.Time     `json:"started_at"`
	FinishedAt         *time.Time    `json:"finished_at,omitempty"`
	FinalScore         *float64      `json:"final_score,omitempty"`
	MaxScore           *float64      `json:"max_score,omitempty"`
	Percentage         *float64      `json:"percentage,omitempty"`
}

// ExamResponse is one saved answer within a session, keyed by question code.
// Re-saving the same question overwrites in place.
type ExamResponse struct {
	SessionID    uuid.UUID `json:"session_id"`
	QuestionCode string    `json:"question_code"`
	Answer       string    `json:"answer"`
	SavedAt      time.Time `json:"saved_at"`
}

// ExamQuestionResult is the per-question grading breakdown of a submitted
// session.
type ExamQuestionResult struct {
	SessionID    uuid.UUID      `json:"session_id"`
	QuestionCode string         `json:"question_code"`
	Score        float64        `json:"score"`
	MaxScore     float64        `json:"max_score"`
	IsCorrect    bool           `json:"is_correct"`
	Feedback     string         `json:"feedback"`
	GradedWith   QuestionSource `json:"graded_with"`
}

// ExamSessionDetail combines a session with its responses and, once
// completed, its per-question results.
type ExamSessionDetail struct {
	Session          ExamSession          `json:"session"`
	Responses        map[string]string    `json:"responses"`
	Results          []ExamQuestionResult `json:"results,omitempty"`
	RemainingSeconds *float64             `json:"remaining_seconds,omitempty"`
}

// Exam monitor event types, published per course over Redis pubsub and
// relayed to staff WebSocket clients.
const (
	MonitorSessionStarted   = "session_started"
	MonitorAnswerSaved      = "answer_saved"
	MonitorSessionCompleted = "session_completed"
)

// ExamMonitorEvent is one progress update on the course exam monitor stream.
type ExamMonitorEvent struct {
	Type               string    `json:"type"`
	SessionID          uuid.UUID `json:"session_id"`
	ExamID             uuid.UUID `json:"exam_id"`
	CourseID           int       `json:"course_id"`
	StudentID          int       `json:"student_id"`
	QuestionsCompleted int       `json:"questions_completed"`
	QuestionTotal      int       `json:"question_total"`
	Percentage         *float64  `json:"percentage,omitempty"`
	At                 time.Time `json:"at"`
}

// StartExamSessionRequest is the payload for starting an exam session.
type StartExamSessionRequest struct {
	// Optional client-supplied override; stored and surfaced but not
	// enforced at submit.
	TimeLimitMinutes *int   `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
	StudentEmail     string `json:"student_email" binding:"omitempty,email"`
}

// SaveExamAnswerRequest is the payload for saving one answer.
type SaveExamAnswerRequest struct {
	QuestionCode string `json:"question_code" binding:"required,min=2,max=100"`
	Answer       string `json:"answer" binding:"required,max=20000"`
}

// CreateExamRequest is the staff payload for authoring an exam.
type CreateExamRequest struct {
	Title            string   `json:"title" binding:"required,min=3,max=255"`
	QuestionCodes    []string `json:"question_codes" binding:"required,min=1,dive,min=2,max=100"`
	TimeLimitMinutes *int     `json:"time_limit_minutes" binding:"omitempty,min=1,max=480"`
}
