package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"
	ErrStudentOnly      ErrCode = "STUDENT_ACCESS_ONLY"
	ErrStaffOnly        ErrCode = "STAFF_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Assessments ───────────────────────────────────────────────────
	ErrWordCountOutOfBounds ErrCode = "WORD_COUNT_OUT_OF_BOUNDS"
	ErrAttemptsExhausted    ErrCode = "ATTEMPTS_EXHAUSTED"
	ErrAssessmentTerminal   ErrCode = "ASSESSMENT_ALREADY_FINAL"
	ErrScoreOutOfRange      ErrCode = "SCORE_OUT_OF_RANGE"
	ErrScoreCooldown        ErrCode = "SCORE_UPDATE_COOLDOWN"

	// ─── Exam sessions ─────────────────────────────────────────────────
	ErrSessionCompleted  ErrCode = "SESSION_ALREADY_COMPLETED"
	ErrQuestionNotInExam ErrCode = "QUESTION_NOT_IN_EXAM"
	ErrExamNotAvailable  ErrCode = "EXAM_NOT_AVAILABLE"

	// ─── Registration ──────────────────────────────────────────────────
	ErrEmailTaken          ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrUnknownCourse       ErrCode = "UNKNOWN_COURSE"
	ErrFacilitatorNotFound ErrCode = "FACILITATOR_NOT_FOUND"

	// ─── Documents ─────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrStudentOnly:
		return "This resource is restricted to students."
	case ErrStaffOnly:
		return "This resource is restricted to staff."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Assessments ───────────────────────────────────────────────────
	case ErrWordCountOutOfBounds:
		return "Your answer is outside the required word count range."
	case ErrAttemptsExhausted:
		return "No attempts remain for this assessment."
	case ErrAssessmentTerminal:
		return "This assessment has already been finalized."
	case ErrScoreOutOfRange:
		return "The score is outside the valid range for this assessment."
	case ErrScoreCooldown:
		return "A score was updated for this assessment moments ago. Please wait before retrying."

	// ─── Exam sessions ─────────────────────────────────────────────────
	case ErrSessionCompleted:
		return "This exam session has already been completed."
	case ErrQuestionNotInExam:
		return "That question is not part of this exam."
	case ErrExamNotAvailable:
		return "This exam is not currently available."

	// ─── Registration ──────────────────────────────────────────────────
	case ErrEmailTaken:
		return "A student with this email is already registered."
	case ErrUnknownCourse:
		return "One or more selected courses do not exist."
	case ErrFacilitatorNotFound:
		return "The selected facilitator was not found."

	// ─── Documents ─────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "The file exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
