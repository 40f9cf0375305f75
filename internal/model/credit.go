package model

import "time"

// CourseCreditDetail is the per-course breakdown inside a credit record.
type CourseCreditDetail struct {
	CourseID              int       `json:"course_id"`
	CourseCode            string    `json:"course_code"`
	Credits               float64   `json:"credits"`
	Exempt                bool      `json:"exempt"`
	EnrolledAt            time.Time `json:"enrolled_at"`
	RequiresPayment       bool      `json:"requires_payment"`
	CreditsRequiredToPay  float64   `json:"credits_required_to_unlock"`
	CreditsCoveredByLimit float64   `json:"credits_covered_by_limit"`
}

// CreditRecord is the aggregate of credits for one (student, school year,
// student type), recomputed wholesale on every enrollment change.
type CreditRecord struct {
	StudentID               int                  `json:"student_id"`
	SchoolYear              string               `json:"school_year"`
	StudentType             string               `json:"student_type"`
	TotalCredits            float64              `json:"total_credits"`
	ExemptCredits           float64              `json:"exempt_credits"`
	NonExemptCredits        float64              `json:"non_exempt_credits"`
	FreeCreditLimit         float64              `json:"free_credit_limit"`
	FreeCreditsUsed         float64              `json:"free_credits_used"`
	CreditsRequiringPayment float64              `json:"credits_requiring_payment"`
	RequiresPayment         bool                 `json:"requires_payment"`
	Courses                 []CourseCreditDetail `json:"courses"`
	CalculatedAt            time.Time            `json:"calculated_at"`
}

// EnrolledCourse is one enrollment joined with its course's credit data,
// the input row to the credit calculator.
type EnrolledCourse struct {
	CourseID   int       `json:"course_id"`
	CourseCode string    `json:"course_code"`
	Credits    float64   `json:"credits"`
	Exempt     bool      `json:"exempt"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// CreditRecalcTask asks the credit worker to rebuild one student's credit
// record for one (school year, student type) pair.
type CreditRecalcTask struct {
	StudentID   int    `json:"student_id"`
	SchoolYear  string `json:"school_year"`
	StudentType string `json:"student_type"`
}

// PricingConfig carries the free-credit threshold for one student type in
// one school year.
type PricingConfig struct {
	SchoolYear      string  `json:"school_year"`
	StudentType     string  `json:"student_type"`
	FreeCreditLimit float64 `json:"free_credit_limit"`
}
