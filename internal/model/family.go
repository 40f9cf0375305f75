package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentType determines which pricing config applies to a student.
type StudentType string

const (
	StudentTypeNonPrimary    StudentType = "Non-Primary"
	StudentTypeHomeEducation StudentType = "Home Education"
	StudentTypeSummerSchool  StudentType = "Summer School"
	StudentTypeAdult         StudentType = "Adult Student"
	StudentTypeInternational StudentType = "International Student"
)

// Family groups guardians and students under one registration profile.
type Family struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	FacilitatorID *int       `json:"facilitator_id,omitempty"`
	Guardians     []Guardian `json:"guardians"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Guardian is a parent/guardian embedded in the family profile.
type Guardian struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
	Primary      bool   `json:"primary"`
}

// Student is a registered student belonging to a family.
type Student struct {
	ID           int         `json:"id"`
	FamilyID     uuid.UUID   `json:"family_id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	StudentType  StudentType `json:"student_type"`
	SchoolYear   string      `json:"school_year"`
	Birthdate    *time.Time  `json:"birthdate,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Enrollment links a student to a course for a school year. Created order
// drives credit accumulation.
type Enrollment struct {
	StudentID  int       `json:"student_id"`
	CourseID   int       `json:"course_id"`
	SchoolYear string    `json:"school_year"`
	CreatedAt  time.Time `json:"created_at"`
}

// Facilitator is a home-education facilitator families can select.
type Facilitator struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// ─── Registration payloads ──────────────────────────────────────────────────

// RegistrationGuardian is one guardian in a registration submission.
type RegistrationGuardian struct {
	Name         string `json:"name" binding:"required,min=2,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"omitempty,max=30"`
	Relationship string `json:"relationship" binding:"omitempty,max=50"`
	Primary      bool   `json:"primary"`
}

// RegistrationStudent is one student in a registration submission.
type RegistrationStudent struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6,max=128"`
	StudentType string `json:"student_type" binding:"required,oneof=Non-Primary 'Home Education' 'Summer School' 'Adult Student' 'International Student'"`
	Birthdate   string `json:"birthdate" binding:"omitempty,datetime=2006-01-02"`
	CourseIDs   []int  `json:"course_ids" binding:"required,min=1"`
}

// SubmitRegistrationRequest is the payload for a family registration.
type SubmitRegistrationRequest struct {
	FamilyName    string                 `json:"family_name" binding:"required,min=2,max=150"`
	SchoolYear    string                 `json:"school_year" binding:"required,min=7,max=9"`
	FacilitatorID *int                   `json:"facilitator_id" binding:"omitempty"`
	Guardians     []RegistrationGuardian `json:"guardians" binding:"required,min=1,dive"`
	Students      []RegistrationStudent  `json:"students" binding:"required,min=1,dive"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// StudentLoginResponse is returned after successful student login.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
