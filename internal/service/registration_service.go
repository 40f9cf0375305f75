package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// Registration errors.
var (
	ErrEmailTaken              = errors.New("email already registered")
	ErrUnknownCourse           = errors.New("unknown or inactive course")
	ErrFacilitatorNotFound     = errors.New("facilitator not found")
	ErrFacilitatorRequired     = errors.New("a facilitator is required for home education students")
	ErrPrimaryGuardianRequired = errors.New("exactly one primary guardian is required")
)

const pgUniqueViolation = "23505"

type registrationStore interface {
	CreateRegistration(ctx context.Context, family *model.Family, students []*model.Student, enrollments map[int][]int, schoolYear string) error
	GetStudentByEmail(ctx context.Context, email string) (*model.Student, error)
	GetFamily(ctx context.Context, id uuid.UUID) (*model.Family, error)
	GetFacilitator(ctx context.Context, id int) (*model.Facilitator, error)
	ListFacilitators(ctx context.Context) ([]model.Facilitator, error)
}

type registrationCourseStore interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) error
	GenerateStudentToken(ctx context.Context, studentID int, email string, familyID uuid.UUID) (string, error)
}

type creditEnqueuer interface {
	EnqueueRecompute(ctx context.Context, studentID int, schoolYear, studentType string)
}

type registrationMailer interface {
	SendRegistrationConfirmation(ctx context.Context, toEmail, guardianName string, studentNames []string) error
}

// RegistrationService handles family registration submissions and student
// authentication.
type RegistrationService struct {
	families registrationStore
	courses  registrationCourseStore
	auth     passwordHasher
	credits  creditEnqueuer
	mailer   registrationMailer
	logger   zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(
	families registrationStore,
	courses registrationCourseStore,
	auth passwordHasher,
	credits creditEnqueuer,
	mailer registrationMailer,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		families: families,
		courses:  courses,
		auth:     auth,
		credits:  credits,
		mailer:   mailer,
		logger:   logger.With().Str("service", "registration").Logger(),
	}
}

// Submit validates and stores a family registration: one family profile,
// one account per student, and their course enrollments, all in one
// transaction. Credit recomputes and the confirmation email run after the
// commit and never fail the registration.
func (s *RegistrationService) Submit(ctx context.Context, req *model.SubmitRegistrationRequest) (*model.Family, []*model.Student, error) {
	primary, err := validateGuardians(req.Guardians)
	if err != nil {
		return nil, nil, err
	}

	if req.FacilitatorID != nil {
		fac, err := s.families.GetFacilitator(ctx, *req.FacilitatorID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrFacilitatorNotFound
			}
			return nil, nil, fmt.Errorf("load facilitator: %w", err)
		}
		if !fac.Active {
			return nil, nil, ErrFacilitatorNotFound
		}
	}

	seen := make(map[string]struct{}, len(req.Students))
	students := make([]*model.Student, 0, len(req.Students))
	enrollments := make(map[int][]int, len(req.Students))

	for i, rs := range req.Students {
		if _, dup := seen[rs.Email]; dup {
			return nil, nil, ErrEmailTaken
		}
		seen[rs.Email] = struct{}{}

		if model.StudentType(rs.StudentType) == model.StudentTypeHomeEducation && req.FacilitatorID == nil {
			return nil, nil, ErrFacilitatorRequired
		}

		if _, err := s.families.GetStudentByEmail(ctx, rs.Email); err == nil {
			return nil, nil, ErrEmailTaken
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, fmt.Errorf("check student email: %w", err)
		}

		for _, courseID := range rs.CourseIDs {
			course, err := s.courses.GetByID(ctx, courseID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, nil, fmt.Errorf("%w: %d", ErrUnknownCourse, courseID)
				}
				return nil, nil, fmt.Errorf("load course %d: %w", courseID, err)
			}
			if !course.Active {
				return nil, nil, fmt.Errorf("%w: %d", ErrUnknownCourse, courseID)
			}
		}

		hash, err := s.auth.HashPassword(rs.Password)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password: %w", err)
		}

		student := &model.Student{
			Name:         rs.Name,
			Email:        rs.Email,
			PasswordHash: hash,
			StudentType:  model.StudentType(rs.StudentType),
			SchoolYear:   req.SchoolYear,
		}
		if rs.Birthdate != "" {
			if bd, perr := time.Parse("2006-01-02", rs.Birthdate); perr == nil {
				student.Birthdate = &bd
			}
		}
		students = append(students, student)
		enrollments[i] = rs.CourseIDs
	}

	family := &model.Family{
		Name:          req.FamilyName,
		FacilitatorID: req.FacilitatorID,
	}
	for _, g := range req.Guardians {
		family.Guardians = append(family.Guardians, model.Guardian{
			Name:         g.Name,
			Email:        g.Email,
			Phone:        g.Phone,
			Relationship: g.Relationship,
			Primary:      g.Primary,
		})
	}

	if err := s.families.CreateRegistration(ctx, family, students, enrollments, req.SchoolYear); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("create registration: %w", err)
	}

	names := make([]string, 0, len(students))
	for _, st := range students {
		s.credits.EnqueueRecompute(ctx, st.ID, st.SchoolYear, string(st.StudentType))
		names = append(names, st.Name)
	}

	if err := s.mailer.SendRegistrationConfirmation(ctx, primary.Email, primary.Name, names); err != nil {
		s.logger.Warn().Err(err).Str("to", primary.Email).Msg("registration confirmation email failed")
	}

	return family, students, nil
}

// Login authenticates a student and issues a session token.
func (s *RegistrationService) Login(ctx context.Context, req *model.StudentLoginRequest) (*model.StudentLoginResponse, error) {
	student, err := s.families.GetStudentByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	if err := s.auth.CheckPassword(student.PasswordHash, req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.auth.GenerateStudentToken(ctx, student.ID, student.Email, student.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &model.StudentLoginResponse{Token: token, Student: *student}, nil
}

// GetFamily retrieves one family profile.
func (s *RegistrationService) GetFamily(ctx context.Context, id uuid.UUID) (*model.Family, error) {
	return s.families.GetFamily(ctx, id)
}

// ListFacilitators returns the active facilitators for the registration form.
func (s *RegistrationService) ListFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	return s.families.ListFacilitators(ctx)
}

// validateGuardians checks the primary-guardian invariant and returns the
// primary.
func validateGuardians(guardians []model.RegistrationGuardian) (*model.RegistrationGuardian, error) {
	var primary *model.RegistrationGuardian
	for i := range guardians {
		if guardians[i].Primary {
			if primary != nil {
				return nil, ErrPrimaryGuardianRequired
			}
			primary = &guardians[i]
		}
	}
	if primary == nil {
		return nil, ErrPrimaryGuardianRequired
	}
	return primary, nil
}
