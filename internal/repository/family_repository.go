package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// FamilyRepository handles family, student, and enrollment data access.
type FamilyRepository struct {
	pool *pgxpool.Pool
}

// NewFamilyRepository creates a new FamilyRepository.
func NewFamilyRepository(pool *pgxpool.Pool) *FamilyRepository {
	return &FamilyRepository{pool: pool}
}

// CreateRegistration writes a family, its students, and their enrollments in
// one transaction. Student IDs and the family ID are populated on success.
func (r *FamilyRepository) CreateRegistration(
	ctx context.Context,
	family *model.Family,
	students []*model.Student,
	enrollments map[int][]int, // index into students → course IDs
	schoolYear string,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	guardiansJSON, err := json.Marshal(family.Guardians)
	if err != nil {
		return fmt.Errorf("marshal guardians: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO families (name, facilitator_id, guardians)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		family.Name, family.FacilitatorID, guardiansJSON,
	).Scan(&family.ID, &family.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert family: %w", err)
	}

	for i, s := range students {
		s.FamilyID = family.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO students (family_id, name, email, password_hash, student_type, school_year, birthdate)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at, updated_at`,
			s.FamilyID, s.Name, s.Email, s.PasswordHash, s.StudentType, s.SchoolYear, s.Birthdate,
		).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert student %s: %w", s.Email, err)
		}

		for _, courseID := range enrollments[i] {
			if _, err := tx.Exec(ctx,
				`INSERT INTO enrollments (student_id, course_id, school_year)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (student_id, course_id, school_year) DO NOTHING`,
				s.ID, courseID, schoolYear); err != nil {
				return fmt.Errorf("insert enrollment student=%d course=%d: %w", s.ID, courseID, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// GetStudentByEmail retrieves a student by email.
func (r *FamilyRepository) GetStudentByEmail(ctx context.Context, email string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, family_id, name, email, password_hash, student_type, school_year, birthdate, created_at, updated_at
		 FROM students WHERE email = $1`, email,
	).Scan(&s.ID, &s.FamilyID, &s.Name, &s.Email, &s.PasswordHash, &s.StudentType,
		&s.SchoolYear, &s.Birthdate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetStudent retrieves a student by ID.
func (r *FamilyRepository) GetStudent(ctx context.Context, id int) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, family_id, name, email, password_hash, student_type, school_year, birthdate, created_at, updated_at
		 FROM students WHERE id = $1`, id,
	).Scan(&s.ID, &s.FamilyID, &s.Name, &s.Email, &s.PasswordHash, &s.StudentType,
		&s.SchoolYear, &s.Birthdate, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetFamily retrieves a family profile.
func (r *FamilyRepository) GetFamily(ctx context.Context, id uuid.UUID) (*model.Family, error) {
	f := &model.Family{}
	var guardiansJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, facilitator_id, guardians, created_at FROM families WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.FacilitatorID, &guardiansJSON, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(guardiansJSON, &f.Guardians); err != nil {
		return nil, fmt.Errorf("unmarshal guardians: %w", err)
	}
	return f, nil
}

// ListEnrollments retrieves a student's enrollments for a school year in
// created order, with course ID as the stable tie-break.
func (r *FamilyRepository) ListEnrollments(ctx context.Context, studentID int, schoolYear string) ([]model.Enrollment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT student_id, course_id, school_year, created_at
		 FROM enrollments
		 WHERE student_id = $1 AND school_year = $2
		 ORDER BY created_at ASC, course_id ASC`, studentID, schoolYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.StudentID, &e.CourseID, &e.SchoolYear, &e.CreatedAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// AddEnrollment enrolls a student into one course.
func (r *FamilyRepository) AddEnrollment(ctx context.Context, e *model.Enrollment) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, course_id, school_year)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, course_id, school_year) DO NOTHING
		 RETURNING created_at`,
		e.StudentID, e.CourseID, e.SchoolYear,
	).Scan(&e.CreatedAt)
}

// ListFacilitators retrieves all active facilitators.
func (r *FamilyRepository) ListFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, email, active FROM facilitators WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilitators []model.Facilitator
	for rows.Next() {
		var f model.Facilitator
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Active); err != nil {
			return nil, err
		}
		facilitators = append(facilitators, f)
	}
	return facilitators, rows.Err()
}

// GetFacilitator retrieves one facilitator.
func (r *FamilyRepository) GetFacilitator(ctx context.Context, id int) (*model.Facilitator, error) {
	f := &model.Facilitator{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, active FROM facilitators WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Email, &f.Active)
	if err != nil {
		return nil, err
	}
	return f, nil
}
