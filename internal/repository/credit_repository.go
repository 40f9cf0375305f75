package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// CreditRepository handles credit record data access. Credit records have a
// single source-of-truth row per (student, school year, student type);
// admin and student views are projections of the same row.
type CreditRepository struct {
	pool *pgxpool.Pool
}

// NewCreditRepository creates a new CreditRepository.
func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{pool: pool}
}

// Upsert writes a full snapshot atomically.
func (r *CreditRepository) Upsert(ctx context.Context, rec *model.CreditRecord) error {
	coursesJSON, err := json.Marshal(rec.Courses)
	if err != nil {
		return fmt.Errorf("marshal course breakdown: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO credit_records
			(student_id, school_year, student_type, total_credits, exempt_credits,
			 non_exempt_credits, free_credit_limit, free_credits_used,
			 credits_requiring_payment, requires_payment, courses, calculated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		 ON CONFLICT (student_id, school_year, student_type) DO UPDATE SET
			total_credits = EXCLUDED.total_credits,
			exempt_credits = EXCLUDED.exempt_credits,
			non_exempt_credits = EXCLUDED.non_exempt_credits,
			free_credit_limit = EXCLUDED.free_credit_limit,
			free_credits_used = EXCLUDED.free_credits_used,
			credits_requiring_payment = EXCLUDED.credits_requiring_payment,
			requires_payment = EXCLUDED.requires_payment,
			courses = EXCLUDED.courses,
			calculated_at = NOW()
		 RETURNING calculated_at`,
		rec.StudentID, rec.SchoolYear, rec.StudentType, rec.TotalCredits, rec.ExemptCredits,
		rec.NonExemptCredits, rec.FreeCreditLimit, rec.FreeCreditsUsed,
		rec.CreditsRequiringPayment, rec.RequiresPayment, coursesJSON,
	).Scan(&rec.CalculatedAt)
}

// Get retrieves the credit record for a (student, school year, type) key.
func (r *CreditRepository) Get(ctx context.Context, studentID int, schoolYear, studentType string) (*model.CreditRecord, error) {
	rec := &model.CreditRecord{}
	var coursesJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT student_id, school_year, student_type, total_credits, exempt_credits,
		        non_exempt_credits, free_credit_limit, free_credits_used,
		        credits_requiring_payment, requires_payment, courses, calculated_at
		 FROM credit_records
		 WHERE student_id = $1 AND school_year = $2 AND student_type = $3`,
		studentID, schoolYear, studentType,
	).Scan(&rec.StudentID, &rec.SchoolYear, &rec.StudentType, &rec.TotalCredits,
		&rec.ExemptCredits, &rec.NonExemptCredits, &rec.FreeCreditLimit,
		&rec.FreeCreditsUsed, &rec.CreditsRequiringPayment, &rec.RequiresPayment,
		&coursesJSON, &rec.CalculatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(coursesJSON, &rec.Courses); err != nil {
		return nil, fmt.Errorf("unmarshal course breakdown: %w", err)
	}
	return rec, nil
}

// GetPricingConfig retrieves the free-credit limit for a student type in a
// school year.
func (r *CreditRepository) GetPricingConfig(ctx context.Context, schoolYear, studentType string) (*model.PricingConfig, error) {
	p := &model.PricingConfig{}
	err := r.pool.QueryRow(ctx,
		`SELECT school_year, student_type, free_credit_limit
		 FROM pricing_configs
		 WHERE school_year = $1 AND student_type = $2`, schoolYear, studentType,
	).Scan(&p.SchoolYear, &p.StudentType, &p.FreeCreditLimit)
	if err != nil {
		return nil, err
	}
	return p, nil
}
