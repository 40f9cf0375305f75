package service

import (
	"testing"
	"time"

	"github.com/rtdacademy/connect-backend/internal/model"
)

func enrolled(id int, code string, credits float64, exempt bool) model.EnrolledCourse {
	return model.EnrolledCourse{
		CourseID:   id,
		CourseCode: code,
		Credits:    credits,
		Exempt:     exempt,
		EnrolledAt: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Hour),
	}
}

func TestCalculateCreditsUnderLimit(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeNonPrimary), []model.EnrolledCourse{
		enrolled(1, "MATH10C", 5, false),
		enrolled(2, "ELA10-1", 5, false),
	}, 10)

	if rec.TotalCredits != 10 || rec.NonExemptCredits != 10 {
		t.Errorf("totals = %v/%v, want 10/10", rec.TotalCredits, rec.NonExemptCredits)
	}
	if rec.FreeCreditsUsed != 10 {
		t.Errorf("free used = %v, want 10", rec.FreeCreditsUsed)
	}
	if rec.CreditsRequiringPayment != 0 || rec.RequiresPayment {
		t.Errorf("nothing should require payment, got %v", rec.CreditsRequiringPayment)
	}
	for _, c := range rec.Courses {
		if c.RequiresPayment {
			t.Errorf("course %s flagged for payment under the limit", c.CourseCode)
		}
	}
}

func TestCalculateCreditsOverflow(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeNonPrimary), []model.EnrolledCourse{
		enrolled(1, "MATH10C", 5, false),
		enrolled(2, "ELA10-1", 5, false),
		enrolled(3, "SCI10", 5, false),
	}, 10)

	if rec.CreditsRequiringPayment != 5 || !rec.RequiresPayment {
		t.Errorf("overflow = %v, want 5 requiring payment", rec.CreditsRequiringPayment)
	}

	// Free credits go first-come-first-served by enrollment order, so only
	// the last course overflows.
	last := rec.Courses[2]
	if !last.RequiresPayment || last.CreditsRequiredToPay != 5 {
		t.Errorf("third course = %+v, want full 5 unpaid", last)
	}
	if rec.Courses[0].RequiresPayment || rec.Courses[1].RequiresPayment {
		t.Error("earlier enrollments must be fully covered")
	}
}

func TestCalculateCreditsPartialOverflow(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeNonPrimary), []model.EnrolledCourse{
		enrolled(1, "MATH30-1", 7, false),
		enrolled(2, "PHYS30", 7, false),
	}, 10)

	second := rec.Courses[1]
	if second.CreditsCoveredByLimit != 3 || second.CreditsRequiredToPay != 4 {
		t.Errorf("second course split = %v covered / %v to pay, want 3/4", second.CreditsCoveredByLimit, second.CreditsRequiredToPay)
	}
	if rec.FreeCreditsUsed != 10 {
		t.Errorf("free used = %v, want the whole limit", rec.FreeCreditsUsed)
	}
	if rec.CreditsRequiringPayment != 4 {
		t.Errorf("requiring payment = %v, want 4", rec.CreditsRequiringPayment)
	}
}

func TestCalculateCreditsExemptCoursesSkipLimit(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeHomeEducation), []model.EnrolledCourse{
		enrolled(1, "CTS-EXEMPT", 5, true),
		enrolled(2, "MATH10C", 5, false),
		enrolled(3, "ELA10-1", 5, false),
	}, 10)

	if rec.ExemptCredits != 5 {
		t.Errorf("exempt = %v, want 5", rec.ExemptCredits)
	}
	// The exempt course must not have consumed any of the 10-credit
	// allowance, so both non-exempt courses fit for free.
	if rec.RequiresPayment {
		t.Errorf("requiring payment = %v, exempt course consumed the limit", rec.CreditsRequiringPayment)
	}
	exempt := rec.Courses[0]
	if exempt.RequiresPayment || exempt.CreditsCoveredByLimit != 5 {
		t.Errorf("exempt detail = %+v", exempt)
	}
}

func TestCalculateCreditsSequentialApportioning(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeNonPrimary), []model.EnrolledCourse{
		enrolled(1, "BIGCOURSE", 12, false),
		enrolled(2, "SCI10", 5, false),
	}, 10)

	first, second := rec.Courses[0], rec.Courses[1]
	if first.CreditsCoveredByLimit != 10 || first.CreditsRequiredToPay != 2 {
		t.Errorf("first course = %v covered / %v to pay, want 10/2", first.CreditsCoveredByLimit, first.CreditsRequiredToPay)
	}
	if second.CreditsCoveredByLimit != 0 || second.CreditsRequiredToPay != 5 {
		t.Errorf("second course = %v covered / %v to pay, want 0/5", second.CreditsCoveredByLimit, second.CreditsRequiredToPay)
	}
	if rec.CreditsRequiringPayment != 7 {
		t.Errorf("requiring payment = %v, want 7", rec.CreditsRequiringPayment)
	}
}

func TestCalculateCreditsNoEnrollments(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeNonPrimary), nil, 10)

	if rec.TotalCredits != 0 || rec.FreeCreditsUsed != 0 || rec.RequiresPayment {
		t.Errorf("empty record = %+v", rec)
	}
	if rec.Courses == nil || len(rec.Courses) != 0 {
		t.Error("courses must be an empty slice, not nil")
	}
}

func TestCalculateCreditsZeroLimit(t *testing.T) {
	rec := CalculateCredits(7, "25/26", string(model.StudentTypeAdult), []model.EnrolledCourse{
		enrolled(1, "MATH30-1", 5, false),
	}, 0)

	if rec.CreditsRequiringPayment != 5 || !rec.RequiresPayment {
		t.Errorf("zero limit must charge everything, got %v", rec.CreditsRequiringPayment)
	}
}
