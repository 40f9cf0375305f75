package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
)

// ErrCreditRecordNotFound is returned when no credit record has been
// computed yet for a (student, school year, student type) key.
var ErrCreditRecordNotFound = errors.New("credit record not found")

type enrollmentStore interface {
	GetStudent(ctx context.Context, id int) (*model.Student, error)
	ListEnrollments(ctx context.Context, studentID int, schoolYear string) ([]model.Enrollment, error)
}

type creditStore interface {
	Upsert(ctx context.Context, rec *model.CreditRecord) error
	Get(ctx context.Context, studentID int, schoolYear, studentType string) (*model.CreditRecord, error)
	GetPricingConfig(ctx context.Context, schoolYear, studentType string) (*model.PricingConfig, error)
}

type creditCourseStore interface {
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

// CreditService recomputes payment-eligibility credit records. A record is
// always rebuilt wholesale from the enrollment list; there is no incremental
// mutation to drift out of sync.
type CreditService struct {
	cfg         *config.Config
	enrollments enrollmentStore
	credits     creditStore
	courses     creditCourseStore
	queue       TaskQueue
	rdb         *redis.Client
	logger      zerolog.Logger
}

// NewCreditService creates a new CreditService.
func NewCreditService(
	cfg *config.Config,
	enrollments enrollmentStore,
	credits creditStore,
	courses creditCourseStore,
	queue TaskQueue,
	rdb *redis.Client,
	logger zerolog.Logger,
) *CreditService {
	return &CreditService{
		cfg:         cfg,
		enrollments: enrollments,
		credits:     credits,
		courses:     courses,
		queue:       queue,
		rdb:         rdb,
		logger:      logger.With().Str("service", "credit").Logger(),
	}
}

// CalculateCredits is the pure credit calculator. Courses are consumed in
// the given order (enrollment creation order); free credits are allocated
// first-come-first-served until the limit, and only the overflow of
// non-exempt credits requires payment. Exempt courses never consume the
// limit.
func CalculateCredits(studentID int, schoolYear, studentType string, courses []model.EnrolledCourse, freeCreditLimit float64) *model.CreditRecord {
	rec := &model.CreditRecord{
		StudentID:       studentID,
		SchoolYear:      schoolYear,
		StudentType:     studentType,
		FreeCreditLimit: freeCreditLimit,
		Courses:         make([]model.CourseCreditDetail, 0, len(courses)),
		CalculatedAt:    time.Now(),
	}

	remaining := freeCreditLimit
	for _, c := range courses {
		detail := model.CourseCreditDetail{
			CourseID:   c.CourseID,
			CourseCode: c.CourseCode,
			Credits:    c.Credits,
			Exempt:     c.Exempt,
			EnrolledAt: c.EnrolledAt,
		}
		rec.TotalCredits += c.Credits

		if c.Exempt {
			rec.ExemptCredits += c.Credits
			detail.CreditsCoveredByLimit = c.Credits
		} else {
			rec.NonExemptCredits += c.Credits
			covered := c.Credits
			if covered > remaining {
				covered = remaining
			}
			remaining -= covered
			detail.CreditsCoveredByLimit = covered
			detail.CreditsRequiredToPay = c.Credits - covered
			detail.RequiresPayment = detail.CreditsRequiredToPay > 0
		}
		rec.Courses = append(rec.Courses, detail)
	}

	rec.FreeCreditsUsed = freeCreditLimit - remaining
	rec.CreditsRequiringPayment = rec.NonExemptCredits - rec.FreeCreditsUsed
	rec.RequiresPayment = rec.CreditsRequiringPayment > 0
	return rec
}

// Recompute rebuilds and stores the credit record for one student.
func (s *CreditService) Recompute(ctx context.Context, studentID int, schoolYear, studentType string) (*model.CreditRecord, error) {
	enrollments, err := s.enrollments.ListEnrollments(ctx, studentID, schoolYear)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}

	courses := make([]model.EnrolledCourse, 0, len(enrollments))
	for _, e := range enrollments {
		course, err := s.lookupCourse(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		courses = append(courses, model.EnrolledCourse{
			CourseID:   course.ID,
			CourseCode: course.Code,
			Credits:    course.Credits,
			Exempt:     course.Exempt,
			EnrolledAt: e.CreatedAt,
		})
	}

	limit, err := s.freeCreditLimit(ctx, schoolYear, studentType)
	if err != nil {
		return nil, err
	}

	rec := CalculateCredits(studentID, schoolYear, studentType, courses, limit)
	if err := s.credits.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("store credit record: %w", err)
	}
	return rec, nil
}

// RecomputeStudent resolves the student's year and type before recomputing.
func (s *CreditService) RecomputeStudent(ctx context.Context, studentID int) (*model.CreditRecord, error) {
	student, err := s.enrollments.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}
	return s.Recompute(ctx, student.ID, student.SchoolYear, string(student.StudentType))
}

// GetRecord returns the stored credit record for a student.
func (s *CreditService) GetRecord(ctx context.Context, studentID int) (*model.CreditRecord, error) {
	student, err := s.enrollments.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("load student: %w", err)
	}

	rec, err := s.credits.Get(ctx, student.ID, student.SchoolYear, string(student.StudentType))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// First read triggers the initial computation.
			return s.Recompute(ctx, student.ID, student.SchoolYear, string(student.StudentType))
		}
		return nil, fmt.Errorf("load credit record: %w", err)
	}
	return rec, nil
}

// EnqueueRecompute hands a recompute task to the credit worker. Best
// effort: enrollment writes never fail because the queue is down.
func (s *CreditService) EnqueueRecompute(ctx context.Context, studentID int, schoolYear, studentType string) {
	task := model.CreditRecalcTask{
		StudentID:   studentID,
		SchoolYear:  schoolYear,
		StudentType: studentType,
	}
	if err := s.queue.Push(ctx, config.WorkerKey.CreditRecalcQueue, task); err != nil {
		s.logger.Error().Err(err).Int("student_id", studentID).Msg("enqueue credit recompute")
	}
}

// InvalidateCourseCache drops the cached credit weight of one course, used
// after a course update.
func (s *CreditService) InvalidateCourseCache(ctx context.Context, courseID int) {
	if err := s.rdb.Del(ctx, config.CacheKey.CourseCreditsKey(courseID)).Err(); err != nil {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("invalidate course cache")
	}
}

// lookupCourse reads a course's credit data through a Redis TTL cache so
// batch recomputes do not hammer the courses table.
func (s *CreditService) lookupCourse(ctx context.Context, courseID int) (*model.Course, error) {
	key := config.CacheKey.CourseCreditsKey(courseID)
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var course model.Course
		if jerr := json.Unmarshal(raw, &course); jerr == nil {
			return &course, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Int("course_id", courseID).Msg("course cache read")
	}

	course, err := s.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", courseID, err)
	}

	if raw, err := json.Marshal(course); err == nil {
		if serr := s.rdb.Set(ctx, key, raw, s.cfg.CourseCacheTTL).Err(); serr != nil {
			s.logger.Warn().Err(serr).Int("course_id", courseID).Msg("course cache write")
		}
	}
	return course, nil
}

// freeCreditLimit reads the pricing config through a Redis TTL cache,
// falling back to the global default when no row exists for the pair.
func (s *CreditService) freeCreditLimit(ctx context.Context, schoolYear, studentType string) (float64, error) {
	key := config.CacheKey.PricingConfigKey(schoolYear, studentType)
	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var pc model.PricingConfig
		if jerr := json.Unmarshal(raw, &pc); jerr == nil {
			return pc.FreeCreditLimit, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Str("school_year", schoolYear).Msg("pricing cache read")
	}

	pc, err := s.credits.GetPricingConfig(ctx, schoolYear, studentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			pc = &model.PricingConfig{
				SchoolYear:      schoolYear,
				StudentType:     studentType,
				FreeCreditLimit: s.cfg.FreeCreditLimit,
			}
		} else {
			return 0, fmt.Errorf("load pricing config: %w", err)
		}
	}

	if raw, err := json.Marshal(pc); err == nil {
		if serr := s.rdb.Set(ctx, key, raw, s.cfg.CourseCacheTTL).Err(); serr != nil {
			s.logger.Warn().Err(serr).Str("school_year", schoolYear).Msg("pricing cache write")
		}
	}
	return pc.FreeCreditLimit, nil
}
