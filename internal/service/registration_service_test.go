package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/model"
)

type fakeRegistrationStore struct {
	facilitators map[int]*model.Facilitator
	existing     map[string]*model.Student
	created      *model.Family
	students     []*model.Student
	enrollments  map[int][]int
	createErr    error
}

func newFakeRegistrationStore() *fakeRegistrationStore {
	return &fakeRegistrationStore{
		facilitators: make(map[int]*model.Facilitator),
		existing:     make(map[string]*model.Student),
	}
}

func (f *fakeRegistrationStore) CreateRegistration(_ context.Context, family *model.Family, students []*model.Student, enrollments map[int][]int, _ string) error {
	if f.createErr != nil {
		return f.createErr
	}
	family.ID = uuid.New()
	for i, st := range students {
		st.ID = i + 1
		st.FamilyID = family.ID
	}
	f.created = family
	f.students = students
	f.enrollments = enrollments
	return nil
}

func (f *fakeRegistrationStore) GetStudentByEmail(_ context.Context, email string) (*model.Student, error) {
	st, ok := f.existing[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return st, nil
}

func (f *fakeRegistrationStore) GetFamily(_ context.Context, _ uuid.UUID) (*model.Family, error) {
	return f.created, nil
}

func (f *fakeRegistrationStore) GetFacilitator(_ context.Context, id int) (*model.Facilitator, error) {
	fac, ok := f.facilitators[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return fac, nil
}

func (f *fakeRegistrationStore) ListFacilitators(_ context.Context) ([]model.Facilitator, error) {
	return nil, nil
}

type fakeRegCourseStore struct {
	courses map[int]*model.Course
}

func (f *fakeRegCourseStore) GetByID(_ context.Context, id int) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

type fakeHasher struct {
	checkErr error
}

func (f *fakeHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func (f *fakeHasher) CheckPassword(_, _ string) error {
	return f.checkErr
}

func (f *fakeHasher) GenerateStudentToken(_ context.Context, _ int, _ string, _ uuid.UUID) (string, error) {
	return "token-abc", nil
}

type fakeEnqueuer struct {
	studentIDs []int
}

func (f *fakeEnqueuer) EnqueueRecompute(_ context.Context, studentID int, _, _ string) {
	f.studentIDs = append(f.studentIDs, studentID)
}

type fakeMailer struct {
	to       string
	guardian string
	students []string
	sendErr  error
}

func (f *fakeMailer) SendRegistrationConfirmation(_ context.Context, toEmail, guardianName string, studentNames []string) error {
	f.to = toEmail
	f.guardian = guardianName
	f.students = studentNames
	return f.sendErr
}

func validRegistration() *model.SubmitRegistrationRequest {
	return &model.SubmitRegistrationRequest{
		FamilyName: "Nguyen",
		SchoolYear: "2025/26",
		Guardians: []model.RegistrationGuardian{
			{Name: "Linh Nguyen", Email: "linh@example.com", Primary: true},
			{Name: "Bao Nguyen", Email: "bao@example.com"},
		},
		Students: []model.RegistrationStudent{
			{
				Name: "Minh Nguyen", Email: "minh@example.com", Password: "secret1",
				StudentType: string(model.StudentTypeNonPrimary),
				Birthdate:   "2010-04-12",
				CourseIDs:   []int{1, 2},
			},
		},
	}
}

func newTestRegistrationService(store *fakeRegistrationStore, courses *fakeRegCourseStore, queue *fakeEnqueuer, mailer *fakeMailer) *RegistrationService {
	return NewRegistrationService(store, courses, &fakeHasher{}, queue, mailer, zerolog.Nop())
}

func activeCourses() *fakeRegCourseStore {
	return &fakeRegCourseStore{courses: map[int]*model.Course{
		1: {ID: 1, Code: "MATH10C", Active: true},
		2: {ID: 2, Code: "ELA10-1", Active: true},
	}}
}

func TestValidateGuardians(t *testing.T) {
	if _, err := validateGuardians(nil); !errors.Is(err, ErrPrimaryGuardianRequired) {
		t.Errorf("no guardians: err = %v", err)
	}

	if _, err := validateGuardians([]model.RegistrationGuardian{
		{Name: "A"}, {Name: "B"},
	}); !errors.Is(err, ErrPrimaryGuardianRequired) {
		t.Errorf("no primary: err = %v", err)
	}

	if _, err := validateGuardians([]model.RegistrationGuardian{
		{Name: "A", Primary: true}, {Name: "B", Primary: true},
	}); !errors.Is(err, ErrPrimaryGuardianRequired) {
		t.Errorf("two primaries: err = %v", err)
	}

	primary, err := validateGuardians([]model.RegistrationGuardian{
		{Name: "A"}, {Name: "B", Primary: true},
	})
	if err != nil || primary.Name != "B" {
		t.Errorf("primary = %v, err = %v", primary, err)
	}
}

func TestSubmitRegistration(t *testing.T) {
	store := newFakeRegistrationStore()
	queue := &fakeEnqueuer{}
	mailer := &fakeMailer{}
	svc := newTestRegistrationService(store, activeCourses(), queue, mailer)

	family, students, err := svc.Submit(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if family.Name != "Nguyen" || len(family.Guardians) != 2 {
		t.Errorf("family = %+v", family)
	}
	if len(students) != 1 {
		t.Fatalf("students = %d, want 1", len(students))
	}
	if students[0].PasswordHash != "hashed:secret1" {
		t.Errorf("password must be stored hashed, got %q", students[0].PasswordHash)
	}
	if students[0].Birthdate == nil || students[0].Birthdate.Year() != 2010 {
		t.Errorf("birthdate = %v", students[0].Birthdate)
	}
	if got := store.enrollments[0]; len(got) != 2 {
		t.Errorf("enrollments = %v, want both courses", got)
	}
	if len(queue.studentIDs) != 1 {
		t.Errorf("recompute enqueued for %v, want the new student", queue.studentIDs)
	}
	if mailer.to != "linh@example.com" {
		t.Errorf("confirmation sent to %q, want the primary guardian", mailer.to)
	}
	if len(mailer.students) != 1 || mailer.students[0] != "Minh Nguyen" {
		t.Errorf("confirmation students = %v", mailer.students)
	}
}

func TestSubmitMailFailureDoesNotFailRegistration(t *testing.T) {
	store := newFakeRegistrationStore()
	mailer := &fakeMailer{sendErr: errors.New("ses throttled")}
	svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, mailer)

	if _, _, err := svc.Submit(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Submit must survive a mail failure, got %v", err)
	}
	if store.created == nil {
		t.Error("registration was not stored")
	}
}

func TestSubmitDuplicateEmails(t *testing.T) {
	t.Run("duplicate within the request", func(t *testing.T) {
		req := validRegistration()
		req.Students = append(req.Students, req.Students[0])
		svc := newTestRegistrationService(newFakeRegistrationStore(), activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("err = %v, want ErrEmailTaken", err)
		}
	})

	t.Run("email already registered", func(t *testing.T) {
		store := newFakeRegistrationStore()
		store.existing["minh@example.com"] = &model.Student{ID: 99, Email: "minh@example.com"}
		svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), validRegistration()); !errors.Is(err, ErrEmailTaken) {
			t.Errorf("err = %v, want ErrEmailTaken", err)
		}
	})
}

func TestSubmitFacilitatorRules(t *testing.T) {
	t.Run("home education requires a facilitator", func(t *testing.T) {
		req := validRegistration()
		req.Students[0].StudentType = string(model.StudentTypeHomeEducation)
		svc := newTestRegistrationService(newFakeRegistrationStore(), activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrFacilitatorRequired) {
			t.Errorf("err = %v, want ErrFacilitatorRequired", err)
		}
	})

	t.Run("unknown facilitator", func(t *testing.T) {
		req := validRegistration()
		id := 42
		req.FacilitatorID = &id
		svc := newTestRegistrationService(newFakeRegistrationStore(), activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrFacilitatorNotFound) {
			t.Errorf("err = %v, want ErrFacilitatorNotFound", err)
		}
	})

	t.Run("inactive facilitator", func(t *testing.T) {
		req := validRegistration()
		id := 42
		req.FacilitatorID = &id
		store := newFakeRegistrationStore()
		store.facilitators[42] = &model.Facilitator{ID: 42, Name: "R. Ames", Active: false}
		svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrFacilitatorNotFound) {
			t.Errorf("err = %v, want ErrFacilitatorNotFound", err)
		}
	})

	t.Run("active facilitator accepted", func(t *testing.T) {
		req := validRegistration()
		req.Students[0].StudentType = string(model.StudentTypeHomeEducation)
		id := 42
		req.FacilitatorID = &id
		store := newFakeRegistrationStore()
		store.facilitators[42] = &model.Facilitator{ID: 42, Name: "R. Ames", Active: true}
		svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); err != nil {
			t.Errorf("Submit: %v", err)
		}
	})
}

func TestSubmitCourseValidation(t *testing.T) {
	t.Run("unknown course", func(t *testing.T) {
		req := validRegistration()
		req.Students[0].CourseIDs = []int{1, 99}
		svc := newTestRegistrationService(newFakeRegistrationStore(), activeCourses(), &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), req); !errors.Is(err, ErrUnknownCourse) {
			t.Errorf("err = %v, want ErrUnknownCourse", err)
		}
	})

	t.Run("inactive course", func(t *testing.T) {
		courses := activeCourses()
		courses.courses[2].Active = false
		svc := newTestRegistrationService(newFakeRegistrationStore(), courses, &fakeEnqueuer{}, &fakeMailer{})

		if _, _, err := svc.Submit(context.Background(), validRegistration()); !errors.Is(err, ErrUnknownCourse) {
			t.Errorf("err = %v, want ErrUnknownCourse", err)
		}
	})
}

func TestStudentLogin(t *testing.T) {
	store := newFakeRegistrationStore()
	store.existing["minh@example.com"] = &model.Student{
		ID: 7, Email: "minh@example.com", PasswordHash: "hashed:secret1", FamilyID: uuid.New(),
	}

	t.Run("valid credentials", func(t *testing.T) {
		svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, &fakeMailer{})
		resp, err := svc.Login(context.Background(), &model.StudentLoginRequest{Email: "minh@example.com", Password: "secret1"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if resp.Token != "token-abc" || resp.Student.ID != 7 {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		svc := newTestRegistrationService(store, activeCourses(), &fakeEnqueuer{}, &fakeMailer{})
		if _, err := svc.Login(context.Background(), &model.StudentLoginRequest{Email: "who@example.com", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := NewRegistrationService(store, activeCourses(), &fakeHasher{checkErr: errors.New("mismatch")}, &fakeEnqueuer{}, &fakeMailer{}, zerolog.Nop())
		if _, err := svc.Login(context.Background(), &model.StudentLoginRequest{Email: "minh@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}
