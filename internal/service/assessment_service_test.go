package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/ai"
	"github.com/rtdacademy/connect-backend/internal/config"
	"github.com/rtdacademy/connect-backend/internal/model"
)

type fakeCourseStore struct {
	course    *model.Course
	config    *model.CourseAssessment
	fallbacks []model.FallbackQuestion
}

func (f *fakeCourseStore) GetByID(_ context.Context, id int) (*model.Course, error) {
	if f.course == nil || f.course.ID != id {
		return nil, pgx.ErrNoRows
	}
	return f.course, nil
}

func (f *fakeCourseStore) GetAssessmentConfig(_ context.Context, courseID int, code string) (*model.CourseAssessment, error) {
	if f.config == nil || f.config.CourseID != courseID || f.config.AssessmentCode != code {
		return nil, pgx.ErrNoRows
	}
	return f.config, nil
}

func (f *fakeCourseStore) ListFallbackQuestions(_ context.Context, _ int) ([]model.FallbackQuestion, error) {
	return f.fallbacks, nil
}

type fakeAssessmentStore struct {
	byKey     map[string]*model.Assessment
	secured   map[uuid.UUID]*model.SecuredAnswer
	attempts  []model.AssessmentStatus
	deleted   []uuid.UUID
	createErr error
}

func newFakeAssessmentStore() *fakeAssessmentStore {
	return &fakeAssessmentStore{
		byKey:   make(map[string]*model.Assessment),
		secured: make(map[uuid.UUID]*model.SecuredAnswer),
	}
}

func (f *fakeAssessmentStore) put(a *model.Assessment) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	f.byKey[a.AssessmentCode] = a
}

func (f *fakeAssessmentStore) GetByKey(_ context.Context, _, _ int, code string) (*model.Assessment, error) {
	a, ok := f.byKey[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAssessmentStore) GetBySessionAndCode(_ context.Context, sessionID uuid.UUID, code string) (*model.Assessment, error) {
	a, ok := f.byKey[code]
	if !ok || a.ExamSessionID == nil || *a.ExamSessionID != sessionID {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAssessmentStore) Create(_ context.Context, a *model.Assessment, secured *model.SecuredAnswer) error {
	if f.createErr != nil {
		return f.createErr
	}
	a.ID = uuid.New()
	f.byKey[a.AssessmentCode] = a
	if secured != nil {
		secured.AssessmentID = a.ID
		f.secured[a.ID] = secured
	}
	return nil
}

func (f *fakeAssessmentStore) RecordAttempt(_ context.Context, id uuid.UUID, attempts int, status model.AssessmentStatus) error {
	f.attempts = append(f.attempts, status)
	for _, a := range f.byKey {
		if a.ID == id {
			a.Attempts = attempts
			a.Status = status
		}
	}
	return nil
}

func (f *fakeAssessmentStore) UpdateQuestion(_ context.Context, a *model.Assessment, secured *model.SecuredAnswer) error {
	f.byKey[a.AssessmentCode] = a
	if secured != nil {
		f.secured[a.ID] = secured
	}
	return nil
}

func (f *fakeAssessmentStore) GetSecuredAnswer(_ context.Context, assessmentID uuid.UUID) (*model.SecuredAnswer, error) {
	s, ok := f.secured[assessmentID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeAssessmentStore) DeleteSecuredAnswer(_ context.Context, assessmentID uuid.UUID) error {
	f.deleted = append(f.deleted, assessmentID)
	delete(f.secured, assessmentID)
	return nil
}

type fakeGradeStore struct {
	best    map[string]float64
	commits int
}

func newFakeGradeStore() *fakeGradeStore {
	return &fakeGradeStore{best: make(map[string]float64)}
}

func (f *fakeGradeStore) CommitBestScore(_ context.Context, g *model.Grade) (bool, float64, error) {
	f.commits++
	cur, ok := f.best[g.AssessmentCode]
	if !ok || g.Score > cur {
		f.best[g.AssessmentCode] = g.Score
		return true, g.Score, nil
	}
	return false, cur, nil
}

func (f *fakeGradeStore) ListByStudentCourse(_ context.Context, _, _ int) ([]model.Grade, error) {
	return nil, nil
}

type fakeResolver struct {
	student *model.Student
}

func (f *fakeResolver) GetStudentByEmail(_ context.Context, email string) (*model.Student, error) {
	if f.student == nil || f.student.Email != email {
		return nil, pgx.ErrNoRows
	}
	return f.student, nil
}

type fakeGrader struct {
	genResult  *ai.GeneratedQuestion
	genErr     error
	evalResult *ai.EvalVerdict
	evalErr    error
	evalCalls  int
}

func (f *fakeGrader) GenerateQuestion(_ context.Context, _ ai.GenerationSpec) (*ai.GeneratedQuestion, error) {
	if f.genErr != nil {
		return nil, f.genErr
	}
	return f.genResult, nil
}

func (f *fakeGrader) EvaluateAnswer(_ context.Context, _ ai.EvaluationSpec) (*ai.EvalVerdict, error) {
	f.evalCalls++
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	return f.evalResult, nil
}

type fakeQueue struct {
	pushes []string
}

func (f *fakeQueue) Push(_ context.Context, queue string, _ any) error {
	f.pushes = append(f.pushes, queue)
	return nil
}

func newTestAssessmentService(courses *fakeCourseStore, store *fakeAssessmentStore, grades *fakeGradeStore, grader *fakeGrader) *AssessmentService {
	cfg := &config.Config{DefaultMaxAttempts: 3}
	return NewAssessmentService(cfg, courses, store, grades, &fakeResolver{}, grader, &fakeQueue{}, nil, zerolog.Nop())
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"two words", 2},
		{"  padded   with   gaps  ", 3},
		{"line\nbreaks\tand tabs", 4},
	}
	for _, tt := range tests {
		if got := CountWords(tt.in); got != tt.want {
			t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestVerdictFromEval(t *testing.T) {
	tests := []struct {
		name        string
		raw         ai.EvalVerdict
		maxScore    float64
		wantScore   float64
		wantPct     int
		wantCorrect bool
	}{
		{"clamps negative to zero", ai.EvalVerdict{Score: -3}, 10, 0, 0, false},
		{"clamps above max", ai.EvalVerdict{Score: 14, IsCorrect: true}, 10, 10, 100, true},
		{"partial credit", ai.EvalVerdict{Score: 7.5}, 10, 7.5, 75, false},
		{"correct flag needs full score", ai.EvalVerdict{Score: 8, IsCorrect: true}, 10, 8, 80, false},
		{"zero max score", ai.EvalVerdict{Score: 5}, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := verdictFromEval(&tt.raw, tt.maxScore)
			if v.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", v.Score, tt.wantScore)
			}
			if v.Percentage != tt.wantPct {
				t.Errorf("percentage = %d, want %d", v.Percentage, tt.wantPct)
			}
			if v.IsCorrect != tt.wantCorrect {
				t.Errorf("is_correct = %v, want %v", v.IsCorrect, tt.wantCorrect)
			}
			if v.GradedWith != model.SourceAI {
				t.Errorf("graded_with = %s, want %s", v.GradedWith, model.SourceAI)
			}
		})
	}
}

func TestFallbackVerdict(t *testing.T) {
	v := fallbackVerdict(true, 9)
	if v.Score != 4 {
		t.Errorf("score = %v, want 4 (floor of half)", v.Score)
	}
	if v.IsCorrect {
		t.Error("fallback verdict must never be correct")
	}
	if v.GradedWith != model.SourceFallback {
		t.Errorf("graded_with = %s, want %s", v.GradedWith, model.SourceFallback)
	}

	v = fallbackVerdict(false, 9)
	if v.Score != 0 {
		t.Errorf("score = %v, want 0 for short answer", v.Score)
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name      string
		isCorrect bool
		attempts  int
		max       int
		want      model.AssessmentStatus
	}{
		{"correct completes", true, 1, 3, model.AssessmentStatusCompleted},
		{"correct on last attempt", true, 3, 3, model.AssessmentStatusCompleted},
		{"wrong with budget left", false, 1, 3, model.AssessmentStatusAttempted},
		{"wrong on last attempt fails", false, 3, 3, model.AssessmentStatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextStatus(tt.isCorrect, tt.attempts, tt.max); got != tt.want {
				t.Errorf("nextStatus = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPickFallback(t *testing.T) {
	pool := []model.FallbackQuestion{
		{ID: 1, Difficulty: model.DifficultyBeginner},
		{ID: 2, Difficulty: model.DifficultyIntermediate},
		{ID: 3, Difficulty: model.DifficultyAdvanced},
	}

	fb, ok := pickFallback(pool, model.DifficultyAdvanced)
	if !ok || fb.ID != 3 {
		t.Errorf("expected exact difficulty match (ID 3), got %+v", fb)
	}

	// No beginner repeat in the pool: intermediate stands in.
	fb, ok = pickFallback(pool[1:], model.DifficultyBeginner)
	if !ok || fb.ID != 2 {
		t.Errorf("expected intermediate stand-in (ID 2), got %+v", fb)
	}

	// A pool with neither a match nor an intermediate question is unusable.
	if _, ok := pickFallback(pool[2:], model.DifficultyBeginner); ok {
		t.Error("advanced-only pool must report no fallback")
	}

	if _, ok := pickFallback(nil, model.DifficultyBeginner); ok {
		t.Error("empty pool must report no fallback")
	}
}

func TestGenerateFallbackLadder(t *testing.T) {
	courses := &fakeCourseStore{
		course: &model.Course{ID: 1, Title: "Biology 20", Active: true},
		config: &model.CourseAssessment{
			CourseID: 1, AssessmentCode: "lesson1", Topic: "cells",
			Difficulty: model.DifficultyBeginner,
			MinWords:   50, MaxWords: 200, MaxScore: 10,
		},
	}
	store := newFakeAssessmentStore()
	grades := newFakeGradeStore()

	t.Run("model output wins when available", func(t *testing.T) {
		grader := &fakeGrader{genResult: &ai.GeneratedQuestion{
			QuestionText:   "Explain osmosis.",
			ExpectedAnswer: "Water moves across a membrane.",
		}}
		svc := newTestAssessmentService(courses, newFakeAssessmentStore(), grades, grader)

		a, err := svc.Generate(context.Background(), 7, 1, "lesson1")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if a.Source != model.SourceAI {
			t.Errorf("source = %s, want %s", a.Source, model.SourceAI)
		}
		if a.QuestionText != "Explain osmosis." {
			t.Errorf("question = %q", a.QuestionText)
		}
		if a.MinWords != 50 || a.MaxWords != 200 {
			t.Errorf("word bounds %d..%d must come from course config", a.MinWords, a.MaxWords)
		}
		if a.MaxAttempts != 3 {
			t.Errorf("max attempts = %d, want config default 3", a.MaxAttempts)
		}
	})

	t.Run("disabled model uses authored pool", func(t *testing.T) {
		courses.fallbacks = []model.FallbackQuestion{
			{ID: 5, CourseID: 1, Difficulty: model.DifficultyBeginner, QuestionText: "Name the cell organelles."},
		}
		grader := &fakeGrader{genErr: ai.ErrDisabled}
		svc := newTestAssessmentService(courses, newFakeAssessmentStore(), grades, grader)

		a, err := svc.Generate(context.Background(), 7, 1, "lesson1")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if a.Source != model.SourceFallback {
			t.Errorf("source = %s, want %s", a.Source, model.SourceFallback)
		}
	})

	t.Run("empty pool lands on placeholder", func(t *testing.T) {
		courses.fallbacks = nil
		grader := &fakeGrader{genErr: errors.New("upstream 500")}
		svc := newTestAssessmentService(courses, newFakeAssessmentStore(), grades, grader)

		a, err := svc.Generate(context.Background(), 7, 1, "lesson1")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if a.Source != model.SourcePlaceholder {
			t.Errorf("source = %s, want %s", a.Source, model.SourcePlaceholder)
		}
		if a.QuestionText == "" {
			t.Error("placeholder question must not be empty")
		}
	})

	t.Run("regeneration keeps the attempt counter", func(t *testing.T) {
		grader := &fakeGrader{genResult: &ai.GeneratedQuestion{QuestionText: "New question."}}
		store := newFakeAssessmentStore()
		store.put(&model.Assessment{
			StudentID: 7, CourseID: 1, AssessmentCode: "lesson1",
			Attempts: 2, MaxAttempts: 3, Status: model.AssessmentStatusAttempted,
		})
		svc := newTestAssessmentService(courses, store, grades, grader)

		a, err := svc.Generate(context.Background(), 7, 1, "lesson1")
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if a.Attempts != 2 {
			t.Errorf("attempts = %d, regeneration must not reset the counter", a.Attempts)
		}
		if a.QuestionText != "New question." {
			t.Errorf("question = %q, want replacement", a.QuestionText)
		}
	})

	t.Run("terminal assessment refuses regeneration", func(t *testing.T) {
		store := newFakeAssessmentStore()
		store.put(&model.Assessment{
			StudentID: 7, CourseID: 1, AssessmentCode: "lesson1",
			Status: model.AssessmentStatusCompleted,
		})
		svc := newTestAssessmentService(courses, store, grades, &fakeGrader{genErr: ai.ErrDisabled})

		if _, err := svc.Generate(context.Background(), 7, 1, "lesson1"); !errors.Is(err, ErrAssessmentTerminal) {
			t.Errorf("err = %v, want ErrAssessmentTerminal", err)
		}
	})

	t.Run("unknown course", func(t *testing.T) {
		svc := newTestAssessmentService(courses, store, grades, &fakeGrader{genErr: ai.ErrDisabled})
		if _, err := svc.Generate(context.Background(), 7, 99, "lesson1"); !errors.Is(err, ErrCourseNotFound) {
			t.Errorf("err = %v, want ErrCourseNotFound", err)
		}
	})
}

func TestGenerateAppliesUpdatedConfig(t *testing.T) {
	courses := &fakeCourseStore{
		course: &model.Course{ID: 1, Title: "Biology 20", Active: true},
		config: &model.CourseAssessment{
			CourseID: 1, AssessmentCode: "lesson1", Topic: "cells",
			Difficulty: model.DifficultyBeginner,
			MinWords:   3, MaxWords: 200, MaxScore: 20, MaxAttempts: 5,
		},
	}
	store := newFakeAssessmentStore()
	store.put(&model.Assessment{
		StudentID: 7, CourseID: 1, AssessmentCode: "lesson1",
		MinWords: 3, MaxWords: 200, MaxScore: 10,
		Attempts: 1, MaxAttempts: 3, Status: model.AssessmentStatusAttempted,
	})
	grader := &fakeGrader{
		genResult:  &ai.GeneratedQuestion{QuestionText: "Replacement question."},
		evalResult: &ai.EvalVerdict{Score: 15},
	}
	svc := newTestAssessmentService(courses, store, newFakeGradeStore(), grader)

	a, err := svc.Generate(context.Background(), 7, 1, "lesson1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a.MaxScore != 20 || a.MaxAttempts != 5 {
		t.Errorf("bounds = %v/%d, want the reconfigured 20/5", a.MaxScore, a.MaxAttempts)
	}
	stored := store.byKey["lesson1"]
	if stored.MaxScore != 20 || stored.MaxAttempts != 5 {
		t.Errorf("stored bounds = %v/%d, regeneration must persist the new config", stored.MaxScore, stored.MaxAttempts)
	}

	// Evaluation now clamps against the stored row, so a 15 stands.
	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "an answer of sufficient length")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Verdict.Score != 15 || out.Verdict.Percentage != 75 {
		t.Errorf("verdict = %v/%d%%, want 15 of 20", out.Verdict.Score, out.Verdict.Percentage)
	}
}

func activeAssessment() *model.Assessment {
	return &model.Assessment{
		StudentID: 7, CourseID: 1, AssessmentCode: "lesson1",
		QuestionText: "Explain osmosis.",
		MinWords:     3, MaxWords: 100, MaxScore: 10,
		Attempts: 0, MaxAttempts: 2,
		Status: model.AssessmentStatusActive,
	}
}

func TestEvaluateWordGate(t *testing.T) {
	store := newFakeAssessmentStore()
	store.put(activeAssessment())
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 10, IsCorrect: true}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, newFakeGradeStore(), grader)

	_, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "too short")
	var wordErr *WordCountError
	if !errors.As(err, &wordErr) {
		t.Fatalf("err = %v, want WordCountError", err)
	}
	if wordErr.Words != 2 || wordErr.Min != 3 {
		t.Errorf("WordCountError = %+v", wordErr)
	}
	if grader.evalCalls != 0 {
		t.Error("word gate must run before any model call")
	}
	if got := store.byKey["lesson1"].Attempts; got != 0 {
		t.Errorf("attempts = %d, word gate must not consume an attempt", got)
	}
}

func TestEvaluateCorrectAnswer(t *testing.T) {
	store := newFakeAssessmentStore()
	a := activeAssessment()
	store.put(a)
	store.secured[a.ID] = &model.SecuredAnswer{AssessmentID: a.ID, ExpectedAnswer: "water moves"}
	grades := newFakeGradeStore()
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 10, IsCorrect: true, Feedback: "Correct."}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, grader)

	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "water moves across the membrane")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Status != model.AssessmentStatusCompleted {
		t.Errorf("status = %s, want completed", out.Status)
	}
	if !out.GradeUpdated || out.BestScore != 10 {
		t.Errorf("grade update = %v best = %v", out.GradeUpdated, out.BestScore)
	}
	if out.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", out.Attempts)
	}
	if len(store.deleted) != 1 {
		t.Error("secured answer must be deleted at terminal status")
	}
}

func TestEvaluateFallbackVerdictFlow(t *testing.T) {
	store := newFakeAssessmentStore()
	a := activeAssessment()
	store.put(a)
	grades := newFakeGradeStore()
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, &fakeGrader{evalErr: ai.ErrDisabled})

	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "a perfectly reasonable answer")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Verdict.Score != 5 {
		t.Errorf("score = %v, want half credit", out.Verdict.Score)
	}
	if out.Verdict.GradedWith != model.SourceFallback {
		t.Errorf("graded_with = %s", out.Verdict.GradedWith)
	}
	if out.Status != model.AssessmentStatusAttempted {
		t.Errorf("status = %s, fallback must leave the attempt budget open", out.Status)
	}
}

func TestEvaluateAttemptExhaustion(t *testing.T) {
	store := newFakeAssessmentStore()
	a := activeAssessment()
	a.Attempts = 1 // one left
	store.put(a)
	grades := newFakeGradeStore()
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 4}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, grader)

	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "still not quite right here")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.Status != model.AssessmentStatusFailed {
		t.Errorf("status = %s, want failed on last wrong attempt", out.Status)
	}

	if _, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "one more try please now"); !errors.Is(err, ErrAssessmentTerminal) {
		t.Errorf("err = %v, want ErrAssessmentTerminal after failure", err)
	}
}

func TestEvaluateZeroFirstAttemptIsAGrade(t *testing.T) {
	store := newFakeAssessmentStore()
	a := activeAssessment()
	a.MaxAttempts = 5
	store.put(a)
	grades := newFakeGradeStore()
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 0}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, grader)

	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "a completely wrong answer here")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !out.GradeUpdated || out.BestScore != 0 {
		t.Errorf("a zero first attempt must still commit a grade, got updated=%v best=%v", out.GradeUpdated, out.BestScore)
	}

	grader.evalResult = &ai.EvalVerdict{Score: 6}
	out, err = svc.Evaluate(context.Background(), 7, 1, "lesson1", "a noticeably better answer here")
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if !out.GradeUpdated || out.BestScore != 6 {
		t.Errorf("improvement must replace the zero, got updated=%v best=%v", out.GradeUpdated, out.BestScore)
	}
}

func TestEvaluateBestScoreWins(t *testing.T) {
	store := newFakeAssessmentStore()
	a := activeAssessment()
	a.MaxAttempts = 5
	store.put(a)
	grades := newFakeGradeStore()
	grades.best["lesson1"] = 8
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 6}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, grader)

	out, err := svc.Evaluate(context.Background(), 7, 1, "lesson1", "a lower scoring answer here")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.GradeUpdated {
		t.Error("a lower score must not replace the stored best")
	}
	if out.BestScore != 8 {
		t.Errorf("best = %v, want prior best 8", out.BestScore)
	}
}

func TestEvaluateSessionQuestionEmptyAnswer(t *testing.T) {
	sessionID := uuid.New()
	store := newFakeAssessmentStore()
	a := activeAssessment()
	a.ExamSessionID = &sessionID
	a.MaxAttempts = 1
	store.put(a)
	grades := newFakeGradeStore()
	grader := &fakeGrader{evalResult: &ai.EvalVerdict{Score: 10}}
	svc := newTestAssessmentService(&fakeCourseStore{}, store, grades, grader)

	session := &model.ExamSession{ID: sessionID, StudentID: 7, CourseID: 1}
	res, err := svc.EvaluateSessionQuestion(context.Background(), session, "lesson1", "   ")
	if err != nil {
		t.Fatalf("EvaluateSessionQuestion: %v", err)
	}
	if res.Score != 0 {
		t.Errorf("score = %v, want 0 for blank answer", res.Score)
	}
	if grader.evalCalls != 0 {
		t.Error("blank answers must not reach the model")
	}
	if len(store.deleted) != 1 {
		t.Error("secured answer must be deleted after session grading")
	}
}

func TestEnsureSessionQuestionIdempotent(t *testing.T) {
	sessionID := uuid.New()
	courses := &fakeCourseStore{
		course: &model.Course{ID: 1, Title: "Biology 20"},
		config: &model.CourseAssessment{CourseID: 1, AssessmentCode: "q1", MaxScore: 10},
	}
	store := newFakeAssessmentStore()
	grader := &fakeGrader{genResult: &ai.GeneratedQuestion{QuestionText: "Q?"}}
	svc := newTestAssessmentService(courses, store, newFakeGradeStore(), grader)

	session := &model.ExamSession{ID: sessionID, StudentID: 7, CourseID: 1}
	if err := svc.EnsureSessionQuestion(context.Background(), session, "q1"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	first := store.byKey["q1"].ID

	if err := svc.EnsureSessionQuestion(context.Background(), session, "q1"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if store.byKey["q1"].ID != first {
		t.Error("ensure must not replace an existing session question")
	}
	if store.byKey["q1"].MaxAttempts != 1 {
		t.Errorf("session questions get exactly one attempt, got %d", store.byKey["q1"].MaxAttempts)
	}
}
