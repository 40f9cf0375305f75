package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rtdacademy/connect-backend/internal/model"
)

type fakeExamStore struct {
	exams     map[uuid.UUID]*model.Exam
	sessions  map[uuid.UUID]*model.ExamSession
	responses map[uuid.UUID]map[string]string
	results   map[uuid.UUID][]model.ExamQuestionResult
	completed []uuid.UUID
}

func newFakeExamStore() *fakeExamStore {
	return &fakeExamStore{
		exams:     make(map[uuid.UUID]*model.Exam),
		sessions:  make(map[uuid.UUID]*model.ExamSession),
		responses: make(map[uuid.UUID]map[string]string),
		results:   make(map[uuid.UUID][]model.ExamQuestionResult),
	}
}

func (f *fakeExamStore) GetExam(_ context.Context, examID uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[examID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return e, nil
}

func (f *fakeExamStore) CreateExam(_ context.Context, e *model.Exam) error {
	e.ID = uuid.New()
	f.exams[e.ID] = e
	return nil
}

func (f *fakeExamStore) ListExamsByCourse(_ context.Context, courseID int) ([]model.Exam, error) {
	var out []model.Exam
	for _, e := range f.exams {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeExamStore) GetInProgressSession(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	for _, s := range f.sessions {
		if s.ExamID == examID && s.StudentID == studentID && s.Status == model.SessionStatusInProgress {
			return s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeExamStore) GetSession(_ context.Context, sessionID uuid.UUID) (*model.ExamSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return s, nil
}

func (f *fakeExamStore) CreateSession(_ context.Context, s *model.ExamSession) error {
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeExamStore) SaveResponse(_ context.Context, sessionID uuid.UUID, questionCode, answer string) (int, error) {
	if f.responses[sessionID] == nil {
		f.responses[sessionID] = make(map[string]string)
	}
	f.responses[sessionID][questionCode] = answer
	return len(f.responses[sessionID]), nil
}

func (f *fakeExamStore) ListResponses(_ context.Context, sessionID uuid.UUID) (map[string]string, error) {
	out := make(map[string]string)
	for k, v := range f.responses[sessionID] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeExamStore) CompleteWithResults(_ context.Context, sessionID uuid.UUID, results []model.ExamQuestionResult, finalScore, maxScore, percentage float64) error {
	f.completed = append(f.completed, sessionID)
	f.results[sessionID] = results
	if s, ok := f.sessions[sessionID]; ok {
		s.Status = model.SessionStatusCompleted
	}
	return nil
}

func (f *fakeExamStore) ListResults(_ context.Context, sessionID uuid.UUID) ([]model.ExamQuestionResult, error) {
	return f.results[sessionID], nil
}

type fakeProvisioner struct {
	ensured   []string
	scoreFor  map[string]float64
	maxScore  float64
	failCodes map[string]bool
}

func (f *fakeProvisioner) EnsureSessionQuestion(_ context.Context, _ *model.ExamSession, code string) error {
	f.ensured = append(f.ensured, code)
	return nil
}

func (f *fakeProvisioner) EvaluateSessionQuestion(_ context.Context, session *model.ExamSession, code, answer string) (*model.ExamQuestionResult, error) {
	if f.failCodes[code] {
		return nil, errors.New("grader unavailable")
	}
	return &model.ExamQuestionResult{
		SessionID:    session.ID,
		QuestionCode: code,
		Score:        f.scoreFor[code],
		MaxScore:     f.maxScore,
	}, nil
}

func (f *fakeProvisioner) SessionQuestionMaxScore(_ context.Context, _ *model.ExamSession, _ string) (float64, error) {
	return f.maxScore, nil
}

// monitor publishes are best effort, so tests point Redis at a dead address
// and let every publish fail.
func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 10 * time.Millisecond})
}

func newTestExamService(store *fakeExamStore, questions *fakeProvisioner) *ExamSessionService {
	return NewExamSessionService(store, questions, deadRedis(), zerolog.Nop())
}

func TestAggregateResults(t *testing.T) {
	final, max, pct := aggregateResults([]model.ExamQuestionResult{
		{Score: 7, MaxScore: 10},
		{Score: 5, MaxScore: 10},
		{Score: 0, MaxScore: 10},
	})
	if final != 12 || max != 30 {
		t.Errorf("totals = %v/%v, want 12/30", final, max)
	}
	if pct != 40 {
		t.Errorf("pct = %v, want 40", pct)
	}

	if _, _, pct := aggregateResults(nil); pct != 0 {
		t.Errorf("empty results pct = %v, want 0", pct)
	}
}

func TestRemainingSeconds(t *testing.T) {
	limit := 30
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	s := &model.ExamSession{
		Status:           model.SessionStatusInProgress,
		StartedAt:        now.Add(-10 * time.Minute),
		TimeLimitMinutes: &limit,
	}
	got := remainingSeconds(s, now)
	if got == nil || *got != 1200 {
		t.Errorf("remaining = %v, want 1200", got)
	}

	s.StartedAt = now.Add(-45 * time.Minute)
	got = remainingSeconds(s, now)
	if got == nil || *got != 0 {
		t.Errorf("expired session remaining = %v, want 0", got)
	}

	s.TimeLimitMinutes = nil
	if got := remainingSeconds(s, now); got != nil {
		t.Errorf("untimed session remaining = %v, want nil", *got)
	}

	s.TimeLimitMinutes = &limit
	s.Status = model.SessionStatusCompleted
	if got := remainingSeconds(s, now); got != nil {
		t.Errorf("completed session remaining = %v, want nil", *got)
	}
}

func TestStartResumesOpenSession(t *testing.T) {
	store := newFakeExamStore()
	exam := &model.Exam{CourseID: 1, Title: "Unit 3 Exam", QuestionCodes: []string{"q1", "q2"}, Active: true}
	store.CreateExam(context.Background(), exam)
	questions := &fakeProvisioner{maxScore: 10}
	svc := newTestExamService(store, questions)

	first, err := svc.Start(context.Background(), 7, exam.ID, nil)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.Start(context.Background(), 7, exam.ID, nil)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.Session.ID != second.Session.ID {
		t.Error("restart must resume the open session, not open a second one")
	}
	if len(store.sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(store.sessions))
	}
	// Provisioning runs on every start so a crash mid-provision heals.
	if len(questions.ensured) != 4 {
		t.Errorf("ensured %d questions, want 2 per start", len(questions.ensured))
	}
}

func TestStartInactiveExam(t *testing.T) {
	store := newFakeExamStore()
	exam := &model.Exam{CourseID: 1, QuestionCodes: []string{"q1"}, Active: false}
	store.CreateExam(context.Background(), exam)
	svc := newTestExamService(store, &fakeProvisioner{})

	if _, err := svc.Start(context.Background(), 7, exam.ID, nil); !errors.Is(err, ErrExamNotAvailable) {
		t.Errorf("err = %v, want ErrExamNotAvailable", err)
	}
	if _, err := svc.Start(context.Background(), 7, uuid.New(), nil); !errors.Is(err, ErrExamNotAvailable) {
		t.Errorf("unknown exam err = %v, want ErrExamNotAvailable", err)
	}
}

func openSession(store *fakeExamStore, studentID int, codes []string) *model.ExamSession {
	s := &model.ExamSession{
		ExamID:        uuid.New(),
		CourseID:      1,
		StudentID:     studentID,
		Status:        model.SessionStatusInProgress,
		QuestionCodes: codes,
	}
	store.CreateSession(context.Background(), s)
	return s
}

func TestSaveAnswer(t *testing.T) {
	store := newFakeExamStore()
	session := openSession(store, 7, []string{"q1", "q2"})
	svc := newTestExamService(store, &fakeProvisioner{})

	got, err := svc.SaveAnswer(context.Background(), 7, session.ID, &model.SaveExamAnswerRequest{QuestionCode: "q1", Answer: "first"})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if got.QuestionsCompleted != 1 {
		t.Errorf("completed = %d, want 1", got.QuestionsCompleted)
	}

	// Overwriting the same question does not bump progress.
	got, err = svc.SaveAnswer(context.Background(), 7, session.ID, &model.SaveExamAnswerRequest{QuestionCode: "q1", Answer: "revised"})
	if err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got.QuestionsCompleted != 1 {
		t.Errorf("completed after overwrite = %d, want 1", got.QuestionsCompleted)
	}
	if store.responses[session.ID]["q1"] != "revised" {
		t.Errorf("answer = %q, want overwrite in place", store.responses[session.ID]["q1"])
	}

	if _, err := svc.SaveAnswer(context.Background(), 7, session.ID, &model.SaveExamAnswerRequest{QuestionCode: "q9", Answer: "x"}); !errors.Is(err, ErrQuestionNotInExam) {
		t.Errorf("err = %v, want ErrQuestionNotInExam", err)
	}
	if _, err := svc.SaveAnswer(context.Background(), 8, session.ID, &model.SaveExamAnswerRequest{QuestionCode: "q1", Answer: "x"}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("other student err = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmit(t *testing.T) {
	store := newFakeExamStore()
	session := openSession(store, 7, []string{"q1", "q2", "q3"})
	store.SaveResponse(context.Background(), session.ID, "q1", "answer one")
	store.SaveResponse(context.Background(), session.ID, "q2", "answer two")
	questions := &fakeProvisioner{
		maxScore: 10,
		scoreFor: map[string]float64{"q1": 10, "q2": 5},
	}
	svc := newTestExamService(store, questions)

	detail, err := svc.Submit(context.Background(), 7, session.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if detail.Session.Status != model.SessionStatusCompleted {
		t.Errorf("status = %s, want completed", detail.Session.Status)
	}
	if detail.Session.FinalScore == nil || *detail.Session.FinalScore != 15 {
		t.Errorf("final = %v, want 15", detail.Session.FinalScore)
	}
	if detail.Session.MaxScore == nil || *detail.Session.MaxScore != 30 {
		t.Errorf("max = %v, want 30", detail.Session.MaxScore)
	}
	if detail.Session.Percentage == nil || *detail.Session.Percentage != 50 {
		t.Errorf("pct = %v, want 50", detail.Session.Percentage)
	}
	if len(detail.Results) != 3 {
		t.Fatalf("results = %d, want one per exam question", len(detail.Results))
	}

	// Submitting again must be rejected.
	if _, err := svc.Submit(context.Background(), 7, session.ID); !errors.Is(err, ErrSessionCompleted) {
		t.Errorf("resubmit err = %v, want ErrSessionCompleted", err)
	}
}

func TestSubmitGradingFailureScoresZero(t *testing.T) {
	store := newFakeExamStore()
	session := openSession(store, 7, []string{"q1", "q2"})
	store.SaveResponse(context.Background(), session.ID, "q1", "answer one")
	store.SaveResponse(context.Background(), session.ID, "q2", "answer two")
	questions := &fakeProvisioner{
		maxScore:  10,
		scoreFor:  map[string]float64{"q1": 10},
		failCodes: map[string]bool{"q2": true},
	}
	svc := newTestExamService(store, questions)

	detail, err := svc.Submit(context.Background(), 7, session.ID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var failed *model.ExamQuestionResult
	for i := range detail.Results {
		if detail.Results[i].QuestionCode == "q2" {
			failed = &detail.Results[i]
		}
	}
	if failed == nil {
		t.Fatal("failed question missing from results")
	}
	if failed.Score != 0 || failed.GradedWith != model.SourceError {
		t.Errorf("failed result = %+v, want zero credit with error provenance", failed)
	}
	if failed.MaxScore != 10 {
		t.Errorf("failed max_score = %v, want the question's full point value", failed.MaxScore)
	}
	if failed.Feedback != "This question could not be graded." {
		t.Errorf("feedback = %q", failed.Feedback)
	}

	// The failed question stays in the denominator: 10 of 20, not 10 of 10.
	if detail.Session.MaxScore == nil || *detail.Session.MaxScore != 20 {
		t.Errorf("session max = %v, want 20", detail.Session.MaxScore)
	}
	if detail.Session.Percentage == nil || *detail.Session.Percentage != 50 {
		t.Errorf("percentage = %v, want 50", detail.Session.Percentage)
	}

	// One grading failure must not block finalization.
	if len(store.completed) != 1 {
		t.Error("session was not finalized")
	}
}

func TestGetSessionHidesResultsUntilCompleted(t *testing.T) {
	store := newFakeExamStore()
	session := openSession(store, 7, []string{"q1"})
	store.results[session.ID] = []model.ExamQuestionResult{{QuestionCode: "q1", Score: 5}}
	svc := newTestExamService(store, &fakeProvisioner{})

	detail, err := svc.GetSession(context.Background(), 7, session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if detail.Results != nil {
		t.Error("in-progress sessions must not expose results")
	}

	session.Status = model.SessionStatusCompleted
	detail, err = svc.GetSession(context.Background(), 7, session.ID)
	if err != nil {
		t.Fatalf("GetSession completed: %v", err)
	}
	if len(detail.Results) != 1 {
		t.Errorf("results = %d, want 1 after completion", len(detail.Results))
	}
}
