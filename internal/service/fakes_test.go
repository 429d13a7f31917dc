package service

import (
	"os"
	"sync"
	"testing"
	"time"

	"quizgate_backend/internal/model"
	"quizgate_backend/internal/util"
	"quizgate_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// storeData is the shared backing state of a fake store and all its
// transaction views.
type storeData struct {
	attempts   map[string]*model.QuizAttempt
	answers    map[string]*model.StudentAnswer
	violations []*model.Violation
	history    []*model.AttemptHistory
	audits     []*model.AuditLog

	// failCreates makes the next n CreateAttempt calls return ErrConflict.
	failCreates int
}

// clone deep-copies the mutable state so Transaction can restore it on
// rollback. Slice entries are append-only and never mutated in place, so a
// shallow slice copy is enough there.
func (d *storeData) clone() *storeData {
	cp := &storeData{
		attempts:    make(map[string]*model.QuizAttempt, len(d.attempts)),
		answers:     make(map[string]*model.StudentAnswer, len(d.answers)),
		violations:  append([]*model.Violation(nil), d.violations...),
		history:     append([]*model.AttemptHistory(nil), d.history...),
		audits:      append([]*model.AuditLog(nil), d.audits...),
		failCreates: d.failCreates,
	}
	for k, v := range d.attempts {
		c := *v
		cp.attempts[k] = &c
	}
	for k, v := range d.answers {
		c := *v
		cp.answers[k] = &c
	}
	return cp
}

// fakeStore implements AttemptStore in memory. Transaction holds the store
// mutex for its whole duration, which models row-lock serialization closely
// enough for the exactly-once tests.
type fakeStore struct {
	mu   *sync.Mutex
	data *storeData
	inTx bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		mu: &sync.Mutex{},
		data: &storeData{
			attempts: make(map[string]*model.QuizAttempt),
			answers:  make(map[string]*model.StudentAnswer),
		},
	}
}

func (s *fakeStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Transaction matches the real store's semantics: a non-nil error from fn
// rolls every write back.
func (s *fakeStore) Transaction(fn func(tx AttemptStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := s.data.clone()
	if err := fn(&fakeStore{mu: s.mu, data: s.data, inTx: true}); err != nil {
		// Conflict injection is harness state, not row state; it survives
		// the rollback so a retry sees the next scripted outcome.
		saved.failCreates = s.data.failCreates
		*s.data = *saved
		return err
	}
	return nil
}

func copyAttempt(a *model.QuizAttempt) *model.QuizAttempt {
	cp := *a
	return &cp
}

func (s *fakeStore) FindAttempt(id string) (*model.QuizAttempt, error) {
	defer s.lock()()
	a, ok := s.data.attempts[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	return copyAttempt(a), nil
}

func (s *fakeStore) FindAttemptForUpdate(id string) (*model.QuizAttempt, error) {
	return s.FindAttempt(id)
}

func (s *fakeStore) CreateAttempt(a *model.QuizAttempt) error {
	defer s.lock()()
	if s.data.failCreates > 0 {
		s.data.failCreates--
		return util.ErrConflict
	}
	for _, existing := range s.data.attempts {
		if existing.QuizID == a.QuizID && existing.StudentID == a.StudentID &&
			existing.AttemptNumber == a.AttemptNumber {
			return util.ErrConflict
		}
	}
	if a.ID == "" {
		a.ID = model.GenerateUUID()
	}
	s.data.attempts[a.ID] = copyAttempt(a)
	return nil
}

func (s *fakeStore) SaveAttempt(a *model.QuizAttempt) error {
	defer s.lock()()
	s.data.attempts[a.ID] = copyAttempt(a)
	return nil
}

func (s *fakeStore) MaxAttemptNumber(studentID, quizID string) (int, error) {
	defer s.lock()()
	max := 0
	for _, a := range s.data.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && a.AttemptNumber > max {
			max = a.AttemptNumber
		}
	}
	return max, nil
}

func (s *fakeStore) CountActiveAttempts(studentID, quizID string) (int64, error) {
	defer s.lock()()
	var n int64
	for _, a := range s.data.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && !a.IsReset {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) LatestResetAttempt(studentID, quizID string) (*model.QuizAttempt, error) {
	defer s.lock()()
	var latest *model.QuizAttempt
	for _, a := range s.data.attempts {
		if a.StudentID != studentID || a.QuizID != quizID || !a.IsReset || a.ResetAt == nil {
			continue
		}
		if latest == nil || a.ResetAt.After(*latest.ResetAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyAttempt(latest), nil
}

func (s *fakeStore) ListAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	defer s.lock()()
	var out []model.QuizAttempt
	for _, a := range s.data.attempts {
		if a.StudentID == studentID && a.QuizID == quizID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveAttempts(studentID, quizID string) ([]model.QuizAttempt, error) {
	defer s.lock()()
	var out []model.QuizAttempt
	for _, a := range s.data.attempts {
		if a.StudentID == studentID && a.QuizID == quizID && !a.IsReset {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAttemptsByQuiz(quizID string) ([]model.QuizAttempt, error) {
	defer s.lock()()
	var out []model.QuizAttempt
	for _, a := range s.data.attempts {
		if a.QuizID == quizID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) DistinctStudentIDs(quizID string) ([]string, error) {
	defer s.lock()()
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.data.attempts {
		if a.QuizID == quizID && !a.IsReset && !seen[a.StudentID] {
			seen[a.StudentID] = true
			out = append(out, a.StudentID)
		}
	}
	return out, nil
}

func (s *fakeStore) ListExpiredInProgress(now time.Time) ([]model.QuizAttempt, error) {
	defer s.lock()()
	var out []model.QuizAttempt
	for _, a := range s.data.attempts {
		if a.Status == model.AttemptInProgress && a.TimeExpired(now) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func answerKey(attemptID, questionID string) string {
	return attemptID + "/" + questionID
}

func (s *fakeStore) FindAnswer(attemptID, questionID string) (*model.StudentAnswer, error) {
	defer s.lock()()
	ans, ok := s.data.answers[answerKey(attemptID, questionID)]
	if !ok {
		return nil, nil
	}
	cp := *ans
	return &cp, nil
}

func (s *fakeStore) SaveAnswer(ans *model.StudentAnswer) error {
	defer s.lock()()
	if ans.ID == "" {
		ans.ID = model.GenerateUUID()
	}
	cp := *ans
	s.data.answers[answerKey(ans.AttemptID, ans.QuestionID)] = &cp
	return nil
}

func (s *fakeStore) ListAnswers(attemptID string) ([]*model.StudentAnswer, error) {
	defer s.lock()()
	var out []*model.StudentAnswer
	for _, ans := range s.data.answers {
		if ans.AttemptID == attemptID {
			cp := *ans
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateViolation(v *model.Violation) error {
	defer s.lock()()
	if v.ID == "" {
		v.ID = model.GenerateUUID()
	}
	cp := *v
	s.data.violations = append(s.data.violations, &cp)
	return nil
}

func (s *fakeStore) ListViolations(attemptID string) ([]model.Violation, error) {
	defer s.lock()()
	var out []model.Violation
	for _, v := range s.data.violations {
		if v.AttemptID == attemptID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateHistory(h *model.AttemptHistory) error {
	defer s.lock()()
	cp := *h
	s.data.history = append(s.data.history, &cp)
	return nil
}

func (s *fakeStore) ListHistory(studentID, quizID string) ([]model.AttemptHistory, error) {
	defer s.lock()()
	var out []model.AttemptHistory
	for _, h := range s.data.history {
		if h.StudentID == studentID && h.QuizID == quizID {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateAuditLog(l *model.AuditLog) error {
	defer s.lock()()
	cp := *l
	s.data.audits = append(s.data.audits, &cp)
	return nil
}

// fakeCatalog implements QuizCatalog over fixed quiz definitions.
type fakeCatalog struct {
	quizzes   map[string]*model.Quiz
	questions map[string][]model.QuizQuestion
	enrolled  map[string]bool
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		quizzes:   make(map[string]*model.Quiz),
		questions: make(map[string][]model.QuizQuestion),
		enrolled:  make(map[string]bool),
	}
}

func (c *fakeCatalog) addQuiz(quiz *model.Quiz, links []model.QuizQuestion) {
	c.quizzes[quiz.ID] = quiz
	c.questions[quiz.ID] = links
}

func (c *fakeCatalog) enroll(studentID, quizID string) {
	c.enrolled[studentID+"/"+quizID] = true
}

func (c *fakeCatalog) FindQuiz(id string) (*model.Quiz, error) {
	quiz, ok := c.quizzes[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	cp := *quiz
	return &cp, nil
}

func (c *fakeCatalog) QuizQuestions(quizID string) ([]model.QuizQuestion, error) {
	return c.questions[quizID], nil
}

func (c *fakeCatalog) IsEnrolled(studentID, quizID string) (bool, error) {
	return c.enrolled[studentID+"/"+quizID], nil
}

// fakeNotifier counts deliveries per kind.
type fakeNotifier struct {
	mu        sync.Mutex
	published int
	graded    int
	resets    int
	alerts    int
}

func (n *fakeNotifier) QuizPublished(quiz *model.Quiz, studentIDs []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published++
}

func (n *fakeNotifier) AttemptGraded(studentID, quizTitle string, score float64, totalMarks int, percentage float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.graded++
}

func (n *fakeNotifier) AttemptReset(studentID, quizTitle string, additionalAttempts int, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets++
}

func (n *fakeNotifier) ViolationAlert(teacherID string, attempt *model.QuizAttempt, violation *model.Violation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts++
}

// testEnv bundles the fakes plus real services wired the way the app wires
// them; the reset service doubles as the availability calculator.
type testEnv struct {
	store    *fakeStore
	catalog  *fakeCatalog
	notifier *fakeNotifier

	attempts   *AttemptService
	violations *ViolationService
	grading    *GradingService
	resets     *AttemptResetService
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	catalog := newFakeCatalog()
	notifier := &fakeNotifier{}

	resets := NewAttemptResetService(store, catalog, notifier)
	return &testEnv{
		store:      store,
		catalog:    catalog,
		notifier:   notifier,
		attempts:   NewAttemptService(store, catalog, resets, notifier),
		violations: NewViolationService(store, catalog, notifier, 5),
		grading:    NewGradingService(store, catalog, notifier),
		resets:     resets,
	}
}

func intPtr(n int) *int { return &n }

// seedQuiz registers a published two-question quiz (one mcq worth 4, one
// descriptive worth 6) and enrolls the student.
func (e *testEnv) seedQuiz(t *testing.T, quizID, teacherID, studentID string) *model.Quiz {
	t.Helper()

	quiz := &model.Quiz{
		UUIDBase:          model.UUIDBase{ID: quizID},
		Title:             "Algebra Basics",
		Status:            model.QuizPublished,
		CreatedBy:         teacherID,
		PassingPercentage: 40,
		MaxAttempts:       2,
		TimeLimitMinutes:  30,
	}
	links := []model.QuizQuestion{
		{
			QuizID:     quizID,
			QuestionID: "q-mcq",
			OrderIndex: 0,
			Question: &model.Question{
				UUIDBase:      model.UUIDBase{ID: "q-mcq"},
				Type:          model.QuestionMCQ,
				Marks:         4,
				CorrectAnswer: intPtr(2),
			},
		},
		{
			QuizID:     quizID,
			QuestionID: "q-desc",
			OrderIndex: 1,
			Question: &model.Question{
				UUIDBase: model.UUIDBase{ID: "q-desc"},
				Type:     model.QuestionDescriptive,
				Marks:    6,
			},
		},
	}
	e.catalog.addQuiz(quiz, links)
	e.catalog.enroll(studentID, quizID)
	return quiz
}

// seedObjectiveQuiz registers a published all-mcq quiz.
func (e *testEnv) seedObjectiveQuiz(t *testing.T, quizID, teacherID, studentID string) *model.Quiz {
	t.Helper()

	quiz := &model.Quiz{
		UUIDBase:          model.UUIDBase{ID: quizID},
		Title:             "Quick Check",
		Status:            model.QuizPublished,
		CreatedBy:         teacherID,
		PassingPercentage: 50,
		MaxAttempts:       1,
		TimeLimitMinutes:  0,
	}
	links := []model.QuizQuestion{
		{
			QuizID:     quizID,
			QuestionID: "m1",
			OrderIndex: 0,
			Question: &model.Question{
				UUIDBase:      model.UUIDBase{ID: "m1"},
				Type:          model.QuestionMCQ,
				Marks:         5,
				CorrectAnswer: intPtr(1),
			},
		},
		{
			QuizID:     quizID,
			QuestionID: "m2",
			OrderIndex: 1,
			Question: &model.Question{
				UUIDBase:      model.UUIDBase{ID: "m2"},
				Type:          model.QuestionTrueFalse,
				Marks:         5,
				CorrectAnswer: intPtr(0),
			},
		},
	}
	e.catalog.addQuiz(quiz, links)
	e.catalog.enroll(studentID, quizID)
	return quiz
}

func (e *testEnv) mustStart(t *testing.T, studentID, quizID string) *model.QuizAttempt {
	t.Helper()
	started, err := e.attempts.Start(studentID, quizID, "127.0.0.1", "test-agent")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return started.Attempt
}
