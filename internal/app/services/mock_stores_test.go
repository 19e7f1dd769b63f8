package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yigit/examconduct/internal/app/models"
	"github.com/yigit/examconduct/internal/app/repositories"
)

// ── Mock ExamStore ──

type mockExamStore struct {
	mu            sync.Mutex
	exams         map[int64]*models.Exam
	registrations map[[2]int64]bool
	exercises     map[int64][]models.Exercise
	getCalls      int
}

func newMockExamStore() *mockExamStore {
	return &mockExamStore{
		exams:         make(map[int64]*models.Exam),
		registrations: make(map[[2]int64]bool),
		exercises:     make(map[int64][]models.Exercise),
	}
}

func (m *mockExamStore) GetByID(_ context.Context, id int64) (*models.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if e, ok := m.exams[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, nil
}

func (m *mockExamStore) IsUserRegistered(_ context.Context, examID, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrations[[2]int64{examID, userID}], nil
}

func (m *mockExamStore) GetExercises(_ context.Context, examID int64, exerciseIDs []int64) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[int64]bool, len(exerciseIDs))
	for _, id := range exerciseIDs {
		wanted[id] = true
	}
	var result []models.Exercise
	for _, ex := range m.exercises[examID] {
		if wanted[ex.ID] {
			result = append(result, ex)
		}
	}
	return result, nil
}

// ── Mock CourseStore ──

type mockCourseStore struct {
	roles map[[2]int64]models.CourseRole
}

func newMockCourseStore() *mockCourseStore {
	return &mockCourseStore{roles: make(map[[2]int64]models.CourseRole)}
}

func (m *mockCourseStore) GetCourseRole(_ context.Context, courseID, userID int64) (models.CourseRole, error) {
	return m.roles[[2]int64{courseID, userID}], nil
}

// ── Mock StudentExamStore ──

type mockStudentExamStore struct {
	mu           sync.Mutex
	studentExams map[int64]*models.StudentExam
	nextID       int64
	getErrors    map[int64]error
	lockPending  map[int64]bool
	listErr      error
	markCalls    int
}

func newMockStudentExamStore() *mockStudentExamStore {
	return &mockStudentExamStore{
		studentExams: make(map[int64]*models.StudentExam),
		nextID:       1000,
		getErrors:    make(map[int64]error),
		lockPending:  make(map[int64]bool),
	}
}

func (m *mockStudentExamStore) add(se *models.StudentExam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.studentExams[se.ID] = se
}

func (m *mockStudentExamStore) GetByID(_ context.Context, id int64) (*models.StudentExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.getErrors[id]; ok {
		return nil, err
	}
	se, ok := m.studentExams[id]
	if !ok {
		return nil, nil
	}
	copied := *se
	copied.Exercises = append([]models.Exercise(nil), se.Exercises...)
	return &copied, nil
}

func (m *mockStudentExamStore) ListIDsByExam(_ context.Context, examID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []int64
	for id, se := range m.studentExams {
		if se.ExamID == examID && !se.TestRun {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *mockStudentExamStore) Create(_ context.Context, se *models.StudentExam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	se.ID = m.nextID
	copied := *se
	m.studentExams[se.ID] = &copied
	return nil
}

func (m *mockStudentExamStore) MarkSubmitted(_ context.Context, id int64, submissionDate time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markCalls++
	se, ok := m.studentExams[id]
	if !ok {
		return false, fmt.Errorf("student exam %d not found", id)
	}
	if se.Submitted {
		return false, nil
	}
	se.Submitted = true
	se.SubmissionDate = &submissionDate
	return true, nil
}

func (m *mockStudentExamStore) UpdateWorkingTime(_ context.Context, id int64, workingTimeSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	se, ok := m.studentExams[id]
	if !ok {
		return fmt.Errorf("student exam %d not found", id)
	}
	se.WorkingTimeSeconds = &workingTimeSeconds
	return nil
}

func (m *mockStudentExamStore) SetStartedDate(_ context.Context, id int64, startedDate time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	se, ok := m.studentExams[id]
	if !ok {
		return fmt.Errorf("student exam %d not found", id)
	}
	se.StartedDate = &startedDate
	return nil
}

func (m *mockStudentExamStore) SetRepositoryLockPending(_ context.Context, id int64, pending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockPending[id] = pending
	return nil
}

func (m *mockStudentExamStore) isLockPending(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lockPending[id]
}

// ── Mock ParticipationStore ──

type mockParticipationStore struct {
	mu                sync.Mutex
	participations    []models.StudentParticipation
	nextID            int64
	nextSubmissionID  int64
	createErrors      map[int64]error
	createPanics      map[int64]bool
	findErrors        map[int64]error
	createCalls       int
	reinitializeCalls int
}

func newMockParticipationStore() *mockParticipationStore {
	return &mockParticipationStore{
		nextID:           100,
		nextSubmissionID: 500,
		createErrors:     make(map[int64]error),
		createPanics:     make(map[int64]bool),
		findErrors:       make(map[int64]error),
	}
}

func sameScope(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyParticipation(p models.StudentParticipation) models.StudentParticipation {
	p.Submissions = append([]models.Submission(nil), p.Submissions...)
	for i := range p.Submissions {
		p.Submissions[i].Results = append([]models.Result(nil), p.Submissions[i].Results...)
	}
	return p
}

func (m *mockParticipationStore) FindByExerciseAndStudent(_ context.Context, exerciseID, studentID int64) ([]models.StudentParticipation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.findErrors[exerciseID]; ok {
		return nil, err
	}
	var result []models.StudentParticipation
	for _, p := range m.participations {
		if p.ExerciseID == exerciseID && p.StudentID == studentID {
			result = append(result, copyParticipation(p))
		}
	}
	return result, nil
}

func (m *mockParticipationStore) CreateWithInitialSubmission(_ context.Context, participation *models.StudentParticipation, initial *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createPanics[participation.ExerciseID] {
		panic("participation backend exploded")
	}
	if err, ok := m.createErrors[participation.ExerciseID]; ok {
		return err
	}
	for _, p := range m.participations {
		if p.ExerciseID == participation.ExerciseID && p.StudentID == participation.StudentID && sameScope(p.StudentExamID, participation.StudentExamID) {
			return repositories.ErrDuplicateParticipation
		}
	}

	m.nextID++
	participation.ID = m.nextID
	if initial != nil {
		m.nextSubmissionID++
		initial.ID = m.nextSubmissionID
		initial.ParticipationID = participation.ID
		participation.Submissions = []models.Submission{*initial}
	}
	m.participations = append(m.participations, copyParticipation(*participation))
	return nil
}

func (m *mockParticipationStore) Reinitialize(_ context.Context, participation *models.StudentParticipation, state models.InitializationState, initializationDate time.Time, initial *models.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reinitializeCalls++
	for i := range m.participations {
		stored := &m.participations[i]
		if stored.ID != participation.ID {
			continue
		}
		stored.InitializationState = state
		stored.InitializationDate = &initializationDate
		if initial != nil && len(stored.Submissions) == 0 {
			m.nextSubmissionID++
			initial.ID = m.nextSubmissionID
			initial.ParticipationID = stored.ID
			stored.Submissions = append(stored.Submissions, *initial)
		}
		*participation = copyParticipation(*stored)
		return nil
	}
	return fmt.Errorf("participation %d not found", participation.ID)
}

// seed stores a participation as-is and returns its id
func (m *mockParticipationStore) seed(p models.StudentParticipation) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == 0 {
		m.nextID++
		p.ID = m.nextID
	}
	m.participations = append(m.participations, copyParticipation(p))
	return p.ID
}

func (m *mockParticipationStore) countInitialized(exerciseID, studentID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.participations {
		if p.ExerciseID == exerciseID && p.StudentID == studentID && p.InitializationState == models.InitializationStateInitialized {
			n++
		}
	}
	return n
}

func (m *mockParticipationStore) submission(id int64) *models.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.participations {
		for _, s := range p.Submissions {
			if s.ID == id {
				copied := s
				return &copied
			}
		}
	}
	return nil
}

// ── Mock SubmissionStore ──

type mockSubmissionStore struct {
	participations *mockParticipationStore
	mu             sync.Mutex
	updateErrors   map[int64]error
	updates        []int64
	versions       []string
	results        map[int64]models.Result
}

func newMockSubmissionStore(participations *mockParticipationStore) *mockSubmissionStore {
	return &mockSubmissionStore{
		participations: participations,
		updateErrors:   make(map[int64]error),
		results:        make(map[int64]models.Result),
	}
}

func (m *mockSubmissionStore) store(submission *models.Submission) error {
	m.participations.mu.Lock()
	defer m.participations.mu.Unlock()
	for i := range m.participations.participations {
		p := &m.participations.participations[i]
		for j := range p.Submissions {
			if p.Submissions[j].ID == submission.ID {
				results := p.Submissions[j].Results
				p.Submissions[j] = *submission
				p.Submissions[j].Results = results
				return nil
			}
		}
	}
	return fmt.Errorf("submission %d not found", submission.ID)
}

func (m *mockSubmissionStore) UpdateContent(_ context.Context, submission *models.Submission) error {
	m.mu.Lock()
	if err, ok := m.updateErrors[submission.ID]; ok {
		m.mu.Unlock()
		return err
	}
	m.updates = append(m.updates, submission.ID)
	m.mu.Unlock()
	return m.store(submission)
}

func (m *mockSubmissionStore) CreateVersion(_ context.Context, submission *models.Submission, author string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions = append(m.versions, fmt.Sprintf("%d:%s", submission.ID, author))
	return nil
}

func (m *mockSubmissionStore) SaveWithResult(_ context.Context, submission *models.Submission, result *models.Result) error {
	m.mu.Lock()
	if result.ID == 0 {
		result.ID = submission.ID * 10
	}
	m.results[submission.ID] = *result
	m.mu.Unlock()

	withResult := *submission
	withResult.Results = []models.Result{*result}
	m.participations.mu.Lock()
	defer m.participations.mu.Unlock()
	for i := range m.participations.participations {
		p := &m.participations.participations[i]
		for j := range p.Submissions {
			if p.Submissions[j].ID == submission.ID {
				p.Submissions[j] = withResult
				return nil
			}
		}
	}
	return fmt.Errorf("submission %d not found", submission.ID)
}

// ── Mock QuizStatisticsStore ──

type mockQuizStatisticsStore struct {
	mu     sync.Mutex
	scores map[int64][]float64
}

func newMockQuizStatisticsStore() *mockQuizStatisticsStore {
	return &mockQuizStatisticsStore{scores: make(map[int64][]float64)}
}

func (m *mockQuizStatisticsStore) AddRatedResult(_ context.Context, exerciseID int64, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[exerciseID] = append(m.scores[exerciseID], score)
	return nil
}

// ── Mock StatusBroadcaster ──

type mockBroadcaster struct {
	mu        sync.Mutex
	published map[string][]models.ExamExerciseStartPreparationStatus
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{published: make(map[string][]models.ExamExerciseStartPreparationStatus)}
}

func (m *mockBroadcaster) Publish(topic string, payload any) error {
	status, ok := payload.(models.ExamExerciseStartPreparationStatus)
	if !ok {
		return fmt.Errorf("unexpected payload %T", payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append(m.published[topic], status)
	return nil
}

func (m *mockBroadcaster) snapshots(topic string) []models.ExamExerciseStartPreparationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ExamExerciseStartPreparationStatus(nil), m.published[topic]...)
}

func (m *mockBroadcaster) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.published {
		n += len(s)
	}
	return n
}

// ── Mock CommandPublisher ──

type mockCommandPublisher struct {
	mu        sync.Mutex
	failFirst int
	attempts  int
	delivered []RepositoryAccessCommand
}

func (m *mockCommandPublisher) Publish(_ context.Context, message any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failFirst < 0 || m.attempts <= m.failFirst {
		return fmt.Errorf("integration unavailable")
	}
	m.delivered = append(m.delivered, message.(RepositoryAccessCommand))
	return nil
}

func (m *mockCommandPublisher) deliveredCommands() []RepositoryAccessCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RepositoryAccessCommand(nil), m.delivered...)
}

// ── Recording repository access ──

type repositoryCall struct {
	studentExamID   int64
	exerciseID      int64
	participationID int64
}

type recordingRepositories struct {
	mu       sync.Mutex
	unlocked []repositoryCall
	locked   []repositoryCall
}

func (r *recordingRepositories) UnlockParticipation(se *models.StudentExam, ex *models.Exercise, p *models.StudentParticipation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unlocked = append(r.unlocked, repositoryCall{se.ID, ex.ID, p.ID})
}

func (r *recordingRepositories) LockParticipation(se *models.StudentExam, ex *models.Exercise, p *models.StudentParticipation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = append(r.locked, repositoryCall{se.ID, ex.ID, p.ID})
}

func (r *recordingRepositories) unlockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unlocked)
}

// ── Fixtures ──

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func intPtr(i int) *int {
	return &i
}

func strPtr(s string) *string {
	return &s
}

func examFixture(id int64, start time.Time) *models.Exam {
	return &models.Exam{
		ID:                 id,
		CourseID:           1,
		Title:              "Final Exam",
		VisibleDate:        timePtr(start.Add(-24 * time.Hour)),
		StartDate:          timePtr(start),
		EndDate:            timePtr(start.Add(2 * time.Hour)),
		GracePeriodSeconds: intPtr(300),
	}
}

func exercisesFixture() []models.Exercise {
	return []models.Exercise{
		{ID: 11, Kind: models.ExerciseKindQuiz, Title: "Quiz", QuizQuestions: []models.QuizQuestion{
			{ID: 1, Type: models.QuizQuestionMultipleChoice, Points: 2, Solution: models.QuizSolution{CorrectOptionIDs: []int64{1}}},
		}},
		{ID: 12, Kind: models.ExerciseKindText, Title: "Essay"},
		{ID: 13, Kind: models.ExerciseKindProgramming, Title: "Sorting", ProjectKey: "SORT"},
	}
}
