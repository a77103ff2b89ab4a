package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deshmukhatharva11/innovation-hub-sub003/internal/models"
	appErrors "github.com/deshmukhatharva11/innovation-hub-sub003/pkg/errors"
)

type mockAssignmentRepo struct {
	assignments   map[string]*models.MentorAssignment
	activeTriples map[string]bool
	createErr     error
	activateWon   bool
	activateSet   bool
}

func (m *mockAssignmentRepo) FindByID(ctx context.Context, id string) (*models.MentorAssignment, error) {
	a, ok := m.assignments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAssignmentRepo) List(ctx context.Context, filter models.AssignmentFilter) ([]models.MentorAssignment, int, error) {
	var out []models.MentorAssignment
	for _, a := range m.assignments {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.MentorID != "" && a.MentorID != filter.MentorID {
			continue
		}
		out = append(out, *a)
	}
	return out, len(out), nil
}

func (m *mockAssignmentRepo) ExistsActive(ctx context.Context, ideaID, mentorID, studentID string) (bool, error) {
	return m.activeTriples[ideaID+"|"+mentorID+"|"+studentID], nil
}

// Create mirrors the partial unique index: a second active row for the
// same triple is silently dropped and reported as not created.
func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *models.MentorAssignment) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	if m.assignments == nil {
		m.assignments = make(map[string]*models.MentorAssignment)
	}
	triple := assignment.IdeaID + "|" + assignment.MentorID + "|" + assignment.StudentID
	if assignment.IsActive {
		for _, existing := range m.assignments {
			if existing.IsActive && existing.IdeaID+"|"+existing.MentorID+"|"+existing.StudentID == triple {
				return false, nil
			}
		}
	}
	copied := *assignment
	m.assignments[assignment.ID] = &copied
	return true, nil
}

func (m *mockAssignmentRepo) Activate(ctx context.Context, id string, startDate time.Time) (bool, error) {
	a, ok := m.assignments[id]
	if !ok || a.Status != models.AssignmentPending {
		return false, nil
	}
	if m.activateSet && !m.activateWon {
		return false, nil
	}
	a.Status = models.AssignmentActive
	a.StartDate = &startDate
	return true, nil
}

func (m *mockAssignmentRepo) Terminate(ctx context.Context, id string, reason *string) (bool, error) {
	a, ok := m.assignments[id]
	if !ok || a.Status != models.AssignmentPending {
		return false, nil
	}
	a.Status = models.AssignmentTerminated
	a.IsActive = false
	a.Reason = reason
	return true, nil
}

func (m *mockAssignmentRepo) Close(ctx context.Context, id string, status models.AssignmentStatus, rating *int, reason *string) (bool, error) {
	a, ok := m.assignments[id]
	if !ok || a.Status.Terminal() {
		return false, nil
	}
	a.Status = status
	a.IsActive = false
	a.Rating = rating
	a.Reason = reason
	return true, nil
}

type mockMentorRepo struct {
	mentors map[string]*models.Mentor
}

func (m *mockMentorRepo) FindByID(ctx context.Context, id string) (*models.Mentor, error) {
	mentor, ok := m.mentors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return mentor, nil
}

func (m *mockMentorRepo) FindByUserID(ctx context.Context, userID string) (*models.Mentor, error) {
	for _, mentor := range m.mentors {
		if mentor.UserID == userID {
			return mentor, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockMentorRepo) IncrementStudents(ctx context.Context, id string) (bool, error) {
	mentor, ok := m.mentors[id]
	if !ok {
		return false, sql.ErrNoRows
	}
	if mentor.CurrentStudents >= mentor.MaxStudents {
		return false, nil
	}
	mentor.CurrentStudents++
	return true, nil
}

func (m *mockMentorRepo) DecrementStudents(ctx context.Context, id string) error {
	mentor, ok := m.mentors[id]
	if !ok {
		return sql.ErrNoRows
	}
	if mentor.CurrentStudents > 0 {
		mentor.CurrentStudents--
	}
	return nil
}

type mockAssignmentIdeaRepo struct {
	ideas map[string]*models.Idea
}

func (m *mockAssignmentIdeaRepo) FindByID(ctx context.Context, id string) (*models.Idea, error) {
	idea, ok := m.ideas[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return idea, nil
}

type mockChatRepo struct {
	chats    []*models.MentorChat
	archived []string
}

func (m *mockChatRepo) Create(ctx context.Context, chat *models.MentorChat) error {
	m.chats = append(m.chats, chat)
	return nil
}

func (m *mockChatRepo) ArchiveByAssignment(ctx context.Context, assignmentID string) error {
	m.archived = append(m.archived, assignmentID)
	return nil
}

type assignmentFixture struct {
	svc         *AssignmentService
	assignments *mockAssignmentRepo
	mentors     *mockMentorRepo
	ideas       *mockAssignmentIdeaRepo
	chats       *mockChatRepo
	notifier    *mockNotifier
}

func newAssignmentFixture(ideaStatus models.IdeaStatus, mentorLoad, mentorMax int) *assignmentFixture {
	f := &assignmentFixture{
		assignments: &mockAssignmentRepo{assignments: map[string]*models.MentorAssignment{}, activeTriples: map[string]bool{}},
		mentors: &mockMentorRepo{mentors: map[string]*models.Mentor{
			"mentor-1": {ID: "mentor-1", UserID: "mentor-user-1", FullName: "Dr. Rao", CurrentStudents: mentorLoad, MaxStudents: mentorMax, Active: true},
		}},
		ideas: &mockAssignmentIdeaRepo{ideas: map[string]*models.Idea{
			"idea-1": {ID: "idea-1", Title: "Solar Dryer", Status: ideaStatus, StudentID: "student-1", CollegeID: "college-1"},
		}},
		chats:    &mockChatRepo{},
		notifier: &mockNotifier{},
	}
	f.svc = NewAssignmentService(f.assignments, f.mentors, f.ideas, f.chats, f.notifier, validator.New(), zap.NewNop(), nil)
	return f
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func mentorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "mentor-user-1", Role: models.RoleMentor}
}

func studentClaimsFor(userID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: models.RoleStudent}
}

func TestAssignCreatesActiveAssignment(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)

	assignment, err := f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, assignment.Status)
	assert.True(t, assignment.IsActive)
	assert.NotNil(t, assignment.StartDate)
	assert.Equal(t, 1, f.mentors.mentors["mentor-1"].CurrentStudents)
	require.Len(t, f.chats.chats, 1)
	assert.Equal(t, assignment.ID, f.chats.chats[0].AssignmentID)
	assert.Len(t, f.notifier.sent, 2)
}

func TestAssignMentorAtCapacity(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 3, 3)

	_, err := f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMentorAtCapacity.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.assignments.assignments)
	assert.Equal(t, 3, f.mentors.mentors["mentor-1"].CurrentStudents)
}

func TestAssignRejectsUnmentorableIdea(t *testing.T) {
	f := newAssignmentFixture(models.StatusSubmitted, 0, 3)

	_, err := f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.assignments.assignments)
}

func TestAssignDuplicateActive(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	f.assignments.activeTriples["idea-1|mentor-1|student-1"] = true

	_, err := f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAssigned.Code, appErrors.FromError(err).Code)
}

func TestAssignConcurrentCreateSingleWinner(t *testing.T) {
	// Both callers pass the ExistsActive fast path before either row
	// lands; the insert guard must let exactly one through and the loser
	// must release its claimed slot.
	f := newAssignmentFixture(models.StatusNurture, 0, 3)

	first, err := f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), AssignRequest{IdeaID: "idea-1", MentorID: "mentor-1", AssignmentType: "college"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAssigned.Code, appErrors.FromError(err).Code)

	active := 0
	for _, a := range f.assignments.assignments {
		if a.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
	assert.Equal(t, first.ID, f.assignments.assignments[first.ID].ID)
	assert.Equal(t, 1, f.mentors.mentors["mentor-1"].CurrentStudents)
}

func TestRequestConcurrentCreateSingleWinner(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)

	_, err := f.svc.Request(context.Background(), MentorRequestPayload{IdeaID: "idea-1", MentorID: "mentor-1"}, studentClaimsFor("student-1"))
	require.NoError(t, err)

	_, err = f.svc.Request(context.Background(), MentorRequestPayload{IdeaID: "idea-1", MentorID: "mentor-1"}, studentClaimsFor("student-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyAssigned.Code, appErrors.FromError(err).Code)
	assert.Len(t, f.assignments.assignments, 1)
}

func TestRequestCreatesPendingWithoutCounter(t *testing.T) {
	f := newAssignmentFixture(models.StatusNeedsDevelopment, 0, 3)

	assignment, err := f.svc.Request(context.Background(), MentorRequestPayload{IdeaID: "idea-1", MentorID: "mentor-1"}, studentClaimsFor("student-1"))
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPending, assignment.Status)
	assert.Nil(t, assignment.StartDate)
	assert.Equal(t, 0, f.mentors.mentors["mentor-1"].CurrentStudents)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "mentor-user-1", f.notifier.sent[0].UserID)
}

func TestRequestOnSubmittedIdeaFails(t *testing.T) {
	f := newAssignmentFixture(models.StatusSubmitted, 0, 3)

	_, err := f.svc.Request(context.Background(), MentorRequestPayload{IdeaID: "idea-1", MentorID: "mentor-1"}, studentClaimsFor("student-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.assignments.assignments)
}

func TestRequestOnlyByIdeaOwner(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)

	_, err := f.svc.Request(context.Background(), MentorRequestPayload{IdeaID: "idea-1", MentorID: "mentor-1"}, studentClaimsFor("student-2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func seedPending(f *assignmentFixture) *models.MentorAssignment {
	pending := &models.MentorAssignment{
		ID: "as-1", IdeaID: "idea-1", MentorID: "mentor-1", StudentID: "student-1",
		AssignmentType: models.AssignmentTypeIndependent, Status: models.AssignmentPending, IsActive: true,
	}
	f.assignments.assignments[pending.ID] = pending
	return pending
}

func TestRespondAcceptActivatesAndClaimsSlot(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	seedPending(f)

	assignment, err := f.svc.Respond(context.Background(), "as-1", RespondRequest{Action: "accept"}, mentorClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentActive, assignment.Status)
	assert.Equal(t, 1, f.mentors.mentors["mentor-1"].CurrentStudents)
	require.Len(t, f.chats.chats, 1)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "student-1", f.notifier.sent[0].UserID)
}

func TestRespondAcceptLosesRace(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	seedPending(f)
	f.assignments.activateSet = true
	f.assignments.activateWon = false

	_, err := f.svc.Respond(context.Background(), "as-1", RespondRequest{Action: "accept"}, mentorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, f.mentors.mentors["mentor-1"].CurrentStudents)
}

func TestRespondAcceptAtCapacityRollsBack(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 3, 3)
	seedPending(f)

	_, err := f.svc.Respond(context.Background(), "as-1", RespondRequest{Action: "accept"}, mentorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMentorAtCapacity.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.AssignmentTerminated, f.assignments.assignments["as-1"].Status)
	assert.Equal(t, 3, f.mentors.mentors["mentor-1"].CurrentStudents)
}

func TestRespondRejectTerminates(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	seedPending(f)
	reason := "workload"

	assignment, err := f.svc.Respond(context.Background(), "as-1", RespondRequest{Action: "reject", Reason: &reason}, mentorClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentTerminated, assignment.Status)
	assert.Equal(t, 0, f.mentors.mentors["mentor-1"].CurrentStudents)
	assert.Empty(t, f.chats.chats)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "student-1", f.notifier.sent[0].UserID)
}

func TestRespondForeignMentorForbidden(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	seedPending(f)
	f.mentors.mentors["mentor-2"] = &models.Mentor{ID: "mentor-2", UserID: "mentor-user-2", MaxStudents: 3, Active: true}

	_, err := f.svc.Respond(context.Background(), "as-1", RespondRequest{Action: "accept"}, &models.JWTClaims{UserID: "mentor-user-2", Role: models.RoleMentor})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusReleasesSlotAndArchivesChat(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 1, 3)
	now := time.Now().UTC()
	f.assignments.assignments["as-1"] = &models.MentorAssignment{
		ID: "as-1", IdeaID: "idea-1", MentorID: "mentor-1", StudentID: "student-1",
		Status: models.AssignmentActive, IsActive: true, StartDate: &now,
	}
	rating := 5

	assignment, err := f.svc.UpdateStatus(context.Background(), "as-1", CloseRequest{Status: "completed", Rating: &rating}, mentorClaims())
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentCompleted, assignment.Status)
	assert.False(t, assignment.IsActive)
	assert.Equal(t, 0, f.mentors.mentors["mentor-1"].CurrentStudents)
	assert.Equal(t, []string{"as-1"}, f.chats.archived)
}

func TestUpdateStatusPendingRejected(t *testing.T) {
	f := newAssignmentFixture(models.StatusNurture, 0, 3)
	seedPending(f)

	_, err := f.svc.UpdateStatus(context.Background(), "as-1", CloseRequest{Status: "terminated"}, mentorClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}
