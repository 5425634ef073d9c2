package approval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"

	"github.com/enrolld/enrolld/internal/audit"
	"github.com/enrolld/enrolld/internal/clock"
	"github.com/enrolld/enrolld/internal/course"
	"github.com/enrolld/enrolld/internal/enrollment"
	"github.com/enrolld/enrolld/internal/notify"
	"github.com/enrolld/enrolld/internal/observability/metrics"
	"github.com/enrolld/enrolld/internal/rbac"
)

type mockRequestRepo struct {
	mock.Mock
}

func (m *mockRequestRepo) Create(ctx context.Context, r *Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRequestRepo) Get(ctx context.Context, tenantID, id string) (*Request, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Request), args.Error(1)
}

func (m *mockRequestRepo) GetPendingByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*Request, error) {
	args := m.Called(ctx, tenantID, learnerID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Request), args.Error(1)
}

func (m *mockRequestRepo) List(ctx context.Context, tenantID string, f Filter, p Page) ([]*Request, int, error) {
	args := m.Called(ctx, tenantID, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Request), args.Int(1), args.Error(2)
}

func (m *mockRequestRepo) UpdateIfPending(ctx context.Context, r *Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockRequestRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

type mockEnrollmentRepo struct {
	mock.Mock
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, e *enrollment.Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEnrollmentRepo) Get(ctx context.Context, tenantID, id string) (*enrollment.Enrollment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollment.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepo) GetByLearnerAndCourse(ctx context.Context, tenantID, learnerID, courseID string) (*enrollment.Enrollment, error) {
	args := m.Called(ctx, tenantID, learnerID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollment.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepo) List(ctx context.Context, tenantID string, f enrollment.Filter, p enrollment.Page) ([]*enrollment.Enrollment, int, error) {
	args := m.Called(ctx, tenantID, f, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*enrollment.Enrollment), args.Int(1), args.Error(2)
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, e *enrollment.Enrollment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockEnrollmentRepo) ExpireIfDue(ctx context.Context, tenantID, id string, now time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockEnrollmentRepo) ListExpired(ctx context.Context, tenantID string, now time.Time, limit int) ([]*enrollment.Enrollment, error) {
	args := m.Called(ctx, tenantID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*enrollment.Enrollment), args.Error(1)
}

func (m *mockEnrollmentRepo) SetCertificateID(ctx context.Context, tenantID, id, certificateID string) error {
	args := m.Called(ctx, tenantID, id, certificateID)
	return args.Error(0)
}

func (m *mockEnrollmentRepo) Delete(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *mockEnrollmentRepo) Stats(ctx context.Context, tenantID string) (*enrollment.Stats, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*enrollment.Stats), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ApproveAndEnroll(ctx context.Context, req *Request, e *enrollment.Enrollment) error {
	args := m.Called(ctx, req, e)
	return args.Error(0)
}

// mockDirectory answers course policy lookups from a fixed profile.
type mockDirectory struct {
	exists           bool
	published        bool
	requiresApproval bool
	hasCapacity      bool
}

func (d *mockDirectory) Exists(ctx context.Context, tenantID, courseID string) (bool, error) {
	return d.exists, nil
}

func (d *mockDirectory) IsPublished(ctx context.Context, tenantID, courseID string) (bool, error) {
	return d.published, nil
}

func (d *mockDirectory) RequiresApproval(ctx context.Context, tenantID, courseID string) (bool, error) {
	return d.requiresApproval, nil
}

func (d *mockDirectory) HasCapacity(ctx context.Context, tenantID, courseID string) (bool, error) {
	return d.hasCapacity, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, event notify.Event) {
	m.Called(ctx, event)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// countingCounter records increments in memory.
type countingCounter struct {
	embedded.Int64Counter
	n int64
}

func (c *countingCounter) Add(_ context.Context, incr int64, _ ...metric.AddOption) {
	c.n += incr
}

type countingInstruments struct {
	instruments *metrics.Instruments
	created     *countingCounter
	reviewed    *countingCounter
}

func newCountingInstruments() *countingInstruments {
	created := &countingCounter{}
	reviewed := &countingCounter{}
	return &countingInstruments{
		instruments: &metrics.Instruments{
			EnrollmentsCreated: created,
			RequestsReviewed:   reviewed,
		},
		created:  created,
		reviewed: reviewed,
	}
}

var (
	learnerActor    = rbac.Actor{ID: "lrn-1", TenantID: "ten-1", Role: rbac.RoleLearner}
	instructorActor = rbac.Actor{ID: "ins-1", TenantID: "ten-1", Role: rbac.RoleInstructor}
)

type coordinatorFixture struct {
	coordinator *Coordinator
	requests    *mockRequestRepo
	enrollments *mockEnrollmentRepo
	gateway     *mockGateway
	directory   *mockDirectory
	notifier    *mockNotifier
	auditLogger *mockAudit
	counters    *countingInstruments
}

func newFixture(t *testing.T, directory *mockDirectory) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		requests:    new(mockRequestRepo),
		enrollments: new(mockEnrollmentRepo),
		gateway:     new(mockGateway),
		directory:   directory,
		notifier:    new(mockNotifier),
		auditLogger: new(mockAudit),
		counters:    newCountingInstruments(),
	}
	f.coordinator = NewCoordinator(
		f.requests, f.enrollments, f.gateway, f.directory,
		f.notifier, f.auditLogger, f.counters.instruments, clock.NewFake(testNow),
	)
	return f
}

func openCourse() *mockDirectory {
	return &mockDirectory{exists: true, published: true, hasCapacity: true}
}

func gatedCourse() *mockDirectory {
	return &mockDirectory{exists: true, published: true, requiresApproval: true, hasCapacity: true}
}

func activeEnrollment(t *testing.T, expiresAt *time.Time) *enrollment.Enrollment {
	t.Helper()
	e, err := enrollment.New("enr-0", "ten-1", "lrn-1", "crs-1", expiresAt, testNow.Add(-24*time.Hour))
	require.NoError(t, err)
	return e
}

func TestCoordinator_Enroll(t *testing.T) {
	f := newFixture(t, openCourse())

	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.enrollments.On("Create", mock.Anything, mock.MatchedBy(func(e *enrollment.Enrollment) bool {
		return e.LearnerID == "lrn-1" && e.CourseID == "crs-1" && e.Status == enrollment.StatusActive
	})).Return(nil)
	f.auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == audit.TypeEnrollmentCreated
	})).Once()

	e, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "lrn-1", e.LearnerID)
	f.enrollments.AssertExpectations(t)
}

func TestCoordinator_Enroll_GatedCourseRefused(t *testing.T) {
	f := newFixture(t, gatedCourse())

	_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
	assert.ErrorIs(t, err, course.ErrApprovalRequired)
}

func TestCoordinator_Enroll_LearnerCannotEnrollOthers(t *testing.T) {
	f := newFixture(t, openCourse())

	_, err := f.coordinator.Enroll(context.Background(), learnerActor, "lrn-2", "crs-1", nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCoordinator_Enroll_CourseChecks(t *testing.T) {
	t.Run("unknown course", func(t *testing.T) {
		f := newFixture(t, &mockDirectory{})
		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-x", nil)
		assert.ErrorIs(t, err, course.ErrNotFound)
	})

	t.Run("unpublished course", func(t *testing.T) {
		f := newFixture(t, &mockDirectory{exists: true})
		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		assert.ErrorIs(t, err, course.ErrNotPublished)
	})

	t.Run("full course", func(t *testing.T) {
		f := newFixture(t, &mockDirectory{exists: true, published: true})
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(nil, enrollment.ErrNotFound)
		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		assert.ErrorIs(t, err, course.ErrFull)
	})
}

// TestPurpose: Validates the active-lineage duplicate check. A stored active
// enrollment whose expiry has elapsed is logically expired and must not block
// re-enrollment; a live one must.
// Scope: Unit Test
func TestCoordinator_Enroll_DuplicateLineage(t *testing.T) {
	t.Run("live enrollment blocks", func(t *testing.T) {
		f := newFixture(t, openCourse())
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(activeEnrollment(t, nil), nil)

		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		assert.ErrorIs(t, err, enrollment.ErrAlreadyEnrolled)
	})

	t.Run("lapsed enrollment admits", func(t *testing.T) {
		f := newFixture(t, openCourse())
		lapsed := testNow.Add(-time.Hour)
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(activeEnrollment(t, &lapsed), nil)
		f.enrollments.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.auditLogger.On("Log", mock.Anything, mock.Anything)

		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		require.NoError(t, err)
	})

	t.Run("cancelled enrollment admits", func(t *testing.T) {
		f := newFixture(t, openCourse())
		cancelled := activeEnrollment(t, nil)
		_, err := cancelled.Cancel("changed plans", testNow.Add(-time.Hour))
		require.NoError(t, err)
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(cancelled, nil)
		f.enrollments.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.auditLogger.On("Log", mock.Anything, mock.Anything)

		_, err = f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		require.NoError(t, err)
	})
}

func TestCoordinator_RequestEnrollment(t *testing.T) {
	f := newFixture(t, gatedCourse())

	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.requests.On("GetPendingByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, ErrRequestNotFound)
	f.requests.On("Create", mock.Anything, mock.MatchedBy(func(r *Request) bool {
		return r.Status == StatusPending && r.LearnerID == "lrn-1" && r.Message == "please"
	})).Return(nil)
	f.auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == audit.TypeRequestCreated
	})).Once()

	req, err := f.coordinator.RequestEnrollment(context.Background(), learnerActor, "crs-1", "please")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, req.Status)
	f.requests.AssertExpectations(t)
}

func TestCoordinator_RequestEnrollment_OpenCourseRefused(t *testing.T) {
	f := newFixture(t, openCourse())

	_, err := f.coordinator.RequestEnrollment(context.Background(), learnerActor, "crs-1", "")
	assert.ErrorIs(t, err, ErrApprovalNotRequired)
}

func TestCoordinator_RequestEnrollment_PendingDuplicate(t *testing.T) {
	f := newFixture(t, gatedCourse())

	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.requests.On("GetPendingByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(newPendingRequest(t), nil)

	_, err := f.coordinator.RequestEnrollment(context.Background(), learnerActor, "crs-1", "")
	assert.ErrorIs(t, err, ErrRequestAlreadyExists)
}

func TestCoordinator_Approve(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.gateway.On("ApproveAndEnroll", mock.Anything, req, mock.MatchedBy(func(e *enrollment.Enrollment) bool {
		return e.LearnerID == "lrn-1" && e.CourseID == "crs-1" && e.ExpiresAt == nil
	})).Return(nil)
	f.auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == audit.TypeRequestApproved
	})).Once()
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Type == "request_approved" && ev.LearnerID == "lrn-1"
	})).Once()

	e, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusActive, e.Status)
	assert.Equal(t, StatusApproved, req.Status)
	f.gateway.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestCoordinator_Approve_LearnerRefused(t *testing.T) {
	f := newFixture(t, gatedCourse())

	_, err := f.coordinator.Approve(context.Background(), learnerActor, "req-1")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// TestPurpose: Validates that a full course fails approval before the request
// is touched, leaving it pending for a retry once seats free up.
// Scope: Unit Test
func TestCoordinator_Approve_FullCourseLeavesRequestPending(t *testing.T) {
	directory := gatedCourse()
	directory.hasCapacity = false
	f := newFixture(t, directory)
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)

	_, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
	assert.ErrorIs(t, err, course.ErrFull)
	assert.Equal(t, StatusPending, req.Status)
	f.gateway.AssertNotCalled(t, "ApproveAndEnroll", mock.Anything, mock.Anything, mock.Anything)
}

func TestCoordinator_Approve_ConcurrentReviewLoses(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.gateway.On("ApproveAndEnroll", mock.Anything, mock.Anything, mock.Anything).
		Return(ErrAlreadyProcessed)

	_, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestCoordinator_Approve_GatewayFailure(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
	f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
		Return(nil, enrollment.ErrNotFound)
	f.gateway.On("ApproveAndEnroll", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("transaction aborted"))

	_, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
	assert.ErrorIs(t, err, ErrApprovalFailed)
}

func TestCoordinator_Reject(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
	f.requests.On("UpdateIfPending", mock.Anything, req).Return(nil)
	f.auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == audit.TypeRequestRejected
	})).Once()
	f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(ev notify.Event) bool {
		return ev.Type == "request_rejected"
	})).Once()

	got, err := f.coordinator.Reject(context.Background(), instructorActor, "req-1", "prerequisites missing")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)
	f.requests.AssertExpectations(t)
}

func TestCoordinator_Reject_ShortReason(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)

	_, err := f.coordinator.Reject(context.Background(), instructorActor, "req-1", "no")
	assert.ErrorIs(t, err, ErrRejectionReasonTooShort)
	f.requests.AssertNotCalled(t, "UpdateIfPending", mock.Anything, mock.Anything)
}

func TestCoordinator_Withdraw(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
	f.requests.On("Delete", mock.Anything, "ten-1", "req-1").Return(nil)
	f.auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(ev audit.Event) bool {
		return ev.Type == audit.TypeRequestWithdrawn
	})).Once()

	require.NoError(t, f.coordinator.Withdraw(context.Background(), learnerActor, "req-1"))
	f.requests.AssertExpectations(t)
}

func TestCoordinator_Withdraw_OwnerOnly(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)

	other := rbac.Actor{ID: "lrn-2", TenantID: "ten-1", Role: rbac.RoleLearner}
	assert.ErrorIs(t, f.coordinator.Withdraw(context.Background(), other, "req-1"), ErrUnauthorized)
}

func TestCoordinator_Withdraw_OnlyWhilePending(t *testing.T) {
	f := newFixture(t, gatedCourse())
	req := newPendingRequest(t)
	require.NoError(t, req.Approve("ins-1", testNow))

	f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)

	assert.ErrorIs(t, f.coordinator.Withdraw(context.Background(), learnerActor, "req-1"), ErrAlreadyProcessed)
}

// Every admission and every review lands on the domain counters; refused
// operations must not.
func TestCoordinator_RecordsInstruments(t *testing.T) {
	t.Run("direct enroll counts an enrollment", func(t *testing.T) {
		f := newFixture(t, openCourse())
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(nil, enrollment.ErrNotFound)
		f.enrollments.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.auditLogger.On("Log", mock.Anything, mock.Anything)

		_, err := f.coordinator.Enroll(context.Background(), learnerActor, "", "crs-1", nil)
		require.NoError(t, err)

		assert.Equal(t, int64(1), f.counters.created.n)
		assert.Zero(t, f.counters.reviewed.n)
	})

	t.Run("approve counts a review and an enrollment", func(t *testing.T) {
		f := newFixture(t, gatedCourse())
		req := newPendingRequest(t)
		f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(nil, enrollment.ErrNotFound)
		f.gateway.On("ApproveAndEnroll", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.auditLogger.On("Log", mock.Anything, mock.Anything)
		f.notifier.On("Notify", mock.Anything, mock.Anything)

		_, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
		require.NoError(t, err)

		assert.Equal(t, int64(1), f.counters.created.n)
		assert.Equal(t, int64(1), f.counters.reviewed.n)
	})

	t.Run("reject counts a review only", func(t *testing.T) {
		f := newFixture(t, gatedCourse())
		req := newPendingRequest(t)
		f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
		f.requests.On("UpdateIfPending", mock.Anything, req).Return(nil)
		f.auditLogger.On("Log", mock.Anything, mock.Anything)
		f.notifier.On("Notify", mock.Anything, mock.Anything)

		_, err := f.coordinator.Reject(context.Background(), instructorActor, "req-1", "prerequisites missing")
		require.NoError(t, err)

		assert.Zero(t, f.counters.created.n)
		assert.Equal(t, int64(1), f.counters.reviewed.n)
	})

	t.Run("lost approval race counts nothing", func(t *testing.T) {
		f := newFixture(t, gatedCourse())
		req := newPendingRequest(t)
		f.requests.On("Get", mock.Anything, "ten-1", "req-1").Return(req, nil)
		f.enrollments.On("GetByLearnerAndCourse", mock.Anything, "ten-1", "lrn-1", "crs-1").
			Return(nil, enrollment.ErrNotFound)
		f.gateway.On("ApproveAndEnroll", mock.Anything, mock.Anything, mock.Anything).
			Return(ErrAlreadyProcessed)

		_, err := f.coordinator.Approve(context.Background(), instructorActor, "req-1")
		require.ErrorIs(t, err, ErrAlreadyProcessed)

		assert.Zero(t, f.counters.created.n)
		assert.Zero(t, f.counters.reviewed.n)
	})
}

func TestCoordinator_ListRequests_LearnerFilterForced(t *testing.T) {
	f := newFixture(t, gatedCourse())

	f.requests.On("List", mock.Anything, "ten-1", Filter{LearnerID: "lrn-1"}, Page{Limit: 20}).
		Return([]*Request{}, 0, nil)

	_, _, err := f.coordinator.ListRequests(context.Background(), learnerActor, Filter{LearnerID: "lrn-9"}, Page{Limit: 20})
	require.NoError(t, err)
	f.requests.AssertExpectations(t)
}
