package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/database/dbtest"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/payments"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProvider struct {
	mu            sync.Mutex
	orders        []payments.OrderRequest
	captures      int
	captureStatus string
	createErr     error
	captureErr    error
	// onCapture runs while the provider is capturing, before it answers.
	onCapture func(orderID string)
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CreateOrder(ctx context.Context, req payments.OrderRequest) (*payments.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	p.orders = append(p.orders, req)
	id := "ORDER-" + req.ReferenceID
	return &payments.Order{ID: id, Status: "CREATED", ApproveURL: "https://checkout.test/" + id}, nil
}

func (p *fakeProvider) CaptureOrder(ctx context.Context, orderID string) (*payments.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captures++
	if p.onCapture != nil {
		p.onCapture(orderID)
	}
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	status := p.captureStatus
	if status == "" {
		status = payments.OrderCompleted
	}
	return &payments.Order{ID: orderID, Status: status, CaptureID: "CAP-" + orderID}, nil
}

func (p *fakeProvider) captureCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.captures
}

type testEnv struct {
	db          *gorm.DB
	mailer      *notifications.LogMailer
	provider    *fakeProvider
	authz       *access.Authorizer
	courses     *CourseService
	enrollments *EnrollmentService
	payments    *PaymentService
	submissions *SubmissionService
	admin       *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	logger := testLogger()
	mailer := notifications.NewLogMailer(nil)
	provider := &fakeProvider{}
	entitlements := access.NewGormEntitlements(db)
	authz := access.NewAuthorizer(access.NewGormFetcher(db), entitlements, access.Policy{}, logger)

	return &testEnv{
		db:          db,
		mailer:      mailer,
		provider:    provider,
		authz:       authz,
		courses:     NewCourseService(db, authz, logger),
		enrollments: NewEnrollmentService(db, entitlements, mailer, logger),
		payments:    NewPaymentService(db, provider, mailer, logger),
		submissions: NewSubmissionService(db, authz, mailer, logger),
		admin:       NewAdminService(db, nil, logger),
	}
}

func studentCaller(u models.User) access.Caller {
	return access.Caller{ID: u.ID, Role: access.RoleStudent}
}

func instructorCaller(u models.User) access.Caller {
	return access.Caller{ID: u.ID, Role: access.RoleInstructor}
}
