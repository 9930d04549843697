package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	config "github.com/anjiri1684/coursehub/configs"
	"github.com/anjiri1684/coursehub/access"
	"github.com/anjiri1684/coursehub/database/dbtest"
	"github.com/anjiri1684/coursehub/handlers"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/payments"
	"github.com/anjiri1684/coursehub/routes"
	"github.com/anjiri1684/coursehub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret    = "handler-test-secret"
	webhookSecret = "hook-secret"
)

type stubProvider struct {
	mu         sync.Mutex
	captures   int
	captureErr error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) CreateOrder(_ context.Context, req payments.OrderRequest) (*payments.Order, error) {
	id := "ORDER-" + req.ReferenceID
	return &payments.Order{ID: id, Status: "CREATED", ApproveURL: "https://checkout.test/" + id}, nil
}

func (p *stubProvider) CaptureOrder(_ context.Context, orderID string) (*payments.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.captures++
	if p.captureErr != nil {
		return nil, p.captureErr
	}
	return &payments.Order{ID: orderID, Status: payments.OrderCompleted, CaptureID: "CAP-" + orderID}, nil
}

type testServer struct {
	app      *fiber.App
	db       *gorm.DB
	auth     *services.AuthService
	mailer   *notifications.LogMailer
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := notifications.NewLogMailer(nil)
	provider := &stubProvider{}

	cfg := &config.Config{JWTSecret: testSecret, WebhookSecret: webhookSecret}
	entitlements := access.NewGormEntitlements(db)
	authz := access.NewAuthorizer(access.NewGormFetcher(db), entitlements, access.Policy{}, logger)
	auth := services.NewAuthService(db, mailer, testSecret, time.Hour, logger)

	h := &handlers.Handler{
		Config:      cfg,
		Auth:        auth,
		Courses:     services.NewCourseService(db, authz, logger),
		Enrollments: services.NewEnrollmentService(db, entitlements, mailer, logger),
		Payments:    services.NewPaymentService(db, provider, mailer, logger),
		Submissions: services.NewSubmissionService(db, authz, mailer, logger),
		Admin:       services.NewAdminService(db, nil, logger),
		Logger:      logger,
	}
	app := fiber.New()
	routes.Setup(app, h, testSecret)

	return &testServer{app: app, db: db, auth: auth, mailer: mailer, provider: provider}
}

func (s *testServer) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := s.auth.IssueToken(&user)
	require.NoError(t, err)
	return token
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) json(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}
