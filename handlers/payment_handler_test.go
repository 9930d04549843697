package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/anjiri1684/coursehub/database/dbtest"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCaptureGrantsAccess(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 50, true)
	student := dbtest.CreateUser(t, s.db, models.RoleStudent)
	token := s.token(t, student)
	coursePath := "/api/v1/courses/" + course.ID.String()

	resp := s.do(t, http.MethodPost, coursePath+"/enroll", token, nil)
	assert.Equal(t, http.StatusPaymentRequired, resp.status)

	resp = s.do(t, http.MethodPost, coursePath+"/checkout", token, nil)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	orderID := resp.json(t)["order_id"].(string)
	require.NotEmpty(t, orderID)

	resp = s.do(t, http.MethodGet, coursePath, token, nil)
	require.Equal(t, http.StatusForbidden, resp.status)
	assert.Equal(t, "payment required", resp.json(t)["error"])

	resp = s.do(t, http.MethodPost, "/api/v1/payments/capture", token, map[string]string{"order_id": orderID})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, models.PaymentCompleted, resp.json(t)["status"])

	resp = s.do(t, http.MethodGet, coursePath, token, nil)
	assert.Equal(t, http.StatusOK, resp.status)

	resp = s.do(t, http.MethodGet, "/api/v1/enrollments/me", token, nil)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, string(resp.body), course.ID.String())
}

func TestCaptureIsScopedToTheStudent(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 50, true)
	buyer := dbtest.CreateUser(t, s.db, models.RoleStudent)
	other := dbtest.CreateUser(t, s.db, models.RoleStudent)

	resp := s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", s.token(t, buyer), nil)
	require.Equal(t, http.StatusCreated, resp.status)
	orderID := resp.json(t)["order_id"].(string)

	resp = s.do(t, http.MethodPost, "/api/v1/payments/capture", s.token(t, other), map[string]string{"order_id": orderID})
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Zero(t, s.provider.captures)
}

func TestCheckoutRequiresStudentRole(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 50, true)

	resp := s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", s.token(t, owner), nil)
	assert.Equal(t, http.StatusForbidden, resp.status)

	resp = s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.status, "missing token")
}

func TestPaymentWebhook(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 50, true)
	student := dbtest.CreateUser(t, s.db, models.RoleStudent)

	resp := s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", s.token(t, student), nil)
	require.Equal(t, http.StatusCreated, resp.status)
	orderID := resp.json(t)["order_id"].(string)

	approved := map[string]interface{}{
		"event_type": "CHECKOUT.ORDER.APPROVED",
		"resource":   map[string]string{"id": orderID},
	}

	resp = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", approved)
	assert.Equal(t, http.StatusUnauthorized, resp.status)
	resp = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", approved, "X-Webhook-Secret", "wrong")
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	ignored := map[string]interface{}{"event_type": "PAYMENT.CAPTURE.REFUNDED", "resource": map[string]string{"id": orderID}}
	resp = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", ignored, "X-Webhook-Secret", webhookSecret)
	require.Equal(t, http.StatusOK, resp.status)
	assert.Zero(t, s.provider.captures)

	for i := 0; i < 2; i++ {
		resp = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", approved, "X-Webhook-Secret", webhookSecret)
		require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	}
	assert.Equal(t, 1, s.provider.captures, "a completed payment is not captured twice")

	var enrollments int64
	require.NoError(t, s.db.Model(&models.Enrollment{}).Where("student_id = ? AND course_id = ?", student.ID, course.ID).Count(&enrollments).Error)
	assert.EqualValues(t, 1, enrollments)
}

func TestEnrollFreeCourse(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 0, true)
	student := dbtest.CreateUser(t, s.db, models.RoleStudent)
	token := s.token(t, student)
	path := "/api/v1/courses/" + course.ID.String() + "/enroll"

	resp := s.do(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	resp = s.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, resp.status)

	resp = s.do(t, http.MethodGet, "/api/v1/courses/"+course.ID.String(), token, nil)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestCaptureDuringProviderOutage(t *testing.T) {
	s := newTestServer(t)
	owner := dbtest.CreateUser(t, s.db, models.RoleInstructor)
	course := dbtest.CreateCourse(t, s.db, owner.ID, 50, true)
	student := dbtest.CreateUser(t, s.db, models.RoleStudent)
	token := s.token(t, student)

	resp := s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", token, nil)
	require.Equal(t, http.StatusCreated, resp.status)
	orderID := resp.json(t)["order_id"].(string)

	resp = s.do(t, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/checkout", token, nil)
	require.Equal(t, http.StatusCreated, resp.status)
	assert.Equal(t, orderID, resp.json(t)["order_id"], "an open checkout is resumed")

	s.provider.captureErr = fmt.Errorf("capture: %w", payments.ErrProviderUnavailable)
	resp = s.do(t, http.MethodPost, "/api/v1/payments/capture", token, map[string]string{"order_id": orderID})
	assert.Equal(t, http.StatusServiceUnavailable, resp.status)

	s.provider.captureErr = nil
	resp = s.do(t, http.MethodPost, "/api/v1/payments/capture", token, map[string]string{"order_id": orderID})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.Equal(t, models.PaymentCompleted, resp.json(t)["status"])
}
