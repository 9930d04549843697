package jobs

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/anjiri1684/coursehub/database/dbtest"
	"github.com/anjiri1684/coursehub/models"
	"github.com/anjiri1684/coursehub/notifications"
	"github.com/anjiri1684/coursehub/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newScheduler(t *testing.T, opts Options) (*Scheduler, *gorm.DB, *notifications.LogMailer) {
	t.Helper()
	db := dbtest.Open(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mailer := notifications.NewLogMailer(nil)
	paymentSvc := services.NewPaymentService(db, nil, mailer, logger)
	return NewScheduler(db, paymentSvc, mailer, opts, logger), db, mailer
}

func TestRegisterSchedulesRevocationOnlyWhenEnabled(t *testing.T) {
	s, _, _ := newScheduler(t, Options{PendingPaymentTTL: time.Hour})
	require.NoError(t, s.Register())
	assert.Len(t, s.cron.Entries(), 2)

	s, _, _ = newScheduler(t, Options{PendingPaymentTTL: time.Hour, RevokeAccessOnRefund: true})
	require.NoError(t, s.Register())
	assert.Len(t, s.cron.Entries(), 3)
}

func TestJobPanicIsRecoveredAndLogged(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	s := NewScheduler(dbtest.Open(t), nil, notifications.NewLogMailer(nil), Options{}, logger)

	_, err := s.cron.AddFunc("@hourly", func() { panic("boom") })
	require.NoError(t, err)

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	assert.NotPanics(t, entries[0].WrappedJob.Run)
	assert.Contains(t, out.String(), "panic")
	assert.Contains(t, out.String(), "boom")
}

func TestExpirePendingPayments(t *testing.T) {
	s, db, _ := newScheduler(t, Options{PendingPaymentTTL: 24 * time.Hour})
	instructor := dbtest.CreateUser(t, db, models.RoleInstructor)
	student := dbtest.CreateUser(t, db, models.RoleStudent)
	course := dbtest.CreateCourse(t, db, instructor.ID, 20, true)

	other := dbtest.CreateUser(t, db, models.RoleStudent)
	stale := dbtest.CreatePayment(t, db, student.ID, course.ID, 20, models.PaymentPending)
	fresh := dbtest.CreatePayment(t, db, other.ID, course.ID, 20, models.PaymentPending)
	require.NoError(t, db.Model(&stale).UpdateColumn("created_at", time.Now().UTC().Add(-48*time.Hour)).Error)

	require.NoError(t, s.ExpirePendingPayments(context.Background()))

	var got models.Payment
	require.NoError(t, db.Take(&got, "id = ?", stale.ID).Error)
	assert.Equal(t, models.PaymentFailed, got.Status)
	require.NoError(t, db.Take(&got, "id = ?", fresh.ID).Error)
	assert.Equal(t, models.PaymentPending, got.Status)
}

func TestRevokeRefundedAccess(t *testing.T) {
	s, db, _ := newScheduler(t, Options{RevokeAccessOnRefund: true})
	instructor := dbtest.CreateUser(t, db, models.RoleInstructor)
	refunded := dbtest.CreateUser(t, db, models.RoleStudent)
	paid := dbtest.CreateUser(t, db, models.RoleStudent)
	course := dbtest.CreateCourse(t, db, instructor.ID, 20, true)

	dbtest.CreatePayment(t, db, refunded.ID, course.ID, 20, models.PaymentRefunded)
	dbtest.CreateEnrollment(t, db, refunded.ID, course.ID)
	dbtest.CreatePayment(t, db, paid.ID, course.ID, 20, models.PaymentCompleted)
	dbtest.CreateEnrollment(t, db, paid.ID, course.ID)

	require.NoError(t, s.RevokeRefundedAccess(context.Background()))

	var remaining []models.Enrollment
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, paid.ID, remaining[0].StudentID)
}

func TestSendDeadlineReminders(t *testing.T) {
	s, db, mailer := newScheduler(t, Options{})
	now := time.Now().UTC()
	s.now = func() time.Time { return now }

	instructor := dbtest.CreateUser(t, db, models.RoleInstructor)
	pending := dbtest.CreateUser(t, db, models.RoleStudent)
	done := dbtest.CreateUser(t, db, models.RoleStudent)
	course := dbtest.CreateCourse(t, db, instructor.ID, 0, true)
	dbtest.CreateEnrollment(t, db, pending.ID, course.ID)
	dbtest.CreateEnrollment(t, db, done.ID, course.ID)

	dueTomorrow := dbtest.CreateAssignment(t, db, course.ID, models.SubmissionKindLink, now.Add(23*time.Hour+30*time.Minute))
	dbtest.CreateAssignment(t, db, course.ID, models.SubmissionKindLink, now.Add(72*time.Hour))
	require.NoError(t, db.Create(&models.Submission{
		AssignmentID: dueTomorrow.ID,
		StudentID:    done.ID,
		Content:      "https://example.com/work",
		Status:       models.SubmissionSubmitted,
		SubmittedAt:  now,
	}).Error)

	require.NoError(t, s.SendDeadlineReminders(context.Background()))

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, pending.Email, sent[0].ToEmail)
	assert.Contains(t, sent[0].Subject, dueTomorrow.Title)
}

func TestSendDeadlineRemindersSkipsUnpublishedCourses(t *testing.T) {
	s, db, mailer := newScheduler(t, Options{})
	now := time.Now().UTC()
	s.now = func() time.Time { return now }

	instructor := dbtest.CreateUser(t, db, models.RoleInstructor)
	student := dbtest.CreateUser(t, db, models.RoleStudent)
	course := dbtest.CreateCourse(t, db, instructor.ID, 0, false)
	dbtest.CreateEnrollment(t, db, student.ID, course.ID)
	dbtest.CreateAssignment(t, db, course.ID, models.SubmissionKindLink, now.Add(23*time.Hour+30*time.Minute))

	require.NoError(t, s.SendDeadlineReminders(context.Background()))
	assert.Empty(t, mailer.Sent())
}
