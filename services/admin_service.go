package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/anjiri1684/coursehub/models"
)

type AdminService struct {
	db       *gorm.DB
	currency *CurrencyService
	logger   *slog.Logger
}

// NewAdminService accepts a nil currency service, in which case no USD total is reported.
func NewAdminService(db *gorm.DB, currency *CurrencyService, logger *slog.Logger) *AdminService {
	return &AdminService{db: db, currency: currency, logger: logger}
}

type CurrencyRevenue struct {
	Currency string  `json:"currency"`
	Total    float64 `json:"total"`
}

type Dashboard struct {
	TotalStudents      int64             `json:"total_students"`
	TotalInstructors   int64             `json:"total_instructors"`
	PublishedCourses   int64             `json:"published_courses"`
	TotalEnrollments   int64             `json:"total_enrollments"`
	PendingPayments    int64             `json:"pending_payments"`
	EnrollmentsLast30d int64             `json:"enrollments_last_30_days"`
	Revenue            []CurrencyRevenue `json:"revenue"`
	RevenueUSD         *float64          `json:"revenue_usd,omitempty"`
	RecentPayments     []models.Payment  `json:"recent_payments"`
}

func (s *AdminService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	monthAgo := time.Now().UTC().AddDate(0, 0, -30)

	g, gctx := errgroup.WithContext(ctx)
	db := s.db.WithContext(gctx)
	g.Go(func() error {
		return db.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&d.TotalStudents).Error
	})
	g.Go(func() error {
		return db.Model(&models.User{}).Where("role = ?", models.RoleInstructor).Count(&d.TotalInstructors).Error
	})
	g.Go(func() error {
		return db.Model(&models.Course{}).Where("is_published = ?", true).Count(&d.PublishedCourses).Error
	})
	g.Go(func() error {
		return db.Model(&models.Enrollment{}).Count(&d.TotalEnrollments).Error
	})
	g.Go(func() error {
		return db.Model(&models.Enrollment{}).Where("enrolled_at > ?", monthAgo).Count(&d.EnrollmentsLast30d).Error
	})
	g.Go(func() error {
		return db.Model(&models.Payment{}).Where("status = ?", models.PaymentPending).Count(&d.PendingPayments).Error
	})
	g.Go(func() error {
		return db.Model(&models.Payment{}).
			Select("currency, COALESCE(SUM(amount), 0) AS total").
			Where("status = ?", models.PaymentCompleted).
			Group("currency").
			Order("currency").
			Scan(&d.Revenue).Error
	})
	g.Go(func() error {
		return db.Where("status = ?", models.PaymentCompleted).
			Order("created_at desc").
			Limit(5).
			Find(&d.RecentPayments).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if d.Revenue == nil {
		d.Revenue = []CurrencyRevenue{}
	}

	if s.currency != nil {
		var usd float64
		converted := true
		for _, r := range d.Revenue {
			v, err := s.currency.ToUSD(ctx, r.Total, r.Currency)
			if err != nil {
				s.logger.Warn("skipping USD revenue total", "currency", r.Currency, "error", err)
				converted = false
				break
			}
			usd += v
		}
		if converted {
			d.RevenueUSD = &usd
		}
	}
	return &d, nil
}

type transactionRow struct {
	ID            uuid.UUID
	CreatedAt     time.Time
	StudentName   string
	StudentEmail  string
	CourseTitle   string
	Amount        float64
	Currency      string
	Provider      string
	Status        string
	ProviderTxnID *string
}

// TransactionReport renders completed and refunded payments created in [from, to] as CSV.
func (s *AdminService) TransactionReport(ctx context.Context, from, to time.Time) ([]byte, error) {
	if to.Before(from) {
		return nil, invalid("end date is before start date")
	}

	var rows []transactionRow
	err := s.db.WithContext(ctx).
		Table("payments").
		Select(`payments.id, payments.created_at, users.full_name AS student_name, users.email AS student_email,
			courses.title AS course_title, payments.amount, payments.currency, payments.provider, payments.status,
			payments.provider_txn_id`).
		Joins("LEFT JOIN users ON users.id = payments.student_id").
		Joins("LEFT JOIN courses ON courses.id = payments.course_id").
		Where("payments.status IN ? AND payments.created_at BETWEEN ? AND ?",
			[]string{models.PaymentCompleted, models.PaymentRefunded}, from.UTC(), to.UTC()).
		Order("payments.created_at desc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	b := new(bytes.Buffer)
	w := csv.NewWriter(b)
	header := []string{"Payment ID", "Date", "Student Name", "Student Email", "Course", "Amount", "Currency", "Provider", "Status", "Provider Transaction ID"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		txn := ""
		if r.ProviderTxnID != nil {
			txn = *r.ProviderTxnID
		}
		record := []string{
			r.ID.String(),
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			r.StudentName,
			r.StudentEmail,
			r.CourseTitle,
			fmt.Sprintf("%.2f", r.Amount),
			r.Currency,
			r.Provider,
			r.Status,
			txn,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return b.Bytes(), nil
}

// ApplyOperation runs op atomically and records it in the audit trail.
func (s *AdminService) ApplyOperation(ctx context.Context, adminID uuid.UUID, op Operation) (*models.AdminOperation, error) {
	if err := op.Validate(); err != nil {
		return nil, invalid("%s: %v", op.Kind(), err)
	}
	payload, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("encode operation: %w", err)
	}

	record := models.AdminOperation{
		AdminID: adminID,
		Kind:    op.Kind(),
		Payload: datatypes.JSON(payload),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := op.apply(tx)
		if err != nil {
			return err
		}
		record.Affected = affected
		return tx.Create(&record).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin operation applied", "admin_id", adminID, "kind", record.Kind, "affected", record.Affected)
	return &record, nil
}

func (s *AdminService) ListOperations(ctx context.Context, limit int) ([]models.AdminOperation, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	ops := []models.AdminOperation{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&ops).Error; err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	return ops, nil
}
