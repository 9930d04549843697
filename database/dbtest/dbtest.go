// Package dbtest provides an in-memory SQLite database migrated with the application schema.
package dbtest

import (
	"fmt"
	"testing"
	"time"

	"github.com/anjiri1684/coursehub/database"
	"github.com/anjiri1684/coursehub/models"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a fresh database that lives until the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.Config())
	if err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}
	// a single connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("dbtest.Open() failed: %v", err)
	}
	return db
}

func CreateUser(t *testing.T, db *gorm.DB, role string) models.User {
	t.Helper()
	id := uuid.New()
	user := models.User{
		ID:       id,
		FullName: role + " " + id.String()[:8],
		Email:    id.String()[:8] + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	mustCreate(t, db, &user)
	return user
}

func CreateCourse(t *testing.T, db *gorm.DB, instructorID uuid.UUID, price float64, published bool) models.Course {
	t.Helper()
	course := models.Course{
		Title:        "Course " + uuid.NewString()[:8],
		Description:  "A course",
		InstructorID: instructorID,
		Price:        price,
		Currency:     "USD",
	}
	mustCreate(t, db, &course)
	// IsPublished has a column default, so set it after insert to keep false explicit
	if published {
		if err := db.Model(&course).Update("is_published", true).Error; err != nil {
			t.Fatalf("publish course: %v", err)
		}
		course.IsPublished = true
	}
	return course
}

func CreateAssignment(t *testing.T, db *gorm.DB, courseID uuid.UUID, kind string, deadline time.Time) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		CourseID:       courseID,
		Title:          "Assignment " + uuid.NewString()[:8],
		SubmissionKind: kind,
		Deadline:       deadline.UTC(),
	}
	mustCreate(t, db, &assignment)
	return assignment
}

func CreateEnrollment(t *testing.T, db *gorm.DB, studentID, courseID uuid.UUID) models.Enrollment {
	t.Helper()
	enrollment := models.Enrollment{StudentID: studentID, CourseID: courseID}
	mustCreate(t, db, &enrollment)
	return enrollment
}

func CreatePayment(t *testing.T, db *gorm.DB, studentID, courseID uuid.UUID, amount float64, status string) models.Payment {
	t.Helper()
	payment := models.Payment{
		StudentID: studentID,
		CourseID:  courseID,
		Amount:    amount,
		Currency:  "USD",
		Provider:  "paypal",
		Status:    status,
	}
	mustCreate(t, db, &payment)
	return payment
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
