package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/anjiri1684/coursehub/notifications"
)

type reminderRow struct {
	AssignmentTitle string
	CourseTitle     string
	Deadline        time.Time
	StudentName     string
	StudentEmail    string
}

// SendDeadlineReminders emails enrolled students who have not yet submitted work for an
// assignment due in the hour that starts 23 hours from now. Running hourly, each
// assignment falls in exactly one window.
func (s *Scheduler) SendDeadlineReminders(ctx context.Context) error {
	now := s.now().UTC()
	lowerBound := now.Add(23 * time.Hour)
	upperBound := now.Add(24 * time.Hour)

	var rows []reminderRow
	err := s.db.WithContext(ctx).
		Table("assignments").
		Select(`assignments.title AS assignment_title, courses.title AS course_title, assignments.deadline,
			users.full_name AS student_name, users.email AS student_email`).
		Joins("JOIN courses ON courses.id = assignments.course_id").
		Joins("JOIN enrollments ON enrollments.course_id = assignments.course_id").
		Joins("JOIN users ON users.id = enrollments.student_id").
		Joins("LEFT JOIN submissions ON submissions.assignment_id = assignments.id AND submissions.student_id = enrollments.student_id").
		Where("courses.is_published = ? AND users.is_active = ? AND submissions.id IS NULL", true, true).
		Where("assignments.deadline > ? AND assignments.deadline <= ?", lowerBound, upperBound).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("find upcoming deadlines: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	emails := make([]notifications.Email, 0, len(rows))
	for _, r := range rows {
		emails = append(emails, notifications.Email{
			ToName:  r.StudentName,
			ToEmail: r.StudentEmail,
			Subject: "Reminder: " + r.AssignmentTitle + " is due tomorrow",
			HTML: fmt.Sprintf(
				"<h1>Assignment Reminder</h1><p>Your assignment <b>%s</b> for <b>%s</b> is due at %s UTC and you have not submitted yet.</p>",
				r.AssignmentTitle, r.CourseTitle, r.Deadline.UTC().Format("2006-01-02 15:04"),
			),
		})
	}
	s.mailer.Send(emails...)
	s.logger.Info("sent assignment deadline reminders", "count", len(emails))
	return nil
}
