package domain

import "time"

type WaitlistStatus string

const (
	WaitlistStatusActive   WaitlistStatus = "active"
	WaitlistStatusNotified WaitlistStatus = "notified"
)

// WaitlistEntry holds a student's place in line for a full course.
// Positions are 1-based and contiguous per course across live entries;
// a notified entry keeps its position until it converts or is removed.
type WaitlistEntry struct {
	ID                    uint           `json:"id"`
	StudentID             uint           `json:"student_id"`
	CourseID              uint           `json:"course_id"`
	Position              int            `json:"waitlist_position"`
	Status                WaitlistStatus `json:"status"`
	NotificationSent      bool           `json:"notification_sent"`
	NotificationSentAt    *time.Time     `json:"notification_sent_at,omitempty"`
	NotificationExpiresAt *time.Time     `json:"notification_expires_at,omitempty"`
	PaymentLinkToken      string         `json:"-"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// NotificationExpired reports whether a sent notification's registration
// window has lapsed at the given instant.
func (e WaitlistEntry) NotificationExpired(now time.Time) bool {
	return e.NotificationExpiresAt != nil && now.After(*e.NotificationExpiresAt)
}
