package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
	ErrPositionOutOfRange    = errors.New("waitlist position out of range")
)

type WaitlistEntry struct {
	ID uint `gorm:"primaryKey"`

	StudentID uint `gorm:"not null;index:idx_waitlist_student_course"`
	CourseID  uint `gorm:"not null;index:idx_waitlist_student_course;index"`

	// 1-based, contiguous per course across live entries. Every removal
	// renumbers; reactivation keeps the old position.
	WaitlistPosition int    `gorm:"not null"`
	Status           string `gorm:"not null;default:active"` // "active" or "notified"

	NotificationSent      bool `gorm:"not null;default:false"`
	NotificationSentAt    *time.Time
	NotificationExpiresAt *time.Time
	PaymentLinkToken      string `gorm:"index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type WaitlistDAO struct {
	db *gorm.DB
}

func NewWaitlistDAO(db *gorm.DB) *WaitlistDAO {
	return &WaitlistDAO{
		db: db,
	}
}

func (d *WaitlistDAO) FindByID(ctx context.Context, id uint) (WaitlistEntry, error) {
	var entry WaitlistEntry

	result := d.db.WithContext(ctx).First(&entry, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return WaitlistEntry{}, ErrWaitlistEntryNotFound
		}

		return WaitlistEntry{}, result.Error
	}

	return entry, nil
}

func (d *WaitlistDAO) FindByToken(ctx context.Context, token string) (WaitlistEntry, error) {
	var entry WaitlistEntry

	result := d.db.WithContext(ctx).First(&entry, "payment_link_token = ?", token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return WaitlistEntry{}, ErrWaitlistEntryNotFound
		}

		return WaitlistEntry{}, result.Error
	}

	return entry, nil
}

func (d *WaitlistDAO) ListByCourse(ctx context.Context, courseID uint) ([]WaitlistEntry, error) {
	var entries []WaitlistEntry

	result := d.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("waitlist_position").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// JoinOrReactivate appends the student to the course waitlist. An existing
// active entry is returned unchanged; a notified entry is reactivated in
// place, keeping its position. The course lock serializes position math.
func (d *WaitlistDAO) JoinOrReactivate(ctx context.Context, studentID, courseID uint) (WaitlistEntry, error) {
	var joined WaitlistEntry

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := lockCourse(tx, courseID)
		if err != nil {
			return err
		}
		if !course.IsActive {
			return ErrCourseNotFound
		}

		var existing WaitlistEntry
		result := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&existing)
		if result.Error == nil {
			if existing.Status == "active" {
				joined = existing
				return nil
			}

			updates := map[string]interface{}{
				"status":                  "active",
				"notification_sent":       false,
				"notification_sent_at":    nil,
				"notification_expires_at": nil,
				"payment_link_token":      "",
			}
			if result := tx.Model(&WaitlistEntry{}).Where("id = ?", existing.ID).Updates(updates); result.Error != nil {
				return result.Error
			}

			return tx.First(&joined, existing.ID).Error
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		var maxPos int
		row := tx.Model(&WaitlistEntry{}).
			Select("COALESCE(MAX(waitlist_position), 0)").
			Where("course_id = ?", courseID).
			Row()
		if err := row.Scan(&maxPos); err != nil {
			return err
		}

		joined = WaitlistEntry{
			StudentID:        studentID,
			CourseID:         courseID,
			WaitlistPosition: maxPos + 1,
			Status:           "active",
		}

		return tx.Create(&joined).Error
	})
	if err != nil {
		return WaitlistEntry{}, err
	}

	return joined, nil
}

// MarkNotified stamps the notification fields and single-use token.
func (d *WaitlistDAO) MarkNotified(ctx context.Context, id uint, token string, sentAt, expiresAt time.Time) (WaitlistEntry, error) {
	updates := map[string]interface{}{
		"status":                  "notified",
		"notification_sent":       true,
		"notification_sent_at":    sentAt,
		"notification_expires_at": expiresAt,
		"payment_link_token":      token,
	}

	result := d.db.WithContext(ctx).Model(&WaitlistEntry{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return WaitlistEntry{}, result.Error
	}
	if result.RowsAffected == 0 {
		return WaitlistEntry{}, ErrWaitlistEntryNotFound
	}

	return d.FindByID(ctx, id)
}

// FindNextActive returns the lowest-position active entry for the course.
func (d *WaitlistDAO) FindNextActive(ctx context.Context, courseID uint) (WaitlistEntry, error) {
	var entry WaitlistEntry

	result := d.db.WithContext(ctx).
		Where("course_id = ? AND status = ?", courseID, "active").
		Order("waitlist_position").
		First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return WaitlistEntry{}, ErrWaitlistEntryNotFound
		}

		return WaitlistEntry{}, result.Error
	}

	return entry, nil
}

// Remove deletes the entry and closes the gap with a single shifting UPDATE,
// serialized by the course lock.
func (d *WaitlistDAO) Remove(ctx context.Context, id uint) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry WaitlistEntry
		if result := tx.First(&entry, id); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrWaitlistEntryNotFound
			}

			return result.Error
		}

		if _, err := lockCourse(tx, entry.CourseID); err != nil {
			return err
		}

		if result := tx.Delete(&WaitlistEntry{}, entry.ID); result.Error != nil {
			return result.Error
		}

		return shiftPositionsDown(tx, entry.CourseID, entry.WaitlistPosition)
	})
}

// removeWaitlistEntryForStudent drops the (student, course) entry, if any,
// inside the caller's transaction. Used when a completed registration
// supersedes the student's place in line.
func removeWaitlistEntryForStudent(tx *gorm.DB, studentID, courseID uint) error {
	var entry WaitlistEntry

	result := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&entry)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil
		}

		return result.Error
	}

	if result := tx.Delete(&WaitlistEntry{}, entry.ID); result.Error != nil {
		return result.Error
	}

	return shiftPositionsDown(tx, courseID, entry.WaitlistPosition)
}

func shiftPositionsDown(tx *gorm.DB, courseID uint, removedPosition int) error {
	return tx.Model(&WaitlistEntry{}).
		Where("course_id = ? AND waitlist_position > ?", courseID, removedPosition).
		Update("waitlist_position", gorm.Expr("waitlist_position - 1")).
		Error
}

// Reorder moves the entry to newPosition, shifting the entries in between
// by one. Shift-then-set inside one transaction, so no two entries ever
// hold the same position outside it.
func (d *WaitlistDAO) Reorder(ctx context.Context, id uint, newPosition int) (WaitlistEntry, error) {
	var moved WaitlistEntry

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry WaitlistEntry
		if result := tx.First(&entry, id); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrWaitlistEntryNotFound
			}

			return result.Error
		}

		if _, err := lockCourse(tx, entry.CourseID); err != nil {
			return err
		}

		var total int64
		if result := tx.Model(&WaitlistEntry{}).Where("course_id = ?", entry.CourseID).Count(&total); result.Error != nil {
			return result.Error
		}
		if newPosition < 1 || int64(newPosition) > total {
			return ErrPositionOutOfRange
		}
		if newPosition == entry.WaitlistPosition {
			moved = entry
			return nil
		}

		if newPosition < entry.WaitlistPosition {
			// Moving up: everything in [new, old) shifts down the list.
			err := tx.Model(&WaitlistEntry{}).
				Where("course_id = ? AND waitlist_position >= ? AND waitlist_position < ?",
					entry.CourseID, newPosition, entry.WaitlistPosition).
				Update("waitlist_position", gorm.Expr("waitlist_position + 1")).
				Error
			if err != nil {
				return err
			}
		} else {
			// Moving down: everything in (old, new] shifts up the list.
			err := tx.Model(&WaitlistEntry{}).
				Where("course_id = ? AND waitlist_position > ? AND waitlist_position <= ?",
					entry.CourseID, entry.WaitlistPosition, newPosition).
				Update("waitlist_position", gorm.Expr("waitlist_position - 1")).
				Error
			if err != nil {
				return err
			}
		}

		if result := tx.Model(&WaitlistEntry{}).Where("id = ?", entry.ID).Update("waitlist_position", newPosition); result.Error != nil {
			return result.Error
		}

		return tx.First(&moved, entry.ID).Error
	})
	if err != nil {
		return WaitlistEntry{}, err
	}

	return moved, nil
}
