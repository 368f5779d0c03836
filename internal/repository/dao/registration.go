package dao

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRegistrationNotFound    = errors.New("registration not found")
	ErrCourseFull              = errors.New("course is full")
	ErrDuplicateRegistration   = errors.New("student already has a completed registration for this course")
	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
	ErrCourseInactive          = errors.New("course is not open for registration")
)

// CourseFullError identifies which course was full. It matches
// errors.Is(err, ErrCourseFull) so callers can branch on the sentinel and
// still recover the course via errors.As.
type CourseFullError struct {
	CourseID uint
}

func (e *CourseFullError) Error() string {
	return fmt.Sprintf("course %v is full", e.CourseID)
}

func (e *CourseFullError) Is(target error) bool {
	return target == ErrCourseFull
}

type Registration struct {
	ID uint `gorm:"primaryKey"`

	StudentID uint `gorm:"not null;index:idx_registrations_student_course"`
	CourseID  uint `gorm:"not null;index:idx_registrations_student_course"`

	PaymentAmountCents int64  `gorm:"not null"`
	PaymentStatus      string `gorm:"not null;default:pending;index"` // "pending", "completed", "failed", or "canceled"
	PaymentMethod      string
	PaymentNote        string
	RegistrationType   string `gorm:"not null"`

	CreatedFromWaitlist bool `gorm:"not null;default:false"`

	CanceledAt         *time.Time
	CanceledBy         string
	CancellationReason string

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type RegistrationDAO struct {
	db *gorm.DB
}

func NewRegistrationDAO(db *gorm.DB) *RegistrationDAO {
	return &RegistrationDAO{
		db: db,
	}
}

// lockCourse takes the per-course write lock that serializes every
// capacity-affecting operation. All admission math happens under it.
func lockCourse(tx *gorm.DB, courseID uint) (Course, error) {
	var course Course

	result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&course, courseID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Course{}, ErrCourseNotFound
		}

		return Course{}, result.Error
	}

	return course, nil
}

func countCompleted(tx *gorm.DB, courseID uint) (int64, error) {
	var count int64

	result := tx.Model(&Registration{}).
		Where("course_id = ? AND payment_status = ?", courseID, "completed").
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

func (d *RegistrationDAO) FindByID(ctx context.Context, id uint) (Registration, error) {
	var reg Registration

	result := d.db.WithContext(ctx).First(&reg, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Registration{}, ErrRegistrationNotFound
		}

		return Registration{}, result.Error
	}

	return reg, nil
}

func (d *RegistrationDAO) FindByStudent(ctx context.Context, studentID uint) ([]Registration, error) {
	var regs []Registration

	result := d.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("id").
		Find(&regs)
	if result.Error != nil {
		return nil, result.Error
	}

	return regs, nil
}

// CheckCapacity reads the course capacity and completed-registration count
// without taking locks. Use it for display; admission decisions are made
// again under the course lock.
func (d *RegistrationDAO) CheckCapacity(ctx context.Context, courseID uint) (capacity int, completed int64, err error) {
	db := d.db.WithContext(ctx)

	var course Course
	if result := db.First(&course, courseID); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, 0, ErrCourseNotFound
		}

		return 0, 0, result.Error
	}

	capacity, err = courseCapacity(db, courseID)
	if err != nil {
		return 0, 0, err
	}

	completed, err = countCompleted(db, courseID)
	if err != nil {
		return 0, 0, err
	}

	return capacity, completed, nil
}

// InsertPending admits a registration through the capacity gate and writes
// the pending row, all in one transaction. Re-requests return the existing
// pending row (deduped=true) instead of inserting a duplicate; an existing
// completed row is a hard rejection.
func (d *RegistrationDAO) InsertPending(ctx context.Context, reg Registration) (Registration, bool, error) {
	var (
		created Registration
		deduped bool
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := lockCourse(tx, reg.CourseID)
		if err != nil {
			return err
		}
		if !course.IsActive {
			return ErrCourseInactive
		}

		var existing Registration
		result := tx.Where(
			"student_id = ? AND course_id = ? AND payment_status IN ?",
			reg.StudentID, reg.CourseID, []string{"pending", "completed"},
		).First(&existing)
		if result.Error == nil {
			if existing.PaymentStatus == "completed" {
				return ErrDuplicateRegistration
			}

			created = existing
			deduped = true
			return nil
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		capacity, err := courseCapacity(tx, reg.CourseID)
		if err != nil {
			return err
		}
		completed, err := countCompleted(tx, reg.CourseID)
		if err != nil {
			return err
		}
		if completed >= int64(capacity) {
			return &CourseFullError{CourseID: reg.CourseID}
		}

		reg.PaymentStatus = "pending"
		if result := tx.Create(&reg); result.Error != nil {
			return result.Error
		}

		created = reg
		return nil
	})
	if err != nil {
		return Registration{}, false, err
	}

	return created, deduped, nil
}

// InsertPendingBatch admits every registration or none. Course locks are
// taken in ID order so two overlapping bundles cannot deadlock.
func (d *RegistrationDAO) InsertPendingBatch(ctx context.Context, regs []Registration) ([]Registration, error) {
	byCourse := make(map[uint]Registration, len(regs))
	courseIDs := make([]uint, 0, len(regs))
	for _, reg := range regs {
		byCourse[reg.CourseID] = reg
		courseIDs = append(courseIDs, reg.CourseID)
	}
	sort.Slice(courseIDs, func(i, j int) bool { return courseIDs[i] < courseIDs[j] })

	var created []Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created = created[:0]

		for _, courseID := range courseIDs {
			reg := byCourse[courseID]

			course, err := lockCourse(tx, courseID)
			if err != nil {
				return err
			}
			if !course.IsActive {
				return ErrCourseInactive
			}

			var existing Registration
			result := tx.Where(
				"student_id = ? AND course_id = ? AND payment_status IN ?",
				reg.StudentID, courseID, []string{"pending", "completed"},
			).First(&existing)
			if result.Error == nil {
				if existing.PaymentStatus == "completed" {
					return ErrDuplicateRegistration
				}

				created = append(created, existing)
				continue
			}
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}

			capacity, err := courseCapacity(tx, courseID)
			if err != nil {
				return err
			}
			completed, err := countCompleted(tx, courseID)
			if err != nil {
				return err
			}
			if completed >= int64(capacity) {
				return &CourseFullError{CourseID: courseID}
			}

			reg.PaymentStatus = "pending"
			if result := tx.Create(&reg); result.Error != nil {
				return result.Error
			}
			created = append(created, reg)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ConfirmPayment moves pending -> completed under the course lock,
// re-checking capacity so the completed count can never exceed it, no
// matter how requests interleave. A completed registration supersedes any
// waitlist entry the student held for the course.
func (d *RegistrationDAO) ConfirmPayment(ctx context.Context, id uint, method, note string) (Registration, error) {
	var confirmed Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if result := tx.First(&reg, id); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return result.Error
		}
		if reg.PaymentStatus != "pending" {
			return ErrInvalidStatusTransition
		}

		if _, err := lockCourse(tx, reg.CourseID); err != nil {
			return err
		}

		capacity, err := courseCapacity(tx, reg.CourseID)
		if err != nil {
			return err
		}
		completed, err := countCompleted(tx, reg.CourseID)
		if err != nil {
			return err
		}
		if completed >= int64(capacity) {
			return &CourseFullError{CourseID: reg.CourseID}
		}

		updates := map[string]interface{}{
			"payment_status": "completed",
			"payment_method": method,
			"payment_note":   note,
		}
		if result := tx.Model(&Registration{}).Where("id = ?", reg.ID).Updates(updates); result.Error != nil {
			return result.Error
		}

		if err := removeWaitlistEntryForStudent(tx, reg.StudentID, reg.CourseID); err != nil {
			return err
		}

		if result := tx.First(&confirmed, reg.ID); result.Error != nil {
			return result.Error
		}

		return nil
	})
	if err != nil {
		return Registration{}, err
	}

	return confirmed, nil
}

// MarkPaymentFailed moves pending -> failed.
func (d *RegistrationDAO) MarkPaymentFailed(ctx context.Context, id uint) (Registration, error) {
	return d.transition(ctx, id, "pending", "failed", nil)
}

// Cancel moves pending or completed -> canceled and stamps the audit trail.
// The freed spot is visible immediately since canceled rows never count.
func (d *RegistrationDAO) Cancel(ctx context.Context, id uint, reason, actor string) (Registration, error) {
	now := time.Now()

	var canceled Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if result := tx.First(&reg, id); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return result.Error
		}
		if reg.PaymentStatus != "pending" && reg.PaymentStatus != "completed" {
			return ErrInvalidStatusTransition
		}

		updates := map[string]interface{}{
			"payment_status":      "canceled",
			"canceled_at":         now,
			"canceled_by":         actor,
			"cancellation_reason": reason,
		}
		if result := tx.Model(&Registration{}).Where("id = ?", reg.ID).Updates(updates); result.Error != nil {
			return result.Error
		}

		return tx.First(&canceled, reg.ID).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return canceled, nil
}

// Uncancel moves canceled -> pending and clears the audit fields. Payment
// must be reconfirmed before the registration counts again.
func (d *RegistrationDAO) Uncancel(ctx context.Context, id uint) (Registration, error) {
	clear := map[string]interface{}{
		"canceled_at":         nil,
		"canceled_by":         "",
		"cancellation_reason": "",
	}

	return d.transition(ctx, id, "canceled", "pending", clear)
}

func (d *RegistrationDAO) transition(ctx context.Context, id uint, from, to string, extra map[string]interface{}) (Registration, error) {
	var updated Registration

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg Registration
		if result := tx.First(&reg, id); result.Error != nil {
			if errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}

			return result.Error
		}
		if reg.PaymentStatus != from {
			return ErrInvalidStatusTransition
		}

		updates := map[string]interface{}{"payment_status": to}
		for k, v := range extra {
			updates[k] = v
		}
		if result := tx.Model(&Registration{}).Where("id = ?", reg.ID).Updates(updates); result.Error != nil {
			return result.Error
		}

		return tx.First(&updated, reg.ID).Error
	})
	if err != nil {
		return Registration{}, err
	}

	return updated, nil
}

// UpdateAmount edits payment_amount_cents without touching payment_status.
func (d *RegistrationDAO) UpdateAmount(ctx context.Context, id uint, amountCents int64) (Registration, error) {
	result := d.db.WithContext(ctx).Model(&Registration{}).
		Where("id = ?", id).
		Update("payment_amount_cents", amountCents)
	if result.Error != nil {
		return Registration{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Registration{}, ErrRegistrationNotFound
	}

	return d.FindByID(ctx, id)
}
