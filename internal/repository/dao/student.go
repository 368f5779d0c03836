package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var ErrStudentNotFound = errors.New("student not found")

type Student struct {
	ID uint `gorm:"primaryKey"`

	Email            string `gorm:"uniqueIndex;not null"`
	FirstName        string `gorm:"not null"`
	LastName         string
	Phone            string
	EmergencyContact string
	DanceExperience  string
	InstagramHandle  string

	StudentType     string `gorm:"not null;default:general"` // "general", "crew_member", or "test"
	ProfileComplete bool   `gorm:"not null;default:false"`
	AdminClassified bool   `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type StudentDAO struct {
	db *gorm.DB
}

func NewStudentDAO(db *gorm.DB) *StudentDAO {
	return &StudentDAO{
		db: db,
	}
}

func (d *StudentDAO) FindByID(ctx context.Context, id uint) (Student, error) {
	var student Student

	result := d.db.WithContext(ctx).First(&student, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Student{}, ErrStudentNotFound
		}

		return Student{}, result.Error
	}

	return student, nil
}

func (d *StudentDAO) FindByEmail(ctx context.Context, email string) (Student, error) {
	var student Student

	result := d.db.WithContext(ctx).First(&student, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Student{}, ErrStudentNotFound
		}

		return Student{}, result.Error
	}

	return student, nil
}

// UpsertByEmail creates the student on first contact, or overwrites the
// mutable profile fields last-write-wins on every subsequent contact.
// Classification fields are never touched here.
func (d *StudentDAO) UpsertByEmail(ctx context.Context, student Student) (Student, error) {
	existing, err := d.FindByEmail(ctx, student.Email)
	if err == nil {
		return d.updateProfile(ctx, existing, student)
	}
	if !errors.Is(err, ErrStudentNotFound) {
		return Student{}, err
	}

	created := student
	created.StudentType = "general"
	created.AdminClassified = false

	result := d.db.WithContext(ctx).Create(&created)
	if result.Error != nil {
		// Two first-time requests for the same email can race; the loser
		// falls back to the update path.
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			existing, err = d.FindByEmail(ctx, student.Email)
			if err != nil {
				return Student{}, err
			}

			return d.updateProfile(ctx, existing, student)
		}

		return Student{}, result.Error
	}

	return created, nil
}

func (d *StudentDAO) updateProfile(ctx context.Context, existing, incoming Student) (Student, error) {
	updates := map[string]interface{}{
		"first_name":        incoming.FirstName,
		"last_name":         incoming.LastName,
		"phone":             incoming.Phone,
		"emergency_contact": incoming.EmergencyContact,
		"dance_experience":  incoming.DanceExperience,
		"instagram_handle":  incoming.InstagramHandle,
		"profile_complete":  incoming.ProfileComplete,
	}

	result := d.db.WithContext(ctx).Model(&Student{}).Where("id = ?", existing.ID).Updates(updates)
	if result.Error != nil {
		return Student{}, result.Error
	}

	return d.FindByID(ctx, existing.ID)
}

// UpdateType records an admin classification. forceIncomplete additionally
// clears profile_complete, used when a promotion to crew_member finds
// required profile fields missing.
func (d *StudentDAO) UpdateType(ctx context.Context, id uint, studentType string, forceIncomplete bool) (Student, error) {
	updates := map[string]interface{}{
		"student_type":     studentType,
		"admin_classified": true,
	}
	if forceIncomplete {
		updates["profile_complete"] = false
	}

	result := d.db.WithContext(ctx).Model(&Student{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return Student{}, result.Error
	}
	if result.RowsAffected == 0 {
		return Student{}, ErrStudentNotFound
	}

	return d.FindByID(ctx, id)
}

// BulkReset deletes all students together with their registrations and
// waitlist entries. This is the only path that hard-deletes student data;
// it exists for wiping test sessions, not for normal operation.
func (d *StudentDAO) BulkReset(ctx context.Context) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&WaitlistEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&Registration{}).Error; err != nil {
			return err
		}

		return tx.Where("1 = 1").Delete(&Student{}).Error
	})
}
