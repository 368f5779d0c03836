package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrCourseNotFound = errors.New("course not found")

type Course struct {
	ID uint `gorm:"primaryKey"`

	Name                string `gorm:"not null"`
	CourseType          string `gorm:"not null"` // "multi-week", "drop_in", or "crew_practice"
	DurationWeeks       int
	RequiredStudentType string `gorm:"not null;default:any"` // "any" or "crew_member"
	IsActive            bool   `gorm:"not null;default:true"`
	StartDate           *time.Time
	EndDate             *time.Time

	Slots []Slot `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Slot struct {
	ID uint `gorm:"primaryKey"`

	CourseID        uint   `gorm:"not null;index"`
	DifficultyLevel string
	Capacity        int    `gorm:"not null"`
	DayOfWeek       string
	PracticeDate    *time.Time
	StartTime       string `gorm:"not null"`
	EndTime         string `gorm:"not null"`
	Location        string

	Pricing []Pricing `gorm:"foreignKey:SlotID;constraint:OnDelete:CASCADE"`
}

type Pricing struct {
	ID uint `gorm:"primaryKey"`

	SlotID      uint   `gorm:"not null;index"`
	PricingType string `gorm:"not null"` // "full_package" or "drop_in"
	PriceCents  int64  `gorm:"not null"`
}

type CourseDAO struct {
	db *gorm.DB
}

func NewCourseDAO(db *gorm.DB) *CourseDAO {
	return &CourseDAO{
		db: db,
	}
}

func (d *CourseDAO) Insert(ctx context.Context, course Course) (Course, error) {
	result := d.db.WithContext(ctx).Create(&course)
	if result.Error != nil {
		return Course{}, result.Error
	}

	return course, nil
}

func (d *CourseDAO) FindByID(ctx context.Context, id uint) (Course, error) {
	var course Course

	result := d.db.WithContext(ctx).
		Preload("Slots.Pricing").
		Preload("Slots").
		First(&course, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Course{}, ErrCourseNotFound
		}

		return Course{}, result.Error
	}

	return course, nil
}

func (d *CourseDAO) FindActive(ctx context.Context) ([]Course, error) {
	var courses []Course

	result := d.db.WithContext(ctx).
		Preload("Slots.Pricing").
		Preload("Slots").
		Where("is_active = ?", true).
		Order("id").
		Find(&courses)
	if result.Error != nil {
		return nil, result.Error
	}

	return courses, nil
}

// courseCapacity sums slot capacities inside the caller's transaction.
func courseCapacity(tx *gorm.DB, courseID uint) (int, error) {
	var capacity int

	row := tx.Model(&Slot{}).
		Select("COALESCE(SUM(capacity), 0)").
		Where("course_id = ?", courseID).
		Row()
	if err := row.Scan(&capacity); err != nil {
		return 0, err
	}

	return capacity, nil
}
