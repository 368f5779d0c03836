package repository

import (
	"context"
	"fmt"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
	"github.com/gouthamseattle/dance-registration-portal/internal/repository/dao"
)

var ErrCourseNotFound = dao.ErrCourseNotFound

type CourseDAO interface {
	Insert(ctx context.Context, course dao.Course) (dao.Course, error)
	FindByID(ctx context.Context, id uint) (dao.Course, error)
	FindActive(ctx context.Context) ([]dao.Course, error)
}

type CourseRepository struct {
	dao CourseDAO
}

func NewCourseRepository(dao CourseDAO) *CourseRepository {
	return &CourseRepository{
		dao: dao,
	}
}

func (r *CourseRepository) FindByID(ctx context.Context, id uint) (domain.Course, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Course{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *CourseRepository) FindActive(ctx context.Context) ([]domain.Course, error) {
	found, err := r.dao.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	courses := make([]domain.Course, len(found))
	for i, c := range found {
		courses[i] = r.daoToDomain(c)
	}

	return courses, nil
}

func (r *CourseRepository) Create(ctx context.Context, course domain.Course) (domain.Course, error) {
	created, err := r.dao.Insert(ctx, r.domainToDao(course))
	if err != nil {
		return domain.Course{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *CourseRepository) daoToDomain(c dao.Course) domain.Course {
	slots := make([]domain.Slot, len(c.Slots))
	for i, s := range c.Slots {
		slots[i] = r.slotDaoToDomain(s)
	}

	return domain.Course{
		ID:                  c.ID,
		Name:                c.Name,
		CourseType:          domain.CourseType(c.CourseType),
		DurationWeeks:       c.DurationWeeks,
		RequiredStudentType: domain.StudentType(c.RequiredStudentType),
		IsActive:            c.IsActive,
		StartDate:           c.StartDate,
		EndDate:             c.EndDate,
		Slots:               slots,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (r *CourseRepository) slotDaoToDomain(s dao.Slot) domain.Slot {
	pricing := make([]domain.Pricing, len(s.Pricing))
	for i, p := range s.Pricing {
		pricing[i] = domain.Pricing{
			ID:          p.ID,
			SlotID:      p.SlotID,
			PricingType: domain.PricingType(p.PricingType),
			PriceCents:  p.PriceCents,
		}
	}

	return domain.Slot{
		ID:              s.ID,
		CourseID:        s.CourseID,
		DifficultyLevel: s.DifficultyLevel,
		Capacity:        s.Capacity,
		DayOfWeek:       s.DayOfWeek,
		PracticeDate:    s.PracticeDate,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Location:        s.Location,
		Pricing:         pricing,
	}
}

func (r *CourseRepository) domainToDao(c domain.Course) dao.Course {
	slots := make([]dao.Slot, len(c.Slots))
	for i, s := range c.Slots {
		pricing := make([]dao.Pricing, len(s.Pricing))
		for j, p := range s.Pricing {
			pricing[j] = dao.Pricing{
				ID:          p.ID,
				SlotID:      p.SlotID,
				PricingType: string(p.PricingType),
				PriceCents:  p.PriceCents,
			}
		}
		slots[i] = dao.Slot{
			ID:              s.ID,
			CourseID:        s.CourseID,
			DifficultyLevel: s.DifficultyLevel,
			Capacity:        s.Capacity,
			DayOfWeek:       s.DayOfWeek,
			PracticeDate:    s.PracticeDate,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			Location:        s.Location,
			Pricing:         pricing,
		}
	}

	return dao.Course{
		ID:                  c.ID,
		Name:                c.Name,
		CourseType:          string(c.CourseType),
		DurationWeeks:       c.DurationWeeks,
		RequiredStudentType: string(c.RequiredStudentType),
		IsActive:            c.IsActive,
		StartDate:           c.StartDate,
		EndDate:             c.EndDate,
		Slots:               slots,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}
