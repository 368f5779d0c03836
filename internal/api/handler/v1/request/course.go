package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

type CoursePricing struct {
	PricingType string `json:"pricing_type"`
	PriceCents  int64  `json:"price_cents"`
}

func (p *CoursePricing) Validate() error {
	return validation.ValidateStruct(
		p,
		validation.Field(&p.PricingType, validation.Required, validation.In("full_package", "drop_in")),
		validation.Field(&p.PriceCents, validation.Min(int64(0))),
	)
}

type CourseSlot struct {
	DifficultyLevel string          `json:"difficulty_level"`
	Capacity        int             `json:"capacity"`
	DayOfWeek       string          `json:"day_of_week"`
	PracticeDate    *time.Time      `json:"practice_date"`
	StartTime       string          `json:"start_time"`
	EndTime         string          `json:"end_time"`
	Location        string          `json:"location"`
	Pricing         []CoursePricing `json:"pricing"`
}

func (s *CourseSlot) Validate() error {
	err := validation.ValidateStruct(
		s,
		validation.Field(&s.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&s.StartTime, validation.Required),
		validation.Field(&s.EndTime, validation.Required),
	)
	if err != nil {
		return err
	}

	for i := range s.Pricing {
		if err := s.Pricing[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

type CreateCourseRequest struct {
	Name                string       `json:"name"`
	CourseType          string       `json:"course_type"`
	DurationWeeks       int          `json:"duration_weeks"`
	RequiredStudentType string       `json:"required_student_type"`
	StartDate           *time.Time   `json:"start_date"`
	EndDate             *time.Time   `json:"end_date"`
	Slots               []CourseSlot `json:"slots"`
}

func (req *CreateCourseRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.CourseType, validation.Required,
			validation.In("multi-week", "drop_in", "crew_practice")),
		validation.Field(&req.RequiredStudentType, validation.In("any", "crew_member")),
		validation.Field(&req.DurationWeeks, validation.Min(0)),
		validation.Field(&req.Slots, validation.Required, validation.Length(1, 0)),
	)
	if err != nil {
		return err
	}

	for i := range req.Slots {
		if err := req.Slots[i].Validate(); err != nil {
			return err
		}
	}

	return nil
}

func (req *CreateCourseRequest) ToDomain() domain.Course {
	requiredType := domain.StudentType(req.RequiredStudentType)
	if requiredType == "" {
		requiredType = domain.StudentTypeAny
	}

	slots := make([]domain.Slot, len(req.Slots))
	for i, s := range req.Slots {
		pricing := make([]domain.Pricing, len(s.Pricing))
		for j, p := range s.Pricing {
			pricing[j] = domain.Pricing{
				PricingType: domain.PricingType(p.PricingType),
				PriceCents:  p.PriceCents,
			}
		}
		slots[i] = domain.Slot{
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

	return domain.Course{
		Name:                req.Name,
		CourseType:          domain.CourseType(req.CourseType),
		DurationWeeks:       req.DurationWeeks,
		RequiredStudentType: requiredType,
		IsActive:            true,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Slots:               slots,
	}
}
