package domain

import "time"

type CourseType string

const (
	CourseTypeMultiWeek    CourseType = "multi-week"
	CourseTypeDropIn       CourseType = "drop_in"
	CourseTypeCrewPractice CourseType = "crew_practice"
)

type PricingType string

const (
	PricingTypeFullPackage PricingType = "full_package"
	PricingTypeDropIn      PricingType = "drop_in"
)

type Course struct {
	ID                  uint        `json:"id"`
	Name                string      `json:"name"`
	CourseType          CourseType  `json:"course_type"`
	DurationWeeks       int         `json:"duration_weeks"`
	RequiredStudentType StudentType `json:"required_student_type"` // "any" or "crew_member"
	IsActive            bool        `json:"is_active"`
	StartDate           *time.Time  `json:"start_date,omitempty"`
	EndDate             *time.Time  `json:"end_date,omitempty"`
	Slots               []Slot      `json:"slots"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// Slot is a concrete time/location/capacity unit within a course, either
// recurring weekly (DayOfWeek set) or a single dated class (PracticeDate set).
type Slot struct {
	ID              uint       `json:"id"`
	CourseID        uint       `json:"course_id"`
	DifficultyLevel string     `json:"difficulty_level"`
	Capacity        int        `json:"capacity"`
	DayOfWeek       string     `json:"day_of_week,omitempty"`
	PracticeDate    *time.Time `json:"practice_date,omitempty"`
	StartTime       string     `json:"start_time"` // "HH:MM"
	EndTime         string     `json:"end_time"`
	Location        string     `json:"location"`
	Pricing         []Pricing  `json:"pricing"`
}

type Pricing struct {
	ID          uint        `json:"id"`
	SlotID      uint        `json:"slot_id"`
	PricingType PricingType `json:"pricing_type"`
	PriceCents  int64       `json:"price_cents"`
}

// TotalCapacity sums the capacities of all slots.
func (c Course) TotalCapacity() int {
	total := 0
	for _, s := range c.Slots {
		total += s.Capacity
	}

	return total
}

// CourseAvailability is a course joined with its live completed-registration
// count. Registrations are course-scoped, so the single completed count is
// subtracted uniformly from the course total and from each slot's view.
type CourseAvailability struct {
	Course         Course `json:"course"`
	TotalCapacity  int    `json:"total_capacity"`
	CompletedCount int    `json:"completed_count"`
	AvailableSpots int    `json:"available_spots"`
}

func NewCourseAvailability(course Course, completedCount int) CourseAvailability {
	capacity := course.TotalCapacity()
	available := capacity - completedCount
	if available < 0 {
		available = 0
	}

	return CourseAvailability{
		Course:         course,
		TotalCapacity:  capacity,
		CompletedCount: completedCount,
		AvailableSpots: available,
	}
}

func (a CourseAvailability) IsFull() bool {
	return a.CompletedCount >= a.TotalCapacity
}
