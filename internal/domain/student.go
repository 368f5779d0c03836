package domain

import "time"

type StudentType string

const (
	StudentTypeAny        StudentType = "any" // only valid as a course requirement
	StudentTypeGeneral    StudentType = "general"
	StudentTypeCrewMember StudentType = "crew_member"
	StudentTypeTest       StudentType = "test"
)

// ValidStudentType reports whether t is assignable to a student record.
func ValidStudentType(t StudentType) bool {
	switch t {
	case StudentTypeGeneral, StudentTypeCrewMember, StudentTypeTest:
		return true
	}

	return false
}

type Student struct {
	ID               uint        `json:"id"`
	Email            string      `json:"email"`
	FirstName        string      `json:"first_name"`
	LastName         string      `json:"last_name"`
	Phone            string      `json:"phone,omitempty"`
	EmergencyContact string      `json:"emergency_contact,omitempty"`
	DanceExperience  string      `json:"dance_experience,omitempty"`
	InstagramHandle  string      `json:"instagram_handle,omitempty"`
	StudentType      StudentType `json:"student_type"`
	ProfileComplete  bool        `json:"profile_complete"`
	AdminClassified  bool        `json:"admin_classified"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// MissingCrewProfileFields reports whether the fields required of a crew
// member are absent. Promoting such a student forces profile_complete=false
// so they must fill these in before their next course listing.
func (s Student) MissingCrewProfileFields() bool {
	return s.InstagramHandle == "" || s.DanceExperience == ""
}
