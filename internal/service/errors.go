package service

import (
	"fmt"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

// Bundle rejection reasons, stable across the API surface.
const (
	BundleReasonCourseFull  = "course_full"
	BundleReasonMixedLevels = "mixed_levels_not_allowed"
	BundleReasonWeekGated   = "week_4_blocked"
)

// BundleRejectionError rejects an entire bundle registration, identifying
// the offending course. No partial commit ever happens.
type BundleRejectionError struct {
	Reason   string
	CourseID uint
}

func (e *BundleRejectionError) Error() string {
	return fmt.Sprintf("bundle rejected (%v) for course %v", e.Reason, e.CourseID)
}

// AccessDeniedError names the student type a course or package requires,
// so the caller can tell the user why they were turned away.
type AccessDeniedError struct {
	RequiredType domain.StudentType
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("registration requires student type %q", e.RequiredType)
}
