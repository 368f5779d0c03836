package domain

import "time"

// CourseVisibleTo applies the student-type access rule: courses open to
// anyone are always visible, crew-only courses are visible to crew members
// only. General students never see crew-only courses.
func CourseVisibleTo(course Course, studentType StudentType) bool {
	if course.RequiredStudentType == StudentTypeAny || course.RequiredStudentType == "" {
		return true
	}

	return course.RequiredStudentType == StudentTypeCrewMember && studentType == StudentTypeCrewMember
}

// BundleSingleTrack reports whether all slots share the same
// (start_time, end_time), i.e. the bundle does not mix session levels.
func BundleSingleTrack(slots []Slot) bool {
	if len(slots) < 2 {
		return true
	}

	first := slots[0]
	for _, s := range slots[1:] {
		if s.StartTime != first.StartTime || s.EndTime != first.EndTime {
			return false
		}
	}

	return true
}

// IsWeekGated reports whether the slot's class date falls on or after the
// session's final-week cutoff, which excludes it from drop-in bundles.
// Slots without a practice date (recurring weekly) are never gated.
func IsWeekGated(slot Slot, cutoffDate time.Time) bool {
	if slot.PracticeDate == nil || cutoffDate.IsZero() {
		return false
	}

	return !slot.PracticeDate.Before(cutoffDate)
}

// ComboEligible reports whether the student may register a crew+house combo.
func ComboEligible(student Student) bool {
	return student.StudentType == StudentTypeCrewMember
}
