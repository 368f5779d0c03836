package response

// BundleRejection reports why an all-or-nothing bundle was turned away.
// Reason codes: course_full, mixed_levels_not_allowed, week_4_blocked.
type BundleRejection struct {
	ErrorMsg string `json:"error"`
	Reason   string `json:"reason"`
	CourseID uint   `json:"course_id,omitempty"`
}

// AccessDenied reports the student type a course requires.
type AccessDenied struct {
	ErrorMsg     string `json:"error"`
	RequiredType string `json:"required_student_type"`
}
