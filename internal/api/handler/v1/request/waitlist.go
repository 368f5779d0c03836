package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type JoinWaitlistRequest struct {
	Student  StudentProfile `json:"student"`
	CourseID uint           `json:"course_id"`
}

func (req *JoinWaitlistRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.CourseID, validation.Required),
	)
	if err != nil {
		return err
	}

	return req.Student.Validate()
}

type NotifyWaitlistRequest struct {
	ExpiresHours int `json:"expires_hours"`
}

func (req *NotifyWaitlistRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ExpiresHours, validation.Min(0), validation.Max(24*14)),
	)
}

type ReorderWaitlistRequest struct {
	NewPosition int `json:"new_position"`
}

func (req *ReorderWaitlistRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.NewPosition, validation.Required, validation.Min(1)),
	)
}
