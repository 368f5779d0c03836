package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type CreateRegistrationRequest struct {
	Student       StudentProfile `json:"student"`
	CourseID      uint           `json:"course_id"`
	AmountCents   int64          `json:"amount_cents"`
	WaitlistToken string         `json:"waitlist_token"`
}

func (req *CreateRegistrationRequest) Validate() error {
	// A waitlist token already identifies student and course.
	if req.WaitlistToken != "" {
		return validation.ValidateStruct(
			req,
			validation.Field(&req.AmountCents, validation.Min(int64(0))),
		)
	}

	err := validation.ValidateStruct(
		req,
		validation.Field(&req.CourseID, validation.Required),
		validation.Field(&req.AmountCents, validation.Min(int64(0))),
	)
	if err != nil {
		return err
	}

	return req.Student.Validate()
}

type CreateBundleRequest struct {
	Student          StudentProfile `json:"student"`
	CourseIDs        []uint         `json:"course_ids"`
	TotalAmountCents int64          `json:"total_amount_cents"`
}

func (req *CreateBundleRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.CourseIDs, validation.Required, validation.Length(1, 0)),
		validation.Field(&req.TotalAmountCents, validation.Min(int64(0))),
	)
	if err != nil {
		return err
	}

	return req.Student.Validate()
}

type CreateComboRequest struct {
	Student          StudentProfile `json:"student"`
	HouseCourseIDs   []uint         `json:"house_course_ids"`
	TotalAmountCents int64          `json:"total_amount_cents"`
}

func (req *CreateComboRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.HouseCourseIDs, validation.Required, validation.Length(1, 0)),
		validation.Field(&req.TotalAmountCents, validation.Min(int64(0))),
	)
	if err != nil {
		return err
	}

	return req.Student.Validate()
}

type ConfirmPaymentRequest struct {
	PaymentMethod string `json:"payment_method"`
	Note          string `json:"note"`
}

func (req *ConfirmPaymentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.PaymentMethod, validation.Required,
			validation.In("venmo", "zelle", "cash", "comp")),
		validation.Field(&req.Note, validation.Length(0, 500)),
	)
}

type CancelRegistrationRequest struct {
	Reason string `json:"reason"`
}

func (req *CancelRegistrationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Reason, validation.Length(0, 500)),
	)
}

type EditRegistrationRequest struct {
	AmountCents      *int64  `json:"amount_cents"`
	Phone            *string `json:"phone"`
	EmergencyContact *string `json:"emergency_contact"`
}

func (req *EditRegistrationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.AmountCents, validation.Min(int64(0))),
	)
}
