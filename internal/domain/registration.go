package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Registration type tags. Free text in the store; these are the values the
// portal writes.
const (
	RegistrationTypeFullCourse     = "full-course"
	RegistrationTypePerClass       = "per-class"
	RegistrationTypeDropInBundle   = "drop_in_bundle"
	RegistrationTypeCrewHouseCombo = "crew_house_combo"
	RegistrationTypeCrewUnlimited  = "crew_unlimited"
)

type Registration struct {
	ID                  uint          `json:"id"`
	StudentID           uint          `json:"student_id"`
	CourseID            uint          `json:"course_id"`
	PaymentAmountCents  int64         `json:"payment_amount_cents"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentMethod       string        `json:"payment_method,omitempty"`
	PaymentNote         string        `json:"payment_note,omitempty"`
	RegistrationType    string        `json:"registration_type"`
	CreatedFromWaitlist bool          `json:"created_from_waitlist"`
	CanceledAt          *time.Time    `json:"canceled_at,omitempty"`
	CanceledBy          string        `json:"canceled_by,omitempty"`
	CancellationReason  string        `json:"cancellation_reason,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// CanTransitionTo encodes the ledger state machine:
// pending -> completed | failed | canceled, completed <-> canceled,
// canceled -> pending (payment must be reconfirmed after an uncancel).
func (r Registration) CanTransitionTo(next PaymentStatus) bool {
	switch r.PaymentStatus {
	case PaymentStatusPending:
		return next == PaymentStatusCompleted || next == PaymentStatusFailed || next == PaymentStatusCanceled
	case PaymentStatusCompleted:
		return next == PaymentStatusCanceled
	case PaymentStatusCanceled:
		return next == PaymentStatusPending
	}

	return false
}

// CountsAgainstCapacity reports whether this registration consumes a spot.
// Only completed registrations do; pending ones reserve nothing.
func (r Registration) CountsAgainstCapacity() bool {
	return r.PaymentStatus == PaymentStatusCompleted
}
