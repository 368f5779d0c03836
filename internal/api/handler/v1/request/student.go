package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

// Instagram handles: 1-30 chars of letters, digits, dots and underscores,
// no leading/trailing dot and no consecutive dots. The lookaheads need
// regexp2; the stdlib engine doesn't support them.
const instagramHandlePattern = `^(?!\.)(?!.*\.\.)(?!.*\.$)@?[A-Za-z0-9._]{1,30}$`

var (
	instagramHandleExp = regexp2.MustCompile(instagramHandlePattern, regexp2.None)

	errInvalidInstagramHandle = errors.New("instagram handle may only contain letters, digits, dots and underscores")
)

// StudentProfile is the self-served identity block embedded in every
// student-facing request. Email is the identity key.
type StudentProfile struct {
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
	DanceExperience  string `json:"dance_experience"`
	InstagramHandle  string `json:"instagram_handle"`
}

func (p *StudentProfile) Validate() error {
	err := validation.ValidateStruct(
		p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.Length(0, 100)),
		validation.Field(&p.Phone, validation.Length(0, 30)),
	)
	if err != nil {
		return err
	}

	if p.InstagramHandle != "" {
		if ok, _ := instagramHandleExp.MatchString(p.InstagramHandle); !ok {
			return errInvalidInstagramHandle
		}
	}

	return nil
}

func (p *StudentProfile) ToDomain() domain.Student {
	return domain.Student{
		Email:            p.Email,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		Phone:            p.Phone,
		EmergencyContact: p.EmergencyContact,
		DanceExperience:  p.DanceExperience,
		InstagramHandle:  p.InstagramHandle,
	}
}

type ClassifyStudentRequest struct {
	StudentType string `json:"student_type"`
}

func (req *ClassifyStudentRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.StudentType, validation.Required,
			validation.In("general", "crew_member", "test")),
	)
}
