package response

import (
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

type LoginResponse struct {
	Token string       `json:"token"`
	Admin domain.Admin `json:"admin"`
}
