package domain

// Admin is the studio operator account. There is exactly one, configured
// at deploy time.
type Admin struct {
	Email string `json:"email"`
}
