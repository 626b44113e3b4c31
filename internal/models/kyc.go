package models

// KycSubmission is the record posted once to the verification backend.
// LocationRestricted is nil when no restriction check has completed.
type KycSubmission struct {
	Name               string `json:"name"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	UploadURL          string `json:"uploadUrl"`
	LocationRestricted *bool  `json:"locationRestricted"`
}
