package model

type Patient struct {
	ID          ID     `json:"patientId,omitempty"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}
