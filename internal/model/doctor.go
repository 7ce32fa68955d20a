package model

type Doctor struct {
	ID             ID     `json:"doctorId,omitempty"`
	FullName       string `json:"fullName"`
	Specialization string `json:"specialization,omitempty"`
	Email          string `json:"email,omitempty"`
	PhoneNumber    string `json:"phoneNumber,omitempty"`
}
