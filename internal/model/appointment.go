package model

import (
	"fmt"
	"strings"
)

type AppointmentStatus string

const (
	AppointmentStatusPending  AppointmentStatus = "pending"
	AppointmentStatusAccepted AppointmentStatus = "accepted"
	AppointmentStatusCanceled AppointmentStatus = "canceled"
)

// Appointment as listed by the backend. AppointmentDateTime is a zone-less
// local date-time and is passed through verbatim.
type Appointment struct {
	ID                  ID                `json:"appointmentId"`
	DoctorID            ID                `json:"doctorId"`
	PatientID           ID                `json:"patientId"`
	AppointmentDateTime string            `json:"appointmentDateTime,omitempty"`
	Status              AppointmentStatus `json:"status"`

	DoctorDetails  *Doctor  `json:"doctorDetails,omitempty"`
	PatientDetails *Patient `json:"patientDetails,omitempty"`
}

// DoctorName is empty when the row was not enriched.
func (a Appointment) DoctorName() string {
	if a.DoctorDetails == nil {
		return ""
	}
	return a.DoctorDetails.FullName
}

func (a Appointment) PatientName() string {
	if a.PatientDetails == nil {
		return ""
	}
	return a.PatientDetails.FullName
}

func (a Appointment) PatientPhone() string {
	if a.PatientDetails == nil {
		return ""
	}
	return a.PatientDetails.PhoneNumber
}

type StatusUpdate struct {
	Status AppointmentStatus `json:"status"`
}

// Outcome is the staff decision on a pending appointment.
type Outcome string

const (
	OutcomeAccept Outcome = "accept"
	OutcomeCancel Outcome = "cancel"
)

func ParseOutcome(s string) (Outcome, error) {
	switch Outcome(strings.ToLower(strings.TrimSpace(s))) {
	case OutcomeAccept:
		return OutcomeAccept, nil
	case OutcomeCancel:
		return OutcomeCancel, nil
	}
	return "", fmt.Errorf("unknown outcome %q", s)
}

// Status is the appointment status the outcome moves to.
func (o Outcome) Status() AppointmentStatus {
	if o == OutcomeAccept {
		return AppointmentStatusAccepted
	}
	return AppointmentStatusCanceled
}

func (o Outcome) NotificationType() NotificationType {
	if o == OutcomeAccept {
		return NotificationTypeAccepted
	}
	return NotificationTypeRejected
}

// NotificationText is the fixed text stored for the patient.
func (o Outcome) NotificationText() string {
	if o == OutcomeAccept {
		return "Appointment confirmed! Your consultation with the doctor is scheduled as planned."
	}
	return "Doctor is unavailable due to emergency schedule conflict. Your appointment has been canceled."
}

// SuccessMessage is shown to staff once the action completed.
func (o Outcome) SuccessMessage() string {
	if o == OutcomeAccept {
		return "Patient Appointment Accepted and SMS sent"
	}
	return "Patient Appointment Canceled and SMS sent"
}

// Past is the verb used in the SMS body.
func (o Outcome) Past() string {
	if o == OutcomeAccept {
		return "accepted"
	}
	return "canceled"
}
