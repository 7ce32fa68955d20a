package model

type NotificationType string

const (
	NotificationTypeAccepted NotificationType = "accepted"
	NotificationTypeRejected NotificationType = "rejected"
)

type NotificationStatus string

const NotificationStatusUnread NotificationStatus = "unread"

// Notification is the record saved for the patient app after an action.
type Notification struct {
	PatientID           ID                 `json:"patientId"`
	DoctorID            ID                 `json:"doctorId"`
	AppointmentDateTime string             `json:"appointmentDateTime"`
	Text                string             `json:"text"`
	Type                NotificationType   `json:"type"`
	Status              NotificationStatus `json:"status"`
	DateTime            string             `json:"dateTime"`
}

type SMSRequest struct {
	DestinationSMSPhoneNumber string `json:"destinationSMSPhoneNumber"`
	SMSMessage                string `json:"smsMessage"`
}
