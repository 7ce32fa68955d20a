package dashboard

import (
	"time"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

// Row is one line of the pending appointments table.
type Row struct {
	AppointmentID       model.ID                `json:"appointmentId"`
	DoctorID            model.ID                `json:"doctorId"`
	PatientID           model.ID                `json:"patientId"`
	DoctorName          string                  `json:"doctorName"`
	PatientName         string                  `json:"patientName"`
	AppointmentDateTime string                  `json:"appointmentDateTime,omitempty"`
	DisplayDateTime     string                  `json:"displayDateTime"`
	Status              model.AppointmentStatus `json:"status"`
	DoctorImageURL      string                  `json:"doctorImageUrl,omitempty"`
	PatientImageURL     string                  `json:"patientImageUrl,omitempty"`
}

func orPlaceholder(s string) string {
	if s == "" {
		return timefmt.Placeholder
	}
	return s
}

// NewRow projects an appointment for display. images may be nil.
func NewRow(a model.Appointment, loc *time.Location, images repository.ImageLocator) Row {
	row := Row{
		AppointmentID:       a.ID,
		DoctorID:            a.DoctorID,
		PatientID:           a.PatientID,
		DoctorName:          orPlaceholder(a.DoctorName()),
		PatientName:         orPlaceholder(a.PatientName()),
		AppointmentDateTime: a.AppointmentDateTime,
		DisplayDateTime:     timefmt.Table(a.AppointmentDateTime, loc),
		Status:              a.Status,
	}
	if images != nil {
		row.DoctorImageURL = images.DoctorImageURL(a.DoctorID)
		row.PatientImageURL = images.PatientImageURL(a.PatientID)
	}
	return row
}
