package repository

import (
	"context"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

// All repository interfaces in one file. Implementations talk to the clinic
// backend; this service owns no storage.
type (
	AppointmentRepository interface {
		List(ctx context.Context) ([]model.Appointment, error)
		UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) error
	}

	DoctorRepository interface {
		Get(ctx context.Context, id model.ID) (*model.Doctor, error)
		List(ctx context.Context) ([]model.Doctor, error)
	}

	PatientRepository interface {
		Get(ctx context.Context, id model.ID) (*model.Patient, error)
	}

	NotificationRepository interface {
		Save(ctx context.Context, notification *model.Notification) error
	}

	SMSGateway interface {
		Send(ctx context.Context, req *model.SMSRequest) error
	}

	// ImageLocator builds the image URLs shown next to doctor and patient names.
	ImageLocator interface {
		DoctorImageURL(id model.ID) string
		PatientImageURL(id model.ID) string
	}
)
