package remote

import (
	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
)

type appointmentRepository struct {
	client *Client
}

type doctorRepository struct {
	client *Client
}

type patientRepository struct {
	client *Client
}

type notificationRepository struct {
	client *Client
}

type smsGateway struct {
	client *Client
}

func NewAppointmentRepository(client *Client) repository.AppointmentRepository {
	return &appointmentRepository{client: client}
}

func NewDoctorRepository(client *Client) repository.DoctorRepository {
	return &doctorRepository{client: client}
}

func NewPatientRepository(client *Client) repository.PatientRepository {
	return &patientRepository{client: client}
}

func NewNotificationRepository(client *Client) repository.NotificationRepository {
	return &notificationRepository{client: client}
}

func NewSMSGateway(client *Client) repository.SMSGateway {
	return &smsGateway{client: client}
}

// Images are served by the backend directly; these only build the URLs.

func (c *Client) DoctorImageURL(id model.ID) string {
	return c.resolve(c.paths.DoctorImage, id)
}

func (c *Client) PatientImageURL(id model.ID) string {
	return c.resolve(c.paths.PatientImage, id)
}

var _ repository.ImageLocator = (*Client)(nil)
