package remote

import (
	"context"
	"net/http"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

func (r *appointmentRepository) List(ctx context.Context) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := r.client.do(ctx, "list_appointments", http.MethodGet,
		r.client.resolve(r.client.paths.Appointments, ""), nil, &appointments)
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) error {
	return r.client.do(ctx, "update_appointment_status", http.MethodPut,
		r.client.resolve(r.client.paths.Appointment, id), model.StatusUpdate{Status: status}, nil)
}
