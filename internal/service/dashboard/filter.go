package dashboard

import (
	"strings"
	"time"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

// Filter keeps the appointments whose doctor name, patient name, status or
// locale date-time contains query, ignoring case. An empty query keeps all.
func Filter(appointments []model.Appointment, query string, loc *time.Location) []model.Appointment {
	q := strings.ToLower(query)
	out := make([]model.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if matches(a, q, loc) {
			out = append(out, a)
		}
	}
	return out
}

func matches(a model.Appointment, q string, loc *time.Location) bool {
	fields := [...]string{
		a.DoctorName(),
		a.PatientName(),
		string(a.Status),
		timefmt.Locale(a.AppointmentDateTime, loc),
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
