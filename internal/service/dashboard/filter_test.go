package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

var ist = timefmt.Zone("IST", 330)

func sampleRows() []model.Appointment {
	return []model.Appointment{
		{
			ID:                  "1",
			AppointmentDateTime: "2025-03-10T09:30:00",
			Status:              model.AppointmentStatusPending,
			DoctorDetails:       &model.Doctor{FullName: "Dr. Nimal Perera"},
			PatientDetails:      &model.Patient{FullName: "Kamala Silva"},
		},
		{
			ID:                  "2",
			AppointmentDateTime: "2025-04-01T14:05:00",
			Status:              model.AppointmentStatusPending,
			DoctorDetails:       &model.Doctor{FullName: "Dr. Ayesha Fernando"},
			PatientDetails:      &model.Patient{FullName: "Ruwan Jayasuriya"},
		},
		{
			ID:     "3",
			Status: model.AppointmentStatusPending,
		},
	}
}

func ids(list []model.Appointment) []model.ID {
	out := make([]model.ID, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	rows := sampleRows()

	cases := []struct {
		query string
		want  []model.ID
	}{
		{"", []model.ID{"1", "2", "3"}},
		{"nimal", []model.ID{"1"}},
		{"SILVA", []model.ID{"1"}},
		{"pend", []model.ID{"1", "2", "3"}},
		{"4/1/2025", []model.ID{"2"}},
		{"9:30:00 am", []model.ID{"1"}},
		{"2:05:00 PM", []model.ID{"2"}},
		{"nobody", []model.ID{}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Filter(rows, tc.query, ist)))
		})
	}
}

func TestFilterIsCaseInsensitiveAndIdempotent(t *testing.T) {
	rows := sampleRows()

	upper := Filter(rows, "PENDING", ist)
	lower := Filter(rows, "pending", ist)
	assert.Equal(t, ids(lower), ids(upper))
	assert.Equal(t, ids(upper), ids(Filter(upper, "PENDING", ist)))
}

func TestNewRow(t *testing.T) {
	rows := sampleRows()

	r := NewRow(rows[0], ist, fakeImages{})
	assert.Equal(t, "Dr. Nimal Perera", r.DoctorName)
	assert.Equal(t, "Kamala Silva", r.PatientName)
	assert.Equal(t, "2025-03-10 09:30 AM", r.DisplayDateTime)
	assert.Equal(t, "http://img/doctors/", r.DoctorImageURL)

	bare := NewRow(model.Appointment{ID: "3", DoctorID: "d", PatientID: "p"}, ist, nil)
	assert.Equal(t, "N/A", bare.DoctorName)
	assert.Equal(t, "N/A", bare.PatientName)
	assert.Equal(t, "N/A", bare.DisplayDateTime)
	assert.Empty(t, bare.DoctorImageURL)
}
