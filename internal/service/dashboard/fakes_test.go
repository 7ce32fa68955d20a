package dashboard

import (
	"context"
	"errors"
	"sync"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

var errBackend = errors.New("backend down")

type fakeAppointments struct {
	mu    sync.Mutex
	list  []model.Appointment
	err   error
	calls int
}

func (f *fakeAppointments) List(context.Context) ([]model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Appointment(nil), f.list...), nil
}

func (f *fakeAppointments) UpdateStatus(context.Context, model.ID, model.AppointmentStatus) error {
	return nil
}

type fakeDoctors struct {
	mu      sync.Mutex
	byID    map[model.ID]model.Doctor
	listErr error
	calls   int
}

func (f *fakeDoctors) Get(_ context.Context, id model.ID) (*model.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d, ok := f.byID[id]
	if !ok {
		return nil, errBackend
	}
	return &d, nil
}

func (f *fakeDoctors) List(context.Context) ([]model.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Doctor, 0, len(f.byID))
	for _, d := range f.byID {
		out = append(out, d)
	}
	return out, nil
}

type fakePatients struct {
	mu    sync.Mutex
	byID  map[model.ID]model.Patient
	calls int
}

func (f *fakePatients) Get(_ context.Context, id model.ID) (*model.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	p, ok := f.byID[id]
	if !ok {
		return nil, errBackend
	}
	return &p, nil
}

type fakeImages struct{}

func (fakeImages) DoctorImageURL(id model.ID) string  { return "http://img/doctors/" + id.String() }
func (fakeImages) PatientImageURL(id model.ID) string { return "http://img/patients/" + id.String() }
