package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
)

// DoctorsError is the state error shown when the doctor directory cannot be loaded.
const DoctorsError = "Error fetching doctors"

const defaultEnrichConcurrency = 8

type Config struct {
	Location          *time.Location
	EnrichConcurrency int
}

// Service loads the authoritative snapshot from the clinic backend and owns
// the dashboard State.
type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	images       repository.ImageLocator

	state       *State
	loc         *time.Location
	concurrency int
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time

	// refreshes apply in the order they started
	refreshMu sync.Mutex
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	patients repository.PatientRepository,
	images repository.ImageLocator,
	cfg Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	concurrency := cfg.EnrichConcurrency
	if concurrency <= 0 {
		concurrency = defaultEnrichConcurrency
	}
	if m == nil {
		m = metrics.NewNop()
	}

	return &Service{
		appointments: appointments,
		doctors:      doctors,
		patients:     patients,
		images:       images,
		state:        NewState(),
		loc:          loc,
		concurrency:  concurrency,
		metrics:      m,
		logger:       logger.With().Str("service", "dashboard").Logger(),
		now:          time.Now,
	}
}

func (s *Service) State() *State { return s.state }

func (s *Service) Location() *time.Location { return s.loc }

// Refresh replaces the pending set and counters with the backend's current
// list. Counters come from the raw list; only pending rows are enriched. On
// failure the state is left untouched.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	since := s.state.Generation()
	appointments, err := s.appointments.List(ctx)
	if err != nil {
		s.metrics.Refreshes.WithLabelValues("appointments", "error").Inc()
		s.logger.Error().Err(err).Msg("Error fetching appointments")
		return fmt.Errorf("failed to fetch appointments: %w", err)
	}

	counts := CountByStatus(appointments)

	pending := make([]model.Appointment, 0, counts.Pending)
	for _, a := range appointments {
		if a.Status == model.AppointmentStatusPending {
			pending = append(pending, a)
		}
	}

	enriched := s.enrichAll(ctx, pending)

	installed := s.state.Replace(enriched, counts, s.now(), since)
	s.metrics.Refreshes.WithLabelValues("appointments", "ok").Inc()
	s.metrics.PendingGauge.Set(float64(installed.Pending))

	s.logger.Debug().
		Int("pending", installed.Pending).
		Int("accepted", installed.Accepted).
		Int("canceled", installed.Canceled).
		Msg("appointments refreshed")
	return nil
}

func (s *Service) enrichAll(ctx context.Context, pending []model.Appointment) []model.Appointment {
	out := make([]model.Appointment, len(pending))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, appt := range pending {
		i, appt := i, appt
		g.Go(func() error {
			out[i] = s.enrich(ctx, appt)
			return nil
		})
	}
	// enrich never fails the group
	_ = g.Wait()

	return out
}

// enrich looks up the doctor then the patient. If either lookup fails the row
// carries no details at all.
func (s *Service) enrich(ctx context.Context, appt model.Appointment) model.Appointment {
	appt.DoctorDetails, appt.PatientDetails = nil, nil

	doctor, err := s.doctors.Get(ctx, appt.DoctorID)
	if err != nil {
		s.enrichFailed(appt, "doctor", err)
		return appt
	}
	patient, err := s.patients.Get(ctx, appt.PatientID)
	if err != nil {
		s.enrichFailed(appt, "patient", err)
		return appt
	}

	appt.DoctorDetails = doctor
	appt.PatientDetails = patient
	return appt
}

func (s *Service) enrichFailed(appt model.Appointment, kind string, err error) {
	s.metrics.EnrichFailures.Inc()
	s.logger.Warn().
		Err(err).
		Str("appointment_id", appt.ID.String()).
		Str("lookup", kind).
		Msg("listing appointment without details")
}

// RefreshDoctors loads the doctor directory and its counter. A failure sets
// the state error until the next successful load.
func (s *Service) RefreshDoctors(ctx context.Context) error {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		s.metrics.Refreshes.WithLabelValues("doctors", "error").Inc()
		s.state.SetError(DoctorsError)
		s.logger.Error().Err(err).Msg(DoctorsError)
		return fmt.Errorf("failed to fetch doctors: %w", err)
	}

	s.state.SetDoctors(doctors)
	s.state.SetError("")
	s.metrics.Refreshes.WithLabelValues("doctors", "ok").Inc()
	return nil
}

// RefreshAll reloads appointments and doctors concurrently and returns the
// first failure.
func (s *Service) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Refresh(ctx) })
	g.Go(func() error { return s.RefreshDoctors(ctx) })
	return g.Wait()
}

func (s *Service) Overview() Overview {
	return s.state.Overview()
}

// Pending returns the table rows matching query.
func (s *Service) Pending(query string) []Row {
	filtered := Filter(s.state.Pending(), query, s.loc)
	rows := make([]Row, 0, len(filtered))
	for _, a := range filtered {
		rows = append(rows, NewRow(a, s.loc, s.images))
	}
	return rows
}

func (s *Service) Doctors() []model.Doctor {
	return s.state.Doctors()
}

func (s *Service) Popup() model.Popup {
	return s.state.Popup()
}

func (s *Service) SetPopup(p model.Popup) {
	s.state.SetPopup(p)
}

// Take applies the optimistic transition for an action.
func (s *Service) Take(id model.ID, outcome model.Outcome) (Transition, error) {
	t, err := s.state.Take(id, outcome)
	if err == nil {
		s.metrics.PendingGauge.Set(float64(t.After.Pending))
	}
	return t, err
}

// Settle marks id's status change as committed by the backend.
func (s *Service) Settle(id model.ID) {
	s.state.Settle(id)
}

// Release undoes the bookkeeping of a Take whose status update failed.
func (s *Service) Release(id model.ID) {
	s.state.Release(id)
}
