package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
	"github.com/jwalitptl/admin-dashboard/internal/service/notification"
	"github.com/jwalitptl/admin-dashboard/pkg/messaging"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
)

// Event types published after an action.
const (
	EventAccepted     = "appointment.accepted"
	EventCanceled     = "appointment.canceled"
	EventActionFailed = "appointment.action_failed"
)

// Stage names the remote step an action failed at.
type Stage string

const (
	StageStatus       Stage = "status_update"
	StageNotification Stage = "notification"
)

// Dashboard is the view-state the workflow mutates and resyncs.
type Dashboard interface {
	Take(id model.ID, outcome model.Outcome) (dashboard.Transition, error)
	Settle(id model.ID)
	Release(id model.ID)
	SetPopup(p model.Popup)
	Refresh(ctx context.Context) error
}

// Result is what one accept/cancel did.
type Result struct {
	AppointmentID model.ID             `json:"appointmentId"`
	Outcome       model.Outcome        `json:"outcome"`
	Succeeded     bool                 `json:"succeeded"`
	Popup         model.Popup          `json:"popup"`
	Transition    dashboard.Transition `json:"transition"`

	// StatusCommitted is true once the backend accepted the new status, even
	// if a later step failed and the action is reported as failed.
	StatusCommitted bool                    `json:"statusCommitted"`
	FailedStage     Stage                   `json:"failedStage,omitempty"`
	Resynced        bool                    `json:"resynced"`
	SMS             *notification.SMSResult `json:"sms,omitempty"`
	Err             error                   `json:"-"`
}

// ActionEvent is the broker payload for a finished action.
type ActionEvent struct {
	AppointmentID       model.ID                `json:"appointmentId"`
	DoctorID            model.ID                `json:"doctorId"`
	PatientID           model.ID                `json:"patientId"`
	AppointmentDateTime string                  `json:"appointmentDateTime,omitempty"`
	Outcome             model.Outcome           `json:"outcome"`
	Status              model.AppointmentStatus `json:"status"`
	StatusCommitted     bool                    `json:"statusCommitted"`
	FailedStage         Stage                   `json:"failedStage,omitempty"`
	SMSStatus           notification.SMSStatus  `json:"smsStatus,omitempty"`
}

type Service struct {
	dash     Dashboard
	repo     repository.AppointmentRepository
	notifSvc notification.Service
	broker   messaging.Broker
	channel  string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

type Options struct {
	Broker  messaging.Broker
	Channel string
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

func NewService(dash Dashboard, repo repository.AppointmentRepository, notifSvc notification.Service, opts Options) *Service {
	broker := opts.Broker
	if broker == nil {
		broker = messaging.Nop{}
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		dash:     dash,
		repo:     repo,
		notifSvc: notifSvc,
		broker:   broker,
		channel:  opts.Channel,
		metrics:  m,
		logger:   opts.Logger.With().Str("service", "appointment").Logger(),
		now:      time.Now,
	}
}

func (s *Service) Accept(ctx context.Context, id model.ID) (*Result, error) {
	return s.PerformAction(ctx, id, model.OutcomeAccept)
}

func (s *Service) Cancel(ctx context.Context, id model.ID) (*Result, error) {
	return s.PerformAction(ctx, id, model.OutcomeCancel)
}

// PerformAction moves a pending appointment to the outcome's status. The
// local view changes first; then, in order, the status update, the
// notification record and the patient SMS are attempted once each. A failed
// status update or notification write resyncs the view from the backend and
// is reported as a failed Result. SMS problems never fail the action.
//
// The returned error is non-nil only when the action could not start, e.g.
// dashboard.ErrNotPending. Remote calls ignore cancellation of ctx.
func (s *Service) PerformAction(ctx context.Context, id model.ID, outcome model.Outcome) (*Result, error) {
	if outcome != model.OutcomeAccept && outcome != model.OutcomeCancel {
		return nil, fmt.Errorf("unknown outcome %q", outcome)
	}

	s.dash.SetPopup(model.HiddenPopup())

	transition, err := s.dash.Take(id, outcome)
	if err != nil {
		s.metrics.Actions.WithLabelValues(string(outcome), "rejected").Inc()
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	appt := transition.Appointment
	res := &Result{
		AppointmentID: id,
		Outcome:       outcome,
		Transition:    transition,
	}
	logger := s.logger.With().
		Str("appointment_id", id.String()).
		Str("outcome", string(outcome)).
		Logger()

	if err := s.repo.UpdateStatus(ctx, id, outcome.Status()); err != nil {
		s.fail(ctx, logger, res, StageStatus, err)
		return res, nil
	}
	res.StatusCommitted = true
	s.dash.Settle(id)

	if err := s.notifSvc.Notify(ctx, appt, outcome); err != nil {
		s.fail(ctx, logger, res, StageNotification, err)
		return res, nil
	}

	sms := s.notifSvc.Dispatch(ctx, appt, outcome)
	res.SMS = &sms

	res.Succeeded = true
	res.Popup = model.SuccessPopup(outcome.SuccessMessage())
	s.dash.SetPopup(res.Popup)
	s.metrics.Actions.WithLabelValues(string(outcome), "succeeded").Inc()

	logger.Info().Str("sms", string(sms.Status)).Msg("appointment updated")
	s.publish(ctx, logger, res, appt)
	return res, nil
}

// fail resyncs the pending view from the backend and reports failure. A
// failed resync leaves the optimistic view in place.
func (s *Service) fail(ctx context.Context, logger zerolog.Logger, res *Result, stage Stage, cause error) {
	res.FailedStage = stage
	res.Err = cause

	ev := logger.Error().Err(cause).Str("stage", string(stage))
	if res.StatusCommitted {
		ev = ev.Bool("status_committed", true)
	}
	ev.Msg("Error updating appointment")

	if !res.StatusCommitted {
		s.dash.Release(res.AppointmentID)
	}
	s.metrics.Resyncs.Inc()
	if err := s.dash.Refresh(ctx); err != nil {
		logger.Error().Err(err).Msg("resync after failed action did not complete")
	} else {
		res.Resynced = true
	}

	res.Popup = model.ErrorPopup(model.FailureMessage)
	s.dash.SetPopup(res.Popup)
	s.metrics.Actions.WithLabelValues(string(res.Outcome), "failed").Inc()

	s.publish(ctx, logger, res, res.Transition.Appointment)
}

func (s *Service) publish(ctx context.Context, logger zerolog.Logger, res *Result, appt model.Appointment) {
	if s.channel == "" {
		return
	}

	eventType := EventActionFailed
	if res.Succeeded {
		eventType = EventAccepted
		if res.Outcome == model.OutcomeCancel {
			eventType = EventCanceled
		}
	}

	payload := ActionEvent{
		AppointmentID:       appt.ID,
		DoctorID:            appt.DoctorID,
		PatientID:           appt.PatientID,
		AppointmentDateTime: appt.AppointmentDateTime,
		Outcome:             res.Outcome,
		Status:              res.Outcome.Status(),
		StatusCommitted:     res.StatusCommitted,
		FailedStage:         res.FailedStage,
	}
	if res.SMS != nil {
		payload.SMSStatus = res.SMS.Status
	}

	if err := s.broker.Publish(ctx, s.channel, messaging.NewMessage(eventType, payload, s.now())); err != nil {
		logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish event")
	}
}
