package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/admin-dashboard/internal/email"
	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/repository"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
	"github.com/jwalitptl/admin-dashboard/pkg/phone"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

type SMSStatus string

const (
	SMSSent    SMSStatus = "sent"
	SMSSkipped SMSStatus = "skipped"
	SMSFailed  SMSStatus = "failed"
)

// SMSResult describes what happened to the patient SMS. It is informational
// only; no outcome of the SMS fails an action.
type SMSResult struct {
	Status SMSStatus `json:"status"`
	Phone  string    `json:"phone,omitempty"`
	Error  string    `json:"error,omitempty"`
}

type Service interface {
	// Notify persists the patient notification record for the outcome.
	Notify(ctx context.Context, appt model.Appointment, outcome model.Outcome) error
	// Dispatch sends the patient SMS at most once.
	Dispatch(ctx context.Context, appt model.Appointment, outcome model.Outcome) SMSResult
}

type Config struct {
	Location *time.Location
	// AlertRecipients receive a mail whenever an SMS is skipped or fails.
	AlertRecipients []string
}

type service struct {
	repo     repository.NotificationRepository
	sms      repository.SMSGateway
	emailSvc email.Service
	alertTo  []string
	loc      *time.Location
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	repo repository.NotificationRepository,
	sms repository.SMSGateway,
	emailSvc email.Service,
	cfg Config,
	m *metrics.Metrics,
	logger zerolog.Logger,
) Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	if emailSvc == nil {
		emailSvc = email.Nop{}
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &service{
		repo:     repo,
		sms:      sms,
		emailSvc: emailSvc,
		alertTo:  cfg.AlertRecipients,
		loc:      loc,
		metrics:  m,
		logger:   logger.With().Str("service", "notification").Logger(),
		now:      time.Now,
	}
}

// BuildRecord assembles the notification saved after an action. DateTime is
// the wall clock in loc written with a Z suffix, which is what the
// notification backend expects.
func BuildRecord(appt model.Appointment, outcome model.Outcome, now time.Time, loc *time.Location) *model.Notification {
	return &model.Notification{
		PatientID:           appt.PatientID,
		DoctorID:            appt.DoctorID,
		AppointmentDateTime: appt.AppointmentDateTime,
		Text:                outcome.NotificationText(),
		Type:                outcome.NotificationType(),
		Status:              model.NotificationStatusUnread,
		DateTime:            timefmt.WallClockISO(now, loc),
	}
}

// ComposeSMS renders the patient SMS body. A missing doctor name is left blank.
func ComposeSMS(appt model.Appointment, outcome model.Outcome, loc *time.Location) string {
	parts := timefmt.Split(appt.AppointmentDateTime, loc)

	var b strings.Builder
	fmt.Fprintf(&b, "Dear patient, your appointment with %s has been %s\n🗓️%s, %s\n⏱️%s (IST)",
		appt.DoctorName(), outcome.Past(), parts.Day, parts.Date, parts.Time)
	if outcome == model.OutcomeCancel {
		b.WriteString("\nPlease contact us to reschedule.")
	}
	return b.String()
}

func (s *service) Notify(ctx context.Context, appt model.Appointment, outcome model.Outcome) error {
	record := BuildRecord(appt, outcome, s.now(), s.loc)
	if err := s.repo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func (s *service) Dispatch(ctx context.Context, appt model.Appointment, outcome model.Outcome) SMSResult {
	logger := s.logger.With().Str("appointment_id", appt.ID.String()).Logger()

	raw := appt.PatientPhone()
	number, ok := phone.Format(raw)
	if !ok {
		logger.Error().Str("phone", raw).Msg("Invalid phone number format")
		s.metrics.SMS.WithLabelValues(string(SMSSkipped)).Inc()
		res := SMSResult{Status: SMSSkipped, Error: "invalid phone number format"}
		s.alert(ctx, appt, outcome, res)
		return res
	}

	req := &model.SMSRequest{
		DestinationSMSPhoneNumber: number,
		SMSMessage:                ComposeSMS(appt, outcome, s.loc),
	}
	if err := s.sms.Send(ctx, req); err != nil {
		logger.Error().Err(err).Str("phone", number).Msg("Error sending SMS")
		s.metrics.SMS.WithLabelValues(string(SMSFailed)).Inc()
		res := SMSResult{Status: SMSFailed, Phone: number, Error: err.Error()}
		s.alert(ctx, appt, outcome, res)
		return res
	}

	s.metrics.SMS.WithLabelValues(string(SMSSent)).Inc()
	logger.Debug().Str("phone", number).Msg("sms sent")
	return SMSResult{Status: SMSSent, Phone: number}
}

// alert tells staff the patient was not texted. Failures are logged only.
func (s *service) alert(ctx context.Context, appt model.Appointment, outcome model.Outcome, res SMSResult) {
	if len(s.alertTo) == 0 {
		return
	}

	subject := fmt.Sprintf("SMS %s for appointment %s", res.Status, appt.ID)
	body := fmt.Sprintf(
		"The appointment was %s but the patient SMS was %s.\n\nAppointment: %s\nPatient: %s\nPhone on file: %q\nDoctor: %s\nScheduled: %s\nReason: %s\n",
		outcome.Past(), res.Status,
		appt.ID, orUnknown(appt.PatientName()), appt.PatientPhone(), orUnknown(appt.DoctorName()),
		timefmt.Table(appt.AppointmentDateTime, s.loc), res.Error,
	)

	for _, to := range s.alertTo {
		if err := s.emailSvc.SendCustom(ctx, to, subject, body); err != nil {
			s.logger.Warn().Err(err).Str("to", to).Msg("failed to send staff alert")
		}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
