package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/admin-dashboard/internal/model"
	"github.com/jwalitptl/admin-dashboard/internal/service/dashboard"
	"github.com/jwalitptl/admin-dashboard/internal/service/notification"
	"github.com/jwalitptl/admin-dashboard/pkg/messaging"
	"github.com/jwalitptl/admin-dashboard/pkg/metrics"
	"github.com/jwalitptl/admin-dashboard/pkg/timefmt"
)

var errRemote = errors.New("remote failure")

// backend fakes the clinic backend and records every call in order.
type backend struct {
	mu        sync.Mutex
	calls     []string
	appts     []model.Appointment
	listErr   error
	updateErr error
	notifyErr error
	smsErr    error
	sms       []*model.SMSRequest

	// hooks run outside the lock
	afterList    func()
	beforeUpdate func(id model.ID)
}

func (b *backend) record(call string) {
	b.calls = append(b.calls, call)
}

func (b *backend) List(ctx context.Context) ([]model.Appointment, error) {
	b.mu.Lock()
	b.record("list")
	if err := ctx.Err(); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	if b.listErr != nil {
		b.mu.Unlock()
		return nil, b.listErr
	}
	out := append([]model.Appointment(nil), b.appts...)
	hook := b.afterList
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (b *backend) UpdateStatus(ctx context.Context, id model.ID, status model.AppointmentStatus) error {
	if b.beforeUpdate != nil {
		b.beforeUpdate(id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(fmt.Sprintf("status:%s:%s", id, status))
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.updateErr != nil {
		return b.updateErr
	}
	for i := range b.appts {
		if b.appts[i].ID == id {
			b.appts[i].Status = status
		}
	}
	return nil
}

func (b *backend) Save(ctx context.Context, n *model.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("notification:" + string(n.Type))
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.notifyErr
}

func (b *backend) Send(ctx context.Context, req *model.SMSRequest) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("sms:" + req.DestinationSMSPhoneNumber)
	b.sms = append(b.sms, req)
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.smsErr
}

func (b *backend) smsCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sms)
}

func (b *backend) takeCalls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.calls
	b.calls = nil
	return out
}

func (b *backend) status(id model.ID) model.AppointmentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, a := range b.appts {
		if a.ID == id {
			return a.Status
		}
	}
	return ""
}

type doctors struct{}

func (doctors) Get(_ context.Context, id model.ID) (*model.Doctor, error) {
	return &model.Doctor{ID: id, FullName: "Dr. Nimal Perera"}, nil
}

func (doctors) List(context.Context) ([]model.Doctor, error) { return nil, nil }

type patients map[model.ID]string

func (p patients) Get(_ context.Context, id model.ID) (*model.Patient, error) {
	return &model.Patient{ID: id, FullName: "Patient " + id.String(), PhoneNumber: p[id]}, nil
}

type recordingBroker struct {
	mu       sync.Mutex
	messages []messaging.Message
	err      error
}

func (r *recordingBroker) Publish(_ context.Context, _ string, msg interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg.(messaging.Message))
	return r.err
}

func (r *recordingBroker) Close() error { return nil }

type harness struct {
	svc     *Service
	dash    *dashboard.Service
	backend *backend
	broker  *recordingBroker
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ist := timefmt.Zone("IST", 330)

	b := &backend{appts: []model.Appointment{
		{ID: "1", DoctorID: "d1", PatientID: "p1", AppointmentDateTime: "2025-03-10T09:30:00", Status: model.AppointmentStatusPending},
		{ID: "2", DoctorID: "d1", PatientID: "p2", AppointmentDateTime: "2025-03-11T15:00:00", Status: model.AppointmentStatusPending},
		{ID: "3", DoctorID: "d1", PatientID: "p3", Status: model.AppointmentStatusPending},
		{ID: "4", DoctorID: "d1", PatientID: "p1", Status: model.AppointmentStatusAccepted},
		{ID: "5", DoctorID: "d1", PatientID: "p2", Status: model.AppointmentStatusAccepted},
		{ID: "6", DoctorID: "d1", PatientID: "p3", Status: model.AppointmentStatusCanceled},
	}}
	phones := patients{"p1": "0771234567", "p2": "94771234568", "p3": "12345"}

	m := metrics.NewNop()
	dash := dashboard.NewService(b, doctors{}, phones, nil, dashboard.Config{Location: ist}, m, zerolog.Nop())
	require.NoError(t, dash.Refresh(context.Background()))

	notif := notification.NewService(b, b, nil, notification.Config{Location: ist}, m, zerolog.Nop())
	broker := &recordingBroker{}
	svc := NewService(dash, b, notif, Options{Broker: broker, Channel: "events", Metrics: m, Logger: zerolog.Nop()})

	b.takeCalls()
	return &harness{svc: svc, dash: dash, backend: b, broker: broker, metrics: m}
}

func pendingIDs(d *dashboard.Service) []model.ID {
	var ids []model.ID
	for _, a := range d.State().Pending() {
		ids = append(ids, a.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestAcceptSuccess(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"status:1:accepted",
		"notification:accepted",
		"sms:+94771234567",
	}, h.backend.takeCalls())

	assert.True(t, res.Succeeded)
	assert.True(t, res.StatusCommitted)
	assert.False(t, res.Resynced)
	assert.Empty(t, res.FailedStage)
	assert.Equal(t, model.Popup{Type: model.PopupSuccess, Message: "Patient Appointment Accepted and SMS sent"}, res.Popup)
	assert.Equal(t, res.Popup, h.dash.Popup())
	require.NotNil(t, res.SMS)
	assert.Equal(t, notification.SMSSent, res.SMS.Status)

	assert.Equal(t, dashboard.Counters{Pending: 3, Accepted: 2, Canceled: 1}, res.Transition.Before)
	assert.Equal(t, dashboard.Counters{Pending: 2, Accepted: 3, Canceled: 1}, res.Transition.After)
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))

	assert.Equal(t,
		"Dear patient, your appointment with Dr. Nimal Perera has been accepted\n🗓️Monday, March 10, 2025\n⏱️09:30 AM (IST)",
		h.backend.sms[0].SMSMessage)

	require.Len(t, h.broker.messages, 1)
	assert.Equal(t, EventAccepted, h.broker.messages[0].Type)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Actions.WithLabelValues("accept", "succeeded")))
}

func TestCancelSuccess(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Cancel(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"status:2:canceled",
		"notification:rejected",
		"sms:+94771234568",
	}, h.backend.takeCalls())
	assert.Equal(t, "Patient Appointment Canceled and SMS sent", res.Popup.Message)
	assert.Equal(t, dashboard.Counters{Pending: 2, Accepted: 2, Canceled: 2}, h.dash.Overview().Counters)
	assert.Contains(t, h.backend.sms[0].SMSMessage, "has been canceled")
	assert.Contains(t, h.backend.sms[0].SMSMessage, "\nPlease contact us to reschedule.")
	assert.Equal(t, EventCanceled, h.broker.messages[0].Type)
}

func TestStatusUpdateFailureResyncs(t *testing.T) {
	h := newHarness(t)
	h.backend.updateErr = errRemote

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"status:1:accepted", "list"}, h.backend.takeCalls(),
		"no notification or SMS after a failed status update")

	assert.False(t, res.Succeeded)
	assert.False(t, res.StatusCommitted)
	assert.True(t, res.Resynced)
	assert.Equal(t, StageStatus, res.FailedStage)
	assert.ErrorIs(t, res.Err, errRemote)
	assert.Equal(t, model.Popup{Type: model.PopupError, Message: "Failed to update appointment."}, h.dash.Popup())

	// the pending set matches the authoritative list again
	assert.Equal(t, []model.ID{"1", "2", "3"}, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 3, Accepted: 2, Canceled: 1}, h.dash.Overview().Counters)
	assert.Equal(t, float64(1), testutil.ToFloat64(h.metrics.Resyncs))

	require.Len(t, h.broker.messages, 1)
	assert.Equal(t, EventActionFailed, h.broker.messages[0].Type)
}

func TestNotificationFailureReportsFailureAfterCommit(t *testing.T) {
	h := newHarness(t)
	h.backend.notifyErr = errRemote

	res, err := h.svc.Cancel(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"status:1:canceled", "notification:rejected", "list"}, h.backend.takeCalls())

	assert.False(t, res.Succeeded)
	assert.True(t, res.StatusCommitted, "backend kept the new status")
	assert.Equal(t, StageNotification, res.FailedStage)
	assert.Equal(t, model.PopupError, res.Popup.Type)
	assert.Nil(t, res.SMS)

	// resync reflects the committed status rather than restoring the row
	assert.Equal(t, model.AppointmentStatusCanceled, h.backend.status("1"))
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 2, Accepted: 2, Canceled: 2}, h.dash.Overview().Counters)

	var payload ActionEvent
	require.IsType(t, ActionEvent{}, h.broker.messages[0].Payload)
	payload = h.broker.messages[0].Payload.(ActionEvent)
	assert.True(t, payload.StatusCommitted)
	assert.Equal(t, StageNotification, payload.FailedStage)
}

func TestSMSFailureStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.backend.smsErr = errRemote

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"status:1:accepted", "notification:accepted", "sms:+94771234567"}, h.backend.takeCalls())
	assert.True(t, res.Succeeded)
	assert.Equal(t, model.PopupSuccess, res.Popup.Type)
	assert.Equal(t, notification.SMSFailed, res.SMS.Status)
	assert.False(t, res.Resynced)
	assert.Equal(t, model.AppointmentStatusAccepted, h.backend.status("1"))
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))
}

func TestInvalidPhoneSkipsSMS(t *testing.T) {
	h := newHarness(t)

	res, err := h.svc.Accept(context.Background(), "3")
	require.NoError(t, err)

	assert.Equal(t, []string{"status:3:accepted", "notification:accepted"}, h.backend.takeCalls())
	assert.True(t, res.Succeeded)
	assert.Equal(t, notification.SMSSkipped, res.SMS.Status)
	assert.Equal(t, "Patient Appointment Accepted and SMS sent", res.Popup.Message)
}

func TestNotPendingMakesNoRemoteCalls(t *testing.T) {
	h := newHarness(t)
	before := h.dash.Overview().Counters

	_, err := h.svc.Accept(context.Background(), "4")
	assert.ErrorIs(t, err, dashboard.ErrNotPending)
	assert.Empty(t, h.backend.takeCalls())
	assert.Equal(t, before, h.dash.Overview().Counters)

	_, err = h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)
	h.backend.takeCalls()

	_, err = h.svc.Cancel(context.Background(), "1")
	assert.ErrorIs(t, err, dashboard.ErrNotPending)
	assert.Empty(t, h.backend.takeCalls())
}

func TestUnknownOutcome(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.PerformAction(context.Background(), "1", "reschedule")
	assert.Error(t, err)
	assert.Len(t, h.dash.State().Pending(), 3)
}

func TestFailedResyncKeepsOptimisticState(t *testing.T) {
	h := newHarness(t)
	h.backend.updateErr = errRemote
	h.backend.listErr = errRemote

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)

	assert.False(t, res.Resynced)
	assert.Equal(t, model.PopupError, res.Popup.Type)
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))
}

func TestCallerCancellationDoesNotAbortAction(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := h.svc.Accept(ctx, "1")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Len(t, h.backend.takeCalls(), 3)
}

func TestBrokerFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.broker.err = errRemote

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
}

func TestConcurrentActionsOnDifferentIDs(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for _, id := range []model.ID{"1", "2", "3"} {
		wg.Add(1)
		go func(id model.ID) {
			defer wg.Done()
			res, err := h.svc.Accept(context.Background(), id)
			assert.NoError(t, err)
			assert.True(t, res.Succeeded)
		}(id)
	}
	wg.Wait()

	assert.Empty(t, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 0, Accepted: 5, Canceled: 1}, h.dash.Overview().Counters)
}

func TestOptimisticUpdateHappensBeforeStatusUpdate(t *testing.T) {
	tests := []struct {
		outcome model.Outcome
		want    dashboard.Counters
	}{
		{model.OutcomeAccept, dashboard.Counters{Pending: 2, Accepted: 3, Canceled: 1}},
		{model.OutcomeCancel, dashboard.Counters{Pending: 2, Accepted: 2, Canceled: 2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			h := newHarness(t)

			var seenPending []model.ID
			var seenCounters dashboard.Counters
			h.backend.beforeUpdate = func(model.ID) {
				seenPending = pendingIDs(h.dash)
				seenCounters = h.dash.State().Counters()
			}

			res, err := h.svc.PerformAction(context.Background(), "1", tt.outcome)
			require.NoError(t, err)
			require.True(t, res.Succeeded)

			assert.Equal(t, []model.ID{"2", "3"}, seenPending)
			assert.Equal(t, tt.want, seenCounters)
		})
	}
}

// gateFirstList blocks the first List after it has read the backend until
// release is closed. listed is closed once that read happened.
func gateFirstList(b *backend) (listed, release chan struct{}) {
	listed = make(chan struct{})
	release = make(chan struct{})
	var once sync.Once
	b.afterList = func() {
		once.Do(func() {
			close(listed)
			<-release
		})
	}
	return listed, release
}

func TestStaleRefreshDoesNotRelistCommittedAction(t *testing.T) {
	h := newHarness(t)
	listed, release := gateFirstList(h.backend)

	refreshed := make(chan error, 1)
	go func() { refreshed <- h.dash.RefreshAll(context.Background()) }()
	<-listed

	res, err := h.svc.Accept(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	close(release)
	require.NoError(t, <-refreshed)

	assert.Equal(t, model.AppointmentStatusAccepted, h.backend.status("1"))
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 2, Accepted: 3, Canceled: 1}, h.dash.Overview().Counters)

	_, err = h.svc.Accept(context.Background(), "1")
	assert.ErrorIs(t, err, dashboard.ErrNotPending)
	assert.Equal(t, 1, h.backend.smsCount())

	// the next snapshot is authoritative and agrees
	require.NoError(t, h.dash.Refresh(context.Background()))
	assert.Equal(t, []model.ID{"2", "3"}, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 2, Accepted: 3, Canceled: 1}, h.dash.Overview().Counters)
}

func TestFailedActionDuringStaleRefreshRestoresRow(t *testing.T) {
	h := newHarness(t)
	h.backend.updateErr = errRemote
	listed, release := gateFirstList(h.backend)

	refreshed := make(chan error, 1)
	go func() { refreshed <- h.dash.RefreshAll(context.Background()) }()
	<-listed

	acted := make(chan *Result, 1)
	go func() {
		res, err := h.svc.Accept(context.Background(), "1")
		assert.NoError(t, err)
		acted <- res
	}()

	close(release)
	require.NoError(t, <-refreshed)
	res := <-acted

	assert.False(t, res.Succeeded)
	assert.True(t, res.Resynced)
	assert.Equal(t, []model.ID{"1", "2", "3"}, pendingIDs(h.dash))
	assert.Equal(t, dashboard.Counters{Pending: 3, Accepted: 2, Canceled: 1}, h.dash.Overview().Counters)
	assert.Zero(t, h.backend.smsCount())
}
