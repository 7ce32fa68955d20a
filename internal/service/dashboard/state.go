package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/jwalitptl/admin-dashboard/internal/model"
)

// ErrNotPending is returned when an action targets an id that is not in the
// locally held pending set.
var ErrNotPending = errors.New("appointment is not pending")

type Counters struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Canceled int `json:"canceled"`
	Doctors  int `json:"doctors"`
}

// CountByStatus counts the raw backend list. Doctors is left at zero.
func CountByStatus(appointments []model.Appointment) Counters {
	var c Counters
	for _, a := range appointments {
		switch a.Status {
		case model.AppointmentStatusPending:
			c.Pending++
		case model.AppointmentStatusAccepted:
			c.Accepted++
		case model.AppointmentStatusCanceled:
			c.Canceled++
		}
	}
	return c
}

// Transition records one optimistic pending -> terminal move.
type Transition struct {
	Appointment model.Appointment `json:"appointment"`
	Outcome     model.Outcome     `json:"outcome"`
	Before      Counters          `json:"before"`
	After       Counters          `json:"after"`
}

// State is the dashboard view-model. Every read returns a copy and every
// write goes through a method; nothing holds the lock across a remote call.
type State struct {
	mu          sync.RWMutex
	pending     []model.Appointment
	counters    Counters
	doctors     []model.Doctor
	popup       model.Popup
	err         string
	refreshedAt time.Time

	// gen advances on every Take and Settle. taken holds ids a snapshot must
	// not list as pending again.
	gen   uint64
	taken map[model.ID]takeMark
}

// takeMark tracks one taken id. settled is zero while the status update is
// in flight, else the generation at which the backend committed it.
type takeMark struct {
	outcome model.Outcome
	settled uint64
}

func NewState() *State {
	return &State{
		popup: model.HiddenPopup(),
		taken: make(map[model.ID]takeMark),
	}
}

// Generation is read before a snapshot fetch starts and passed to Replace.
func (s *State) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Replace installs a snapshot whose fetch started at generation since and
// returns the counters it installed. The doctor counter is kept. Ids taken
// locally stay out of the pending set while their action is in flight, and
// after it committed when the fetch may predate the commit; the counts are
// moved as Take moved them.
func (s *State) Replace(pending []model.Appointment, counts Counters, at time.Time, since uint64) Counters {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, m := range s.taken {
		if m.settled != 0 && m.settled <= since {
			delete(s.taken, id)
		}
	}

	kept := make([]model.Appointment, 0, len(pending))
	for _, a := range pending {
		m, ok := s.taken[a.ID]
		if !ok {
			kept = append(kept, a)
			continue
		}
		counts.Pending--
		switch m.outcome {
		case model.OutcomeAccept:
			counts.Accepted++
		case model.OutcomeCancel:
			counts.Canceled++
		}
	}

	s.pending = kept
	s.counters.Pending = counts.Pending
	s.counters.Accepted = counts.Accepted
	s.counters.Canceled = counts.Canceled
	s.refreshedAt = at
	return s.counters
}

// Settle records that the backend committed the status change for id.
func (s *State) Settle(id model.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.taken[id]
	if !ok {
		return
	}
	s.gen++
	m.settled = s.gen
	s.taken[id] = m
}

// Release forgets a take whose status update failed, so the next snapshot
// lists the appointment again if the backend still has it pending.
func (s *State) Release(id model.ID) {
	s.mu.Lock()
	delete(s.taken, id)
	s.mu.Unlock()
}

func (s *State) SetDoctors(doctors []model.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doctors = append([]model.Doctor(nil), doctors...)
	s.counters.Doctors = len(doctors)
}

func (s *State) SetError(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

func (s *State) SetPopup(p model.Popup) {
	s.mu.Lock()
	s.popup = p
	s.mu.Unlock()
}

// Take removes id from the pending set and moves one unit from the pending
// counter to the outcome's counter. A second Take on the same id fails with
// ErrNotPending; a refresh lists it again only after Release, or once a
// snapshot fetched after Settle shows it still pending.
func (s *State) Take(id model.ID, outcome model.Outcome) (Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.pending {
		if s.pending[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Transition{}, ErrNotPending
	}

	appt := s.pending[idx]
	before := s.counters

	s.gen++
	s.taken[id] = takeMark{outcome: outcome}

	s.pending = append(s.pending[:idx:idx], s.pending[idx+1:]...)
	s.counters.Pending--
	switch outcome {
	case model.OutcomeAccept:
		s.counters.Accepted++
	case model.OutcomeCancel:
		s.counters.Canceled++
	}

	return Transition{
		Appointment: appt,
		Outcome:     outcome,
		Before:      before,
		After:       s.counters,
	}, nil
}

func (s *State) Pending() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Appointment(nil), s.pending...)
}

func (s *State) Counters() Counters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters
}

func (s *State) Doctors() []model.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Doctor(nil), s.doctors...)
}

func (s *State) Popup() model.Popup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.popup
}

// Overview is the counter card section plus the current popup and error.
type Overview struct {
	Counters    Counters    `json:"counters"`
	Popup       model.Popup `json:"popup"`
	Error       string      `json:"error,omitempty"`
	RefreshedAt *time.Time  `json:"refreshedAt,omitempty"`
}

func (s *State) Overview() Overview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o := Overview{Counters: s.counters, Popup: s.popup, Error: s.err}
	if !s.refreshedAt.IsZero() {
		at := s.refreshedAt
		o.RefreshedAt = &at
	}
	return o
}
