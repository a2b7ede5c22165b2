package reminder

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
)

var ErrFireTimeInPast = httperr.ErrBusiness("reminder_time_in_past")

type JobState int32

const (
	JobScheduled JobState = iota
	JobFired
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobScheduled:
		return "scheduled"
	case JobFired:
		return "fired"
	case JobCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Handle is a one-shot reminder job. Its state only ever moves out of
// JobScheduled once, which is what makes firing and cancelling exclusive.
type Handle struct {
	appointmentID string
	fireAt        time.Time
	payload       Payload

	state atomic.Int32
	timer *time.Timer
}

func (h *Handle) AppointmentID() string { return h.appointmentID }
func (h *Handle) FireAt() time.Time     { return h.fireAt }
func (h *Handle) Payload() Payload      { return h.payload }
func (h *Handle) State() JobState       { return JobState(h.state.Load()) }

func (h *Handle) transition(to JobState) bool {
	return h.state.CompareAndSwap(int32(JobScheduled), int32(to))
}

type Option func(*Scheduler)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithSendTimeout bounds each gateway call made when a job fires.
func WithSendTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.sendTimeout = d
		}
	}
}

func WithLead(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.lead = d
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithOnFired registers a hook run once a job has claimed its firing,
// before the message is sent.
func WithOnFired(fn func(*Handle)) Option {
	return func(s *Scheduler) { s.onFired = fn }
}

type Scheduler struct {
	gateway notify.Gateway
	logger  *zap.Logger

	now         func() time.Time
	sendTimeout time.Duration
	lead        time.Duration
	loc         *time.Location
	onFired     func(*Handle)

	mu       sync.Mutex
	closed   bool
	live     map[*Handle]struct{}
	inflight sync.WaitGroup
}

func NewScheduler(gateway notify.Gateway, logger *zap.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		gateway:     gateway,
		logger:      logger,
		now:         time.Now,
		sendTimeout: 10 * time.Second,
		lead:        DefaultLead,
		loc:         time.UTC,
		live:        make(map[*Handle]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) Now() time.Time           { return s.now().In(s.loc) }
func (s *Scheduler) Location() *time.Location { return s.loc }
func (s *Scheduler) Lead() time.Duration      { return s.lead }

// Schedule arms a job for fireAt. It returns nil, and arms nothing, when
// fireAt is not strictly in the future or the scheduler is stopped.
func (s *Scheduler) Schedule(appointmentID string, fireAt time.Time, payload Payload) *Handle {
	now := s.now()
	if fireAt.IsZero() || !fireAt.After(now) {
		return nil
	}

	h := &Handle{
		appointmentID: appointmentID,
		fireAt:        fireAt,
		payload:       payload,
	}
	h.state.Store(int32(JobScheduled))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.live[h] = struct{}{}
	h.timer = time.AfterFunc(fireAt.Sub(now), func() { s.fire(h) })

	return h
}

// ScheduleAppointment derives the fire time from the payload's date and
// time. The error explains a nil handle: ErrInvalidDateTime or
// ErrFireTimeInPast.
func (s *Scheduler) ScheduleAppointment(appointmentID string, payload Payload) (*Handle, error) {
	fireAt, err := FireTime(payload.Date, payload.Time, s.loc, s.lead)
	if err != nil {
		return nil, err
	}

	h := s.Schedule(appointmentID, fireAt, payload)
	if h == nil {
		return nil, ErrFireTimeInPast
	}
	return h, nil
}

// Cancel stops h from firing. Cancelling nil, a fired or an already
// cancelled handle is a no-op; the result reports whether h was live. A
// send already in progress is not interrupted.
func (s *Scheduler) Cancel(h *Handle) bool {
	if h == nil || !h.transition(JobCancelled) {
		return false
	}

	s.mu.Lock()
	if h.timer != nil {
		h.timer.Stop()
	}
	delete(s.live, h)
	s.mu.Unlock()

	return true
}

// Stop cancels every pending job and waits for in-flight sends.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.closed = true
	for h := range s.live {
		if h.transition(JobCancelled) {
			h.timer.Stop()
		}
		delete(s.live, h)
	}
	s.mu.Unlock()

	s.inflight.Wait()
}

func (s *Scheduler) fire(h *Handle) {
	s.mu.Lock()
	if s.closed || !h.transition(JobFired) {
		s.mu.Unlock()
		return
	}
	delete(s.live, h)
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()

	if s.onFired != nil {
		s.onFired(h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	body := RenderReminder(h.payload, s.loc)
	if err := s.gateway.Send(ctx, h.payload.Phone, body); err != nil {
		s.logger.Warn("reminder not delivered",
			zap.String("appointment_id", h.appointmentID),
			zap.String("to", h.payload.Phone),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("reminder sent",
		zap.String("appointment_id", h.appointmentID),
		zap.String("to", h.payload.Phone),
	)
}
