package appointment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/notify"
	"github.com/BruksfildServices01/hospital-scheduler/internal/reminder"
)

var tracer trace.Tracer = otel.Tracer("github.com/BruksfildServices01/hospital-scheduler/internal/usecase/appointment")

var (
	ErrInvalidPatient = httperr.ErrBusiness("invalid_patient")
	ErrPhoneMissing   = httperr.ErrBusiness("phone_missing")
)

type ReminderConfig struct {
	Location    *time.Location
	Lead        time.Duration
	SendTimeout time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// ReminderCoordinator keeps the reminder registry in step with appointment
// state. Every path that creates a job cancels the registered one first, so
// an appointment never has two live jobs.
type ReminderCoordinator struct {
	repo      domain.Repository
	scheduler *reminder.Scheduler
	registry  *reminder.Registry
	gateway   notify.Gateway
	phones    notify.PhoneNormalizer
	timeout   time.Duration
	logger    *zap.Logger

	locks appointmentLocks
	sends sync.WaitGroup
}

func NewReminderCoordinator(
	repo domain.Repository,
	gateway notify.Gateway,
	phones notify.PhoneNormalizer,
	cfg ReminderConfig,
	logger *zap.Logger,
) *ReminderCoordinator {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	registry := reminder.NewRegistry()

	opts := []reminder.Option{
		reminder.WithLocation(cfg.Location),
		reminder.WithLead(cfg.Lead),
		reminder.WithSendTimeout(cfg.SendTimeout),
		reminder.WithOnFired(registry.Release),
	}
	if cfg.Clock != nil {
		opts = append(opts, reminder.WithClock(cfg.Clock))
	}

	return &ReminderCoordinator{
		repo:      repo,
		scheduler: reminder.NewScheduler(gateway, logger, opts...),
		registry:  registry,
		gateway:   gateway,
		phones:    phones,
		timeout:   cfg.SendTimeout,
		logger:    logger,
	}
}

func (c *ReminderCoordinator) Now() time.Time { return c.scheduler.Now() }

func (c *ReminderCoordinator) Location() *time.Location { return c.scheduler.Location() }

// StartsAt parses the appointment slot, nil when unparseable.
func (c *ReminderCoordinator) StartsAt(date, clock string) *time.Time {
	t, err := reminder.StartsAt(date, clock, c.scheduler.Location())
	if err != nil {
		return nil
	}
	return &t
}

// Active returns the live job registered for the appointment, if any.
func (c *ReminderCoordinator) Active(appointmentID string) *reminder.Handle {
	h := c.registry.Get(appointmentID)
	if h == nil || h.State() != reminder.JobScheduled {
		return nil
	}
	return h
}

func (c *ReminderCoordinator) ActiveJobs() []*reminder.Handle {
	return c.registry.Snapshot()
}

// Arm resolves the patient's phone and schedules the reminder for ap. The
// error explains why no job was registered; it is informational only.
func (c *ReminderCoordinator) Arm(ctx context.Context, ap *models.Appointment) (*reminder.Handle, error) {
	phone, err := c.resolvePhone(ctx, ap.PatientUserID)
	if err != nil {
		c.Disarm(ap.ID)
		c.logger.Info("reminder not scheduled",
			zap.String("appointment_id", ap.ID),
			zap.Error(err),
		)
		return nil, err
	}
	return c.arm(ap, phone)
}

// lock must be held by every use case from the moment it reads an
// appointment until its reminder matches what was written.
func (c *ReminderCoordinator) lock(appointmentID string) func() {
	return c.locks.lock(appointmentID)
}

// Resync re-arms the reminder of a stored appointment from its current row.
// The phone is looked up before the lock is taken and the row is read again
// under it, so a state change that raced the caller's listing always wins.
func (c *ReminderCoordinator) Resync(ctx context.Context, appointmentID string, patientUserID uint) (*reminder.Handle, error) {
	phone, phoneErr := c.resolvePhone(ctx, patientUserID)

	unlock := c.lock(appointmentID)
	defer unlock()

	ap, err := c.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		c.Disarm(appointmentID)
		return nil, err
	}
	if phoneErr != nil {
		c.Disarm(ap.ID)
		c.logger.Info("reminder not scheduled",
			zap.String("appointment_id", ap.ID),
			zap.Error(phoneErr),
		)
		return nil, phoneErr
	}
	return c.arm(ap, phone)
}

// Disarm cancels and unregisters the appointment's job. It reports whether
// a live job was stopped.
func (c *ReminderCoordinator) Disarm(appointmentID string) bool {
	h := c.registry.Take(appointmentID)
	if h == nil {
		return false
	}

	cancelled := c.scheduler.Cancel(h)
	if cancelled {
		c.logger.Info("reminder cancelled",
			zap.String("appointment_id", appointmentID),
			zap.Time("fire_at", h.FireAt()),
		)
	}
	return cancelled
}

// Shutdown stops all timers and waits for pending sends.
func (c *ReminderCoordinator) Shutdown() {
	c.scheduler.Stop()
	c.sends.Wait()
}

// Wait blocks until every notification started so far has finished.
func (c *ReminderCoordinator) Wait() {
	c.sends.Wait()
}

// armAndNotify sends a best-effort notice rendered by render and schedules
// the reminder, both to the patient's resolved phone.
func (c *ReminderCoordinator) armAndNotify(
	ctx context.Context,
	ap *models.Appointment,
	render func(reminder.Payload, *time.Location) string,
) *reminder.Handle {
	phone, err := c.resolvePhone(ctx, ap.PatientUserID)
	if err != nil {
		c.Disarm(ap.ID)
		c.logger.Info("patient not notified",
			zap.String("appointment_id", ap.ID),
			zap.Error(err),
		)
		return nil
	}

	c.notifyAsync(ap.ID, phone, render(payloadFor(ap, phone), c.scheduler.Location()))

	h, _ := c.arm(ap, phone)
	return h
}

// restore re-arms the reminder of an appointment whose state change could
// not be persisted.
func (c *ReminderCoordinator) restore(ctx context.Context, prev *models.Appointment) {
	if domain.Status(prev.Status).IsTerminal() {
		return
	}
	if _, err := c.Arm(ctx, prev); err == nil {
		c.logger.Warn("reminder restored after failed update", zap.String("appointment_id", prev.ID))
	}
}

func (c *ReminderCoordinator) arm(ap *models.Appointment, phone string) (*reminder.Handle, error) {
	c.Disarm(ap.ID)

	if domain.Status(ap.Status).IsTerminal() {
		return nil, domain.ErrInvalidState
	}

	h, err := c.scheduler.ScheduleAppointment(ap.ID, payloadFor(ap, phone))
	if err != nil {
		c.logger.Info("reminder not scheduled",
			zap.String("appointment_id", ap.ID),
			zap.String("date", ap.Date),
			zap.String("time", ap.Time),
			zap.Error(err),
		)
		return nil, err
	}

	c.registry.Put(ap.ID, h)
	c.logger.Info("reminder scheduled",
		zap.String("appointment_id", ap.ID),
		zap.Time("fire_at", h.FireAt()),
	)
	return h, nil
}

func (c *ReminderCoordinator) resolvePhone(ctx context.Context, patientUserID uint) (string, error) {
	raw, err := c.repo.FindPatientPhone(ctx, patientUserID)
	if err != nil {
		return "", fmt.Errorf("resolve patient phone: %w", err)
	}
	if raw == "" {
		return "", ErrPhoneMissing
	}
	return c.phones.Normalize(raw)
}

func (c *ReminderCoordinator) notifyAsync(appointmentID, phone, body string) {
	c.sends.Add(1)
	go func() {
		defer c.sends.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.gateway.Send(ctx, phone, body); err != nil {
			c.logger.Warn("notification not delivered",
				zap.String("appointment_id", appointmentID),
				zap.String("to", phone),
				zap.Error(err),
			)
		}
	}()
}

func payloadFor(ap *models.Appointment, phone string) reminder.Payload {
	return reminder.Payload{
		Phone:          phone,
		Doctor:         ap.Doctor,
		Specialization: ap.Specialization,
		Date:           ap.Date,
		Time:           ap.Time,
	}
}
