package appointment

import (
	"context"
	"fmt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

type CancelAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewCancelAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *CancelAppointment {
	return &CancelAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

// Execute cancels the appointment and its reminder. Nothing is sent to the
// patient. Cancelling an already cancelled appointment changes nothing and
// returns it as stored.
func (uc *CancelAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	actorID uint,
) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.cancel")
	defer span.End()

	unlock := uc.reminders.lock(appointmentID)
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if domain.Status(ap.Status) == domain.StatusCancelled {
		uc.reminders.Disarm(ap.ID)
		return ap, nil
	}
	prev := *ap

	if err := domain.Cancel(ap, uc.reminders.Now()); err != nil {
		return nil, err
	}

	uc.reminders.Disarm(ap.ID)

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		uc.reminders.restore(ctx, &prev)
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &actorID,
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: ap.ID,
	})

	return ap, nil
}
