package appointment

import (
	"context"
	"fmt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

type CompleteAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewCompleteAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

// Execute marks the visit as done. A reminder still pending, possible when
// the visit is closed ahead of its slot, is cancelled like on Cancel.
func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	actorID uint,
) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.complete")
	defer span.End()

	unlock := uc.reminders.lock(appointmentID)
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	prev := *ap

	if err := domain.Complete(ap, uc.reminders.Now()); err != nil {
		return nil, err
	}

	uc.reminders.Disarm(ap.ID)

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		uc.reminders.restore(ctx, &prev)
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &actorID,
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: ap.ID,
	})

	return ap, nil
}
