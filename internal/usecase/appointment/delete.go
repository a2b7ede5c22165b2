package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
)

type DeleteAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewDeleteAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *DeleteAppointment {
	return &DeleteAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

func (uc *DeleteAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	actorID uint,
) error {
	ctx, span := tracer.Start(ctx, "appointment.delete")
	defer span.End()

	unlock := uc.reminders.lock(appointmentID)
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	uc.reminders.Disarm(ap.ID)

	if err := uc.repo.DeleteAppointment(ctx, ap.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		uc.reminders.restore(ctx, ap)
		return fmt.Errorf("delete appointment: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &actorID,
		Action:   "appointment_deleted",
		Entity:   "appointment",
		EntityID: ap.ID,
	})

	return nil
}
