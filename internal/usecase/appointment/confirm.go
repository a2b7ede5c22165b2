package appointment

import (
	"context"
	"fmt"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

// ConfirmAppointment is the doctor's acceptance of a Pending booking. The
// reminder is left as it is.
type ConfirmAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewConfirmAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *ConfirmAppointment {
	return &ConfirmAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

func (uc *ConfirmAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	actorID uint,
) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.confirm")
	defer span.End()

	unlock := uc.reminders.lock(appointmentID)
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Confirm(ap, uc.reminders.Now()); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   &actorID,
		Action:   "appointment_confirmed",
		Entity:   "appointment",
		EntityID: ap.ID,
	})

	return ap, nil
}
