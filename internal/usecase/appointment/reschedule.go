package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/reminder"
)

type RescheduleAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewRescheduleAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *RescheduleAppointment {
	return &RescheduleAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

// Execute moves the appointment to a new slot. The stale reminder is
// cancelled before the new date is written and the new one is armed only
// afterwards, so the appointment never holds two jobs.
func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	date string,
	clock string,
	actorID uint,
) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.reschedule")
	defer span.End()

	unlock := uc.reminders.lock(appointmentID)
	defer unlock()

	ap, err := uc.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	prev := *ap

	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	if err := domain.Reschedule(ap, date, clock, uc.reminders.StartsAt(date, clock)); err != nil {
		return nil, err
	}

	uc.reminders.Disarm(ap.ID)

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		uc.reminders.restore(ctx, &prev)
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	uc.reminders.armAndNotify(ctx, ap, reminder.RenderRescheduled)

	uc.audit.Dispatch(audit.Event{
		UserID:   &actorID,
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: ap.ID,
		Metadata: map[string]any{
			"from": map[string]string{"date": prev.Date, "time": prev.Time},
			"to":   map[string]string{"date": ap.Date, "time": ap.Time},
		},
	})

	return ap, nil
}
