package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/BruksfildServices01/hospital-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
	"github.com/BruksfildServices01/hospital-scheduler/internal/reminder"
)

// ======================================================
// INPUT
// ======================================================

type BookAppointmentInput struct {
	PatientUserID uint

	Doctor         string
	Specialization string

	Date  string
	Time  string
	Notes string
}

// ======================================================
// USE CASE
// ======================================================

type BookAppointment struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
	audit     *audit.Dispatcher
}

func NewBookAppointment(
	repo domain.Repository,
	reminders *ReminderCoordinator,
	audit *audit.Dispatcher,
) *BookAppointment {
	return &BookAppointment{
		repo:      repo,
		reminders: reminders,
		audit:     audit,
	}
}

// Execute persists a Pending appointment. A date or time that cannot be
// parsed is stored as given and simply leaves the appointment without a
// reminder; notification problems never fail the booking.
func (uc *BookAppointment) Execute(
	ctx context.Context,
	in BookAppointmentInput,
) (*models.Appointment, error) {
	ctx, span := tracer.Start(ctx, "appointment.book")
	defer span.End()

	if in.PatientUserID == 0 {
		return nil, ErrInvalidPatient
	}

	date := strings.TrimSpace(in.Date)
	clock := strings.TrimSpace(in.Time)

	ap := &models.Appointment{
		ID:             uuid.NewString(),
		PatientUserID:  in.PatientUserID,
		Doctor:         strings.TrimSpace(in.Doctor),
		Specialization: strings.TrimSpace(in.Specialization),
		Date:           date,
		Time:           clock,
		StartsAt:       uc.reminders.StartsAt(date, clock),
		Status:         string(domain.InitialStatus()),
		Notes:          in.Notes,
	}

	unlock := uc.reminders.lock(ap.ID)
	defer unlock()

	if err := uc.repo.CreateAppointment(ctx, ap); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	span.SetAttributes(attribute.String("appointment.id", ap.ID))

	uc.reminders.armAndNotify(ctx, ap, reminder.RenderConfirmation)

	uc.audit.Dispatch(audit.Event{
		UserID:   &in.PatientUserID,
		Action:   "appointment_booked",
		Entity:   "appointment",
		EntityID: ap.ID,
		Metadata: map[string]any{
			"doctor": ap.Doctor,
			"date":   ap.Date,
			"time":   ap.Time,
		},
	})

	return ap, nil
}
