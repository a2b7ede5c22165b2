package appointment

import (
	"context"
	"strings"
	"time"

	domain "github.com/BruksfildServices01/hospital-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/hospital-scheduler/internal/dto"
	"github.com/BruksfildServices01/hospital-scheduler/internal/httperr"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

var ErrInvalidPeriod = httperr.ErrBusiness("invalid_period")

// ListAppointments serves the read side: single lookups and the patient and
// doctor listings, each annotated with its live reminder.
type ListAppointments struct {
	repo      domain.Repository
	reminders *ReminderCoordinator
}

func NewListAppointments(
	repo domain.Repository,
	reminders *ReminderCoordinator,
) *ListAppointments {
	return &ListAppointments{
		repo:      repo,
		reminders: reminders,
	}
}

func (uc *ListAppointments) Get(ctx context.Context, id string) (*models.Appointment, error) {
	return uc.repo.GetAppointment(ctx, id)
}

func (uc *ListAppointments) Describe(ap models.Appointment) dto.AppointmentDTO {
	var reminderAt *time.Time
	if h := uc.reminders.Active(ap.ID); h != nil {
		at := h.FireAt()
		reminderAt = &at
	}
	return dto.NewAppointmentDTO(ap, reminderAt)
}

func (uc *ListAppointments) ForPatient(
	ctx context.Context,
	patientUserID uint,
) ([]dto.AppointmentDTO, error) {
	ctx, span := tracer.Start(ctx, "appointment.list_patient")
	defer span.End()

	list, err := uc.repo.ListAppointmentsForPatient(ctx, patientUserID)
	if err != nil {
		return nil, err
	}
	return uc.describeAll(list), nil
}

// ForDoctorByDate lists the doctor's appointments on the calendar day of
// date (YYYY-MM-DD) in the hospital timezone.
func (uc *ListAppointments) ForDoctorByDate(
	ctx context.Context,
	doctor string,
	date string,
) ([]dto.AppointmentDTO, error) {
	ctx, span := tracer.Start(ctx, "appointment.list_doctor_day")
	defer span.End()

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), uc.reminders.Location())
	if err != nil {
		return nil, ErrInvalidPeriod
	}

	list, err := uc.repo.ListAppointmentsForDoctor(ctx, doctor, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return uc.describeAll(list), nil
}

func (uc *ListAppointments) ForDoctorByMonth(
	ctx context.Context,
	doctor string,
	year int,
	month int,
) ([]dto.AppointmentDTO, error) {
	ctx, span := tracer.Start(ctx, "appointment.list_doctor_month")
	defer span.End()

	if year < 1 || month < 1 || month > 12 {
		return nil, ErrInvalidPeriod
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, uc.reminders.Location())

	list, err := uc.repo.ListAppointmentsForDoctor(ctx, doctor, start, start.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	return uc.describeAll(list), nil
}

// Reminders lists every live reminder job.
func (uc *ListAppointments) Reminders() []dto.ReminderDTO {
	jobs := uc.reminders.ActiveJobs()

	out := make([]dto.ReminderDTO, 0, len(jobs))
	for _, h := range jobs {
		p := h.Payload()
		out = append(out, dto.ReminderDTO{
			AppointmentID: h.AppointmentID(),
			FireAt:        h.FireAt(),
			To:            p.Phone,
			Doctor:        p.Doctor,
			Date:          p.Date,
			Time:          p.Time,
			State:         h.State().String(),
		})
	}
	return out
}

func (uc *ListAppointments) describeAll(list []models.Appointment) []dto.AppointmentDTO {
	out := make([]dto.AppointmentDTO, 0, len(list))
	for _, ap := range list {
		out = append(out, uc.Describe(ap))
	}
	return out
}
