package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

// Repository is the persistence contract of the lifecycle use cases.
// Lookups of a missing appointment return ErrNotFound.
type Repository interface {
	// -------- Appointment --------
	CreateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	GetAppointment(
		ctx context.Context,
		id string,
	) (*models.Appointment, error)

	UpdateAppointment(
		ctx context.Context,
		ap *models.Appointment,
	) error

	DeleteAppointment(
		ctx context.Context,
		id string,
	) error

	// ListFutureAppointments returns non-terminal appointments whose
	// start instant is after now.
	ListFutureAppointments(
		ctx context.Context,
		now time.Time,
	) ([]models.Appointment, error)

	ListAppointmentsForPatient(
		ctx context.Context,
		patientUserID uint,
	) ([]models.Appointment, error)

	ListAppointmentsForDoctor(
		ctx context.Context,
		doctor string,
		start time.Time,
		end time.Time,
	) ([]models.Appointment, error)

	// -------- Patient --------

	// FindPatientPhone returns "" with a nil error when the patient has no
	// profile or no phone on file.
	FindPatientPhone(
		ctx context.Context,
		patientUserID uint,
	) (string, error)
}
