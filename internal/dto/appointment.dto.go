package dto

import (
	"time"

	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

type AppointmentDTO struct {
	ID             string     `json:"id"`
	PatientUserID  uint       `json:"patient_user_id"`
	Doctor         string     `json:"doctor"`
	Specialization string     `json:"specialization"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	StartsAt       *time.Time `json:"starts_at"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes"`
	ReminderAt     *time.Time `json:"reminder_at"`
}

// ReminderDTO describes one live reminder job.
type ReminderDTO struct {
	AppointmentID string    `json:"appointment_id"`
	FireAt        time.Time `json:"fire_at"`
	To            string    `json:"to"`
	Doctor        string    `json:"doctor"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	State         string    `json:"state"`
}

func NewAppointmentDTO(ap models.Appointment, reminderAt *time.Time) AppointmentDTO {
	return AppointmentDTO{
		ID:             ap.ID,
		PatientUserID:  ap.PatientUserID,
		Doctor:         ap.Doctor,
		Specialization: ap.Specialization,
		Date:           ap.Date,
		Time:           ap.Time,
		StartsAt:       ap.StartsAt,
		Status:         ap.Status,
		Notes:          ap.Notes,
		ReminderAt:     reminderAt,
	}
}
