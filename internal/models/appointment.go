package models

import "time"

type Appointment struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	PatientUserID uint `gorm:"index;not null" json:"patient_user_id"`
	PatientUser   User `gorm:"foreignKey:PatientUserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Doctor         string `gorm:"size:100;not null;index" json:"doctor"`
	Specialization string `gorm:"size:100;not null" json:"specialization"`

	// Date and Time are stored as entered; StartsAt is derived from them and
	// stays nil when they cannot be parsed.
	Date     string     `gorm:"size:40;not null" json:"date"`
	Time     string     `gorm:"size:20;not null" json:"time"`
	StartsAt *time.Time `gorm:"index" json:"starts_at"`

	Status string `gorm:"size:20;default:'Pending';index" json:"status"`
	Notes  string `gorm:"size:255" json:"notes"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
