package models

import "time"

type Doctor struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name           string     `gorm:"size:100;not null;index" json:"name"`
	DOB            *time.Time `json:"dob"`
	Gender         string     `gorm:"size:20" json:"gender"`
	Phone          string     `gorm:"size:20" json:"phone"`
	Email          string     `gorm:"size:100" json:"email"`
	LicenseNumber  string     `gorm:"size:50" json:"license_number"`
	Specialization string     `gorm:"size:100;index" json:"specialization"`
	Experience     int        `json:"experience"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
