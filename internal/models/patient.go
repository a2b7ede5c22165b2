package models

import "time"

type Patient struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name    string     `gorm:"size:100;not null" json:"name"`
	DOB     *time.Time `json:"dob"`
	Gender  string     `gorm:"size:20" json:"gender"`
	Phone   string     `gorm:"size:20" json:"phone"`
	Email   string     `gorm:"size:100" json:"email"`
	Address string     `gorm:"size:255" json:"address"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
