package model

import "time"

// ProfileTable is the relational table profiles are written to unless configured otherwise.
const ProfileTable = "User"

// Profile is the relational record mirroring an identity. ID is the identity service's user ID.
type Profile struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email     string    `json:"email_id" gorm:"column:email_id;size:255;not null"`
	FirstName string    `json:"first_name" gorm:"column:first_name;size:255;not null"`
	LastName  string    `json:"last_name" gorm:"column:last_name;size:255;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Profile) TableName() string {
	return ProfileTable
}
