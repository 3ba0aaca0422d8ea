// Package model holds the GORM persistence models mirroring the MySQL schema.
package model

import "time"

// UserModel mirrors the 'users' table. user_id is the primary key and email carries uk_users_email.
type UserModel struct {
	UserID       string `gorm:"column:user_id;type:varchar(20);primaryKey"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	Name         string `gorm:"column:name;type:varchar(50);not null"`
	Email        string `gorm:"column:email;type:varchar(254);not null;uniqueIndex:uk_users_email"`
	Active       bool   `gorm:"column:active;not null"`
	CreatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
