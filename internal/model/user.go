package model

import (
	"strconv"
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	DisplayName string    `gorm:"size:100;not null" json:"displayName"`
	Email       string    `gorm:"size:100;unique;not null" json:"email"`
	Password    string    `gorm:"size:100;not null" json:"-"`
	Role        UserRole  `gorm:"type:enum('student','admin');default:'student'" json:"role"`
	PhotoURL    string    `gorm:"size:255" json:"photoURL"`
	Disabled    bool      `gorm:"default:false" json:"disabled"`
	LastLogin   time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen    time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// UserProfile is the identity snapshot handed to clients after sign-in.
// Read-only everywhere outside the auth layer.
type UserProfile struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoURL"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		UID:         strconv.FormatUint(uint64(u.ID), 10),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		PhotoURL:    u.PhotoURL,
	}
}
