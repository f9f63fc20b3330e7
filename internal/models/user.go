package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	Username      string  `gorm:"uniqueIndex;size:80;not null"`
	Password      *string `gorm:"size:200"` // nil for OAuth accounts
	OAuthProvider *string `gorm:"column:oauth_provider;size:50"`
	OAuthID       *string `gorm:"column:oauth_id;size:100"`

	// Relationships
	Tasks []Task `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// IsLocal reports whether the account signs in with a password.
func (u *User) IsLocal() bool {
	return u.Password != nil && *u.Password != ""
}

// IsDelegated reports whether the account is linked to an external identity.
func (u *User) IsDelegated() bool {
	return u.OAuthProvider != nil && u.OAuthID != nil
}
