package devbackend

import (
	"time"

	"github.com/sokoni-app/sokoni_mobile/internal/backend"
)

// User is the devbackend's stored account record.
type User struct {
	ID               string
	Email            string
	PasswordHash     []byte
	DisplayName      string
	AvatarURL        string
	PhoneNumber      string
	Bio              string
	EmailVerified    bool
	IdentityVerified bool
	GoogleSubject    string
	CreatedAt        time.Time
}

// Record converts the stored user to the wire shape the client consumes.
func (u User) Record() backend.UserRecord {
	return backend.UserRecord{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		AvatarURL:        u.AvatarURL,
		PhoneNumber:      u.PhoneNumber,
		Bio:              u.Bio,
		EmailVerified:    u.EmailVerified,
		IdentityVerified: u.IdentityVerified,
	}
}
