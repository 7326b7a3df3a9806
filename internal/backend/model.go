package backend

import "time"

// UserRecord mirrors the backend's authoritative account record. Identity
// fields are immutable from the client's perspective; IdentityVerified is
// only ever set server-side after a confirmed verification run.
type UserRecord struct {
	ID                string             `json:"id"`
	Email             string             `json:"email"`
	DisplayName       string             `json:"display_name"`
	AvatarURL         string             `json:"avatar_url,omitempty"`
	PhoneNumber       string             `json:"phone_number,omitempty"`
	Bio               string             `json:"bio,omitempty"`
	EmailVerified     bool               `json:"email_verified"`
	IdentityVerified  bool               `json:"identity_verified"`
	BusinessDocuments *BusinessDocuments `json:"business_documents,omitempty"`
}

// BusinessDocuments describes a seller's uploaded business paperwork.
type BusinessDocuments struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AuthResult is the payload of every successful login-class call.
type AuthResult struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}
