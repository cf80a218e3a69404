package model

import "time"

// Profile is the editable account profile, one-to-one with a user
type Profile struct {
	ID        string    `json:"id"` // equals the user id
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"required"`
}
