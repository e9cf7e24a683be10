package dto

import (
	"time"

	domainuser "aqari/internal/domain/user"
)

type UserProfile struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	UserType     string    `json:"user_type"`
	ProfilePhoto string    `json:"profile_photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicProfile is the reduced view exposed to other users.
type PublicProfile struct {
	ID           string    `json:"user_id"`
	Name         string    `json:"name"`
	UserType     string    `json:"user_type"`
	ProfilePhoto string    `json:"profile_photo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuthResponse struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}

func MapUserProfile(user *domainuser.User) UserProfile {
	if user == nil {
		return UserProfile{}
	}
	return UserProfile{
		ID:           string(user.ID),
		Email:        user.Email,
		Name:         user.Name,
		UserType:     string(user.Type),
		ProfilePhoto: user.ProfilePhoto,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func MapPublicProfile(user *domainuser.User) PublicProfile {
	if user == nil {
		return PublicProfile{}
	}
	return PublicProfile{
		ID:           string(user.ID),
		Name:         user.Name,
		UserType:     string(user.Type),
		ProfilePhoto: user.ProfilePhoto,
		CreatedAt:    user.CreatedAt,
	}
}

func NewAuthResponse(user *domainuser.User, token string) AuthResponse {
	return AuthResponse{
		User:  MapUserProfile(user),
		Token: token,
	}
}
