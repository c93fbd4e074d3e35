package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLocation is used for city and country when a user leaves them blank.
const DefaultLocation = "Unknown"

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	ProfilePic   *string   `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUser is the only user shape that leaves the API.
type PublicUser struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	City       string    `json:"city"`
	Country    string    `json:"country"`
	ProfilePic *string   `json:"profilePic"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Email:      u.Email,
		City:       u.City,
		Country:    u.Country,
		ProfilePic: u.ProfilePic,
	}
}

// UnknownUser stands in for a poster or replier whose record is gone.
func UnknownUser(id uuid.UUID) PublicUser {
	return PublicUser{ID: id, City: DefaultLocation, Country: DefaultLocation}
}
