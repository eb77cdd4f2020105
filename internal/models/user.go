package models

import "time"

// Role values stored on a user. The role string is embedded into token
// claims at session creation time.
const (
	RoleUser  = "user"
	RoleGuest = "guest"
	RoleAdmin = "admin"
)

// User represents an application user. HashedPassword is never serialized
// to JSON responses.
type User struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Name           string    `bson:"name" json:"name"`
	Email          string    `bson:"email" json:"email"`
	Sub            string    `bson:"sub,omitempty" json:"-"`
	HashedPassword string    `bson:"hashedPassword" json:"-"`
	Role           string    `bson:"role" json:"role"`
	IsActive       bool      `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt" json:"updatedAt"`
}
