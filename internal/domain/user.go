package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role decides which half of the API an account may use.
type Role string

const (
	// RoleCoach authors activities and plan templates.
	RoleCoach Role = "coach"
	// RoleClient follows enrollments and ticks off executions.
	RoleClient Role = "client"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCoach || r == RoleClient
}

// User is a coach or client account. Email is stored lower-cased and unique.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Public returns a copy without the password hash.
func (u User) Public() *User {
	u.PasswordHash = ""
	return &u
}
