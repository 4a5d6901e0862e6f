package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailPreferences controls which notification categories a user receives.
// HabitReminders gates reminder scheduling for all of the user's habits.
type EmailPreferences struct {
	HabitReminders bool `bson:"habitReminders" json:"habitReminders"`
}

// User mirrors the 'users' collection.
type User struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email            string             `bson:"email" json:"email"`
	PasswordHash     string             `bson:"password" json:"-"`
	FirstName        string             `bson:"firstName" json:"firstName"`
	LastName         string             `bson:"lastName" json:"lastName"`
	EmailPreferences EmailPreferences   `bson:"emailPreferences" json:"emailPreferences"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}
