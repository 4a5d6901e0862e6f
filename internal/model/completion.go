package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Completion is one recorded occurrence of a habit. Documents are append-only;
// Date drives all cadence arithmetic while Time is a human display string
// captured at completion ("07:45 PM").
type Completion struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HabitID primitive.ObjectID `bson:"habitId" json:"habitId"`
	UserID  primitive.ObjectID `bson:"userId" json:"userId"`
	Date    time.Time          `bson:"date" json:"date"`
	Time    string             `bson:"time" json:"time"`
}
