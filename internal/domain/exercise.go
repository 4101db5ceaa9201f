// internal/domain/exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ItemKind separates the two catalogues a coach can plan from.
type ItemKind string

const (
	KindExercise ItemKind = "exercise"
	KindMeal     ItemKind = "meal"
)

// CatalogItem is an entry of a coach's exercise or meal library. Plan
// templates reference catalogue items by their numeric ID.
type CatalogItem struct {
	ID          int64              `bson:"_id" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Name        string             `bson:"name" json:"name"`
	Kind        ItemKind           `bson:"kind" json:"kind"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"` // e.g. "strength", "cardio", "breakfast"
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	MuscleGroup string `bson:"muscleGroup,omitempty" json:"muscleGroup,omitempty"`
	Difficulty  string `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // "Novice", "Medium", "Advanced"
	VideoURL    string `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Calories    int    `bson:"calories,omitempty" json:"calories,omitempty"` // meals only

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
