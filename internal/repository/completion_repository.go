package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/habit-tracker/internal/model"
)

type CompletionRepo struct{ col *mongo.Collection }

func NewCompletionRepo(db *mongo.Database) *CompletionRepo {
	return &CompletionRepo{col: db.Collection("completions")}
}

// Create appends a completion record. Completions are immutable once written.
func (r *CompletionRepo) Create(ctx context.Context, habitID, userID primitive.ObjectID, date time.Time, display string) (model.Completion, error) {
	c := model.Completion{
		ID:      primitive.NewObjectID(),
		HabitID: habitID,
		UserID:  userID,
		Date:    date,
		Time:    display,
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return model.Completion{}, err
	}
	return c, nil
}

// ListByHabit returns a habit's completions, most recent first — the order
// the cadence engine's streak walk expects.
func (r *CompletionRepo) ListByHabit(ctx context.Context, habitID, userID primitive.ObjectID) ([]model.Completion, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"habitId": habitID, "userId": userID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var completions []model.Completion
	if err := cur.All(ctx, &completions); err != nil {
		return nil, err
	}
	return completions, nil
}

// Latest returns the most recent completion, or nil when none exists.
func (r *CompletionRepo) Latest(ctx context.Context, habitID, userID primitive.ObjectID) (*model.Completion, error) {
	var c model.Completion
	err := r.col.FindOne(ctx,
		bson.M{"habitId": habitID, "userId": userID},
		options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}}),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
