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

type HabitRepo struct{ col *mongo.Collection }

func NewHabitRepo(db *mongo.Database) *HabitRepo {
	return &HabitRepo{col: db.Collection("habits")}
}

// Create inserts a new active habit with zeroed counters.
func (r *HabitRepo) Create(ctx context.Context, userID primitive.ObjectID, name, description string, freq model.Frequency) (model.Habit, error) {
	now := time.Now().UTC()
	h := model.Habit{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Frequency:   freq,
		Status:      model.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, h); err != nil {
		return model.Habit{}, err
	}
	return h, nil
}

// GetByID fetches a habit scoped to its owner.
func (r *HabitRepo) GetByID(ctx context.Context, id, userID primitive.ObjectID) (model.Habit, error) {
	var h model.Habit
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Habit{}, ErrNotFound
	}
	return h, err
}

// ListByUser returns the user's habits, most recently updated first. status
// filters by habit status; "all" returns both active and inactive habits.
func (r *HabitRepo) ListByUser(ctx context.Context, userID primitive.ObjectID, status string) ([]model.Habit, error) {
	filter := bson.M{"userId": userID}
	if status != "all" {
		st, err := model.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter["status"] = st
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var habits []model.Habit
	if err := cur.All(ctx, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// UpdateDetails edits name, description and frequency and returns the updated
// habit.
func (r *HabitRepo) UpdateDetails(ctx context.Context, id, userID primitive.ObjectID, name, description string, freq model.Frequency) (model.Habit, error) {
	return r.findOneAndSet(ctx, id, userID, bson.M{
		"name":        name,
		"description": description,
		"frequency":   freq,
	})
}

// SetStatus flips the habit between active and inactive. Deactivating a habit
// also deactivates its embedded reminder so a later reactivation does not
// silently revive notifications the user turned off by archiving.
func (r *HabitRepo) SetStatus(ctx context.Context, id, userID primitive.ObjectID, status model.Status) (model.Habit, error) {
	set := bson.M{"status": status}
	if status == model.StatusInactive {
		h, err := r.GetByID(ctx, id, userID)
		if err != nil {
			return model.Habit{}, err
		}
		if h.Reminder != nil {
			set["reminder.status"] = model.StatusInactive
		}
	}
	return r.findOneAndSet(ctx, id, userID, set)
}

// SetReminder upserts the embedded reminder document.
func (r *HabitRepo) SetReminder(ctx context.Context, id, userID primitive.ObjectID, rem model.Reminder) (model.Habit, error) {
	return r.findOneAndSet(ctx, id, userID, bson.M{"reminder": rem})
}

// UpdateStreak writes back a recomputed streak value.
func (r *HabitRepo) UpdateStreak(ctx context.Context, id, userID primitive.ObjectID, streak int) error {
	_, err := r.findOneAndSet(ctx, id, userID, bson.M{"streak": streak})
	return err
}

// RecordCompletion updates the cached streak and bumps the completion counter
// in one write, returning the updated habit.
func (r *HabitRepo) RecordCompletion(ctx context.Context, id, userID primitive.ObjectID, streak int) (model.Habit, error) {
	var h model.Habit
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{
			"$set": bson.M{"streak": streak, "updatedAt": time.Now().UTC()},
			"$inc": bson.M{"totalCompletions": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Habit{}, ErrNotFound
	}
	return h, err
}

// ListActiveWithReminders returns every active habit whose reminder is also
// active, across all users. This is the scheduler's rehydration query.
func (r *HabitRepo) ListActiveWithReminders(ctx context.Context) ([]model.Habit, error) {
	cur, err := r.col.Find(ctx, bson.M{
		"status":          model.StatusActive,
		"reminder.status": model.StatusActive,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var habits []model.Habit
	if err := cur.All(ctx, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepo) findOneAndSet(ctx context.Context, id, userID primitive.ObjectID, set bson.M) (model.Habit, error) {
	set["updatedAt"] = time.Now().UTC()
	var h model.Habit
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Habit{}, ErrNotFound
	}
	return h, err
}
