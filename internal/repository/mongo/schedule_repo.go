package mongo

import (
	"context"
	"errors"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// One document per student, keyed by the student id.
const scheduleCollectionName = "running_schedules"

type mongoScheduleRepository struct {
	collection *mongo.Collection
}

func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

func (r *mongoScheduleRepository) CreateSchedule(ctx context.Context, schedule *domain.RunningSchedule) error {
	if schedule.StudentID == primitive.NilObjectID {
		return errors.New("schedule student ID is required")
	}
	// store [] rather than null so the document always has an entries array
	if schedule.Entries == nil {
		schedule.Entries = []domain.RunningWorkoutEntry{}
	}
	// SaveSchedule filters on this, so every schedule starts at a known version
	schedule.Version = 1
	schedule.UpdatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, schedule); err != nil {
		// _id is the student id: a second schedule for the same student collides
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoScheduleRepository) LoadSchedule(ctx context.Context, studentID primitive.ObjectID) (*domain.RunningSchedule, error) {
	var schedule domain.RunningSchedule
	if err := r.collection.FindOne(ctx, bson.M{"_id": studentID}).Decode(&schedule); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// SaveSchedule swaps the whole entry list in one update filtered on the
// version the caller loaded.
func (r *mongoScheduleRepository) SaveSchedule(ctx context.Context, schedule *domain.RunningSchedule) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": schedule.StudentID, "version": schedule.Version}
	update := bson.M{
		"$set": bson.M{
			"entries":   schedule.Entries,
			"updatedAt": now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": schedule.StudentID})
		if err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	schedule.Version++
	schedule.UpdatedAt = now
	return nil
}

func (r *mongoScheduleRepository) DeleteSchedule(ctx context.Context, studentID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": studentID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
