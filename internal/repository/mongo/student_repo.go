package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const studentCollectionName = "students"

type mongoStudentRepository struct {
	collection *mongo.Collection
}

func NewMongoStudentRepository(db *mongo.Database) repository.StudentRepository {
	return &mongoStudentRepository{
		collection: db.Collection(studentCollectionName),
	}
}

func (r *mongoStudentRepository) Create(ctx context.Context, student *domain.Student) (primitive.ObjectID, error) {
	if student.Email == "" || student.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("student email and trainer ID are required")
	}

	student.ID = primitive.NewObjectID()
	student.Email = strings.ToLower(student.Email)
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	student.Version = 1

	// the unique index on email turns a second enrolment into a duplicate key error
	if _, err := r.collection.InsertOne(ctx, student); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return student.ID, nil
}

func (r *mongoStudentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Student, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail matches case-insensitively; emails are stored lower-cased.
func (r *mongoStudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *mongoStudentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Student, error) {
	var student domain.Student
	if err := r.collection.FindOne(ctx, filter).Decode(&student); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &student, nil
}

// GetByTrainerID lists the roster of one trainer sorted by name.
func (r *mongoStudentRepository) GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Student, error) {
	students := []domain.Student{}
	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Update rewrites the mutable part of the student document. Owner, email and
// creation time are never changed here. The filter carries the version the
// caller loaded, so a write based on a stale read matches nothing.
func (r *mongoStudentRepository) Update(ctx context.Context, student *domain.Student) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": student.ID, "version": student.Version}
	update := bson.M{
		"$set": bson.M{
			"name":           student.Name,
			"birthDate":      student.BirthDate,
			"sex":            student.Sex,
			"photoObjectKey": student.PhotoObjectKey,
			"assessments":    student.Assessments,
			"goals":          student.Goals,
			"achievements":   student.Achievements,
			"workouts":       student.Workouts,
			"updatedAt":      now,
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Nothing matched: either the student is gone or someone else wrote
		// first. Only a second lookup can tell the two apart.
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": student.ID})
		if err != nil {
			return err
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}

	student.Version++
	student.UpdatedAt = now
	return nil
}

func (r *mongoStudentRepository) Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	// trainerId in the filter keeps a trainer from deleting someone else's student
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "trainerId": trainerID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func EnsureStudentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "name", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
