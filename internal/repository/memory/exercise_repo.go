package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExerciseRepo struct {
	mu        sync.RWMutex
	exercises map[primitive.ObjectID]domain.Exercise
}

func NewExerciseRepo() *ExerciseRepo {
	return &ExerciseRepo{
		exercises: make(map[primitive.ObjectID]domain.Exercise),
	}
}

var _ repository.ExerciseRepository = (*ExerciseRepo)(nil)

func (r *ExerciseRepo) Create(_ context.Context, exercise *domain.Exercise) (primitive.ObjectID, error) {
	if exercise.Name == "" || exercise.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("exercise name and trainer ID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exercise.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	exercise.CreatedAt = now
	exercise.UpdatedAt = now
	r.exercises[exercise.ID] = *exercise
	return exercise.ID, nil
}

func (r *ExerciseRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exercises[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

// GetByTrainerID returns newest first, like the Mongo implementation.
func (r *ExerciseRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercises := []domain.Exercise{}
	for _, e := range r.exercises {
		if e.TrainerID == trainerID {
			exercises = append(exercises, e)
		}
	}
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].CreatedAt.After(exercises[j].CreatedAt)
	})
	return exercises, nil
}

func (r *ExerciseRepo) Update(_ context.Context, exercise *domain.Exercise) error {
	if exercise.ID == primitive.NilObjectID {
		return errors.New("exercise ID is required for update")
	}
	if exercise.Name == "" {
		return errors.New("exercise name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.exercises[exercise.ID]
	if !ok || stored.TrainerID != exercise.TrainerID {
		return repository.ErrNotFound
	}
	exercise.CreatedAt = stored.CreatedAt
	exercise.UpdatedAt = time.Now().UTC()
	r.exercises[exercise.ID] = *exercise
	return nil
}

func (r *ExerciseRepo) Delete(_ context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.exercises[id]
	if !ok || e.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.exercises, id)
	return nil
}
