package service

import (
	"context"
	"errors"
	"strings"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrExerciseNotFound     = errors.New("exercise not found")
	ErrExerciseAccessDenied = errors.New("access denied to this exercise")
	ErrValidationFailed     = errors.New("exercise validation failed")
)

// ExerciseInput holds the editable fields of a library exercise.
type ExerciseInput struct {
	Name             string
	Description      string
	MuscleGroup      string
	ExecutionTechnic string
	Difficulty       string
	VideoURL         string
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	GetExerciseByID(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (*domain.Exercise, error)
	GetExercisesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	UpdateExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error)
	DeleteExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error
}

type exerciseService struct {
	exerciseRepo repository.ExerciseRepository
}

func NewExerciseService(exerciseRepo repository.ExerciseRepository) ExerciseService {
	return &exerciseService{
		exerciseRepo: exerciseRepo,
	}
}

// CreateExercise adds a definition to the trainer's library.
func (s *exerciseService) CreateExercise(ctx context.Context, trainerID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if trainerID == primitive.NilObjectID {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrValidationFailed
	}

	exercise := &domain.Exercise{TrainerID: trainerID}
	in.applyTo(exercise)

	exerciseID, err := s.exerciseRepo.Create(ctx, exercise)
	if err != nil {
		return nil, err
	}
	return s.exerciseRepo.GetByID(ctx, exerciseID)
}

// GetExerciseByID only returns exercises of the requesting trainer.
func (s *exerciseService) GetExerciseByID(ctx context.Context, trainerID, exerciseID primitive.ObjectID) (*domain.Exercise, error) {
	exercise, err := s.exerciseRepo.GetByID(ctx, exerciseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	if exercise.TrainerID != trainerID {
		return nil, ErrExerciseAccessDenied
	}
	return exercise, nil
}

func (s *exerciseService) GetExercisesByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error) {
	if trainerID == primitive.NilObjectID {
		return nil, ErrInvalidInput
	}
	return s.exerciseRepo.GetByTrainerID(ctx, trainerID)
}

func (s *exerciseService) UpdateExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID, in ExerciseInput) (*domain.Exercise, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ErrValidationFailed
	}

	existing, err := s.GetExerciseByID(ctx, trainerID, exerciseID)
	if err != nil {
		return nil, err
	}
	in.applyTo(existing)

	if err := s.exerciseRepo.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExerciseNotFound
		}
		return nil, err
	}
	return existing, nil
}

// DeleteExercise relies on the repository filter for ownership, so a foreign
// exercise reads as not found.
func (s *exerciseService) DeleteExercise(ctx context.Context, trainerID, exerciseID primitive.ObjectID) error {
	if trainerID == primitive.NilObjectID || exerciseID == primitive.NilObjectID {
		return ErrInvalidInput
	}
	if err := s.exerciseRepo.Delete(ctx, exerciseID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return err
	}
	return nil
}

func (in ExerciseInput) applyTo(e *domain.Exercise) {
	e.Name = strings.TrimSpace(in.Name)
	e.Description = in.Description
	e.MuscleGroup = in.MuscleGroup
	e.ExecutionTechnic = in.ExecutionTechnic
	e.Difficulty = in.Difficulty
	e.VideoURL = in.VideoURL
}
