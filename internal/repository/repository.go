package repository

import (
	"context"

	"abfit/coach-api/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDuplicate    = RepositoryError("duplicate key")
	// ErrVersionConflict is returned when a schedule was saved by someone
	// else since it was loaded.
	ErrVersionConflict = RepositoryError("version conflict")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository stores trainer accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// StudentRepository stores roster entries together with their embedded
// assessments, goals, achievements and strength workouts.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Student, error)
	// Update writes the student when student.Version still matches the
	// stored one, then bumps student.Version. A stale version yields
	// ErrVersionConflict.
	Update(ctx context.Context, student *domain.Student) error
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error // Ensure trainer owns the student
}

// ExerciseRepository defines the interface for interacting with exercise data.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *domain.Exercise) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error)
	GetByTrainerID(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Exercise, error)
	Update(ctx context.Context, exercise *domain.Exercise) error
	Delete(ctx context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error // Ensure trainer owns the exercise
}

//go:generate mockgen -source=$GOFILE -destination=../service/mocks_test.go -package=service_test -exclude_interfaces=UserRepository,StudentRepository,ExerciseRepository

// ScheduleRepository keeps one running schedule per student and only ever
// reads or writes it whole.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule *domain.RunningSchedule) error
	LoadSchedule(ctx context.Context, studentID primitive.ObjectID) (*domain.RunningSchedule, error)
	// SaveSchedule replaces the entries when schedule.Version still matches
	// the stored one, then bumps schedule.Version. A stale version yields
	// ErrVersionConflict and nothing is written.
	SaveSchedule(ctx context.Context, schedule *domain.RunningSchedule) error
	DeleteSchedule(ctx context.Context, studentID primitive.ObjectID) error
}
