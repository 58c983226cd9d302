package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StudentRepo struct {
	mu       sync.RWMutex
	students map[primitive.ObjectID]*domain.Student
}

func NewStudentRepo() *StudentRepo {
	return &StudentRepo{
		students: make(map[primitive.ObjectID]*domain.Student),
	}
}

var _ repository.StudentRepository = (*StudentRepo)(nil)

func (r *StudentRepo) Create(_ context.Context, student *domain.Student) (primitive.ObjectID, error) {
	if student.Email == "" || student.TrainerID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("student email and trainer ID are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(student.Email)
	for _, s := range r.students {
		if s.Email == email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}

	student.ID = primitive.NewObjectID()
	student.Email = email
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	student.Version = 1
	r.students[student.ID] = cloneStudent(student)
	return student.ID, nil
}

func (r *StudentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.students[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneStudent(s), nil
}

func (r *StudentRepo) GetByEmail(_ context.Context, email string) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, s := range r.students {
		if s.Email == email {
			return cloneStudent(s), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *StudentRepo) GetByTrainerID(_ context.Context, trainerID primitive.ObjectID) ([]domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	students := []domain.Student{}
	for _, s := range r.students {
		if s.TrainerID == trainerID {
			students = append(students, *cloneStudent(s))
		}
	}
	sort.Slice(students, func(i, j int) bool {
		return students[i].Name < students[j].Name
	})
	return students, nil
}

func (r *StudentRepo) Update(_ context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.students[student.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// same compare-and-swap the mongo repo does with its filter
	if stored.Version != student.Version {
		return repository.ErrVersionConflict
	}

	student.Version++
	student.UpdatedAt = time.Now().UTC()
	updated := cloneStudent(student)
	// owner, email and creation time are fixed at Create
	updated.TrainerID = stored.TrainerID
	updated.Email = stored.Email
	updated.CreatedAt = stored.CreatedAt
	r.students[student.ID] = updated
	return nil
}

func (r *StudentRepo) Delete(_ context.Context, id primitive.ObjectID, trainerID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.students[id]
	if !ok || s.TrainerID != trainerID {
		return repository.ErrNotFound
	}
	delete(r.students, id)
	return nil
}
