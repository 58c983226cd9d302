package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ScheduleRepo applies the same version check as the Mongo store, under a
// single mutex.
type ScheduleRepo struct {
	mu        sync.Mutex
	schedules map[primitive.ObjectID]*domain.RunningSchedule
}

func NewScheduleRepo() *ScheduleRepo {
	return &ScheduleRepo{
		schedules: make(map[primitive.ObjectID]*domain.RunningSchedule),
	}
}

var _ repository.ScheduleRepository = (*ScheduleRepo)(nil)

func (r *ScheduleRepo) CreateSchedule(_ context.Context, schedule *domain.RunningSchedule) error {
	if schedule.StudentID == primitive.NilObjectID {
		return errors.New("schedule student ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schedules[schedule.StudentID]; exists {
		return repository.ErrDuplicate
	}
	if schedule.Entries == nil {
		schedule.Entries = []domain.RunningWorkoutEntry{}
	}
	schedule.Version = 1
	schedule.UpdatedAt = time.Now().UTC()
	r.schedules[schedule.StudentID] = cloneSchedule(schedule)
	return nil
}

func (r *ScheduleRepo) LoadSchedule(_ context.Context, studentID primitive.ObjectID) (*domain.RunningSchedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schedules[studentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSchedule(s), nil
}

func (r *ScheduleRepo) SaveSchedule(_ context.Context, schedule *domain.RunningSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.schedules[schedule.StudentID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != schedule.Version {
		return repository.ErrVersionConflict
	}

	schedule.Version++
	schedule.UpdatedAt = time.Now().UTC()
	r.schedules[schedule.StudentID] = cloneSchedule(schedule)
	return nil
}

func (r *ScheduleRepo) DeleteSchedule(_ context.Context, studentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.schedules[studentID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.schedules, studentID)
	return nil
}
