package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrGoalNotFound = errors.New("goal not found")

// defaultGoalUnit is used when a goal is created without a unit.
const defaultGoalUnit = "x"

type GoalInput struct {
	Title  string
	Target float64
	Unit   string
}

// StudentService covers what a signed-in student can do to their own record.
// Achievements are re-evaluated after every change.
type StudentService interface {
	GetProfile(ctx context.Context, studentID primitive.ObjectID) (*domain.Student, error)
	AddGoal(ctx context.Context, studentID primitive.ObjectID, in GoalInput) (*domain.Goal, error)
	UpdateGoalProgress(ctx context.Context, studentID primitive.ObjectID, goalID string, increment float64) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, studentID primitive.ObjectID, goalID string) error
}

type studentService struct {
	studentRepo repository.StudentRepository
}

func NewStudentService(studentRepo repository.StudentRepository) StudentService {
	return &studentService{
		studentRepo: studentRepo,
	}
}

func (s *studentService) GetProfile(ctx context.Context, studentID primitive.ObjectID) (*domain.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

func (s *studentService) AddGoal(ctx context.Context, studentID primitive.ObjectID, in GoalInput) (*domain.Goal, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || !positiveFinite(in.Target) {
		return nil, ErrInvalidInput
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultGoalUnit
	}

	goal := domain.Goal{
		ID:     uuid.NewString(),
		Title:  title,
		Target: in.Target,
		Unit:   unit,
	}

	_, err := updateStudent(ctx, s.studentRepo, s.loader(studentID), func(student *domain.Student) error {
		student.Goals = append(student.Goals, goal)
		s.checkAchievements(student)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdateGoalProgress adds increment (possibly negative) to the goal. Progress
// never drops below zero; the goal counts as completed while current >= target.
func (s *studentService) UpdateGoalProgress(ctx context.Context, studentID primitive.ObjectID, goalID string, increment float64) (*domain.Goal, error) {
	if math.IsNaN(increment) || math.IsInf(increment, 0) {
		return nil, ErrInvalidInput
	}

	var updated domain.Goal
	_, err := updateStudent(ctx, s.studentRepo, s.loader(studentID), func(student *domain.Student) error {
		idx := goalIndex(student.Goals, goalID)
		if idx < 0 {
			return ErrGoalNotFound
		}
		// the increment applies to the freshly loaded value on every attempt
		goal := &student.Goals[idx]
		goal.Current = math.Max(0, goal.Current+increment)
		goal.Completed = goal.Current >= goal.Target
		updated = *goal

		s.checkAchievements(student)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *studentService) DeleteGoal(ctx context.Context, studentID primitive.ObjectID, goalID string) error {
	_, err := updateStudent(ctx, s.studentRepo, s.loader(studentID), func(student *domain.Student) error {
		idx := goalIndex(student.Goals, goalID)
		if idx < 0 {
			return ErrGoalNotFound
		}
		student.Goals = append(student.Goals[:idx], student.Goals[idx+1:]...)
		s.checkAchievements(student)
		return nil
	})
	return err
}

func (s *studentService) loader(studentID primitive.ObjectID) studentLoader {
	return func(ctx context.Context) (*domain.Student, error) {
		return s.GetProfile(ctx, studentID)
	}
}

func (s *studentService) checkAchievements(student *domain.Student) {
	if domain.CheckAchievements(student, time.Now().UTC()) {
		log.Debugf("student %s unlocked new achievements", student.ID.Hex())
	}
}

func goalIndex(goals []domain.Goal, id string) int {
	for i := range goals {
		if goals[i].ID == id {
			return i
		}
	}
	return -1
}
