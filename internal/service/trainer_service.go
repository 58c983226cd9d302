package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/metrics"
	"abfit/coach-api/internal/repository"
	"abfit/coach-api/internal/running"
	"abfit/coach-api/internal/storage"
	"abfit/coach-api/internal/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrStudentNotFound      = errors.New("student not found")
	ErrStudentAccessDenied  = errors.New("student is not managed by this trainer")
	ErrStudentAlreadyExists = errors.New("student with this email already exists")
	ErrWorkoutNotFound      = errors.New("workout not found")
	ErrInvalidContentType   = errors.New("only image uploads are allowed")
	ErrInvalidPhotoKey      = errors.New("object key does not belong to this student")
	ErrPhotoNotSet          = errors.New("student has no profile photo")
)

// NewStudentInput is what a trainer fills in when adding someone to the roster.
type NewStudentInput struct {
	Name      string
	Email     string
	BirthDate *domain.Date
	Sex       string
}

type AssessmentInput struct {
	// Date defaults to today.
	Date            *domain.Date
	WeightKg        float64
	HeightCm        float64
	ChestFoldMm     *float64
	AbdominalFoldMm *float64
}

// PhotoUpload is a presigned PUT the client uploads the photo bytes to.
type PhotoUpload struct {
	UploadURL string
	ObjectKey string
	ExpiresAt time.Time
}

type TrainerService interface {
	// Roster
	CreateStudent(ctx context.Context, trainerID primitive.ObjectID, in NewStudentInput) (*domain.Student, error)
	ListStudents(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Student, error)
	GetStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error)
	DeleteStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) error

	// Assessments and strength workouts
	AddAssessment(ctx context.Context, trainerID, studentID primitive.ObjectID, in AssessmentInput) (*domain.Student, error)
	SaveWorkout(ctx context.Context, trainerID, studentID primitive.ObjectID, workout domain.Workout) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, trainerID, studentID primitive.ObjectID, workoutID string) error

	GetRunningSchedule(ctx context.Context, trainerID, studentID primitive.ObjectID, filter running.EntryFilter) (*domain.RunningSchedule, error)

	// Profile photos
	RequestPhotoUploadURL(ctx context.Context, trainerID, studentID primitive.ObjectID, contentType string) (*PhotoUpload, error)
	ConfirmPhoto(ctx context.Context, trainerID, studentID primitive.ObjectID, objectKey string) error
	GetPhotoURL(ctx context.Context, trainerID, studentID primitive.ObjectID) (string, error)
}

type trainerService struct {
	studentRepo    repository.StudentRepository
	runningService RunningService
	fileStorage    storage.FileStorage
	metricsManager *metrics.Manager
}

func NewTrainerService(
	studentRepo repository.StudentRepository,
	runningService RunningService,
	fileStorage storage.FileStorage,
	metricsManager *metrics.Manager,
) TrainerService {
	return &trainerService{
		studentRepo:    studentRepo,
		runningService: runningService,
		fileStorage:    fileStorage,
		metricsManager: metricsManager,
	}
}

// === Roster ===

// CreateStudent adds a student with the default achievements and a fresh
// running plan. When the plan cannot be stored the student is removed again.
func (s *trainerService) CreateStudent(ctx context.Context, trainerID primitive.ObjectID, in NewStudentInput) (_ *domain.Student, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "trainerService.createStudent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if trainerID == primitive.NilObjectID || name == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidInput
	}

	student := &domain.Student{
		TrainerID:    trainerID,
		Name:         name,
		Email:        email,
		BirthDate:    in.BirthDate,
		Sex:          in.Sex,
		Assessments:  []domain.Assessment{},
		Goals:        []domain.Goal{},
		Achievements: domain.DefaultAchievements(time.Now().UTC()),
		Workouts:     []domain.Workout{},
	}

	studentID, err := s.studentRepo.Create(ctx, student)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrStudentAlreadyExists
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	student.ID = studentID

	if _, err = s.runningService.CreateSchedule(ctx, studentID); err != nil {
		if delErr := s.studentRepo.Delete(ctx, studentID, trainerID); delErr != nil {
			log.Errorf("roll back student %s after schedule failure: %s", studentID.Hex(), delErr)
		}
		return nil, err
	}

	s.metricsManager.CounterStudentsCreated.Inc()
	log.Infof("trainer %s added student %s", trainerID.Hex(), studentID.Hex())
	return student, nil
}

func (s *trainerService) ListStudents(ctx context.Context, trainerID primitive.ObjectID) ([]domain.Student, error) {
	if trainerID == primitive.NilObjectID {
		return nil, ErrInvalidInput
	}
	return s.studentRepo.GetByTrainerID(ctx, trainerID)
}

func (s *trainerService) GetStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error) {
	return s.ownedStudent(ctx, trainerID, studentID)
}

// DeleteStudent removes the roster entry with its schedule. The photo object
// is removed best effort.
func (s *trainerService) DeleteStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) error {
	student, err := s.ownedStudent(ctx, trainerID, studentID)
	if err != nil {
		return err
	}

	if err := s.studentRepo.Delete(ctx, studentID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	if err := s.runningService.DeleteSchedule(ctx, studentID); err != nil && !errors.Is(err, ErrScheduleNotFound) {
		return err
	}

	if student.PhotoObjectKey != "" {
		if err := s.fileStorage.DeleteObject(ctx, student.PhotoObjectKey); err != nil {
			log.Warnf("delete photo %s of removed student: %s", student.PhotoObjectKey, err)
		}
	}
	return nil
}

// === Assessments ===

func (s *trainerService) AddAssessment(ctx context.Context, trainerID, studentID primitive.ObjectID, in AssessmentInput) (*domain.Student, error) {
	if !positiveFinite(in.WeightKg) || !positiveFinite(in.HeightCm) {
		return nil, ErrInvalidInput
	}
	for _, fold := range []*float64{in.ChestFoldMm, in.AbdominalFoldMm} {
		if fold != nil && (*fold < 0 || math.IsNaN(*fold) || math.IsInf(*fold, 0)) {
			return nil, ErrInvalidInput
		}
	}

	date := domain.NewDate(time.Now())
	if in.Date != nil {
		date = *in.Date
	}
	assessment := domain.Assessment{
		Date:            date,
		WeightKg:        in.WeightKg,
		HeightCm:        in.HeightCm,
		ChestFoldMm:     in.ChestFoldMm,
		AbdominalFoldMm: in.AbdominalFoldMm,
	}
	now := time.Now().UTC()

	return updateStudent(ctx, s.studentRepo, s.ownedLoader(trainerID, studentID), func(student *domain.Student) error {
		student.Assessments = append(student.Assessments, assessment)
		// oldest first, so the last one is the latest
		sort.SliceStable(student.Assessments, func(i, j int) bool {
			return student.Assessments[i].Date.Before(student.Assessments[j].Date)
		})
		domain.CheckAchievements(student, now)
		return nil
	})
}

// === Strength workouts ===

// SaveWorkout creates the workout when it has no id and replaces the stored
// one otherwise. Exercise lines without an id get one.
func (s *trainerService) SaveWorkout(ctx context.Context, trainerID, studentID primitive.ObjectID, workout domain.Workout) (*domain.Workout, error) {
	workout.Title = strings.TrimSpace(workout.Title)
	if workout.Title == "" {
		return nil, ErrInvalidInput
	}
	exercises := make([]domain.WorkoutExercise, 0, len(workout.Exercises))
	for _, ex := range workout.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			return nil, ErrInvalidInput
		}
		if ex.ID == "" {
			ex.ID = uuid.NewString()
		}
		exercises = append(exercises, ex)
	}
	workout.Exercises = exercises

	// the id is fixed before the first attempt so a retry does not mint another
	isNew := workout.ID == ""
	if isNew {
		workout.ID = uuid.NewString()
	}

	_, err := updateStudent(ctx, s.studentRepo, s.ownedLoader(trainerID, studentID), func(student *domain.Student) error {
		if isNew {
			student.Workouts = append(student.Workouts, workout)
			return nil
		}
		idx := workoutIndex(student.Workouts, workout.ID)
		if idx < 0 {
			return ErrWorkoutNotFound
		}
		student.Workouts[idx] = workout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &workout, nil
}

func (s *trainerService) DeleteWorkout(ctx context.Context, trainerID, studentID primitive.ObjectID, workoutID string) error {
	_, err := updateStudent(ctx, s.studentRepo, s.ownedLoader(trainerID, studentID), func(student *domain.Student) error {
		idx := workoutIndex(student.Workouts, workoutID)
		if idx < 0 {
			return ErrWorkoutNotFound
		}
		student.Workouts = append(student.Workouts[:idx], student.Workouts[idx+1:]...)
		return nil
	})
	return err
}

// === Running ===

func (s *trainerService) GetRunningSchedule(ctx context.Context, trainerID, studentID primitive.ObjectID, filter running.EntryFilter) (*domain.RunningSchedule, error) {
	if _, err := s.ownedStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}
	return s.runningService.GetSchedule(ctx, studentID, filter)
}

// === Profile photos ===

func (s *trainerService) RequestPhotoUploadURL(ctx context.Context, trainerID, studentID primitive.ObjectID, contentType string) (*PhotoUpload, error) {
	if !storage.IsImageContentType(contentType) {
		return nil, ErrInvalidContentType
	}
	if _, err := s.ownedStudent(ctx, trainerID, studentID); err != nil {
		return nil, err
	}

	objectKey := storage.StudentPhotoKey(studentID.Hex(), contentType)
	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign photo upload: %w", err)
	}

	return &PhotoUpload{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().UTC().Add(storage.DefaultPresignedURLExpiry),
	}, nil
}

// ConfirmPhoto records an uploaded object as the student's photo. The
// previous object, if any, is deleted best effort.
func (s *trainerService) ConfirmPhoto(ctx context.Context, trainerID, studentID primitive.ObjectID, objectKey string) error {
	if !strings.HasPrefix(objectKey, storage.StudentPhotoPrefix(studentID.Hex())) {
		return ErrInvalidPhotoKey
	}
	// previous is taken from whichever load the successful save was based on
	var previous string
	_, err := updateStudent(ctx, s.studentRepo, s.ownedLoader(trainerID, studentID), func(student *domain.Student) error {
		previous = student.PhotoObjectKey
		student.PhotoObjectKey = objectKey
		return nil
	})
	if err != nil {
		return err
	}

	if previous != "" && previous != objectKey {
		if err := s.fileStorage.DeleteObject(ctx, previous); err != nil {
			log.Warnf("delete replaced photo %s: %s", previous, err)
		}
	}
	return nil
}

func (s *trainerService) GetPhotoURL(ctx context.Context, trainerID, studentID primitive.ObjectID) (string, error) {
	student, err := s.ownedStudent(ctx, trainerID, studentID)
	if err != nil {
		return "", err
	}
	if student.PhotoObjectKey == "" {
		return "", ErrPhotoNotSet
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, student.PhotoObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", fmt.Errorf("presign photo download: %w", err)
	}
	return url, nil
}

// ownedStudent loads a student and checks it belongs to trainerID.
func (s *trainerService) ownedStudent(ctx context.Context, trainerID, studentID primitive.ObjectID) (*domain.Student, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.TrainerID != trainerID {
		return nil, ErrStudentAccessDenied
	}
	return student, nil
}

func (s *trainerService) ownedLoader(trainerID, studentID primitive.ObjectID) studentLoader {
	return func(ctx context.Context) (*domain.Student, error) {
		return s.ownedStudent(ctx, trainerID, studentID)
	}
}

func workoutIndex(workouts []domain.Workout, id string) int {
	for i := range workouts {
		if workouts[i].ID == id {
			return i
		}
	}
	return -1
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
