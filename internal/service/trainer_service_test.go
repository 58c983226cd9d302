package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/metrics"
	"abfit/coach-api/internal/repository"
	"abfit/coach-api/internal/repository/memory"
	"abfit/coach-api/internal/running"
	"abfit/coach-api/internal/service"
	"abfit/coach-api/internal/storage"
)

type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, objectKey string, _ string, _ time.Duration) (string, error) {
	return "https://photos.test/put/" + objectKey, nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://photos.test/get/" + objectKey, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, objectKey)
	return nil
}

type trainerFixture struct {
	svc      service.TrainerService
	running  service.RunningService
	students *memory.StudentRepo
	files    *fakeStorage
	metrics  *metrics.Manager
}

func newTrainerFixture(t *testing.T) *trainerFixture {
	t.Helper()
	m := metrics.NewTestManager()
	students := memory.NewStudentRepo()
	runningSvc := service.NewRunningService(memory.NewScheduleRepo(), fixedClock{today: scheduleStart}, running.UUIDGenerator{}, 4, m)
	files := &fakeStorage{}
	return &trainerFixture{
		svc:      service.NewTrainerService(students, runningSvc, files, m),
		running:  runningSvc,
		students: students,
		files:    files,
		metrics:  m,
	}
}

func (f *trainerFixture) addStudent(t *testing.T, trainerID primitive.ObjectID) *domain.Student {
	t.Helper()
	student, err := f.svc.CreateStudent(context.Background(), trainerID, service.NewStudentInput{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
		Sex:   "F",
	})
	require.NoError(t, err)
	return student
}

func TestTrainerService_CreateStudent(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()
	birth := domain.MustParseDate("1990-04-12")

	student, err := f.svc.CreateStudent(ctx, trainerID, service.NewStudentInput{
		Name:      "  Ana Souza ",
		Email:     " Ana.Souza@Example.com",
		BirthDate: &birth,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", student.Name)
	assert.Equal(t, "ana.souza@example.com", student.Email)
	assert.Equal(t, trainerID, student.TrainerID)

	require.Len(t, student.Achievements, 5)
	assert.Equal(t, domain.AchievementWelcome, student.Achievements[0].ID)
	assert.True(t, student.Achievements[0].Unlocked)
	for _, a := range student.Achievements[1:] {
		assert.False(t, a.Unlocked, a.ID)
	}

	schedule, err := f.running.GetSchedule(ctx, student.ID, running.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, schedule.Entries, 16)
	assert.Equal(t, scheduleStart, schedule.Entries[0].ScheduledDate)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CounterStudentsCreated))

	_, err = f.svc.CreateStudent(ctx, primitive.NewObjectID(), service.NewStudentInput{Name: "Other", Email: "ANA.SOUZA@example.com"})
	assert.ErrorIs(t, err, service.ErrStudentAlreadyExists)
}

func TestTrainerService_CreateStudent_InvalidInput(t *testing.T) {
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()

	for _, in := range []service.NewStudentInput{
		{Name: "", Email: "a@b.com"},
		{Name: "Bia", Email: ""},
		{Name: "Bia", Email: "not-an-email"},
	} {
		_, err := f.svc.CreateStudent(context.Background(), trainerID, in)
		assert.ErrorIs(t, err, service.ErrInvalidInput, "%+v", in)
	}
}

func TestTrainerService_CreateStudent_RollsBackWhenScheduleFails(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	scheduleRepo := NewMockScheduleRepository(ctrl)
	scheduleRepo.EXPECT().CreateSchedule(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	m := metrics.NewTestManager()
	students := memory.NewStudentRepo()
	runningSvc := service.NewRunningService(scheduleRepo, fixedClock{today: scheduleStart}, &seqIDs{}, 4, m)
	svc := service.NewTrainerService(students, runningSvc, &fakeStorage{}, m)
	trainerID := primitive.NewObjectID()

	_, err := svc.CreateStudent(ctx, trainerID, service.NewStudentInput{Name: "Caio", Email: "caio@example.com"})
	require.Error(t, err)

	list, err := svc.ListStudents(ctx, trainerID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.CounterStudentsCreated))
}

func TestTrainerService_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	student := f.addStudent(t, owner)

	_, err := f.svc.GetStudent(ctx, intruder, student.ID)
	assert.ErrorIs(t, err, service.ErrStudentAccessDenied)
	_, err = f.svc.AddAssessment(ctx, intruder, student.ID, service.AssessmentInput{WeightKg: 70, HeightCm: 170})
	assert.ErrorIs(t, err, service.ErrStudentAccessDenied)
	_, err = f.svc.GetRunningSchedule(ctx, intruder, student.ID, running.EntryFilter{})
	assert.ErrorIs(t, err, service.ErrStudentAccessDenied)
	assert.ErrorIs(t, f.svc.DeleteStudent(ctx, intruder, student.ID), service.ErrStudentAccessDenied)

	_, err = f.svc.GetStudent(ctx, owner, primitive.NewObjectID())
	assert.ErrorIs(t, err, service.ErrStudentNotFound)

	list, err := f.svc.ListStudents(ctx, intruder)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTrainerService_AddAssessment(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()
	student := f.addStudent(t, trainerID)

	chest := 12.5
	later := domain.MustParseDate("2025-11-20")
	earlier := domain.MustParseDate("2025-10-01")

	updated, err := f.svc.AddAssessment(ctx, trainerID, student.ID, service.AssessmentInput{
		Date: &later, WeightKg: 80, HeightCm: 180, ChestFoldMm: &chest,
	})
	require.NoError(t, err)
	require.Len(t, updated.Assessments, 1)
	assert.Equal(t, 24.7, updated.LatestAssessment().BMI())

	unlocked := map[string]bool{}
	for _, a := range updated.Achievements {
		unlocked[a.ID] = a.Unlocked
	}
	assert.True(t, unlocked[domain.AchievementFirstAssessment])

	// a backdated assessment does not become the latest
	updated, err = f.svc.AddAssessment(ctx, trainerID, student.ID, service.AssessmentInput{
		Date: &earlier, WeightKg: 84, HeightCm: 180,
	})
	require.NoError(t, err)
	require.Len(t, updated.Assessments, 2)
	assert.Equal(t, later, updated.LatestAssessment().Date)

	stored, err := f.svc.GetStudent(ctx, trainerID, student.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Assessments, 2)

	negative := -1.0
	for _, in := range []service.AssessmentInput{
		{WeightKg: 0, HeightCm: 180},
		{WeightKg: 80, HeightCm: -2},
		{WeightKg: 80, HeightCm: 180, AbdominalFoldMm: &negative},
	} {
		_, err := f.svc.AddAssessment(ctx, trainerID, student.ID, in)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	}
}

func TestTrainerService_Workouts(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()
	student := f.addStudent(t, trainerID)

	created, err := f.svc.SaveWorkout(ctx, trainerID, student.ID, domain.Workout{
		Title: "Treino A",
		Exercises: []domain.WorkoutExercise{
			{Name: "Supino reto", Sets: "4", Reps: "10", Load: "30kg", Rest: "60s"},
			{Name: "Crucifixo", Sets: "3", Reps: "12"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	for _, ex := range created.Exercises {
		assert.NotEmpty(t, ex.ID)
	}

	created.Title = "Treino A - Peito"
	created.Exercises = created.Exercises[:1]
	replaced, err := f.svc.SaveWorkout(ctx, trainerID, student.ID, *created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.ID)

	stored, err := f.svc.GetStudent(ctx, trainerID, student.ID)
	require.NoError(t, err)
	require.Len(t, stored.Workouts, 1)
	assert.Equal(t, "Treino A - Peito", stored.Workouts[0].Title)
	assert.Len(t, stored.Workouts[0].Exercises, 1)

	_, err = f.svc.SaveWorkout(ctx, trainerID, student.ID, domain.Workout{ID: "missing", Title: "X"})
	assert.ErrorIs(t, err, service.ErrWorkoutNotFound)
	_, err = f.svc.SaveWorkout(ctx, trainerID, student.ID, domain.Workout{Title: " "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	require.NoError(t, f.svc.DeleteWorkout(ctx, trainerID, student.ID, created.ID))
	assert.ErrorIs(t, f.svc.DeleteWorkout(ctx, trainerID, student.ID, created.ID), service.ErrWorkoutNotFound)
}

func TestTrainerService_Photos(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()
	student := f.addStudent(t, trainerID)

	_, err := f.svc.RequestPhotoUploadURL(ctx, trainerID, student.ID, "application/pdf")
	assert.ErrorIs(t, err, service.ErrInvalidContentType)

	_, err = f.svc.GetPhotoURL(ctx, trainerID, student.ID)
	assert.ErrorIs(t, err, service.ErrPhotoNotSet)

	upload, err := f.svc.RequestPhotoUploadURL(ctx, trainerID, student.ID, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.ObjectKey, storage.StudentPhotoPrefix(student.ID.Hex())))
	assert.True(t, strings.HasSuffix(upload.ObjectKey, ".jpg"))
	assert.Contains(t, upload.UploadURL, upload.ObjectKey)
	assert.True(t, upload.ExpiresAt.After(time.Now()))

	err = f.svc.ConfirmPhoto(ctx, trainerID, student.ID, "students/someone-else/photo.jpg")
	assert.ErrorIs(t, err, service.ErrInvalidPhotoKey)

	require.NoError(t, f.svc.ConfirmPhoto(ctx, trainerID, student.ID, upload.ObjectKey))
	url, err := f.svc.GetPhotoURL(ctx, trainerID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://photos.test/get/"+upload.ObjectKey, url)

	second, err := f.svc.RequestPhotoUploadURL(ctx, trainerID, student.ID, "image/png")
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmPhoto(ctx, trainerID, student.ID, second.ObjectKey))
	assert.Equal(t, []string{upload.ObjectKey}, f.files.deleted)
}

func TestTrainerService_DeleteStudent(t *testing.T) {
	ctx := context.Background()
	f := newTrainerFixture(t)
	trainerID := primitive.NewObjectID()
	student := f.addStudent(t, trainerID)

	upload, err := f.svc.RequestPhotoUploadURL(ctx, trainerID, student.ID, "image/webp")
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmPhoto(ctx, trainerID, student.ID, upload.ObjectKey))

	require.NoError(t, f.svc.DeleteStudent(ctx, trainerID, student.ID))

	_, err = f.svc.GetStudent(ctx, trainerID, student.ID)
	assert.ErrorIs(t, err, service.ErrStudentNotFound)
	_, err = f.running.GetSchedule(ctx, student.ID, running.EntryFilter{})
	assert.ErrorIs(t, err, service.ErrScheduleNotFound)
	assert.Equal(t, []string{upload.ObjectKey}, f.files.deleted)

	_, err = f.students.GetByID(ctx, student.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
