package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

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
)

var scheduleStart = domain.MustParseDate("2025-12-01")

func newRunningService(t *testing.T, repo repository.ScheduleRepository) (service.RunningService, *metrics.Manager) {
	t.Helper()
	m := metrics.NewTestManager()
	svc := service.NewRunningService(repo, fixedClock{today: scheduleStart}, &seqIDs{}, 4, m)
	return svc, m
}

func TestRunningService_CreateAndGetSchedule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRunningService(t, memory.NewScheduleRepo())
	studentID := primitive.NewObjectID()

	created, err := svc.CreateSchedule(ctx, studentID)
	require.NoError(t, err)
	require.Len(t, created.Entries, 16)
	assert.Equal(t, int64(1), created.Version)
	assert.Equal(t, scheduleStart, created.Entries[0].ScheduledDate)

	tempo := domain.WorkoutTypeTempo
	schedule, err := svc.GetSchedule(ctx, studentID, running.EntryFilter{Type: &tempo})
	require.NoError(t, err)
	require.Len(t, schedule.Entries, 4)
	for _, e := range schedule.Entries {
		assert.Equal(t, domain.WorkoutTypeTempo, e.Type)
	}

	_, err = svc.GetSchedule(ctx, primitive.NewObjectID(), running.EntryFilter{})
	assert.ErrorIs(t, err, service.ErrScheduleNotFound)
}

func TestRunningService_SubmitFeedback(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewScheduleRepo()
	svc, m := newRunningService(t, repo)
	studentID := primitive.NewObjectID()

	_, err := svc.CreateSchedule(ctx, studentID)
	require.NoError(t, err)

	outcome, err := svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 6,
	})
	require.NoError(t, err)

	assert.Equal(t, 1.05, outcome.Factor)
	assert.Equal(t, domain.EntryStatusCompleted, outcome.Completed.Status)
	require.NotNil(t, outcome.Completed.Feedback)
	assert.Equal(t, "6:00 /km", outcome.Completed.Feedback.Pace)
	assert.False(t, outcome.Completed.Feedback.CompletedAt.IsZero())

	// next INTERVAL session is one week later
	require.NotNil(t, outcome.Adjusted)
	assert.Equal(t, "run-05", outcome.Adjusted.ID)
	assert.Equal(t, 5.3, outcome.Adjusted.TargetDistanceKm)
	assert.Equal(t, 32.0, outcome.Adjusted.TargetDurationMin)

	stored, err := repo.LoadSchedule(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Len(t, stored.Entries, 16)
	assert.Equal(t, domain.EntryStatusCompleted, stored.Entries[0].Status)
	assert.Equal(t, 5.3, stored.Entries[4].TargetDistanceKm)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFeedback.WithLabelValues(metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterAdjustments.WithLabelValues(metrics.DirectionUp)))

	// a second report for the same session is rejected and changes nothing
	_, err = svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 2,
	})
	var stateErr *running.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFeedback.WithLabelValues(metrics.OutcomeInvalidState)))

	after, err := repo.LoadSchedule(ctx, studentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.Version)
	assert.Equal(t, 5.3, after.Entries[4].TargetDistanceKm)
}

func TestRunningService_SubmitFeedback_Errors(t *testing.T) {
	ctx := context.Background()
	svc, m := newRunningService(t, memory.NewScheduleRepo())
	studentID := primitive.NewObjectID()
	_, err := svc.CreateSchedule(ctx, studentID)
	require.NoError(t, err)

	_, err = svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{EntryID: "run-01", ActualDistanceKm: 5, ActualDurationMin: 30, PerceivedExertion: 11})
	var validationErr *running.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "perceivedExertion", validationErr.Field)

	_, err = svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{EntryID: "nope", ActualDistanceKm: 5, ActualDurationMin: 30, PerceivedExertion: 5})
	var notFoundErr *running.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	_, err = svc.SubmitFeedback(ctx, primitive.NewObjectID(), running.FeedbackInput{EntryID: "run-01", ActualDistanceKm: 5, ActualDurationMin: 30, PerceivedExertion: 5})
	require.ErrorIs(t, err, service.ErrScheduleNotFound)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFeedback.WithLabelValues(metrics.OutcomeInvalid)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterFeedback.WithLabelValues(metrics.OutcomeNotFound)))
}

func freshSchedule(studentID primitive.ObjectID, version int64) *domain.RunningSchedule {
	return &domain.RunningSchedule{
		StudentID: studentID,
		Entries:   running.GenerateSchedule(scheduleStart, 2, &seqIDs{}),
		Version:   version,
		UpdatedAt: time.Now(),
	}
}

func TestRunningService_SubmitFeedback_RetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockScheduleRepository(ctrl)
	svc, _ := newRunningService(t, repo)
	studentID := primitive.NewObjectID()

	gomock.InOrder(
		repo.EXPECT().LoadSchedule(gomock.Any(), studentID).Return(freshSchedule(studentID, 1), nil),
		repo.EXPECT().SaveSchedule(gomock.Any(), gomock.Any()).Return(repository.ErrVersionConflict),
		repo.EXPECT().LoadSchedule(gomock.Any(), studentID).Return(freshSchedule(studentID, 2), nil),
		repo.EXPECT().SaveSchedule(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, s *domain.RunningSchedule) error {
				assert.Equal(t, int64(2), s.Version)
				assert.Equal(t, domain.EntryStatusCompleted, s.Entries[0].Status)
				s.Version++
				return nil
			}),
	)

	outcome, err := svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 9,
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Adjusted)
	assert.Equal(t, 4.8, outcome.Adjusted.TargetDistanceKm)
}

func TestRunningService_SubmitFeedback_ConcurrentDuplicateLoses(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockScheduleRepository(ctrl)
	svc, _ := newRunningService(t, repo)
	studentID := primitive.NewObjectID()

	// someone else completed run-01 between our load and save
	alreadyDone := freshSchedule(studentID, 2)
	alreadyDone.Entries[0].Status = domain.EntryStatusCompleted
	alreadyDone.Entries[0].Feedback = &domain.RunningFeedback{PerceivedExertion: 5, Pace: "6:00 /km"}

	gomock.InOrder(
		repo.EXPECT().LoadSchedule(gomock.Any(), studentID).Return(freshSchedule(studentID, 1), nil),
		repo.EXPECT().SaveSchedule(gomock.Any(), gomock.Any()).Return(repository.ErrVersionConflict),
		repo.EXPECT().LoadSchedule(gomock.Any(), studentID).Return(alreadyDone, nil),
	)

	_, err := svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 5,
	})
	var stateErr *running.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestRunningService_SubmitFeedback_GivesUpAfterRetry(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockScheduleRepository(ctrl)
	svc, m := newRunningService(t, repo)
	studentID := primitive.NewObjectID()

	repo.EXPECT().LoadSchedule(gomock.Any(), studentID).
		DoAndReturn(func(context.Context, primitive.ObjectID) (*domain.RunningSchedule, error) {
			return freshSchedule(studentID, 1), nil
		}).Times(2)
	repo.EXPECT().SaveSchedule(gomock.Any(), gomock.Any()).Return(repository.ErrVersionConflict).Times(2)

	_, err := svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 5,
	})
	require.ErrorIs(t, err, service.ErrScheduleConflict)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterFeedback.WithLabelValues(metrics.OutcomeConflict)))
}

func TestRunningService_SubmitFeedback_StoreFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	repo := NewMockScheduleRepository(ctrl)
	svc, _ := newRunningService(t, repo)
	studentID := primitive.NewObjectID()

	boom := errors.New("connection reset")
	repo.EXPECT().LoadSchedule(gomock.Any(), studentID).Return(freshSchedule(studentID, 1), nil)
	repo.EXPECT().SaveSchedule(gomock.Any(), gomock.Any()).Return(boom)

	_, err := svc.SubmitFeedback(ctx, studentID, running.FeedbackInput{
		EntryID:           "run-01",
		ActualDistanceKm:  5,
		ActualDurationMin: 30,
		PerceivedExertion: 5,
	})
	require.ErrorIs(t, err, boom)
}
