package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/metrics"
	"abfit/coach-api/internal/repository"
	"abfit/coach-api/internal/running"
	"abfit/coach-api/internal/tracing"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrScheduleNotFound = errors.New("running schedule not found")
	// ErrScheduleConflict means concurrent writers kept winning the
	// compare-and-swap until retries ran out.
	ErrScheduleConflict = errors.New("running schedule was modified concurrently")
)

// maxSaveAttempts bounds the load-record-save loop on version conflicts.
const maxSaveAttempts = 2

type RunningService interface {
	CreateSchedule(ctx context.Context, studentID primitive.ObjectID) (*domain.RunningSchedule, error)
	GetSchedule(ctx context.Context, studentID primitive.ObjectID, filter running.EntryFilter) (*domain.RunningSchedule, error)
	SubmitFeedback(ctx context.Context, studentID primitive.ObjectID, in running.FeedbackInput) (*running.FeedbackOutcome, error)
	DeleteSchedule(ctx context.Context, studentID primitive.ObjectID) error
}

type runningService struct {
	scheduleRepo   repository.ScheduleRepository
	clock          running.Clock
	ids            running.IDGenerator
	weeks          int
	metricsManager *metrics.Manager
}

func NewRunningService(
	scheduleRepo repository.ScheduleRepository,
	clock running.Clock,
	ids running.IDGenerator,
	weeks int,
	metricsManager *metrics.Manager,
) RunningService {
	if weeks <= 0 {
		weeks = running.DefaultWeeks
	}
	return &runningService{
		scheduleRepo:   scheduleRepo,
		clock:          clock,
		ids:            ids,
		weeks:          weeks,
		metricsManager: metricsManager,
	}
}

// CreateSchedule generates the plan of a new student starting today.
func (s *runningService) CreateSchedule(ctx context.Context, studentID primitive.ObjectID) (_ *domain.RunningSchedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "runningService.createSchedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	schedule := &domain.RunningSchedule{
		StudentID: studentID,
		Entries:   running.GenerateSchedule(s.clock.Today(), s.weeks, s.ids),
	}
	if err = s.scheduleRepo.CreateSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	log.Debugf("running schedule created for student %s: %d entries", studentID.Hex(), len(schedule.Entries))
	return schedule, nil
}

// GetSchedule returns the stored schedule with only the entries matching filter.
func (s *runningService) GetSchedule(ctx context.Context, studentID primitive.ObjectID, filter running.EntryFilter) (_ *domain.RunningSchedule, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "runningService.getSchedule")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	schedule, err := s.load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	schedule.Entries = running.Filter(schedule.Entries, filter)
	return schedule, nil
}

// SubmitFeedback runs one feedback submission as a single read-modify-write
// of the whole schedule. A lost compare-and-swap reloads and replays the
// submission, so a concurrent duplicate ends in InvalidStateError instead of
// a second adjustment.
func (s *runningService) SubmitFeedback(ctx context.Context, studentID primitive.ObjectID, in running.FeedbackInput) (_ *running.FeedbackOutcome, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "runningService.submitFeedback")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
		s.metricsManager.CounterFeedback.WithLabelValues(feedbackOutcome(err)).Inc()
	}()

	if err = in.Validate(); err != nil {
		return nil, err
	}
	if in.CompletedAt.IsZero() {
		in.CompletedAt = time.Now().UTC()
	}

	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		var schedule *domain.RunningSchedule
		schedule, err = s.load(ctx, studentID)
		if err != nil {
			return nil, err
		}

		// Recomputed from the fresh load on every attempt; a retry after a
		// duplicate submission lands here with the entry already COMPLETED.
		var outcome running.FeedbackOutcome
		outcome, err = running.RecordFeedback(schedule.Entries, in)
		if err != nil {
			return nil, err
		}

		schedule.Entries = outcome.Entries
		err = s.scheduleRepo.SaveSchedule(ctx, schedule)
		if err == nil {
			s.logOutcome(studentID, outcome)
			return &outcome, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, fmt.Errorf("save schedule: %w", err)
		}
		log.Warnf("running schedule of student %s changed during feedback (attempt %d/%d)", studentID.Hex(), attempt, maxSaveAttempts)
	}

	err = ErrScheduleConflict
	return nil, err
}

func (s *runningService) DeleteSchedule(ctx context.Context, studentID primitive.ObjectID) error {
	if err := s.scheduleRepo.DeleteSchedule(ctx, studentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

func (s *runningService) load(ctx context.Context, studentID primitive.ObjectID) (*domain.RunningSchedule, error) {
	schedule, err := s.scheduleRepo.LoadSchedule(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	return schedule, nil
}

func (s *runningService) logOutcome(studentID primitive.ObjectID, outcome running.FeedbackOutcome) {
	fields := log.Fields{
		"student": studentID.Hex(),
		"entry":   outcome.Completed.ID,
		"pace":    outcome.Completed.Feedback.Pace,
		"rpe":     outcome.Completed.Feedback.PerceivedExertion,
	}
	if outcome.Adjusted == nil {
		log.WithFields(fields).Info("running feedback recorded, nothing to adjust")
		return
	}

	s.metricsManager.CounterAdjustments.WithLabelValues(metrics.AdjustmentDirection(outcome.Factor)).Inc()
	fields["adjusted"] = outcome.Adjusted.ID
	fields["factor"] = outcome.Factor
	log.WithFields(fields).Info("running feedback recorded, next session adjusted")
}

func feedbackOutcome(err error) string {
	var (
		validationErr *running.ValidationError
		notFoundErr   *running.NotFoundError
		stateErr      *running.InvalidStateError
	)
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &validationErr):
		return metrics.OutcomeInvalid
	case errors.As(err, &notFoundErr), errors.Is(err, ErrScheduleNotFound):
		return metrics.OutcomeNotFound
	case errors.As(err, &stateErr):
		return metrics.OutcomeInvalidState
	case errors.Is(err, ErrScheduleConflict):
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
