package running

import (
	"fmt"
	"math"
	"strings"
	"time"

	"abfit/coach-api/internal/domain"
)

const (
	MinExertion = 1
	MaxExertion = 10

	// Upper bounds for a single session; anything beyond is a typo.
	MaxDistanceKm  = 1000
	MaxDurationMin = 7 * 24 * 60

	adjustedNote = "Volume ajustado para o futuro."
)

// FeedbackInput is one post-session report from the student.
type FeedbackInput struct {
	EntryID           string
	ActualDistanceKm  float64
	ActualDurationMin float64
	PerceivedExertion int
	// CompletedAt is stamped on the feedback for display only.
	CompletedAt time.Time
}

// FeedbackOutcome carries the new schedule plus what changed in it.
type FeedbackOutcome struct {
	Entries   []domain.RunningWorkoutEntry
	Completed domain.RunningWorkoutEntry
	// Adjusted is nil when no later entry of the same type was pending.
	Adjusted *domain.RunningWorkoutEntry
	Factor   float64
}

// Validate checks the input alone, without looking at any schedule.
func (in FeedbackInput) Validate() error {
	if strings.TrimSpace(in.EntryID) == "" {
		return &ValidationError{Field: "entryId", Reason: "is required"}
	}
	if !isPositive(in.ActualDistanceKm) {
		return &ValidationError{Field: "actualDistanceKm", Reason: "must be greater than 0"}
	}
	if in.ActualDistanceKm > MaxDistanceKm {
		return &ValidationError{Field: "actualDistanceKm", Reason: fmt.Sprintf("must be at most %d", MaxDistanceKm)}
	}
	if !isPositive(in.ActualDurationMin) {
		return &ValidationError{Field: "actualDurationMin", Reason: "must be greater than 0"}
	}
	if in.ActualDurationMin > MaxDurationMin {
		return &ValidationError{Field: "actualDurationMin", Reason: fmt.Sprintf("must be at most %d", MaxDurationMin)}
	}
	if in.PerceivedExertion < MinExertion || in.PerceivedExertion > MaxExertion {
		return &ValidationError{Field: "perceivedExertion", Reason: "must be between 1 and 10"}
	}
	return nil
}

// RecordFeedback completes one PENDING entry and lets the progression rules
// adjust at most one later entry of the same type. The input slice is left
// untouched; on error no outcome is produced.
func RecordFeedback(entries []domain.RunningWorkoutEntry, in FeedbackInput) (FeedbackOutcome, error) {
	if err := in.Validate(); err != nil {
		return FeedbackOutcome{}, err
	}

	idx := indexOf(entries, in.EntryID)
	if idx == -1 {
		return FeedbackOutcome{}, &NotFoundError{EntryID: in.EntryID}
	}
	if !entries[idx].IsPending() {
		return FeedbackOutcome{}, &InvalidStateError{EntryID: in.EntryID, Status: entries[idx].Status}
	}

	completed := entries[idx]
	completed.Status = domain.EntryStatusCompleted
	completed.Feedback = &domain.RunningFeedback{
		PerceivedExertion: in.PerceivedExertion,
		ActualDistanceKm:  in.ActualDistanceKm,
		ActualDurationMin: in.ActualDurationMin,
		Pace:              FormatPace(in.ActualDistanceKm, in.ActualDurationMin),
		CompletedAt:       in.CompletedAt,
	}

	next, adjusted := AdjustNext(ReplaceByID(entries, completed), completed)
	if adjusted != nil {
		completed.Feedback.Notes = adjustedNote
		next[idx] = cloneEntry(completed)
	}

	return FeedbackOutcome{
		Entries:   next,
		Completed: completed,
		Adjusted:  adjusted,
		Factor:    FactorFor(in.PerceivedExertion),
	}, nil
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
