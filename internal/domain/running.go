package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutType is the closed set of running session kinds.
type WorkoutType string

const (
	WorkoutTypeInterval WorkoutType = "INTERVAL"
	WorkoutTypeBaseRun  WorkoutType = "BASE_RUN"
	WorkoutTypeFartlek  WorkoutType = "FARTLEK"
	WorkoutTypeTempo    WorkoutType = "TEMPO"
)

// WorkoutTypes lists every type in weekly schedule order.
var WorkoutTypes = []WorkoutType{
	WorkoutTypeInterval,
	WorkoutTypeBaseRun,
	WorkoutTypeFartlek,
	WorkoutTypeTempo,
}

func (t WorkoutType) IsValid() bool {
	switch t {
	case WorkoutTypeInterval, WorkoutTypeBaseRun, WorkoutTypeFartlek, WorkoutTypeTempo:
		return true
	default:
		return false
	}
}

// EntryStatus moves one way: PENDING -> COMPLETED.
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "PENDING"
	EntryStatusCompleted EntryStatus = "COMPLETED"
)

func (s EntryStatus) IsValid() bool {
	return s == EntryStatusPending || s == EntryStatusCompleted
}

// RunningFeedback is the student's report for one completed session.
type RunningFeedback struct {
	PerceivedExertion int       `bson:"perceivedExertion" json:"perceivedExertion"`
	ActualDistanceKm  float64   `bson:"actualDistanceKm" json:"actualDistanceKm"`
	ActualDurationMin float64   `bson:"actualDurationMin" json:"actualDurationMin"`
	Pace              string    `bson:"pace" json:"pace"` // "M:SS /km"
	Notes             string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt       time.Time `bson:"completedAt" json:"completedAt"`
}

// RunningWorkoutEntry is one scheduled running session.
type RunningWorkoutEntry struct {
	ID                  string           `bson:"id" json:"id"`
	Type                WorkoutType      `bson:"type" json:"type"`
	Title               string           `bson:"title" json:"title"`
	WarmupText          string           `bson:"warmupText" json:"warmupText"`
	MainText            string           `bson:"mainText" json:"mainText"`
	CooldownText        string           `bson:"cooldownText" json:"cooldownText"`
	ScheduledDate       Date             `bson:"scheduledDate" json:"scheduledDate"`
	TargetDistanceKm    float64          `bson:"targetDistanceKm" json:"targetDistanceKm"`
	TargetDistanceLabel string           `bson:"targetDistanceLabel" json:"targetDistanceLabel"`
	TargetDurationMin   float64          `bson:"targetDurationMin" json:"targetDurationMin"`
	TargetDurationLabel string           `bson:"targetDurationLabel" json:"targetDurationLabel"`
	Status              EntryStatus      `bson:"status" json:"status"`
	Feedback            *RunningFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

func (e RunningWorkoutEntry) IsPending() bool {
	return e.Status == EntryStatusPending
}

// RunningSchedule is the whole ordered plan of one student.
// Version guards whole-collection replaces (compare-and-swap).
type RunningSchedule struct {
	StudentID primitive.ObjectID    `bson:"_id" json:"studentId"`
	Entries   []RunningWorkoutEntry `bson:"entries" json:"entries"`
	Version   int64                 `bson:"version" json:"version"`
	UpdatedAt time.Time             `bson:"updatedAt" json:"updatedAt"`
}
