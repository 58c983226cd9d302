package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Student is a roster entry managed by a Trainer.
// Assessments, goals, achievements and strength workouts live embedded in the
// student document; the running schedule is stored separately.
type Student struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID      primitive.ObjectID `bson:"trainerId" json:"trainerId"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"` // stored lower-cased, unique
	BirthDate      *Date              `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Sex            string             `bson:"sex,omitempty" json:"sex,omitempty"`
	PhotoObjectKey string             `bson:"photoObjectKey,omitempty" json:"-"`

	Assessments  []Assessment  `bson:"assessments" json:"assessments"`
	Goals        []Goal        `bson:"goals" json:"goals"`
	Achievements []Achievement `bson:"achievements" json:"achievements"`
	Workouts     []Workout     `bson:"workouts" json:"workouts"`

	// Version is bumped on every update; trainer and student both write this
	// document, so writes are compare-and-swap on it.
	Version int64 `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// LatestAssessment returns nil when the student was never assessed.
func (s *Student) LatestAssessment() *Assessment {
	if len(s.Assessments) == 0 {
		return nil
	}
	return &s.Assessments[len(s.Assessments)-1]
}

// Assessment is one physical assessment taken by the trainer.
type Assessment struct {
	Date            Date     `bson:"date" json:"date"`
	WeightKg        float64  `bson:"weightKg" json:"weightKg"`
	HeightCm        float64  `bson:"heightCm" json:"heightCm"`
	ChestFoldMm     *float64 `bson:"chestFoldMm,omitempty" json:"chestFoldMm,omitempty"`
	AbdominalFoldMm *float64 `bson:"abdominalFoldMm,omitempty" json:"abdominalFoldMm,omitempty"`
}

// BMI is weight / height(m)^2 rounded to one decimal; 0 when height is unknown.
func (a Assessment) BMI() float64 {
	if a.HeightCm <= 0 {
		return 0
	}
	h := a.HeightCm / 100
	return math.Round(a.WeightKg/(h*h)*10) / 10
}

// Goal is a personal target tracked by the student.
type Goal struct {
	ID        string  `bson:"id" json:"id"`
	Title     string  `bson:"title" json:"title"`
	Target    float64 `bson:"target" json:"target"`
	Current   float64 `bson:"current" json:"current"`
	Unit      string  `bson:"unit" json:"unit"`
	Completed bool    `bson:"completed" json:"completed"`
}
