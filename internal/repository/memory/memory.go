// Package memory holds map-backed repositories for tests and for running the
// API without a database (database.driver: memory).
package memory

import (
	"abfit/coach-api/internal/domain"
)

func cloneStudent(s *domain.Student) *domain.Student {
	c := *s
	if s.BirthDate != nil {
		bd := *s.BirthDate
		c.BirthDate = &bd
	}
	c.Assessments = append([]domain.Assessment(nil), s.Assessments...)
	c.Goals = append([]domain.Goal(nil), s.Goals...)
	c.Achievements = make([]domain.Achievement, len(s.Achievements))
	for i, a := range s.Achievements {
		if a.UnlockedAt != nil {
			at := *a.UnlockedAt
			a.UnlockedAt = &at
		}
		c.Achievements[i] = a
	}
	c.Workouts = make([]domain.Workout, len(s.Workouts))
	for i, w := range s.Workouts {
		w.Exercises = append([]domain.WorkoutExercise(nil), w.Exercises...)
		c.Workouts[i] = w
	}
	return &c
}

func cloneSchedule(s *domain.RunningSchedule) *domain.RunningSchedule {
	c := *s
	c.Entries = make([]domain.RunningWorkoutEntry, len(s.Entries))
	for i, e := range s.Entries {
		if e.Feedback != nil {
			fb := *e.Feedback
			e.Feedback = &fb
		}
		c.Entries[i] = e
	}
	return &c
}
