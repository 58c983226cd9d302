package domain

// Workout is a strength session prescribed by the trainer, e.g. "Treino A".
// Workouts are embedded in the student document, ids are uuids.
type Workout struct {
	ID          string            `bson:"id" json:"id"`
	Title       string            `bson:"title" json:"title"`
	Description string            `bson:"description,omitempty" json:"description,omitempty"`
	Exercises   []WorkoutExercise `bson:"exercises" json:"exercises"`
}

// WorkoutExercise is one prescribed exercise line inside a Workout.
// Sets, reps and load are free text ("3", "10-12", "20kg").
type WorkoutExercise struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Sets        string `bson:"sets" json:"sets"`
	Reps        string `bson:"reps" json:"reps"`
	Load        string `bson:"load,omitempty" json:"load,omitempty"`
	Rest        string `bson:"rest,omitempty" json:"rest,omitempty"`
	Observation string `bson:"observation,omitempty" json:"observation,omitempty"`
}
