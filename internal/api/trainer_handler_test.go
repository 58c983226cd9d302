package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abfit/coach-api/internal/api"
	"abfit/coach-api/internal/domain"
)

func TestTrainer_Roster(t *testing.T) {
	s := newTestServer(t)
	trainer := s.trainerToken(t, "coach@abfit.com")
	other := s.trainerToken(t, "rival@abfit.com")

	student, _ := s.enrolStudent(t, trainer, "Maria@Example.com")
	assert.Equal(t, "maria@example.com", student.Email)
	assert.Equal(t, "1995-03-10", student.BirthDate.String())
	assert.False(t, student.HasPhoto)
	assert.Empty(t, student.Assessments)
	require.Len(t, student.Achievements, 5)
	assert.True(t, student.Achievements[0].Unlocked)

	rr := s.do(t, http.MethodPost, "/api/v1/trainer/students", other, gin.H{"name": "Copy", "email": "MARIA@example.com"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/trainer/students", trainer, gin.H{"name": "No Email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/trainer/students", trainer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]api.StudentResponse](t, rr), 1)

	rr = s.do(t, http.MethodGet, "/api/v1/trainer/students", other, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]api.StudentResponse](t, rr))

	rr = s.do(t, http.MethodGet, "/api/v1/trainer/students/"+student.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/trainer/students/not-an-id", trainer, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/trainer/students/64b7f0c2a1b2c3d4e5f60718", trainer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = s.do(t, http.MethodDelete, "/api/v1/trainer/students/"+student.ID, trainer, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/v1/auth/student-login", "", gin.H{"email": "maria@example.com"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrainer_AssessmentsAndWorkouts(t *testing.T) {
	s := newTestServer(t)
	trainer := s.trainerToken(t, "coach@abfit.com")
	student, studentToken := s.enrolStudent(t, trainer, "joao@example.com")
	base := "/api/v1/trainer/students/" + student.ID

	rr := s.do(t, http.MethodPost, base+"/assessments", trainer, gin.H{
		"date": "2025-11-30", "weightKg": 80, "heightCm": 180, "abdominalFoldMm": 18.5,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	withAssessment := decode[api.StudentResponse](t, rr)
	require.NotNil(t, withAssessment.LatestAssessment)
	assert.Equal(t, 24.7, withAssessment.LatestAssessment.BMI)

	rr = s.do(t, http.MethodPost, base+"/assessments", trainer, gin.H{"weightKg": 0, "heightCm": 180})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, base+"/workouts", trainer, gin.H{
		"title": "Treino A",
		"exercises": []gin.H{
			{"name": "Leg press", "sets": "4", "reps": "12", "load": "120kg"},
		},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	workout := decode[domain.Workout](t, rr)
	require.NotEmpty(t, workout.ID)

	rr = s.do(t, http.MethodPost, base+"/workouts", trainer, gin.H{"title": "Treino B", "exercises": []gin.H{{"sets": "3"}}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/student/workouts", studentToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	workouts := decode[[]domain.Workout](t, rr)
	require.Len(t, workouts, 1)
	assert.Equal(t, "Leg press", workouts[0].Exercises[0].Name)

	rr = s.do(t, http.MethodGet, "/api/v1/student/assessments", studentToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assessments := decode[[]api.AssessmentResponse](t, rr)
	require.Len(t, assessments, 1)
	assert.Equal(t, "2025-11-30", assessments[0].Date.String())

	rr = s.do(t, http.MethodDelete, base+"/workouts/"+workout.ID, trainer, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodDelete, base+"/workouts/"+workout.ID, trainer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTrainer_PhotosWithoutStorage(t *testing.T) {
	s := newTestServer(t)
	trainer := s.trainerToken(t, "coach@abfit.com")
	student, _ := s.enrolStudent(t, trainer, "foto@example.com")
	base := "/api/v1/trainer/students/" + student.ID + "/photo"

	rr := s.do(t, http.MethodPost, base+"/upload-url", trainer, gin.H{"contentType": "video/mp4"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, base+"/upload-url", trainer, gin.H{"contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = s.do(t, http.MethodPost, base+"/confirm", trainer, gin.H{"objectKey": "students/other/photo.png"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, base, trainer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
