package api_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abfit/coach-api/internal/api"
)

func TestExercises_CRUD(t *testing.T) {
	s := newTestServer(t)
	trainer := s.trainerToken(t, "coach@abfit.com")
	other := s.trainerToken(t, "rival@abfit.com")

	rr := s.do(t, http.MethodPost, "/api/v1/exercises", trainer, gin.H{
		"name": "Remada curvada", "muscleGroup": "Costas", "videoUrl": "https://videos.test/remada",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[api.ExerciseResponse](t, rr)

	rr = s.do(t, http.MethodPost, "/api/v1/exercises", trainer, gin.H{"name": "Bad", "videoUrl": "not a url"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodGet, "/api/v1/exercises/"+created.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/v1/exercises/"+created.ID, trainer, gin.H{"name": "Remada unilateral", "muscleGroup": "Costas"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Remada unilateral", decode[api.ExerciseResponse](t, rr).Name)

	rr = s.do(t, http.MethodGet, "/api/v1/exercises", trainer, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]api.ExerciseResponse](t, rr), 1)

	rr = s.do(t, http.MethodDelete, "/api/v1/exercises/"+created.ID, trainer, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.do(t, http.MethodGet, "/api/v1/exercises/"+created.ID, trainer, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
