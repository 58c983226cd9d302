package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"
	"abfit/coach-api/internal/repository/memory"
)

func fakeStudent(trainerID primitive.ObjectID) *domain.Student {
	return &domain.Student{
		TrainerID: trainerID,
		Name:      gofakeit.Name(),
		Email:     strings.ToUpper(gofakeit.Email()),
	}
}

func TestStudentRepo_BasicCRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStudentRepo()
	trainerID := primitive.NewObjectID()

	s := fakeStudent(trainerID)
	id, err := repo.Create(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(s.Email), s.Email)

	dup := fakeStudent(trainerID)
	dup.Email = strings.ToUpper(s.Email)
	_, err = repo.Create(ctx, dup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	got, err := repo.GetByEmail(ctx, " "+strings.ToUpper(s.Email)+" ")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	got.Goals = append(got.Goals, domain.Goal{ID: "g1", Title: "Correr 5km", Target: 5, Unit: "km"})
	got.TrainerID = primitive.NewObjectID()
	require.NoError(t, repo.Update(ctx, got))

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Len(t, stored.Goals, 1)
	assert.Equal(t, trainerID, stored.TrainerID, "owner is not updatable")

	stored.Goals[0].Title = "changed outside the repo"
	again, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Correr 5km", again.Goals[0].Title)

	assert.ErrorIs(t, repo.Delete(ctx, id, primitive.NewObjectID()), repository.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, id, trainerID))
	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStudentRepo_GetByTrainerID(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStudentRepo()
	trainerID := primitive.NewObjectID()

	for _, name := range []string{"Carla", "Ana", "Bruno"} {
		s := fakeStudent(trainerID)
		s.Name = name
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, fakeStudent(primitive.NewObjectID()))
	require.NoError(t, err)

	list, err := repo.GetByTrainerID(ctx, trainerID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Ana", list[0].Name)
	assert.Equal(t, "Carla", list[2].Name)

	empty, err := repo.GetByTrainerID(ctx, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStudentRepo_UpdateRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStudentRepo()

	student := fakeStudent(primitive.NewObjectID())
	id, err := repo.Create(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.Version)

	trainerCopy, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	studentCopy, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	trainerCopy.Assessments = []domain.Assessment{{Date: domain.MustParseDate("2025-12-01"), WeightKg: 60, HeightCm: 165}}
	require.NoError(t, repo.Update(ctx, trainerCopy))
	assert.Equal(t, int64(2), trainerCopy.Version)

	studentCopy.Goals = []domain.Goal{{ID: "g1", Title: "10km", Target: 10, Unit: "km"}}
	assert.ErrorIs(t, repo.Update(ctx, studentCopy), repository.ErrVersionConflict)
	assert.Equal(t, int64(1), studentCopy.Version)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.Assessments, 1)
	assert.Empty(t, stored.Goals)
}
