package service

import (
	"context"
	"errors"
	"fmt"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/repository"

	log "github.com/sirupsen/logrus"
)

// ErrStudentConflict means the student document kept changing underneath
// the write until the retries ran out.
var ErrStudentConflict = errors.New("student was modified concurrently")

// maxStudentSaveAttempts is higher than the schedule's because two roles
// (trainer and student) write the same document.
const maxStudentSaveAttempts = 3

type studentLoader func(ctx context.Context) (*domain.Student, error)

// updateStudent runs load, mutate and a version-checked save. On a version
// conflict the student is loaded again and mutate re-applied, so mutate must
// only depend on the student it is handed plus values fixed by the caller.
func updateStudent(
	ctx context.Context,
	studentRepo repository.StudentRepository,
	load studentLoader,
	mutate func(student *domain.Student) error,
) (*domain.Student, error) {
	for attempt := 1; ; attempt++ {
		student, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := mutate(student); err != nil {
			return nil, err
		}

		err = studentRepo.Update(ctx, student)
		switch {
		case err == nil:
			return student, nil
		case errors.Is(err, repository.ErrNotFound):
			// deleted between load and save
			return nil, ErrStudentNotFound
		case errors.Is(err, repository.ErrVersionConflict):
			if attempt >= maxStudentSaveAttempts {
				log.Errorf("student %s still conflicting after %d attempts", student.ID.Hex(), attempt)
				return nil, ErrStudentConflict
			}
			log.Warnf("student %s changed concurrently, retrying (attempt %d)", student.ID.Hex(), attempt)
		default:
			return nil, fmt.Errorf("update student: %w", err)
		}
	}
}
