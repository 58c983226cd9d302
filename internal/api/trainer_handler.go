package api

import (
	"errors"
	"net/http"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/service"
	"abfit/coach-api/internal/storage"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type TrainerHandler struct {
	trainerService service.TrainerService
}

func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

// --- DTOs for roster management ---

type CreateStudentRequest struct {
	Name      string       `json:"name" binding:"required"`
	Email     string       `json:"email" binding:"required,email"`
	BirthDate *domain.Date `json:"birthDate"`
	Sex       string       `json:"sex" binding:"omitempty,oneof=M F"`
}

type AssessmentRequest struct {
	Date            *domain.Date `json:"date"`
	WeightKg        float64      `json:"weightKg" binding:"required,gt=0"`
	HeightCm        float64      `json:"heightCm" binding:"required,gt=0"`
	ChestFoldMm     *float64     `json:"chestFoldMm" binding:"omitempty,gte=0"`
	AbdominalFoldMm *float64     `json:"abdominalFoldMm" binding:"omitempty,gte=0"`
}

type WorkoutExerciseRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Sets        string `json:"sets"`
	Reps        string `json:"reps"`
	Load        string `json:"load"`
	Rest        string `json:"rest"`
	Observation string `json:"observation"`
}

// WorkoutRequest creates a workout when ID is empty and replaces it otherwise.
type WorkoutRequest struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title" binding:"required"`
	Description string                   `json:"description"`
	Exercises   []WorkoutExerciseRequest `json:"exercises" binding:"dive"`
}

func (r WorkoutRequest) toDomain() domain.Workout {
	exercises := make([]domain.WorkoutExercise, len(r.Exercises))
	for i, ex := range r.Exercises {
		exercises[i] = domain.WorkoutExercise{
			ID:          ex.ID,
			Name:        ex.Name,
			Sets:        ex.Sets,
			Reps:        ex.Reps,
			Load:        ex.Load,
			Rest:        ex.Rest,
			Observation: ex.Observation,
		}
	}
	return domain.Workout{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Exercises:   exercises,
	}
}

type PhotoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type PhotoUploadURLResponse struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ConfirmPhotoRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

type PhotoURLResponse struct {
	URL string `json:"url"`
}

// --- Handler Methods for roster management ---

// CreateStudent godoc
// @Summary Add a student to the trainer's roster
// @Description Creates the student with default achievements and a four week running plan starting today.
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param student body CreateStudentRequest true "Student details"
// @Success 201 {object} StudentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 409 {object} gin.H "Email already registered"
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /trainer/students [post]
func (h *TrainerHandler) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	student, err := h.trainerService.CreateStudent(c.Request.Context(), trainerID, service.NewStudentInput{
		Name:      req.Name,
		Email:     req.Email,
		BirthDate: req.BirthDate,
		Sex:       req.Sex,
	})
	if err != nil {
		abortWithStudentError(c, err, "Failed to create student.")
		return
	}
	c.JSON(http.StatusCreated, MapStudentToResponse(student))
}

// ListStudents godoc
// @Summary List the trainer's students
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {array} StudentResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Forbidden (not a trainer)"
// @Router /trainer/students [get]
func (h *TrainerHandler) ListStudents(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}

	students, err := h.trainerService.ListStudents(c.Request.Context(), trainerID)
	if err != nil {
		abortWithStudentError(c, err, "Failed to retrieve students.")
		return
	}
	c.JSON(http.StatusOK, MapStudentsToResponse(students))
}

// GetStudent godoc
// @Summary Get one student of the roster
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} StudentResponse
// @Failure 403 {object} gin.H "Student managed by another trainer"
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/students/{studentId} [get]
func (h *TrainerHandler) GetStudent(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}

	student, err := h.trainerService.GetStudent(c.Request.Context(), trainerID, studentID)
	if err != nil {
		abortWithStudentError(c, err, "Failed to retrieve student.")
		return
	}
	c.JSON(http.StatusOK, MapStudentToResponse(student))
}

// DeleteStudent godoc
// @Summary Remove a student together with the running plan
// @Tags Trainer
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 204 "Deleted"
// @Failure 403 {object} gin.H "Student managed by another trainer"
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/students/{studentId} [delete]
func (h *TrainerHandler) DeleteStudent(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}

	if err := h.trainerService.DeleteStudent(c.Request.Context(), trainerID, studentID); err != nil {
		abortWithStudentError(c, err, "Failed to delete student.")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddAssessment godoc
// @Summary Record a physical assessment
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param assessment body AssessmentRequest true "Measurements"
// @Success 201 {object} StudentResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Student not found"
// @Router /trainer/students/{studentId}/assessments [post]
func (h *TrainerHandler) AddAssessment(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	var req AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	student, err := h.trainerService.AddAssessment(c.Request.Context(), trainerID, studentID, service.AssessmentInput{
		Date:            req.Date,
		WeightKg:        req.WeightKg,
		HeightCm:        req.HeightCm,
		ChestFoldMm:     req.ChestFoldMm,
		AbdominalFoldMm: req.AbdominalFoldMm,
	})
	if err != nil {
		abortWithStudentError(c, err, "Failed to save assessment.")
		return
	}
	c.JSON(http.StatusCreated, MapStudentToResponse(student))
}

// SaveWorkout godoc
// @Summary Create or replace a strength workout
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param workout body WorkoutRequest true "Workout; send the id to replace an existing one"
// @Success 200 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "Student or workout not found"
// @Router /trainer/students/{studentId}/workouts [post]
func (h *TrainerHandler) SaveWorkout(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	workout, err := h.trainerService.SaveWorkout(c.Request.Context(), trainerID, studentID, req.toDomain())
	if err != nil {
		abortWithStudentError(c, err, "Failed to save workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// DeleteWorkout godoc
// @Summary Delete a strength workout
// @Tags Trainer
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param workoutId path string true "Workout ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Student or workout not found"
// @Router /trainer/students/{studentId}/workouts/{workoutId} [delete]
func (h *TrainerHandler) DeleteWorkout(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}

	if err := h.trainerService.DeleteWorkout(c.Request.Context(), trainerID, studentID, c.Param("workoutId")); err != nil {
		abortWithStudentError(c, err, "Failed to delete workout.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetRunningSchedule godoc
// @Summary View a student's running plan
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param status query string false "PENDING or COMPLETED"
// @Param type query string false "INTERVAL, BASE_RUN, FARTLEK or TEMPO"
// @Param from query string false "First date (YYYY-MM-DD), inclusive"
// @Param to query string false "Last date (YYYY-MM-DD), inclusive"
// @Success 200 {object} ScheduleResponse
// @Failure 404 {object} gin.H "Student or plan not found"
// @Router /trainer/students/{studentId}/running [get]
func (h *TrainerHandler) GetRunningSchedule(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	filter, ok := parseEntryFilter(c)
	if !ok {
		return
	}

	schedule, err := h.trainerService.GetRunningSchedule(c.Request.Context(), trainerID, studentID, filter)
	if err != nil {
		if isStudentError(err) {
			abortWithStudentError(c, err, "")
		} else {
			abortWithRunningError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, MapScheduleToResponse(schedule))
}

// RequestPhotoUploadURL godoc
// @Summary Request a pre-signed URL to upload a student's profile photo
// @Tags Trainer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param uploadRequest body PhotoUploadURLRequest true "Image content type"
// @Success 200 {object} PhotoUploadURLResponse
// @Failure 400 {object} gin.H "Not an image"
// @Failure 503 {object} gin.H "Object storage not configured"
// @Router /trainer/students/{studentId}/photo/upload-url [post]
func (h *TrainerHandler) RequestPhotoUploadURL(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	upload, err := h.trainerService.RequestPhotoUploadURL(c.Request.Context(), trainerID, studentID, req.ContentType)
	if err != nil {
		abortWithStudentError(c, err, "Failed to get upload URL.")
		return
	}
	c.JSON(http.StatusOK, PhotoUploadURLResponse{
		UploadURL: upload.UploadURL,
		ObjectKey: upload.ObjectKey,
		ExpiresAt: upload.ExpiresAt,
	})
}

// ConfirmPhoto godoc
// @Summary Confirm a profile photo upload
// @Tags Trainer
// @Accept json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Param confirmRequest body ConfirmPhotoRequest true "Uploaded object key"
// @Success 204 "Stored"
// @Failure 400 {object} gin.H "Key does not belong to the student"
// @Router /trainer/students/{studentId}/photo/confirm [post]
func (h *TrainerHandler) ConfirmPhoto(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	if err := h.trainerService.ConfirmPhoto(c.Request.Context(), trainerID, studentID, req.ObjectKey); err != nil {
		abortWithStudentError(c, err, "Failed to confirm upload.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetPhotoURL godoc
// @Summary Get a pre-signed URL to view a student's profile photo
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} PhotoURLResponse
// @Failure 404 {object} gin.H "No photo"
// @Router /trainer/students/{studentId}/photo [get]
func (h *TrainerHandler) GetPhotoURL(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	studentID, ok := pathObjectID(c, "studentId")
	if !ok {
		return
	}

	url, err := h.trainerService.GetPhotoURL(c.Request.Context(), trainerID, studentID)
	if err != nil {
		abortWithStudentError(c, err, "Failed to get photo URL.")
		return
	}
	c.JSON(http.StatusOK, PhotoURLResponse{URL: url})
}

func isStudentError(err error) bool {
	return errors.Is(err, service.ErrStudentNotFound) || errors.Is(err, service.ErrStudentAccessDenied)
}

// abortWithStudentError maps roster, goal and photo errors to statuses.
func abortWithStudentError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidContentType),
		errors.Is(err, service.ErrInvalidPhotoKey):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStudentAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrGoalNotFound),
		errors.Is(err, service.ErrPhotoNotSet):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStudentAlreadyExists),
		errors.Is(err, service.ErrStudentConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrStorageDisabled):
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
	default:
		log.Errorf("student request: %s", err)
		if fallback == "" {
			fallback = "An unexpected error occurred."
		}
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}
