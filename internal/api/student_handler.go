package api

import (
	"net/http"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

type StudentHandler struct {
	studentService service.StudentService
}

func NewStudentHandler(studentService service.StudentService) *StudentHandler {
	return &StudentHandler{studentService: studentService}
}

// --- DTOs ---

type AssessmentResponse struct {
	Date            domain.Date `json:"date"`
	WeightKg        float64     `json:"weightKg"`
	HeightCm        float64     `json:"heightCm"`
	ChestFoldMm     *float64    `json:"chestFoldMm,omitempty"`
	AbdominalFoldMm *float64    `json:"abdominalFoldMm,omitempty"`
	BMI             float64     `json:"bmi"`
}

type StudentResponse struct {
	ID               string               `json:"id"`
	TrainerID        string               `json:"trainerId"`
	Name             string               `json:"name"`
	Email            string               `json:"email"`
	BirthDate        *domain.Date         `json:"birthDate,omitempty"`
	Sex              string               `json:"sex,omitempty"`
	HasPhoto         bool                 `json:"hasPhoto"`
	LatestAssessment *AssessmentResponse  `json:"latestAssessment,omitempty"`
	Assessments      []AssessmentResponse `json:"assessments"`
	Goals            []domain.Goal        `json:"goals"`
	Achievements     []domain.Achievement `json:"achievements"`
	Workouts         []domain.Workout     `json:"workouts"`
	CreatedAt        time.Time            `json:"createdAt"`
}

type GoalRequest struct {
	Title  string  `json:"title" binding:"required"`
	Target float64 `json:"target" binding:"required,gt=0"`
	Unit   string  `json:"unit"`
}

type GoalProgressRequest struct {
	Increment float64 `json:"increment"`
}

func MapAssessmentToResponse(a domain.Assessment) AssessmentResponse {
	return AssessmentResponse{
		Date:            a.Date,
		WeightKg:        a.WeightKg,
		HeightCm:        a.HeightCm,
		ChestFoldMm:     a.ChestFoldMm,
		AbdominalFoldMm: a.AbdominalFoldMm,
		BMI:             a.BMI(),
	}
}

func MapAssessmentsToResponse(assessments []domain.Assessment) []AssessmentResponse {
	responses := make([]AssessmentResponse, len(assessments))
	for i, a := range assessments {
		responses[i] = MapAssessmentToResponse(a)
	}
	return responses
}

// MapStudentToResponse never emits null lists.
func MapStudentToResponse(s *domain.Student) StudentResponse {
	if s == nil {
		return StudentResponse{}
	}
	resp := StudentResponse{
		ID:           s.ID.Hex(),
		TrainerID:    s.TrainerID.Hex(),
		Name:         s.Name,
		Email:        s.Email,
		BirthDate:    s.BirthDate,
		Sex:          s.Sex,
		HasPhoto:     s.PhotoObjectKey != "",
		Assessments:  MapAssessmentsToResponse(s.Assessments),
		Goals:        orEmpty(s.Goals),
		Achievements: orEmpty(s.Achievements),
		Workouts:     orEmpty(s.Workouts),
		CreatedAt:    s.CreatedAt,
	}
	if latest := s.LatestAssessment(); latest != nil {
		a := MapAssessmentToResponse(*latest)
		resp.LatestAssessment = &a
	}
	return resp
}

func MapStudentsToResponse(students []domain.Student) []StudentResponse {
	responses := make([]StudentResponse, len(students))
	for i := range students {
		responses[i] = MapStudentToResponse(&students[i])
	}
	return responses
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// --- Handler Methods ---

// GetMe godoc
// @Summary Get the signed-in student's profile
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StudentResponse
// @Failure 404 {object} gin.H "Student not found"
// @Router /student/me [get]
func (h *StudentHandler) GetMe(c *gin.Context) {
	student, ok := h.loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapStudentToResponse(student))
}

// GetMyWorkouts godoc
// @Summary List the strength workouts prescribed to the student
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Workout
// @Router /student/workouts [get]
func (h *StudentHandler) GetMyWorkouts(c *gin.Context) {
	student, ok := h.loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, orEmpty(student.Workouts))
}

// GetMyAssessments godoc
// @Summary List the student's physical assessments, oldest first
// @Tags Student
// @Produce json
// @Security BearerAuth
// @Success 200 {array} AssessmentResponse
// @Router /student/assessments [get]
func (h *StudentHandler) GetMyAssessments(c *gin.Context) {
	student, ok := h.loadProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, MapAssessmentsToResponse(student.Assessments))
}

// AddGoal godoc
// @Summary Create a personal goal
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body GoalRequest true "Goal; unit defaults to x"
// @Success 201 {object} domain.Goal
// @Failure 400 {object} gin.H "Invalid input"
// @Router /student/goals [post]
func (h *StudentHandler) AddGoal(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req GoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	goal, err := h.studentService.AddGoal(c.Request.Context(), studentID, service.GoalInput{
		Title:  req.Title,
		Target: req.Target,
		Unit:   req.Unit,
	})
	if err != nil {
		abortWithStudentError(c, err, "Failed to create goal.")
		return
	}
	c.JSON(http.StatusCreated, goal)
}

// UpdateGoalProgress godoc
// @Summary Add progress to a goal
// @Description A negative increment undoes progress; progress never drops below zero.
// @Tags Student
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Param progress body GoalProgressRequest true "Increment"
// @Success 200 {object} domain.Goal
// @Failure 404 {object} gin.H "Goal not found"
// @Router /student/goals/{goalId}/progress [patch]
func (h *StudentHandler) UpdateGoalProgress(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req GoalProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	goal, err := h.studentService.UpdateGoalProgress(c.Request.Context(), studentID, c.Param("goalId"), req.Increment)
	if err != nil {
		abortWithStudentError(c, err, "Failed to update goal.")
		return
	}
	c.JSON(http.StatusOK, goal)
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags Student
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Success 204 "Deleted"
// @Failure 404 {object} gin.H "Goal not found"
// @Router /student/goals/{goalId} [delete]
func (h *StudentHandler) DeleteGoal(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.studentService.DeleteGoal(c.Request.Context(), studentID, c.Param("goalId")); err != nil {
		abortWithStudentError(c, err, "Failed to delete goal.")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StudentHandler) loadProfile(c *gin.Context) (*domain.Student, bool) {
	studentID, ok := currentUserID(c)
	if !ok {
		return nil, false
	}
	student, err := h.studentService.GetProfile(c.Request.Context(), studentID)
	if err != nil {
		abortWithStudentError(c, err, "Failed to retrieve profile.")
		return nil, false
	}
	return student, true
}
