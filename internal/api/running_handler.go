package api

import (
	"errors"
	"net/http"
	"time"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/running"
	"abfit/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RunningHandler serves the signed-in student's running plan.
type RunningHandler struct {
	runningService service.RunningService
}

func NewRunningHandler(runningService service.RunningService) *RunningHandler {
	return &RunningHandler{runningService: runningService}
}

// FeedbackRequest fields are pointers so a missing value reaches the
// feedback validation instead of being read as zero by the binder.
type FeedbackRequest struct {
	EntryID           string   `json:"entryId"`
	ActualDistanceKm  *float64 `json:"actualDistanceKm"`
	ActualDurationMin *float64 `json:"actualDurationMin"`
	PerceivedExertion *int     `json:"perceivedExertion"`
}

func (r FeedbackRequest) toInput() running.FeedbackInput {
	in := running.FeedbackInput{
		EntryID:     r.EntryID,
		CompletedAt: time.Now().UTC(),
	}
	if r.ActualDistanceKm != nil {
		in.ActualDistanceKm = *r.ActualDistanceKm
	}
	if r.ActualDurationMin != nil {
		in.ActualDurationMin = *r.ActualDurationMin
	}
	if r.PerceivedExertion != nil {
		in.PerceivedExertion = *r.PerceivedExertion
	}
	return in
}

type FeedbackResponse struct {
	Completed domain.RunningWorkoutEntry  `json:"completed"`
	Adjusted  *domain.RunningWorkoutEntry `json:"adjusted"`
	Factor    float64                     `json:"factor"`
}

type ScheduleResponse struct {
	StudentID string                       `json:"studentId"`
	Version   int64                        `json:"version"`
	UpdatedAt time.Time                    `json:"updatedAt"`
	Entries   []domain.RunningWorkoutEntry `json:"entries"`
}

func MapScheduleToResponse(s *domain.RunningSchedule) ScheduleResponse {
	entries := s.Entries
	if entries == nil {
		entries = []domain.RunningWorkoutEntry{}
	}
	return ScheduleResponse{
		StudentID: s.StudentID.Hex(),
		Version:   s.Version,
		UpdatedAt: s.UpdatedAt,
		Entries:   entries,
	}
}

// GetMySchedule godoc
// @Summary Get the student's running plan
// @Tags Running
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING or COMPLETED"
// @Param type query string false "INTERVAL, BASE_RUN, FARTLEK or TEMPO"
// @Param from query string false "First date (YYYY-MM-DD), inclusive"
// @Param to query string false "Last date (YYYY-MM-DD), inclusive"
// @Success 200 {object} ScheduleResponse
// @Failure 400 {object} gin.H "Invalid filter"
// @Failure 404 {object} gin.H "No running plan"
// @Router /student/running [get]
func (h *RunningHandler) GetMySchedule(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	filter, ok := parseEntryFilter(c)
	if !ok {
		return
	}

	schedule, err := h.runningService.GetSchedule(c.Request.Context(), studentID, filter)
	if err != nil {
		abortWithRunningError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapScheduleToResponse(schedule))
}

// SubmitFeedback godoc
// @Summary Report a completed running session
// @Description Completes the session and auto-adjusts the next pending session of the same type.
// @Tags Running
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param feedback body FeedbackRequest true "Session report"
// @Success 200 {object} FeedbackResponse
// @Failure 400 {object} gin.H "Invalid feedback"
// @Failure 404 {object} gin.H "Session or plan not found"
// @Failure 409 {object} gin.H "Session already completed, or concurrent update"
// @Router /student/running/feedback [post]
func (h *RunningHandler) SubmitFeedback(c *gin.Context) {
	studentID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	outcome, err := h.runningService.SubmitFeedback(c.Request.Context(), studentID, req.toInput())
	if err != nil {
		abortWithRunningError(c, err)
		return
	}

	c.JSON(http.StatusOK, FeedbackResponse{
		Completed: outcome.Completed,
		Adjusted:  outcome.Adjusted,
		Factor:    outcome.Factor,
	})
}

func parseEntryFilter(c *gin.Context) (running.EntryFilter, bool) {
	var filter running.EntryFilter

	if v := c.Query("status"); v != "" {
		status := domain.EntryStatus(v)
		if !status.IsValid() {
			abortWithError(c, http.StatusBadRequest, "Invalid status filter.")
			return filter, false
		}
		filter.Status = &status
	}
	if v := c.Query("type"); v != "" {
		typ := domain.WorkoutType(v)
		if !typ.IsValid() {
			abortWithError(c, http.StatusBadRequest, "Invalid type filter.")
			return filter, false
		}
		filter.Type = &typ
	}
	for param, target := range map[string]**domain.Date{"from": &filter.From, "to": &filter.To} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		d, err := domain.ParseDate(v)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid "+param+" date, expected YYYY-MM-DD.")
			return filter, false
		}
		*target = &d
	}
	return filter, true
}

func abortWithRunningError(c *gin.Context, err error) {
	var (
		validationErr *running.ValidationError
		notFoundErr   *running.NotFoundError
		stateErr      *running.InvalidStateError
	)
	switch {
	case errors.As(err, &validationErr):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFoundErr), errors.Is(err, service.ErrScheduleNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &stateErr), errors.Is(err, service.ErrScheduleConflict):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		log.Errorf("running handler: %s", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to process running plan.")
	}
}
