package api

import (
	"net/http"

	"abfit/coach-api/internal/domain"
	"abfit/coach-api/internal/metrics"
	"abfit/coach-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter returns a gin engine with the recovery, metrics and request
// logging middleware installed.
func NewRouter(ginMode string, metricsManager *metrics.Manager) *gin.Engine {
	if ginMode != "" {
		gin.SetMode(ginMode)
	}
	router := gin.New()
	router.Use(
		PanicRecovery(metricsManager),
		RequestMetrics(metricsManager),
		LogRequest(),
	)
	return router
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	gatherer prometheus.Gatherer,
	authService service.AuthService,
	trainerService service.TrainerService,
	studentService service.StudentService,
	runningService service.RunningService,
	exerciseService service.ExerciseService,
) {
	authHandler := NewAuthHandler(authService)
	exerciseHandler := NewExerciseHandler(exerciseService)
	trainerHandler := NewTrainerHandler(trainerService)
	studentHandler := NewStudentHandler(studentService)
	runningHandler := NewRunningHandler(runningService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/student-login", authHandler.StudentLogin)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(jwtSecret))
	{
		protected.GET("/me", authHandler.Me)

		exerciseGroup := protected.Group("/exercises")
		exerciseGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			exerciseGroup.POST("", exerciseHandler.CreateExercise)
			exerciseGroup.GET("", exerciseHandler.GetTrainerExercises)
			exerciseGroup.GET("/:id", exerciseHandler.GetExerciseByID)
			exerciseGroup.PUT("/:id", exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:id", exerciseHandler.DeleteExercise)
		}

		trainerGroup := protected.Group("/trainer")
		trainerGroup.Use(RoleMiddleware(domain.RoleTrainer))
		{
			trainerGroup.POST("/students", trainerHandler.CreateStudent)
			trainerGroup.GET("/students", trainerHandler.ListStudents)
			trainerGroup.GET("/students/:studentId", trainerHandler.GetStudent)
			trainerGroup.DELETE("/students/:studentId", trainerHandler.DeleteStudent)

			trainerGroup.POST("/students/:studentId/assessments", trainerHandler.AddAssessment)
			trainerGroup.POST("/students/:studentId/workouts", trainerHandler.SaveWorkout)
			trainerGroup.DELETE("/students/:studentId/workouts/:workoutId", trainerHandler.DeleteWorkout)
			trainerGroup.GET("/students/:studentId/running", trainerHandler.GetRunningSchedule)

			trainerGroup.POST("/students/:studentId/photo/upload-url", trainerHandler.RequestPhotoUploadURL)
			trainerGroup.POST("/students/:studentId/photo/confirm", trainerHandler.ConfirmPhoto)
			trainerGroup.GET("/students/:studentId/photo", trainerHandler.GetPhotoURL)
		}

		studentGroup := protected.Group("/student")
		studentGroup.Use(RoleMiddleware(domain.RoleStudent))
		{
			studentGroup.GET("/me", studentHandler.GetMe)
			studentGroup.GET("/workouts", studentHandler.GetMyWorkouts)
			studentGroup.GET("/assessments", studentHandler.GetMyAssessments)

			studentGroup.POST("/goals", studentHandler.AddGoal)
			studentGroup.PATCH("/goals/:goalId/progress", studentHandler.UpdateGoalProgress)
			studentGroup.DELETE("/goals/:goalId", studentHandler.DeleteGoal)

			studentGroup.GET("/running", runningHandler.GetMySchedule)
			studentGroup.POST("/running/feedback", runningHandler.SubmitFeedback)
		}
	}
}
