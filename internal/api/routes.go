package api

import (
	"alcyxob/program-ledger/internal/config"
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Services groups what the handlers depend on.
type Services struct {
	Auth      service.AuthService
	Program   service.ProgramService
	Catalog   service.CatalogService
	Execution service.ExecutionService
	Progress  service.ProgressService
	Client    service.ClientService
}

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	hooks config.HooksConfig,
	services Services,
	log zerolog.Logger,
) {
	authHandler := NewAuthHandler(services.Auth, log)
	coachHandler := NewCoachHandler(services.Program, services.Catalog, services.Execution, services.Progress, log)
	clientHandler := NewClientHandler(services.Client, services.Execution, services.Progress, log)
	hookHandler := NewHookHandler(services.Execution, log)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Called by the enrollment flow, not by users.
		hookGroup := apiV1.Group("/hooks")
		hookGroup.Use(RateLimitMiddleware(hooks.RatePerSec, hooks.Burst), HookSecretMiddleware(hooks.Secret))
		{
			hookGroup.POST("/enrollments", hookHandler.EnrollmentEvent)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/activities", coachHandler.CreateActivity)
			coachGroup.GET("/activities", coachHandler.ListActivities)
			coachGroup.GET("/activities/:activityId", coachHandler.GetActivity)

			// --- Plan template ---
			coachGroup.PUT("/activities/:activityId/weeks/:week", coachHandler.PutWeek)
			coachGroup.GET("/activities/:activityId/weeks/:week", coachHandler.GetWeek)
			coachGroup.PUT("/activities/:activityId/periods", coachHandler.PutPeriodConfig)
			coachGroup.GET("/activities/:activityId/periods", coachHandler.GetPeriodConfig)

			// --- Enrollments & reporting ---
			coachGroup.GET("/activities/:activityId/enrollments", coachHandler.ListEnrollments)
			coachGroup.POST("/activities/:activityId/report", coachHandler.ExportReport)
			coachGroup.GET("/enrollments/:enrollmentId/progress", coachHandler.GetEnrollmentProgress)
			coachGroup.POST("/enrollments/:enrollmentId/generate", coachHandler.RegenerateExecutions)

			// --- Catalogue ---
			coachGroup.POST("/catalog", coachHandler.CreateCatalogItem)
			coachGroup.GET("/catalog", coachHandler.ListCatalogItems)
			coachGroup.GET("/catalog/:itemId", coachHandler.GetCatalogItem)
		}

		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/enrollments", clientHandler.ListEnrollments)
			clientGroup.GET("/enrollments/:enrollmentId/executions", clientHandler.ListExecutions)
			clientGroup.GET("/enrollments/:enrollmentId/progress", clientHandler.GetEnrollmentProgress)
			clientGroup.GET("/enrollments/:enrollmentId/today", clientHandler.GetToday)
			clientGroup.PATCH("/executions/:executionId", clientHandler.SetExecutionCompleted)
			clientGroup.GET("/progress", clientHandler.GetProgress)
		}
	}
}
