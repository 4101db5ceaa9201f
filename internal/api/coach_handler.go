// internal/api/coach_handler.go
package api

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CoachHandler serves the authoring and reporting routes of role coach.
type CoachHandler struct {
	programService   service.ProgramService
	catalogService   service.CatalogService
	executionService service.ExecutionService
	progressService  service.ProgressService
	log              zerolog.Logger
	now              func() time.Time
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(
	programService service.ProgramService,
	catalogService service.CatalogService,
	executionService service.ExecutionService,
	progressService service.ProgressService,
	log zerolog.Logger,
) *CoachHandler {
	return &CoachHandler{
		programService:   programService,
		catalogService:   catalogService,
		executionService: executionService,
		progressService:  progressService,
		log:              log,
		now:              time.Now,
	}
}

// --- DTOs ---

type CreateActivityRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Kind        domain.ActivityKind `json:"kind" binding:"omitempty,oneof=program workshop document"`
}

// PutWeekRequest carries one template week. Day keys are "1".."7"; each day
// is either a list of items or an object of blocks.
type PutWeekRequest struct {
	Days map[string]any `json:"days" binding:"required"`
}

type PeriodConfigRequest struct {
	PeriodCount int `json:"periodCount" binding:"required,min=1"`
}

type CreateCatalogItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Kind        domain.ItemKind `json:"kind" binding:"omitempty,oneof=exercise meal"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	MuscleGroup string          `json:"muscleGroup"`
	Difficulty  string          `json:"difficulty"`
	VideoURL    string          `json:"videoUrl" binding:"omitempty,url"`
	Calories    int             `json:"calories" binding:"omitempty,min=0"`
}

// --- Activities ---

// CreateActivity godoc
// @Summary Create an activity
// @Tags Coach
// @Accept json
// @Produce json
// @Param activity body CreateActivityRequest true "Activity details"
// @Success 201 {object} domain.Activity
// @Failure 400 {object} gin.H "Invalid input"
// @Router /coach/activities [post]
func (h *CoachHandler) CreateActivity(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	activity, err := h.programService.CreateActivity(c.Request.Context(), coachID, req.Title, req.Description, req.Kind)
	if err != nil {
		respondError(c, h.log, err, "Failed to create activity")
		return
	}
	c.JSON(http.StatusCreated, activity)
}

// ListActivities godoc
// @Summary List the coach's activities
// @Tags Coach
// @Produce json
// @Success 200 {array} domain.Activity
// @Router /coach/activities [get]
func (h *CoachHandler) ListActivities(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activities, err := h.programService.ListActivities(c.Request.Context(), coachID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve activities")
		return
	}
	if activities == nil {
		activities = []domain.Activity{}
	}
	c.JSON(http.StatusOK, activities)
}

// GetActivity godoc
// @Summary Get one activity with its plan template and period config
// @Tags Coach
// @Produce json
// @Param activityId path string true "Activity ID"
// @Success 200 {object} gin.H
// @Failure 403 {object} gin.H "Not the owner"
// @Failure 404 {object} gin.H "Activity not found"
// @Router /coach/activities/{activityId} [get]
func (h *CoachHandler) GetActivity(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	activity, err := h.programService.GetActivity(ctx, coachID, activityID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve activity")
		return
	}
	weeks, err := h.programService.GetTemplate(ctx, coachID, activityID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve plan template")
		return
	}
	if weeks == nil {
		weeks = []domain.PlanWeek{}
	}
	periods, err := h.programService.GetPeriodConfig(ctx, coachID, activityID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve period config")
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity, "weeks": weeks, "periodConfig": periods})
}

// --- Plan template ---

// PutWeek godoc
// @Summary Create or replace one week of the plan template
// @Tags Coach
// @Accept json
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param week path int true "Week number, starting at 1"
// @Param body body PutWeekRequest true "Week days"
// @Success 200 {object} domain.PlanWeek
// @Failure 400 {object} gin.H "Invalid day key or week number"
// @Failure 409 {object} gin.H "Week numbers would not be contiguous"
// @Router /coach/activities/{activityId}/weeks/{week} [put]
func (h *CoachHandler) PutWeek(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	weekNumber, ok := pathWeekNumber(c)
	if !ok {
		return
	}
	var req PutWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	week, err := h.programService.PutWeek(c.Request.Context(), coachID, activityID, weekNumber, req.Days)
	if err != nil {
		respondError(c, h.log, err, "Failed to save plan week")
		return
	}
	c.JSON(http.StatusOK, week)
}

// GetWeek godoc
// @Summary Get one week of the plan template
// @Tags Coach
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param week path int true "Week number"
// @Success 200 {object} domain.PlanWeek
// @Failure 404 {object} gin.H "Week not found"
// @Router /coach/activities/{activityId}/weeks/{week} [get]
func (h *CoachHandler) GetWeek(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	weekNumber, ok := pathWeekNumber(c)
	if !ok {
		return
	}
	week, err := h.programService.GetWeek(c.Request.Context(), coachID, activityID, weekNumber)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve plan week")
		return
	}
	c.JSON(http.StatusOK, week)
}

// PutPeriodConfig godoc
// @Summary Set how many times the template repeats
// @Tags Coach
// @Accept json
// @Produce json
// @Param activityId path string true "Activity ID"
// @Param config body PeriodConfigRequest true "Period count"
// @Success 200 {object} domain.PeriodConfig
// @Router /coach/activities/{activityId}/periods [put]
func (h *CoachHandler) PutPeriodConfig(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	var req PeriodConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	cfg, err := h.programService.SetPeriodCount(c.Request.Context(), coachID, activityID, req.PeriodCount)
	if err != nil {
		respondError(c, h.log, err, "Failed to save period config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// GetPeriodConfig godoc
// @Summary Get the period config, defaulting to one period
// @Tags Coach
// @Produce json
// @Param activityId path string true "Activity ID"
// @Success 200 {object} domain.PeriodConfig
// @Router /coach/activities/{activityId}/periods [get]
func (h *CoachHandler) GetPeriodConfig(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	cfg, err := h.programService.GetPeriodConfig(c.Request.Context(), coachID, activityID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve period config")
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// --- Catalogue ---

// CreateCatalogItem godoc
// @Summary Add an exercise or meal to the coach's catalogue
// @Tags Coach
// @Accept json
// @Produce json
// @Param item body CreateCatalogItemRequest true "Catalogue item"
// @Success 201 {object} domain.CatalogItem
// @Router /coach/catalog [post]
func (h *CoachHandler) CreateCatalogItem(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	var req CreateCatalogItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	item, err := h.catalogService.CreateItem(c.Request.Context(), coachID, service.CatalogItemInput{
		Name:        req.Name,
		Kind:        req.Kind,
		Category:    req.Category,
		Description: req.Description,
		MuscleGroup: req.MuscleGroup,
		Difficulty:  req.Difficulty,
		VideoURL:    req.VideoURL,
		Calories:    req.Calories,
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to create catalogue item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListCatalogItems godoc
// @Summary List the coach's catalogue
// @Tags Coach
// @Produce json
// @Param kind query string false "exercise or meal"
// @Success 200 {array} domain.CatalogItem
// @Router /coach/catalog [get]
func (h *CoachHandler) ListCatalogItems(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	items, err := h.catalogService.ListItems(c.Request.Context(), coachID, domain.ItemKind(c.Query("kind")))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve catalogue")
		return
	}
	if items == nil {
		items = []domain.CatalogItem{}
	}
	c.JSON(http.StatusOK, items)
}

// GetCatalogItem godoc
// @Summary Get one catalogue item
// @Tags Coach
// @Produce json
// @Param itemId path int true "Item ID"
// @Success 200 {object} domain.CatalogItem
// @Router /coach/catalog/{itemId} [get]
func (h *CoachHandler) GetCatalogItem(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil || itemID <= 0 {
		abortWithError(c, http.StatusBadRequest, "Invalid itemId format.")
		return
	}
	item, err := h.catalogService.GetItem(c.Request.Context(), coachID, itemID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve catalogue item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// --- Enrollments ---

// ListEnrollments godoc
// @Summary List the enrollments of an activity
// @Tags Coach
// @Produce json
// @Param activityId path string true "Activity ID"
// @Success 200 {array} domain.Enrollment
// @Router /coach/activities/{activityId}/enrollments [get]
func (h *CoachHandler) ListEnrollments(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	enrollments, err := h.programService.ListEnrollments(c.Request.Context(), coachID, activityID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve enrollments")
		return
	}
	if enrollments == nil {
		enrollments = []domain.Enrollment{}
	}
	c.JSON(http.StatusOK, enrollments)
}

// GetEnrollmentProgress godoc
// @Summary Progress of one enrollment of the coach's activity
// @Tags Coach
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} domain.ProgressSnapshot
// @Router /coach/enrollments/{enrollmentId}/progress [get]
func (h *CoachHandler) GetEnrollmentProgress(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	viewer := service.Viewer{UserID: coachID, Role: domain.RoleCoach}
	snap, err := h.progressService.EnrollmentProgress(c.Request.Context(), viewer, enrollmentID, h.now())
	if err != nil {
		respondError(c, h.log, err, "Failed to compute progress")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RegenerateExecutions godoc
// @Summary Insert any execution records the enrollment is missing
// @Description Safe to repeat; existing records are never touched.
// @Tags Coach
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} domain.GenerationResult
// @Failure 409 {object} gin.H "Enrollment not active"
// @Router /coach/enrollments/{enrollmentId}/generate [post]
func (h *CoachHandler) RegenerateExecutions(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.programService.GetEnrollment(ctx, coachID, enrollmentID); err != nil {
		respondError(c, h.log, err, "Failed to retrieve enrollment")
		return
	}
	res, err := h.executionService.Generate(ctx, enrollmentID)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate executions")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportReport godoc
// @Summary Export a progress report of every enrollment of an activity
// @Tags Coach
// @Produce json
// @Param activityId path string true "Activity ID"
// @Success 201 {object} service.ReportExport
// @Failure 501 {object} gin.H "Report storage not configured"
// @Router /coach/activities/{activityId}/report [post]
func (h *CoachHandler) ExportReport(c *gin.Context) {
	coachID, ok := userObjectID(c)
	if !ok {
		return
	}
	activityID, ok := pathObjectID(c, "activityId")
	if !ok {
		return
	}
	export, err := h.progressService.ExportActivityReport(c.Request.Context(), coachID, activityID, h.now())
	if err != nil {
		respondError(c, h.log, err, "Failed to export report")
		return
	}
	c.JSON(http.StatusCreated, export)
}

// pathWeekNumber parses the :week route parameter.
func pathWeekNumber(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("week"))
	if err != nil || n < 1 {
		abortWithError(c, http.StatusBadRequest, "Week number must be a positive integer.")
		return 0, false
	}
	return n, true
}
