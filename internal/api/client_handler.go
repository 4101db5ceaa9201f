// internal/api/client_handler.go
package api

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/service"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ClientHandler serves the routes of role client.
type ClientHandler struct {
	clientService    service.ClientService
	executionService service.ExecutionService
	progressService  service.ProgressService
	log              zerolog.Logger
	now              func() time.Time
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(
	clientService service.ClientService,
	executionService service.ExecutionService,
	progressService service.ProgressService,
	log zerolog.Logger,
) *ClientHandler {
	return &ClientHandler{
		clientService:    clientService,
		executionService: executionService,
		progressService:  progressService,
		log:              log,
		now:              time.Now,
	}
}

// SetCompletedRequest toggles an execution. A pointer so false is not "missing".
type SetCompletedRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

// ListEnrollments godoc
// @Summary List the client's enrollments
// @Tags Client
// @Produce json
// @Success 200 {array} domain.Enrollment
// @Router /client/enrollments [get]
func (h *ClientHandler) ListEnrollments(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollments, err := h.clientService.ListEnrollments(c.Request.Context(), clientID)
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve enrollments")
		return
	}
	if enrollments == nil {
		enrollments = []domain.Enrollment{}
	}
	c.JSON(http.StatusOK, enrollments)
}

// ListExecutions godoc
// @Summary List the execution records of an enrollment
// @Tags Client
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param from query string false "First scheduled date, YYYY-MM-DD"
// @Param to query string false "Last scheduled date, YYYY-MM-DD"
// @Success 200 {array} domain.ExecutionRecord
// @Router /client/enrollments/{enrollmentId}/executions [get]
func (h *ClientHandler) ListExecutions(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	from, err := optionalDate(c.Query("from"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid from: %v", err))
		return
	}
	to, err := optionalDate(c.Query("to"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid to: %v", err))
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		abortWithError(c, http.StatusBadRequest, "to must not be before from")
		return
	}
	records, err := h.clientService.ListExecutions(c.Request.Context(), clientID, enrollmentID, service.DateRange{From: from, To: to})
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve executions")
		return
	}
	if records == nil {
		records = []domain.ExecutionRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// SetExecutionCompleted godoc
// @Summary Mark an execution as completed or not completed
// @Tags Client
// @Accept json
// @Produce json
// @Param executionId path string true "Execution ID"
// @Param body body SetCompletedRequest true "Completion flag"
// @Success 200 {object} domain.ExecutionRecord
// @Failure 403 {object} gin.H "Execution of another client"
// @Failure 404 {object} gin.H "Execution not found"
// @Router /client/executions/{executionId} [patch]
func (h *ClientHandler) SetExecutionCompleted(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	executionID, ok := pathObjectID(c, "executionId")
	if !ok {
		return
	}
	var req SetCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	rec, err := h.executionService.SetCompleted(c.Request.Context(), clientID, executionID, *req.Completed)
	if err != nil {
		respondError(c, h.log, err, "Failed to update execution")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetEnrollmentProgress godoc
// @Summary Progress of one of the client's enrollments
// @Tags Client
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Success 200 {object} domain.ProgressSnapshot
// @Router /client/enrollments/{enrollmentId}/progress [get]
func (h *ClientHandler) GetEnrollmentProgress(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	viewer := service.Viewer{UserID: clientID, Role: domain.RoleClient}
	snap, err := h.progressService.EnrollmentProgress(c.Request.Context(), viewer, enrollmentID, h.now())
	if err != nil {
		respondError(c, h.log, err, "Failed to compute progress")
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetProgress godoc
// @Summary Overall progress across the client's enrollments
// @Tags Client
// @Produce json
// @Success 200 {object} domain.ClientProgress
// @Router /client/progress [get]
func (h *ClientHandler) GetProgress(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	rollup, err := h.progressService.ClientProgress(c.Request.Context(), clientID, h.now())
	if err != nil {
		respondError(c, h.log, err, "Failed to compute progress")
		return
	}
	c.JSON(http.StatusOK, rollup)
}

// GetToday godoc
// @Summary What the client should do today in an enrollment
// @Tags Client
// @Produce json
// @Param enrollmentId path string true "Enrollment ID"
// @Param date query string false "Day to show instead of today, YYYY-MM-DD"
// @Success 200 {object} service.TodayView
// @Router /client/enrollments/{enrollmentId}/today [get]
func (h *ClientHandler) GetToday(c *gin.Context) {
	clientID, ok := userObjectID(c)
	if !ok {
		return
	}
	enrollmentID, ok := pathObjectID(c, "enrollmentId")
	if !ok {
		return
	}
	day := h.now()
	if q := c.Query("date"); q != "" {
		t, err := parseDate(q)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		day = t
	}
	view, err := h.clientService.Today(c.Request.Context(), clientID, enrollmentID, day)
	if err != nil {
		respondError(c, h.log, err, "Failed to build today's view")
		return
	}
	c.JSON(http.StatusOK, view)
}
