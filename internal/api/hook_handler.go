package api

import (
	"alcyxob/program-ledger/internal/domain"
	"alcyxob/program-ledger/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HookHandler receives enrollment changes from the checkout flow.
type HookHandler struct {
	executionService service.ExecutionService
	log              zerolog.Logger
}

// NewHookHandler creates a new HookHandler.
func NewHookHandler(executionService service.ExecutionService, log zerolog.Logger) *HookHandler {
	return &HookHandler{executionService: executionService, log: log}
}

// EnrollmentEventRequest is the body of POST /hooks/enrollments.
type EnrollmentEventRequest struct {
	EnrollmentID string                  `json:"enrollmentId" binding:"required"`
	ActivityID   string                  `json:"activityId" binding:"required"`
	ClientID     string                  `json:"clientId" binding:"required"`
	StartDate    string                  `json:"startDate" binding:"required"`
	Status       domain.EnrollmentStatus `json:"status" binding:"required"`
}

func (r EnrollmentEventRequest) toEvent() (service.EnrollmentEvent, error) {
	var ev service.EnrollmentEvent
	var err error
	if ev.EnrollmentID, err = primitive.ObjectIDFromHex(r.EnrollmentID); err != nil {
		return ev, fmt.Errorf("invalid enrollmentId")
	}
	if ev.ActivityID, err = primitive.ObjectIDFromHex(r.ActivityID); err != nil {
		return ev, fmt.Errorf("invalid activityId")
	}
	if ev.ClientID, err = primitive.ObjectIDFromHex(r.ClientID); err != nil {
		return ev, fmt.Errorf("invalid clientId")
	}
	if ev.StartDate, err = parseDate(r.StartDate); err != nil {
		return ev, err
	}
	ev.Status = r.Status
	return ev, nil
}

// EnrollmentEvent godoc
// @Summary Record an enrollment change and generate its execution records
// @Description Delivery is at least once. Events for non-active enrollments are acknowledged with 202 and not processed further.
// @Tags Hooks
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Shared secret"
// @Param event body EnrollmentEventRequest true "Enrollment event"
// @Success 200 {object} service.ActivationResult "Records generated"
// @Success 202 {object} service.ActivationResult "Ignored, enrollment not active"
// @Failure 400 {object} gin.H "Invalid event"
// @Failure 409 {object} gin.H "Start date changed after generation"
// @Failure 503 {object} gin.H "Storage unavailable, retry"
// @Router /hooks/enrollments [post]
func (h *HookHandler) EnrollmentEvent(c *gin.Context) {
	var req EnrollmentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	ev, err := req.toEvent()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.executionService.HandleActivation(c.Request.Context(), ev)
	if err != nil {
		respondError(c, h.log, err, "Failed to process enrollment event")
		return
	}
	if res.Ignored {
		c.JSON(http.StatusAccepted, res)
		return
	}
	h.log.Info().
		Str("enrollmentId", ev.EnrollmentID.Hex()).
		Int("created", res.Generation.Created).
		Int("skipped", res.Generation.Skipped).
		Msg("enrollment executions generated")
	c.JSON(http.StatusOK, res)
}
