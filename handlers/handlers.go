package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"civic-complaint-service/database"
	"civic-complaint-service/models"
	"civic-complaint-service/service"
)

// Handlers exposes the complaint engine over HTTP.
type Handlers struct {
	svc *service.Service
	db  *database.Database
}

// NewHandlers creates new HTTP handlers.
func NewHandlers(svc *service.Service, db *database.Database) *Handlers {
	return &Handlers{svc: svc, db: db}
}

// HealthCheck handles health check requests.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "civic-complaint-service",
	})
}

// ReportRequest is the inbound report payload.
type ReportRequest struct {
	ReporterID string   `json:"reporter_id" binding:"required"`
	Text       string   `json:"text" binding:"required"`
	ImageRef   string   `json:"image_ref"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

// SubmitReport registers a new report, answering with either the created
// draft complaint or the existing complaint the reporter was attached to.
// Rate limiting keys on the reporter identity in the body so a reporter
// cannot escape their window by rotating addresses.
func (h *Handlers) SubmitReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !h.svc.Limiter().Allow(req.ReporterID) {
		log.Warnf("Rate limit exceeded for reporter: %s", req.ReporterID)
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return
	}

	report := &models.Report{
		ReporterID: req.ReporterID,
		Text:       req.Text,
		ImageRef:   req.ImageRef,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		ReceivedAt: time.Now(),
	}

	result, err := h.svc.ProcessReport(c.Request.Context(), report)
	if err != nil {
		writeError(c, err)
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{
			"duplicate":    true,
			"complaint_id": result.MatchedComplaintID,
			"explanation":  result.Similarity.Explanation,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"duplicate": false,
		"complaint": result.Complaint,
	})
}

// LocationRequest is the inbound location payload.
type LocationRequest struct {
	ReporterID string  `json:"reporter_id" binding:"required"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// SubmitLocation confirms the reporter's pending draft with a coordinate.
func (h *Handlers) SubmitLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.SubmitLocation(c.Request.Context(), req.ReporterID, req.Latitude, req.Longitude)
	if err != nil {
		writeError(c, err)
		return
	}

	if result.Acknowledged {
		c.JSON(http.StatusOK, gin.H{"acknowledged": true})
		return
	}
	resp := gin.H{
		"complaint": result.Complaint,
	}
	if result.Ticket != nil {
		resp["ticket"] = result.Ticket
	}
	if result.TicketPending {
		resp["ticket_pending"] = true
	}
	c.JSON(http.StatusOK, resp)
}

// CancelComplaint cancels a draft complaint.
func (h *Handlers) CancelComplaint(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// GetComplaint returns one complaint.
func (h *Handlers) GetComplaint(c *gin.Context) {
	complaint, err := h.db.GetComplaint(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// GetTicket returns one ticket.
func (h *Handlers) GetTicket(c *gin.Context) {
	ticket, err := h.db.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, models.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "complaint is no longer a draft"})
	case errors.Is(err, models.ErrWriteConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflicting update, retry", "retryable": true})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
