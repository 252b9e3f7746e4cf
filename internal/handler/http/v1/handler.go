package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/incident_dispatch/internal/channel"
	"github.com/shenikar/incident_dispatch/internal/config"
	"github.com/shenikar/incident_dispatch/internal/models"
	"github.com/shenikar/incident_dispatch/internal/service"
	"github.com/shenikar/incident_dispatch/internal/subscription"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	incidentService service.IncidentService
	registry        *subscription.Registry
	logger          *logrus.Logger
	validate        *validator.Validate
	cfg             *config.Config
}

func NewHandler(incidentService service.IncidentService, registry *subscription.Registry, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidentService: incidentService,
		registry:        registry,
		logger:          logger,
		validate:        validator.New(),
		cfg:             cfg,
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// @Summary Submit a detected incident
// @Description Enqueue an incident created by the detection pipeline for broadcast and notification. Requires API key.
// @Tags Incidents
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param incident body CreateIncidentRequest true "Incident created by the pipeline"
// @Success 202 {object} map[string]any
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents [post]
func (h *Handler) submitIncident(c *gin.Context) {
	var input CreateIncidentRequest
	log := h.logger.WithField("method", "submitIncident")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	incident := DTOToIncidentModel(input, time.Now().UTC())
	if err := h.incidentService.SubmitIncident(c.Request.Context(), incident); err != nil {
		log.WithError(err).Error("Failed to enqueue incident in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "incident_id": incident.ID})
}

// @Summary Get incident by ID
// @Description Get a single incident by its ID. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Incident ID"
// @Success 200 {object} models.Incident
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id} [get]
func (h *Handler) getIncident(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "getIncident").WithField("id", id)

	incident, err := h.incidentService.GetIncident(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, log, err, "incident not found")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// @Summary Acknowledge an incident
// @Description Mark an incident as reviewed by an operator. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Incident ID"
// @Success 200 {object} models.Incident
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 404 {object} map[string]string "Incident not found"
// @Router /incidents/{id}/acknowledge [post]
func (h *Handler) acknowledgeIncident(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	log := h.logger.WithField("method", "acknowledgeIncident").WithField("id", id)

	incident, err := h.incidentService.AcknowledgeIncident(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, log, err, "incident not found")
		return
	}
	c.JSON(http.StatusOK, incident)
}

// @Summary List notification attempts
// @Description Audit trail of every delivery attempt for an incident. Requires API key.
// @Tags Incidents
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Incident ID"
// @Success 200 {array} models.NotificationAttempt
// @Failure 400 {object} map[string]string "Invalid incident ID"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /incidents/{id}/attempts [get]
func (h *Handler) listAttempts(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid incident ID"})
		return
	}
	attempts, err := h.incidentService.ListAttempts(c.Request.Context(), id)
	if err != nil {
		h.logger.WithField("method", "listAttempts").WithError(err).Error("Failed to list attempts from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, attempts)
}

// @Summary Update feed status
// @Description Report a camera feed status change; broadcast to the feed subscribers. Requires API key.
// @Tags Feeds
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Feed ID"
// @Param status body FeedStatusRequest true "New status"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid feed ID or request body"
// @Failure 404 {object} map[string]string "Feed not found"
// @Router /feeds/{id}/status [post]
func (h *Handler) updateFeedStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed ID"})
		return
	}
	log := h.logger.WithField("method", "updateFeedStatus").WithField("feed_id", id)

	var input FeedStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.incidentService.UpdateFeedStatus(c.Request.Context(), id, models.FeedStatus(input.Status)); err != nil {
		h.respondLookupError(c, log, err, "feed not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Get notification settings
// @Description Current settings snapshot without secrets. Requires API key.
// @Tags Settings
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} models.Settings
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings [get]
func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.incidentService.GetSettings(c.Request.Context())
	if err != nil {
		h.logger.WithField("method", "getSettings").WithError(err).Error("Failed to get settings from service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, settings.Redacted())
}

// @Summary Replace notification settings
// @Description Replace the whole settings snapshot. Empty secrets keep the stored values. Requires API key.
// @Tags Settings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param settings body SettingsRequest true "Settings snapshot"
// @Success 200 {object} models.Settings
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	var input SettingsRequest
	log := h.logger.WithField("method", "updateSettings")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.incidentService.UpdateSettings(c.Request.Context(), DTOToSettingsModel(input))
	if err != nil {
		if service.IsClientError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("Failed to update settings in service")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, updated.Redacted())
}

// @Summary Send a test notification
// @Description Synchronously send a test notification through one channel. No audit records are written. Requires API key.
// @Tags Settings
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param channel path string true "Channel" Enums(email, webhook, sms)
// @Param request body TestChannelRequest false "Optional explicit target"
// @Success 200 {object} TestChannelResponse
// @Failure 400 {object} TestChannelResponse "Unknown channel or channel not configured"
// @Failure 502 {object} TestChannelResponse "Delivery failed"
// @Router /settings/test/{channel} [post]
func (h *Handler) testChannel(c *gin.Context) {
	ch, ok := models.ParseChannel(c.Param("channel"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel"})
		return
	}
	log := h.logger.WithField("method", "testChannel").WithField("channel", ch)

	var input TestChannelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			log.WithError(err).Warn("Failed to bind JSON")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := h.validate.Struct(input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	target, err := h.incidentService.TestChannel(c.Request.Context(), ch, input.Target)
	resp := TestChannelResponse{Channel: ch, Target: target, Status: "sent"}
	if err == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Status = "failed"
	resp.Error = err.Error()
	var configErr *channel.ConfigurationError
	var deliveryErr *channel.DeliveryError
	switch {
	case errors.As(err, &configErr), service.IsClientError(err):
		c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &deliveryErr):
		c.JSON(http.StatusBadGateway, resp)
	default:
		log.WithError(err).Error("Failed to send test notification")
		resp.Error = "internal server error"
		c.JSON(http.StatusInternalServerError, resp)
	}
}

// @Summary Get application health status
// @Description Dependency status and notification channel readiness
// @Tags System
// @Produce json
// @Success 200 {object} service.Health
// @Failure 503 {object} service.Health
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	health := h.incidentService.Health(c.Request.Context())
	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

func (h *Handler) respondLookupError(c *gin.Context, log *logrus.Entry, err error, notFound string) {
	if errors.Is(err, service.ErrNotFound) {
		log.WithError(err).Warn("Requested record not found")
		c.JSON(http.StatusNotFound, gin.H{"error": notFound})
		return
	}
	log.WithError(err).Error("Service call failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
