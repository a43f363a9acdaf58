package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/http/dto"
	"outreach.app/courier/internal/inbound"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/service"
)

type WebhookHandler struct {
	service    service.InboundService
	defaultSet model.LabelSet
	decodeOpts inbound.Options
}

func NewWebhookHandler(svc service.InboundService, defaultSet model.LabelSet, senderName string) *WebhookHandler {
	return &WebhookHandler{
		service:    svc,
		defaultSet: defaultSet,
		decodeOpts: inbound.Options{SenderName: senderName},
	}
}

// LinkedIn accepts both first-touch and reply payloads. ?campaign=meeting|inspection picks
// the label set; the configured default applies otherwise.
func (h *WebhookHandler) LinkedIn(c *gin.Context) {
	ctx := c.Request.Context()

	set := h.defaultSet
	if name := c.Query("campaign"); name != "" {
		var err error
		if set, err = model.LabelSetByName(name); err != nil {
			c.JSON(http.StatusOK, dto.Fail(err.Error()))
			return
		}
	}

	body, err := c.GetRawData()
	if err != nil {
		slog.ErrorContext(ctx, "reading webhook body failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError(err.Error()))
		return
	}

	ev, err := inbound.Decode(body, h.decodeOpts)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.service.Process(ctx, ev, set)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK(result.Message, dto.WebhookFromResult(result)))
}

// fail maps service errors onto the envelope: validation and upstream failures are handled
// (HTTP 200), anything else is a 500.
func (h *WebhookHandler) fail(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		slog.WarnContext(ctx, "webhook rejected", "field", vErr.Field, "reason", vErr.Message)
		c.JSON(http.StatusOK, dto.Fail(vErr.Message))
		return
	}

	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		c.JSON(http.StatusOK, dto.InternalError(upErr.Error()))
		return
	}

	if errors.Is(err, inbound.ErrMalformed) {
		slog.WarnContext(ctx, "malformed webhook body", "error", err)
	} else {
		slog.ErrorContext(ctx, "webhook failed", "error", err)
	}
	c.JSON(http.StatusInternalServerError, dto.InternalError(err.Error()))
}
