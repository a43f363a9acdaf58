package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/http/dto"
	"outreach.app/courier/internal/service"
)

type ContactHandler struct {
	service service.ContactService
	now     func() time.Time
}

func NewContactHandler(svc service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc, now: time.Now}
}

// Lookup resolves ?profile_url= in either trailing-slash form.
func (h *ContactHandler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()

	contact, err := h.service.Lookup(ctx, c.Query("profile_url"))
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, dto.Fail(vErr.Message))
			return
		}
		slog.ErrorContext(ctx, "contact lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError(err.Error()))
		return
	}
	if contact == nil {
		c.JSON(http.StatusNotFound, dto.Fail("contact not found"))
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.ContactFromModel(contact)))
}

// FollowUps lists contacts due on or before ?before=MM/DD/YYYY (default today).
// ?pending=true hides contacts already reminded.
func (h *ContactHandler) FollowUps(c *gin.Context) {
	ctx := c.Request.Context()

	before := h.now()
	if raw := c.Query("before"); raw != "" {
		parsed, err := followup.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.Fail("before must be MM/DD/YYYY"))
			return
		}
		before = parsed
	}

	pending := false
	if raw := c.Query("pending"); raw != "" {
		var err error
		if pending, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, dto.Fail("pending must be a boolean"))
			return
		}
	}

	contacts, err := h.service.FollowUps(ctx, before, pending)
	if err != nil {
		slog.ErrorContext(ctx, "listing follow-ups failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.InternalError(err.Error()))
		return
	}

	c.JSON(http.StatusOK, dto.OK("", dto.ContactsFromModel(contacts)))
}
