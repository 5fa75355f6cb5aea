package handler

import (
	"errors"
	"fmt"
	"net/http"
	"notifier/internal/application/dto"
	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// NotificationHandler serves the operator API of the notification engine.
type NotificationHandler struct {
	engine *service.Engine
	log    logger.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(engine *service.Engine, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{engine: engine, log: log}
}

// Notify sends a notification immediately.
func (h *NotificationHandler) Notify(c echo.Context) error {
	var req dto.NotifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}
	if req.DedupKey == "" {
		req.DedupKey = fmt.Sprintf("%s:%s", req.Kind, uuid.NewString())
	}

	outcome, err := h.engine.NotifyNow(c.Request().Context(), req.ToEntity())
	resp := dto.ToNotifyResponse(req.DedupKey, outcome)
	if err == nil {
		return c.JSON(http.StatusOK, resp)
	}

	switch {
	case errors.Is(err, appErrors.ErrMissingField),
		errors.Is(err, appErrors.ErrUnknownKind),
		errors.Is(err, appErrors.ErrMissingDedupKey):
		resp.Error = err.Error()
		return c.JSON(http.StatusBadRequest, resp)
	case errors.Is(err, appErrors.ErrAllChannelsExhausted):
		resp.Error = fmt.Sprintf("could not notify %s about %s: %s. Check the destination and channel usage, then retry or contact the customer directly",
			recipient(req), req.Kind, outcome.LastError)
		h.log.Warn(fmt.Sprintf("Immediate notification %s failed: %v", req.DedupKey, err))
		return c.JSON(http.StatusBadGateway, resp)
	case errors.Is(err, appErrors.ErrEngineStopped):
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	default:
		h.log.Error(fmt.Sprintf("Immediate notification %s failed", req.DedupKey), err)
		resp.Error = appErrors.ErrInternalServer.Error()
		return c.JSON(http.StatusInternalServerError, resp)
	}
}

func recipient(req dto.NotifyRequest) string {
	if req.Name != "" {
		return "customer " + req.Name
	}
	return "the customer"
}

// UsageAll returns the quota usage of every channel.
func (h *NotificationHandler) UsageAll(c echo.Context) error {
	usage, err := h.engine.UsageAll(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to read channel usage", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	list := make([]dto.UsageResponse, len(usage))
	for i, u := range usage {
		list[i] = dto.ToUsageResponse(u)
	}
	return c.JSON(http.StatusOK, list)
}

// Usage returns the quota usage of one channel.
func (h *NotificationHandler) Usage(c echo.Context) error {
	usage, err := h.engine.Usage(c.Request().Context(), constant.Channel(c.Param("channel")))
	if err != nil {
		if errors.Is(err, appErrors.ErrUnknownChannel) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		}
		h.log.Error("Failed to read channel usage", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	return c.JSON(http.StatusOK, dto.ToUsageResponse(usage))
}

// History returns every attempt for one dedup key.
func (h *NotificationHandler) History(c echo.Context) error {
	attempts, err := h.engine.Attempts(c.Request().Context(), c.Param("dedupKey"))
	if err != nil {
		h.log.Error("Failed to read delivery history", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	return c.JSON(http.StatusOK, dto.ToAttemptResponseList(attempts))
}

// RecentHistory returns the newest attempts.
func (h *NotificationHandler) RecentHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = min(n, maxHistoryLimit)
	}
	attempts, err := h.engine.RecentAttempts(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("Failed to read delivery history", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	return c.JSON(http.StatusOK, dto.ToAttemptResponseList(attempts))
}

// Stats returns sent and failed counts per kind and channel.
func (h *NotificationHandler) Stats(c echo.Context) error {
	stats, err := h.engine.Stats(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to aggregate delivery history", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	return c.JSON(http.StatusOK, dto.ToStatResponseList(stats))
}

// Scan runs a reminder scan now.
func (h *NotificationHandler) Scan(c echo.Context) error {
	res, err := h.engine.ScanNow(c.Request().Context())
	resp := dto.ToScanResponse(res)
	if err != nil {
		h.log.Error("Manual reminder scan failed", err)
		resp.Error = err.Error()
		return c.JSON(http.StatusInternalServerError, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// SchedulerStatus reports the reminder scheduler state.
func (h *NotificationHandler) SchedulerStatus(c echo.Context) error {
	status, err := h.engine.SchedulerStatus(c.Request().Context())
	if err != nil {
		h.log.Error("Failed to read scheduler status", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: appErrors.ErrInternalServer.Error()})
	}
	return c.JSON(http.StatusOK, dto.ToSchedulerStatusResponse(status))
}
