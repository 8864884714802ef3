package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

type AuditHandler struct {
	log ports.AuditLog
}

func NewAuditHandler(log ports.AuditLog) *AuditHandler {
	return &AuditHandler{log: log}
}

type auditQuery struct {
	Action   string `query:"action" validate:"omitempty,max=64"`
	UserID   string `query:"user_id" validate:"omitempty,max=64"`
	DateFrom string `query:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `query:"date_to" validate:"omitempty,datetime=2006-01-02"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	Limit    int    `query:"limit" validate:"omitempty,min=1"`
}

type auditListResponse struct {
	Data       []*domain.AuditEntry `json:"data"`
	Pagination pagination           `json:"pagination"`
}

// List returns system log entries, newest first.
//
// @Summary      List system log entries
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        action     query     string  false  "Action, e.g. user_login"
// @Param        user_id    query     string  false  "User id"
// @Param        date_from  query     string  false  "First day (YYYY-MM-DD)"
// @Param        date_to    query     string  false  "Last day (YYYY-MM-DD), inclusive"
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size (max 100)"
// @Success      200        {object}  auditListResponse
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Router       /logs [get]
func (h *AuditHandler) List(c echo.Context) error {
	var q auditQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	filter := ports.AuditFilter{
		Action: q.Action,
		UserID: q.UserID,
		Page:   q.Page,
		Limit:  q.Limit,
	}
	// Validated above, so parsing cannot fail.
	if q.DateFrom != "" {
		filter.DateFrom, _ = time.Parse(time.DateOnly, q.DateFrom)
	}
	if q.DateTo != "" {
		day, _ := time.Parse(time.DateOnly, q.DateTo)
		filter.DateTo = day.Add(24*time.Hour - time.Nanosecond)
	}

	page, err := h.log.List(c.Request().Context(), filter)
	if err != nil {
		return ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, auditListResponse{
		Data: page.Items,
		Pagination: pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}
