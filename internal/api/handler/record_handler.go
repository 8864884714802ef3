package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/meditrack/meditrack-api/internal/api/metrics"
	"github.com/meditrack/meditrack-api/internal/core/domain"
	"github.com/meditrack/meditrack-api/internal/core/ports"
)

// RecordHandler serves the pass-through resources (patients, monitoring,
// inventory). Each method returns the echo handler for one resource.
type RecordHandler struct {
	service ports.RecordService
}

func NewRecordHandler(service ports.RecordService) *RecordHandler {
	return &RecordHandler{service: service}
}

type listQuery struct {
	Page  int    `query:"page" validate:"omitempty,min=1"`
	Limit int    `query:"limit" validate:"omitempty,min=1"`
	Sort  string `query:"sort" validate:"omitempty,max=64,excludesall=$."`
	Order string `query:"order" validate:"omitempty,oneof=asc desc"`
}

type pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type recordListResponse struct {
	Data       []domain.Record `json:"data"`
	Pagination pagination      `json:"pagination"`
}

// Binding fills a server-controlled field of a record from the request.
type Binding func(c echo.Context, id *domain.Identity, rec domain.Record)

// FromPath copies path parameter param into field.
func FromPath(field, param string) Binding {
	return func(c echo.Context, _ *domain.Identity, rec domain.Record) {
		rec[field] = c.Param(param)
	}
}

// FromIdentity stores the caller's user id in field.
func FromIdentity(field string) Binding {
	return func(_ echo.Context, id *domain.Identity, rec domain.Record) {
		rec[field] = id.ID
	}
}

// List returns records of res in the resource's default order unless sort
// or order is given. Query parameters named in filters narrow the result by
// exact match; bindings add fixed filters taken from the path.
//
// @Summary      List records
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int     false  "Page (1-based)"
// @Param        limit  query     int     false  "Page size (max 100)"
// @Param        sort   query     string  false  "Sort field"
// @Param        order  query     string  false  "asc or desc"
// @Success      200    {object}  recordListResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /patients [get]
// @Router       /patients/{id}/monitoring [get]
// @Router       /inventory/categories [get]
// @Router       /inventory/items [get]
// @Router       /inventory/transactions [get]
func (h *RecordHandler) List(res domain.Resource, filters []string, bindings ...Binding) echo.HandlerFunc {
	return func(c echo.Context) error {
		var q listQuery
		if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
		}
		if err := c.Validate(&q); err != nil {
			return err
		}

		equals := make(map[string]string)
		for _, f := range filters {
			if v := c.QueryParam(f); v != "" {
				equals[f] = v
			}
		}
		if len(bindings) > 0 {
			id, _ := domain.IdentityFromContext(c.Request().Context())
			fixed := domain.Record{}
			for _, b := range bindings {
				b(c, id, fixed)
			}
			for k, v := range fixed {
				if s, ok := v.(string); ok {
					equals[k] = s
				}
			}
		}

		page, err := h.service.List(c.Request().Context(), res, ports.ListRecordsInput{
			Equals:     equals,
			SortBy: q.Sort,
			Order:  q.Order,
			Page:   q.Page,
			Limit:  q.Limit,
		})
		if err != nil {
			return ToHTTPError(err)
		}

		return c.JSON(http.StatusOK, recordListResponse{
			Data: page.Items,
			Pagination: pagination{
				Page:       page.Page,
				Limit:      page.Limit,
				Total:      page.Total,
				TotalPages: page.TotalPages,
			},
		})
	}
}

// Get returns one record by the :id path parameter.
//
// @Summary      Get a record
// @Tags         records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /patients/{id} [get]
// @Router       /inventory/items/{id} [get]
func (h *RecordHandler) Get(res domain.Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		rec, err := h.service.Get(c.Request().Context(), res, c.Param("id"))
		if err != nil {
			return ToHTTPError(err)
		}
		return c.JSON(http.StatusOK, rec)
	}
}

// Create stores the JSON body as a new record. Bindings overwrite any
// client-supplied value for the fields they own.
//
// @Summary      Create a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      map[string]any  true  "Record fields"
// @Success      201   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /patients [post]
// @Router       /patients/{id}/monitoring [post]
// @Router       /inventory/items [post]
// @Router       /inventory/transactions [post]
func (h *RecordHandler) Create(res domain.Resource, bindings ...Binding) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := ctxIdentity(c)
		if err != nil {
			return err
		}

		body, err := bindRecord(c)
		if err != nil {
			return err
		}
		for _, b := range bindings {
			b(c, id, body)
		}

		rec, err := h.service.Create(c.Request().Context(), res, body)
		if err != nil {
			return ToHTTPError(err)
		}
		metrics.RecordsWrittenTotal.WithLabelValues(res.Collection, "create").Inc()
		return c.JSON(http.StatusCreated, rec)
	}
}

// Update applies the JSON body to the record named by :id.
//
// @Summary      Update a record
// @Tags         records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Record id"
// @Param        body  body      map[string]any  true  "Fields to change"
// @Success      200   {object}  map[string]any
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /patients/{id} [put]
// @Router       /inventory/items/{id} [put]
func (h *RecordHandler) Update(res domain.Resource) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := bindRecord(c)
		if err != nil {
			return err
		}

		rec, err := h.service.Update(c.Request().Context(), res, c.Param("id"), body)
		if err != nil {
			return ToHTTPError(err)
		}
		metrics.RecordsWrittenTotal.WithLabelValues(res.Collection, "update").Inc()
		return c.JSON(http.StatusOK, rec)
	}
}

func bindRecord(c echo.Context) (domain.Record, error) {
	body := domain.Record{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "request body must be a JSON object").SetInternal(err)
	}
	return body, nil
}
