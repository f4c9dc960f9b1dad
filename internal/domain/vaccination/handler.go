package vaccination

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/domain/dog"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/auth"
	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/scheduling"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/vaccines", h.ListVaccines)
	api.POST("/dogs/:id/vaccinations", h.CreateRecord)
	api.GET("/dogs/:id/vaccinations", h.ListRecords)
	api.DELETE("/dogs/:id/vaccinations/:recordID", h.DeleteRecord)
	api.POST("/dogs/:id/schedule", h.ComputeSchedule)
	api.GET("/dogs/:id/history-analysis", h.AnalyzeHistory)
}

func (h *Handler) ListVaccines(c echo.Context) error {
	vaccines, err := h.svc.ListVaccines(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, vaccines)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	dogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dog id")
	}
	var rec Record
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec.DogID = dogID
	ownerID := auth.OwnerID(c.Request().Context())
	if err := h.svc.CreateRecord(c.Request().Context(), ownerID, &rec); err != nil {
		if errors.Is(err, dog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dog not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	dogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dog id")
	}
	ownerID := auth.OwnerID(c.Request().Context())
	records, err := h.svc.ListRecords(c.Request().Context(), ownerID, dogID)
	if err != nil {
		if errors.Is(err, dog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dog not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, records)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	dogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dog id")
	}
	recordID, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid record id")
	}
	ownerID := auth.OwnerID(c.Request().Context())
	if err := h.svc.DeleteRecord(c.Request().Context(), ownerID, dogID, recordID); err != nil {
		if errors.Is(err, dog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dog not found")
		}
		if errors.Is(err, ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "vaccination record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type scheduleRequest struct {
	AsOf            string         `json:"as_of"`
	SelectedNoncore []string       `json:"selected_noncore"`
	History         []HistoryEntry `json:"history"`
}

func (h *Handler) ComputeSchedule(c echo.Context) error {
	dogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dog id")
	}
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	opts := ScheduleOptions{
		SelectedNoncore: req.SelectedNoncore,
		History:         req.History,
	}
	if req.AsOf != "" {
		asOf, err := time.Parse(scheduling.DateLayout, req.AsOf)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
		opts.AsOf = asOf
	}

	ownerID := auth.OwnerID(c.Request().Context())
	result, err := h.svc.ComputeSchedule(c.Request().Context(), ownerID, dogID, opts)
	if err != nil {
		if errors.Is(err, dog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dog not found")
		}
		if errors.Is(err, scheduling.ErrInvalidInput) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) AnalyzeHistory(c echo.Context) error {
	dogID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid dog id")
	}
	ownerID := auth.OwnerID(c.Request().Context())
	analysis, err := h.svc.AnalyzeHistory(c.Request().Context(), ownerID, dogID)
	if err != nil {
		if errors.Is(err, dog.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "dog not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"analysis": analysis})
}
