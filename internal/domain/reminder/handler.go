package reminder

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Hakeem7777/Pet-Vaccine-Scheduler/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/reminder-preferences", h.GetPreference)
	api.PUT("/reminder-preferences", h.PutPreference)
}

func (h *Handler) GetPreference(c echo.Context) error {
	ownerID := auth.OwnerID(c.Request().Context())
	p, err := h.svc.GetPreference(c.Request().Context(), ownerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PutPreference(c echo.Context) error {
	var p Preference
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	p.OwnerID = auth.OwnerID(ctx)
	// Without an explicit override the reminder address is the account email
	// from the token.
	if p.Email == "" {
		p.Email = auth.OwnerEmail(ctx)
	}
	if err := h.svc.PutPreference(ctx, &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
