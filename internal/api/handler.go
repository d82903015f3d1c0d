// Package api exposes the import subsystem over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"teashelf/internal/browser"
	"teashelf/internal/models"
)

// ImportService is the single operation the HTTP surface calls into.
type ImportService interface {
	Import(ctx context.Context, rawURL string) (models.Candidate, error)
}

// SessionStatus reports the shared browser process state for health checks.
type SessionStatus interface {
	State() browser.State
}

// Handler holds the dependencies of all API routes.
type Handler struct {
	importer ImportService
	session  SessionStatus
	started  time.Time
	log      *logrus.Entry
}

func NewHandler(importer ImportService, session SessionStatus) *Handler {
	return &Handler{
		importer: importer,
		session:  session,
		started:  time.Now(),
		log:      logrus.WithField("component", "api"),
	}
}

// importTea handles POST /api/v1/teas/import. Guard rejections map to 400
// with the guard's reason verbatim; browser and scrape failures map to 500
// with a diagnostic detail. A sparse extraction result is still a 200.
func (h *Handler) importTea(c echo.Context) error {
	var req models.ImportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	cand, err := h.importer.Import(c.Request().Context(), req.URL)
	if err != nil {
		var rejected *models.URLRejectedError
		if errors.As(err, &rejected) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: rejected.Reason})
		}

		var launchErr *models.BrowserLaunchError
		if errors.As(err, &launchErr) {
			h.log.WithError(err).WithField("url", req.URL).Error("browser launch failed")
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Message: "Failed to launch browser",
				Detail:  err.Error(),
			})
		}

		h.log.WithError(err).WithField("url", req.URL).Error("import failed")
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Message: "Failed to scrape page",
			Detail:  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, models.NewImportResponse(cand))
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Browser string `json:"browser"`
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Browser: h.session.State().String(),
	})
}
