package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/kyc"
	"github.com/banking/compliance-service/internal/monitor"
	"github.com/banking/compliance-service/internal/onboarding"
	"github.com/banking/compliance-service/internal/pkg/logger"
	"github.com/banking/compliance-service/internal/sanctions"
)

// Handler exposes the compliance engines over HTTP. It holds no state
// of its own; everything algorithmic lives in the engines.
type Handler struct {
	screener   *sanctions.Screener
	riskEngine *kyc.RiskEngine
	monitor    *monitor.Monitor
	onboarding *onboarding.Service
	log        *logger.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(screener *sanctions.Screener, riskEngine *kyc.RiskEngine, mon *monitor.Monitor, onboardingSvc *onboarding.Service, log *logger.Logger) *Handler {
	return &Handler{
		screener:   screener,
		riskEngine: riskEngine,
		monitor:    mon,
		onboarding: onboardingSvc,
		log:        log.Named("api"),
	}
}

// Register wires all routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)

	v1 := e.Group("/v1")
	v1.POST("/sanctions/list", h.LoadSanctionsList)
	v1.POST("/screening/individual", h.ScreenIndividual)
	v1.POST("/screening/entity", h.ScreenEntity)
	v1.POST("/kyc/assess", h.AssessCustomerRisk)
	v1.POST("/kyc/cdd", h.PerformCDD)
	v1.POST("/kyc/edd", h.PerformEDD)
	v1.POST("/onboarding", h.Onboard)
	v1.POST("/transactions/monitor", h.MonitorTransaction)
	v1.GET("/alerts/:user_id", h.GetAlerts)
}

// Health reports service liveness and sanctions list status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":               "healthy",
		"sanctions_list_size":  h.screener.ListSize(),
		"sanctions_list_stale": h.screener.ListSize() == 0,
		"timestamp":            time.Now().UTC(),
	})
}

type loadListRequest struct {
	Entities []domain.SanctionedEntity `json:"entities"`
}

// LoadSanctionsList replaces the active sanctions list.
func (h *Handler) LoadSanctionsList(c echo.Context) error {
	var req loadListRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	if err := h.screener.LoadList(req.Entities); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loaded":      len(req.Entities),
		"last_update": h.screener.LastUpdate(),
	})
}

type screenRequest struct {
	Name       string            `json:"name"`
	EntityType domain.EntityType `json:"entity_type,omitempty"`
	Country    string            `json:"country,omitempty"`
}

// ScreenIndividual screens a person's name.
func (h *Handler) ScreenIndividual(c echo.Context) error {
	var req screenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	result, err := h.screener.ScreenIndividual(req.Name, req.Country)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ScreenEntity screens a non-individual name.
func (h *Handler) ScreenEntity(c echo.Context) error {
	var req screenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	result, err := h.screener.ScreenEntity(req.Name, req.EntityType, req.Country)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// AssessCustomerRisk scores a customer profile.
func (h *Handler) AssessCustomerRisk(c echo.Context) error {
	var customer domain.Customer
	if err := c.Bind(&customer); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	assessment, err := h.riskEngine.AssessCustomerRisk(&customer)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, assessment)
}

// PerformCDD evaluates the standard due diligence checklist.
func (h *Handler) PerformCDD(c echo.Context) error {
	var customer domain.Customer
	if err := c.Bind(&customer); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	result, err := h.riskEngine.PerformCDD(&customer)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// PerformEDD evaluates the enhanced due diligence checklist.
func (h *Handler) PerformEDD(c echo.Context) error {
	var customer domain.Customer
	if err := c.Bind(&customer); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	result, err := h.riskEngine.PerformEDD(&customer)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Onboard runs the combined onboarding compliance check.
func (h *Handler) Onboard(c echo.Context) error {
	var customer domain.Customer
	if err := c.Bind(&customer); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	result, err := h.onboarding.Onboard(c.Request().Context(), &customer)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// MonitorTransaction records a transaction and returns generated alerts.
func (h *Handler) MonitorTransaction(c echo.Context) error {
	var tx domain.Transaction
	if err := c.Bind(&tx); err != nil {
		return badRequest(c, "body", "malformed request body")
	}
	alerts, err := h.monitor.MonitorTransaction(&tx)
	if err != nil {
		return writeError(c, err)
	}
	if alerts == nil {
		alerts = []domain.AMLAlert{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"transaction_id": tx.TransactionID,
		"alerts":         alerts,
	})
}

// GetAlerts returns a user's alert log, optionally filtered by severity.
func (h *Handler) GetAlerts(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return badRequest(c, "user_id", "must not be empty")
	}

	var alerts []domain.AMLAlert
	if raw := c.QueryParam("severity"); raw != "" {
		severity := domain.AlertSeverity(raw)
		if !severity.Valid() {
			return badRequest(c, "severity", "unknown severity "+raw)
		}
		alerts = h.monitor.GetAlertsBySeverity(userID, severity)
	} else {
		alerts = h.monitor.GetAlerts(userID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"alerts":  alerts,
	})
}

func writeError(c echo.Context, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error":  "validation_failed",
			"field":  verr.Field,
			"reason": verr.Reason,
		})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal_error",
	})
}

func badRequest(c echo.Context, field, reason string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{
		"error":  "validation_failed",
		"field":  field,
		"reason": reason,
	})
}
