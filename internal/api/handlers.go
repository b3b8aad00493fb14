package api

import (
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fxdash/internal/middleware"
	"fxdash/internal/service"
)

// DashboardHandler serves the dashboard endpoints
type DashboardHandler struct {
	dashboard *service.Dashboard
	log       *logrus.Logger
}

// NewDashboardHandler creates the handler for the dashboard endpoints
func NewDashboardHandler(dashboard *service.Dashboard, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, log: log}
}

// GetCurrencies handles GET /api/v1/currencies
func (h *DashboardHandler) GetCurrencies(c *gin.Context) {
	currencies, err := h.dashboard.CurrencyList(c.Request.Context())
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, NewResponse(gin.H{"currencies": currencies}))
}

// GetConvert handles GET /api/v1/convert
func (h *DashboardHandler) GetConvert(c *gin.Context) {
	from := strings.ToUpper(c.Query("from"))
	to := strings.ToUpper(c.Query("to"))
	amount, err := parseAmount(c.Query("amount"))
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	result, err := h.dashboard.Convert(c.Request.Context(), from, to, amount)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(gin.H{
		"from":             from,
		"to":               to,
		"amount":           amount,
		"rate":             result.Rate,
		"converted_amount": round4(result.ConvertedAmount),
	}))
}

// GetHistory handles GET /api/v1/history
func (h *DashboardHandler) GetHistory(c *gin.Context) {
	req, err := historyRequestFromQuery(c)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	candles, err := h.dashboard.History(c.Request.Context(), req)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(gin.H{
		"pair":     req.Base + req.Quote,
		"interval": req.Interval,
		"count":    len(candles),
		"candles":  candles,
	}))
}

// GetPivots handles GET /api/v1/analytics/pivots
func (h *DashboardHandler) GetPivots(c *gin.Context) {
	req, err := historyRequestFromQuery(c)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	result, err := h.dashboard.Pivots(c.Request.Context(), req)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(gin.H{
		"pair":   req.Base + req.Quote,
		"as_of":  result.AsOf,
		"levels": result.Levels,
	}))
}

// GetVolatility handles GET /api/v1/analytics/volatility
func (h *DashboardHandler) GetVolatility(c *gin.Context) {
	req, err := historyRequestFromQuery(c)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	result, err := h.dashboard.Volatility(c.Request.Context(), req)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(gin.H{
		"pair":           req.Base + req.Quote,
		"window":         result.Window,
		"records":        result.Records,
		"volatility":     result.Volatility,
		"annualized_pct": result.AnnualizedPct,
	}))
}

// GetChart handles GET /api/v1/chart
func (h *DashboardHandler) GetChart(c *gin.Context) {
	req, err := historyRequestFromQuery(c)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	series, err := h.dashboard.ChartData(c.Request.Context(), req)
	if err != nil {
		middleware.WriteError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, NewResponse(gin.H{
		"pair":   req.Base + req.Quote,
		"series": series,
	}))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
