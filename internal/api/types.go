package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fxdash/internal/errors"
	"fxdash/internal/market"
	"fxdash/internal/service"
)

// Response is the JSON envelope for successful responses
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewResponse wraps data in the standard envelope
func NewResponse(data interface{}) Response {
	return Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

const dateLayout = "2006-01-02"

// historyRequestFromQuery builds a HistoryRequest from the shared query
// parameters used by the history, analytics and chart endpoints.
func historyRequestFromQuery(c *gin.Context) (service.HistoryRequest, error) {
	req := service.HistoryRequest{
		Base:     strings.ToUpper(c.Query("from")),
		Quote:    strings.ToUpper(c.Query("to")),
		Interval: market.Interval(c.DefaultQuery("interval", string(market.Interval1d))),
	}

	start, err := parseDate(c.Query("start"), "start")
	if err != nil {
		return service.HistoryRequest{}, err
	}
	end, err := parseDate(c.Query("end"), "end")
	if err != nil {
		return service.HistoryRequest{}, err
	}
	req.Start, req.End = start, end

	if window := c.Query("window"); window != "" {
		n, err := strconv.Atoi(window)
		if err != nil || n <= 0 {
			return service.HistoryRequest{}, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
				"window must be a positive integer", nil).WithContext("window", window)
		}
		req.Window = n
	}
	return req, nil
}

func parseDate(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			name+" date is required (YYYY-MM-DD)", nil)
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			name+" date must be YYYY-MM-DD", err).WithContext(name, value)
	}
	return t, nil
}

func parseAmount(value string) (float64, error) {
	if value == "" {
		return 0, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"amount is required", nil)
	}
	amount, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			"amount must be a number", err).WithContext("amount", value)
	}
	return amount, nil
}
