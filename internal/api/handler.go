package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/spimexpulse/internal/domain/dto"
	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/service"
)

const (
	defaultLimit      = 10
	maxDatesLimit     = 100
	maxResultsLimit   = 1000
	queryDateLayout   = "2006-01-02"
	dateFormatMessage = "expected YYYY-MM-DD"
)

// Handler provides HTTP handlers for the trading results endpoints.
//
// Responsibilities:
//   - Validate incoming HTTP query parameters
//   - Delegate to the trading service
//   - Translate results into response DTOs
//   - Return structured JSON responses with appropriate HTTP status codes
type Handler struct {
	svc service.TradingService
}

// NewHandler constructs a new Handler instance.
func NewHandler(svc service.TradingService) *Handler {
	return &Handler{svc: svc}
}

// GetLastTradingDates handles GET /api/v1/tradings/last-trading-dates.
//
// GetLastTradingDates godoc
// @Summary      Last trading dates
// @Description  Returns the most recent distinct trading dates, newest first
// @Tags         tradings
// @Produce      json
// @Param        limit  query     int       false  "Number of dates (1-100)"  default(10)
// @Success      200    {array}   string    "Dates in YYYY-MM-DD"
// @Failure      400    {object}  dto.ErrorResponse  "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse  "Internal Error"
// @Router       /api/v1/tradings/last-trading-dates [get]
func (h *Handler) GetLastTradingDates(c *gin.Context) {
	limit, ok := parseLimit(c, maxDatesLimit)
	if !ok {
		return
	}

	dates, err := h.svc.LastTradingDates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch trading dates", err))
		return
	}
	c.JSON(http.StatusOK, dto.NewTradingDatesResponse(dates))
}

// GetDynamics handles GET /api/v1/tradings/dynamics.
//
// GetDynamics godoc
// @Summary      Trading dynamics
// @Description  Returns the trading results of an inclusive date range, oldest first
// @Tags         tradings
// @Produce      json
// @Param        start_date         query     string  true   "Range start, YYYY-MM-DD"  example(2024-05-01)
// @Param        end_date           query     string  true   "Range end, YYYY-MM-DD"    example(2024-05-31)
// @Param        oil_id             query     string  false  "Oil code"                 example(A592)
// @Param        delivery_type_id   query     string  false  "Delivery type code"       example(F)
// @Param        delivery_basis_id  query     string  false  "Delivery basis code"      example(UFM)
// @Success      200                {array}   dto.TradingResultResponse  "Success"
// @Failure      400                {object}  dto.ErrorResponse          "Bad Request"
// @Failure      500                {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/tradings/dynamics [get]
func (h *Handler) GetDynamics(c *gin.Context) {
	start, ok := parseDate(c, "start_date")
	if !ok {
		return
	}
	end, ok := parseDate(c, "end_date")
	if !ok {
		return
	}

	results, err := h.svc.Dynamics(c.Request.Context(), start, end, filterFromQuery(c))
	if errors.Is(err, service.ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("start_date must not be after end_date", err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch dynamics", err))
		return
	}
	c.JSON(http.StatusOK, dto.NewTradingResultsResponse(results))
}

// GetTradingResults handles GET /api/v1/tradings/trading-results.
//
// GetTradingResults godoc
// @Summary      Latest trading results
// @Description  Returns the most recent trading results matching the filters, newest first
// @Tags         tradings
// @Produce      json
// @Param        limit              query     int     false  "Number of rows (1-1000)"  default(10)
// @Param        oil_id             query     string  false  "Oil code"                 example(A592)
// @Param        delivery_type_id   query     string  false  "Delivery type code"       example(F)
// @Param        delivery_basis_id  query     string  false  "Delivery basis code"      example(UFM)
// @Success      200                {array}   dto.TradingResultResponse  "Success"
// @Failure      400                {object}  dto.ErrorResponse          "Bad Request"
// @Failure      500                {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/tradings/trading-results [get]
func (h *Handler) GetTradingResults(c *gin.Context) {
	limit, ok := parseLimit(c, maxResultsLimit)
	if !ok {
		return
	}

	results, err := h.svc.TradingResults(c.Request.Context(), filterFromQuery(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to fetch trading results", err))
		return
	}
	c.JSON(http.StatusOK, dto.NewTradingResultsResponse(results))
}

// parseLimit reads ?limit=, defaulting to defaultLimit. It writes a 400 and
// returns false when the value is not an integer in [1, upper].
func parseLimit(c *gin.Context, upper int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > upper {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("limit must be an integer between 1 and "+strconv.Itoa(upper), err))
		return 0, false
	}
	return n, true
}

func parseDate(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(name+" is required", nil))
		return time.Time{}, false
	}
	d, err := time.Parse(queryDateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid "+name+" format, "+dateFormatMessage, err))
		return time.Time{}, false
	}
	return d, true
}

func filterFromQuery(c *gin.Context) models.TradingFilter {
	return models.TradingFilter{
		OilID:           c.Query("oil_id"),
		DeliveryTypeID:  c.Query("delivery_type_id"),
		DeliveryBasisID: c.Query("delivery_basis_id"),
	}
}
