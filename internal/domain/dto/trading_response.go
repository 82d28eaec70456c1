package dto

import (
	"time"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

const dateLayout = "2006-01-02"

// TradingResultResponse is the API representation of a stored trading result.
//
// Dates are rendered as YYYY-MM-DD; volume and total keep the report's decimal text.
type TradingResultResponse struct {
	ID                  int64     `json:"id" example:"1"`
	ExchangeProductID   string    `json:"exchange_product_id" example:"A592UFM060F"`
	ExchangeProductName string    `json:"exchange_product_name" example:"Бензин (АИ-92-К5)"`
	OilID               string    `json:"oil_id" example:"A592"`
	DeliveryBasisID     string    `json:"delivery_basis_id" example:"UFM"`
	DeliveryBasisName   string    `json:"delivery_basis_name" example:"ст. Уфа"`
	DeliveryTypeID      string    `json:"delivery_type_id" example:"F"`
	Volume              string    `json:"volume" example:"60"`
	Total               string    `json:"total" example:"3798000"`
	Count               int64     `json:"count" example:"1"`
	Date                string    `json:"date" example:"2024-05-01"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// NewTradingResultResponse maps a domain model to its API shape.
func NewTradingResultResponse(r models.TradingResult) TradingResultResponse {
	return TradingResultResponse{
		ID:                  r.ID,
		ExchangeProductID:   r.ExchangeProductID,
		ExchangeProductName: r.ExchangeProductName,
		OilID:               r.OilID,
		DeliveryBasisID:     r.DeliveryBasisID,
		DeliveryBasisName:   r.DeliveryBasisName,
		DeliveryTypeID:      r.DeliveryTypeID,
		Volume:              r.Volume,
		Total:               r.Total,
		Count:               r.Count,
		Date:                r.Date.Format(dateLayout),
		CreatedOn:           r.CreatedOn,
		UpdatedOn:           r.UpdatedOn,
	}
}

// NewTradingResultsResponse maps a slice, always returning a non-nil slice so it encodes as [].
func NewTradingResultsResponse(rs []models.TradingResult) []TradingResultResponse {
	out := make([]TradingResultResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, NewTradingResultResponse(r))
	}
	return out
}

// NewTradingDatesResponse renders dates as YYYY-MM-DD strings.
func NewTradingDatesResponse(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}
