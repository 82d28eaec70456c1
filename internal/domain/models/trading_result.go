package models

import "time"

// TradingResult is one row of one day's SPIMEX report for a single
// product / delivery basis / delivery type combination.
//
// OilID, DeliveryBasisID and DeliveryTypeID are always derived from
// ExchangeProductID (format OOOOBBBT...T) and never set independently.
// Volume and Total keep the decimal text found in the report.
// Date comes from the report filename, not from the sheet.
type TradingResult struct {
	ID                  int64     `json:"id"`
	ExchangeProductID   string    `json:"exchange_product_id"`
	ExchangeProductName string    `json:"exchange_product_name"`
	OilID               string    `json:"oil_id"`
	DeliveryBasisID     string    `json:"delivery_basis_id"`
	DeliveryBasisName   string    `json:"delivery_basis_name"`
	DeliveryTypeID      string    `json:"delivery_type_id"`
	Volume              string    `json:"volume"`
	Total               string    `json:"total"`
	Count               int64     `json:"count"`
	Date                time.Time `json:"date"`
	CreatedOn           time.Time `json:"created_on"`
	UpdatedOn           time.Time `json:"updated_on"`
}

// TradingFilter narrows query results. Empty fields are ignored.
type TradingFilter struct {
	OilID           string
	DeliveryTypeID  string
	DeliveryBasisID string
}

// IngestedFile describes one report file committed to the store.
type IngestedFile struct {
	Filename    string
	FileDate    time.Time
	RowCount    int
	ReplaceDate bool // drop the rows already stored for FileDate first
}
