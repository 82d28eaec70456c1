package ingestion

import (
	"fmt"
	"math"
	"strings"

	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/spreadsheet"
)

// Normalize turns a filtered table (header first) into trading results.
//
// The date comes from filename; an undecodable filename fails the whole file.
// Rows that cannot be converted are logged, counted in skipped and left out.
func (l Layout) Normalize(table []spreadsheet.Row, filename string) (results []models.TradingResult, skipped int, err error) {
	date, err := l.DateFromFilename(filename)
	if err != nil {
		return nil, 0, err
	}
	if len(table) < 2 {
		return nil, 0, nil
	}

	results = make([]models.TradingResult, 0, len(table)-1)
	for i, row := range table[1:] {
		r, err := l.record(row)
		if err != nil {
			skipped++
			logger.L().Warn().Str("file", filename).Int("row", i+1).Err(err).Msg("row skipped")
			continue
		}
		r.Date = date
		results = append(results, r)
	}
	return results, skipped, nil
}

func (l Layout) record(row spreadsheet.Row) (models.TradingResult, error) {
	productID := strings.TrimSpace(row.At(l.ProductIDColumn).String())
	oil, basis, deliveryType, err := l.SplitProductID(productID)
	if err != nil {
		return models.TradingResult{}, err
	}

	count, err := row.At(l.CountColumn).Float()
	if err != nil {
		return models.TradingResult{}, fmt.Errorf("count: %w", err)
	}
	if math.IsNaN(count) || math.IsInf(count, 0) {
		return models.TradingResult{}, fmt.Errorf("count: not a finite number")
	}

	return models.TradingResult{
		ExchangeProductID:   productID,
		ExchangeProductName: strings.TrimSpace(row.At(l.ProductNameColumn).String()),
		OilID:               oil,
		DeliveryBasisID:     basis,
		DeliveryBasisName:   strings.TrimSpace(row.At(l.BasisNameColumn).String()),
		DeliveryTypeID:      deliveryType,
		Volume:              strings.TrimSpace(row.At(l.VolumeColumn).String()),
		Total:               strings.TrimSpace(row.At(l.TotalColumn).String()),
		Count:               int64(count),
	}, nil
}
