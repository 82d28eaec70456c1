package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	pq "github.com/lib/pq"

	"github.com/guttosm/spimexpulse/internal/domain/models"
)

const resultsTable = "spimex_trading_results"

// TradingResultsRepository defines contract for DB operations.
type TradingResultsRepository interface {
	// ingestion side
	Reset(ctx context.Context) error
	SaveFile(ctx context.Context, file models.IngestedFile, results []models.TradingResult) error
	HasIngestedFile(ctx context.Context, filename string) (bool, error)

	// query side
	LastTradingDates(ctx context.Context, limit int) ([]time.Time, error)
	Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error)
	TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error)
}

type tradingRepository struct {
	db *sql.DB
}

func NewTradingResultsRepository(db *sql.DB) TradingResultsRepository {
	return &tradingRepository{db: db}
}

// Reset empties the results table and the ingestion log.
func (r *tradingRepository) Reset(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `TRUNCATE TABLE spimex_trading_results, ingestion_log RESTART IDENTITY`)
	return err
}

// SaveFile inserts the results of one report and records the file in the
// ingestion log. Both happen in a single transaction: either every row of the
// file is committed or none is. With file.ReplaceDate the rows already stored
// for file.FileDate are deleted inside that transaction too.
func (r *tradingRepository) SaveFile(ctx context.Context, file models.IngestedFile, results []models.TradingResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	if file.ReplaceDate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM spimex_trading_results WHERE date = $1`, file.FileDate); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if len(results) > 0 {
		if err := copyResults(ctx, tx, results); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ingestion_log (filename, file_date, row_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (filename)
		DO UPDATE SET file_date = EXCLUDED.file_date,
					  row_count = EXCLUDED.row_count,
					  ingested_at = NOW()
	`, file.Filename, file.FileDate, file.RowCount); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

func copyResults(ctx context.Context, tx *sql.Tx, results []models.TradingResult) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(
		resultsTable,
		"exchange_product_id",
		"exchange_product_name",
		"oil_id",
		"delivery_basis_id",
		"delivery_basis_name",
		"delivery_type_id",
		"volume",
		"total",
		"count",
		"date",
	))
	if err != nil {
		return err
	}

	for _, rec := range results {
		if _, err := stmt.ExecContext(ctx,
			rec.ExchangeProductID,
			rec.ExchangeProductName,
			rec.OilID,
			rec.DeliveryBasisID,
			rec.DeliveryBasisName,
			rec.DeliveryTypeID,
			rec.Volume,
			rec.Total,
			rec.Count,
			rec.Date,
		); err != nil {
			_ = stmt.Close()
			return err
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

// HasIngestedFile reports whether filename is recorded in the ingestion log.
func (r *tradingRepository) HasIngestedFile(ctx context.Context, filename string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ingestion_log WHERE filename = $1)`, filename).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// LastTradingDates returns up to limit distinct trading dates, newest first.
func (r *tradingRepository) LastTradingDates(ctx context.Context, limit int) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT date FROM spimex_trading_results ORDER BY date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// Dynamics returns the results traded between start and end (inclusive), oldest first.
func (r *tradingRepository) Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error) {
	conditions := []string{"date >= $1", "date <= $2"}
	args := []interface{}{start, end}
	conditions, args = appendFilter(conditions, args, filter)

	query := fmt.Sprintf(`SELECT %s FROM spimex_trading_results WHERE %s ORDER BY date ASC, id ASC`,
		selectColumns, strings.Join(conditions, " AND "))
	return r.queryResults(ctx, query, args...)
}

// TradingResults returns the most recent results matching filter, newest first.
func (r *tradingRepository) TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error) {
	conditions, args := appendFilter(nil, nil, filter)

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, limit)

	query := fmt.Sprintf(`SELECT %s FROM spimex_trading_results %s ORDER BY date DESC, id DESC LIMIT $%d`,
		selectColumns, where, len(args))
	return r.queryResults(ctx, query, args...)
}

const selectColumns = `id, exchange_product_id, exchange_product_name, oil_id, delivery_basis_id,
	delivery_basis_name, delivery_type_id, volume, total, count, date, created_on, updated_on`

// appendFilter adds one equality condition per non-empty filter field.
// Placeholders continue after the existing args.
func appendFilter(conditions []string, args []interface{}, f models.TradingFilter) ([]string, []interface{}) {
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("oil_id", f.OilID)
	add("delivery_type_id", f.DeliveryTypeID)
	add("delivery_basis_id", f.DeliveryBasisID)
	return conditions, args
}

func (r *tradingRepository) queryResults(ctx context.Context, query string, args ...interface{}) ([]models.TradingResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []models.TradingResult
	for rows.Next() {
		var rec models.TradingResult
		if err := rows.Scan(
			&rec.ID,
			&rec.ExchangeProductID,
			&rec.ExchangeProductName,
			&rec.OilID,
			&rec.DeliveryBasisID,
			&rec.DeliveryBasisName,
			&rec.DeliveryTypeID,
			&rec.Volume,
			&rec.Total,
			&rec.Count,
			&rec.Date,
			&rec.CreatedOn,
			&rec.UpdatedOn,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
