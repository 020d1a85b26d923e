package gasdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rubiojr/gasprice/pkg/fuel"
)

const lastPricesKey = "last_price"

// ErrNoSnapshot is returned when no price snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no price snapshot available")

// SavePrices stores records as the snapshot for date's day, replacing a
// snapshot already saved that day.
func (s *Storage) SavePrices(ctx context.Context, date time.Time, records []fuel.Record) error {
	if records == nil {
		records = []fuel.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("error marshaling prices: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("rollback error", "error", err)
		}
	}()

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO fuel_prices (date, data) VALUES (?, ?)", date.Format(dateLayout), data)
	if err != nil {
		return fmt.Errorf("error inserting data: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	s.cache.Delete(lastPricesKey)
	return nil
}

// GetLastPrices returns the most recent snapshot, or ErrNoSnapshot.
func (s *Storage) GetLastPrices(ctx context.Context) ([]fuel.Record, error) {
	if cached, found := s.cache.Get(lastPricesKey); found {
		s.log.Debug("Using cached data", "key", lastPricesKey)
		return cloneRecords(cached.([]fuel.Record)), nil
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM fuel_prices ORDER BY date DESC LIMIT 1").Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}

	var records []fuel.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("error unmarshaling data: %w", err)
	}

	s.cache.Set(lastPricesKey, records, cache.DefaultExpiration)
	return cloneRecords(records), nil
}

// GetLastUpdateDate returns the day of the most recent snapshot, or nil
// when there is none.
func (s *Storage) GetLastUpdateDate(ctx context.Context) (*time.Time, error) {
	var dateStr string
	err := s.db.QueryRowContext(ctx, "SELECT date FROM fuel_prices ORDER BY date DESC LIMIT 1").Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying last update date: %w", err)
	}

	lastUpdate, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("error parsing date %s: %w", dateStr, err)
	}
	return &lastUpdate, nil
}

// DeleteOldRecords removes snapshots older than daysOld days and returns
// how many were deleted.
func (s *Storage) DeleteOldRecords(ctx context.Context, daysOld int) (int, error) {
	cutoffDate := time.Now().AddDate(0, 0, -daysOld).Format(dateLayout)
	s.log.Info("Starting cleanup of old records", "cutoff_date", cutoffDate)

	deleted := 0
	for {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM fuel_prices WHERE ROWID IN (
				SELECT ROWID FROM fuel_prices WHERE date < ? ORDER BY ROWID LIMIT ?
			)`, cutoffDate, deleteBatchSize)
		if err != nil {
			return deleted, fmt.Errorf("error deleting fuel_prices records: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, fmt.Errorf("error counting deleted records: %w", err)
		}
		deleted += int(n)
		if n < deleteBatchSize {
			break
		}
	}

	if deleted > 0 {
		s.cache.Delete(lastPricesKey)
	}
	s.log.Info("Completed fuel_prices cleanup", "deleted_count", deleted)
	return deleted, nil
}

func cloneRecords(records []fuel.Record) []fuel.Record {
	out := make([]fuel.Record, len(records))
	copy(out, records)
	return out
}
