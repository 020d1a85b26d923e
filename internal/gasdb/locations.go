package gasdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// LocationLog represents a row in the location_logs table
type LocationLog struct {
	ID          int64
	Latitude    float64
	Longitude   float64
	Distance    float64
	SearchCount int64
	SearchTime  time.Time
	LastSearch  time.Time
}

func reduceLocationPrecision(lat, lng float64, decimalPlaces int) (roundedLat, roundedLng float64) {
	factor := math.Pow(decimalBase, float64(decimalPlaces))
	roundedLat = math.Round(lat*factor) / factor
	roundedLng = math.Round(lng*factor) / factor
	return
}

// LogSearchLocation records a search around latitude/longitude. Coordinates
// are stored with two decimals, so searches within roughly a kilometre of
// each other bump the same row.
func (s *Storage) LogSearchLocation(ctx context.Context, latitude, longitude, distance float64) error {
	lat, lng := reduceLocationPrecision(latitude, longitude, defaultReducePrecisionDecimalPlace)

	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM location_logs
		WHERE latitude = ? AND longitude = ?
		LIMIT 1
	`, lat, lng).Scan(&id)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO location_logs (latitude, longitude, distance)
			VALUES (?, ?, ?)
		`, lat, lng, distance)
		if err != nil {
			return fmt.Errorf("error logging search location: %w", err)
		}
	case err != nil:
		return fmt.Errorf("error checking for existing location: %w", err)
	default:
		_, err = s.db.ExecContext(ctx, `
			UPDATE location_logs
			SET search_count = search_count + 1, last_search = CURRENT_TIMESTAMP, distance = ?
			WHERE id = ?
		`, distance, id)
		if err != nil {
			return fmt.Errorf("error updating search location: %w", err)
		}
	}
	return nil
}

// GetLocationLogs returns the most searched locations first. A limit of 0
// returns every row.
func (s *Storage) GetLocationLogs(ctx context.Context, limit int) ([]LocationLog, error) {
	query := `SELECT id, latitude, longitude, distance, search_count, search_time, last_search
			  FROM location_logs
			  ORDER BY search_count DESC, id ASC`

	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error retrieving location logs: %w", err)
	}
	defer rows.Close()

	var logs []LocationLog
	for rows.Next() {
		var entry LocationLog
		var searchTime, lastSearch string
		if err := rows.Scan(
			&entry.ID,
			&entry.Latitude,
			&entry.Longitude,
			&entry.Distance,
			&entry.SearchCount,
			&searchTime,
			&lastSearch,
		); err != nil {
			return nil, fmt.Errorf("error scanning location log: %w", err)
		}
		entry.SearchTime = parseTimestamp(searchTime)
		entry.LastSearch = parseTimestamp(lastSearch)
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return logs, nil
}

// parseTimestamp accepts both CURRENT_TIMESTAMP text and RFC 3339, the
// driver may hand back either.
func parseTimestamp(v string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}
