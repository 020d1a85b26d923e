package gasdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/patrickmn/go-cache"
)

// TokenKey is the settings key the session token is persisted under.
const TokenKey = "tokenAuthentication"

// Token returns the persisted session token, or "" when there is none.
func (s *Storage) Token(ctx context.Context) (string, error) {
	if cached, found := s.cache.Get(TokenKey); found {
		return cached.(string), nil
	}

	var token string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", TokenKey).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading token: %w", err)
	}

	s.cache.Set(TokenKey, token, cache.NoExpiration)
	return token, nil
}

// SetToken persists token, replacing any previous one. An empty token
// clears the slot.
func (s *Storage) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, TokenKey, token)
	if err != nil {
		s.cache.Delete(TokenKey)
		return fmt.Errorf("error saving token: %w", err)
	}

	s.cache.Set(TokenKey, token, cache.NoExpiration)
	return nil
}

// ClearToken removes the persisted token.
func (s *Storage) ClearToken(ctx context.Context) error {
	s.cache.Delete(TokenKey)
	if _, err := s.db.ExecContext(ctx, "DELETE FROM settings WHERE key = ?", TokenKey); err != nil {
		return fmt.Errorf("error clearing token: %w", err)
	}
	return nil
}
