package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// IncrementPrevention bumps the durable per-guild prevention counter and
// returns the new total. The engine keeps its own in-memory counter; this one
// backs the stats command across restarts.
func (s *Store) IncrementPrevention(ctx context.Context, guildID string) (int, error) {
	now := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int
	row := tx.QueryRowContext(ctx, `SELECT count FROM prevention_counts WHERE guild_id = ?`, guildID)
	scanErr := row.Scan(&count)
	if scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows) {
		err = scanErr
		return 0, err
	}

	count++
	_, err = tx.ExecContext(ctx, `
		INSERT INTO prevention_counts (guild_id, count, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at
	`, guildID, count, now.Unix())
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) GetPreventionCount(ctx context.Context, guildID string) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT count FROM prevention_counts WHERE guild_id = ?`, guildID)
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
