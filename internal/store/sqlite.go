package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"quantsignal/internal/market"
)

// SQLiteBarStore persists raw bars so restarts do not re-fetch history.
type SQLiteBarStore struct {
	db *sql.DB
}

// NewSQLiteBarStore opens (or creates) the database and runs migrations.
func NewSQLiteBarStore(path string) (*SQLiteBarStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLiteBarStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteBarStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS bars (
		symbol     TEXT    NOT NULL,
		interval   TEXT    NOT NULL,
		open_time  INTEGER NOT NULL,
		close_time INTEGER NOT NULL,
		open       REAL NOT NULL,
		high       REAL NOT NULL,
		low        REAL NOT NULL,
		close      REAL NOT NULL,
		volume     REAL NOT NULL,
		PRIMARY KEY (symbol, interval, open_time)
	)`)
	return err
}

// Put upserts bars; max trims older rows beyond the retention count.
func (s *SQLiteBarStore) Put(ctx context.Context, symbol, interval string, bars []market.Bar, max int) error {
	if symbol == "" || interval == "" {
		return errors.New("symbol and interval are required")
	}
	if len(bars) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bars
		(symbol, interval, open_time, close_time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, interval, open_time) DO UPDATE SET
		close_time=excluded.close_time, open=excluded.open, high=excluded.high,
		low=excluded.low, close=excluded.close, volume=excluded.volume`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, interval, b.OpenTime, b.CloseTime, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return err
		}
	}
	if max > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bars
			WHERE symbol = ? AND interval = ? AND open_time NOT IN (
				SELECT open_time FROM bars WHERE symbol = ? AND interval = ?
				ORDER BY open_time DESC LIMIT ?)`,
			symbol, interval, symbol, interval, max); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns the stored series in ascending time order.
func (s *SQLiteBarStore) Get(ctx context.Context, symbol, interval string) ([]market.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT open_time, close_time, open, high, low, close, volume
		FROM bars WHERE symbol = ? AND interval = ? ORDER BY open_time ASC`, symbol, interval)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []market.Bar
	for rows.Next() {
		var b market.Bar
		if err := rows.Scan(&b.OpenTime, &b.CloseTime, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteBarStore) Close() error { return s.db.Close() }
