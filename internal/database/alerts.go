package database

import (
	"database/sql"
	"fmt"

	"github.com/pseudonimous/discord-static-price-ticker/internal/alert"
	"github.com/pseudonimous/discord-static-price-ticker/internal/types"
)

// AddPersonal inserts a personal price alert. The duplicate and limit checks
// run in the same transaction as the insert, so concurrent command handlers
// cannot push an owner past the cap.
func (s *Store) AddPersonal(a types.PersonalAlert) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM ppa WHERE invoker_id = ?`, a.InvokerID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count personal alerts: %w", err)
	}
	if count >= s.maxPPA {
		return alert.ErrLimitExceeded
	}

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM ppa WHERE invoker_id = ? AND price = ?`, a.InvokerID, a.Price).Scan(&exists)
	if err == nil {
		return alert.ErrDuplicateThreshold
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for duplicate alert: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO ppa (invoker_id, price, timestamp) VALUES (?, ?, ?)`,
		a.InvokerID, a.Price, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert personal alert: %w", err)
	}
	return tx.Commit()
}

// RemovePersonal deletes the owner's alert at the given price.
func (s *Store) RemovePersonal(invokerID string, price float64) error {
	res, err := s.db.Exec(`DELETE FROM ppa WHERE invoker_id = ? AND price = ?`, invokerID, price)
	if err != nil {
		return fmt.Errorf("failed to delete personal alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

// ListPersonal fetches all personal alerts for one owner.
func (s *Store) ListPersonal(invokerID string) ([]types.PersonalAlert, error) {
	rows, err := s.db.Query(`SELECT invoker_id, price, timestamp FROM ppa WHERE invoker_id = ?`, invokerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query personal alerts: %w", err)
	}
	defer rows.Close()
	return scanPersonal(rows)
}

// AllPersonal fetches every personal alert; used once per poll cycle.
func (s *Store) AllPersonal() ([]types.PersonalAlert, error) {
	rows, err := s.db.Query(`SELECT invoker_id, price, timestamp FROM ppa`)
	if err != nil {
		return nil, fmt.Errorf("failed to query personal alerts: %w", err)
	}
	defer rows.Close()
	return scanPersonal(rows)
}

func scanPersonal(rows *sql.Rows) ([]types.PersonalAlert, error) {
	var alerts []types.PersonalAlert
	for rows.Next() {
		var a types.PersonalAlert
		if err := rows.Scan(&a.InvokerID, &a.Price, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// AddChannel inserts a channel price alert; uniqueness and the cap are scoped
// to the channel, not the invoking user.
func (s *Store) AddChannel(a types.ChannelAlert) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM cpa WHERE channel_id = ?`, a.ChannelID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count channel alerts: %w", err)
	}
	if count >= s.maxCPA {
		return alert.ErrLimitExceeded
	}

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM cpa WHERE channel_id = ? AND price = ?`, a.ChannelID, a.Price).Scan(&exists)
	if err == nil {
		return alert.ErrDuplicateThreshold
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check for duplicate alert: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO cpa (channel_id, invoker_id, price, timestamp) VALUES (?, ?, ?, ?)`,
		a.ChannelID, a.InvokerID, a.Price, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert channel alert: %w", err)
	}
	return tx.Commit()
}

// RemoveChannel deletes the channel's alert at the given price.
func (s *Store) RemoveChannel(channelID string, price float64) error {
	res, err := s.db.Exec(`DELETE FROM cpa WHERE channel_id = ? AND price = ?`, channelID, price)
	if err != nil {
		return fmt.Errorf("failed to delete channel alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

// ListChannel fetches all alerts set for one channel.
func (s *Store) ListChannel(channelID string) ([]types.ChannelAlert, error) {
	rows, err := s.db.Query(`SELECT channel_id, invoker_id, price, timestamp FROM cpa WHERE channel_id = ?`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel alerts: %w", err)
	}
	defer rows.Close()
	return scanChannel(rows)
}

// AllChannel fetches every channel alert; used once per poll cycle.
func (s *Store) AllChannel() ([]types.ChannelAlert, error) {
	rows, err := s.db.Query(`SELECT channel_id, invoker_id, price, timestamp FROM cpa`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel alerts: %w", err)
	}
	defer rows.Close()
	return scanChannel(rows)
}

func scanChannel(rows *sql.Rows) ([]types.ChannelAlert, error) {
	var alerts []types.ChannelAlert
	for rows.Next() {
		var a types.ChannelAlert
		if err := rows.Scan(&a.ChannelID, &a.InvokerID, &a.Price, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// CountPersonal returns the number of alerts held by one user.
func (s *Store) CountPersonal(invokerID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ppa WHERE invoker_id = ?`, invokerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count personal alerts: %w", err)
	}
	return count, nil
}

// CountChannel returns the number of alerts set in one channel.
func (s *Store) CountChannel(channelID string) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM cpa WHERE channel_id = ?`, channelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count channel alerts: %w", err)
	}
	return count, nil
}
