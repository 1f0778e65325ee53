// Package db records the gesture pipeline's history: every published
// classification and every notification delivered over the link. The log
// lives in a local sqlite file and is strictly an observer of the pipeline;
// a write failure never stalls a loop.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite handle.
type DB struct {
	*sql.DB
}

// New opens (creating if needed) the event database at path. Schema setup
// is separate: call MigrateUp before recording.
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Busy timeout covers the tools reading while the daemon writes.
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to set busy_timeout: %w", err)
	}
	return &DB{sqlDB}, nil
}

// GestureEvent is one recorded classification publish.
type GestureEvent struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Sequence   uint64    `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
}

// NotificationEvent is one recorded link delivery.
type NotificationEvent struct {
	ID         int64     `json:"id"`
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Sequence   uint64    `json:"sequence"`
	PeerCount  int       `json:"peer_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// RecordGesture appends a published classification to the log.
func (db *DB) RecordGesture(label string, confidence float64, sequence uint64) error {
	_, err := db.Exec(
		`INSERT INTO gesture_events (label, confidence, sequence, timestamp) VALUES (?, ?, ?, ?)`,
		label, confidence, int64(sequence), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record gesture: %w", err)
	}
	return nil
}

// RecordNotification appends a link delivery to the log.
func (db *DB) RecordNotification(label string, confidence float64, sequence uint64, peerCount int) error {
	_, err := db.Exec(
		`INSERT INTO link_notifications (label, confidence, sequence, peer_count, timestamp) VALUES (?, ?, ?, ?, ?)`,
		label, confidence, int64(sequence), peerCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// RecentGestures returns the newest recorded classifications, newest first.
func (db *DB) RecentGestures(limit int) ([]GestureEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, label, confidence, sequence, timestamp
		 FROM gesture_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query gestures: %w", err)
	}
	defer rows.Close()

	var events []GestureEvent
	for rows.Next() {
		var e GestureEvent
		var seq int64
		if err := rows.Scan(&e.ID, &e.Label, &e.Confidence, &seq, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan gesture row: %w", err)
		}
		e.Sequence = uint64(seq)
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecentNotifications returns the newest link deliveries, newest first.
func (db *DB) RecentNotifications(limit int) ([]NotificationEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT id, label, confidence, sequence, peer_count, timestamp
		 FROM link_notifications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var events []NotificationEvent
	for rows.Next() {
		var e NotificationEvent
		var seq int64
		if err := rows.Scan(&e.ID, &e.Label, &e.Confidence, &seq, &e.PeerCount, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		e.Sequence = uint64(seq)
		events = append(events, e)
	}
	return events, rows.Err()
}
