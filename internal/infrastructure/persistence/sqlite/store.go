package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"alertBot/internal/domain"
)

const settingCountersImported = "counters_imported"

type Store struct {
	db *sql.DB
}

var (
	_ domain.CounterRepository      = (*Store)(nil)
	_ domain.NotificationRepository = (*Store)(nil)
)

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: creating dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const countersTable = `
CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(countersTable); err != nil {
		return fmt.Errorf("sqlite: migrate counters: %w", err)
	}

	const settingsTable = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(settingsTable); err != nil {
		return fmt.Errorf("sqlite: migrate settings: %w", err)
	}

	const notificationsTable = `
CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	username TEXT,
	amount REAL,
	message TEXT,
	metadata TEXT,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at DESC);`

	if _, err := db.Exec(notificationsTable); err != nil {
		return fmt.Errorf("sqlite: migrate notifications: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) LoadCounters(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counters;`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: load counters: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			value int64
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("sqlite: scan counter: %w", err)
		}
		out[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: load counters rows: %w", err)
	}
	return out, nil
}

// SaveCounters escribe el snapshot completo en una sola transacción.
func (s *Store) SaveCounters(ctx context.Context, snapshot map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin save counters: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO counters (name, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at;
`
	now := time.Now().UTC()
	for name, value := range snapshot {
		if _, err := tx.ExecContext(ctx, stmt, name, value, now); err != nil {
			return fmt.Errorf("sqlite: save counter %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit counters: %w", err)
	}
	return nil
}

// ImportCounters carga un snapshot heredado una sola vez. Devuelve false si
// ya se había importado o la tabla ya tenía datos.
func (s *Store) ImportCounters(ctx context.Context, snapshot map[string]int64) (bool, error) {
	imported, err := s.getSetting(ctx, settingCountersImported)
	if err != nil {
		return false, err
	}
	if imported != "" {
		return false, nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM counters;`).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlite: count counters: %w", err)
	}
	if count == 0 && len(snapshot) > 0 {
		if err := s.SaveCounters(ctx, snapshot); err != nil {
			return false, err
		}
	}
	if err := s.setSetting(ctx, settingCountersImported, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return false, err
	}
	return count == 0 && len(snapshot) > 0, nil
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	var value sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ? LIMIT 1;`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: get setting %s: %w", key, err)
	}
	return value.String, nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	const stmt = `
INSERT INTO settings (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value = excluded.value,
	updated_at = excluded.updated_at;
`
	if _, err := s.db.ExecContext(ctx, stmt, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("sqlite: set setting %s: %w", key, err)
	}
	return nil
}

func (s *Store) SaveNotification(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	if notification == nil {
		return nil, fmt.Errorf("sqlite: notification nil")
	}

	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	const stmt = `
INSERT INTO notifications (type, username, amount, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?);
`

	res, err := s.db.ExecContext(
		ctx,
		stmt,
		string(notification.Type),
		notification.Username,
		notification.Amount,
		notification.Message,
		encodeMetadata(notification.Metadata),
		notification.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: save notification: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		notification.ID = id
	}

	return notification, nil
}

func (s *Store) ListNotifications(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
SELECT id, type, username, amount, message, metadata, created_at
FROM notifications
ORDER BY created_at DESC, id DESC
LIMIT ?;
`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			record            domain.Notification
			notificationType  sql.NullString
			username, message sql.NullString
			metadata          sql.NullString
			amount            sql.NullFloat64
			createdAt         sql.NullTime
		)
		if err := rows.Scan(&record.ID, &notificationType, &username, &amount, &message, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan notification: %w", err)
		}
		record.Type = domain.NotificationType(notificationType.String)
		record.Username = username.String
		record.Amount = amount.Float64
		record.Message = message.String
		record.Metadata = decodeMetadata(metadata.String)
		if createdAt.Valid {
			record.CreatedAt = createdAt.Time
		}
		out = append(out, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list notifications rows: %w", err)
	}
	return out, nil
}

func encodeMetadata(data map[string]string) interface{} {
	if len(data) == 0 {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	return string(raw)
}

func decodeMetadata(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}
