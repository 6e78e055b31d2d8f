package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// EventRow represents an event stored in Postgres.
type EventRow struct {
	EventID   int64                  `json:"event_id"`
	Timestamp time.Time              `json:"ts"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   *string                `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	EngineID  string                 `json:"engine_id"`
	SessionID *string                `json:"session_id,omitempty"`
}

// SettlementRow is one finished session.
type SettlementRow struct {
	SettlementID int64     `json:"settlement_id"`
	Timestamp    time.Time `json:"ts"`
	EngineID     string    `json:"engine_id"`
	SessionID    string    `json:"session_id"`
	Pack         string    `json:"pack"`
	Level        int       `json:"level"`
	Won          bool      `json:"won"`
	TimeLeft     int       `json:"time_left"`
	TotalTime    int       `json:"total_time"`
	Strikes      int       `json:"strikes"`
}

// Options selects the database. Empty fields take the libpq defaults used
// by FromEnv.
type Options struct {
	Host     string
	Port     string
	User     string
	Database string
	Password string
}

// FromEnv reads PGHOST, PGPORT, PGUSER, PGDATABASE and PGPASSWORD.
func FromEnv() Options {
	return Options{
		Host:     getEnv("PGHOST", "127.0.0.1"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "defusal"),
		Database: getEnv("PGDATABASE", "defusal"),
		Password: os.Getenv("PGPASSWORD"),
	}
}

func (o Options) dsn() string {
	parts := []string{
		"host=" + o.Host,
		"port=" + o.Port,
		"user=" + o.User,
	}
	if o.Password != "" {
		parts = append(parts, "password="+o.Password)
	}
	parts = append(parts, "dbname="+o.Database, "sslmode=disable")
	return strings.Join(parts, " ")
}

// Client manages the Postgres connection for events and settlements.
type Client struct {
	db       *sql.DB
	engineID string
}

// New connects and creates the tables if needed.
func New(ctx context.Context, engineID string, opts Options) (*Client, error) {
	db, err := sql.Open("postgres", opts.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	client := &Client{
		db:       db,
		engineID: engineID,
	}

	if err := client.createTables(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return client, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func (c *Client) createTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS events (
			event_id   BIGSERIAL PRIMARY KEY,
			ts         TIMESTAMPTZ NOT NULL,
			level      TEXT NOT NULL,
			event      TEXT NOT NULL,
			msg        TEXT,
			fields     JSONB,
			engine_id  TEXT NOT NULL,
			session_id TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_events_session_id ON events(session_id);

		CREATE TABLE IF NOT EXISTS settlements (
			settlement_id BIGSERIAL PRIMARY KEY,
			ts            TIMESTAMPTZ NOT NULL,
			engine_id     TEXT NOT NULL,
			session_id    TEXT NOT NULL UNIQUE,
			pack          TEXT NOT NULL,
			level         INTEGER NOT NULL,
			won           BOOLEAN NOT NULL,
			time_left     INTEGER NOT NULL,
			total_time    INTEGER NOT NULL,
			strikes       INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_settlements_ts ON settlements(ts DESC);
	`
	_, err := c.db.ExecContext(ctx, query)
	return err
}

// Append inserts an event into the database.
func (c *Client) Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error {
	var fieldsJSON []byte
	var err error
	if fields != nil {
		fieldsJSON, err = json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("failed to marshal fields: %w", err)
		}
	}

	query := `
		INSERT INTO events (ts, level, event, msg, fields, engine_id, session_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = c.db.Exec(query, ts, level, event, nullable(msg), fieldsJSON, c.engineID, nullable(sessionID))
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	return min(limit, 10000)
}

// Query returns the last N events in descending order by timestamp.
func (c *Client) Query(ctx context.Context, limit int) ([]EventRow, error) {
	query := `
		SELECT event_id, ts, level, event, msg, fields, engine_id, session_id
		FROM events
		WHERE engine_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, c.engineID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRow
	for rows.Next() {
		var e EventRow
		var fieldsJSON []byte
		var msg, sessionID sql.NullString

		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Level, &e.Event, &msg, &fieldsJSON, &e.EngineID, &sessionID); err != nil {
			return nil, err
		}

		if msg.Valid {
			e.Message = &msg.String
		}
		if sessionID.Valid {
			e.SessionID = &sessionID.String
		}
		if len(fieldsJSON) > 0 {
			if err := json.Unmarshal(fieldsJSON, &e.Fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// RecordSettlement stores a finished session. A session is recorded once;
// repeats are ignored.
func (c *Client) RecordSettlement(ctx context.Context, s SettlementRow) error {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now().UTC()
	}
	query := `
		INSERT INTO settlements (ts, engine_id, session_id, pack, level, won, time_left, total_time, strikes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING
	`
	_, err := c.db.ExecContext(ctx, query, s.Timestamp, c.engineID, s.SessionID, s.Pack, s.Level, s.Won, s.TimeLeft, s.TotalTime, s.Strikes)
	if err != nil {
		return fmt.Errorf("record settlement %s: %w", s.SessionID, err)
	}
	return nil
}

// RecentSettlements returns the latest settlements, newest first.
func (c *Client) RecentSettlements(ctx context.Context, limit int) ([]SettlementRow, error) {
	query := `
		SELECT settlement_id, ts, engine_id, session_id, pack, level, won, time_left, total_time, strikes
		FROM settlements
		WHERE engine_id = $1
		ORDER BY ts DESC
		LIMIT $2
	`
	rows, err := c.db.QueryContext(ctx, query, c.engineID, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SettlementRow
	for rows.Next() {
		var s SettlementRow
		if err := rows.Scan(&s.SettlementID, &s.Timestamp, &s.EngineID, &s.SessionID, &s.Pack, &s.Level, &s.Won, &s.TimeLeft, &s.TotalTime, &s.Strikes); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
