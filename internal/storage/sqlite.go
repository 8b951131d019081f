package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ryzom/shardstatus/internal/shard"
)

type sqliteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStorage{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS shard_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			server TEXT NOT NULL,
			state TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_shard_history_lookup
			ON shard_history(server, timestamp);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *sqliteStorage) Save(server string, state shard.State, timestamp time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO shard_history (server, state, timestamp) VALUES (?, ?, ?)`,
		server, string(state), timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return nil
}

func (s *sqliteStorage) GetHistory(server string, from, to time.Time) (*ServerHistory, error) {
	rows, err := s.db.Query(
		`SELECT state, timestamp FROM shard_history
		 WHERE server = ? AND timestamp >= ? AND timestamp <= ?
		 ORDER BY timestamp ASC, id ASC`,
		server, from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows, server)
}

func (s *sqliteStorage) GetLatest(server string, count int) (*ServerHistory, error) {
	rows, err := s.db.Query(
		`SELECT state, timestamp FROM (
			SELECT id, state, timestamp FROM shard_history
			WHERE server = ?
			ORDER BY timestamp DESC, id DESC
			LIMIT ?
		) ORDER BY timestamp ASC, id ASC`,
		server, count,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return scanPoints(rows, server)
}

func scanPoints(rows *sql.Rows, server string) (*ServerHistory, error) {
	var points []DataPoint
	for rows.Next() {
		var state string
		var timestamp time.Time
		if err := rows.Scan(&state, &timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		points = append(points, DataPoint{
			Timestamp: timestamp,
			State:     shard.State(state),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return &ServerHistory{Server: server, Points: points}, nil
}

func (s *sqliteStorage) Observations(server string, from, to time.Time) ([]Observation, error) {
	query := `SELECT server, state, timestamp FROM shard_history
		WHERE timestamp >= ? AND timestamp <= ?`
	args := []any{from.UTC(), to.UTC()}
	if server != "" {
		query += ` AND server = ?`
		args = append(args, server)
	}
	query += ` ORDER BY timestamp ASC, server ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []Observation
	for rows.Next() {
		var o Observation
		var state string
		if err := rows.Scan(&o.Server, &state, &o.Timestamp); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		o.State = shard.State(state)
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return result, nil
}

func (s *sqliteStorage) Cleanup(olderThan time.Time) error {
	_, err := s.db.Exec(`DELETE FROM shard_history WHERE timestamp < ?`, olderThan.UTC())
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return nil
}

func (s *sqliteStorage) Close() error {
	return s.db.Close()
}
