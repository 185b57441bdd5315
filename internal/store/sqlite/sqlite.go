// Package sqlite is a Store implementation backed by a local SQLite
// message archive.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"ostk/internal/adsb"
	"ostk/internal/store"
)

// Store reads raw messages and state vectors from a SQLite database.
type Store struct {
	db  *sql.DB
	log *logrus.Logger
}

// New opens (creating if necessary) the archive at path.
func New(path string, log *logrus.Logger) (*Store, error) {
	log.WithField("path", path).Info("Opening SQLite message archive")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", store.ErrStore, path, err)
	}

	// SQLite supports a single writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", store.ErrStore, pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS raw_messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			icao24 TEXT NOT NULL,
			ts REAL NOT NULL,
			payload TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: create raw_messages: %v", store.ErrStore, err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_raw_messages_icao_ts
		ON raw_messages (icao24, ts)
	`)
	if err != nil {
		return fmt.Errorf("%w: index raw_messages: %v", store.ErrStore, err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS state_vectors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts REAL NOT NULL,
			icao24 TEXT NOT NULL,
			callsign TEXT,
			lat REAL,
			lon REAL,
			baroaltitude REAL,
			velocity REAL,
			heading REAL,
			vertrate REAL,
			onground INTEGER DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("%w: create state_vectors: %v", store.ErrStore, err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_state_vectors_icao_ts
		ON state_vectors (icao24, ts)
	`)
	if err != nil {
		return fmt.Errorf("%w: index state_vectors: %v", store.ErrStore, err)
	}

	return nil
}

// RawMessages returns the stored frames for one aircraft in [start, stop],
// ordered by timestamp.
func (s *Store) RawMessages(ctx context.Context, icao24 string, start, stop time.Time) ([]adsb.RawMessage, error) {
	icao24 = strings.ToLower(icao24)

	rows, err := s.db.QueryContext(ctx, `
		SELECT icao24, ts, payload FROM raw_messages
		WHERE icao24 = ? AND ts >= ? AND ts <= ?
		ORDER BY ts, id
	`, icao24, toUnix(start), toUnix(stop))
	if err != nil {
		return nil, fmt.Errorf("%w: query raw_messages: %v", store.ErrStore, err)
	}
	defer rows.Close()

	var msgs []adsb.RawMessage
	for rows.Next() {
		var (
			addr   string
			ts     float64
			rawHex string
		)
		if err := rows.Scan(&addr, &ts, &rawHex); err != nil {
			return nil, fmt.Errorf("%w: scan raw_messages: %v", store.ErrStore, err)
		}

		payload, err := hex.DecodeString(rawHex)
		if err != nil {
			// A garbled row is a stored corruption, not a query
			// failure; the classifier will drop it anyway.
			s.log.WithField("icao24", addr).Debug("Undecodable payload hex in archive")
			payload = nil
		}

		msgs = append(msgs, adsb.RawMessage{
			ICAO24:    addr,
			Timestamp: fromUnix(ts),
			Payload:   payload,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate raw_messages: %v", store.ErrStore, err)
	}

	return msgs, nil
}

// StateVectors returns precomputed state vectors matching the filter,
// ordered by timestamp.
func (s *Store) StateVectors(ctx context.Context, f store.StateVectorFilter) ([]store.StateVector, error) {
	var (
		where []string
		args  []interface{}
	)

	if f.ICAO24 != "" {
		where = append(where, "icao24 = ?")
		args = append(args, strings.ToLower(f.ICAO24))
	}
	if !f.Start.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, toUnix(f.Start))
	}
	if !f.Stop.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, toUnix(f.Stop))
	}
	if f.Callsign != "" {
		where = append(where, "callsign = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(f.Callsign)))
	}
	if f.Bounds != nil {
		where = append(where, "lon >= ? AND lat >= ? AND lon <= ? AND lat <= ?")
		args = append(args, f.Bounds.West, f.Bounds.South, f.Bounds.East, f.Bounds.North)
	}

	query := `SELECT ts, icao24, callsign, lat, lon, baroaltitude, velocity, heading, vertrate, onground FROM state_vectors`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY ts, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query state_vectors: %v", store.ErrStore, err)
	}
	defer rows.Close()

	var vectors []store.StateVector
	for rows.Next() {
		var (
			ts       float64
			sv       store.StateVector
			callsign sql.NullString
			onGround int
		)
		if err := rows.Scan(&ts, &sv.ICAO24, &callsign, &sv.Lat, &sv.Lon,
			&sv.BaroAltitude, &sv.Velocity, &sv.Heading, &sv.VertRate, &onGround); err != nil {
			return nil, fmt.Errorf("%w: scan state_vectors: %v", store.ErrStore, err)
		}
		sv.Time = fromUnix(ts)
		sv.Callsign = callsign.String
		sv.OnGround = onGround != 0
		vectors = append(vectors, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate state_vectors: %v", store.ErrStore, err)
	}

	return vectors, nil
}

// InsertRawMessages loads frames into the archive, typically from a capture
// import. Payloads are stored hex-encoded.
func (s *Store) InsertRawMessages(ctx context.Context, msgs []adsb.RawMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", store.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO raw_messages (icao24, ts, payload) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", store.ErrStore, err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		_, err := stmt.ExecContext(ctx,
			strings.ToLower(m.ICAO24), toUnix(m.Timestamp), hex.EncodeToString(m.Payload))
		if err != nil {
			return fmt.Errorf("%w: insert raw_messages: %v", store.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", store.ErrStore, err)
	}
	return nil
}

// InsertStateVectors loads precomputed state vectors into the archive.
func (s *Store) InsertStateVectors(ctx context.Context, vectors []store.StateVector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", store.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO state_vectors
		(ts, icao24, callsign, lat, lon, baroaltitude, velocity, heading, vertrate, onground)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", store.ErrStore, err)
	}
	defer stmt.Close()

	for _, sv := range vectors {
		onGround := 0
		if sv.OnGround {
			onGround = 1
		}
		_, err := stmt.ExecContext(ctx,
			toUnix(sv.Time), strings.ToLower(sv.ICAO24), sv.Callsign,
			sv.Lat, sv.Lon, sv.BaroAltitude, sv.Velocity, sv.Heading, sv.VertRate, onGround)
		if err != nil {
			return fmt.Errorf("%w: insert state_vectors: %v", store.ErrStore, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", store.ErrStore, err)
	}
	return nil
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromUnix(ts float64) time.Time {
	return time.Unix(0, int64(ts*float64(time.Second))).UTC()
}
