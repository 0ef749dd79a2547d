// Package tracker builds a local BSR history database from daily snapshots
// and derives trend metrics from it.
package tracker

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrInsufficientData is returned when an ASIN has too few snapshots for a
// meaningful trend.
var ErrInsufficientData = errors.New("tracker: insufficient snapshot data")

// Snapshot is one daily observation of a product's rank and price.
type Snapshot struct {
	ASIN      string    `json:"asin"`
	BSR       *int      `json:"bsr"`
	Price     *float64  `json:"price"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats summarizes the tracking database.
type Stats struct {
	TrackedASINs   int
	TotalSnapshots int
	OldestData     time.Time
	NewestData     time.Time
	DatabasePath   string
}

// Store persists snapshots in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS bsr_snapshots (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	asin TEXT NOT NULL,
	bsr INTEGER,
	price REAL,
	category TEXT,
	timestamp DATETIME NOT NULL,
	UNIQUE(asin, timestamp)
);
CREATE INDEX IF NOT EXISTS idx_asin_timestamp ON bsr_snapshots(asin, timestamp);
CREATE TABLE IF NOT EXISTS products (
	asin TEXT PRIMARY KEY,
	title TEXT,
	brand TEXT,
	category TEXT,
	first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
	last_updated DATETIME NOT NULL
);
`

// Open opens (creating if needed) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing snapshot schema: %w", err)
	}
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// AddSnapshot records one observation. A duplicate (asin, timestamp) pair
// replaces the earlier row, last write wins.
func (s *Store) AddSnapshot(snap Snapshot) error {
	ts := snap.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO bsr_snapshots (asin, bsr, price, category, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		snap.ASIN, nullInt(snap.BSR), nullFloat(snap.Price), snap.Category,
		ts.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("adding snapshot for %s: %w", snap.ASIN, err)
	}
	return nil
}

// AddSnapshots records a batch inside one transaction and returns the number
// of rows written.
func (s *Store) AddSnapshots(snaps []Snapshot) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning snapshot batch: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bsr_snapshots (asin, bsr, price, category, timestamp)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing snapshot batch: %w", err)
	}
	defer stmt.Close()

	ts := s.now().UTC().Format(time.RFC3339)
	count := 0
	for _, snap := range snaps {
		when := ts
		if !snap.Timestamp.IsZero() {
			when = snap.Timestamp.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.Exec(snap.ASIN, nullInt(snap.BSR), nullFloat(snap.Price),
			snap.Category, when); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("adding snapshot for %s: %w", snap.ASIN, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing snapshot batch: %w", err)
	}
	return count, nil
}

// UpsertProduct records product metadata alongside the snapshot history.
func (s *Store) UpsertProduct(asin, title, brand, category string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO products (asin, title, brand, category, last_updated)
		VALUES (?, ?, ?, ?, ?)`,
		asin, title, brand, category, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting product %s: %w", asin, err)
	}
	return nil
}

// Snapshots returns an ASIN's observations, newest first.
func (s *Store) Snapshots(asin string) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT asin, bsr, price, category, timestamp FROM bsr_snapshots
		WHERE asin = ? ORDER BY timestamp DESC`, asin)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots for %s: %w", asin, err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// TrackedASINs lists every ASIN with at least one snapshot.
func (s *Store) TrackedASINs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT asin FROM bsr_snapshots ORDER BY asin`)
	if err != nil {
		return nil, fmt.Errorf("listing tracked asins: %w", err)
	}
	defer rows.Close()

	var asins []string
	for rows.Next() {
		var asin string
		if err := rows.Scan(&asin); err != nil {
			return nil, fmt.Errorf("scanning tracked asin: %w", err)
		}
		asins = append(asins, asin)
	}
	return asins, rows.Err()
}

// Stats reports database-wide tracking counters.
func (s *Store) Stats() (Stats, error) {
	st := Stats{DatabasePath: s.path}

	row := s.db.QueryRow(`
		SELECT COUNT(DISTINCT asin), COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM bsr_snapshots`)
	var oldest, newest sql.NullString
	if err := row.Scan(&st.TrackedASINs, &st.TotalSnapshots, &oldest, &newest); err != nil {
		return Stats{}, fmt.Errorf("collecting tracker stats: %w", err)
	}
	if oldest.Valid {
		st.OldestData, _ = time.Parse(time.RFC3339, oldest.String)
	}
	if newest.Valid {
		st.NewestData, _ = time.Parse(time.RFC3339, newest.String)
	}
	return st, nil
}

// Cleanup deletes snapshots older than the retention window and returns the
// number removed.
func (s *Store) Cleanup(retainDays int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -retainDays).UTC().Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM bsr_snapshots WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old snapshots: %w", err)
	}
	return res.RowsAffected()
}

// ExportJSON serializes tracking data as JSON. An empty asin exports the
// whole database.
func (s *Store) ExportJSON(asin string) ([]byte, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if asin != "" {
		rows, err = s.db.Query(`
			SELECT asin, bsr, price, category, timestamp FROM bsr_snapshots
			WHERE asin = ? ORDER BY timestamp DESC`, asin)
	} else {
		rows, err = s.db.Query(`
			SELECT asin, bsr, price, category, timestamp FROM bsr_snapshots
			ORDER BY asin, timestamp DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("exporting snapshots: %w", err)
	}
	defer rows.Close()

	snaps, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if snaps == nil {
		snaps = []Snapshot{}
	}
	return json.MarshalIndent(snaps, "", "  ")
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	var snaps []Snapshot
	for rows.Next() {
		var (
			snap     Snapshot
			bsr      sql.NullInt64
			price    sql.NullFloat64
			category sql.NullString
			ts       string
		)
		if err := rows.Scan(&snap.ASIN, &bsr, &price, &category, &ts); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if bsr.Valid {
			v := int(bsr.Int64)
			snap.BSR = &v
		}
		if price.Valid {
			v := price.Float64
			snap.Price = &v
		}
		snap.Category = category.String
		when, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing snapshot timestamp %q: %w", ts, err)
		}
		snap.Timestamp = when
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
