package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// SQLiteRecorder persists scan history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads don't block the morning write.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp          INTEGER NOT NULL,
			futures_trend      TEXT,
			futures_multiplier REAL,
			futures_rate       REAL,
			universe_size      INTEGER,
			qualified          INTEGER,
			skipped_data       INTEGER,
			skipped_fetch      INTEGER,
			filtered           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_ts ON scan_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id           INTEGER NOT NULL,
			code             TEXT NOT NULL,
			name             TEXT,
			relative_volume  REAL,
			ma5              REAL,
			ma5_deviation    REAL,
			supply_score     INTEGER,
			target_price     REAL,
			target_available INTEGER,
			verdict          TEXT,
			FOREIGN KEY(run_id) REFERENCES scan_runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rec_run ON recommendations(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan writes one run summary plus its recommendation rows.
func (r *SQLiteRecorder) RecordScan(scan *ScanRecord, recs []model.Recommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.Exec(`INSERT INTO scan_runs
		(timestamp, futures_trend, futures_multiplier, futures_rate,
		 universe_size, qualified, skipped_data, skipped_fetch, filtered)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), string(scan.Futures.Trend), scan.Futures.Multiplier, scan.Futures.Retracement,
		scan.UniverseSize, scan.Qualified,
		scan.Skips.InsufficientData, scan.Skips.FetchErrors, scan.Skips.Filtered,
	)
	if err != nil {
		return fmt.Errorf("insert scan run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("scan run id: %w", err)
	}

	for _, rec := range recs {
		available := 0
		if rec.TargetAvailable {
			available = 1
		}
		if _, err := r.db.Exec(`INSERT INTO recommendations
			(run_id, code, name, relative_volume, ma5, ma5_deviation,
			 supply_score, target_price, target_available, verdict)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			runID, rec.Code, rec.Name, rec.RelativeVolume, rec.MA5, rec.MA5Deviation,
			rec.SupplyScore, rec.TargetPrice, available, string(rec.Verdict),
		); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", rec.Code, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
