package margin

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/watarai0202-netizen/snipe-stock/internal/model"
)

// Store persists the externally synced margin dataset in a SQLite database.
// It is the only state that survives a restart.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenStore opens (or creates) the margin database and runs migrations.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] margin store opened: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS margin_records (
		code       TEXT PRIMARY KEY,
		buy_delta  INTEGER NOT NULL DEFAULT 0,
		sell_delta INTEGER NOT NULL DEFAULT 0,
		spot_delta INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create margin_records: %w", err)
	}
	return nil
}

// Load returns the full margin table.
func (s *Store) Load() ([]model.MarginRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT code, buy_delta, sell_delta, spot_delta FROM margin_records ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query margin records: %w", err)
	}
	defer rows.Close()

	var records []model.MarginRecord
	for rows.Next() {
		var r model.MarginRecord
		if err := rows.Scan(&r.Code, &r.MarginBuyDelta, &r.MarginSellDelta, &r.SpotDelta); err != nil {
			return nil, fmt.Errorf("scan margin record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save upserts the given records into the margin table. Rows absent from the
// payload are left untouched.
func (s *Store) Save(records []model.MarginRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	now := time.Now().Unix()
	for _, r := range records {
		if _, err := tx.Exec(`INSERT INTO margin_records (code, buy_delta, sell_delta, spot_delta, updated_at)
			VALUES (?,?,?,?,?)
			ON CONFLICT(code) DO UPDATE SET
				buy_delta=excluded.buy_delta,
				sell_delta=excluded.sell_delta,
				spot_delta=excluded.spot_delta,
				updated_at=excluded.updated_at`,
			r.Code, r.MarginBuyDelta, r.MarginSellDelta, r.SpotDelta, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("upsert %s: %w", r.Code, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
