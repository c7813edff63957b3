// Package persistence provides SQLite-based region state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mkessler/gridtown/internal/region"
)

// DB wraps a SQLite connection for region state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		grid_x INTEGER NOT NULL,
		grid_y INTEGER NOT NULL,
		active INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		tiles_json TEXT NOT NULL,
		budget_json TEXT NOT NULL,
		stock_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_offers (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		offer_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_deals (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		deal_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		project_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS region_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_cycle ON events(cycle);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_cities_pos ON cities(grid_x, grid_y);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveRegion writes the full region snapshot in one transaction. Existing
// rows are replaced wholesale so the tables always reflect one snapshot.
func (db *DB) SaveRegion(st region.State) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"cities", "trade_offers", "trade_deals", "projects"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for _, c := range st.Cities {
		tilesJSON, _ := json.Marshal(c.Tiles)
		budgetJSON, _ := json.Marshal(c.Budget)
		stockJSON, _ := json.Marshal(c.Stock)

		active := 0
		if c.Active {
			active = 1
		}
		_, err := tx.Exec(`INSERT INTO cities
			(id, name, grid_x, grid_y, active, width, height, tiles_json, budget_json, stock_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.GridX, c.GridY, active, c.Width, c.Height,
			string(tilesJSON), string(budgetJSON), string(stockJSON),
		)
		if err != nil {
			return fmt.Errorf("insert city %s: %w", c.ID, err)
		}
	}

	for i, o := range st.Offers {
		raw, _ := json.Marshal(o)
		if _, err := tx.Exec(
			"INSERT INTO trade_offers (id, seq, offer_json) VALUES (?, ?, ?)",
			o.ID, i, string(raw),
		); err != nil {
			return fmt.Errorf("insert offer %s: %w", o.ID, err)
		}
	}
	for i, d := range st.Deals {
		raw, _ := json.Marshal(d)
		if _, err := tx.Exec(
			"INSERT INTO trade_deals (id, seq, deal_json) VALUES (?, ?, ?)",
			d.ID, i, string(raw),
		); err != nil {
			return fmt.Errorf("insert deal %s: %w", d.ID, err)
		}
	}
	for i, p := range st.Projects {
		raw, _ := json.Marshal(p)
		if _, err := tx.Exec(
			"INSERT INTO projects (id, seq, project_json) VALUES (?, ?, ?)",
			p.ID, i, string(raw),
		); err != nil {
			return fmt.Errorf("insert project %s: %w", p.ID, err)
		}
	}

	benefitsJSON, _ := json.Marshal(st.Benefits)
	meta := map[string]string{
		"region_name": st.Name,
		"last_cycle":  fmt.Sprintf("%d", st.Cycle),
		"benefits":    string(benefitsJSON),
	}
	for k, v := range meta {
		if _, err := tx.Exec(
			"INSERT OR REPLACE INTO region_meta (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// HasRegion reports whether a saved region exists.
func (db *DB) HasRegion() bool {
	var count int
	if err := db.conn.Get(&count, "SELECT COUNT(*) FROM cities"); err != nil {
		return false
	}
	return count > 0
}

// LoadRegion reads the saved region snapshot.
func (db *DB) LoadRegion() (region.State, error) {
	var st region.State

	type cityRow struct {
		ID         string `db:"id"`
		Name       string `db:"name"`
		GridX      int    `db:"grid_x"`
		GridY      int    `db:"grid_y"`
		Active     int    `db:"active"`
		Width      int    `db:"width"`
		Height     int    `db:"height"`
		TilesJSON  string `db:"tiles_json"`
		BudgetJSON string `db:"budget_json"`
		StockJSON  string `db:"stock_json"`
	}
	var rows []cityRow
	if err := db.conn.Select(&rows, "SELECT * FROM cities ORDER BY rowid"); err != nil {
		return st, fmt.Errorf("load cities: %w", err)
	}
	for _, row := range rows {
		c := region.CityState{
			ID:     row.ID,
			Name:   row.Name,
			GridX:  row.GridX,
			GridY:  row.GridY,
			Active: row.Active == 1,
			Width:  row.Width,
			Height: row.Height,
		}
		if err := json.Unmarshal([]byte(row.TilesJSON), &c.Tiles); err != nil {
			return st, fmt.Errorf("city %s tiles: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.BudgetJSON), &c.Budget); err != nil {
			return st, fmt.Errorf("city %s budget: %w", row.ID, err)
		}
		if err := json.Unmarshal([]byte(row.StockJSON), &c.Stock); err != nil {
			return st, fmt.Errorf("city %s stock: %w", row.ID, err)
		}
		st.Cities = append(st.Cities, c)
	}

	if err := loadJSONRows(db.conn, "SELECT offer_json FROM trade_offers ORDER BY seq", &st.Offers); err != nil {
		return st, fmt.Errorf("load offers: %w", err)
	}
	if err := loadJSONRows(db.conn, "SELECT deal_json FROM trade_deals ORDER BY seq", &st.Deals); err != nil {
		return st, fmt.Errorf("load deals: %w", err)
	}
	if err := loadJSONRows(db.conn, "SELECT project_json FROM projects ORDER BY seq", &st.Projects); err != nil {
		return st, fmt.Errorf("load projects: %w", err)
	}

	st.Name, _ = db.GetMeta("region_name")
	if cycleStr, err := db.GetMeta("last_cycle"); err == nil {
		fmt.Sscanf(cycleStr, "%d", &st.Cycle)
	}
	if benefits, err := db.GetMeta("benefits"); err == nil && benefits != "" {
		if err := json.Unmarshal([]byte(benefits), &st.Benefits); err != nil {
			return st, fmt.Errorf("benefits: %w", err)
		}
	}
	return st, nil
}

func loadJSONRows[T any](conn *sqlx.DB, query string, out *[]T) error {
	var raws []string
	if err := conn.Select(&raws, query); err != nil {
		return err
	}
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return err
		}
		*out = append(*out, v)
	}
	return nil
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(events []region.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return err
	}
	for _, e := range events {
		if _, err := tx.Exec(
			"INSERT INTO events (cycle, description, category) VALUES (?, ?, ?)",
			e.Cycle, e.Description, e.Category,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RecentEvents returns the most recent N events, oldest first.
func (db *DB) RecentEvents(limit int) ([]region.Event, error) {
	var events []region.Event
	err := db.conn.Select(&events,
		"SELECT cycle, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// SaveMeta stores a key-value pair in region metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO region_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM region_meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	return value, err
}

// SaveRegionState performs a full save: snapshot plus the event log.
func (db *DB) SaveRegionState(r *region.Region) error {
	st := r.ExportState()
	slog.Info("saving region state", "cities", len(st.Cities), "cycle", st.Cycle)

	if err := db.SaveRegion(st); err != nil {
		return fmt.Errorf("save region: %w", err)
	}
	if err := db.SaveEvents(r.Events(0)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	slog.Info("region state saved")
	return nil
}
