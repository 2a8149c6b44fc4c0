package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"imgrab/internal/fetch"
)

// History records download outcomes in a sqlite database so past runs can
// be inspected later. Rows carry the run id so outcomes of separate
// invocations stay distinguishable.
type History struct {
	db    *sql.DB
	runID string
}

// Entry is one persisted download outcome.
type Entry struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	URL        string    `json:"url"`
	Filename   string    `json:"filename,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

func Open(dbPath, runID string) (*History, error) {
	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// Ping makes sure the file is actually accessible and the DSN is valid
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	h := &History{db: db, runID: runID}

	if err := h.runMigrations(); err != nil {
		return nil, fmt.Errorf("could not migrate database: %w", err)
	}

	return h, nil
}

// Record persists one finished task. Satisfies fetch.HistoryRecorder.
func (h *History) Record(out fetch.Outcome) error {
	status := "ok"
	var errMsg string
	if out.Err != nil {
		status = "failed"
		errMsg = out.Err.Error()
	}

	query := `INSERT OR REPLACE INTO downloads (id, run_id, url, filename, status, error, finished_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := h.db.Exec(query,
		out.Task.ID,
		h.runID,
		out.Task.URL,
		out.Filename,
		status,
		errMsg,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// List returns all recorded downloads, oldest first. KSUID ids sort
// chronologically.
func (h *History) List() ([]Entry, error) {
	rows, err := h.db.Query(`SELECT id, run_id, url, filename, status, error, finished_at FROM downloads ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var finished string
		if err := rows.Scan(&e.ID, &e.RunID, &e.URL, &e.Filename, &e.Status, &e.Error, &finished); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, finished); err == nil {
			e.FinishedAt = t
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
