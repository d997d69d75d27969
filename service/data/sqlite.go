package data

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/xerrors"
	_ "modernc.org/sqlite"

	"github.com/khaledhikmat/ecovision-go/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS counted_items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL,
	category TEXT NOT NULL,
	source TEXT NOT NULL,
	hour INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS analyses (
	id TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	category TEXT NOT NULL,
	advice TEXT NOT NULL,
	recyclable INTEGER NOT NULL,
	failed INTEGER NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	processor TEXT NOT NULL,
	message TEXT NOT NULL,
	inner TEXT NOT NULL,
	stack_trace TEXT NOT NULL,
	misc TEXT,
	timestamp INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	payload TEXT NOT NULL,
	timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_counted_items_timestamp ON counted_items(timestamp);
CREATE INDEX IF NOT EXISTS idx_analyses_timestamp ON analyses(timestamp);
CREATE INDEX IF NOT EXISTS idx_stats_kind ON stats(kind);
`

type sqliteService struct {
	mu   sync.Mutex
	conn *sql.DB
}

// NewSQLite opens (or creates) the event store. Use ":memory:" for a throwaway store.
func NewSQLite(path string) (IService, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, xerrors.Errorf("failed to create data folder: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes writers.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, xerrors.Errorf("failed to migrate database: %w", err)
	}

	return &sqliteService{conn: conn}, nil
}

func (svc *sqliteService) NewCountedItem(item model.CountedItem) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.conn.Exec(`
		INSERT INTO counted_items (label, category, source, hour, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, item.Label, string(item.Category), string(item.Source), item.Hour, item.Timestamp.UnixNano())
	if err != nil {
		return xerrors.Errorf("failed to insert counted item: %w", err)
	}
	return nil
}

func (svc *sqliteService) NewAnalysis(analysis model.Analysis) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.conn.Exec(`
		INSERT INTO analyses (id, label, category, advice, recyclable, failed, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, analysis.ID, analysis.Label, string(analysis.Category), analysis.Advice,
		analysis.Recyclable, analysis.Failed, analysis.Timestamp.UnixNano())
	if err != nil {
		return xerrors.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// RetrieveCountedItems returns the newest items first.
func (svc *sqliteService) RetrieveCountedItems(limit int) ([]model.CountedItem, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	rows, err := svc.conn.Query(`
		SELECT label, category, source, hour, timestamp
		FROM counted_items
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, xerrors.Errorf("failed to query counted items: %w", err)
	}
	defer rows.Close()

	items := []model.CountedItem{}
	for rows.Next() {
		var item model.CountedItem
		var category, source string
		var ts int64
		if err := rows.Scan(&item.Label, &category, &source, &item.Hour, &ts); err != nil {
			return nil, xerrors.Errorf("failed to scan counted item: %w", err)
		}
		item.Category = model.Category(category)
		item.Source = model.CountSource(source)
		item.Timestamp = time.Unix(0, ts)
		items = append(items, item)
	}

	return items, rows.Err()
}

// RetrieveAnalyses returns the newest analyses first.
func (svc *sqliteService) RetrieveAnalyses(limit int) ([]model.Analysis, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	rows, err := svc.conn.Query(`
		SELECT id, label, category, advice, recyclable, failed, timestamp
		FROM analyses
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, xerrors.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []model.Analysis{}
	for rows.Next() {
		var a model.Analysis
		var category string
		var ts int64
		if err := rows.Scan(&a.ID, &a.Label, &category, &a.Advice, &a.Recyclable, &a.Failed, &ts); err != nil {
			return nil, xerrors.Errorf("failed to scan analysis: %w", err)
		}
		a.Category = model.Category(category)
		a.Timestamp = time.Unix(0, ts)
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

func (svc *sqliteService) NewError(err interface{}) error {
	// Determine if the error is custom
	var customErr model.CustomError
	switch e := err.(type) {
	case model.CustomError:
		customErr = e
	case error:
		customErr = model.CustomError{
			Processor:  "N/A",
			Inner:      e,
			Message:    e.Error(),
			StackTrace: "N/A",
		}
	default:
		return xerrors.Errorf("unsupported error type %T", err)
	}

	inner := ""
	if customErr.Inner != nil {
		inner = customErr.Inner.Error()
	}

	misc, jsonErr := json.Marshal(customErr.Misc)
	if jsonErr != nil {
		misc = nil
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, execErr := svc.conn.Exec(`
		INSERT INTO errors (processor, message, inner, stack_trace, misc, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`, customErr.Processor, customErr.Message, inner, customErr.StackTrace, string(misc), time.Now().Unix())
	if execErr != nil {
		return xerrors.Errorf("failed to insert error: %w", execErr)
	}
	return nil
}

func (svc *sqliteService) NewAgentStats(stats model.AgentStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, "agent-stats", stats)
}

func (svc *sqliteService) NewFramerStats(stats model.FramerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, "framer-stats", stats)
}

func (svc *sqliteService) NewStreamerStats(stats model.StreamerStats) error {
	stats.Timestamp = time.Now().Unix()
	return newEntity(svc, "streamer-stats", stats)
}

func (svc *sqliteService) Close() error {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.conn.Close()
}

func newEntity[T any](svc *sqliteService, kind string, entity T) error {
	payload, err := json.Marshal(entity)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err = svc.conn.Exec(`INSERT INTO stats (kind, payload, timestamp) VALUES (?, ?, ?)`,
		kind, string(payload), time.Now().Unix())
	if err != nil {
		return xerrors.Errorf("failed to insert %s: %w", kind, err)
	}
	return nil
}
