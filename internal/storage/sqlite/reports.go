package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/blckassembly/brelth-AES/internal/sim"
	"github.com/blckassembly/brelth-AES/pkg/logger"
)

// writeQueueSize bounds the number of reports waiting for the writer
// goroutine; reports beyond it are dropped so the tick never blocks on disk.
const writeQueueSize = 4096

// ReportStorage archives emitted position reports in a SQLite database. It
// implements sim.ReportSink: Publish enqueues and returns immediately, a
// dedicated writer goroutine drains to disk.
type ReportStorage struct {
	db              *sql.DB
	logger          *logger.Logger
	maxReportsInAPI int
	writeCh         chan *sim.Report
	doneCh          chan struct{}
}

// NewReportStorage opens (creating if needed) the database at dbPath and
// starts the writer goroutine
func NewReportStorage(dbPath string, maxReportsInAPI int, log *logger.Logger) (*ReportStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing report archive", logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	s := &ReportStorage{
		db:              db,
		logger:          storageLogger,
		maxReportsInAPI: maxReportsInAPI,
		writeCh:         make(chan *sim.Report, writeQueueSize),
		doneCh:          make(chan struct{}),
	}
	go s.writeLoop()

	return s, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			icao_address TEXT NOT NULL,
			callsign TEXT,
			latitude REAL,
			longitude REAL,
			altitude INTEGER,
			ground_speed INTEGER,
			heading INTEGER,
			squawk TEXT,
			aircraft_type TEXT,
			timestamp TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_reports_icao ON reports (icao_address, id)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reports index: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS aircraft (
			icao_address TEXT PRIMARY KEY,
			callsign TEXT,
			aircraft_type TEXT,
			last_squawk TEXT,
			last_seen TEXT,
			report_count INTEGER DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create aircraft table: %w", err)
	}

	return nil
}

// Publish enqueues a report for archival. When the write queue is full the
// report is dropped; archival is best-effort and must never stall the tick.
func (s *ReportStorage) Publish(r *sim.Report) {
	select {
	case s.writeCh <- r:
	default:
		s.logger.Debug("Write queue full, dropping report", logger.String("icao", r.ICAOAddress))
	}
}

func (s *ReportStorage) writeLoop() {
	defer close(s.doneCh)

	for r := range s.writeCh {
		if err := s.insert(r); err != nil {
			s.logger.Error("Failed to archive report", logger.Error(err), logger.String("icao", r.ICAOAddress))
		}
	}
}

func (s *ReportStorage) insert(r *sim.Report) error {
	_, err := s.db.Exec(`
		INSERT INTO reports (icao_address, callsign, latitude, longitude, altitude, ground_speed, heading, squawk, aircraft_type, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ICAOAddress, r.Callsign, r.Latitude, r.Longitude, r.Altitude, r.GroundSpeed, r.Heading, r.Squawk, r.AircraftType, r.Timestamp)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO aircraft (icao_address, callsign, aircraft_type, last_squawk, last_seen, report_count)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(icao_address) DO UPDATE SET
			last_squawk = excluded.last_squawk,
			last_seen = excluded.last_seen,
			report_count = report_count + 1
	`, r.ICAOAddress, r.Callsign, r.AircraftType, r.Squawk, r.Timestamp)
	return err
}

// RecentReports returns the most recent archived reports for one aircraft,
// newest first, capped at the configured API limit.
func (s *ReportStorage) RecentReports(icao string, limit int) ([]sim.Report, error) {
	if limit <= 0 || limit > s.maxReportsInAPI {
		limit = s.maxReportsInAPI
	}

	rows, err := s.db.Query(`
		SELECT icao_address, callsign, latitude, longitude, altitude, ground_speed, heading, squawk, aircraft_type, timestamp
		FROM reports
		WHERE icao_address = ?
		ORDER BY id DESC
		LIMIT ?
	`, icao, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []sim.Report
	for rows.Next() {
		var r sim.Report
		if err := rows.Scan(&r.ICAOAddress, &r.Callsign, &r.Latitude, &r.Longitude, &r.Altitude, &r.GroundSpeed, &r.Heading, &r.Squawk, &r.AircraftType, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ReportCount returns the total number of archived reports
func (s *ReportStorage) ReportCount() (int64, error) {
	var count int64
	err := s.db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&count)
	return count, err
}

// Close stops the writer goroutine, waits for it to drain, and closes the
// database
func (s *ReportStorage) Close() error {
	close(s.writeCh)
	<-s.doneCh
	return s.db.Close()
}
