package security

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/termflow/internal/domain"
	"github.com/doeshing/termflow/internal/pkg/filesystem"
	"github.com/doeshing/termflow/internal/ports"
)

// SQLiteAuditLog persists the append-only execution audit trail in a
// SQLite database under ~/.termflow/audit.db.
type SQLiteAuditLog struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteAuditLog creates (or opens) the audit database. A nil db inside
// the returned store degrades Record/Records to no-ops rather than failing
// the pipeline.
func NewSQLiteAuditLog(path string) *SQLiteAuditLog {
	if path == "" {
		path = filepath.Join(filesystem.UserHomeDir(), ".termflow", "audit.db")
	}
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteAuditLog{path: path}
	}
	store := &SQLiteAuditLog{db: db, path: path}
	if err := store.init(); err != nil {
		return &SQLiteAuditLog{path: path}
	}
	return store
}

func (s *SQLiteAuditLog) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS audit (
		id TEXT PRIMARY KEY,
		timestamp TEXT,
		program TEXT,
		args TEXT,
		working_dir TEXT,
		exit_code INTEGER,
		duration_ms INTEGER,
		output_size INTEGER,
		refused INTEGER,
		violations TEXT
	);`)
	return err
}

// Record implements ports.AuditLog. Records are inserted, never updated.
func (s *SQLiteAuditLog) Record(rec domain.AuditRecord) error {
	if s.db == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	args, err := json.Marshal(rec.Args)
	if err != nil {
		return err
	}
	violations, err := json.Marshal(rec.Violations)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO audit
		(id, timestamp, program, args, working_dir, exit_code, duration_ms, output_size, refused, violations)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Timestamp.Format(time.RFC3339Nano),
		rec.Program,
		string(args),
		rec.WorkingDir,
		rec.ExitCode,
		rec.Duration.Milliseconds(),
		rec.OutputSize,
		boolToInt(rec.Refused),
		string(violations),
	)
	return err
}

// Records returns the most recent audit entries, newest first.
func (s *SQLiteAuditLog) Records(limit int) ([]domain.AuditRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	query := `SELECT id, timestamp, program, args, working_dir, exit_code, duration_ms, output_size, refused, violations
		FROM audit ORDER BY datetime(timestamp) DESC`
	var queryArgs []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		queryArgs = append(queryArgs, limit)
	}
	rows, err := s.db.Query(query, queryArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		var ts, args, violations string
		var durationMS int64
		var refused int
		if err := rows.Scan(&rec.ID, &ts, &rec.Program, &args, &rec.WorkingDir,
			&rec.ExitCode, &durationMS, &rec.OutputSize, &refused, &violations); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Refused = refused == 1
		_ = json.Unmarshal([]byte(args), &rec.Args)
		_ = json.Unmarshal([]byte(violations), &rec.Violations)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteAuditLog) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *SQLiteAuditLog) Path() string {
	return s.path
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.AuditLog = (*SQLiteAuditLog)(nil)
