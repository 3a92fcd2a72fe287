package sync

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registers as "sqlite"
)

const walJournalSizeLimit = 67108864 // 64 MiB

// Store persists Photo rows and provides the operations the
// reconciliation engine depends on. The exact SQL backing it is an
// implementation choice; SQLiteStore is the one shipped here.
type Store interface {
	Begin(ctx context.Context) (*Session, error)
	Health(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using an embedded SQLite database in WAL
// mode with a sole-writer pattern: a single connection, pragmas applied
// via DSN parameters so every connection in the (size-1) pool inherits
// them.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens dbPath, applies migrations, and returns a ready
// store. Use ":memory:" for tests.
func NewSQLiteStore(ctx context.Context, dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)"+
			"&_pragma=journal_size_limit(%d)",
		dbPath, walJournalSizeLimit,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sync: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: SQLite serializes writers anyway; one
	// connection avoids SQLITE_BUSY churn under concurrent full-sync +
	// batch-apply.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("catalog store ready", slog.String("db_path", dbPath))

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Health performs a cheap round-trip to the database.
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sync: catalog health check: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Session is a scoped unit of work wrapping one *sql.Tx. Not safe for
// concurrent use by multiple goroutines. Callers acquire one via
// Store.Begin and must defer Close(); Close() rolls back unless Commit()
// was already called, guaranteeing commit-or-rollback on every exit path.
// Event-mode batch apply and full-sync are both built on this, since
// each needs its own independent commit-or-rollback unit of work.
type Session struct {
	tx        *sql.Tx
	committed bool
}

// Begin starts a new transaction-scoped session.
func (s *SQLiteStore) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sync: beginning session: %w", err)
	}

	return &Session{tx: tx}, nil
}

// Commit commits the underlying transaction.
func (sess *Session) Commit() error {
	if err := sess.tx.Commit(); err != nil {
		return fmt.Errorf("sync: committing session: %w", err)
	}

	sess.committed = true

	return nil
}

// Close rolls back the transaction if it was not already committed.
// Safe to call unconditionally via defer.
func (sess *Session) Close() error {
	if sess.committed {
		return nil
	}

	if err := sess.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("sync: rolling back session: %w", err)
	}

	return nil
}

// --- SQL statements ---

const photoColumns = `id, file_path, filename, category, title, file_size,
	width, height, file_modified_at, created_at, updated_at`

const (
	sqlGetByPath = `SELECT ` + photoColumns + ` FROM photos WHERE file_path = ?`

	sqlScanAll = `SELECT ` + photoColumns + ` FROM photos`

	sqlInsert = `INSERT INTO photos (` + photoColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sqlUpdate = `UPDATE photos SET
		filename = ?, category = ?, title = ?, file_size = ?,
		width = ?, height = ?, file_modified_at = ?, updated_at = ?
		WHERE id = ?`

	sqlDeleteByIDPrefix = `DELETE FROM photos WHERE id IN (`
)

// GetByPath returns the row for path p, or nil if none exists.
func (sess *Session) GetByPath(ctx context.Context, p string) (*Photo, error) {
	row := sess.tx.QueryRowContext(ctx, sqlGetByPath, p)

	photo, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // "no row" is a valid, common outcome
	}

	if err != nil {
		return nil, fmt.Errorf("sync: get photo by path %s: %w", p, err)
	}

	return photo, nil
}

// ScanAll returns every catalog row. Used by full-sync only.
func (sess *Session) ScanAll(ctx context.Context) ([]*Photo, error) {
	rows, err := sess.tx.QueryContext(ctx, sqlScanAll)
	if err != nil {
		return nil, fmt.Errorf("sync: scanning all photos: %w", err)
	}
	defer rows.Close()

	var photos []*Photo

	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("sync: scanning photo row: %w", err)
		}

		photos = append(photos, photo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync: iterating photo rows: %w", err)
	}

	return photos, nil
}

// Insert adds a new row. Fails if file_path already exists.
func (sess *Session) Insert(ctx context.Context, p *Photo) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	_, err := sess.tx.ExecContext(ctx, sqlInsert,
		p.ID, p.FilePath, p.Filename, p.Category, p.Title, p.FileSize,
		nullInt(p.Width), nullInt(p.Height),
		formatTime(p.FileModifiedAt), formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sync: inserting photo %s: %w", p.FilePath, err)
	}

	return nil
}

// Update updates by id; sets updated_at to the value already populated
// on p (callers set it to "now" before calling Update; see engine.go).
func (sess *Session) Update(ctx context.Context, p *Photo) error {
	_, err := sess.tx.ExecContext(ctx, sqlUpdate,
		p.Filename, p.Category, p.Title, p.FileSize,
		nullInt(p.Width), nullInt(p.Height),
		formatTime(p.FileModifiedAt), formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("sync: updating photo %s: %w", p.FilePath, err)
	}

	return nil
}

// DeleteByIDs bulk-deletes rows by id. No-op for an empty slice.
func (sess *Session) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args := buildDeleteQuery(ids)

	if _, err := sess.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sync: deleting %d photos: %w", len(ids), err)
	}

	return nil
}

func buildDeleteQuery(ids []string) (string, []any) {
	query := sqlDeleteByIDPrefix
	args := make([]any, len(ids))

	for i, id := range ids {
		if i > 0 {
			query += ", "
		}

		query += "?"
		args[i] = id
	}

	return query + ")", args
}

// rowScanner abstracts *sql.Row and *sql.Rows so scanPhoto serves both.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(r rowScanner) (*Photo, error) {
	var (
		p        Photo
		width    sql.NullInt64
		height   sql.NullInt64
		modified string
		created  string
		updated  string
	)

	err := r.Scan(
		&p.ID, &p.FilePath, &p.Filename, &p.Category, &p.Title, &p.FileSize,
		&width, &height, &modified, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if width.Valid {
		w := int(width.Int64)
		p.Width = &w
	}

	if height.Valid {
		h := int(height.Int64)
		p.Height = &h
	}

	p.FileModifiedAt, err = parseTime(modified)
	if err != nil {
		return nil, fmt.Errorf("sync: parsing file_modified_at: %w", err)
	}

	p.CreatedAt, err = parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("sync: parsing created_at: %w", err)
	}

	p.UpdatedAt, err = parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("sync: parsing updated_at: %w", err)
	}

	return &p, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// formatTime/parseTime store timestamps as RFC3339Nano text. SQLite has
// no native timestamp type; text is chosen over a Unix-epoch integer
// because the catalog rows are read directly by the out-of-scope HTTP
// API, which consumes RFC3339 — purely an encoding choice, invisible to
// this package's own callers.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}
