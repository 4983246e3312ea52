package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded
// SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

func (s *LibSQLStore) Create(ctx context.Context, lg *LayoutGroup) error {
	if len(lg.Document) == 0 {
		return schema.NewError(schema.ErrCodeStore, "layout group document is empty")
	}
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO layout_groups (id, name, description, document, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		lg.ID, lg.Name, nullStr(lg.Description), string(lg.Document),
		timeOrNow(lg.CreatedAt), now,
	)
	if err != nil {
		return fmt.Errorf("insert layout group: %w", err)
	}
	if err := appendRevision(ctx, tx, lg.ID, 1, lg.Document, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	lg.Revision = 1
	return nil
}

func (s *LibSQLStore) Get(ctx context.Context, id string) (*LayoutGroup, error) {
	lg := &LayoutGroup{}
	var desc sql.NullString
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, document, revision, created_at, updated_at
		 FROM layout_groups WHERE id = ?`, id,
	).Scan(&lg.ID, &lg.Name, &desc, &doc, &lg.Revision, &lg.CreatedAt, &lg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("layout group", id)
	}
	if err != nil {
		return nil, err
	}
	lg.Description = desc.String
	lg.Document = json.RawMessage(doc)
	return lg, nil
}

// Update replaces the document wholesale and appends the new snapshot
// to the revision log inside one transaction, so a group's current
// revision always has a matching history row.
func (s *LibSQLStore) Update(ctx context.Context, id string, document json.RawMessage) error {
	if len(document) == 0 {
		return schema.NewError(schema.ErrCodeStore, "layout group document is empty")
	}
	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var rev int64
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM layout_groups WHERE id = ?`, id).Scan(&rev)
	if err == sql.ErrNoRows {
		return storeNotFound("layout group", id)
	}
	if err != nil {
		return err
	}
	rev++

	if _, err := tx.ExecContext(ctx,
		`UPDATE layout_groups SET document = ?, revision = ?, updated_at = ? WHERE id = ?`,
		string(document), rev, now, id,
	); err != nil {
		return fmt.Errorf("update layout group: %w", err)
	}
	if err := appendRevision(ctx, tx, id, rev, document, now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (s *LibSQLStore) List(ctx context.Context, filter ListFilter) ([]*LayoutGroup, error) {
	var where []string
	var args []any

	if filter.NameContains != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+filter.NameContains+"%")
	}
	if filter.Since != nil {
		where = append(where, "updated_at >= ?")
		args = append(args, *filter.Since)
	}

	query := `SELECT id, name, description, document, revision, created_at, updated_at FROM layout_groups`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*LayoutGroup
	for rows.Next() {
		lg := &LayoutGroup{}
		var desc sql.NullString
		var doc string
		if err := rows.Scan(&lg.ID, &lg.Name, &desc, &doc, &lg.Revision, &lg.CreatedAt, &lg.UpdatedAt); err != nil {
			return nil, err
		}
		lg.Description = desc.String
		lg.Document = json.RawMessage(doc)
		groups = append(groups, lg)
	}
	return groups, rows.Err()
}

func (s *LibSQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM layout_groups WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "layout group", id)
}

func (s *LibSQLStore) Revisions(ctx context.Context, groupID string, since int64) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, revision, document, saved_at
		 FROM layout_group_revisions WHERE group_id = ? AND revision > ?
		 ORDER BY revision ASC`,
		groupID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		r := &Revision{}
		var doc string
		if err := rows.Scan(&r.GroupID, &r.Revision, &doc, &r.SavedAt); err != nil {
			return nil, err
		}
		r.Document = json.RawMessage(doc)
		revisions = append(revisions, r)
	}
	return revisions, rows.Err()
}

func (s *LibSQLStore) Restore(ctx context.Context, groupID string, revision int64) error {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM layout_group_revisions WHERE group_id = ? AND revision = ?`,
		groupID, revision,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return storeNotFound("revision", fmt.Sprintf("%s@%d", groupID, revision))
	}
	if err != nil {
		return err
	}
	return s.Update(ctx, groupID, json.RawMessage(doc))
}

func appendRevision(ctx context.Context, tx *sql.Tx, groupID string, revision int64, document json.RawMessage, savedAt time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO layout_group_revisions (group_id, revision, document, saved_at)
		 VALUES (?, ?, ?, ?)`,
		groupID, revision, string(document), savedAt,
	); err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.DesignError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
