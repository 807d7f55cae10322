// Package store keeps named tree snapshots in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/vanderheijden86/arbor/pkg/model"
	"github.com/vanderheijden86/arbor/pkg/tree"
	_ "modernc.org/sqlite"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot has the given name.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrTreeNotEmpty is returned when loading into a tree that already has nodes.
	ErrTreeNotEmpty = errors.New("tree is not empty")
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	saved_at   INTEGER NOT NULL,
	node_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	snapshot TEXT    NOT NULL REFERENCES snapshots(name) ON DELETE CASCADE,
	id       INTEGER NOT NULL,
	parent   INTEGER NOT NULL,
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	visible  INTEGER NOT NULL,
	payload  TEXT,
	PRIMARY KEY (snapshot, id)
);
CREATE INDEX IF NOT EXISTS nodes_parent ON nodes(snapshot, parent, position);
`

// Info describes a stored snapshot.
type Info struct {
	Name    string
	SavedAt time.Time
	Nodes   int
}

// Store is a snapshot database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for snapshot operations.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (creating if needed) the database at path and its schema.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create snapshot schema: %w", err)
	}

	s := &Store{db: db, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes every attached node of t under name in one transaction,
// replacing any snapshot with the same name. Widget payloads are stored as
// envelope JSON; other payloads are not stored.
func (s *Store) Save(ctx context.Context, name string, t *tree.Tree) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes WHERE snapshot = ?`, name); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (name, saved_at, node_count) VALUES (?, ?, ?)`,
		name, s.now().Unix(), t.Len()); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (snapshot, id, parent, position, name, visible, payload) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	defer stmt.Close()

	for n := range t.All() {
		parent := n.Parent()
		var parentID int64
		if !parent.IsRoot() {
			parentID = int64(parent.ID())
		}
		var payload sql.NullString
		if w, ok := model.AsWidget(n.Payload()); ok {
			data, err := model.MarshalWidget(w)
			if err != nil {
				return fmt.Errorf("save snapshot %q: node %q: %w", name, n.Name(), err)
			}
			payload = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, name, int64(n.ID()), parentID,
			parent.IndexOf(n), n.Name(), n.Visible(), payload); err != nil {
			return fmt.Errorf("save snapshot %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	s.log.Debug().Str("snapshot", name).Int("nodes", t.Len()).Msg("snapshot saved")
	return nil
}

type row struct {
	id       int64
	parent   int64
	name     string
	visible  bool
	payload  sql.NullString
	children []*row
}

// Load rebuilds the snapshot name into t, which must be empty. Nodes get
// fresh handles; their order, names, payloads and expand flags are restored.
// A snapshot that fails to rebuild leaves t empty.
func (s *Store) Load(ctx context.Context, name string, t *tree.Tree) error {
	if t.Len() != 0 {
		return ErrTreeNotEmpty
	}

	var count int
	err := s.db.QueryRowContext(ctx, `SELECT node_count FROM snapshots WHERE name = ?`, name).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%q: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, parent, name, visible, payload FROM nodes WHERE snapshot = ? ORDER BY parent, position`, name)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}
	defer rows.Close()

	top := &row{}
	byID := map[int64]*row{0: top}
	var all []*row
	for rows.Next() {
		r := &row{}
		if err := rows.Scan(&r.id, &r.parent, &r.name, &r.visible, &r.payload); err != nil {
			return fmt.Errorf("load snapshot %q: %w", name, err)
		}
		byID[r.id] = r
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}
	for _, r := range all {
		p, ok := byID[r.parent]
		if !ok {
			return fmt.Errorf("load snapshot %q: node %q has missing parent %d: %w", name, r.name, r.parent, tree.ErrCorrupt)
		}
		p.children = append(p.children, r)
	}

	if len(all) != count {
		return fmt.Errorf("load snapshot %q: expected %d nodes, found %d rows: %w", name, count, len(all), tree.ErrCorrupt)
	}

	prev := t.FastMode()
	t.SetFastMode(true)
	err = s.build(t, top.children, t.Root())
	if err == nil && t.Len() != count {
		// Rows whose parents form a loop never reach the top.
		err = fmt.Errorf("expected %d nodes, reached %d: %w", count, t.Len(), tree.ErrCorrupt)
	}
	if err != nil {
		reset(t)
	}
	t.SetFastMode(prev)
	if err != nil {
		return fmt.Errorf("load snapshot %q: %w", name, err)
	}
	s.log.Debug().Str("snapshot", name).Int("nodes", count).Msg("snapshot loaded")
	return t.RefreshVisibility()
}

// reset removes everything under t's root, leaving t as Load found it.
func reset(t *tree.Tree) {
	var top []*tree.Node
	for n := range t.Root().Children() {
		top = append(top, n)
	}
	for _, n := range top {
		_ = t.Remove(n, false)
	}
}

func (s *Store) build(t *tree.Tree, rows []*row, parent *tree.Node) error {
	for _, r := range rows {
		var payload any
		if r.payload.Valid {
			w, err := model.UnmarshalWidget([]byte(r.payload.String))
			if err != nil {
				return fmt.Errorf("node %q: %w", r.name, err)
			}
			payload = w
		}
		n := t.NewNode(r.name, payload)
		if err := t.Add(n, parent, -1); err != nil {
			return err
		}
		n.SetVisible(r.visible)
		if err := s.build(t, r.children, n); err != nil {
			return err
		}
	}
	return nil
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, saved_at, node_count FROM snapshots ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var savedAt int64
		if err := rows.Scan(&info.Name, &savedAt, &info.Nodes); err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		info.SavedAt = time.Unix(savedAt, 0)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes the named snapshot.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrSnapshotNotFound)
	}
	return nil
}
