// Package sqlite provides the SQLite-backed implementation of the storage
// contract, using the pure Go driver (no CGO).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath, creating parent directories
// and running migrations.
func New(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses (amount, comment, category_id, user_id, group_id) VALUES (?, ?, ?, ?, ?)",
		e.Amount.Units, strings.TrimSpace(e.Comment), e.Category.ID, e.User, e.Group,
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) MoveExpense(ctx context.Context, id int64, newCategory core.CategoryID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET category_id = ? WHERE id = ?", newCategory, id)
	if err != nil {
		return fmt.Errorf("move expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) TotalsByCategory(ctx context.Context, start time.Time, req core.ReportRequest) ([]storage.CategoryTotal, error) {
	query := `SELECT SUM(e.amount), c.id, c.name
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = ? AND e.created_at >= ?`
	args := []any{req.Group, startParam(start)}
	if !req.All {
		query += " AND e.user_id = ?"
		args = append(args, req.User)
	}
	query += " GROUP BY c.id, c.name ORDER BY " + totalsOrder(req.Ordering)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query totals: %w", err)
	}
	defer rows.Close()

	var totals []storage.CategoryTotal
	for rows.Next() {
		var t storage.CategoryTotal
		if err := rows.Scan(&t.Amount.Units, &t.Category.ID, &t.Category.Name); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		t.Category.Group = req.Group
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate totals: %w", err)
	}
	return totals, nil
}

func (s *SQLiteStore) Itemized(ctx context.Context, start time.Time, req core.ReportRequest) ([]storage.Item, error) {
	query := `SELECT e.id, e.amount, c.id, c.name, e.user_id, e.comment
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = ? AND e.created_at >= ?`
	args := []any{req.Group, startParam(start)}
	if !req.All {
		query += " AND e.user_id = ?"
		args = append(args, req.User)
	}
	query += " ORDER BY " + itemsOrder(req.Ordering)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query itemized: %w", err)
	}
	defer rows.Close()

	var items []storage.Item
	for rows.Next() {
		var it storage.Item
		if err := rows.Scan(&it.ID, &it.Amount.Units, &it.Category.ID, &it.Category.Name, &it.User, &it.Comment); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Category.Group = req.Group
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate itemized: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) DailyTotals(ctx context.Context, group core.GroupID) ([]storage.DayRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(e.created_at), SUM(e.amount), c.id, c.name, e.user_id
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = ?
		GROUP BY date(e.created_at), c.id, c.name, e.user_id
		ORDER BY date(e.created_at)`,
		group,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var out []storage.DayRow
	for rows.Next() {
		var (
			day string
			r   storage.DayRow
		)
		if err := rows.Scan(&day, &r.Amount.Units, &r.Category.ID, &r.Category.Name, &r.User); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		r.Date, err = time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		r.Category.Group = group
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) RegisterUser(ctx context.Context, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (id) VALUES (?)", user); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateGroup(ctx context.Context, creator core.UserID, name string) (core.GroupID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO groups (name, creator, active) VALUES (?, ?, 1)", name, creator)
	if err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_groups (user_id, group_id) VALUES (?, ?)", creator, id); err != nil {
		return 0, fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return core.GroupID(id), nil
}

func (s *SQLiteStore) DeleteGroup(ctx context.Context, id core.GroupID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) AddMember(ctx context.Context, group core.GroupID, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_groups (user_id, group_id) VALUES (?, ?)", user, group); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveMember(ctx context.Context, group core.GroupID, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM user_groups WHERE group_id = ? AND user_id = ?", group, user); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UserGroups(ctx context.Context, user core.UserID) ([]core.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name FROM user_groups ug
		JOIN groups g ON ug.group_id = g.id
		WHERE ug.user_id = ? AND g.active = 1
		ORDER BY g.name`,
		user,
	)
	if err != nil {
		return nil, fmt.Errorf("query user groups: %w", err)
	}
	defer rows.Close()

	var groups []core.Group
	for rows.Next() {
		g := core.Group{Active: true}
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user groups: %w", err)
	}
	return groups, nil
}

func (s *SQLiteStore) InsertCategory(ctx context.Context, group core.GroupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	// Insert-or-replace by name within the group; a soft-deleted category
	// with the same name comes back to life instead of duplicating.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, group_id, active) VALUES (?, ?, 1)
		ON CONFLICT (name, group_id) DO UPDATE SET active = 1`,
		name, group); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id core.CategoryID, group core.GroupID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET active = 0 WHERE id = ? AND group_id = ?", id, group)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Categories(ctx context.Context, group core.GroupID) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM categories WHERE group_id = ? AND active = 1 ORDER BY name",
		group,
	)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c := core.Category{Group: group, Active: true}
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// startParam renders the period start the way SQLite's CURRENT_TIMESTAMP
// text sorts, so >= comparisons stay lexicographic-safe.
func startParam(start time.Time) string {
	return start.Format("2006-01-02")
}

func totalsOrder(o core.Ordering) string {
	switch o {
	case core.OrderByDate:
		return "MIN(e.created_at)"
	case core.OrderByCategory:
		return "c.name, SUM(e.amount) DESC"
	}
	panic(fmt.Sprintf("sqlite: unknown ordering %d", int(o)))
}

func itemsOrder(o core.Ordering) string {
	switch o {
	case core.OrderByDate:
		return "e.created_at, e.id"
	case core.OrderByCategory:
		return "c.name, e.amount DESC"
	}
	panic(fmt.Sprintf("sqlite: unknown ordering %d", int(o)))
}
