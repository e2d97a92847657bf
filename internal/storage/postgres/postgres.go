// Package postgres provides the PostgreSQL-backed implementation of the
// storage contract, over pgx's database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store on a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// New connects to the database described by dsn and runs migrations.
func New(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "pgx", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, fmt.Errorf("validate expense: %w", err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO expenses (amount, comment, category_id, user_id, group_id)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		e.Amount.Units, strings.TrimSpace(e.Comment), e.Category.ID, e.User, e.Group,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) MoveExpense(ctx context.Context, id int64, newCategory core.CategoryID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET category_id = $1 WHERE id = $2", newCategory, id)
	if err != nil {
		return fmt.Errorf("move expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) TotalsByCategory(ctx context.Context, start time.Time, req core.ReportRequest) ([]storage.CategoryTotal, error) {
	query := `SELECT SUM(e.amount), c.id, c.name
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = $1 AND e.created_at >= $2`
	args := []any{req.Group, start}
	if !req.All {
		query += " AND e.user_id = $3"
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

func (s *PostgresStore) Itemized(ctx context.Context, start time.Time, req core.ReportRequest) ([]storage.Item, error) {
	query := `SELECT e.id, e.amount, c.id, c.name, e.user_id, e.comment
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = $1 AND e.created_at >= $2`
	args := []any{req.Group, start}
	if !req.All {
		query += " AND e.user_id = $3"
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

func (s *PostgresStore) DailyTotals(ctx context.Context, group core.GroupID) ([]storage.DayRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.created_at::date, SUM(e.amount), c.id, c.name, e.user_id
		FROM expenses e
		JOIN categories c ON e.category_id = c.id
		WHERE e.group_id = $1
		GROUP BY e.created_at::date, c.id, c.name, e.user_id
		ORDER BY e.created_at::date`,
		group,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var out []storage.DayRow
	for rows.Next() {
		var r storage.DayRow
		if err := rows.Scan(&r.Date, &r.Amount.Units, &r.Category.ID, &r.Category.Name, &r.User); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		r.Category.Group = group
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily totals: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) RegisterUser(ctx context.Context, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", user); err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateGroup(ctx context.Context, creator core.UserID, name string) (core.GroupID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx,
		"INSERT INTO groups (name, creator, active) VALUES ($1, $2, TRUE) RETURNING id",
		name, creator,
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert group: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		creator, id); err != nil {
		return 0, fmt.Errorf("insert membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return core.GroupID(id), nil
}

func (s *PostgresStore) DeleteGroup(ctx context.Context, id core.GroupID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET active = FALSE WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("group %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) AddMember(ctx context.Context, group core.GroupID, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		user, group); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveMember(ctx context.Context, group core.GroupID, user core.UserID) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM user_groups WHERE group_id = $1 AND user_id = $2", group, user); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *PostgresStore) UserGroups(ctx context.Context, user core.UserID) ([]core.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name FROM user_groups ug
		JOIN groups g ON ug.group_id = g.id
		WHERE ug.user_id = $1 AND g.active
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

func (s *PostgresStore) InsertCategory(ctx context.Context, group core.GroupID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyName
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, group_id, active) VALUES ($1, $2, TRUE)
		ON CONFLICT (name, group_id) DO UPDATE SET active = TRUE`,
		name, group); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id core.CategoryID, group core.GroupID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET active = FALSE WHERE id = $1 AND group_id = $2", id, group)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Categories(ctx context.Context, group core.GroupID) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM categories WHERE group_id = $1 AND active ORDER BY name",
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

func totalsOrder(o core.Ordering) string {
	switch o {
	case core.OrderByDate:
		return "MIN(e.created_at)"
	case core.OrderByCategory:
		return "c.name, SUM(e.amount) DESC"
	}
	panic(fmt.Sprintf("postgres: unknown ordering %d", int(o)))
}

func itemsOrder(o core.Ordering) string {
	switch o {
	case core.OrderByDate:
		return "e.created_at, e.id"
	case core.OrderByCategory:
		return "c.name, e.amount DESC"
	}
	panic(fmt.Sprintf("postgres: unknown ordering %d", int(o)))
}
