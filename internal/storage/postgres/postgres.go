// Package postgres implements storage.Repository on PostgreSQL through pgx.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"tripplan/internal/core"
	"tripplan/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Store)(nil)

// Open connects to databaseURL, applies pending migrations and returns a ready store.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// RunMigrations brings the PostgreSQL schema up to date.
func RunMigrations(databaseURL string) error {
	db, err := stdlibOpen(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func stdlibOpen(databaseURL string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return stdlib.OpenDB(*cfg), nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const planColumns = `id, user_id, title, content, destination, start_date, end_date, budget, num_people, preferences, public, created_at`

func (s *Store) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	if err := p.Validate(); err != nil {
		return core.Plan{}, err
	}
	p = storage.PreparePlan(p)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO plans (`+planColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.OwnerID, p.Title, p.Content, p.Destination, p.StartDate, p.EndDate,
		p.Budget, p.NumPeople, p.Preferences, p.Public, p.CreatedAt)
	if err != nil {
		return core.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return p, nil
}

func (s *Store) ListPlans(ctx context.Context, ownerID string) ([]core.Plan, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = $1 ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := []core.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (s *Store) GetPlan(ctx context.Context, id, ownerID string) (core.Plan, error) {
	return scanPlan(s.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1 AND user_id = $2`, id, ownerID))
}

func (s *Store) GetPublicPlan(ctx context.Context, id string) (core.Plan, error) {
	return scanPlan(s.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = $1 AND public`, id))
}

func (s *Store) SetPlanPublic(ctx context.Context, id, ownerID string, public bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE plans SET public = $1 WHERE id = $2 AND user_id = $3`, public, id, ownerID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return expectOne(tag)
}

func (s *Store) DeletePlan(ctx context.Context, id, ownerID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return expectOne(tag)
}

func (s *Store) CreateSpot(ctx context.Context, ownerID string, sp core.Spot) (core.Spot, error) {
	if err := sp.Validate(); err != nil {
		return core.Spot{}, err
	}
	sp = storage.PrepareSpot(sp)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO spots (id, plan_id, name, description, latitude, longitude, created_at)
		 SELECT $1::text, $2::text, $3::text, $4::text, $5::double precision, $6::double precision, $7::timestamptz
		 WHERE EXISTS (SELECT 1 FROM plans WHERE id = $2 AND user_id = $8::text)`,
		sp.ID, sp.PlanID, sp.Name, sp.Description, sp.Latitude, sp.Longitude, sp.CreatedAt, ownerID)
	if err != nil {
		return core.Spot{}, fmt.Errorf("insert spot: %w", err)
	}
	if err := expectOne(tag); err != nil {
		return core.Spot{}, err
	}
	return sp, nil
}

func (s *Store) ListSpots(ctx context.Context, planID, ownerID string) ([]core.Spot, error) {
	return s.listSpots(ctx,
		`SELECT s.id, s.plan_id, s.name, s.description, s.latitude, s.longitude, s.created_at
		 FROM spots s JOIN plans p ON p.id = s.plan_id
		 WHERE s.plan_id = $1 AND p.user_id = $2
		 ORDER BY s.created_at DESC, s.id`, planID, ownerID)
}

func (s *Store) ListPublicSpots(ctx context.Context, planID string) ([]core.Spot, error) {
	return s.listSpots(ctx,
		`SELECT s.id, s.plan_id, s.name, s.description, s.latitude, s.longitude, s.created_at
		 FROM spots s JOIN plans p ON p.id = s.plan_id
		 WHERE s.plan_id = $1 AND p.public
		 ORDER BY s.created_at DESC, s.id`, planID)
}

func (s *Store) listSpots(ctx context.Context, query string, args ...any) ([]core.Spot, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	spots := []core.Spot{}
	for rows.Next() {
		var sp core.Spot
		if err := rows.Scan(&sp.ID, &sp.PlanID, &sp.Name, &sp.Description, &sp.Latitude, &sp.Longitude, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		sp.CreatedAt = sp.CreatedAt.UTC()
		spots = append(spots, sp)
	}
	return spots, rows.Err()
}

func (s *Store) DeleteSpot(ctx context.Context, id, planID, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM spots WHERE id = $1 AND plan_id = $2
		 AND plan_id IN (SELECT id FROM plans WHERE user_id = $3)`, id, planID, ownerID)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	return expectOne(tag)
}

const expenseColumns = `id, plan_id, user_id, amount, category, currency, note, occurred_at, created_at`

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e = storage.PrepareExpense(e)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 SELECT $1::text, $2::text, $3::text, $4::double precision, $5::text, $6::text, $7::text, $8::timestamptz, $9::timestamptz
		 WHERE EXISTS (SELECT 1 FROM plans WHERE id = $2 AND user_id = $3)`,
		e.ID, e.PlanID, e.OwnerID, e.Amount, e.Category, e.Currency, e.Note, e.OccurredAt, e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	if err := expectOne(tag); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, planID, ownerID string) ([]core.Expense, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE plan_id = $1 AND user_id = $2
		 ORDER BY occurred_at DESC NULLS LAST, created_at DESC, id`, planID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *Store) GetExpense(ctx context.Context, id, planID, ownerID string) (core.Expense, error) {
	return scanExpense(s.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND plan_id = $2 AND user_id = $3`, id, planID, ownerID))
}

func (s *Store) DeleteExpense(ctx context.Context, id, planID, ownerID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM expenses WHERE id = $1 AND plan_id = $2 AND user_id = $3`, id, planID, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOne(tag)
}

func scanPlan(row pgx.Row) (core.Plan, error) {
	var p core.Plan
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Content, &p.Destination, &p.StartDate, &p.EndDate,
		&p.Budget, &p.NumPeople, &p.Preferences, &p.Public, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Plan{}, core.ErrNotFound
	}
	if err != nil {
		return core.Plan{}, fmt.Errorf("scan plan: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func scanExpense(row pgx.Row) (core.Expense, error) {
	var e core.Expense
	err := row.Scan(&e.ID, &e.PlanID, &e.OwnerID, &e.Amount, &e.Category, &e.Currency, &e.Note, &e.OccurredAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	if e.OccurredAt != nil {
		t := e.OccurredAt.UTC()
		e.OccurredAt = &t
	}
	return e, nil
}

func expectOne(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Reset deletes every row. It exists for tests running against a shared database.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE plans CASCADE`)
	return err
}
