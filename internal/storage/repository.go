package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tripplan/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that text comparison orders timestamps.
const timeLayout = "2006-01-02 15:04:05.000000"

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const planColumns = `id, user_id, title, content, destination, start_date, end_date, budget, num_people, preferences, public, created_at`

func (r *SQLiteRepository) CreatePlan(ctx context.Context, p core.Plan) (core.Plan, error) {
	if err := p.Validate(); err != nil {
		return core.Plan{}, err
	}
	p = PreparePlan(p)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Content, p.Destination, p.StartDate, p.EndDate,
		nullFloat(p.Budget), nullInt(p.NumPeople), p.Preferences, p.Public, p.CreatedAt.Format(timeLayout))
	if err != nil {
		return core.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPlans(ctx context.Context, ownerID string) ([]core.Plan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = ? ORDER BY created_at DESC, id`, ownerID)
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

func (r *SQLiteRepository) GetPlan(ctx context.Context, id, ownerID string) (core.Plan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = ? AND user_id = ?`, id, ownerID)
	return scanPlan(row)
}

func (r *SQLiteRepository) GetPublicPlan(ctx context.Context, id string) (core.Plan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = ? AND public = 1`, id)
	return scanPlan(row)
}

func (r *SQLiteRepository) SetPlanPublic(ctx context.Context, id, ownerID string, public bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE plans SET public = ? WHERE id = ? AND user_id = ?`, public, id, ownerID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return expectOne(res)
}

func (r *SQLiteRepository) DeletePlan(ctx context.Context, id, ownerID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return expectOne(res)
}

const spotColumns = `id, plan_id, name, description, latitude, longitude, created_at`

func (r *SQLiteRepository) CreateSpot(ctx context.Context, ownerID string, s core.Spot) (core.Spot, error) {
	if err := s.Validate(); err != nil {
		return core.Spot{}, err
	}
	s = PrepareSpot(s)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO spots (`+spotColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM plans WHERE id = ? AND user_id = ?)`,
		s.ID, s.PlanID, s.Name, s.Description, s.Latitude, s.Longitude, s.CreatedAt.Format(timeLayout),
		s.PlanID, ownerID)
	if err != nil {
		return core.Spot{}, fmt.Errorf("insert spot: %w", err)
	}
	if err := expectOne(res); err != nil {
		return core.Spot{}, err
	}
	return s, nil
}

func (r *SQLiteRepository) ListSpots(ctx context.Context, planID, ownerID string) ([]core.Spot, error) {
	return r.listSpots(ctx,
		`SELECT s.id, s.plan_id, s.name, s.description, s.latitude, s.longitude, s.created_at
		 FROM spots s JOIN plans p ON p.id = s.plan_id
		 WHERE s.plan_id = ? AND p.user_id = ?
		 ORDER BY s.created_at DESC, s.id`, planID, ownerID)
}

func (r *SQLiteRepository) ListPublicSpots(ctx context.Context, planID string) ([]core.Spot, error) {
	return r.listSpots(ctx,
		`SELECT s.id, s.plan_id, s.name, s.description, s.latitude, s.longitude, s.created_at
		 FROM spots s JOIN plans p ON p.id = s.plan_id
		 WHERE s.plan_id = ? AND p.public = 1
		 ORDER BY s.created_at DESC, s.id`, planID)
}

func (r *SQLiteRepository) listSpots(ctx context.Context, query string, args ...any) ([]core.Spot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list spots: %w", err)
	}
	defer rows.Close()

	spots := []core.Spot{}
	for rows.Next() {
		var s core.Spot
		var created string
		if err := rows.Scan(&s.ID, &s.PlanID, &s.Name, &s.Description, &s.Latitude, &s.Longitude, &created); err != nil {
			return nil, fmt.Errorf("scan spot: %w", err)
		}
		if s.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

func (r *SQLiteRepository) DeleteSpot(ctx context.Context, id, planID, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM spots WHERE id = ? AND plan_id = ?
		 AND plan_id IN (SELECT id FROM plans WHERE user_id = ?)`, id, planID, ownerID)
	if err != nil {
		return fmt.Errorf("delete spot: %w", err)
	}
	return expectOne(res)
}

const expenseColumns = `id, plan_id, user_id, amount, category, currency, note, occurred_at, created_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	e = PrepareExpense(e)

	var occurred any
	if e.OccurredAt != nil {
		occurred = e.OccurredAt.Format(timeLayout)
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM plans WHERE id = ? AND user_id = ?)`,
		e.ID, e.PlanID, e.OwnerID, e.Amount, e.Category, e.Currency, e.Note, occurred, e.CreatedAt.Format(timeLayout),
		e.PlanID, e.OwnerID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	if err := expectOne(res); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, planID, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE plan_id = ? AND user_id = ?
		 ORDER BY occurred_at IS NULL, occurred_at DESC, created_at DESC, id`, planID, ownerID)
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

func (r *SQLiteRepository) GetExpense(ctx context.Context, id, planID, ownerID string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND plan_id = ? AND user_id = ?`, id, planID, ownerID)
	return scanExpense(row)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id, planID, ownerID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND plan_id = ? AND user_id = ?`, id, planID, ownerID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (core.Plan, error) {
	var (
		p         core.Plan
		budget    sql.NullFloat64
		numPeople sql.NullInt64
		created   string
	)
	err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Content, &p.Destination, &p.StartDate, &p.EndDate,
		&budget, &numPeople, &p.Preferences, &p.Public, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Plan{}, core.ErrNotFound
	}
	if err != nil {
		return core.Plan{}, fmt.Errorf("scan plan: %w", err)
	}
	if budget.Valid {
		p.Budget = &budget.Float64
	}
	if numPeople.Valid {
		n := int(numPeople.Int64)
		p.NumPeople = &n
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return core.Plan{}, err
	}
	return p, nil
}

func scanExpense(row scanner) (core.Expense, error) {
	var (
		e        core.Expense
		occurred sql.NullString
		created  string
	)
	err := row.Scan(&e.ID, &e.PlanID, &e.OwnerID, &e.Amount, &e.Category, &e.Currency, &e.Note, &occurred, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	if occurred.Valid {
		t, err := parseTime(occurred.String)
		if err != nil {
			return core.Expense{}, err
		}
		e.OccurredAt = &t
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// expectOne maps "no row matched the id and owner filter" to core.ErrNotFound.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
