package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"centrefunds/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored UTC timestamps compare lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var ErrRunExists = errors.New("allocation run already exists for range")

const allocationColumns = `centre_id, centre_name, revenue_code, revenue_code_description, period_date,
	original_amount, expenditure_amount, profit_amount_per_centre_report, difference_on_markup,
	contribution_to_central_fund, facilitation_of_central_activities, facilitation_of_zonal_activities,
	facilitation_of_centre_activities, support_to_production_unit, contribution_to_centre_fund,
	depreciation_incentive_to_facilitators, remitted_to_centre`

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertCentre inserts a centre, or updates it when c.ID already exists.
func (r *SQLiteRepository) UpsertCentre(ctx context.Context, c core.Centre) (core.Centre, error) {
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("validate centre: %w", err)
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO centres (id, name, code) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, code = excluded.code
		RETURNING id`,
		nullID(c.ID), strings.TrimSpace(c.Name), strings.TrimSpace(c.Code),
	).Scan(&c.ID)
	if err != nil {
		return c, fmt.Errorf("upsert centre: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCentres(ctx context.Context) ([]core.Centre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, code FROM centres ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list centres: %w", err)
	}
	defer rows.Close()

	var centres []core.Centre
	for rows.Next() {
		var c core.Centre
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, fmt.Errorf("scan centre: %w", err)
		}
		centres = append(centres, c)
	}
	return centres, rows.Err()
}

// UpsertCategory inserts a revenue category keyed by its code, updating the
// description and markup of an existing one.
func (r *SQLiteRepository) UpsertCategory(ctx context.Context, c core.RevenueCategory) (core.RevenueCategory, error) {
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("validate category: %w", err)
	}
	if err := upsertCategory(ctx, r.db, &c); err != nil {
		return c, err
	}
	return c, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertCategory(ctx context.Context, q queryRower, c *core.RevenueCategory) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO revenue_categories (id, code, description, markup_percent) VALUES (?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET description = excluded.description, markup_percent = excluded.markup_percent
		RETURNING id`,
		nullID(c.ID), strings.TrimSpace(c.Code), strings.TrimSpace(c.Description), c.MarkupPercent,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.Code, err)
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.RevenueCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, code, description, markup_percent FROM revenue_categories ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.RevenueCategory
	for rows.Next() {
		var c core.RevenueCategory
		if err := rows.Scan(&c.ID, &c.Code, &c.Description, &c.MarkupPercent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SeedCategories inserts categories when the catalog is empty and returns how
// many were inserted.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, categories []core.RevenueCategory) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM revenue_categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	for _, c := range categories {
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("validate category %s: %w", c.Code, err)
		}
		c.ID = 0
		if err := upsertCategory(ctx, tx, &c); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}

	slog.InfoContext(ctx, "Revenue categories seeded", "count", len(categories))
	return len(categories), nil
}

func (r *SQLiteRepository) InsertPayment(ctx context.Context, p core.PaymentRecord) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, fmt.Errorf("validate payment: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (amount, payment_date, centre_id, category_id, description, control_number)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Amount.String(), formatTime(p.PaymentDate), p.CentreID, nullID(p.CategoryID),
		p.Description, p.ControlNumber,
	)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read payment id: %w", err)
	}
	return id, nil
}

// ListPayments returns payments dated within [start, end], oldest first.
func (r *SQLiteRepository) ListPayments(ctx context.Context, start, end time.Time) ([]core.PaymentRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, payment_date, centre_id, category_id, description, control_number
		FROM payments
		WHERE payment_date BETWEEN ? AND ?
		ORDER BY payment_date, id`,
		formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []core.PaymentRecord
	for rows.Next() {
		var (
			p          core.PaymentRecord
			amount     string
			paidAt     string
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &amount, &paidAt, &p.CentreID, &categoryID, &p.Description, &p.ControlNumber); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse payment %d amount %q: %w", p.ID, amount, err)
		}
		if p.PaymentDate, err = parseTime(paidAt); err != nil {
			return nil, fmt.Errorf("parse payment %d date: %w", p.ID, err)
		}
		p.CategoryID = categoryID.Int64
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveRun stores a closed period and its allocations in one transaction.
// It returns ErrRunExists when the range was already closed.
func (r *SQLiteRepository) SaveRun(ctx context.Context, run core.AllocationRun, allocations []core.Allocation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run transaction: %w", err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT id FROM allocation_runs WHERE start_date = ? AND end_date = ?`,
		formatTime(run.Start), formatTime(run.End)).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrRunExists, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check existing run: %w", err)
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO allocation_runs (id, start_date, end_date, month, year, triggered_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, formatTime(run.Start), formatTime(run.End), run.Month, run.Year, run.Trigger, formatTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO allocations (run_id, month, year, `+allocationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare allocation insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range allocations {
		var periodDate sql.NullString
		if a.PeriodDate != nil {
			periodDate = sql.NullString{String: formatTime(*a.PeriodDate), Valid: true}
		}
		args := []any{run.ID, run.Month, run.Year,
			a.CentreID, a.CentreName, a.RevenueCode, a.RevenueCodeDescription, periodDate}
		for _, amount := range a.Amounts() {
			args = append(args, amount.String())
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert allocation for centre %d code %s: %w", a.CentreID, a.RevenueCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run transaction: %w", err)
	}

	slog.InfoContext(ctx, "Allocation run saved",
		"run_id", run.ID,
		"range_start", run.Start,
		"range_end", run.End,
		"allocations", len(allocations))
	return nil
}

// GetRun returns core.ErrNotFound when no run has the given id.
func (r *SQLiteRepository) GetRun(ctx context.Context, id string) (core.AllocationRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, month, year, triggered_by, created_at
		FROM allocation_runs WHERE id = ?`, id)
	return scanRun(row)
}

// FindRun returns the run closing exactly [start, end], or core.ErrNotFound.
func (r *SQLiteRepository) FindRun(ctx context.Context, start, end time.Time) (core.AllocationRun, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, start_date, end_date, month, year, triggered_by, created_at
		FROM allocation_runs WHERE start_date = ? AND end_date = ?`,
		formatTime(start), formatTime(end))
	return scanRun(row)
}

func scanRun(row *sql.Row) (core.AllocationRun, error) {
	var (
		run                   core.AllocationRun
		start, end, createdAt string
	)
	err := row.Scan(&run.ID, &start, &end, &run.Month, &run.Year, &run.Trigger, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return run, core.ErrNotFound
	}
	if err != nil {
		return run, fmt.Errorf("scan run: %w", err)
	}
	if run.Start, err = parseTime(start); err != nil {
		return run, err
	}
	if run.End, err = parseTime(end); err != nil {
		return run, err
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return run, err
	}
	return run, nil
}

// ListAllocations returns the stored allocations of every run whose period
// lies within [start, end], ordered by period then centre and revenue code.
func (r *SQLiteRepository) ListAllocations(ctx context.Context, start, end time.Time) ([]core.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prefixed("a.", allocationColumns)+`
		FROM allocations a
		JOIN allocation_runs r ON r.id = a.run_id
		WHERE r.start_date >= ? AND r.end_date <= ?
		ORDER BY r.start_date, a.centre_name, a.centre_id, a.revenue_code`,
		formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return scanAllocations(rows)
}

// ListRunAllocations returns the allocations stored with a single run.
func (r *SQLiteRepository) ListRunAllocations(ctx context.Context, runID string) ([]core.Allocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE run_id = ?
		ORDER BY centre_name, centre_id, revenue_code`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run allocations: %w", err)
	}
	return scanAllocations(rows)
}

func scanAllocations(rows *sql.Rows) ([]core.Allocation, error) {
	defer rows.Close()

	var allocations []core.Allocation
	for rows.Next() {
		var (
			a          core.Allocation
			periodDate sql.NullString
			amounts    = make([]string, len(core.AmountColumns))
		)
		dest := []any{&a.CentreID, &a.CentreName, &a.RevenueCode, &a.RevenueCodeDescription, &periodDate}
		for i := range amounts {
			dest = append(dest, &amounts[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}

		if periodDate.Valid {
			t, err := parseTime(periodDate.String)
			if err != nil {
				return nil, err
			}
			a.PeriodDate = &t
		}

		values := make([]decimal.Decimal, len(amounts))
		for i, s := range amounts {
			v, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("parse %s %q: %w", core.AmountColumns[i], s, err)
			}
			values[i] = v
		}
		a.SetAmounts(values)
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}
