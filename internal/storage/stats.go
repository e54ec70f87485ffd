package storage

import (
	"database/sql"
	"time"

	"expense-manager/internal/models"
)

// DefaultTrendMonths is the trailing window used by MonthlyTrend when none is given.
const DefaultTrendMonths = 12

func monthBounds(year int, month time.Month, loc *time.Location) (string, string) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start.Format(models.DateLayout), start.AddDate(0, 1, 0).Format(models.DateLayout)
}

// Summary returns all-time and current month totals for ownerID. The month is
// taken from the server's local clock.
func (db *DB) Summary(ownerID int64) (*models.Summary, error) {
	var s models.Summary
	var cents int64

	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE user_id = ?",
		ownerID,
	).Scan(&s.TotalExpenses, &cents)
	if err != nil {
		return nil, wrap("summary", err)
	}
	s.TotalAmount = fromCents(cents)

	now := db.now()
	from, to := monthBounds(now.Year(), now.Month(), now.Location())
	err = db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses
		WHERE user_id = ? AND expense_date >= ? AND expense_date < ?`,
		ownerID, from, to,
	).Scan(&s.MonthlyExpenses, &cents)
	if err != nil {
		return nil, wrap("summary", err)
	}
	s.MonthlyAmount = fromCents(cents)

	return &s, nil
}

// CategoryBreakdown groups all of ownerID's expenses by category, largest total first.
func (db *DB) CategoryBreakdown(ownerID int64) ([]models.CategoryTotal, error) {
	rows, err := db.conn.Query(`
		SELECT category, COUNT(*), SUM(amount_cents) AS total
		FROM expenses WHERE user_id = ?
		GROUP BY category ORDER BY total DESC`,
		ownerID,
	)
	if err != nil {
		return nil, wrap("category breakdown", err)
	}
	return scanCategoryTotals(rows)
}

// CategoryBreakdownForMonth is CategoryBreakdown restricted to one calendar month.
func (db *DB) CategoryBreakdownForMonth(ownerID int64, year int, month time.Month) ([]models.CategoryTotal, error) {
	from, to := monthBounds(year, month, time.UTC)
	rows, err := db.conn.Query(`
		SELECT category, COUNT(*), SUM(amount_cents) AS total
		FROM expenses WHERE user_id = ? AND expense_date >= ? AND expense_date < ?
		GROUP BY category ORDER BY total DESC`,
		ownerID, from, to,
	)
	if err != nil {
		return nil, wrap("category breakdown", err)
	}
	return scanCategoryTotals(rows)
}

func scanCategoryTotals(rows *sql.Rows) ([]models.CategoryTotal, error) {
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		var cents int64
		if err := rows.Scan(&ct.Category, &ct.Count, &cents); err != nil {
			return nil, wrap("category breakdown", err)
		}
		ct.Total = fromCents(cents)
		totals = append(totals, ct)
	}
	return totals, wrap("category breakdown", rows.Err())
}

// MonthlyTrend returns per-month totals for the trailing window of months
// ending today, oldest first. Months without expenses are omitted.
func (db *DB) MonthlyTrend(ownerID int64, months int) ([]models.MonthTotal, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	since := db.now().AddDate(0, -months, 0).Format(models.DateLayout)

	rows, err := db.conn.Query(`
		SELECT substr(expense_date, 1, 7) AS month, COUNT(*), SUM(amount_cents)
		FROM expenses WHERE user_id = ? AND expense_date >= ?
		GROUP BY month ORDER BY month`,
		ownerID, since,
	)
	if err != nil {
		return nil, wrap("monthly trend", err)
	}
	return scanMonthTotals(rows)
}

// YearToDate returns the current calendar year's monthly totals together with
// the all-time category breakdown.
func (db *DB) YearToDate(ownerID int64) (*models.Report, error) {
	now := db.now()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())

	rows, err := db.conn.Query(`
		SELECT substr(expense_date, 1, 7) AS month, COUNT(*), SUM(amount_cents)
		FROM expenses WHERE user_id = ? AND expense_date >= ? AND expense_date < ?
		GROUP BY month ORDER BY month`,
		ownerID, from.Format(models.DateLayout), from.AddDate(1, 0, 0).Format(models.DateLayout),
	)
	if err != nil {
		return nil, wrap("year to date", err)
	}
	monthly, err := scanMonthTotals(rows)
	if err != nil {
		return nil, err
	}

	categories, err := db.CategoryBreakdown(ownerID)
	if err != nil {
		return nil, err
	}
	return &models.Report{Monthly: monthly, Categories: categories}, nil
}

func scanMonthTotals(rows *sql.Rows) ([]models.MonthTotal, error) {
	defer rows.Close()

	totals := []models.MonthTotal{}
	for rows.Next() {
		var mt models.MonthTotal
		var cents int64
		if err := rows.Scan(&mt.Month, &mt.Count, &cents); err != nil {
			return nil, wrap("monthly totals", err)
		}
		mt.Total = fromCents(cents)
		totals = append(totals, mt)
	}
	return totals, wrap("monthly totals", rows.Err())
}

// Statistics gathers the summary, category breakdown and 12 month trend.
// The reads are not isolated from concurrent writes.
func (db *DB) Statistics(ownerID int64) (*models.Statistics, error) {
	summary, err := db.Summary(ownerID)
	if err != nil {
		return nil, err
	}
	categories, err := db.CategoryBreakdown(ownerID)
	if err != nil {
		return nil, err
	}
	trend, err := db.MonthlyTrend(ownerID, DefaultTrendMonths)
	if err != nil {
		return nil, err
	}
	return &models.Statistics{Summary: *summary, Categories: categories, MonthlyTrend: trend}, nil
}
