package storage

import (
	"database/sql"
	"strings"
	"time"

	"expense-manager/internal/models"

	"github.com/shopspring/decimal"
)

const expenseColumns = `id, user_id, expense_date, expense_time, amount_cents, subject, description,
	category, payment_method, tags, is_recurring, created_at, updated_at`

// toCents rounds an amount half-up to whole cents.
func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanExpense(row interface{ Scan(...any) error }) (*models.Expense, error) {
	var (
		e           models.Expense
		cents       int64
		description sql.NullString
		tags        sql.NullString
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Date, &e.Time, &cents, &e.Subject, &description,
		&e.Category, &e.PaymentMethod, &tags, &e.Recurring, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Amount = fromCents(cents)
	e.Description = description.String
	e.Tags = tags.String
	return &e, nil
}

// CreateExpense inserts a new expense for ownerID and returns the stored record.
// The owner is not checked for existence.
func (db *DB) CreateExpense(ownerID int64, in models.NewExpense) (*models.Expense, error) {
	in = in.WithDefaults()
	now := db.timestamp()

	result, err := db.conn.Exec(`
		INSERT INTO expenses (user_id, expense_date, expense_time, amount_cents, subject, description,
			category, payment_method, tags, is_recurring, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, in.Date, in.Time, toCents(in.Amount), in.Subject, nullable(in.Description),
		in.Category, in.PaymentMethod, nullable(in.Tags), in.Recurring, now, now,
	)
	if err != nil {
		return nil, wrap("create expense", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, wrap("create expense", err)
	}
	return db.GetExpense(id)
}

// GetExpense retrieves a single expense by ID.
func (db *DB) GetExpense(id int64) (*models.Expense, error) {
	e, err := scanExpense(db.conn.QueryRow("SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id))
	if err != nil {
		return nil, notFound("get expense", err)
	}
	return e, nil
}

// GetExpenseForOwner retrieves an expense only if it belongs to ownerID.
// An expense owned by someone else is reported as ErrNotFound.
func (db *DB) GetExpenseForOwner(id, ownerID int64) (*models.Expense, error) {
	e, err := scanExpense(db.conn.QueryRow(
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ? AND user_id = ?",
		id, ownerID,
	))
	if err != nil {
		return nil, notFound("get expense", err)
	}
	return e, nil
}

// whereClause accumulates SQL conditions and their arguments.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) String() string {
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (db *DB) expenseWhere(ownerID int64, f models.ExpenseFilter) *whereClause {
	w := &whereClause{}
	w.add("user_id = ?", ownerID)

	today := db.now()
	switch f.Period {
	case models.PeriodToday:
		w.add("expense_date = ?", today.Format(models.DateLayout))
	case models.PeriodWeek:
		w.add("expense_date >= ?", today.AddDate(0, 0, -7).Format(models.DateLayout))
	case models.PeriodMonth:
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		w.add("expense_date >= ? AND expense_date < ?",
			start.Format(models.DateLayout), start.AddDate(0, 1, 0).Format(models.DateLayout))
	case models.PeriodYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		w.add("expense_date >= ? AND expense_date < ?",
			start.Format(models.DateLayout), start.AddDate(1, 0, 0).Format(models.DateLayout))
	}

	if f.Category != "" && f.Category != "all" {
		w.add("category = ?", f.Category)
	}
	if f.DateFrom != "" {
		w.add("expense_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		w.add("expense_date <= ?", f.DateTo)
	}
	if f.MinAmount != nil {
		w.add("amount_cents >= ?", toCents(*f.MinAmount))
	}
	if f.MaxAmount != nil {
		w.add("amount_cents <= ?", toCents(*f.MaxAmount))
	}
	if f.Search != "" {
		term := "%" + likeEscaper.Replace(f.Search) + "%"
		w.add(`(subject LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`, term, term)
	}
	return w
}

func orderBy(s models.SortOrder) string {
	switch s {
	case models.SortDateAsc:
		return " ORDER BY expense_date ASC, expense_time ASC"
	case models.SortAmountDesc:
		return " ORDER BY amount_cents DESC"
	case models.SortAmountAsc:
		return " ORDER BY amount_cents ASC"
	case models.SortCategory:
		return " ORDER BY category, expense_date DESC, expense_time DESC"
	default:
		return " ORDER BY expense_date DESC, expense_time DESC"
	}
}

// ListExpenses returns ownerID's expenses matching q, along with the number
// of rows the filters matched before pagination.
func (db *DB) ListExpenses(ownerID int64, q models.ExpenseQuery) (*models.ExpensePage, error) {
	where := db.expenseWhere(ownerID, q.Filter)

	page := &models.ExpensePage{Expenses: []models.Expense{}}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM expenses"+where.String(), where.args...).Scan(&page.Total); err != nil {
		return nil, wrap("count expenses", err)
	}

	query := "SELECT " + expenseColumns + " FROM expenses" + where.String() + orderBy(q.Sort)
	args := where.args
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, max(q.Offset, 0))
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, wrap("list expenses", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, wrap("list expenses", err)
		}
		page.Expenses = append(page.Expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list expenses", err)
	}
	return page, nil
}

// ExpenseCategories returns the distinct categories ownerID has used, sorted.
func (db *DB) ExpenseCategories(ownerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT category FROM expenses WHERE user_id = ? ORDER BY category",
		ownerID,
	)
	if err != nil {
		return nil, wrap("list categories", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, wrap("list categories", err)
		}
		categories = append(categories, c)
	}
	return categories, wrap("list categories", rows.Err())
}

// UpdateExpense applies the populated fields of f to expense id and touches
// updated_at. It returns ErrNoOpUpdate when f sets nothing.
func (db *DB) UpdateExpense(id int64, f models.ExpenseFields) error {
	if f.IsEmpty() {
		return ErrNoOpUpdate
	}

	var sets []string
	var args []any
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if f.Date != nil {
		set("expense_date", *f.Date)
	}
	if f.Time != nil {
		set("expense_time", *f.Time)
	}
	if f.Amount != nil {
		set("amount_cents", toCents(*f.Amount))
	}
	if f.Subject != nil {
		set("subject", *f.Subject)
	}
	if f.Description != nil {
		set("description", nullable(*f.Description))
	}
	if f.Category != nil {
		set("category", *f.Category)
	}
	if f.PaymentMethod != nil {
		set("payment_method", *f.PaymentMethod)
	}
	if f.Tags != nil {
		set("tags", nullable(*f.Tags))
	}
	if f.Recurring != nil {
		set("is_recurring", *f.Recurring)
	}
	set("updated_at", db.timestamp())
	args = append(args, id)

	result, err := db.conn.Exec("UPDATE expenses SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return wrap("update expense", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return wrap("update expense", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpense removes an expense by ID. Ownership is not checked and a
// missing ID is not an error; callers authorise before calling.
func (db *DB) DeleteExpense(id int64) error {
	_, err := db.conn.Exec("DELETE FROM expenses WHERE id = ?", id)
	return wrap("delete expense", err)
}
