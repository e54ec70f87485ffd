package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Layouts used for the date and time-of-day columns of an expense.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Defaults applied when an expense is created without a category or payment method.
const (
	DefaultCategory      = "Other"
	DefaultPaymentMethod = "Cash"
)

// SuggestedCategories is the list offered to users. It is not enforced by storage.
var SuggestedCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Bills & Utilities",
	"Entertainment",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Gas",
	"Other",
}

// Expense represents a financial expense record.
type Expense struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Date          string          `json:"expense_date"`
	Time          string          `json:"expense_time"`
	Amount        decimal.Decimal `json:"amount"`
	Subject       string          `json:"subject"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method"`
	Tags          string          `json:"tags"`
	Recurring     bool            `json:"is_recurring"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewExpense carries the fields accepted when creating an expense.
// Empty Category and PaymentMethod fall back to the defaults.
type NewExpense struct {
	Date          string
	Time          string
	Amount        decimal.Decimal
	Subject       string
	Description   string
	Category      string
	PaymentMethod string
	Tags          string
	Recurring     bool
}

// WithDefaults returns a copy with empty optional fields filled in.
func (n NewExpense) WithDefaults() NewExpense {
	if n.Category == "" {
		n.Category = DefaultCategory
	}
	if n.PaymentMethod == "" {
		n.PaymentMethod = DefaultPaymentMethod
	}
	return n
}

// ExpenseFields is a partial update. Nil fields are left untouched.
// The identifier and owner are deliberately absent.
type ExpenseFields struct {
	Date          *string
	Time          *string
	Amount        *decimal.Decimal
	Subject       *string
	Description   *string
	Category      *string
	PaymentMethod *string
	Tags          *string
	Recurring     *bool
}

// IsEmpty reports whether no field is set.
func (f ExpenseFields) IsEmpty() bool {
	return f.Date == nil && f.Time == nil && f.Amount == nil &&
		f.Subject == nil && f.Description == nil && f.Category == nil &&
		f.PaymentMethod == nil && f.Tags == nil && f.Recurring == nil
}

// Category is a per-user category definition. It is persisted but not used
// by any expense operation.
type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Icon      string    `json:"icon"`
	CreatedAt time.Time `json:"created_at"`
}

// BudgetPeriod is the recurrence of a budget.
type BudgetPeriod string

const (
	BudgetMonthly BudgetPeriod = "monthly"
	BudgetWeekly  BudgetPeriod = "weekly"
	BudgetYearly  BudgetPeriod = "yearly"
)

// Budget is a spending limit for a category. Persisted only.
type Budget struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Period    BudgetPeriod    `json:"period"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
