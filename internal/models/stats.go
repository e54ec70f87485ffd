package models

import "github.com/shopspring/decimal"

// Summary holds all-time and current month totals for one owner.
type Summary struct {
	TotalExpenses   int             `json:"total_expenses"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	MonthlyExpenses int             `json:"monthly_expenses"`
	MonthlyAmount   decimal.Decimal `json:"monthly_amount"`
}

// CategoryTotal is the spending for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Total    decimal.Decimal `json:"total"`
}

// MonthTotal is the spending for one calendar month, keyed as YYYY-MM.
type MonthTotal struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Report pairs the current year's monthly totals with the all-time
// category breakdown.
type Report struct {
	Monthly    []MonthTotal    `json:"monthly"`
	Categories []CategoryTotal `json:"categories"`
}

// Statistics is the full statistics view for an owner.
type Statistics struct {
	Summary
	Categories   []CategoryTotal `json:"categories"`
	MonthlyTrend []MonthTotal    `json:"monthly_trend"`
}
