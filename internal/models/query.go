package models

import "github.com/shopspring/decimal"

// SortOrder selects the ordering of an expense listing.
type SortOrder string

const (
	SortDateDesc   SortOrder = "date_desc"
	SortDateAsc    SortOrder = "date_asc"
	SortAmountDesc SortOrder = "amount_desc"
	SortAmountAsc  SortOrder = "amount_asc"
	SortCategory   SortOrder = "category"
)

// ParseSortOrder maps a query value to a SortOrder, defaulting to SortDateDesc.
func ParseSortOrder(s string) SortOrder {
	switch o := SortOrder(s); o {
	case SortDateDesc, SortDateAsc, SortAmountDesc, SortAmountAsc, SortCategory:
		return o
	default:
		return SortDateDesc
	}
}

// Period is a relative date window anchored at today.
type Period string

const (
	PeriodAll   Period = "all"
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod maps a query value to a Period, defaulting to PeriodAll.
func ParsePeriod(s string) Period {
	switch p := Period(s); p {
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodYear:
		return p
	default:
		return PeriodAll
	}
}

// ExpenseFilter narrows an expense listing. Zero values disable a filter.
type ExpenseFilter struct {
	Period    Period
	Category  string // "" or "all" matches every category
	DateFrom  string
	DateTo    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Search    string
}

// ExpenseQuery combines filters, ordering and pagination.
// A Limit of zero returns every matching row.
type ExpenseQuery struct {
	Filter ExpenseFilter
	Sort   SortOrder
	Limit  int
	Offset int
}

// ExpensePage is one page of a listing along with the number of rows matched
// by the filters before pagination.
type ExpensePage struct {
	Expenses []Expense `json:"expenses"`
	Total    int       `json:"total"`
}
