package handlers

import (
	"net/http"
	"strconv"
	"time"

	"expense-manager/internal/models"

	"github.com/shopspring/decimal"
)

// StatsCategoryItem represents a category with its spending statistics.
type StatsCategoryItem struct {
	models.CategoryTotal
	Percentage decimal.Decimal `json:"percentage"`
}

// MonthStatsView is the statistics for a single calendar month.
type MonthStatsView struct {
	Year           int                 `json:"year"`
	Month          int                 `json:"month"`
	MonthName      string              `json:"month_name"`
	Total          decimal.Decimal     `json:"total"`
	Categories     []StatsCategoryItem `json:"categories"`
	Expenses       []models.Expense    `json:"expenses"`
	PrevYear       int                 `json:"prev_year"`
	PrevMonth      int                 `json:"prev_month"`
	NextYear       int                 `json:"next_year"`
	NextMonth      int                 `json:"next_month"`
	IsCurrentMonth bool                `json:"is_current_month"`
}

var hundred = decimal.NewFromInt(100)

// Statistics returns the summary, category breakdown and monthly trend.
func (h *Handlers) Statistics(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	stats, err := h.db.Statistics(user.ID)
	if err != nil {
		h.storageError(w, r, "statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ExpenseSummary returns this year's monthly totals and the category breakdown.
func (h *Handlers) ExpenseSummary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	report, err := h.db.YearToDate(user.ID)
	if err != nil {
		h.storageError(w, r, "expense summary", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// MonthStatistics returns the category breakdown and expenses of one month.
func (h *Handlers) MonthStatistics(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	// Get year and month from query params, default to current month
	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	categoryTotals, err := h.db.CategoryBreakdownForMonth(user.ID, year, time.Month(month))
	if err != nil {
		h.storageError(w, r, "month statistics", err)
		return
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	page, err := h.db.ListExpenses(user.ID, models.ExpenseQuery{
		Filter: models.ExpenseFilter{
			DateFrom: first.Format(models.DateLayout),
			DateTo:   last.Format(models.DateLayout),
		},
		Sort: models.SortDateDesc,
	})
	if err != nil {
		h.storageError(w, r, "month statistics", err)
		return
	}

	total := decimal.Zero
	for _, ct := range categoryTotals {
		total = total.Add(ct.Total)
	}

	categoryItems := make([]StatsCategoryItem, 0, len(categoryTotals))
	for _, ct := range categoryTotals {
		percentage := decimal.Zero
		if total.IsPositive() {
			percentage = ct.Total.Div(total).Mul(hundred).Round(1)
		}
		categoryItems = append(categoryItems, StatsCategoryItem{CategoryTotal: ct, Percentage: percentage})
	}

	prevDate := first.AddDate(0, -1, 0)
	nextDate := first.AddDate(0, 1, 0)

	writeJSON(w, http.StatusOK, MonthStatsView{
		Year:           year,
		Month:          month,
		MonthName:      time.Month(month).String(),
		Total:          total,
		Categories:     categoryItems,
		Expenses:       page.Expenses,
		PrevYear:       prevDate.Year(),
		PrevMonth:      int(prevDate.Month()),
		NextYear:       nextDate.Year(),
		NextMonth:      int(nextDate.Month()),
		IsCurrentMonth: year == now.Year() && month == int(now.Month()),
	})
}
