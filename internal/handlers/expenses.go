package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	applog "expense-manager/internal/log"
	"expense-manager/internal/models"
	"expense-manager/internal/storage"
	"expense-manager/internal/validation"

	"github.com/shopspring/decimal"
)

// DashboardRecentLimit is the number of recent expenses shown on the dashboard.
const DashboardRecentLimit = 5

// Form field names for the optional expense attributes.
const (
	fieldCategory      = "category"
	fieldPaymentMethod = "payment_method"
	fieldTags          = "tags"
	fieldRecurring     = "is_recurring"
)

// DashboardView is the landing summary for the signed in user.
type DashboardView struct {
	Recent        []models.Expense `json:"recent"`
	MonthlyTotal  decimal.Decimal  `json:"monthly_total"`
	MonthlyCount  int              `json:"monthly_count"`
	TotalExpenses int              `json:"total_expenses"`
}

// ExpenseListView is one page of the expense list.
type ExpenseListView struct {
	models.ExpensePage
	TotalAmount decimal.Decimal `json:"total_amount"`
	Limit       int             `json:"limit"`
	Offset      int             `json:"offset"`
}

// CategoriesView lists the suggested categories and those the user has used.
type CategoriesView struct {
	Suggested []string `json:"suggested"`
	Used      []string `json:"used"`
}

// Dashboard returns the most recent expenses and the current month total.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	page, err := h.db.ListExpenses(user.ID, models.ExpenseQuery{Sort: models.SortDateDesc, Limit: DashboardRecentLimit})
	if err != nil {
		h.storageError(w, r, "dashboard", err)
		return
	}
	summary, err := h.db.Summary(user.ID)
	if err != nil {
		h.storageError(w, r, "dashboard", err)
		return
	}

	writeJSON(w, http.StatusOK, DashboardView{
		Recent:        page.Expenses,
		MonthlyTotal:  summary.MonthlyAmount,
		MonthlyCount:  summary.MonthlyExpenses,
		TotalExpenses: summary.TotalExpenses,
	})
}

// Categories returns the suggested category list and the user's own categories.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	used, err := h.db.ExpenseCategories(user.ID)
	if err != nil {
		h.storageError(w, r, "categories", err)
		return
	}
	writeJSON(w, http.StatusOK, CategoriesView{Suggested: models.SuggestedCategories, Used: used})
}

// ListExpenses returns a filtered, sorted page of the user's expenses.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	q, err := parseExpenseQuery(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	page, err := h.db.ListExpenses(user.ID, q)
	if err != nil {
		h.storageError(w, r, "list expenses", err)
		return
	}

	total := decimal.Zero
	for _, e := range page.Expenses {
		total = total.Add(e.Amount)
	}
	writeJSON(w, http.StatusOK, ExpenseListView{ExpensePage: *page, TotalAmount: total, Limit: q.Limit, Offset: q.Offset})
}

// CreateExpense validates the submitted form and stores a new expense.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	in, err := parseNewExpense(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	expense, err := h.db.CreateExpense(user.ID, in)
	if err != nil {
		h.storageError(w, r, "create expense", err)
		return
	}

	h.log(r).InfoContext(r.Context(), "Expense created",
		applog.FieldUserID, user.ID, applog.FieldExpenseID, expense.ID)
	writeJSON(w, http.StatusCreated, expense)
}

// GetExpense returns one of the user's expenses.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := h.ownedExpense(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, expense)
}

// UpdateExpense applies the supplied form fields to one of the user's expenses.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := h.ownedExpense(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form submission")
		return
	}

	fields, err := parseExpenseFields(r)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.db.UpdateExpense(expense.ID, fields); err != nil {
		h.storageError(w, r, "update expense", err)
		return
	}

	updated, err := h.db.GetExpense(expense.ID)
	if err != nil {
		h.storageError(w, r, "update expense", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteExpense removes one of the user's expenses.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	expense, ok := h.ownedExpense(w, r)
	if !ok {
		return
	}

	if err := h.db.DeleteExpense(expense.ID); err != nil {
		h.storageError(w, r, "delete expense", err)
		return
	}

	h.log(r).InfoContext(r.Context(), "Expense deleted",
		applog.FieldUserID, expense.UserID, applog.FieldExpenseID, expense.ID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedExpense loads the expense named by the {id} path value. Expenses of
// other users are reported as not found.
func (h *Handlers) ownedExpense(w http.ResponseWriter, r *http.Request) (*models.Expense, bool) {
	user := GetUserFromContext(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid expense ID")
		return nil, false
	}

	expense, err := h.db.GetExpenseForOwner(id, user.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Expense not found")
		} else {
			h.storageError(w, r, "get expense", err)
		}
		return nil, false
	}
	return expense, true
}

func parseExpenseQuery(r *http.Request) (models.ExpenseQuery, error) {
	v := r.URL.Query()
	q := models.ExpenseQuery{
		Filter: models.ExpenseFilter{
			Period:   models.ParsePeriod(v.Get("filter")),
			Category: strings.TrimSpace(v.Get("category")),
			Search:   strings.TrimSpace(v.Get("search")),
		},
		Sort: models.ParseSortOrder(v.Get("sort")),
	}

	var msgs []string
	for _, p := range []struct {
		name string
		dst  *string
	}{
		{"date_from", &q.Filter.DateFrom},
		{"date_to", &q.Filter.DateTo},
	} {
		s := strings.TrimSpace(v.Get(p.name))
		if s == "" {
			continue
		}
		if _, err := time.Parse(models.DateLayout, s); err != nil {
			msgs = append(msgs, p.name+" must be in YYYY-MM-DD format")
			continue
		}
		*p.dst = s
	}

	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"min_amount", &q.Filter.MinAmount},
		{"max_amount", &q.Filter.MaxAmount},
	} {
		s := strings.TrimSpace(v.Get(p.name))
		if s == "" {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			msgs = append(msgs, p.name+" must be a number")
			continue
		}
		*p.dst = &d
	}

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &q.Limit},
		{"offset", &q.Offset},
	} {
		s := strings.TrimSpace(v.Get(p.name))
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			msgs = append(msgs, p.name+" must be a non-negative integer")
			continue
		}
		*p.dst = n
	}

	return q, invalid(msgs)
}

func expenseInput(r *http.Request) validation.ExpenseInput {
	return validation.ExpenseInput{
		Amount:      r.PostFormValue(validation.FieldAmount),
		Subject:     r.PostFormValue(validation.FieldSubject),
		Date:        r.PostFormValue(validation.FieldDate),
		Time:        r.PostFormValue(validation.FieldTime),
		Description: r.PostFormValue(validation.FieldDescription),
	}
}

func parseNewExpense(r *http.Request) (models.NewExpense, error) {
	in := expenseInput(r)
	if err := validation.Check(in); err != nil {
		return models.NewExpense{}, err
	}

	var msgs []string
	date, err := normalizeDate(in.Date)
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	tm, err := normalizeTime(in.Time)
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	recurring, err := parseBool(r.PostFormValue(fieldRecurring))
	if err != nil {
		msgs = append(msgs, err.Error())
	}
	if len(msgs) > 0 {
		return models.NewExpense{}, invalid(msgs)
	}

	return models.NewExpense{
		Date:          date,
		Time:          tm,
		Amount:        decimal.RequireFromString(strings.TrimSpace(in.Amount)),
		Subject:       strings.TrimSpace(in.Subject),
		Description:   strings.TrimSpace(in.Description),
		Category:      strings.TrimSpace(r.PostFormValue(fieldCategory)),
		PaymentMethod: strings.TrimSpace(r.PostFormValue(fieldPaymentMethod)),
		Tags:          strings.TrimSpace(r.PostFormValue(fieldTags)),
		Recurring:     recurring,
	}.WithDefaults(), nil
}

// parseExpenseFields reads a partial update. Only fields present in the form
// are set; unknown fields are ignored.
func parseExpenseFields(r *http.Request) (models.ExpenseFields, error) {
	present := func(field string) bool {
		_, ok := r.PostForm[field]
		return ok
	}

	in := expenseInput(r)
	if err := validation.CheckPartial(in, present); err != nil {
		return models.ExpenseFields{}, err
	}

	var f models.ExpenseFields
	var msgs []string

	if present(validation.FieldAmount) {
		d := decimal.RequireFromString(strings.TrimSpace(in.Amount))
		f.Amount = &d
	}
	if present(validation.FieldSubject) {
		s := strings.TrimSpace(in.Subject)
		f.Subject = &s
	}
	if present(validation.FieldDescription) {
		s := strings.TrimSpace(in.Description)
		f.Description = &s
	}
	if present(validation.FieldDate) {
		if d, err := normalizeDate(in.Date); err != nil {
			msgs = append(msgs, err.Error())
		} else {
			f.Date = &d
		}
	}
	if present(validation.FieldTime) {
		if t, err := normalizeTime(in.Time); err != nil {
			msgs = append(msgs, err.Error())
		} else {
			f.Time = &t
		}
	}
	if present(fieldCategory) {
		c := strings.TrimSpace(r.PostFormValue(fieldCategory))
		if c == "" {
			c = models.DefaultCategory
		}
		f.Category = &c
	}
	if present(fieldPaymentMethod) {
		p := strings.TrimSpace(r.PostFormValue(fieldPaymentMethod))
		if p == "" {
			p = models.DefaultPaymentMethod
		}
		f.PaymentMethod = &p
	}
	if present(fieldTags) {
		t := strings.TrimSpace(r.PostFormValue(fieldTags))
		f.Tags = &t
	}
	if present(fieldRecurring) {
		if b, err := parseBool(r.PostFormValue(fieldRecurring)); err != nil {
			msgs = append(msgs, err.Error())
		} else {
			f.Recurring = &b
		}
	}

	return f, invalid(msgs)
}

func normalizeDate(s string) (string, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return "", errors.New("Expense date must be in YYYY-MM-DD format")
	}
	return d.Format(models.DateLayout), nil
}

// normalizeTime accepts HH:MM or HH:MM:SS and stores HH:MM.
func normalizeTime(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{models.TimeLayout, time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(models.TimeLayout), nil
		}
	}
	return "", errors.New("Expense time must be in HH:MM format")
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes":
		return true, nil
	}
	return false, errors.New("is_recurring must be a boolean")
}

// invalid wraps msgs in a *validation.Error, or returns nil when there are none.
func invalid(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &validation.Error{Messages: msgs}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Validation failed", Errors: verr.Messages})
}
