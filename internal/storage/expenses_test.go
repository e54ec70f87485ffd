package storage

import (
	"fmt"
	"testing"
	"time"

	"expense-manager/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ExpenseTestSuite provides a test suite for expense operations
type ExpenseTestSuite struct {
	suite.Suite
	db    *DB
	owner int64
	other int64
}

// SetupTest runs before each test
func (suite *ExpenseTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())

	alice, err := suite.db.CreateUser("alice", "a@x.com", "pw123")
	require.NoError(suite.T(), err)
	bob, err := suite.db.CreateUser("bob", "b@x.com", "pw456")
	require.NoError(suite.T(), err)
	suite.owner, suite.other = alice.ID, bob.ID
}

func (suite *ExpenseTestSuite) create(owner int64, in models.NewExpense) *models.Expense {
	e, err := suite.db.CreateExpense(owner, in)
	require.NoError(suite.T(), err, "failed to create expense: %s", in.Subject)
	return e
}

func (suite *ExpenseTestSuite) subjects(page *models.ExpensePage) []string {
	out := make([]string, 0, len(page.Expenses))
	for _, e := range page.Expenses {
		out = append(out, e.Subject)
	}
	return out
}

func (suite *ExpenseTestSuite) TestCreateExpenseAppliesDefaults() {
	e := suite.create(suite.owner, models.NewExpense{
		Date: "2024-01-10", Time: "09:00", Amount: dec("50.00"), Subject: "Coffee",
	})

	assert.NotZero(suite.T(), e.ID)
	assert.Equal(suite.T(), suite.owner, e.UserID)
	assert.Equal(suite.T(), models.DefaultCategory, e.Category)
	assert.Equal(suite.T(), models.DefaultPaymentMethod, e.PaymentMethod)
	assert.Empty(suite.T(), e.Description)
	assert.Empty(suite.T(), e.Tags)
	assert.False(suite.T(), e.Recurring)
	assert.WithinDuration(suite.T(), fixedNow, e.CreatedAt, time.Second)
	assert.WithinDuration(suite.T(), fixedNow, e.UpdatedAt, time.Second)
}

func (suite *ExpenseTestSuite) TestGetExpenseRoundTrip() {
	f := gofakeit.New(7)
	for i := range 25 {
		in := models.NewExpense{
			Date:          f.DateRange(fixedNow.AddDate(-2, 0, 0), fixedNow).Format(models.DateLayout),
			Time:          fmt.Sprintf("%02d:%02d", f.Hour(), f.Minute()),
			Amount:        dec(fmt.Sprintf("%d.%02d", f.Number(0, 99999), f.Number(1, 99))),
			Subject:       f.Sentence(3),
			Description:   f.Sentence(8),
			Category:      f.RandomString(models.SuggestedCategories),
			PaymentMethod: f.RandomString([]string{"Cash", "Card", "UPI"}),
			Tags:          f.Word(),
			Recurring:     f.Bool(),
		}
		created := suite.create(suite.owner, in)

		got, err := suite.db.GetExpenseForOwner(created.ID, suite.owner)
		require.NoError(suite.T(), err, "iteration %d", i)

		assert.Equal(suite.T(), created.ID, got.ID)
		assert.Equal(suite.T(), suite.owner, got.UserID)
		assert.Equal(suite.T(), in.Date, got.Date)
		assert.Equal(suite.T(), in.Time, got.Time)
		assert.True(suite.T(), in.Amount.Equal(got.Amount), "amount %s != %s", in.Amount, got.Amount)
		assert.Equal(suite.T(), in.Subject, got.Subject)
		assert.Equal(suite.T(), in.Description, got.Description)
		assert.Equal(suite.T(), in.Category, got.Category)
		assert.Equal(suite.T(), in.PaymentMethod, got.PaymentMethod)
		assert.Equal(suite.T(), in.Tags, got.Tags)
		assert.Equal(suite.T(), in.Recurring, got.Recurring)
	}
}

func (suite *ExpenseTestSuite) TestAmountStoredExactly() {
	for _, amount := range []string{"0.01", "0.10", "12.34", "999999.99", "1000000"} {
		e := suite.create(suite.owner, expense("2024-01-10", "09:00", amount, "Exact", "Other"))

		got, err := suite.db.GetExpense(e.ID)
		require.NoError(suite.T(), err)
		assert.True(suite.T(), dec(amount).Equal(got.Amount), "%s stored as %s", amount, got.Amount)
		assert.True(suite.T(), got.Amount.IsPositive())
	}
}

func (suite *ExpenseTestSuite) TestGetExpenseOwnerScoping() {
	e := suite.create(suite.owner, expense("2024-01-10", "09:00", "5", "Mine", "Other"))

	_, err := suite.db.GetExpenseForOwner(e.ID, suite.other)
	assert.ErrorIs(suite.T(), err, ErrNotFound, "other owner must not see the row")

	got, err := suite.db.GetExpense(e.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), e.ID, got.ID)

	_, err = suite.db.GetExpense(9999)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// Creating an expense for an unknown owner is accepted; the owner is not checked.
func (suite *ExpenseTestSuite) TestCreateExpenseOrphanOwner() {
	e, err := suite.db.CreateExpense(9999, expense("2024-01-10", "09:00", "1", "Orphan", "Other"))
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(9999), e.UserID)
}

func (suite *ExpenseTestSuite) TestListExpensesSorting() {
	suite.create(suite.owner, expense("2024-06-01", "08:00", "20", "Bus", "Transportation"))
	suite.create(suite.owner, expense("2024-06-01", "12:30", "5", "Coffee", "Food & Dining"))
	suite.create(suite.owner, expense("2024-05-20", "19:00", "15", "Snack", "Food & Dining"))
	suite.create(suite.other, expense("2024-06-02", "10:00", "99", "Not mine", "Other"))

	tests := []struct {
		sort models.SortOrder
		want []string
	}{
		{"", []string{"Coffee", "Bus", "Snack"}},
		{models.SortDateDesc, []string{"Coffee", "Bus", "Snack"}},
		{models.SortDateAsc, []string{"Snack", "Bus", "Coffee"}},
		{models.SortAmountDesc, []string{"Bus", "Snack", "Coffee"}},
		{models.SortAmountAsc, []string{"Coffee", "Snack", "Bus"}},
		{models.SortCategory, []string{"Coffee", "Snack", "Bus"}},
	}
	for _, tt := range tests {
		suite.Run(string(tt.sort), func() {
			page, err := suite.db.ListExpenses(suite.owner, models.ExpenseQuery{Sort: tt.sort})
			require.NoError(suite.T(), err)
			assert.Equal(suite.T(), tt.want, suite.subjects(page))
			assert.Equal(suite.T(), 3, page.Total)
		})
	}
}

func (suite *ExpenseTestSuite) TestListExpensesFilters() {
	suite.create(suite.owner, models.NewExpense{Date: "2024-06-10", Time: "08:00", Amount: dec("12.50"),
		Subject: "Lunch", Description: "Sandwich at the CAFE", Category: "Food & Dining"})
	suite.create(suite.owner, expense("2024-06-12", "09:00", "40", "Fuel", "Gas"))
	suite.create(suite.owner, expense("2024-05-02", "10:00", "300", "Rent share", "Bills & Utilities"))
	suite.create(suite.owner, expense("2023-12-31", "23:59", "7", "Cafe latte", "Food & Dining"))
	suite.create(suite.owner, expense("2024-06-15", "07:00", "3", "100% juice", "Groceries"))

	minAmount, maxAmount := dec("10"), dec("40")

	tests := []struct {
		name   string
		filter models.ExpenseFilter
		want   []string
	}{
		{"none", models.ExpenseFilter{}, []string{"100% juice", "Fuel", "Lunch", "Rent share", "Cafe latte"}},
		{"category all", models.ExpenseFilter{Category: "all"}, []string{"100% juice", "Fuel", "Lunch", "Rent share", "Cafe latte"}},
		{"category", models.ExpenseFilter{Category: "Food & Dining"}, []string{"Lunch", "Cafe latte"}},
		{"category is case sensitive", models.ExpenseFilter{Category: "gas"}, []string{}},
		{"date range", models.ExpenseFilter{DateFrom: "2024-05-02", DateTo: "2024-06-10"}, []string{"Lunch", "Rent share"}},
		{"amount range", models.ExpenseFilter{MinAmount: &minAmount, MaxAmount: &maxAmount}, []string{"Fuel", "Lunch"}},
		{"search subject", models.ExpenseFilter{Search: "cafe"}, []string{"Lunch", "Cafe latte"}},
		{"search is literal", models.ExpenseFilter{Search: "0%"}, []string{"100% juice"}},
		{"today", models.ExpenseFilter{Period: models.PeriodToday}, []string{"100% juice"}},
		{"week", models.ExpenseFilter{Period: models.PeriodWeek}, []string{"100% juice", "Fuel", "Lunch"}},
		{"month", models.ExpenseFilter{Period: models.PeriodMonth}, []string{"100% juice", "Fuel", "Lunch"}},
		{"year", models.ExpenseFilter{Period: models.PeriodYear}, []string{"100% juice", "Fuel", "Lunch", "Rent share"}},
		{"combined", models.ExpenseFilter{Period: models.PeriodYear, Category: "Food & Dining", Search: "sandwich"}, []string{"Lunch"}},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			page, err := suite.db.ListExpenses(suite.owner, models.ExpenseQuery{Filter: tt.filter})
			require.NoError(suite.T(), err)
			assert.Equal(suite.T(), tt.want, suite.subjects(page))
			assert.Equal(suite.T(), len(tt.want), page.Total)
		})
	}
}

func (suite *ExpenseTestSuite) TestListExpensesPagination() {
	for day := 1; day <= 7; day++ {
		suite.create(suite.owner, expense(fmt.Sprintf("2024-06-%02d", day), "12:00", "1", fmt.Sprintf("day %d", day), "Other"))
	}

	page, err := suite.db.ListExpenses(suite.owner, models.ExpenseQuery{Limit: 3, Offset: 2})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"day 5", "day 4", "day 3"}, suite.subjects(page))
	assert.Equal(suite.T(), 7, page.Total, "total counts every match, not the page")

	page, err = suite.db.ListExpenses(suite.owner, models.ExpenseQuery{Limit: 5, Offset: 5})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"day 2", "day 1"}, suite.subjects(page))

	page, err = suite.db.ListExpenses(suite.owner, models.ExpenseQuery{})
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), page.Expenses, 7, "no limit returns every row")
}

func (suite *ExpenseTestSuite) TestListMonthIsOrderedSubsetOfAll() {
	f := gofakeit.New(11)
	for range 40 {
		d := f.DateRange(fixedNow.AddDate(0, -3, 0), fixedNow)
		suite.create(suite.owner, models.NewExpense{
			Date:    d.Format(models.DateLayout),
			Time:    fmt.Sprintf("%02d:%02d", f.Hour(), f.Minute()),
			Amount:  dec(fmt.Sprintf("%d", f.Number(1, 500))),
			Subject: f.Word(),
		})
	}

	all, err := suite.db.ListExpenses(suite.owner, models.ExpenseQuery{Filter: models.ExpenseFilter{Period: models.PeriodAll}})
	require.NoError(suite.T(), err)
	month, err := suite.db.ListExpenses(suite.owner, models.ExpenseQuery{
		Filter: models.ExpenseFilter{Period: models.PeriodMonth},
		Sort:   models.SortDateDesc,
	})
	require.NoError(suite.T(), err)

	ids := make(map[int64]bool, len(all.Expenses))
	for _, e := range all.Expenses {
		ids[e.ID] = true
	}
	for i, e := range month.Expenses {
		assert.True(suite.T(), ids[e.ID], "month listing returned an expense missing from all")
		assert.Equal(suite.T(), fixedNow.Format("2006-01"), e.Date[:7])
		if i > 0 {
			prev := month.Expenses[i-1]
			assert.GreaterOrEqual(suite.T(), prev.Date+" "+prev.Time, e.Date+" "+e.Time,
				"date_desc must be non-increasing by (date, time)")
		}
	}
	assert.LessOrEqual(suite.T(), len(month.Expenses), len(all.Expenses))
}

func (suite *ExpenseTestSuite) TestExpenseCategories() {
	suite.create(suite.owner, expense("2024-06-01", "08:00", "1", "a", "Gas"))
	suite.create(suite.owner, expense("2024-06-01", "08:00", "1", "b", "Food"))
	suite.create(suite.owner, expense("2024-06-01", "08:00", "1", "c", "Gas"))
	suite.create(suite.other, expense("2024-06-01", "08:00", "1", "d", "Travel"))

	cats, err := suite.db.ExpenseCategories(suite.owner)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), []string{"Food", "Gas"}, cats)
}

func (suite *ExpenseTestSuite) TestUpdateExpense() {
	e := suite.create(suite.owner, models.NewExpense{Date: "2024-06-01", Time: "08:00", Amount: dec("10"),
		Subject: "Taxi", Description: "to airport", Tags: "work"})

	later := fixedNow.Add(2 * time.Hour)
	suite.db.now = func() time.Time { return later }

	amount := dec("25.75")
	subject := "Taxi home"
	recurring := true
	empty := ""
	err := suite.db.UpdateExpense(e.ID, models.ExpenseFields{
		Amount:      &amount,
		Subject:     &subject,
		Recurring:   &recurring,
		Description: &empty,
	})
	require.NoError(suite.T(), err)

	got, err := suite.db.GetExpense(e.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "25.75", got.Amount.String())
	assert.Equal(suite.T(), "Taxi home", got.Subject)
	assert.True(suite.T(), got.Recurring)
	assert.Empty(suite.T(), got.Description)

	// Untouched fields keep their values.
	assert.Equal(suite.T(), "2024-06-01", got.Date)
	assert.Equal(suite.T(), "08:00", got.Time)
	assert.Equal(suite.T(), "work", got.Tags)
	assert.Equal(suite.T(), e.UserID, got.UserID)
	assert.WithinDuration(suite.T(), e.CreatedAt, got.CreatedAt, time.Second)
	assert.WithinDuration(suite.T(), later, got.UpdatedAt, time.Second)
}

func (suite *ExpenseTestSuite) TestUpdateExpenseNoFields() {
	e := suite.create(suite.owner, expense("2024-06-01", "08:00", "10", "Taxi", "Transportation"))

	err := suite.db.UpdateExpense(e.ID, models.ExpenseFields{})
	assert.ErrorIs(suite.T(), err, ErrNoOpUpdate)
}

func (suite *ExpenseTestSuite) TestUpdateExpenseMissing() {
	subject := "ghost"
	err := suite.db.UpdateExpense(9999, models.ExpenseFields{Subject: &subject})
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *ExpenseTestSuite) TestDeleteExpense() {
	e := suite.create(suite.owner, expense("2024-06-01", "08:00", "10", "Taxi", "Transportation"))

	require.NoError(suite.T(), suite.db.DeleteExpense(e.ID))

	_, err := suite.db.GetExpense(e.ID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

// Deleting is unconditional: a missing id and another owner's id both succeed
// silently. Authorisation is the caller's job.
func (suite *ExpenseTestSuite) TestDeleteExpenseDoesNotCheckExistenceOrOwner() {
	assert.NoError(suite.T(), suite.db.DeleteExpense(9999))

	theirs := suite.create(suite.other, expense("2024-06-01", "08:00", "10", "Bob's", "Other"))
	assert.NoError(suite.T(), suite.db.DeleteExpense(theirs.ID))

	_, err := suite.db.GetExpense(theirs.ID)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func TestExpenseSuite(t *testing.T) {
	suite.Run(t, new(ExpenseTestSuite))
}
