package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"expense-manager/internal/models"
	"expense-manager/internal/storage"
	"expense-manager/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

var paymentMethods = []string{"Cash", "Credit Card", "Debit Card", "Bank Transfer"}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Existing user to add expenses to")
	count := fs.Int("n", 50, "Number of expenses to create")
	months := fs.Int("months", 6, "Spread expenses over this many trailing months")
	seed := fs.Int64("seed", 0, "Random seed (0 picks one)")
	dbPath := fs.String("db", "expenses.db", "Path to database file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: seed -user <username> [-n <count>] [-months <months>] [-seed <seed>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}
	if *count < 1 || *months < 1 {
		return fmt.Errorf("-n and -months must be positive")
	}

	if path := os.Getenv("DB_PATH"); path != "" && *dbPath == "expenses.db" {
		*dbPath = path
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByUsername(*username)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %s does not exist", *username)
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	faker := gofakeit.New(*seed)
	end := time.Now()
	start := end.AddDate(0, -*months, 0)

	total := decimal.Zero
	for range *count {
		e := fakeExpense(faker, start, end)
		if _, err := db.CreateExpense(user.ID, e); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		total = total.Add(e.Amount)
	}

	fmt.Fprintf(stdout, "Created %d expenses for %s totalling %s\n", *count, user.Username, total.StringFixed(2))
	return nil
}

// fakeExpense returns a random expense that passes validation.
func fakeExpense(f *gofakeit.Faker, start, end time.Time) models.NewExpense {
	when := f.DateRange(start, end)
	e := models.NewExpense{
		Date:          when.Format(models.DateLayout),
		Time:          when.Format(models.TimeLayout),
		Amount:        decimal.NewFromFloat(f.Price(1, 500)).Round(2),
		Subject:       f.Company(),
		Description:   f.Sentence(8),
		Category:      f.RandomString(models.SuggestedCategories),
		PaymentMethod: f.RandomString(paymentMethods),
		Recurring:     f.Number(1, 10) == 1,
	}
	e.Subject = truncate(e.Subject, validation.MaxSubjectLength)
	e.Description = truncate(e.Description, validation.MaxDescriptionLength)
	return e
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
