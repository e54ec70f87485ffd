// Package validation checks expense input before it reaches storage.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Limits enforced on expense input.
const (
	MaxSubjectLength     = 100
	MaxDescriptionLength = 500
)

// MaxAmount is the largest accepted expense amount.
var MaxAmount = decimal.NewFromInt(1_000_000)

// ExpenseInput holds the raw, untrusted expense fields.
type ExpenseInput struct {
	Amount      string
	Subject     string
	Date        string
	Time        string
	Description string
}

// Error is returned when input fails validation. It carries every violation.
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Expense returns every rule violation in in, in a stable order.
// An empty result means the input is valid.
func Expense(in ExpenseInput) []string {
	var msgs []string
	msgs = appendIf(msgs, amount(in.Amount))
	msgs = appendIf(msgs, subject(in.Subject))
	msgs = appendIf(msgs, required(in.Date, "Expense date is required"))
	msgs = appendIf(msgs, required(in.Time, "Expense time is required"))
	msgs = appendIf(msgs, description(in.Description))
	return msgs
}

// Names of the fields understood by Partial.
const (
	FieldAmount      = "amount"
	FieldSubject     = "subject"
	FieldDate        = "expense_date"
	FieldTime        = "expense_time"
	FieldDescription = "description"
)

// Partial validates only the fields present reports as supplied. It is used
// for updates, where absent fields keep their stored values.
func Partial(in ExpenseInput, present func(field string) bool) []string {
	var msgs []string
	if present(FieldAmount) {
		msgs = appendIf(msgs, amount(in.Amount))
	}
	if present(FieldSubject) {
		msgs = appendIf(msgs, subject(in.Subject))
	}
	if present(FieldDate) {
		msgs = appendIf(msgs, required(in.Date, "Expense date is required"))
	}
	if present(FieldTime) {
		msgs = appendIf(msgs, required(in.Time, "Expense time is required"))
	}
	if present(FieldDescription) {
		msgs = appendIf(msgs, description(in.Description))
	}
	return msgs
}

func appendIf(msgs []string, msg string) []string {
	if msg == "" {
		return msgs
	}
	return append(msgs, msg)
}

func amount(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Amount is required"
	}
	d, err := decimal.NewFromString(s)
	switch {
	case err != nil || !d.IsPositive():
		return "Amount must be a positive number"
	case !d.Equal(d.Truncate(2)):
		return "Amount cannot have more than 2 decimal places"
	case d.GreaterThan(MaxAmount):
		return "Amount cannot exceed 1,000,000"
	}
	return ""
}

func subject(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Subject is required"
	}
	if utf8.RuneCountInString(s) > MaxSubjectLength {
		return "Subject cannot exceed 100 characters"
	}
	return ""
}

func required(s, msg string) string {
	if strings.TrimSpace(s) == "" {
		return msg
	}
	return ""
}

func description(s string) string {
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		return "Description cannot exceed 500 characters"
	}
	return ""
}

// Check runs Expense and wraps any violations in an *Error.
func Check(in ExpenseInput) error {
	if msgs := Expense(in); len(msgs) > 0 {
		return &Error{Messages: msgs}
	}
	return nil
}

// CheckPartial runs Partial and wraps any violations in an *Error.
func CheckPartial(in ExpenseInput, present func(field string) bool) error {
	if msgs := Partial(in, present); len(msgs) > 0 {
		return &Error{Messages: msgs}
	}
	return nil
}
