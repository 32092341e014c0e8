package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Investment  TransactionType = "investment"
	Expenditure TransactionType = "expenditure"
	Sales       TransactionType = "sales"
)

// MaxNameLength is the column width of the name field; longer names are
// truncated before storage.
const MaxNameLength = 100

// DateTimeLayout is the combined timestamp format submitted by the
// add/update forms (datetime-local inputs).
const DateTimeLayout = "2006-01-02T15:04"

// DateLayout is the calendar date format used by search parameters and
// the storage layer.
const DateLayout = "2006-01-02"

type (
	// TransactionType is the closed category set. The storage layer accepts
	// any short string; validation happens at the boundary.
	TransactionType string

	Transaction struct {
		ID   int64
		Name string
		Type TransactionType
		// Amount is signed; negative values are accepted.
		Amount float64
		// OccurredAt carries both the calendar date and the wall-clock time
		// captured from the combined form timestamp. Queries only ever use
		// the date component.
		OccurredAt time.Time
		// ReceiptImage is a relative path of the form "uploads/<name>",
		// empty when no receipt was uploaded.
		ReceiptImage string
	}

	// Totals aggregates per-category sums over a date range (or all time).
	Totals struct {
		Investments  float64
		Expenditures float64
		Sales        float64
	}

	// DateRange is an inclusive calendar date interval.
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrNotFound      = errors.New("transaction not found")
	ErrEmptyName     = errors.New("empty name")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidRange  = errors.New("start date after end date")
)

// ParseTransactionType validates a form value against the closed set.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.TrimSpace(strings.ToLower(s)))
	switch t {
	case Investment, Expenditure, Sales:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

func (t TransactionType) Validate() error {
	switch t {
	case Investment, Expenditure, Sales:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidType, string(t))
}

// ParseAmount converts a form amount field to a float. Any finite signed
// value is accepted.
func ParseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// ParseDateTime parses the combined date_time form field.
func ParseDateTime(s string) (time.Time, error) {
	ts, err := time.Parse(DateTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return ts, nil
}

// ParseDate parses a YYYY-MM-DD search parameter.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// NewDateRange builds an inclusive range, rejecting start > end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Date returns the calendar date component formatted for storage.
func (t Transaction) Date() string {
	return t.OccurredAt.Format(DateLayout)
}

// TimeOfDay returns the wall-clock component formatted for storage.
func (t Transaction) TimeOfDay() string {
	return t.OccurredAt.Format("15:04:05")
}

// HasReceipt reports whether a receipt image is attached.
func (t Transaction) HasReceipt() bool {
	return t.ReceiptImage != ""
}

// Profit derives net profit as sales minus money put in.
func (t Totals) Profit() float64 {
	return t.Sales - (t.Investments + t.Expenditures)
}
