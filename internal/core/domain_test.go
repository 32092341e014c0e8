package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseTransactionType(t *testing.T) {
	for _, s := range []string{"investment", "expenditure", "sales", " Sales ", "INVESTMENT"} {
		if _, err := ParseTransactionType(s); err != nil {
			t.Fatalf("ParseTransactionType(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "income", "sale", "expense"} {
		if _, err := ParseTransactionType(s); !errors.Is(err, ErrInvalidType) {
			t.Fatalf("ParseTransactionType(%q): expected ErrInvalidType, got %v", s, err)
		}
	}
}

func TestParseAmountAcceptsSignedValues(t *testing.T) {
	cases := map[string]float64{
		"4.50":   4.50,
		"-12.30": -12.30,
		" 100 ":  100,
		"0":      0,
	}
	for in, want := range cases {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseAmount(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseAmount("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseDateTimeSplitsIntoDateAndTime(t *testing.T) {
	ts, err := ParseDateTime("2024-03-01T09:00")
	if err != nil {
		t.Fatalf("ParseDateTime: %v", err)
	}
	tx := Transaction{OccurredAt: ts}
	if tx.Date() != "2024-03-01" {
		t.Fatalf("Date() = %q", tx.Date())
	}
	if tx.TimeOfDay() != "09:00:00" {
		t.Fatalf("TimeOfDay() = %q", tx.TimeOfDay())
	}

	if _, err := ParseDateTime("2024-03-01 09:00"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for wrong layout, got %v", err)
	}
}

func TestNewDateRange(t *testing.T) {
	start, _ := ParseDate("2024-01-01")
	end, _ := ParseDate("2024-01-31")

	if _, err := NewDateRange(start, end); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if _, err := NewDateRange(start, start); err != nil {
		t.Fatalf("single-day range rejected: %v", err)
	}
	if _, err := NewDateRange(end, start); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Name:       "Coffee",
		Type:       Expenditure,
		Amount:     4.50,
		OccurredAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	noName := valid
	noName.Name = "  "
	if err := noName.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	badType := valid
	badType.Type = "income"
	if err := badType.Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}

	noDate := valid
	noDate.OccurredAt = time.Time{}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	negative := valid
	negative.Amount = -10
	if err := negative.Validate(); err != nil {
		t.Fatalf("negative amounts are allowed, got %v", err)
	}
}

func TestTotalsProfit(t *testing.T) {
	tot := Totals{Investments: 0, Expenditures: 30, Sales: 100}
	if got := tot.Profit(); got != 70 {
		t.Fatalf("Profit() = %v, want 70", got)
	}

	zero := Totals{}
	if got := zero.Profit(); got != 0 {
		t.Fatalf("empty Profit() = %v, want 0", got)
	}
}
