package models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		key       MonthKey
		wantYear  int
		wantMonth time.Month
		wantValid bool
	}{
		{202405, 2024, time.May, true},
		{202412, 2024, time.December, true},
		{202401, 2024, time.January, true},
		{202413, 2024, 13, false},
		{202400, 2024, 0, false},
		{TemplateMonth, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(int(tt.key)), func(t *testing.T) {
			if got := tt.key.Year(); got != tt.wantYear {
				t.Errorf("Year() = %d, want %d", got, tt.wantYear)
			}
			if got := tt.key.Month(); got != tt.wantMonth {
				t.Errorf("Month() = %d, want %d", got, tt.wantMonth)
			}
			if got := tt.key.Valid(); got != tt.wantValid {
				t.Errorf("Valid() = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

func TestMonthOfAndBounds(t *testing.T) {
	d := time.Date(2024, time.May, 31, 23, 30, 0, 0, time.UTC)
	if got := MonthOf(d); got != 202405 {
		t.Fatalf("MonthOf = %d, want 202405", got)
	}

	start, end := MonthKey(202412).Bounds()
	if !start.Equal(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
	if s := MonthKey(202405).String(); s != "202405" {
		t.Errorf("String() = %q", s)
	}
}

func TestErrorKinds(t *testing.T) {
	splitErr := InvalidSplit("percents must sum to 100")
	if !errors.Is(splitErr, ErrInvalidSplit) {
		t.Error("SplitError should match ErrInvalidSplit")
	}
	var se *SplitError
	if !errors.As(splitErr, &se) || se.Rule != "percents must sum to 100" {
		t.Errorf("unexpected split error: %v", splitErr)
	}

	cause := errors.New("disk I/O error")
	txErr := fmt.Errorf("delete person: %w", &TxError{Op: "delete person", Err: cause})
	if !errors.Is(txErr, ErrTransactionFailed) {
		t.Error("TxError should match ErrTransactionFailed")
	}
	if !errors.Is(txErr, cause) {
		t.Error("TxError should unwrap to its cause")
	}

	nf := NotFound("expense", "abc")
	if !errors.Is(nf, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	if nf.Error() != "expense not found: abc" {
		t.Errorf("Error() = %q", nf.Error())
	}
}
