package dates

import (
	"testing"
	"time"
)

func TestDayStringUsesBerlinTime(t *testing.T) {
	// 23:30 UTC on March 1st is already March 2nd in Berlin (UTC+1).
	instant := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if got := DayString(instant); got != "2024-03-02" {
		t.Errorf("DayString = %q, want 2024-03-02", got)
	}
}

func TestParseDayRoundTrip(t *testing.T) {
	day, err := ParseDay("2024-06-15")
	if err != nil {
		t.Fatalf("ParseDay failed: %v", err)
	}
	if got := DayString(day); got != "2024-06-15" {
		t.Errorf("round trip = %q, want 2024-06-15", got)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("15.06.2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDiffDaysAcrossMidnight(t *testing.T) {
	// Less than 24h apart but on different local days.
	a := time.Date(2024, 6, 16, 0, 30, 0, 0, Location)
	b := time.Date(2024, 6, 15, 23, 30, 0, 0, Location)
	if got := DiffDays(a, b); got != 1 {
		t.Errorf("DiffDays = %d, want 1", got)
	}
}

func TestDiffDaysAcrossDSTTransition(t *testing.T) {
	// Europe/Berlin springs forward on 2024-03-31: that local day is only
	// 23 hours long. Naive hour division would undercount.
	before := time.Date(2024, 3, 30, 12, 0, 0, 0, Location)
	after := time.Date(2024, 4, 2, 12, 0, 0, 0, Location)
	if got := DiffDays(after, before); got != 3 {
		t.Errorf("DiffDays over DST = %d, want 3", got)
	}
}

func TestDiffDaysSigned(t *testing.T) {
	a := time.Date(2024, 6, 10, 0, 0, 0, 0, Location)
	b := time.Date(2024, 6, 15, 0, 0, 0, 0, Location)
	if got := DiffDays(a, b); got != -5 {
		t.Errorf("DiffDays = %d, want -5", got)
	}
}

func TestAddDaysOverDST(t *testing.T) {
	start := time.Date(2024, 3, 30, 0, 0, 0, 0, Location)
	got := AddDays(start, 2)
	if DayString(got) != "2024-04-01" {
		t.Errorf("AddDays = %s, want 2024-04-01", DayString(got))
	}
	if DiffDays(got, start) != 2 {
		t.Errorf("DiffDays after AddDays = %d, want 2", DiffDays(got, start))
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 6, 15, 8, 0, 0, 0, Location)
	b := time.Date(2024, 6, 15, 22, 0, 0, 0, Location)
	if !SameDay(a, b) {
		t.Error("expected same day")
	}
	if SameDay(a, AddDays(b, 1)) {
		t.Error("expected different days")
	}
}
