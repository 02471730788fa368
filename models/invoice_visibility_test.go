package models_test

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/exhibition_backend/models"
)

// NOTE: These tests are intentionally DB-free. They pin down the day-window
// arithmetic the employee list view depends on; the role-scoped queries built
// on top of it are exercised by the integration tests in the workflow package.

func TestEmployeeDayWindow_UTCMidnightBounds(t *testing.T) {
	now := time.Date(2026, 3, 15, 17, 42, 3, 0, time.UTC)
	start, end := models.EmployeeDayWindow(now, time.UTC)

	wantStart := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", end, wantEnd)
	}
}

func TestEmployeeDayWindow_JustBeforeMidnight(t *testing.T) {
	now := time.Date(2026, 3, 15, 23, 59, 59, 999999999, time.UTC)
	start, end := models.EmployeeDayWindow(now, time.UTC)

	if !now.After(start) || !now.Before(end) {
		t.Fatalf("now %v not inside [%v, %v)", now, start, end)
	}

	// One nanosecond later the window must be the next day.
	nextStart, _ := models.EmployeeDayWindow(now.Add(time.Nanosecond), time.UTC)
	if !nextStart.Equal(end) {
		t.Fatalf("next day start = %v, want %v", nextStart, end)
	}
}

func TestEmployeeDayWindow_StoreTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Yangon")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 19:00 UTC on the 15th is already the 16th in Yangon (UTC+6:30).
	now := time.Date(2026, 3, 15, 19, 0, 0, 0, time.UTC)
	start, end := models.EmployeeDayWindow(now, loc)

	wantStart := time.Date(2026, 3, 16, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(24 * time.Hour)) {
		t.Fatalf("end = %v, want %v", end, wantStart.Add(24*time.Hour))
	}
}

func TestEmployeeDayWindow_DSTTransitionDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2026-03-08: spring forward, the local day is only 23 hours long. The
	// window must still end at the next local midnight, not at start+24h.
	now := time.Date(2026, 3, 8, 15, 0, 0, 0, loc)
	start, end := models.EmployeeDayWindow(now, loc)

	wantStart := time.Date(2026, 3, 8, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2026, 3, 9, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", end, wantEnd)
	}
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("window length = %v, want 23h on the spring-forward day", got)
	}

	// 2026-11-01: fall back, a 25-hour local day.
	now = time.Date(2026, 11, 1, 15, 0, 0, 0, loc)
	start, end = models.EmployeeDayWindow(now, loc)
	if got := end.Sub(start); got != 25*time.Hour {
		t.Fatalf("window length = %v, want 25h on the fall-back day", got)
	}
	if !end.Equal(time.Date(2026, 11, 2, 0, 0, 0, 0, loc)) {
		t.Fatalf("end = %v, want next local midnight", end)
	}
}

func TestEmployeeDayWindow_YesterdayExcluded(t *testing.T) {
	now := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	start, end := models.EmployeeDayWindow(now, time.UTC)

	yesterday := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	if !yesterday.Before(start) {
		t.Fatalf("yesterday %v should fall before window start %v", yesterday, start)
	}
	today := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if today.Before(start) || !today.Before(end) {
		t.Fatalf("midnight today %v should be inside [%v, %v)", today, start, end)
	}
}
