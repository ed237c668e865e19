package sdmx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MacroSync/internal/domain/models"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestFetchMonthlyCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("startPeriod"); got != "2024-01" {
			t.Errorf("startPeriod = %q, want 2024-01", got)
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("STRUCTURE,REF_AREA,TIME_PERIOD,OBS_VALUE\n" +
			"CPI,USA,2024-01,309.7\n" +
			"CPI,USA,2024-02,\n" +
			"CPI,USA,202403,310.3\n"))
	}))
	defer srv.Close()

	c := New("oecd", srv.URL, models.Monthly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(),
		"OECD.SDD.TPS,DSD_PRICES@DF_PRICES_ALL,1.0/USA.M.N.CPI",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2 (empty value skipped)", s.Len())
	}
	// both label shapes normalize to month start
	if v, _ := s.At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); v != 310.3 {
		t.Fatalf("march = %v, want 310.3", v)
	}
}

func TestFetchNotFoundMeansEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New("oecd", srv.URL, models.Monthly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(), "whatever", time.Now().AddDate(-1, 0, 0), time.Now())
	if err != nil {
		t.Fatalf("404 must not be an error: %v", err)
	}
	if !s.Empty() {
		t.Fatalf("404 must yield an empty series")
	}
}

func TestFetchDropsMalformedPeriodOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("TIME_PERIOD,OBS_VALUE\n" +
			"bogus,100.0\n" +
			"2024-02,101.2\n"))
	}))
	defer srv.Close()

	c := New("oecd", srv.URL, models.Monthly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(), "cpi",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("one bad period must not fail the series: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (bad period dropped)", s.Len())
	}
	if v, _ := s.At(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)); v != 101.2 {
		t.Fatalf("value = %v, want 101.2", v)
	}
}

func TestFetchQuarterly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("startPeriod"); got != "1990-Q1" {
			t.Errorf("startPeriod = %q, want 1990-Q1", got)
		}
		w.Write([]byte("TIME_PERIOD,OBS_VALUE\n2024-Q1,1.6\n"))
	}))
	defer srv.Close()

	c := New("oecd", srv.URL, models.Quarterly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(), "gdp",
		time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if v, ok := s.At(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)); !ok || v != 1.6 {
		t.Fatalf("quarter must land on quarter end, got %v %v", v, ok)
	}
}
