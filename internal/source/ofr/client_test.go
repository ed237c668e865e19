package ofr

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

func TestFetchFiltersWindowAndNulls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("mnemonics"); got != "REPO-TRI_AR_OO-P" {
			t.Errorf("mnemonics = %q", got)
		}
		w.Write([]byte(`{"REPO-TRI_AR_OO-P":{"timeseries":{"aggregation":[
			["2023-12-27", 1.0],
			["2024-01-03", 2.5],
			["2024-01-10", null],
			["2024-01-17", 3.5]
		]}}}`))
	}))
	defer srv.Close()

	c := New("ofr", srv.URL, models.Weekly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(),
		"REPO-TRI_AR_OO-P",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// pre-window point and null both dropped
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	if v, _ := s.At(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)); v != 3.5 {
		t.Fatalf("value = %v, want 3.5", v)
	}
}

func TestFetchDropsMalformedLabelOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"MMF-TOTAL":{"timeseries":{"aggregation":[
			["not-a-date", 1.0],
			["2024-01-10", 2.0]
		]}}}`))
	}))
	defer srv.Close()

	c := New("ofr", srv.URL, models.Weekly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(),
		"MMF-TOTAL",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("one bad label must not fail the series: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (bad label dropped)", s.Len())
	}
	if v, _ := s.At(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)); v != 2.0 {
		t.Fatalf("value = %v, want 2.0", v)
	}
}

func TestFetchMnemonicAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("ofr", srv.URL, models.Weekly, apphttp.NewClient(), testLogger(t))
	_, err := c.Fetch(context.Background(), "MISSING", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatalf("want error for absent mnemonic")
	}
}
