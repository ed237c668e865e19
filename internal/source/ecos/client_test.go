package ecos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
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

func TestFetchMonthly(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"StatisticSearch":{"list_total_count":2,"row":[
			{"TIME":"202401","DATA_VALUE":"3.50"},
			{"TIME":"202402","DATA_VALUE":"3.50"}
		]}}`))
	}))
	defer srv.Close()

	c := New("ecos", srv.URL, "secret", models.Monthly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(),
		"722Y001/0101000",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d, want 2", s.Len())
	}
	for _, seg := range []string{"/StatisticSearch/secret/json/en/1/100000/722Y001/M/202401/202402/0101000"} {
		if !strings.HasSuffix(gotPath, seg) {
			t.Fatalf("path = %q, want suffix %q", gotPath, seg)
		}
	}
}

func TestFetchDropsMalformedTimeOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"StatisticSearch":{"list_total_count":2,"row":[
			{"TIME":"2024XX","DATA_VALUE":"3.25"},
			{"TIME":"202403","DATA_VALUE":"3.50"}
		]}}`))
	}))
	defer srv.Close()

	c := New("ecos", srv.URL, "secret", models.Monthly, apphttp.NewClient(), testLogger(t))
	s, err := c.Fetch(context.Background(),
		"722Y001/0101000",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("one bad label must not fail the series: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1 (bad label dropped)", s.Len())
	}
	if v, _ := s.At(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); v != 3.50 {
		t.Fatalf("value = %v, want 3.50", v)
	}
}

func TestFetchNoKey(t *testing.T) {
	c := New("ecos", "http://example.invalid", "", models.Monthly, apphttp.NewClient(), testLogger(t))
	_, err := c.Fetch(context.Background(), "722Y001/0101000", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil {
		t.Fatalf("want error when key missing")
	}
}

func TestFetchUpstreamResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"RESULT":{"CODE":"INFO-200","MESSAGE":"no data"}}`))
	}))
	defer srv.Close()

	c := New("ecos", srv.URL, "secret", models.Monthly, apphttp.NewClient(), testLogger(t))
	_, err := c.Fetch(context.Background(), "722Y001/0101000", time.Now().AddDate(0, -1, 0), time.Now())
	if err == nil || !strings.Contains(err.Error(), "INFO-200") {
		t.Fatalf("want RESULT error, got %v", err)
	}
}
