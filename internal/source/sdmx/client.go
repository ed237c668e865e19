package sdmx

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/series"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

// Client fetches series from SDMX data endpoints (OECD, ECB) as CSV.
type Client struct {
	name    string
	baseURL string
	freq    models.Frequency
	http    *apphttp.Client
	log     *applogger.Logger
}

// New creates an SDMX adapter. SDMX endpoints are keyless.
func New(name, baseURL string, freq models.Frequency, hc *apphttp.Client, log *applogger.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		freq:    freq,
		http:    hc,
		log:     log,
	}
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.name }

// Frequency returns the native observation frequency.
func (c *Client) Frequency() models.Frequency { return c.freq }

// Fetch retrieves one series key as SDMX-CSV and extracts the
// TIME_PERIOD/OBS_VALUE pairs. A 404 means the key legitimately has no
// data in the window and yields an empty series, not an error.
func (c *Client) Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, error) {
	var out models.Series
	resp, err := c.http.SendRequest(ctx, &apphttp.RequestOptions{
		URL: c.baseURL + "/" + code,
		Headers: map[string]string{
			"Accept": "text/csv",
		},
		QueryParams: map[string][]string{
			"startPeriod": {periodParam(start, c.freq)},
			"endPeriod":   {periodParam(end, c.freq)},
			"format":      {"csvfile"},
		},
	})
	if err != nil {
		return out, fmt.Errorf("sdmx %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return out, fmt.Errorf("sdmx %s: unexpected status %d: %s", code, resp.StatusCode, body)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		return out, fmt.Errorf("sdmx %s: read header: %w", code, err)
	}

	timeIdx, valueIdx := -1, -1
	for i, col := range header {
		switch col {
		case "TIME_PERIOD":
			timeIdx = i
		case "OBS_VALUE":
			valueIdx = i
		}
	}
	if timeIdx < 0 || valueIdx < 0 {
		return out, fmt.Errorf("sdmx %s: csv lacks TIME_PERIOD/OBS_VALUE columns", code)
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.Series{}, fmt.Errorf("sdmx %s: read row: %w", code, err)
		}
		if timeIdx >= len(rec) || valueIdx >= len(rec) || rec[valueIdx] == "" {
			continue
		}
		v, err := strconv.ParseFloat(rec[valueIdx], 64)
		if err != nil {
			c.log.Warn("sdmx: unparseable observation",
				applogger.String("code", code),
				applogger.String("period", rec[timeIdx]),
				applogger.String("value", rec[valueIdx]),
			)
			continue
		}
		d, err := series.Normalize(rec[timeIdx], c.freq)
		if err != nil {
			c.log.Warn("sdmx: malformed period label",
				applogger.String("code", code),
				applogger.String("period", rec[timeIdx]),
			)
			continue
		}
		out.Set(d, v)
	}
	return out, nil
}

// periodParam formats a window bound the way SDMX expects for the
// frequency dimension.
func periodParam(t time.Time, freq models.Frequency) string {
	switch freq {
	case models.Monthly:
		return t.Format("2006-01")
	case models.Quarterly:
		return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
	default:
		return t.Format("2006-01-02")
	}
}
