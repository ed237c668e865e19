package ofr

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/series"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

type timeseries struct {
	Aggregation [][]json.RawMessage `json:"aggregation"`
}

type mnemonicEntry struct {
	Timeseries timeseries `json:"timeseries"`
}

// Client fetches mnemonics from the OFR short-term funding monitor.
type Client struct {
	name    string
	baseURL string
	freq    models.Frequency
	http    *apphttp.Client
	log     *applogger.Logger
}

// New creates an OFR adapter. The monitor needs no credential.
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

// Fetch retrieves one mnemonic. The endpoint has no date filter, so the
// window is applied client-side. Null observations are skipped.
func (c *Client) Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, error) {
	var out models.Series
	var resp map[string]mnemonicEntry
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		URL: c.baseURL + "/series/multifull",
		QueryParams: map[string][]string{
			"mnemonics": {code},
		},
	}, &resp)
	if err != nil {
		return out, fmt.Errorf("ofr %s: %w", code, err)
	}

	entry, ok := resp[code]
	if !ok {
		return out, fmt.Errorf("ofr %s: mnemonic absent from response", code)
	}

	for _, pair := range entry.Timeseries.Aggregation {
		if len(pair) != 2 {
			continue
		}
		var label string
		if err := json.Unmarshal(pair[0], &label); err != nil {
			continue
		}
		var value *float64
		if err := json.Unmarshal(pair[1], &value); err != nil || value == nil {
			continue
		}
		d, err := series.Normalize(label, c.freq)
		if err != nil {
			c.log.Warn("ofr: malformed period label",
				applogger.String("code", code),
				applogger.String("label", label),
			)
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		out.Set(d, *value)
	}
	return out, nil
}
