package fred

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MacroSync/internal/domain/models"
	"MacroSync/internal/series"
	apphttp "MacroSync/pkg/http"
	applogger "MacroSync/pkg/logger"
)

const dateLayout = "2006-01-02"

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// Client fetches observations from the FRED API.
type Client struct {
	name    string
	baseURL string
	apiKey  string
	freq    models.Frequency
	http    *apphttp.Client
	log     *applogger.Logger
}

// New creates a FRED adapter.
func New(name, baseURL, apiKey string, freq models.Frequency, hc *apphttp.Client, log *applogger.Logger) *Client {
	return &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		freq:    freq,
		http:    hc,
		log:     log,
	}
}

// Provider returns the configured provider name.
func (c *Client) Provider() string { return c.name }

// Frequency returns the native observation frequency.
func (c *Client) Frequency() models.Frequency { return c.freq }

// Fetch retrieves one series over [start, end]. FRED marks missing
// observations with the literal "." which is skipped, not zeroed.
func (c *Client) Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, error) {
	var out models.Series
	var resp observationsResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		URL: c.baseURL + "/series/observations",
		QueryParams: map[string][]string{
			"series_id":         {code},
			"api_key":           {c.apiKey},
			"file_type":         {"json"},
			"observation_start": {start.Format(dateLayout)},
			"observation_end":   {end.Format(dateLayout)},
		},
	}, &resp)
	if err != nil {
		return out, fmt.Errorf("fred %s: %w", code, err)
	}

	for _, obs := range resp.Observations {
		if obs.Value == "" || obs.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			c.log.Warn("fred: unparseable observation",
				applogger.String("code", code),
				applogger.String("date", obs.Date),
				applogger.String("value", obs.Value),
			)
			continue
		}
		d, err := series.Normalize(obs.Date, c.freq)
		if err != nil {
			c.log.Warn("fred: malformed period label",
				applogger.String("code", code),
				applogger.String("date", obs.Date),
			)
			continue
		}
		out.Set(d, v)
	}
	return out, nil
}
